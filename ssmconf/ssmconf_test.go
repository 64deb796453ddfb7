package ssmconf_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/judejinjin/riskconf"
	"github.com/judejinjin/riskconf/ssmconf"
)

type fakeClient struct {
	t     *testing.T
	pages []*ssm.GetParametersByPathOutput
	err   error

	calls int
}

func (f *fakeClient) GetParametersByPath(_ context.Context, params *ssm.GetParametersByPathInput,
	_ ...func(*ssm.Options)) (*ssm.GetParametersByPathOutput, error) {

	f.t.Helper()

	if f.err != nil {
		return nil, f.err
	}

	assert.Equal(f.t, "/uat/riskplatform", aws.ToString(params.Path))
	assert.True(f.t, aws.ToBool(params.Recursive))
	assert.True(f.t, aws.ToBool(params.WithDecryption))

	if f.calls > 0 {
		assert.NotNil(f.t, params.NextToken)
	}

	require.Less(f.t, f.calls, len(f.pages))
	page := f.pages[f.calls]
	f.calls++

	return page, nil
}

func param(name, value string) types.Parameter {
	return types.Parameter{
		Name:  aws.String(name),
		Value: aws.String(value),
	}
}

func TestFetch(t *testing.T) {
	client := &fakeClient{
		t: t,
		pages: []*ssm.GetParametersByPathOutput{
			{
				Parameters: []types.Parameter{
					param("/uat/riskplatform/database/riskdb/host", "uat-host"),
					param("/uat/riskplatform/database/riskdb/port", "5433"),
				},
				NextToken: aws.String("page-2"),
			},
			{
				Parameters: []types.Parameter{
					param("/uat/riskplatform/cloud/s3/bucket", "risk-reports"),
				},
			},
		},
	}

	source := ssmconf.New(client)

	config, err := source.Fetch(context.Background(), riskconf.UAT, "riskplatform")
	require.NoError(t, err)

	eConfig := riskconf.M{
		"database": riskconf.M{
			"riskdb": riskconf.M{
				"host": "uat-host",
				"port": "5433",
			},
		},

		"cloud": riskconf.M{
			"s3": riskconf.M{
				"bucket": "risk-reports",
			},
		},
	}

	assert.Equal(t, eConfig, config)
	assert.Equal(t, 2, client.calls)
}

func TestFetchError(t *testing.T) {
	backendErr := errors.New("AccessDeniedException")
	source := ssmconf.New(&fakeClient{t: t, err: backendErr})

	_, err := source.Fetch(context.Background(), riskconf.UAT, "riskplatform")
	require.Error(t, err)
	assert.ErrorIs(t, err, backendErr)
	assert.Contains(t, err.Error(), "/uat/riskplatform")
}

func TestFetchEmptyPrefix(t *testing.T) {
	client := &fakeClient{
		t:     t,
		pages: []*ssm.GetParametersByPathOutput{{}},
	}

	source := ssmconf.New(client)

	config, err := source.Fetch(context.Background(), riskconf.UAT, "riskplatform")
	require.NoError(t, err)
	assert.Empty(t, config)
}
