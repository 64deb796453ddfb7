// Package ssmconf is the remote parameter-store source for the riskconf
// package, backed by AWS Systems Manager Parameter Store. Parameters live
// under the path convention
//
//	/{environment}/{app_name}/{category}/{key}
//
// and are retrieved in bulk by prefix, decrypting values stored as
// SecureString. Parameter paths map onto the configuration tree: the
// parameter /uat/riskplatform/database/riskdb/host becomes the tree value
// database.riskdb.host.
package ssmconf

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"

	"github.com/judejinjin/riskconf"
)

const errPref = "ssmconf"

// Client is the subset of the Parameter Store API used by the source.
type Client interface {
	GetParametersByPath(ctx context.Context, params *ssm.GetParametersByPathInput,
		optFns ...func(*ssm.Options)) (*ssm.GetParametersByPathOutput, error)
}

// Source fetches a configuration document from Parameter Store. It
// implements riskconf.RemoteSource.
type Source struct {
	client Client
}

// New creates a new source instance around a Parameter Store client.
func New(client Client) *Source {
	return &Source{
		client: client,
	}
}

// NewFromConfig creates a new source instance from a resolved aws.Config.
func NewFromConfig(cfg aws.Config) *Source {
	return New(ssm.NewFromConfig(cfg))
}

// Fetch recursively retrieves all parameters under the environment and
// application prefix and converts them into a configuration tree.
func (s *Source) Fetch(ctx context.Context, env riskconf.Environment, app string) (riskconf.M, error) {
	prefix := "/" + string(env) + "/" + app

	input := &ssm.GetParametersByPathInput{
		Path:           aws.String(prefix),
		Recursive:      aws.Bool(true),
		WithDecryption: aws.Bool(true),
	}

	config := make(riskconf.M)

	for {
		out, err := s.client.GetParametersByPath(ctx, input)

		if err != nil {
			return nil, fmt.Errorf("%s: cannot read parameters under %s: %w",
				errPref, prefix, err)
		}

		for _, param := range out.Parameters {
			if param.Name == nil || param.Value == nil {
				continue
			}

			rel := strings.Trim(strings.TrimPrefix(*param.Name, prefix), "/")

			if rel == "" {
				continue
			}

			setPath(config, strings.Split(rel, "/"), *param.Value)
		}

		if out.NextToken == nil {
			break
		}

		input.NextToken = out.NextToken
	}

	return config, nil
}

func setPath(config riskconf.M, keys []string, value string) {
	node := config

	for _, key := range keys[:len(keys)-1] {
		child, ok := node[key].(riskconf.M)

		if !ok {
			child = make(riskconf.M)
			node[key] = child
		}

		node = child
	}

	node[keys[len(keys)-1]] = value
}
