package riskconf

import (
	"context"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
)

// AWSCloudName is the cloud section holding AWS credentials and region.
const AWSCloudName = "aws"

// credentialsSource labels credentials projected from the resolved
// configuration.
const credentialsSource = "riskconf"

// AWSCredentials projects the resolved "cloud.aws" section into SDK
// credentials.
func (r *Resolver) AWSCredentials(ctx context.Context) (aws.Credentials, error) {
	cloud, err := r.CloudConfig(ctx, AWSCloudName)

	if err != nil {
		return aws.Credentials{}, err
	}

	return aws.Credentials{
		AccessKeyID:     cloud.AccessKeyID,
		SecretAccessKey: cloud.SecretAccessKey,
		SessionToken:    cloud.SessionToken,
		Source:          credentialsSource,
	}, nil
}

// AWSConfig builds an aws.Config from the resolved cloud section. The
// region and any inline or secret-expanded static credentials take
// precedence; anything the section leaves unset falls through to the SDK
// default chain (shared config files, instance roles and so on).
func (r *Resolver) AWSConfig(ctx context.Context) (aws.Config, error) {
	cloud, err := r.CloudConfig(ctx, AWSCloudName)

	if err != nil {
		return aws.Config{}, err
	}

	opts := make([]func(*awsconfig.LoadOptions) error, 0, 2)

	if cloud.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cloud.Region))
	}

	if cloud.AccessKeyID != "" && cloud.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(
				cloud.AccessKeyID, cloud.SecretAccessKey, cloud.SessionToken)))
	}

	return awsconfig.LoadDefaultConfig(ctx, opts...)
}

// SetupAWSEnvironment exports the resolved cloud section into the process
// environment for consumers that rely on the SDK default chain. Variables
// already set externally are left untouched.
func (r *Resolver) SetupAWSEnvironment(ctx context.Context) error {
	cloud, err := r.CloudConfig(ctx, AWSCloudName)

	if err != nil {
		return err
	}

	pairs := map[string]string{
		"AWS_ACCESS_KEY_ID":     cloud.AccessKeyID,
		"AWS_SECRET_ACCESS_KEY": cloud.SecretAccessKey,
		"AWS_SESSION_TOKEN":     cloud.SessionToken,
		"AWS_DEFAULT_REGION":    cloud.Region,
	}

	for key, value := range pairs {
		if value == "" {
			continue
		}

		if _, ok := os.LookupEnv(key); ok {
			continue
		}

		if err := os.Setenv(key, value); err != nil {
			return err
		}
	}

	return nil
}
