// Package credential resolves AWS credentials from an ordered set of sources: explicit
// environment variables, the shared credentials file at its conventional path, then EC2
// instance-role metadata.  Each source either produces credentials or abstains; the first
// to produce wins.
//
// The chain is exposed as an aws.CredentialsProvider so it can be handed to the s3
// package's Options.Credentials.  It deliberately does not cache: the adapter re-resolves
// credentials per session to honor rotation and expiry, and callers wanting caching can
// wrap the chain in aws.NewCredentialsCache.
package credential

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials/ec2rolecreds"
	"github.com/aws/aws-sdk-go-v2/feature/ec2/imds"
	homedir "github.com/mitchellh/go-homedir"
)

// ErrNoCredentials is returned by a Chain when every source abstained.
const ErrNoCredentials = chainError("no credentials resolved by any source")

type chainError string

func (e chainError) Error() string { return string(e) }

// DefaultProfile is the shared-credentials-file section consulted when AWS_PROFILE is
// not set.
const DefaultProfile = "default"

// Chain tries its providers in order until one produces credentials.  A provider error is
// treated as an abstention; if all abstain, Retrieve returns ErrNoCredentials with every
// abstention joined in for diagnostics.
type Chain struct {
	providers []aws.CredentialsProvider
}

var _ aws.CredentialsProvider = (*Chain)(nil)

// NewChain builds a resolver chain over the given providers.  With no arguments it is the
// conventional lookup order: environment, shared credentials file, instance-role metadata.
func NewChain(providers ...aws.CredentialsProvider) *Chain {
	if len(providers) == 0 {
		providers = []aws.CredentialsProvider{
			Env(),
			SharedFile(""),
			InstanceRole(),
		}
	}
	return &Chain{providers: providers}
}

// Retrieve implements aws.CredentialsProvider.
func (c *Chain) Retrieve(ctx context.Context) (aws.Credentials, error) {
	var abstained []error
	for _, p := range c.providers {
		creds, err := p.Retrieve(ctx)
		if err == nil {
			return creds, nil
		}
		abstained = append(abstained, err)
	}
	return aws.Credentials{}, fmt.Errorf("%w: %w", ErrNoCredentials, errors.Join(abstained...))
}

// Env returns the environment-variable source.  It reads AWS_ACCESS_KEY_ID (or
// AWS_ACCESS_KEY) and AWS_SECRET_ACCESS_KEY (or AWS_SECRET_KEY), plus AWS_SESSION_TOKEN
// when present, and abstains when either half of the key pair is missing.
func Env() aws.CredentialsProvider {
	return aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
		id := os.Getenv("AWS_ACCESS_KEY_ID")
		if id == "" {
			id = os.Getenv("AWS_ACCESS_KEY")
		}
		secret := os.Getenv("AWS_SECRET_ACCESS_KEY")
		if secret == "" {
			secret = os.Getenv("AWS_SECRET_KEY")
		}
		if id == "" || secret == "" {
			return aws.Credentials{}, errors.New("environment credentials not set")
		}
		return aws.Credentials{
			AccessKeyID:     id,
			SecretAccessKey: secret,
			SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
			Source:          "EnvProvider",
		}, nil
	})
}

// SharedFile returns the credentials-file source.  An empty path means the conventional
// ~/.aws/credentials; the profile is AWS_PROFILE or "default".  The source abstains when
// the file or profile is absent or carries no key pair.
func SharedFile(path string) aws.CredentialsProvider {
	return aws.CredentialsProviderFunc(func(ctx context.Context) (aws.Credentials, error) {
		if path == "" {
			expanded, err := homedir.Expand("~/.aws/credentials")
			if err != nil {
				return aws.Credentials{}, fmt.Errorf("shared credentials path: %w", err)
			}
			path = expanded
		}

		profile := os.Getenv("AWS_PROFILE")
		if profile == "" {
			profile = DefaultProfile
		}

		shared, err := config.LoadSharedConfigProfile(ctx, profile, func(o *config.LoadSharedConfigOptions) {
			o.CredentialsFiles = []string{path}
			o.ConfigFiles = []string{}
		})
		if err != nil {
			return aws.Credentials{}, fmt.Errorf("shared credentials file: %w", err)
		}
		if !shared.Credentials.HasKeys() {
			return aws.Credentials{}, fmt.Errorf("shared credentials file %s: profile %q has no keys", path, profile)
		}

		creds := shared.Credentials
		creds.Source = "SharedConfigCredentials"
		return creds, nil
	})
}

// InstanceRole returns the EC2 instance-role metadata source.  Off-instance it abstains
// with the metadata client's error.
func InstanceRole() aws.CredentialsProvider {
	return ec2rolecreds.New(func(o *ec2rolecreds.Options) {
		o.Client = imds.New(imds.Options{})
	})
}

// InstanceRegion asks the instance metadata service for the region the process runs in.
// It is a convenience for hosts that configure neither a locator region nor AWS_REGION.
func InstanceRegion(ctx context.Context) (string, error) {
	out, err := imds.New(imds.Options{}).GetRegion(ctx, &imds.GetRegionInput{})
	if err != nil {
		return "", fmt.Errorf("instance region: %w", err)
	}
	return out.Region, nil
}
