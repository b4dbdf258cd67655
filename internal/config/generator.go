package config

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/go-github/v59/github"
	"github.com/kelseyhightower/envconfig"
	"golang.org/x/oauth2"
)

const DefaultReleaseRepo = "GodTierGamers/DiscordLogger"

type GeneratorConfig struct {
	AssetBase                   string        `envconfig:"DL_BASE"`
	RelayURL                    string        `envconfig:"DL_PROXY_URL"`
	RelayOrigin                 string        `envconfig:"DL_RELAY_ORIGIN"`
	CatalogFile                 string        `envconfig:"DL_CATALOG_FILE"`
	FetchRetries                int           `envconfig:"DL_FETCH_RETRIES" default:"0"`
	HTTPTimeout                 time.Duration `envconfig:"DL_HTTP_TIMEOUT" default:"15s"`
	GitHubToken                 string        `envconfig:"GITHUB_TOKEN"`
	ReleaseRepo                 string        `envconfig:"DL_RELEASE_REPO" default:"GodTierGamers/DiscordLogger"`
	CloudflareR2AccessKeyID     string        `envconfig:"CLOUDFLARE_R2_ACCESS_KEY_ID"`
	CloudflareR2SecretAccessKey string        `envconfig:"CLOUDFLARE_R2_SECRET_ACCESS_KEY"`
	CloudflareAccountID         string        `envconfig:"CLOUDFLARE_ACCOUNT_ID"`
}

func NewGeneratorConfigFromEnv() (*GeneratorConfig, error) {
	var gCfg GeneratorConfig
	err := envconfig.Process("", &gCfg)
	if err != nil {
		return nil, err
	}
	return &gCfg, nil
}

// HasS3Credentials reports whether s3:// asset locators can be served.
func (g *GeneratorConfig) HasS3Credentials() bool {
	return g.CloudflareAccountID != "" && g.CloudflareR2AccessKeyID != "" && g.CloudflareR2SecretAccessKey != ""
}

func (g *GeneratorConfig) r2CloudflareEndpointResolver(_, _ string, _ ...interface{}) (aws.Endpoint, error) {
	return aws.Endpoint{
		URL: fmt.Sprintf("https://%s.r2.cloudflarestorage.com", g.CloudflareAccountID),
	}, nil
}

func (g *GeneratorConfig) CreateS3Client() (*s3.Client, error) {
	if !g.HasS3Credentials() {
		return nil, fmt.Errorf("cloudflare R2 credentials are not configured")
	}
	staticCredentialsProvider := credentials.NewStaticCredentialsProvider(
		g.CloudflareR2AccessKeyID,
		g.CloudflareR2SecretAccessKey,
		"",
	)
	s3Cfg, err := awsConfig.LoadDefaultConfig(context.TODO(),
		awsConfig.WithRegion("auto"),
		awsConfig.WithEndpointResolverWithOptions(aws.EndpointResolverWithOptionsFunc(g.r2CloudflareEndpointResolver)),
		awsConfig.WithCredentialsProvider(staticCredentialsProvider),
	)
	if err != nil {
		return nil, err
	}
	return s3.NewFromConfig(s3Cfg), nil
}

// CreateGitHubClient returns an authenticated client if a token is set and
// an anonymous one otherwise.
func (g *GeneratorConfig) CreateGitHubClient() *github.Client {
	if g.GitHubToken == "" {
		return github.NewClient(&http.Client{Timeout: g.HTTPTimeout})
	}
	oauthClient := oauth2.NewClient(context.Background(), oauth2.StaticTokenSource(&oauth2.Token{AccessToken: g.GitHubToken}))
	return github.NewClient(oauthClient)
}
