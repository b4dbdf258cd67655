package schema

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/godtiergamers/dlconfig/internal/config"
	"github.com/hashicorp/go-retryablehttp"
)

// maxAssetSize bounds a single template or options document.
const maxAssetSize = 4 << 20

// Fetcher retrieves the raw bytes behind an asset locator.
type Fetcher interface {
	Fetch(ctx context.Context, locator string) ([]byte, error)
}

type FetcherOption func(f *AssetFetcher)

// WithS3Client enables s3://bucket/key locators.
func WithS3Client(c *s3.Client) FetcherOption {
	return func(f *AssetFetcher) {
		f.s3 = c
	}
}

// WithEmbeddedFS sets the file system backing embed: locators.
func WithEmbeddedFS(fsys fs.FS) FetcherOption {
	return func(f *AssetFetcher) {
		f.embedded = fsys
	}
}

// AssetFetcher serves http(s)://, s3://, embed: and local file locators.
type AssetFetcher struct {
	http     *retryablehttp.Client
	s3       *s3.Client
	embedded fs.FS
}

func NewAssetFetcher(retries int, timeout time.Duration, opts ...FetcherOption) *AssetFetcher {
	c := retryablehttp.NewClient()
	c.Logger = nil
	c.RetryMax = retries
	c.HTTPClient.Timeout = timeout
	f := &AssetFetcher{http: c}
	for _, o := range opts {
		o(f)
	}
	return f
}

func (f *AssetFetcher) Fetch(ctx context.Context, locator string) ([]byte, error) {
	switch {
	case strings.HasPrefix(locator, "http://"), strings.HasPrefix(locator, "https://"):
		return f.fetchHTTP(ctx, locator)
	case strings.HasPrefix(locator, "s3://"):
		return f.fetchS3(ctx, locator)
	case strings.HasPrefix(locator, config.EmbeddedScheme):
		if f.embedded == nil {
			return nil, fmt.Errorf("no embedded assets available for %s", locator)
		}
		return fs.ReadFile(f.embedded, strings.TrimPrefix(locator, config.EmbeddedScheme))
	default:
		return os.ReadFile(strings.TrimPrefix(locator, "file://"))
	}
}

func (f *AssetFetcher) fetchHTTP(ctx context.Context, url string) ([]byte, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	return readAsset(resp.Body)
}

func (f *AssetFetcher) fetchS3(ctx context.Context, locator string) ([]byte, error) {
	if f.s3 == nil {
		return nil, fmt.Errorf("no storage client configured for %s", locator)
	}
	bucket, key, found := strings.Cut(strings.TrimPrefix(locator, "s3://"), "/")
	if !found || bucket == "" || key == "" {
		return nil, fmt.Errorf("invalid storage locator %s", locator)
	}
	out, err := f.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, err
	}
	defer out.Body.Close()
	return readAsset(out.Body)
}

func readAsset(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxAssetSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxAssetSize {
		return nil, fmt.Errorf("asset exceeds %d bytes", maxAssetSize)
	}
	return data, nil
}
