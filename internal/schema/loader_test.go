package schema

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/godtiergamers/dlconfig/internal/assets"
	"github.com/godtiergamers/dlconfig/internal/config"
	"github.com/godtiergamers/dlconfig/internal/metrics"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"go.opencensus.io/stats/view"
)

type countingFetcher struct {
	mu    sync.Mutex
	calls map[string]int
	data  map[string]string
}

func (f *countingFetcher) Fetch(_ context.Context, locator string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[locator]++
	d, ok := f.data[locator]
	if !ok {
		return nil, errors.New("not found")
	}
	return []byte(d), nil
}

func newTestLogger() *logrus.Logger {
	log := logrus.New()
	log.Out = io.Discard
	return log
}

var testAssets = config.AssetCatalog{
	"v9": {TemplateLocation: "t9", OptionsLocation: "o9"},
	"v8": {TemplateLocation: "t8", OptionsLocation: "o8"},
}

func TestLoaderCachesPerVersion(t *testing.T) {
	f := &countingFetcher{calls: map[string]int{}, data: map[string]string{
		"t9": "log:\r\n  player:\r\n    join: {{LOG_player.join}}\r\n",
		"o9": `{"logs":{"player.join":{"label":"Join","default":true}}}`,
	}}
	l := NewLoader(newTestLogger(), testAssets, f)

	b, err := l.Load(context.Background(), "v9")
	require.NoError(t, err)
	require.Equal(t, "v9", b.ConfigVersion)
	require.Equal(t, "log:\n  player:\n    join: {{LOG_player.join}}\n", b.Template)
	require.NotNil(t, b.Schema.Find("player.join"))

	b2, err := l.Load(context.Background(), "v9")
	require.NoError(t, err)
	require.Same(t, b, b2)
	require.Equal(t, 1, f.calls["t9"])
	require.Equal(t, 1, f.calls["o9"])

	l.Invalidate("v9")
	_, err = l.Load(context.Background(), "v9")
	require.NoError(t, err)
	require.Equal(t, 2, f.calls["o9"])
}

func TestLoaderErrors(t *testing.T) {
	f := &countingFetcher{calls: map[string]int{}, data: map[string]string{
		"t8": "x",
		"o8": `{"categories":`,
	}}
	l := NewLoader(newTestLogger(), testAssets, f)

	_, err := l.Load(context.Background(), "v1")
	require.ErrorIs(t, err, ErrAssetMissing)

	_, err = l.Load(context.Background(), "v9")
	require.ErrorIs(t, err, ErrFetchFailed)

	_, err = l.Load(context.Background(), "v8")
	require.ErrorIs(t, err, ErrFetchFailed)
	require.ErrorContains(t, err, "invalid options document")

	// failures are not cached
	f.data["o8"] = `{}`
	b, err := l.Load(context.Background(), "v8")
	require.NoError(t, err)
	require.True(t, b.Schema.IsEmpty())
}

func TestLoaderOverHTTP(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v9/config.template.yml":
			_, _ = io.WriteString(w, "url: \"{{WEBHOOK_URL}}\"\n")
		case "/v9/options.json":
			_, _ = io.WriteString(w, `{"categories":[]}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer ts.Close()

	cat := (&config.Catalog{Assets: config.AssetCatalog{
		"v9":  {TemplateLocation: "v9/config.template.yml", OptionsLocation: "v9/options.json"},
		"v10": {TemplateLocation: "v10/config.template.yml", OptionsLocation: "v10/options.json"},
	}}).Resolve(ts.URL)
	l := NewLoader(newTestLogger(), cat.Assets, NewAssetFetcher(0, 5*time.Second))

	b, err := l.Load(context.Background(), "v9")
	require.NoError(t, err)
	require.Equal(t, "url: \"{{WEBHOOK_URL}}\"\n", b.Template)
	require.True(t, b.Schema.IsEmpty())

	_, err = l.Load(context.Background(), "v10")
	require.ErrorIs(t, err, ErrFetchFailed)
	require.ErrorContains(t, err, "unexpected status code: 404")
}

func TestLoaderEmbeddedDefaults(t *testing.T) {
	cat := config.DefaultCatalog.Resolve("")
	l := NewLoader(newTestLogger(), cat.Assets, NewAssetFetcher(0, time.Second, WithEmbeddedFS(assets.FS)))
	b, err := l.Load(context.Background(), "v9")
	require.NoError(t, err)
	require.Contains(t, b.Template, "{{LOG_player.join}}")
	require.Len(t, b.Schema.Categories, 3)
	join := b.Schema.Find("player.join")
	require.NotNil(t, join)
	require.Equal(t, "#57F287", join.DefaultColor)
	require.False(t, b.Schema.Find("moderation.whitelist_edit").HasColor())
}

func TestFetcherLocators(t *testing.T) {
	f := NewAssetFetcher(0, time.Second)
	_, err := f.Fetch(context.Background(), "embed:configs/v9/options.json")
	require.ErrorContains(t, err, "no embedded assets")
	_, err = f.Fetch(context.Background(), "s3://bucket/key")
	require.ErrorContains(t, err, "no storage client")
	_, err = f.Fetch(context.Background(), "/does/not/exist.json")
	require.Error(t, err)
}

func countRows(t *testing.T, name, configVersion string) int64 {
	rows, err := view.RetrieveData(name)
	require.NoError(t, err)
	var n int64
	for _, row := range rows {
		for _, tg := range row.Tags {
			if tg.Key == metrics.TagConfigVersion && tg.Value == configVersion {
				n += row.Data.(*view.CountData).Value
			}
		}
	}
	return n
}

func TestLoaderRecordsMetrics(t *testing.T) {
	require.NoError(t, view.Register(metrics.SchemaViews...))
	t.Cleanup(func() { view.Unregister(metrics.SchemaViews...) })

	f := &countingFetcher{calls: map[string]int{}, data: map[string]string{
		"t7": "a: 1\n",
		"o7": `{"logs":{}}`,
	}}
	l := NewLoader(newTestLogger(), config.AssetCatalog{
		"v7": {TemplateLocation: "t7", OptionsLocation: "o7"},
		"v6": {TemplateLocation: "t6", OptionsLocation: "o6"},
	}, f)
	for i := 0; i < 3; i++ {
		_, err := l.Load(context.Background(), "v7")
		require.NoError(t, err)
	}
	_, err := l.Load(context.Background(), "v6")
	require.ErrorIs(t, err, ErrFetchFailed)

	require.Equal(t, int64(1), countRows(t, "schema_cache_misses", "v7"))
	require.Equal(t, int64(2), countRows(t, "schema_cache_hits", "v7"))
	require.Equal(t, int64(1), countRows(t, "schema_load_failures", "v6"))
	require.Equal(t, int64(0), countRows(t, "schema_load_failures", "v7"))
}
