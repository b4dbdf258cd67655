package schema

import (
	"context"
	"fmt"
	"strings"

	"github.com/godtiergamers/dlconfig/internal/config"
	"github.com/godtiergamers/dlconfig/internal/metrics"
	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
	"go.opencensus.io/stats"
	"go.opencensus.io/tag"
	"golang.org/x/sync/errgroup"
)

// Loader resolves config versions to their template and schema. Results are
// cached for the lifetime of the loader unless invalidated.
type Loader struct {
	assets  config.AssetCatalog
	fetcher Fetcher
	cache   *cache.Cache
	log     *logrus.Logger
}

func NewLoader(log *logrus.Logger, assets config.AssetCatalog, fetcher Fetcher) *Loader {
	return &Loader{
		assets:  assets,
		fetcher: fetcher,
		cache:   cache.New(cache.NoExpiration, 0),
		log:     log,
	}
}

func cacheKey(configVersion string) string {
	return "schema/" + configVersion
}

func (l *Loader) getFromCache(ctx context.Context, configVersion string) (*Bundle, bool) {
	val, ok := l.cache.Get(cacheKey(configVersion))
	if !ok {
		return nil, false
	}
	ctx, _ = tag.New(ctx, tag.Upsert(metrics.TagConfigVersion, configVersion))
	stats.Record(ctx, metrics.CounterSchemaCacheHit.M(1))
	return val.(*Bundle), true
}

func (l *Loader) setInCache(ctx context.Context, b *Bundle) {
	ctx, _ = tag.New(ctx, tag.Upsert(metrics.TagConfigVersion, b.ConfigVersion))
	stats.Record(ctx, metrics.CounterSchemaCacheMiss.M(1))
	l.cache.Set(cacheKey(b.ConfigVersion), b, cache.NoExpiration)
}

// Load returns the template and schema of configVersion. It fails with
// ErrAssetMissing if the version has no catalog entry and with
// ErrFetchFailed if a resource cannot be retrieved or parsed.
func (l *Loader) Load(ctx context.Context, configVersion string) (*Bundle, error) {
	if b, ok := l.getFromCache(ctx, configVersion); ok {
		return b, nil
	}
	entry, ok := l.assets[configVersion]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAssetMissing, configVersion)
	}

	l.log.Infof("loading assets for config version %s", configVersion)
	var template, options []byte
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		template, err = l.fetcher.Fetch(gCtx, entry.TemplateLocation)
		if err != nil {
			return fmt.Errorf("template %s: %w", entry.TemplateLocation, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		options, err = l.fetcher.Fetch(gCtx, entry.OptionsLocation)
		if err != nil {
			return fmt.Errorf("options %s: %w", entry.OptionsLocation, err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, l.failed(ctx, configVersion, err)
	}

	s, err := Normalize(options)
	if err != nil {
		return nil, l.failed(ctx, configVersion, err)
	}
	if s.IsEmpty() {
		l.log.Warnf("options for config version %s contain no categories", configVersion)
	}

	b := &Bundle{
		ConfigVersion: configVersion,
		Template:      strings.ReplaceAll(string(template), "\r\n", "\n"),
		Schema:        s,
	}
	l.setInCache(ctx, b)
	return b, nil
}

func (l *Loader) failed(ctx context.Context, configVersion string, err error) error {
	ctx, _ = tag.New(ctx, tag.Upsert(metrics.TagConfigVersion, configVersion))
	stats.Record(ctx, metrics.CounterSchemaLoadFailed.M(1))
	l.log.Errorf("could not load config version %s: %v", configVersion, err)
	return fmt.Errorf("%w: %s: %v", ErrFetchFailed, configVersion, err)
}

// Invalidate drops the cached bundle of configVersion.
func (l *Loader) Invalidate(configVersion string) {
	l.cache.Delete(cacheKey(configVersion))
}
