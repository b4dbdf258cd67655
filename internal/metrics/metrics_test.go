package metrics

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"
)

func TestLogViews(t *testing.T) {
	require.NoError(t, view.Register(SchemaViews...))
	t.Cleanup(func() { view.Unregister(SchemaViews...) })

	ctx, err := tag.New(context.Background(), tag.Upsert(TagConfigVersion, "v9"))
	require.NoError(t, err)
	stats.Record(ctx, CounterSchemaCacheHit.M(1))
	stats.Record(ctx, CounterSchemaCacheHit.M(1))

	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	LogViews(log, SchemaViews)

	var hits *logrus.Entry
	for _, e := range hook.AllEntries() {
		if e.Data["metric"] == "schema_cache_hits" {
			hits = e
		}
	}
	require.NotNil(t, hits)
	require.Equal(t, "v9", hits.Data["config_version"])
	require.Equal(t, int64(2), hits.Data["count"])

	hook.Reset()
	LogViews(log, RelayViews)
	for _, e := range hook.AllEntries() {
		require.Contains(t, e.Message, "not registered")
	}
}
