package metrics

import (
	"fmt"

	"contrib.go.opencensus.io/exporter/stackdriver"
	"github.com/godtiergamers/dlconfig/internal/config"
	"github.com/sirupsen/logrus"
	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"
)

var (
	CounterRelayForwards    = stats.Int64("relay_forwards", "Number of webhook payloads forwarded by the relay", "1")
	CounterRelayRejections  = stats.Int64("relay_rejections", "Number of relay requests rejected before forwarding", "1")
	CounterSchemaCacheHit   = stats.Int64("schema_cache_hits", "Number of schema cache hits", "1")
	CounterSchemaCacheMiss  = stats.Int64("schema_cache_misses", "Number of schema cache misses", "1")
	CounterSchemaLoadFailed = stats.Int64("schema_load_failures", "Number of failed schema loads", "1")

	TagStatus        = tag.MustNewKey("status")
	TagReason        = tag.MustNewKey("reason")
	TagConfigVersion = tag.MustNewKey("config_version")
)

// RelayViews are exported by the relay.
var RelayViews = []*view.View{
	{
		Name:        "relay_forwards",
		Measure:     CounterRelayForwards,
		Description: "Number of webhook payloads forwarded by the relay",
		TagKeys:     []tag.Key{TagStatus},
		Aggregation: view.Count(),
	},
	{
		Name:        "relay_rejections",
		Measure:     CounterRelayRejections,
		Description: "Number of relay requests rejected before forwarding",
		TagKeys:     []tag.Key{TagReason},
		Aggregation: view.Count(),
	},
}

// SchemaViews count schema loads of the generator CLI.
var SchemaViews = []*view.View{
	{
		Name:        "schema_cache_hits",
		Measure:     CounterSchemaCacheHit,
		Description: "Number of schema cache hits",
		TagKeys:     []tag.Key{TagConfigVersion},
		Aggregation: view.Count(),
	},
	{
		Name:        "schema_cache_misses",
		Measure:     CounterSchemaCacheMiss,
		Description: "Number of schema cache misses",
		TagKeys:     []tag.Key{TagConfigVersion},
		Aggregation: view.Count(),
	},
	{
		Name:        "schema_load_failures",
		Measure:     CounterSchemaLoadFailed,
		Description: "Number of failed schema loads",
		TagKeys:     []tag.Key{TagConfigVersion},
		Aggregation: view.Count(),
	},
}

func NewExporter(cfg *config.RelayConfig) (*stackdriver.Exporter, error) {
	err := view.Register(RelayViews...)
	if err != nil {
		return nil, err
	}
	exporter, err := stackdriver.NewExporter(stackdriver.Options{
		ProjectID:    cfg.ProjectID,
		MetricPrefix: fmt.Sprintf("dlconfig-relay/%s", cfg.Stage),
	})
	if err != nil {
		return nil, err
	}
	err = exporter.StartMetricsExporter()
	if err != nil {
		return nil, err
	}
	return exporter, nil
}

// LogViews writes one debug entry per row of the registered views.
func LogViews(log logrus.FieldLogger, views []*view.View) {
	for _, v := range views {
		rows, err := view.RetrieveData(v.Name)
		if err != nil {
			log.Debugf("metric %s: %v", v.Name, err)
			continue
		}
		for _, row := range rows {
			fields := logrus.Fields{"metric": v.Name}
			for _, t := range row.Tags {
				fields[t.Key.Name()] = t.Value
			}
			if c, ok := row.Data.(*view.CountData); ok {
				fields["count"] = c.Value
			}
			log.WithFields(fields).Debug("metric")
		}
	}
}
