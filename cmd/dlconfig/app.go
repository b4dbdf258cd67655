package main

import (
	"fmt"
	"io"
	"os"

	"github.com/godtiergamers/dlconfig/internal/assets"
	"github.com/godtiergamers/dlconfig/internal/config"
	"github.com/godtiergamers/dlconfig/internal/schema"
	"github.com/godtiergamers/dlconfig/internal/synth"
	"github.com/godtiergamers/dlconfig/internal/webhook"
	"github.com/godtiergamers/dlconfig/internal/wizard"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// app wires the catalog, asset loader and webhook client for one invocation.
type app struct {
	log     *logrus.Logger
	cfg     *config.GeneratorConfig
	catalog *config.Catalog
	loader  *schema.Loader
	tester  *webhook.Client
}

func newApp(log *logrus.Logger, cmd *cobra.Command, gCfg *config.GeneratorConfig) (*app, error) {
	catalogFile := must(cmd.Flags().GetString("catalog"))
	base := must(cmd.Flags().GetString("base"))
	relayURL := must(cmd.Flags().GetString("relay-url"))
	relayOrigin := must(cmd.Flags().GetString("relay-origin"))

	catalog, err := config.LoadCatalog(catalogFile)
	if err != nil {
		return nil, err
	}
	resolved := catalog.Resolve(base)

	opts := []schema.FetcherOption{schema.WithEmbeddedFS(assets.FS)}
	if gCfg.HasS3Credentials() {
		s3Client, err := gCfg.CreateS3Client()
		if err != nil {
			return nil, fmt.Errorf("creating R2 client: %w", err)
		}
		opts = append(opts, schema.WithS3Client(s3Client))
	}
	fetcher := schema.NewAssetFetcher(gCfg.FetchRetries, gCfg.HTTPTimeout, opts...)

	var route webhook.Route = webhook.Direct{}
	if relayURL != "" {
		route = webhook.Relayed{Endpoint: relayURL, Origin: relayOrigin}
		log.Debugf("webhook tests are relayed through %s", relayURL)
	}

	return &app{
		log:     log,
		cfg:     gCfg,
		catalog: resolved,
		loader:  schema.NewLoader(log, resolved.Assets, fetcher),
		tester:  webhook.NewClient(route, gCfg.HTTPTimeout),
	}, nil
}

func (a *app) newController() *wizard.Controller {
	return wizard.New(a.log, a.catalog.Versions, a.loader, a.tester)
}

// writeArtifact writes the rendered config to path, or to stdout for "-".
func (a *app) writeArtifact(stdout io.Writer, out, path string) error {
	if path == "-" {
		_, err := fmt.Fprint(stdout, out)
		return err
	}
	if err := os.WriteFile(path, []byte(out), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	a.log.Infof("wrote %s (%s, %d bytes)", path, synth.ArtifactMIMEType, len(out))
	return nil
}
