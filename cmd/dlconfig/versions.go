package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/godtiergamers/dlconfig/internal/config"
	"github.com/godtiergamers/dlconfig/internal/release"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type versionInfo struct {
	PluginVersion    string `yaml:"pluginVersion"`
	ConfigVersion    string `yaml:"configVersion"`
	TemplateLocation string `yaml:"templateLocation"`
	OptionsLocation  string `yaml:"optionsLocation"`
	Latest           bool   `yaml:"latest,omitempty"`
}

func newVersionsCmd(log *logrus.Logger, gCfg *config.GeneratorConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "versions",
		Short: "List the supported plugin versions",
		Args:  cobra.NoArgs,
	}
	cmd.Run = runE(log, func(cmd *cobra.Command, _ []string) error {
		a, err := newApp(log, cmd, gCfg)
		if err != nil {
			return err
		}
		infos := listVersions(a.catalog)
		if must(cmd.Flags().GetBool("check-latest")) && len(infos) > 0 {
			checkLatestRelease(log, gCfg, infos[0].PluginVersion)
		}
		switch format := must(cmd.Flags().GetString("format")); format {
		case "yaml":
			enc := yaml.NewEncoder(os.Stdout)
			enc.SetIndent(2)
			if err := enc.Encode(infos); err != nil {
				return err
			}
			return enc.Close()
		case "table":
			tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "PLUGIN\tCONFIG\tTEMPLATE\tOPTIONS")
			for _, i := range infos {
				pv := i.PluginVersion
				if i.Latest {
					pv += " (latest)"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", pv, i.ConfigVersion, i.TemplateLocation, i.OptionsLocation)
			}
			return tw.Flush()
		default:
			return fmt.Errorf("unknown format %q", format)
		}
	})
	cmd.Flags().StringP("format", "f", "table", "output format: table or yaml")
	cmd.Flags().Bool("check-latest", true, "compare the catalog with the latest plugin release on GitHub")
	return cmd
}

func listVersions(catalog *config.Catalog) []versionInfo {
	sorted := catalog.Versions.Sorted()
	ret := make([]versionInfo, 0, len(sorted))
	for i, pv := range sorted {
		cv, _ := catalog.Versions.ConfigVersionFor(pv)
		a := catalog.Assets[cv]
		ret = append(ret, versionInfo{
			PluginVersion:    pv,
			ConfigVersion:    cv,
			TemplateLocation: a.TemplateLocation,
			OptionsLocation:  a.OptionsLocation,
			Latest:           i == 0,
		})
	}
	return ret
}

// checkLatestRelease only logs; a failed lookup never fails the command.
func checkLatestRelease(log *logrus.Logger, gCfg *config.GeneratorConfig, newest string) {
	ctx, cancel := context.WithTimeout(context.Background(), gCfg.HTTPTimeout+5*time.Second)
	defer cancel()
	rel, err := release.Latest(ctx, gCfg.CreateGitHubClient(), gCfg.ReleaseRepo)
	if err != nil {
		log.Debugf("could not check the latest release: %v", err)
		return
	}
	if release.IsNewer(rel.Version, newest) {
		log.Warnf("DiscordLogger %s is available (%s) but the catalog only covers up to %s", rel.Version, rel.URL, newest)
		return
	}
	log.Debugf("catalog covers the latest release %s", rel.Version)
}
