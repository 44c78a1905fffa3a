package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ekisa-team/stronghold/internal/bundled"
	"github.com/ekisa-team/stronghold/internal/config"
	"github.com/ekisa-team/stronghold/internal/model"
	"github.com/ekisa-team/stronghold/internal/stronghold"
)

func modelsCmd(opts *rootOptions) *cobra.Command {
	var listBundled bool

	cmd := &cobra.Command{
		Use:   "models",
		Short: "Load the configured models once and print their state",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := setupLogger(opts); err != nil {
				return err
			}

			if listBundled {
				for _, name := range bundled.Names() {
					fmt.Fprintln(cmd.OutOrStdout(), name)
				}
				return nil
			}

			cfg, err := config.LoadAndValidate(opts.configPath)
			if err != nil {
				return err
			}

			a := newApp()
			report, err := a.manager.LoadModelsFromConfig(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			if err := printModels(cmd.OutOrStdout(), a.registry); err != nil {
				return err
			}

			if failed := report.Failed(); len(failed) > 0 {
				return fmt.Errorf("%d of %d models failed to load: %w", len(failed), len(report.Results), report.Err())
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&listBundled, "bundled", false, "List the bundled archives usable as internal models and exit")

	return cmd
}

func printModels(w io.Writer, registry *model.Registry) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ACTIVE\tID\tSOURCE\tSTATUS\tVERSION\tLOCATION")

	for _, id := range registry.RegisteredIdentifiers() {
		handle, err := registry.Model(id)
		if err != nil {
			return err
		}

		marker := ""
		if registry.IsActiveModel(id) {
			marker = "*"
		}

		var info stronghold.Info
		if m, ok := handle.(*stronghold.Model); ok {
			info = m.Info()
		}

		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", marker, id, info.Source, info.Status, info.Version, info.Location)
	}

	return tw.Flush()
}
