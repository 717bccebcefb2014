package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"buildtrend/src/buildstore"
	"buildtrend/src/chart"
	"buildtrend/src/export"
)

// plotCmd represents the plot command
var plotCmd = &cobra.Command{
	Use:   "plot [variant...]",
	Short: "Render build duration charts from the build store",
	Long: `Renders a scatter plot of build duration in minutes against start time
for each chart variant. The built-in variants are "full" (builds.png) and
"early-october" (builds-early-october.png). Variants can be replaced or
added with a YAML file given by --charts.

With --watch the charts are redrawn whenever the build store changes.

Example:
  buildtrend plot
  buildtrend plot early-october --out-dir charts/
  buildtrend plot --watch`,
	Run: func(cmd *cobra.Command, args []string) {
		watch, _ := cmd.Flags().GetBool("watch")
		outDir, _ := cmd.Flags().GetString("out-dir")

		variants, err := chart.LoadVariants(appConfig.Charts)
		if err != nil {
			exitWithError(err)
		}
		variants, err = chart.Select(variants, args)
		if err != nil {
			exitWithError(err)
		}

		render := func() error {
			return renderCharts(variants, outDir)
		}
		if err := render(); err != nil {
			exitWithError(err)
		}
		if !watch {
			return
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if err := chart.Watch(ctx, appConfig.Store, appLog, render); err != nil {
			exitWithError(err)
		}
	},
}

func renderCharts(variants []chart.Variant, outDir string) error {
	store, err := buildstore.Open(appConfig.Store)
	if err != nil {
		return err
	}
	for _, v := range variants {
		n, err := chart.Render(store, v, outDir)
		if err != nil {
			return err
		}
		appLog.Info("[Plot] Wrote %s (%d builds)", v.Output, n)
	}
	return nil
}

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export <file.xlsx>",
	Short: "Write the build store to a spreadsheet with a duration chart",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		title, _ := cmd.Flags().GetString("title")

		store, err := buildstore.Open(appConfig.Store)
		if err != nil {
			exitWithError(err)
		}
		n, err := export.Workbook(store, args[0], title)
		if err != nil {
			exitWithError(err)
		}
		appLog.Info("[Export] Wrote %d builds to %s", n, args[0])
	},
}

func init() {
	plotCmd.Flags().Bool("watch", false, "Redraw the charts whenever the build store changes")
	plotCmd.Flags().String("out-dir", "", "Directory for chart images (default: current directory)")
	plotCmd.Flags().String("charts", "", "YAML file with chart variants")

	exportCmd.Flags().String("title", "e2e-aws build durations", "Chart title in the workbook")
}
