package main

import (
	"github.com/spf13/cobra"

	"buildtrend/src/buildstore"
	"buildtrend/src/mcp"
	"buildtrend/src/tui"
)

// viewCmd represents the view command
var viewCmd = &cobra.Command{
	Use:   "view",
	Short: "Browse recorded builds in an interactive table",
	Long: `Opens a terminal table of recorded builds with a summary header and the
run URI of the selected build. Press s to sort by duration or start time,
q to quit.`,
	Run: func(cmd *cobra.Command, args []string) {
		store, err := buildstore.Open(appConfig.Store)
		if err != nil {
			exitWithError(err)
		}
		if err := tui.Start(store.Entries()); err != nil {
			exitWithError(err)
		}
	},
}

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the build store to MCP clients over stdio",
	Long: `Runs a Model Context Protocol server on stdin/stdout exposing the
list_builds, get_build and build_stats tools. The store is reread on every
call, so a concurrent scrape is visible immediately.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := mcp.NewServer(appConfig.Store).Run(); err != nil {
			exitWithError(err)
		}
	},
}
