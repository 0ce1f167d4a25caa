package main

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/tdex-network/bookswap/config"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"

	app = &cobra.Command{
		Use:           "bookswapd",
		Short:         "bookswap auction daemon",
		Long:          "bookswapd runs auctions of booking swap offers and resolves them once they time out",
		Version:       formatVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "start the HTTP interface and the background timeout sweeper",
		RunE:  serveAction,
	}

	sweepCmd = &cobra.Command{
		Use:   "sweep",
		Short: "resolve every due auction once and exit",
		RunE:  sweepAction,
	}
)

func init() {
	app.AddCommand(serveCmd, sweepCmd)
}

func main() {
	log.SetLevel(log.Level(config.GetInt(config.LogLevelKey)))

	if err := app.Execute(); err != nil {
		log.Fatal(err)
	}
}

func formatVersion() string {
	return fmt.Sprintf(
		"Version: %s\nCommit: %s\nDate: %s",
		version, commit, date,
	)
}
