package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/tdex-network/bookswap/config"
	httpinterface "github.com/tdex-network/bookswap/internal/interfaces/http"
	"github.com/tdex-network/bookswap/pkg/stats"
)

func serveAction(_ *cobra.Command, _ []string) error {
	if config.GetString(config.AuthSecretKey) == "" {
		return fmt.Errorf("%s must be set to serve requests", config.AuthSecretKey)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if config.GetBool(config.EnableProfilerKey) {
		stats.EnableMemoryStatistics(
			ctx, config.GetSeconds(config.StatsIntervalKey),
			filepath.Join(config.GetDatadir(), config.ProfilerLocation),
		)
	}

	svcs := &appConfig{}
	defer svcs.close()

	auctionSvc, err := svcs.auctionService()
	if err != nil {
		return err
	}
	compatibilitySvc, err := svcs.compatibilityService()
	if err != nil {
		return err
	}
	sweeperSvc, err := svcs.sweeperService()
	if err != nil {
		return err
	}
	pubsubSvc, err := svcs.pubsubService()
	if err != nil {
		return err
	}

	httpSvc, err := httpinterface.NewService(httpinterface.ServiceOpts{
		Address:          fmt.Sprintf(":%d", config.GetInt(config.ListeningPortKey)),
		AuthSecret:       config.GetString(config.AuthSecretKey),
		AdminUsers:       config.GetList(config.AdminUsersKey),
		EnableProfiler:   config.GetBool(config.EnableProfilerKey),
		AuctionSvc:       auctionSvc,
		CompatibilitySvc: compatibilitySvc,
		SweeperSvc:       sweeperSvc,
		PubSubSvc:        pubsubSvc,
	})
	if err != nil {
		return err
	}

	if err := httpSvc.Start(); err != nil {
		return fmt.Errorf("failed to start http interface: %w", err)
	}
	defer httpSvc.Stop()

	if interval := config.GetSeconds(config.SweepIntervalKey); interval > 0 {
		if err := sweeperSvc.Start(interval); err != nil {
			return err
		}
	} else {
		log.Info("background sweeper disabled, use bookswapd sweep or the admin endpoint")
	}

	log.Info("bookswapd started")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
	<-sigChan

	log.Info("shutting down bookswapd")
	return nil
}
