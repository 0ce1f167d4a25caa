package main

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func sweepAction(_ *cobra.Command, _ []string) (err error) {
	svcs := &appConfig{}
	defer svcs.close()

	sweeperSvc, err := svcs.sweeperService()
	if err != nil {
		return err
	}

	start := time.Now()
	defer func(start time.Time) {
		if err == nil {
			log.Infof("sweep ended in %fs", time.Since(start).Seconds())
		}
	}(start)

	resolved, err := sweeperSvc.Sweep(context.Background())
	for _, r := range resolved {
		log.WithFields(log.Fields{
			"auction": r.AuctionID,
			"swap":    r.SwapID,
			"winner":  r.WinningProposalID,
		}).Infof("auction %s", r.Outcome)
	}
	return err
}
