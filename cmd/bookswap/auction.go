package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/urfave/cli/v2"
)

var auction = cli.Command{
	Name:  "auction",
	Usage: "create, inspect and resolve auctions",
	Subcommands: []*cli.Command{
		auctionCreateCmd, auctionGetCmd, auctionEndCmd, auctionWinnerCmd,
	},
}

var (
	auctionIDFlag = &cli.StringFlag{
		Name:     "id",
		Usage:    "the id of the auction",
		Required: true,
	}

	auctionCreateCmd = &cli.Command{
		Name:  "create",
		Usage: "start an auction for one of your swap offers",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "swap",
				Usage:    "the id of the swap to auction",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "end_date",
				Usage:    "the RFC3339 date when proposals stop being accepted",
				Required: true,
			},
			&cli.BoolFlag{
				Name:  "allow_booking",
				Usage: "accept booking proposals",
				Value: true,
			},
			&cli.BoolFlag{
				Name:  "allow_cash",
				Usage: "accept cash proposals",
			},
			&cli.StringFlag{
				Name:  "min_cash",
				Usage: "the minimum accepted cash offer",
			},
			&cli.IntFlag{
				Name:  "auto_select_hours",
				Usage: "hours after the end date before a winner is picked automatically",
			},
		},
		Action: createAuctionAction,
	}

	auctionGetCmd = &cli.Command{
		Name:   "get",
		Usage:  "get an auction",
		Flags:  []cli.Flag{auctionIDFlag},
		Action: getAuctionAction,
	}

	auctionEndCmd = &cli.Command{
		Name:   "end",
		Usage:  "stop accepting proposals for an auction",
		Flags:  []cli.Flag{auctionIDFlag},
		Action: endAuctionAction,
	}

	auctionWinnerCmd = &cli.Command{
		Name:  "winner",
		Usage: "select the winning proposal of an ended auction",
		Flags: []cli.Flag{
			auctionIDFlag,
			&cli.StringFlag{
				Name:     "proposal",
				Usage:    "the id of the winning proposal",
				Required: true,
			},
		},
		Action: selectWinnerAction,
	}

	listauctions = cli.Command{
		Name:  "auctions",
		Usage: "list all auctions (admin only)",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "page",
				Usage: "the page number, starting from 1",
			},
			&cli.IntFlag{
				Name:  "size",
				Usage: "the number of auctions per page",
			},
		},
		Action: listAuctionsAction,
	}
)

func createAuctionAction(ctx *cli.Context) error {
	endDate, err := time.Parse(time.RFC3339, ctx.String("end_date"))
	if err != nil {
		return fmt.Errorf("invalid end date: %w", err)
	}

	client, err := getClient(nil)
	if err != nil {
		return err
	}

	req := map[string]interface{}{
		"end_date":                endDate,
		"allow_booking_proposals": ctx.Bool("allow_booking"),
		"allow_cash_proposals":    ctx.Bool("allow_cash"),
		"minimum_cash_offer":      ctx.String("min_cash"),
		"auto_select_after_hours": ctx.Int("auto_select_hours"),
	}
	reply := map[string]interface{}{}
	if err := client.Do(
		context.Background(), http.MethodPost,
		"/v1/swaps/"+ctx.String("swap")+"/auction", req, &reply,
	); err != nil {
		return apiError(err)
	}

	printRespJSON(reply)
	return nil
}

func getAuctionAction(ctx *cli.Context) error {
	return auctionRequest(http.MethodGet, ctx.String("id"), "", nil)
}

func endAuctionAction(ctx *cli.Context) error {
	return auctionRequest(http.MethodPost, ctx.String("id"), "/end", nil)
}

func selectWinnerAction(ctx *cli.Context) error {
	return auctionRequest(
		http.MethodPost, ctx.String("id"), "/winner",
		map[string]string{"proposal_id": ctx.String("proposal")},
	)
}

func listAuctionsAction(ctx *cli.Context) error {
	client, err := getClient(nil)
	if err != nil {
		return err
	}

	path := "/v1/admin/auctions"
	if page := ctx.Int("page"); page > 0 {
		path = fmt.Sprintf("%s?page=%d&size=%d", path, page, ctx.Int("size"))
	}
	reply := map[string]interface{}{}
	if err := client.Do(
		context.Background(), http.MethodGet, path, nil, &reply,
	); err != nil {
		return apiError(err)
	}

	printRespJSON(reply)
	return nil
}

func auctionRequest(method, auctionID, suffix string, req interface{}) error {
	client, err := getClient(nil)
	if err != nil {
		return err
	}

	reply := map[string]interface{}{}
	if err := client.Do(
		context.Background(), method, "/v1/auctions/"+auctionID+suffix,
		req, &reply,
	); err != nil {
		return apiError(err)
	}

	printRespJSON(reply)
	return nil
}
