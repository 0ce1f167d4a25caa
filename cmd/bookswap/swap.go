package main

import (
	"context"
	"net/http"

	"github.com/urfave/cli/v2"
)

var swap = cli.Command{
	Name:  "swap",
	Usage: "register, inspect or cancel a swap offer",
	Subcommands: []*cli.Command{
		swapRegisterCmd, swapGetCmd, swapCancelCmd,
	},
}

var (
	swapIDFlag = &cli.StringFlag{
		Name:     "id",
		Usage:    "the id of the swap",
		Required: true,
	}

	swapRegisterCmd = &cli.Command{
		Name:  "register",
		Usage: "register a swap offer for one of your bookings",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "booking",
				Usage:    "the id of the booking to swap",
				Required: true,
			},
			&cli.BoolFlag{
				Name:  "allow_booking",
				Usage: "accept other bookings in exchange",
				Value: true,
			},
			&cli.BoolFlag{
				Name:  "allow_cash",
				Usage: "accept cash offers",
			},
			&cli.StringFlag{
				Name:  "min_cash",
				Usage: "the minimum accepted cash amount",
			},
			&cli.BoolFlag{
				Name:  "listed",
				Usage: "make the swap visible to other users",
				Value: true,
			},
		},
		Action: registerSwapAction,
	}

	swapGetCmd = &cli.Command{
		Name:   "get",
		Usage:  "get a swap offer",
		Flags:  []cli.Flag{swapIDFlag},
		Action: getSwapAction,
	}

	swapCancelCmd = &cli.Command{
		Name:   "cancel",
		Usage:  "cancel a swap offer and its running auction",
		Flags:  []cli.Flag{swapIDFlag},
		Action: cancelSwapAction,
	}
)

func registerSwapAction(ctx *cli.Context) error {
	client, err := getClient(nil)
	if err != nil {
		return err
	}

	req := map[string]interface{}{
		"source_booking_id":        ctx.String("booking"),
		"booking_exchange_allowed": ctx.Bool("allow_booking"),
		"cash_allowed":             ctx.Bool("allow_cash"),
		"minimum_cash_amount":      ctx.String("min_cash"),
		"listed":                   ctx.Bool("listed"),
	}
	reply := map[string]interface{}{}
	if err := client.Do(
		context.Background(), http.MethodPost, "/v1/swaps", req, &reply,
	); err != nil {
		return apiError(err)
	}

	printRespJSON(reply)
	return nil
}

func getSwapAction(ctx *cli.Context) error {
	client, err := getClient(nil)
	if err != nil {
		return err
	}

	reply := map[string]interface{}{}
	if err := client.Do(
		context.Background(), http.MethodGet, "/v1/swaps/"+ctx.String("id"),
		nil, &reply,
	); err != nil {
		return apiError(err)
	}

	printRespJSON(reply)
	return nil
}

func cancelSwapAction(ctx *cli.Context) error {
	client, err := getClient(nil)
	if err != nil {
		return err
	}

	reply := map[string]interface{}{}
	if err := client.Do(
		context.Background(), http.MethodPost,
		"/v1/swaps/"+ctx.String("id")+"/cancel", nil, &reply,
	); err != nil {
		return apiError(err)
	}

	printRespJSON(reply)
	return nil
}
