package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"
)

var proposal = cli.Command{
	Name:  "proposal",
	Usage: "submit, list or withdraw proposals of an auction",
	Subcommands: []*cli.Command{
		proposalSubmitCmd, proposalListCmd, proposalWithdrawCmd,
	},
}

var (
	proposalAuctionFlag = &cli.StringFlag{
		Name:     "auction",
		Usage:    "the id of the auction",
		Required: true,
	}

	proposalSubmitCmd = &cli.Command{
		Name:  "submit",
		Usage: "submit a booking or cash proposal",
		Flags: []cli.Flag{
			proposalAuctionFlag,
			&cli.StringFlag{
				Name:  "type",
				Usage: "the proposal type: booking or cash",
				Value: "booking",
			},
			&cli.StringFlag{
				Name:  "booking",
				Usage: "the id of the offered booking",
			},
			&cli.StringFlag{
				Name:  "amount",
				Usage: "the offered cash amount",
			},
			&cli.StringFlag{
				Name:  "currency",
				Usage: "the ISO currency code of the cash amount",
				Value: "EUR",
			},
			&cli.StringFlag{
				Name:  "payment_method",
				Usage: "the payment method funding the escrow",
			},
			&cli.BoolFlag{
				Name:  "escrow",
				Usage: "agree to put the cash amount in escrow",
			},
			&cli.StringFlag{
				Name:  "message",
				Usage: "an optional message for the swap owner",
			},
			&cli.StringSliceFlag{
				Name:  "condition",
				Usage: "a condition attached to the proposal, can be repeated",
			},
			&cli.StringFlag{
				Name:  "idempotency_key",
				Usage: "the key identifying retries of the same submission",
			},
		},
		Action: submitProposalAction,
	}

	proposalListCmd = &cli.Command{
		Name:   "list",
		Usage:  "list the proposals of an auction visible to you",
		Flags:  []cli.Flag{proposalAuctionFlag},
		Action: listProposalsAction,
	}

	proposalWithdrawCmd = &cli.Command{
		Name:  "withdraw",
		Usage: "withdraw one of your proposals",
		Flags: []cli.Flag{
			proposalAuctionFlag,
			&cli.StringFlag{
				Name:     "id",
				Usage:    "the id of the proposal",
				Required: true,
			},
		},
		Action: withdrawProposalAction,
	}
)

func submitProposalAction(ctx *cli.Context) error {
	proposalType := ctx.String("type")
	if proposalType != "booking" && proposalType != "cash" {
		return &invalidUsageError{ctx, ctx.Command.Name}
	}

	key := ctx.String("idempotency_key")
	if key == "" {
		key = uuid.New().String()
	}
	client, err := getClient(map[string]string{"Idempotency-Key": key})
	if err != nil {
		return err
	}

	req := map[string]interface{}{
		"type":              proposalType,
		"booking_id":        ctx.String("booking"),
		"amount":            ctx.String("amount"),
		"currency":          ctx.String("currency"),
		"payment_method_id": ctx.String("payment_method"),
		"escrow_agreed":     ctx.Bool("escrow"),
		"message":           ctx.String("message"),
		"conditions":        ctx.StringSlice("condition"),
	}
	if proposalType == "booking" {
		delete(req, "currency")
	}

	reply := map[string]interface{}{}
	if err := client.Do(
		context.Background(), http.MethodPost,
		fmt.Sprintf("/v1/auctions/%s/proposals", ctx.String("auction")),
		req, &reply,
	); err != nil {
		return apiError(err)
	}

	printRespJSON(reply)
	fmt.Println("idempotency key:", key)
	return nil
}

func listProposalsAction(ctx *cli.Context) error {
	client, err := getClient(nil)
	if err != nil {
		return err
	}

	reply := map[string]interface{}{}
	if err := client.Do(
		context.Background(), http.MethodGet,
		fmt.Sprintf("/v1/auctions/%s/proposals", ctx.String("auction")),
		nil, &reply,
	); err != nil {
		return apiError(err)
	}

	printRespJSON(reply)
	return nil
}

func withdrawProposalAction(ctx *cli.Context) error {
	client, err := getClient(nil)
	if err != nil {
		return err
	}

	proposalID := ctx.String("id")
	reply := map[string]interface{}{}
	if err := client.Do(
		context.Background(), http.MethodDelete,
		fmt.Sprintf(
			"/v1/auctions/%s/proposals/%s", ctx.String("auction"), proposalID,
		),
		nil, &reply,
	); err != nil {
		return apiError(err)
	}

	fmt.Println()
	fmt.Println("withdrawn proposal with id:", proposalID)
	return nil
}
