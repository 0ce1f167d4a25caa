package main

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/urfave/cli/v2"
)

var (
	webhook = cli.Command{
		Name:  "webhook",
		Usage: "add or remove webhooks (admin only)",
		Subcommands: []*cli.Command{
			webhookAddCmd, webhookRemoveCmd,
		},
	}
	listwebhooks = cli.Command{
		Name:  "webhooks",
		Usage: "list all webhooks, optionally filtered by target event (admin only)",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "event",
				Usage: "the event to filter webhooks by, * for the catch-all ones",
			},
		},
		Action: listWebhooksAction,
	}

	webhookAddCmd = &cli.Command{
		Name:  "add",
		Usage: "add a (secured) webhook endpoint called whenever a target event occurs",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "endpoint",
				Usage:    "the webhook endpoint to be called whenever the target event occurs",
				Required: true,
			},
			&cli.StringFlag{
				Name: "secret",
				Usage: "the eventual secret to use to generate a token for " +
					"authenticating requests to the webhook endpoint",
				Value: "",
			},
			&cli.StringFlag{
				Name: "event",
				Usage: "the target event, like AUCTION_CREATED or WINNER_SELECTED, " +
					"or * for any event",
				Value: "*",
			},
		},
		Action: addWebhookAction,
	}

	webhookRemoveCmd = &cli.Command{
		Name:  "remove",
		Usage: "remove a webhook",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "id",
				Usage:    "the id of the webhook to remove",
				Required: true,
			},
		},
		Action: removeWebhookAction,
	}
)

func addWebhookAction(ctx *cli.Context) error {
	client, err := getClient(nil)
	if err != nil {
		return err
	}

	req := map[string]string{
		"event":    ctx.String("event"),
		"endpoint": ctx.String("endpoint"),
		"secret":   ctx.String("secret"),
	}
	reply := struct {
		ID string `json:"id"`
	}{}
	if err := client.Do(
		context.Background(), http.MethodPost, "/v1/admin/webhooks", req, &reply,
	); err != nil {
		return apiError(err)
	}

	fmt.Println()
	fmt.Println("webhook id:", reply.ID)
	return nil
}

func removeWebhookAction(ctx *cli.Context) error {
	client, err := getClient(nil)
	if err != nil {
		return err
	}

	hookID := ctx.String("id")
	if err := client.Do(
		context.Background(), http.MethodDelete,
		"/v1/admin/webhooks/"+url.PathEscape(hookID), nil, nil,
	); err != nil {
		return apiError(err)
	}

	fmt.Println()
	fmt.Println("removed webhook with id:", hookID)
	return nil
}

func listWebhooksAction(ctx *cli.Context) error {
	client, err := getClient(nil)
	if err != nil {
		return err
	}

	path := "/v1/admin/webhooks"
	if event := ctx.String("event"); event != "" {
		path += "?event=" + url.QueryEscape(event)
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
