package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/urfave/cli/v2"
)

var compatibility = cli.Command{
	Name:  "compatibility",
	Usage: "score how well two swap offers match",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "source",
			Usage:    "the id of your swap",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "target",
			Usage:    "the id of the swap to compare with",
			Required: true,
		},
	},
	Action: compatibilityAction,
}

func compatibilityAction(ctx *cli.Context) error {
	client, err := getClient(nil)
	if err != nil {
		return err
	}

	reply := map[string]interface{}{}
	if err := client.Do(
		context.Background(), http.MethodGet,
		fmt.Sprintf(
			"/v1/swaps/%s/compatibility/%s",
			ctx.String("source"), ctx.String("target"),
		),
		nil, &reply,
	); err != nil {
		return apiError(err)
	}

	printRespJSON(reply)
	return nil
}
