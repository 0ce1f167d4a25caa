package main

import (
	"context"
	"net/http"

	"github.com/urfave/cli/v2"
)

var sweep = cli.Command{
	Name:   "sweep",
	Usage:  "resolve every auction whose deadline passed (admin only)",
	Action: sweepAction,
}

func sweepAction(ctx *cli.Context) error {
	client, err := getClient(nil)
	if err != nil {
		return err
	}

	reply := map[string]interface{}{}
	if err := client.Do(
		context.Background(), http.MethodPost, "/v1/admin/sweep", nil, &reply,
	); err != nil {
		return apiError(err)
	}

	printRespJSON(reply)
	return nil
}
