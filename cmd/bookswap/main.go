package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tdex-network/bookswap/pkg/httputil"
	"github.com/urfave/cli/v2"
)

const (
	requestTimeout = 30 * time.Second
	requestRate    = 10
)

var (
	version = "dev"

	bookswapDataDir = defaultDataDir()
	statePath       = filepath.Join(bookswapDataDir, "state.json")
)

func main() {
	app := cli.NewApp()

	app.Version = version
	app.Name = "bookswap"
	app.Usage = "Command line interface for bookswapd users and operators"
	app.Commands = append(
		app.Commands,
		&config,
		&swap,
		&auction,
		&proposal,
		&compatibility,
		&sweep,
		&listauctions,
		&webhook,
		&listwebhooks,
	)

	err := app.Run(os.Args)
	if err != nil {
		fatal(err)
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".bookswap"
	}
	return filepath.Join(home, ".bookswap")
}

func getState() (map[string]string, error) {
	data := map[string]string{}

	file, err := os.ReadFile(statePath)
	if err != nil {
		return nil, errors.New("get config state error: try 'config init'")
	}
	if err := json.Unmarshal(file, &data); err != nil {
		return nil, fmt.Errorf("invalid config state: %w", err)
	}

	return data, nil
}

func setState(data map[string]string) error {
	if err := os.MkdirAll(bookswapDataDir, 0755); err != nil {
		return err
	}

	currentData := map[string]string{}
	if _, err := os.Stat(statePath); err == nil {
		if currentData, err = getState(); err != nil {
			return err
		}
	}

	jsonString, err := json.Marshal(merge(currentData, data))
	if err != nil {
		return err
	}
	if err := os.WriteFile(statePath, jsonString, 0600); err != nil {
		return fmt.Errorf("writing to file: %w", err)
	}

	return nil
}

func merge(maps ...map[string]string) map[string]string {
	merge := make(map[string]string, 0)
	for _, m := range maps {
		for k, v := range m {
			merge[k] = v
		}
	}
	return merge
}

func printRespJSON(resp interface{}) {
	jsonBytes, err := json.MarshalIndent(resp, "", "\t")
	if err != nil {
		fmt.Println("unable to decode response: ", err)
		return
	}

	fmt.Println(string(jsonBytes))
}

// getClient returns a client for the daemon configured in the local state,
// authenticated with the stored token.
func getClient(extraHeader map[string]string) (*httputil.Client, error) {
	state, err := getState()
	if err != nil {
		return nil, err
	}
	server, ok := state["server"]
	if !ok || server == "" {
		return nil, errors.New("set server with `config set server`")
	}
	token, ok := state["token"]
	if !ok || token == "" {
		return nil, errors.New("set token with `config set token`")
	}

	header := map[string]string{"Authorization": "Bearer " + token}
	for k, v := range extraHeader {
		header[k] = v
	}
	return httputil.NewClient(
		"bookswapd", server, requestTimeout, requestRate, header,
	), nil
}

// apiError unwraps the error body returned by the daemon.
func apiError(err error) error {
	var statusErr *httputil.StatusError
	if !errors.As(err, &statusErr) {
		return err
	}
	body := struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}{}
	if jsonErr := json.Unmarshal([]byte(statusErr.Body), &body); jsonErr != nil ||
		body.Message == "" {
		return err
	}
	return fmt.Errorf("%s: %s", body.Error, body.Message)
}

type invalidUsageError struct {
	ctx     *cli.Context
	command string
}

func (e *invalidUsageError) Error() string {
	return fmt.Sprintf("invalid usage of command %s", e.command)
}

func fatal(err error) {
	var e *invalidUsageError
	if errors.As(err, &e) {
		_ = cli.ShowCommandHelp(e.ctx, e.command)
	} else {
		_, _ = fmt.Fprintf(os.Stderr, "[bookswap] %v\n", err)
	}
	os.Exit(1)
}
