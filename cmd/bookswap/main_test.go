package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func withTempState(t *testing.T) {
	dataDir, path := bookswapDataDir, statePath
	bookswapDataDir = t.TempDir()
	statePath = filepath.Join(bookswapDataDir, "state.json")
	t.Cleanup(func() {
		bookswapDataDir, statePath = dataDir, path
	})
}

func TestState(t *testing.T) {
	withTempState(t)

	_, err := getState()
	require.Error(t, err)

	err = setState(map[string]string{"server": "http://localhost:8080"})
	require.NoError(t, err)
	err = setState(map[string]string{"token": "tok"})
	require.NoError(t, err)

	state, err := getState()
	require.NoError(t, err)
	require.Equal(t, map[string]string{
		"server": "http://localhost:8080",
		"token":  "tok",
	}, state)
}

func TestMerge(t *testing.T) {
	merged := merge(
		map[string]string{"a": "1", "b": "2"},
		map[string]string{"b": "3"},
	)
	require.Equal(t, map[string]string{"a": "1", "b": "3"}, merged)
}

func TestClient(t *testing.T) {
	withTempState(t)

	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			if r.Header.Get("Authorization") != "Bearer tok" {
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(map[string]string{
					"error": "unauthenticated", "message": "missing token",
				})
				return
			}
			if r.URL.Path == "/v1/auctions/unknown" {
				w.WriteHeader(http.StatusNotFound)
				json.NewEncoder(w).Encode(map[string]string{
					"error": "not_found", "message": "auction not found",
				})
				return
			}
			json.NewEncoder(w).Encode(map[string]string{
				"idempotency_key": r.Header.Get("Idempotency-Key"),
			})
		},
	))
	defer srv.Close()

	_, err := getClient(nil)
	require.Error(t, err)

	err = setState(map[string]string{"server": srv.URL})
	require.NoError(t, err)
	_, err = getClient(nil)
	require.EqualError(t, err, "set token with `config set token`")

	err = setState(map[string]string{"token": "tok"})
	require.NoError(t, err)

	client, err := getClient(map[string]string{"Idempotency-Key": "key-1"})
	require.NoError(t, err)

	reply := map[string]string{}
	err = client.Do(
		context.Background(), http.MethodGet, "/v1/auctions/a1", nil, &reply,
	)
	require.NoError(t, err)
	require.Equal(t, "key-1", reply["idempotency_key"])

	err = client.Do(
		context.Background(), http.MethodGet, "/v1/auctions/unknown", nil, nil,
	)
	require.Error(t, err)
	require.EqualError(t, apiError(err), "not_found: auction not found")
}
