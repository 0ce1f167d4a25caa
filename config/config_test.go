package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   interface{}
		wantErr bool
	}{
		{"default", "", nil, false},
		{"unknown db type", DbTypeKey, "mongo", true},
		{"postgres without address", DbTypeKey, DbTypePostgres, true},
		{"negative sweep interval", SweepIntervalKey, -1, true},
		{"disabled sweeper", SweepIntervalKey, 0, false},
		{"zero concurrency", SweepConcurrencyKey, 0, true},
		{"short auth secret", AuthSecretKey, "secret", true},
		{"auth secret", AuthSecretKey, "0123456789abcdef0123456789abcdef", false},
		{"invalid booking url", BookingServiceURLKey, "not a url", true},
		{"invalid webhook", WebhookEndpointsKey, "http://hook, nope", true},
		{"log level out of range", LogLevelKey, 9, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.key != "" {
				prev := vip.Get(tt.key)
				Set(tt.key, tt.value)
				t.Cleanup(func() { Set(tt.key, prev) })
			}

			err := validate()
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestGetList(t *testing.T) {
	prev := vip.Get(AdminUsersKey)
	t.Cleanup(func() { Set(AdminUsersKey, prev) })

	Set(AdminUsersKey, " alice,, bob ,")
	require.Equal(t, []string{"alice", "bob"}, GetList(AdminUsersKey))

	Set(AdminUsersKey, "")
	require.Empty(t, GetList(AdminUsersKey))
}
