package stats_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"github.com/tdex-network/bookswap/pkg/stats"
)

func TestDumpPrometheusMetrics(t *testing.T) {
	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stats_test_dumped_total",
		Help: "test counter",
	})
	require.NoError(t, prometheus.Register(counter))
	t.Cleanup(func() { prometheus.Unregister(counter) })
	counter.Inc()

	dir := t.TempDir()
	require.NoError(t, stats.DumpPrometheusMetrics(dir))

	content, err := os.ReadFile(filepath.Join(dir, "metrics.txt"))
	require.NoError(t, err)
	require.Contains(t, string(content), "stats_test_dumped_total")
}
