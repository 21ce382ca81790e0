package observability

import (
	"math"
	"math/big"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestModuleMetricsObserve(t *testing.T) {
	m := ModuleMetrics()
	m.Observe("lottery", "lottery_draw", 0, 10*time.Millisecond)
	m.Observe("lottery", "lottery_draw", -32031, time.Millisecond)
	m.RecordThrottle("lottery", "")

	require.Equal(t, float64(1), testutil.ToFloat64(m.requests.WithLabelValues("lottery", "lottery_draw", "success")))
	require.Equal(t, float64(1), testutil.ToFloat64(m.requests.WithLabelValues("lottery", "lottery_draw", "error")))
	require.Equal(t, float64(1), testutil.ToFloat64(m.errors.WithLabelValues("lottery", "lottery_draw", "-32031")))
	require.Equal(t, float64(1), testutil.ToFloat64(m.throttles.WithLabelValues("lottery", "unspecified")))
}

func TestEventMetrics(t *testing.T) {
	m := Events()
	m.RecordEvent("lottery.draw.settled")
	m.RecordEvent(" ")
	m.SetDropped(4)

	require.Equal(t, float64(1), testutil.ToFloat64(m.emitted.WithLabelValues("lottery.draw.settled")))
	require.Equal(t, float64(1), testutil.ToFloat64(m.emitted.WithLabelValues("unknown")))
	require.Equal(t, float64(4), testutil.ToFloat64(m.dropped))
}

func TestBigToFloat(t *testing.T) {
	require.Zero(t, BigToFloat(nil))
	require.Equal(t, float64(38), BigToFloat(big.NewInt(38)))
	huge := new(big.Int).Lsh(big.NewInt(1), 2000)
	require.Equal(t, math.MaxFloat64, BigToFloat(huge))
}
