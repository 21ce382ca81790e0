package metrics

import (
	"math/big"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"potlottery/observability"
)

type LotteryMetrics struct {
	ticketsSold  prometheus.Counter
	draws        prometheus.Counter
	prizesPaid   prometheus.Counter
	pot          prometheus.Gauge
	feeBalance   prometheus.Gauge
	lastDraw     prometheus.Gauge
	failures     *prometheus.CounterVec
	schedulerRun *prometheus.CounterVec
}

var (
	lotteryOnce     sync.Once
	lotteryRegistry *LotteryMetrics
)

func Lottery() *LotteryMetrics {
	lotteryOnce.Do(func() {
		lotteryRegistry = &LotteryMetrics{
			ticketsSold: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "lottery_tickets_sold_total",
				Help: "Tickets sold across all rounds.",
			}),
			draws: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "lottery_draws_total",
				Help: "Settled draws.",
			}),
			prizesPaid: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "lottery_prizes_paid_base_units_total",
				Help: "Prize amounts paid to winners in base units.",
			}),
			pot: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "lottery_pot_base_units",
				Help: "Realized pot of the open round.",
			}),
			feeBalance: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "lottery_fee_balance_base_units",
				Help: "Fees retained and not yet withdrawn.",
			}),
			lastDraw: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "lottery_last_draw_timestamp_seconds",
				Help: "Unix time of the last settled draw.",
			}),
			failures: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "lottery_operation_failures_total",
				Help: "Failed lottery operations by operation and reason.",
			}, []string{"operation", "reason"}),
			schedulerRun: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "lottery_scheduler_runs_total",
				Help: "Automatic draw attempts by outcome.",
			}, []string{"outcome"}),
		}
		prometheus.MustRegister(
			lotteryRegistry.ticketsSold,
			lotteryRegistry.draws,
			lotteryRegistry.prizesPaid,
			lotteryRegistry.pot,
			lotteryRegistry.feeBalance,
			lotteryRegistry.lastDraw,
			lotteryRegistry.failures,
			lotteryRegistry.schedulerRun,
		)
	})
	return lotteryRegistry
}

func (m *LotteryMetrics) ObserveTickets(count uint64) {
	if m == nil {
		return
	}
	m.ticketsSold.Add(float64(count))
}

func (m *LotteryMetrics) ObserveDraw(prize *big.Int, drawnAt int64) {
	if m == nil {
		return
	}
	m.draws.Inc()
	m.prizesPaid.Add(observability.BigToFloat(prize))
	m.lastDraw.Set(float64(drawnAt))
}

func (m *LotteryMetrics) SetPot(pot *big.Int) {
	if m == nil {
		return
	}
	m.pot.Set(observability.BigToFloat(pot))
}

func (m *LotteryMetrics) SetFeeBalance(fees *big.Int) {
	if m == nil {
		return
	}
	m.feeBalance.Set(observability.BigToFloat(fees))
}

func (m *LotteryMetrics) RecordFailure(operation, reason string) {
	if m == nil {
		return
	}
	if operation == "" {
		operation = "unknown"
	}
	if reason == "" {
		reason = "unknown"
	}
	m.failures.WithLabelValues(operation, reason).Inc()
}

func (m *LotteryMetrics) RecordSchedulerRun(outcome string) {
	if m == nil {
		return
	}
	if outcome == "" {
		outcome = "unknown"
	}
	m.schedulerRun.WithLabelValues(outcome).Inc()
}
