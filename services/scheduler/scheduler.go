package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"math/big"
	"time"

	"potlottery/crypto"
	"potlottery/native/lottery"
	"potlottery/observability/metrics"
)

const (
	OutcomeSettled  = "settled"
	OutcomeEmpty    = "empty"
	OutcomeCooldown = "cooldown"
	OutcomeError    = "error"
)

// Drawer settles the open round on behalf of caller.
type Drawer interface {
	Draw(caller lottery.Identity) (*lottery.DrawResult, error)
}

// FeeReader exposes the retained fee balance for the fee gauge.
type FeeReader interface {
	LotteryFees() (*big.Int, error)
}

// Applier runs fn as one atomic state transition.
type Applier interface {
	Apply(fn func() error) error
}

// Scheduler triggers draws on a fixed interval using a manager identity.
type Scheduler struct {
	exec     Applier
	drawer   Drawer
	fees     FeeReader
	manager  lottery.Identity
	interval time.Duration
	logger   *slog.Logger
}

// New constructs a scheduler. The manager must hold the owner or manager
// role when draws run. fees may be nil, in which case the fee gauge is left
// to other writers.
func New(exec Applier, drawer Drawer, fees FeeReader, manager lottery.Identity, interval time.Duration, logger *slog.Logger) (*Scheduler, error) {
	if exec == nil || drawer == nil {
		return nil, errors.New("scheduler: executor and drawer required")
	}
	if manager == (lottery.Identity{}) {
		return nil, errors.New("scheduler: manager identity required")
	}
	if interval <= 0 {
		return nil, errors.New("scheduler: interval must be positive")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		exec:     exec,
		drawer:   drawer,
		fees:     fees,
		manager:  manager,
		interval: interval,
		logger:   logger.With("component", "scheduler"),
	}, nil
}

// Run attempts a draw every interval until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	s.logger.Info("draw scheduler started",
		"manager", crypto.AddressFromArray(s.manager).String(),
		"interval", s.interval.String())
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick()
		}
	}
}

func (s *Scheduler) tick() string {
	var (
		result *lottery.DrawResult
		fees   *big.Int
	)
	err := s.exec.Apply(func() error {
		var err error
		result, err = s.drawer.Draw(s.manager)
		if err != nil || s.fees == nil {
			return err
		}
		// A failed gauge read must not discard the draw.
		if current, readErr := s.fees.LotteryFees(); readErr == nil {
			fees = current
		}
		return nil
	})
	outcome := classify(err)
	metrics.Lottery().RecordSchedulerRun(outcome)
	switch outcome {
	case OutcomeSettled:
		metrics.Lottery().ObserveDraw(result.Prize, result.DrawnAt)
		metrics.Lottery().SetPot(nil)
		if fees != nil {
			metrics.Lottery().SetFeeBalance(fees)
		}
		s.logger.Info("scheduled draw settled",
			"round", result.Round,
			"winner", crypto.AddressFromArray(result.Winner).String(),
			"prize", result.Prize.String())
	case OutcomeEmpty, OutcomeCooldown:
		s.logger.Debug("scheduled draw skipped", "reason", outcome)
	default:
		metrics.Lottery().RecordFailure("draw", lottery.Reason(err))
		s.logger.Warn("scheduled draw failed", "error", err)
	}
	return outcome
}

func classify(err error) string {
	switch {
	case err == nil:
		return OutcomeSettled
	case errors.Is(err, lottery.ErrEmptyRound):
		return OutcomeEmpty
	case errors.Is(err, lottery.ErrRateLimited):
		return OutcomeCooldown
	default:
		return OutcomeError
	}
}
