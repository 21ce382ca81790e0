package main

import (
	"context"
	"fmt"
	"strings"

	"potlottery/config"
	"potlottery/core"
	"potlottery/core/events"
	"potlottery/native/common"
	"potlottery/native/lottery"
	"potlottery/native/token"
	"potlottery/observability"
)

func newLedger(cfg *config.Config, exec *core.Executor, bus *events.Bus) (*token.Engine, error) {
	limit, err := cfg.FaucetLimitAmount()
	if err != nil {
		return nil, err
	}
	ledger := token.NewEngine(cfg.Token.Symbol)
	ledger.SetState(exec.State())
	ledger.SetEmitter(bus)
	ledger.SetFaucet(cfg.Token.FaucetEnabled, common.Quota{
		MaxRequestsPerEpoch: cfg.Token.FaucetRequests,
		MaxAmountPerEpoch:   limit,
		EpochSeconds:        uint32(cfg.Token.FaucetEpoch.Seconds()),
	})
	return ledger, nil
}

func newLottery(cfg *config.Config, exec *core.Executor, ledger lottery.Ledger, bus *events.Bus) (*lottery.Engine, error) {
	owner, err := cfg.OwnerIdentity()
	if err != nil {
		return nil, err
	}
	price, err := cfg.TicketPriceAmount()
	if err != nil {
		return nil, err
	}
	source, err := newRandomness(cfg.Lottery)
	if err != nil {
		return nil, err
	}
	engine, err := lottery.NewEngine(owner, ledger, source)
	if err != nil {
		return nil, err
	}
	engine.SetState(exec.State())
	engine.SetEmitter(bus)
	if err := engine.SetFeeBps(cfg.Lottery.FeeBps); err != nil {
		return nil, err
	}
	if err := engine.SetCooldown(cfg.Lottery.DrawCooldown.Duration); err != nil {
		return nil, err
	}
	if err := engine.SetMaxManagers(cfg.Lottery.MaxManagers); err != nil {
		return nil, err
	}
	if err := exec.Apply(func() error { return engine.Initialize(price) }); err != nil {
		return nil, fmt.Errorf("initialize lottery: %w", err)
	}
	return engine, nil
}

func newRandomness(cfg config.Lottery) (lottery.RandomnessSource, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Randomness)) {
	case "", config.RandomnessCrypto:
		return lottery.CryptoSource{}, nil
	case config.RandomnessBeacon:
		source, err := lottery.NewBeaconSource([]byte(cfg.BeaconSeed))
		if err != nil {
			return nil, err
		}
		return source, nil
	default:
		return nil, fmt.Errorf("unknown randomness source %q", cfg.Randomness)
	}
}

// recordEventMetrics counts committed events by type.
func recordEventMetrics(ctx context.Context, bus *events.Bus) {
	updates, cancel := bus.Subscribe(256)
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-updates:
			if !ok {
				return
			}
			observability.Events().RecordEvent(evt.Type)
			observability.Events().SetDropped(bus.Dropped())
		}
	}
}
