package main

import (
	"testing"

	"github.com/stretchr/testify/require"

	"potlottery/config"
	"potlottery/core"
	"potlottery/core/events"
	"potlottery/core/state"
	"potlottery/crypto"
	"potlottery/native/lottery"
	"potlottery/storage"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Lottery.Owner = crypto.AddressFromArray([20]byte{0xA0}).String()
	cfg.Lottery.TicketPrice = "20"
	cfg.Auth.HMACSecret = "0123456789abcdef0123456789abcdef"
	cfg.Storage.Backend = storage.BackendMemory
	return cfg
}

func TestNewRandomness(t *testing.T) {
	src, err := newRandomness(config.Lottery{Randomness: config.RandomnessCrypto})
	require.NoError(t, err)
	require.IsType(t, lottery.CryptoSource{}, src)

	src, err = newRandomness(config.Lottery{Randomness: config.RandomnessBeacon, BeaconSeed: "seed"})
	require.NoError(t, err)
	require.IsType(t, &lottery.BeaconSource{}, src)

	_, err = newRandomness(config.Lottery{Randomness: config.RandomnessBeacon})
	require.Error(t, err)
	_, err = newRandomness(config.Lottery{Randomness: "dice"})
	require.Error(t, err)
}

func TestWiringInitializesLottery(t *testing.T) {
	cfg := testConfig()
	cfg.Lottery.FeeBps = 1000
	bus := events.NewBus()
	exec := core.NewExecutor(state.NewManager(storage.NewMemDB()), bus)

	ledger, err := newLedger(cfg, exec, bus)
	require.NoError(t, err)
	engine, err := newLottery(cfg, exec, ledger, bus)
	require.NoError(t, err)

	require.Equal(t, uint32(1000), engine.FeeBps())
	require.Equal(t, cfg.Lottery.DrawCooldown.Duration, engine.Cooldown())
	price, err := engine.TicketPrice()
	require.NoError(t, err)
	require.Equal(t, "20", price.String())
	require.Zero(t, exec.State().Dirty())
}

func TestWiringRejectsMissingOwner(t *testing.T) {
	cfg := testConfig()
	cfg.Lottery.Owner = ""
	bus := events.NewBus()
	exec := core.NewExecutor(state.NewManager(storage.NewMemDB()), bus)
	ledger, err := newLedger(cfg, exec, bus)
	require.NoError(t, err)
	_, err = newLottery(cfg, exec, ledger, bus)
	require.Error(t, err)
}
