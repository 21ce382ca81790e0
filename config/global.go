package config

import (
	"fmt"
	"math/big"
	"strings"

	"potlottery/crypto"
)

// OwnerIdentity decodes the configured lottery owner.
func (c *Config) OwnerIdentity() ([20]byte, error) {
	return parseIdentity("lottery.Owner", c.Lottery.Owner)
}

// SchedulerIdentity decodes the identity the scheduler draws as.
func (c *Config) SchedulerIdentity() ([20]byte, error) {
	return parseIdentity("scheduler.Manager", c.Scheduler.Manager)
}

// TicketPriceAmount parses the configured ticket price.
func (c *Config) TicketPriceAmount() (*big.Int, error) {
	amount, err := parseUintAmount(c.Lottery.TicketPrice)
	if err != nil {
		return nil, fmt.Errorf("invalid lottery.TicketPrice: %w", err)
	}
	return amount, nil
}

// FaucetLimitAmount parses the per-epoch faucet cap. Zero means unlimited.
func (c *Config) FaucetLimitAmount() (*big.Int, error) {
	amount, err := parseUintAmount(c.Token.FaucetLimit)
	if err != nil {
		return nil, fmt.Errorf("invalid token.FaucetLimit: %w", err)
	}
	return amount, nil
}

func parseIdentity(field, raw string) ([20]byte, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return [20]byte{}, fmt.Errorf("%s is required", field)
	}
	addr, err := crypto.DecodeAddress(trimmed)
	if err != nil {
		return [20]byte{}, fmt.Errorf("invalid %s: %w", field, err)
	}
	if addr.IsZero() {
		return [20]byte{}, fmt.Errorf("%s must not be the zero address", field)
	}
	return addr.Array(), nil
}

func parseUintAmount(raw string) (*big.Int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return big.NewInt(0), nil
	}
	value, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("not a base-10 integer: %q", raw)
	}
	if value.Sign() < 0 {
		return nil, fmt.Errorf("must not be negative")
	}
	return value, nil
}
