package config

import (
	"fmt"
	"strings"
	"time"

	"potlottery/storage"
)

const (
	RandomnessCrypto = "crypto"
	RandomnessBeacon = "beacon"

	HistorySQLite   = "sqlite"
	HistoryPostgres = "postgres"

	defaultDrawCooldown      = 5 * time.Minute
	defaultFaucetEpoch       = 24 * time.Hour
	defaultAllowedSkew       = 30 * time.Second
	defaultSchedulerInterval = time.Minute

	minDrawCooldown = time.Second
	maxManagers     = 2
	bpsDenominator  = 10_000
)

// Validate rejects configurations the daemon cannot run with.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config: nil")
	}
	if _, err := c.OwnerIdentity(); err != nil {
		return err
	}
	price, err := c.TicketPriceAmount()
	if err != nil {
		return err
	}
	if price.Sign() <= 0 {
		return fmt.Errorf("lottery: TicketPrice must be positive")
	}
	if c.Lottery.FeeBps > bpsDenominator {
		return fmt.Errorf("lottery: FeeBps must not exceed %d", bpsDenominator)
	}
	if c.Lottery.MaxManagers < 0 || c.Lottery.MaxManagers > maxManagers {
		return fmt.Errorf("lottery: MaxManagers must be between 0 and %d", maxManagers)
	}
	if c.Lottery.DrawCooldown.Duration < minDrawCooldown {
		return fmt.Errorf("lottery: DrawCooldown must be at least %s", minDrawCooldown)
	}
	switch strings.ToLower(c.Lottery.Randomness) {
	case RandomnessCrypto:
	case RandomnessBeacon:
		if strings.TrimSpace(c.Lottery.BeaconSeed) == "" {
			return fmt.Errorf("lottery: BeaconSeed required for beacon randomness")
		}
	default:
		return fmt.Errorf("lottery: unknown Randomness %q", c.Lottery.Randomness)
	}

	switch strings.ToLower(c.Storage.Backend) {
	case storage.BackendMemory, storage.BackendLevelDB, storage.BackendBolt:
	default:
		return fmt.Errorf("storage: unknown Backend %q", c.Storage.Backend)
	}
	if c.Storage.Backend != storage.BackendMemory && strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("storage: DataDir required for %s backend", c.Storage.Backend)
	}

	if c.Token.FaucetEnabled {
		if _, err := c.FaucetLimitAmount(); err != nil {
			return err
		}
	}

	if len(c.Auth.HMACSecret) < 32 {
		return fmt.Errorf("auth: HMACSecret must be at least 32 bytes (set %s)", EnvAuthSecret)
	}
	if c.RateLimit.RequestsPerMinute < 0 || c.RateLimit.Burst < 0 {
		return fmt.Errorf("rate_limit: values must not be negative")
	}

	switch strings.ToLower(c.History.Driver) {
	case "":
	case HistorySQLite, HistoryPostgres:
		if strings.TrimSpace(c.History.DSN) == "" {
			return fmt.Errorf("history: DSN required for %s", c.History.Driver)
		}
	default:
		return fmt.Errorf("history: unknown Driver %q", c.History.Driver)
	}

	if c.Scheduler.Enabled {
		if _, err := c.SchedulerIdentity(); err != nil {
			return err
		}
		if c.Scheduler.Interval.Duration < minDrawCooldown {
			return fmt.Errorf("scheduler: Interval must be at least %s", minDrawCooldown)
		}
	}
	return nil
}
