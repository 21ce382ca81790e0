package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

const (
	// EnvEnvironment overrides Config.Env.
	EnvEnvironment = "LOTTERY_ENV"
	// EnvAuthSecret overrides Auth.HMACSecret so the secret can stay out of
	// the config file.
	EnvAuthSecret = "LOTTERY_AUTH_SECRET"
)

type Config struct {
	Env           string    `toml:"Env" yaml:"env"`
	ListenAddress string    `toml:"ListenAddress" yaml:"listen"`
	DataDir       string    `toml:"DataDir" yaml:"data_dir"`
	Storage       Storage   `toml:"storage" yaml:"storage"`
	Lottery       Lottery   `toml:"lottery" yaml:"lottery"`
	Token         Token     `toml:"token" yaml:"token"`
	Auth          Auth      `toml:"auth" yaml:"auth"`
	RateLimit     RateLimit `toml:"rate_limit" yaml:"rate_limit"`
	History       History   `toml:"history" yaml:"history"`
	Scheduler     Scheduler `toml:"scheduler" yaml:"scheduler"`
	Log           Log       `toml:"log" yaml:"log"`
	Telemetry     Telemetry `toml:"telemetry" yaml:"telemetry"`
}

// Load loads the configuration from the given path. YAML is used for .yaml
// and .yml files, TOML otherwise. A missing file is created with defaults.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	} else if err != nil {
		return nil, err
	}

	cfg := Default()
	if isYAML(path) {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	} else {
		meta, err := toml.DecodeFile(path, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("config file %s has unknown key %s", path, undecoded[0].String())
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration used for new installations.
func Default() *Config {
	return &Config{
		Env:           "local",
		ListenAddress: ":8545",
		DataDir:       "./lottery-data",
		Storage:       Storage{Backend: "leveldb"},
		Lottery: Lottery{
			TicketPrice:  "20000000000000000000",
			FeeBps:       500,
			DrawCooldown: Duration{Duration: defaultDrawCooldown},
			MaxManagers:  2,
			Randomness:   RandomnessCrypto,
		},
		Token: Token{
			Symbol:         "LOT",
			FaucetLimit:    "1000000000000000000000",
			FaucetRequests: 10,
			FaucetEpoch:    Duration{Duration: defaultFaucetEpoch},
		},
		Auth: Auth{
			Issuer:      "potlottery",
			Audience:    "lottery-rpc",
			AllowedSkew: Duration{Duration: defaultAllowedSkew},
		},
		RateLimit: RateLimit{RequestsPerMinute: 120, Burst: 20},
		History:   History{Driver: "sqlite", DSN: "history.db"},
		Scheduler: Scheduler{Interval: Duration{Duration: defaultSchedulerInterval}},
		Log:       Log{MaxSizeMB: 100, MaxBackups: 5, MaxAgeDays: 28},
	}
}

func (c *Config) applyEnv() {
	if env := strings.TrimSpace(os.Getenv(EnvEnvironment)); env != "" {
		c.Env = env
	}
	if secret := os.Getenv(EnvAuthSecret); secret != "" {
		c.Auth.HMACSecret = secret
	}
}

func (c *Config) applyDefaults() {
	defaults := Default()
	if strings.TrimSpace(c.ListenAddress) == "" {
		c.ListenAddress = defaults.ListenAddress
	}
	if strings.TrimSpace(c.Storage.Backend) == "" {
		c.Storage.Backend = defaults.Storage.Backend
	}
	if strings.TrimSpace(c.Lottery.TicketPrice) == "" {
		c.Lottery.TicketPrice = defaults.Lottery.TicketPrice
	}
	if c.Lottery.DrawCooldown.Duration == 0 {
		c.Lottery.DrawCooldown = defaults.Lottery.DrawCooldown
	}
	if strings.TrimSpace(c.Lottery.Randomness) == "" {
		c.Lottery.Randomness = defaults.Lottery.Randomness
	}
	if strings.TrimSpace(c.Token.Symbol) == "" {
		c.Token.Symbol = defaults.Token.Symbol
	}
	if c.Token.FaucetEpoch.Duration == 0 {
		c.Token.FaucetEpoch = defaults.Token.FaucetEpoch
	}
	if c.RateLimit.RequestsPerMinute == 0 {
		c.RateLimit.RequestsPerMinute = defaults.RateLimit.RequestsPerMinute
	}
	if c.RateLimit.Burst == 0 {
		c.RateLimit.Burst = defaults.RateLimit.Burst
	}
	if c.Scheduler.Interval.Duration == 0 {
		c.Scheduler.Interval = defaults.Scheduler.Interval
	}
	if c.History.Driver == HistorySQLite && !filepath.IsAbs(c.History.DSN) && c.History.DSN != "" &&
		!strings.HasPrefix(c.History.DSN, "file:") && c.DataDir != "" {
		c.History.DSN = filepath.Join(c.DataDir, c.History.DSN)
	}
}

// createDefault creates and saves a default configuration file. The owner is
// left empty, so the daemon refuses to start until one is configured.
func createDefault(path string) (*Config, error) {
	cfg := Default()
	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("default config written to %s: %w", path, err)
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	if isYAML(path) {
		enc := yaml.NewEncoder(f)
		defer enc.Close()
		return enc.Encode(cfg)
	}
	return toml.NewEncoder(f).Encode(cfg)
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	default:
		return false
	}
}
