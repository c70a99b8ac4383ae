package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

type RPCConfig struct {
	Host    string   `yaml:"host"`
	Timeout Duration `yaml:"timeout"`
}

type ChainConfig struct {
	RPC     *RPCConfig `yaml:"rpc"`
	ChainID string     `yaml:"chain_id"`
}

type TokenConfig struct {
	Address  string         `yaml:"address"`
	Addr     common.Address `yaml:"-"`
	Decimals int32          `yaml:"decimals"`
}

type RelayConfig struct {
	SourceChain        string          `yaml:"source_chain"`
	DestinationChain   string          `yaml:"destination_chain"`
	Source             *ChainConfig    `yaml:"-"`
	Destination        *ChainConfig    `yaml:"-"`
	SourceToken        *TokenConfig    `yaml:"source_token"`
	DestinationToken   *TokenConfig    `yaml:"destination_token"`
	RelayAddress       string          `yaml:"relay_address"`
	RelayAddr          common.Address  `yaml:"-"`
	FundingAccountKey  string          `yaml:"funding_account_key"`
	FeePercent         string          `yaml:"fee_percent"`
	Fee                decimal.Decimal `yaml:"-"`
	GenesisBlock       uint            `yaml:"genesis_block"`
	BackfillInterval   Duration        `yaml:"backfill_interval"`
	ConfirmationPoll   Duration        `yaml:"confirmation_poll_interval"`
	ConfirmationWait   Duration        `yaml:"confirmation_timeout"`
	DisbursementGasCap uint64          `yaml:"disbursement_gas_limit"`
}

type OracleConfig struct {
	URL      string   `yaml:"url"`
	AssetID  string   `yaml:"asset_id"`
	Currency string   `yaml:"currency"`
	Timeout  Duration `yaml:"timeout"`
}

type DBConfig struct {
	Host          string `yaml:"host"`
	Port          uint16 `yaml:"port"`
	DB            string `yaml:"database"`
	User          string `yaml:"user"`
	Password      string `yaml:"password"`
	MigrationsDir string `yaml:"migrations_dir"`
}

type PresenterConfig struct {
	Host      string `yaml:"host"`
	AuthToken string `yaml:"auth_token"`
}

type MetricsConfig struct {
	Host string `yaml:"host"`
}

type Config struct {
	Chains    map[string]*ChainConfig `yaml:"chains"`
	Relay     *RelayConfig            `yaml:"relay"`
	Oracle    *OracleConfig           `yaml:"oracle"`
	DBConfig  *DBConfig               `yaml:"postgres"`
	Presenter *PresenterConfig        `yaml:"presenter"`
	Metrics   *MetricsConfig          `yaml:"metrics"`
	LogLevel  string                  `yaml:"log_level"`
}

const (
	defaultBackfillInterval = Duration(time.Minute)
	defaultConfirmationPoll = Duration(5 * time.Second)
	defaultConfirmationWait = Duration(2 * time.Minute)
	defaultDisbursementGas  = 100_000
)

func (t *TokenConfig) init(name string) error {
	if t == nil {
		return fmt.Errorf("missing %s section", name)
	}
	if !common.IsHexAddress(t.Address) {
		return fmt.Errorf("invalid %s address %q", name, t.Address)
	}
	t.Addr = common.HexToAddress(t.Address)
	return nil
}

func (cfg *Config) init() error {
	if cfg.Relay == nil {
		return fmt.Errorf("missing relay section")
	}
	if cfg.Oracle == nil || cfg.Oracle.URL == "" {
		return fmt.Errorf("missing oracle url")
	}
	if cfg.Oracle.AssetID == "" || cfg.Oracle.Currency == "" {
		return fmt.Errorf("missing oracle asset_id or currency")
	}
	if cfg.Oracle.Timeout == 0 {
		cfg.Oracle.Timeout = Duration(10 * time.Second)
	}
	if cfg.DBConfig == nil {
		return fmt.Errorf("missing postgres section")
	}
	if cfg.Metrics == nil {
		cfg.Metrics = &MetricsConfig{}
	}
	if cfg.Metrics.Host == "" {
		cfg.Metrics.Host = ":2112"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	r := cfg.Relay
	var ok bool
	if r.Source, ok = cfg.Chains[r.SourceChain]; !ok {
		return fmt.Errorf("unknown source chain %q", r.SourceChain)
	}
	if r.Destination, ok = cfg.Chains[r.DestinationChain]; !ok {
		return fmt.Errorf("unknown destination chain %q", r.DestinationChain)
	}
	if err := r.SourceToken.init("source_token"); err != nil {
		return err
	}
	if err := r.DestinationToken.init("destination_token"); err != nil {
		return err
	}
	if !common.IsHexAddress(r.RelayAddress) {
		return fmt.Errorf("invalid relay_address %q", r.RelayAddress)
	}
	r.RelayAddr = common.HexToAddress(r.RelayAddress)
	if r.RelayAddr == (common.Address{}) {
		return fmt.Errorf("missing relay_address")
	}
	if r.FundingAccountKey == "" {
		return fmt.Errorf("missing funding_account_key")
	}
	var err error
	if r.Fee, err = decimal.NewFromString(r.FeePercent); err != nil {
		return fmt.Errorf("invalid fee_percent %q: %w", r.FeePercent, err)
	}
	if r.Fee.IsNegative() || r.Fee.GreaterThanOrEqual(decimal.NewFromInt(100)) {
		return fmt.Errorf("fee_percent must be in [0, 100), got %s", r.Fee)
	}
	if r.BackfillInterval == 0 {
		r.BackfillInterval = defaultBackfillInterval
	}
	if r.ConfirmationPoll == 0 {
		r.ConfirmationPoll = defaultConfirmationPoll
	}
	if r.ConfirmationWait == 0 {
		r.ConfirmationWait = defaultConfirmationWait
	}
	if r.DisbursementGasCap == 0 {
		r.DisbursementGasCap = defaultDisbursementGas
	}
	if cfg.DBConfig.MigrationsDir == "" {
		cfg.DBConfig.MigrationsDir = "db/migrations"
	}
	return nil
}

func ReadConfig(blob []byte) (*Config, error) {
	cfg := new(Config)
	blob = []byte(os.ExpandEnv(string(blob)))
	if err := parseYaml(cfg, blob); err != nil {
		return nil, err
	}
	if err := cfg.init(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func ReadConfigFromFile(path string) (*Config, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("can't read config file: %w", err)
	}
	return ReadConfig(blob)
}
