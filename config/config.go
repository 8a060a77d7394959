package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Crypto   CryptoConfig   `mapstructure:"crypto"`
	Worker   WorkerConfig   `mapstructure:"worker"`
	Log      LogConfig      `mapstructure:"log"`
	Coins    []CoinConfig   `mapstructure:"coins"`
}

type ServerConfig struct {
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	Mode       string `mapstructure:"mode"`        // debug, release, test
	WebhookURL string `mapstructure:"webhook_url"` // public base URL registered with providers
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns the Redis address string.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// CryptoConfig carries key material for credential sealing and HD derivation.
type CryptoConfig struct {
	HDSeed string `mapstructure:"hd_seed"` // hex-encoded master seed for HD wallets
}

// WorkerConfig tunes the job pool and the reconciliation engine.
type WorkerConfig struct {
	Count           int           `mapstructure:"count"`            // concurrent queue consumers
	MaxAttempts     int           `mapstructure:"max_attempts"`     // per-job retry budget
	RetryBackoff    time.Duration `mapstructure:"retry_backoff"`    // base delay between retries
	LockTTL         time.Duration `mapstructure:"lock_ttl"`         // record lease duration
	OverdueInterval time.Duration `mapstructure:"overdue_interval"` // expiry scan period
	AdapterTimeout  time.Duration `mapstructure:"adapter_timeout"`  // bound on blocking adapter calls
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Pretty bool   `mapstructure:"pretty"` // human-readable output (dev only)
}

// CoinConfig describes one configured currency and its backend binding.
type CoinConfig struct {
	Identifier        string        `mapstructure:"identifier"`
	Name              string        `mapstructure:"name"`
	BaseUnit          string        `mapstructure:"base_unit"`
	Precision         int32         `mapstructure:"precision"`
	CurrencyPrecision int32         `mapstructure:"currency_precision"`
	Symbol            string        `mapstructure:"symbol"`
	SymbolFirst       bool          `mapstructure:"symbol_first"`
	Color             string        `mapstructure:"color"`
	Icon              string        `mapstructure:"icon"`
	Backend           string        `mapstructure:"backend"` // evm, simnet
	Node              string        `mapstructure:"node"`    // backend node URL
	NodeSecret        string        `mapstructure:"node_secret"`
	ContractAddress   string        `mapstructure:"contract_address"` // token-on-chain assets only
	NativeCoin        string        `mapstructure:"native_coin"`      // coin paying gas for token assets
	GasPriceWei       uint64        `mapstructure:"gas_price_wei"`
	PriceAssetID      string        `mapstructure:"price_asset_id"` // market data source asset id
	DollarPrice       string        `mapstructure:"dollar_price"`   // static price for simnet coins
	MinConfirmations  int64         `mapstructure:"min_confirmations"`
	MinTransferable   string        `mapstructure:"min_transferable"`
	MaxTransferable   string        `mapstructure:"max_transferable"`
	DepositExpiry     time.Duration `mapstructure:"deposit_expiry"`
}

// Load reads configuration from file and environment variables.
// Environment variables override file values. Prefix: WBG_ (WalletBridge Gateway).
// Nested keys use underscore: WBG_DATABASE_HOST, WBG_REDIS_PORT, etc.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.webhook_url", "http://localhost:8080")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "walletbridge")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("crypto.hd_seed", "")
	v.SetDefault("worker.count", 8)
	v.SetDefault("worker.max_attempts", 5)
	v.SetDefault("worker.retry_backoff", "3s")
	v.SetDefault("worker.lock_ttl", "30s")
	v.SetDefault("worker.overdue_interval", "1m")
	v.SetDefault("worker.adapter_timeout", "15s")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	// File config
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables: WBG_DATABASE_HOST -> database.host
	v.SetEnvPrefix("WBG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (not required, env vars can suffice)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}
