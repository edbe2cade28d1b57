package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// BaseConfig holds base configuration
type BaseConfig struct {
	Debug     bool   `mapstructure:"debug"`
	SentryDSN string `mapstructure:"sentry_dsn"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

// DSN returns the postgres connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// NATSConfig holds NATS configuration for deposit notifications
type NATSConfig struct {
	URL            string        `mapstructure:"url"`
	Subject        string        `mapstructure:"subject"`
	MaxReconnects  int           `mapstructure:"max_reconnects"`
	ReconnectWait  time.Duration `mapstructure:"reconnect_wait"`
	ConnectionName string        `mapstructure:"connection_name"`
}

// TokenConfig describes one token asset configured on a chain
type TokenConfig struct {
	Symbol   string `mapstructure:"symbol"`
	Contract string `mapstructure:"contract"`
	Decimals uint8  `mapstructure:"decimals"`
}

// EthereumConfig holds EVM chain configuration. The master mnemonic arrives
// only through the environment, never from the config file.
type EthereumConfig struct {
	Mnemonic string        `mapstructure:"mnemonic"`
	RPCURL   string        `mapstructure:"rpc_url"`
	ChainID  int64         `mapstructure:"chain_id"`
	Tokens   []TokenConfig `mapstructure:"tokens"`
	// ExplorerURL points at an etherscan-compatible API for deposit history
	ExplorerURL    string `mapstructure:"explorer_url"`
	ExplorerAPIKey string `mapstructure:"explorer_api_key"`
	// TokenGasLimit caps a single ERC-20 transfer
	TokenGasLimit uint64 `mapstructure:"token_gas_limit"`
	// TopUpWei is the native amount forwarded to a child that cannot cover
	// token-transfer gas; stringified wei
	TopUpWei string `mapstructure:"top_up_wei"`
}

// TronConfig holds TRON chain configuration
type TronConfig struct {
	Mnemonic string `mapstructure:"mnemonic"`
	GRPCAddr string `mapstructure:"grpc_addr"`
	// HTTPURL points at a trongrid-compatible API for deposit history
	HTTPURL string        `mapstructure:"http_url"`
	APIKey  string        `mapstructure:"api_key"`
	Tokens  []TokenConfig `mapstructure:"tokens"`
	// FeeLimit bounds TRC-20 energy spend, in sun
	FeeLimit int64 `mapstructure:"fee_limit"`
	// TopUpSun is the TRX top-up for children that cannot cover fees
	TopUpSun int64 `mapstructure:"top_up_sun"`
}

// UTXOConfig holds Bitcoin-family chain configuration
type UTXOConfig struct {
	Mnemonic string `mapstructure:"mnemonic"`
	// GatewayURL points at an esplora-style explorer API
	GatewayURL string `mapstructure:"gateway_url"`
	// FallbackFeeRate is used when the gateway fee estimate is unavailable,
	// in sat/vB
	FallbackFeeRate int64 `mapstructure:"fallback_fee_rate"`
	// DustLimit is the minimum economical sweep output, in base units
	DustLimit int64 `mapstructure:"dust_limit"`
}

// CardanoConfig holds Cardano chain configuration
type CardanoConfig struct {
	Mnemonic  string `mapstructure:"mnemonic"`
	ProjectID string `mapstructure:"project_id"` // blockfrost project
	Testnet   bool   `mapstructure:"testnet"`
	// TTLOffsetSlots bounds how long a built transaction stays valid
	TTLOffsetSlots uint64 `mapstructure:"ttl_offset_slots"`
}

// SolanaConfig holds Solana chain configuration
type SolanaConfig struct {
	Mnemonic string        `mapstructure:"mnemonic"`
	RPCURL   string        `mapstructure:"rpc_url"`
	Tokens   []TokenConfig `mapstructure:"tokens"`
	// TopUpLamports funds a child that cannot cover transaction fees
	TopUpLamports uint64 `mapstructure:"top_up_lamports"`
}

// XRPConfig holds XRP Ledger chain configuration
type XRPConfig struct {
	Mnemonic string `mapstructure:"mnemonic"`
	WSURL    string `mapstructure:"ws_url"`
	// ReserveDrops is the base reserve an account must retain
	ReserveDrops int64 `mapstructure:"reserve_drops"`
	// MarginDrops is kept above the reserve to absorb fee drift
	MarginDrops int64 `mapstructure:"margin_drops"`
	// SharedAddress switches deposits to a single master address with
	// destination tags instead of per-user addresses
	SharedAddress bool `mapstructure:"shared_address"`
}

// ChainsConfig groups per-chain configuration
type ChainsConfig struct {
	// RPCTimeout is the hard timeout applied to every chain RPC call
	RPCTimeout time.Duration  `mapstructure:"rpc_timeout"`
	Ethereum   EthereumConfig `mapstructure:"ethereum"`
	Tron       TronConfig     `mapstructure:"tron"`
	Bitcoin    UTXOConfig     `mapstructure:"bitcoin"`
	Dogecoin   UTXOConfig     `mapstructure:"dogecoin"`
	Cardano    CardanoConfig  `mapstructure:"cardano"`
	Solana     SolanaConfig   `mapstructure:"solana"`
	XRP        XRPConfig      `mapstructure:"xrp"`
}

// OracleConfig holds exchange-rate oracle configuration
type OracleConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
	// LocalCurrency is the fiat currency credits are denominated in
	LocalCurrency string `mapstructure:"local_currency"`
}

// JobsConfig holds scheduler configuration
type JobsConfig struct {
	SweepSchedule     string `mapstructure:"sweep_schedule"`
	ReconcileSchedule string `mapstructure:"reconcile_schedule"`
	VerifySchedule    string `mapstructure:"verify_schedule"`
	// ReconcileWindow is the incoming-history lookback per chain call
	ReconcileWindow int `mapstructure:"reconcile_window"`
}

// WorkerConfig holds worker pool configuration
type WorkerConfig struct {
	PoolSize  int `mapstructure:"pool_size"`
	QueueSize int `mapstructure:"queue_size"`
}

// EngineConfig holds configuration for the engine binary
type EngineConfig struct {
	BaseConfig `mapstructure:",squash"`
	Database   DatabaseConfig `mapstructure:"database"`
	NATS       NATSConfig     `mapstructure:"nats"`
	Chains     ChainsConfig   `mapstructure:"chains"`
	Oracle     OracleConfig   `mapstructure:"oracle"`
	Jobs       JobsConfig     `mapstructure:"jobs"`
	Worker     WorkerConfig   `mapstructure:"worker"`
}

// LoadEngineConfig loads configuration for cmd/engine
func LoadEngineConfig(configFile string, envPath string) (*EngineConfig, error) {
	v := configureViper("engine", configFile, envPath)

	// Set defaults
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("nats.subject", "wallet.deposits")
	v.SetDefault("nats.max_reconnects", 10)
	v.SetDefault("nats.reconnect_wait", "2s")
	v.SetDefault("chains.rpc_timeout", "30s")
	v.SetDefault("chains.ethereum.token_gas_limit", 65000)
	v.SetDefault("chains.ethereum.top_up_wei", "2000000000000000") // 0.002 ETH
	v.SetDefault("chains.tron.fee_limit", 40_000_000)
	v.SetDefault("chains.tron.top_up_sun", 30_000_000)
	v.SetDefault("chains.bitcoin.fallback_fee_rate", 10)
	v.SetDefault("chains.bitcoin.dust_limit", 546)
	v.SetDefault("chains.dogecoin.fallback_fee_rate", 1000)
	v.SetDefault("chains.dogecoin.dust_limit", 100_000_000) // 1 DOGE
	v.SetDefault("chains.cardano.ttl_offset_slots", 1200)
	v.SetDefault("chains.solana.top_up_lamports", 2_000_000)
	v.SetDefault("chains.xrp.reserve_drops", 10_000_000)
	v.SetDefault("chains.xrp.margin_drops", 1_000_000)
	v.SetDefault("oracle.timeout", "10s")
	v.SetDefault("oracle.local_currency", "USD")
	v.SetDefault("jobs.sweep_schedule", "@every 15m")
	v.SetDefault("jobs.reconcile_schedule", "@every 5m")
	v.SetDefault("jobs.verify_schedule", "@every 2m")
	v.SetDefault("jobs.reconcile_window", 10)
	v.SetDefault("worker.pool_size", 8)
	v.SetDefault("worker.queue_size", 1024)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config EngineConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

// configureViper returns a viper instance with the config file and environment variables set
func configureViper(service string, configFile string, envPath string) *viper.Viper {
	v := viper.New()

	loadEnv(envPath, service)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(fmt.Sprintf("cmd/%s/", service))
		v.AddConfigPath("config/")
	}

	v.SetEnvPrefix("CUSTODY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindAllEnvVars(v)
	return v
}

// loadEnv loads .env files; later files override earlier ones
func loadEnv(envPath string, service string) {
	envFiles := []string{".env", ".env.local"}
	if service != "" {
		envFiles = append(envFiles, ".env."+service+".local")
	}

	if envPath == "" {
		envPath = "config/"
	}

	for _, envFile := range envFiles {
		candidate := filepath.Join(envPath, envFile)
		_ = godotenv.Overload(candidate)
	}
}

// bindAllEnvVars explicitly binds keys so env-only values (mnemonics, API
// keys) resolve even when absent from the config file
func bindAllEnvVars(v *viper.Viper) {
	keys := []string{
		"debug",
		"sentry_dsn",
		// Database
		"database.host",
		"database.port",
		"database.user",
		"database.password",
		"database.dbname",
		"database.sslmode",
		"database.max_open_conns",
		"database.max_idle_conns",
		"database.conn_max_lifetime",
		"database.conn_max_idle_time",
		// NATS
		"nats.url",
		"nats.subject",
		"nats.connection_name",
		// Chains: mnemonics and endpoints are environment-sourced
		"chains.rpc_timeout",
		"chains.ethereum.mnemonic",
		"chains.ethereum.rpc_url",
		"chains.ethereum.chain_id",
		"chains.tron.mnemonic",
		"chains.tron.grpc_addr",
		"chains.tron.api_key",
		"chains.bitcoin.mnemonic",
		"chains.bitcoin.gateway_url",
		"chains.dogecoin.mnemonic",
		"chains.dogecoin.gateway_url",
		"chains.cardano.mnemonic",
		"chains.cardano.project_id",
		"chains.solana.mnemonic",
		"chains.solana.rpc_url",
		"chains.xrp.mnemonic",
		"chains.xrp.ws_url",
		// Oracle
		"oracle.base_url",
		"oracle.api_key",
		"oracle.local_currency",
	}

	for _, key := range keys {
		_ = v.BindEnv(key)
	}
}

// ChdirRepoRoot walks up until a config directory is found so relative paths
// resolve the same from any binary
func ChdirRepoRoot() {
	cwd, _ := os.Getwd()
	for range 5 {
		if _, err := os.Stat(filepath.Join(cwd, "config")); err == nil {
			_ = os.Chdir(cwd)
			return
		}
		cwd = filepath.Dir(cwd)
	}
}
