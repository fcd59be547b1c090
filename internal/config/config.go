// Package config loads service settings from the environment, a .env file
// and command-line flags.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"solana-alerts/internal/fees"
	"solana-alerts/internal/pricing"
	"solana-alerts/internal/solana"
)

// Defaults for optional settings.
const (
	DefaultListenAddr  = ":8080"
	DefaultKafkaTopic  = "solana-alerts"
	DefaultHTTPTimeout = 10 * time.Second
)

// ErrMissingSecret is reported when WEBHOOK_SECRET is not set.
var ErrMissingSecret = errors.New("WEBHOOK_SECRET is required")

// Config holds every setting of the service.
type Config struct {
	ListenAddr    string
	WebhookSecret string

	HeliusAPIKey      string
	HeliusBaseURL     string
	SolanaRPCEndpoint string // enables the on-chain metadata fallback

	CoinGeckoAPIKey  string
	CoinGeckoBaseURL string
	PriceIDs         map[string]string // symbol -> CoinGecko id
	PriceMinInterval time.Duration

	HTTPTimeout time.Duration
	FeeWallets  []string

	TelegramToken   string
	TelegramChatID  string
	TelegramBaseURL string

	KafkaBrokers []string
	KafkaTopic   string

	PostgresDSN   string
	ClickhouseDSN string
}

// Default returns a Config with built-in defaults only.
func Default() Config {
	return Config{
		ListenAddr:       DefaultListenAddr,
		PriceIDs:         pricing.DefaultSymbols(),
		PriceMinInterval: pricing.DefaultMinInterval,
		HTTPTimeout:      DefaultHTTPTimeout,
		FeeWallets:       fees.DefaultAddresses(),
		KafkaTopic:       DefaultKafkaTopic,
	}
}

// Load reads the process environment over Default.
func Load() (Config, error) {
	return FromEnv(os.Getenv)
}

// FromEnv reads settings through getenv. Empty values keep the default.
func FromEnv(getenv func(string) string) (Config, error) {
	c := Default()
	var errs []error

	str := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	dur := func(key string, dst *time.Duration) {
		v := strings.TrimSpace(getenv(key))
		if v == "" {
			return
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = d
	}

	str("LISTEN_ADDR", &c.ListenAddr)
	str("WEBHOOK_SECRET", &c.WebhookSecret)
	str("HELIUS_API_KEY", &c.HeliusAPIKey)
	str("HELIUS_BASE_URL", &c.HeliusBaseURL)
	str("SOLANA_RPC_ENDPOINT", &c.SolanaRPCEndpoint)
	str("COINGECKO_API_KEY", &c.CoinGeckoAPIKey)
	str("COINGECKO_BASE_URL", &c.CoinGeckoBaseURL)
	str("TELEGRAM_TOKEN", &c.TelegramToken)
	str("CHAT_ID", &c.TelegramChatID)
	str("TELEGRAM_BASE_URL", &c.TelegramBaseURL)
	str("KAFKA_TOPIC", &c.KafkaTopic)
	str("POSTGRES_DSN", &c.PostgresDSN)
	str("CLICKHOUSE_DSN", &c.ClickhouseDSN)
	dur("PRICE_MIN_INTERVAL", &c.PriceMinInterval)
	dur("HTTP_TIMEOUT", &c.HTTPTimeout)

	if v := getenv("FEE_WALLETS"); strings.TrimSpace(v) != "" {
		c.FeeWallets = SplitList(v)
	}
	if v := getenv("KAFKA_BROKERS"); strings.TrimSpace(v) != "" {
		c.KafkaBrokers = SplitList(v)
	}
	if v := getenv("PRICE_IDS"); strings.TrimSpace(v) != "" {
		ids, err := ParsePriceIDs(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("PRICE_IDS: %w", err))
		} else {
			c.PriceIDs = ids
		}
	}

	return c, errors.Join(errs...)
}

// Validate checks the settings needed to serve webhooks.
func (c Config) Validate() error {
	err := c.ValidateOffline()
	if c.WebhookSecret == "" {
		err = errors.Join(ErrMissingSecret, err)
	}
	return err
}

// ValidateOffline checks everything except the webhook secret, for tools
// that never accept inbound requests.
func (c Config) ValidateOffline() error {
	var errs []error
	for _, addr := range c.FeeWallets {
		if err := solana.ValidatePublicKey(addr); err != nil {
			errs = append(errs, fmt.Errorf("FEE_WALLETS: %w", err))
		}
	}
	if (c.TelegramToken == "") != (c.TelegramChatID == "") {
		errs = append(errs, errors.New("TELEGRAM_TOKEN and CHAT_ID must be set together"))
	}
	if len(c.KafkaBrokers) > 0 && c.KafkaTopic == "" {
		errs = append(errs, errors.New("KAFKA_TOPIC is required when KAFKA_BROKERS is set"))
	}
	if c.PriceMinInterval < 0 {
		errs = append(errs, errors.New("PRICE_MIN_INTERVAL must not be negative"))
	}
	if c.HTTPTimeout <= 0 {
		errs = append(errs, errors.New("HTTP_TIMEOUT must be positive"))
	}
	return errors.Join(errs...)
}

// TelegramEnabled reports whether the Telegram sink is configured.
func (c Config) TelegramEnabled() bool {
	return c.TelegramToken != "" && c.TelegramChatID != ""
}

// KafkaEnabled reports whether the Kafka sink is configured.
func (c Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// RegisterFlags binds every setting to fs, using the current values as
// defaults. Call after Load so flags override the environment.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.ListenAddr, "listen-addr", c.ListenAddr, "HTTP listen address")
	fs.StringVar(&c.WebhookSecret, "webhook-secret", c.WebhookSecret, "Shared bearer token expected on /webhook")
	fs.StringVar(&c.HeliusAPIKey, "helius-api-key", c.HeliusAPIKey, "Helius API key")
	fs.StringVar(&c.HeliusBaseURL, "helius-base-url", c.HeliusBaseURL, "Helius API base URL")
	fs.StringVar(&c.SolanaRPCEndpoint, "rpc-endpoint", c.SolanaRPCEndpoint, "Solana RPC HTTP endpoint for on-chain metadata fallback")
	fs.StringVar(&c.CoinGeckoAPIKey, "coingecko-api-key", c.CoinGeckoAPIKey, "CoinGecko demo API key")
	fs.StringVar(&c.CoinGeckoBaseURL, "coingecko-base-url", c.CoinGeckoBaseURL, "CoinGecko API base URL")
	fs.Var((*priceIDsValue)(&c.PriceIDs), "price-ids", "Comma-separated symbol:coingecko-id pairs")
	fs.DurationVar(&c.PriceMinInterval, "price-min-interval", c.PriceMinInterval, "Minimum spacing between price requests")
	fs.DurationVar(&c.HTTPTimeout, "http-timeout", c.HTTPTimeout, "Timeout for outbound HTTP calls")
	fs.Var((*listValue)(&c.FeeWallets), "fee-wallets", "Comma-separated fee collector addresses")
	fs.StringVar(&c.TelegramToken, "telegram-token", c.TelegramToken, "Telegram bot token")
	fs.StringVar(&c.TelegramChatID, "chat-id", c.TelegramChatID, "Telegram chat id")
	fs.StringVar(&c.TelegramBaseURL, "telegram-base-url", c.TelegramBaseURL, "Telegram Bot API base URL")
	fs.Var((*listValue)(&c.KafkaBrokers), "kafka-brokers", "Comma-separated Kafka brokers")
	fs.StringVar(&c.KafkaTopic, "kafka-topic", c.KafkaTopic, "Kafka topic for alert envelopes")
	fs.StringVar(&c.PostgresDSN, "postgres-dsn", c.PostgresDSN, "PostgreSQL connection string for the metadata store")
	fs.StringVar(&c.ClickhouseDSN, "clickhouse-dsn", c.ClickhouseDSN, "ClickHouse connection string for the price quote log")
}

// SplitList splits a comma-separated list, dropping blanks.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ParsePriceIDs parses "sol:solana,bonk:bonk". Symbols are lower-cased.
func ParsePriceIDs(s string) (map[string]string, error) {
	out := make(map[string]string)
	for _, pair := range SplitList(s) {
		sym, id, ok := strings.Cut(pair, ":")
		sym = strings.ToLower(strings.TrimSpace(sym))
		id = strings.TrimSpace(id)
		if !ok || sym == "" || id == "" {
			return nil, fmt.Errorf("invalid pair %q, want symbol:id", pair)
		}
		out[sym] = id
	}
	if len(out) == 0 {
		return nil, errors.New("no pairs")
	}
	return out, nil
}

type listValue []string

func (v *listValue) String() string {
	if v == nil {
		return ""
	}
	return strings.Join(*v, ",")
}

func (v *listValue) Set(s string) error {
	*v = SplitList(s)
	return nil
}

type priceIDsValue map[string]string

func (v *priceIDsValue) String() string {
	if v == nil || *v == nil {
		return ""
	}
	pairs := make([]string, 0, len(*v))
	for sym, id := range *v {
		pairs = append(pairs, sym+":"+id)
	}
	sort.Strings(pairs)
	return strings.Join(pairs, ",")
}

func (v *priceIDsValue) Set(s string) error {
	ids, err := ParsePriceIDs(s)
	if err != nil {
		return err
	}
	*v = ids
	return nil
}
