package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	APIPort         int
	PollInterval    time.Duration
	WalletDelay     time.Duration
	ErrorBackoff    time.Duration
	RPCTimeout      time.Duration
	ActivityLogSize int

	// EnabledChains restricts the chain registry; empty means every known chain.
	EnabledChains []string
	// RPCOverrides maps a chain key to an RPC URL taken from <KEY>_RPC_URL.
	RPCOverrides map[string]string

	TelegramBotToken    string
	TelegramChatID      int64
	TelegramAPIEndpoint string

	KafkaBroker string
	KafkaTopic  string
}

// NewConfig loads configuration from environment variables
func NewConfig() *Config {
	// Load .env file (ignore error if file doesn't exist)
	_ = godotenv.Load()

	return &Config{
		APIPort:             getEnvInt("API_PORT", 8080),
		PollInterval:        getEnvDuration("POLL_INTERVAL", 30*time.Second),
		WalletDelay:         getEnvDuration("WALLET_DELAY", 1*time.Second),
		ErrorBackoff:        getEnvDuration("ERROR_BACKOFF", 60*time.Second),
		RPCTimeout:          getEnvDuration("RPC_TIMEOUT", 10*time.Second),
		ActivityLogSize:     getEnvInt("ACTIVITY_LOG_SIZE", 100),
		EnabledChains:       getEnvList("ENABLED_CHAINS"),
		RPCOverrides:        rpcOverrides(os.Environ()),
		TelegramBotToken:    os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramChatID:      getEnvInt64("TELEGRAM_CHAT_ID", 0),
		TelegramAPIEndpoint: getEnvOrDefault("TELEGRAM_API_ENDPOINT", ""),
		KafkaBroker:         os.Getenv("KAFKA_BROKER"),
		KafkaTopic:          getEnvOrDefault("KAFKA_TOPIC", "wallet-activity"),
	}
}

// TelegramEnabled reports whether both the bot token and the target chat are set.
func (c *Config) TelegramEnabled() bool {
	return c.TelegramBotToken != "" && c.TelegramChatID != 0
}

func (c *Config) KafkaEnabled() bool {
	return c.KafkaBroker != ""
}

// rpcOverrides collects ETHEREUM_RPC_URL style variables into a chain key map.
func rpcOverrides(environ []string) map[string]string {
	overrides := make(map[string]string)
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || value == "" || !strings.HasSuffix(key, "_RPC_URL") {
			continue
		}
		chain := strings.ToLower(strings.TrimSuffix(key, "_RPC_URL"))
		if chain == "" {
			continue
		}
		overrides[chain] = value
	}
	return overrides
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}

	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.ToLower(strings.TrimSpace(item)); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go duration strings ("30s") or a plain number of seconds.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if parsed, err := time.ParseDuration(value); err == nil {
		return parsed
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}
	return defaultValue
}
