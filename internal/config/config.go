package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"eventhub/internal/cache"
	"eventhub/internal/database"
	"eventhub/internal/mail"
	"eventhub/internal/messaging"
	"eventhub/internal/notify"
	"eventhub/internal/ticketpdf"
)

// Config holds the application configuration
type Config struct {
	Port           string
	GinMode        string
	LogLevel       string
	LogFormat      string
	RequestTimeout time.Duration

	// Storage selects "postgres" or "memory"
	Storage string
	// Broker selects "nats" or "memory"
	Broker string

	Database      database.Config
	NATS          messaging.Config
	Valkey        cache.Config
	Elasticsearch ElasticsearchConfig
	Mail          mail.Config
	Notify        notify.Config
	Tickets       TicketsConfig
	Auth          AuthConfig
}

// TicketsConfig controls ticket documents and check-in
type TicketsConfig struct {
	PDF            ticketpdf.Options
	SingleUseEntry bool
}

type AuthConfig struct {
	JWTSecret string
}

// Load reads the configuration from environment variables
func Load() *Config {
	location := getEnvLocation("EVENT_TIMEZONE", time.UTC)
	currency := ticketpdf.Currency{
		Symbol: getEnv("CURRENCY_SYMBOL", ticketpdf.DefaultCurrency.Symbol),
		Code:   getEnv("CURRENCY_CODE", ticketpdf.DefaultCurrency.Code),
	}
	brand := getEnv("BRAND_NAME", "EventHub")

	pdf := ticketpdf.DefaultOptions()
	pdf.BrandName = brand
	pdf.PlatformName = brand
	pdf.Currency = currency
	pdf.Location = location
	pdf.UTF8FontRegular = os.Getenv("PDF_FONT_REGULAR")
	pdf.UTF8FontBold = os.Getenv("PDF_FONT_BOLD")

	deliveries := notify.DefaultConfig()
	deliveries.From = getEnv("MAIL_FROM", deliveries.From)
	deliveries.BrandName = brand
	deliveries.SupportEmail = getEnv("SUPPORT_EMAIL", deliveries.SupportEmail)
	deliveries.MaxAttempts = getEnvInt("EMAIL_MAX_ATTEMPTS", deliveries.MaxAttempts)
	deliveries.BaseDelay = getEnvDuration("EMAIL_RETRY_BASE_DELAY", deliveries.BaseDelay)
	deliveries.InterMessageDelay = getEnvDuration("EMAIL_INTER_MESSAGE_DELAY", deliveries.InterMessageDelay)
	deliveries.Location = location
	deliveries.Currency = currency

	mailTimeout := getEnvDuration("MAIL_TIMEOUT", 15*time.Second)
	// AckWait must cover the fan-out of the largest booking, otherwise
	// NATS hands the message to another consumer mid-send
	recipients := getEnvInt("MAX_RECIPIENTS_PER_BOOKING", 10)
	ackWait := getEnvDuration("NATS_ACK_WAIT", FanoutAckWait(deliveries, mailTimeout, recipients))

	return &Config{
		Port:           getEnv("PORT", "8081"),
		GinMode:        getEnv("GIN_MODE", "debug"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "json"),
		RequestTimeout: time.Duration(getEnvInt("REQUEST_TIMEOUT_SEC", 30)) * time.Second,

		Storage: strings.ToLower(getEnv("STORAGE", "postgres")),
		Broker:  strings.ToLower(getEnv("BROKER", "nats")),

		Database: database.Config{
			Host:               getEnv("DB_HOST", "localhost"),
			Port:               getEnvInt("DB_PORT", 5432),
			User:               getEnv("DB_USER", "eventhub"),
			Password:           getEnv("DB_PASSWORD", "eventhub"),
			DBName:             getEnv("DB_NAME", "eventhub"),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 50),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 10),
			ConnMaxLifetimeMin: getEnvInt("DB_CONN_MAX_LIFETIME_MIN", 5),
			ConnMaxIdleTimeMin: getEnvInt("DB_CONN_MAX_IDLE_TIME_MIN", 1),
		},

		NATS: messaging.Config{
			URL:       getEnv("NATS_URL", "nats://localhost:4222"),
			ClusterID: getEnv("NATS_CLUSTER_ID", "eventhub"),
			ClientID:  getEnv("NATS_CLIENT_ID", "eventhub-api"),
			AckWait:   ackWait,
		},

		Valkey: cache.Config{
			Addr:      getEnv("VALKEY_ADDR", ""),
			Password:  os.Getenv("VALKEY_PASSWORD"),
			DB:        getEnvInt("VALKEY_DB", 0),
			KeyPrefix: getEnv("VALKEY_KEY_PREFIX", "eventhub:delivery:"),
			TTL:       getEnvDuration("DELIVERY_LEDGER_TTL", 7*24*time.Hour),
		},

		Elasticsearch: LoadElasticsearchConfig(),

		Mail: mail.Config{
			APIKey:   os.Getenv("RESEND_API_KEY"),
			Endpoint: getEnv("RESEND_ENDPOINT", mail.DefaultEndpoint),
			Timeout:  mailTimeout,
		},

		Notify: deliveries,

		Tickets: TicketsConfig{
			PDF:            pdf,
			SingleUseEntry: getEnvBool("TICKET_SINGLE_USE", false),
		},

		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
		},
	}
}

// minAckWait is the floor for the derived NATS AckWait
const minAckWait = 2 * time.Minute

// FanoutAckWait returns the AckWait needed for a booking.confirmed fan-out
// to recipients addresses, each allowed its full retry budget
func FanoutAckWait(deliveries notify.Config, mailTimeout time.Duration, recipients int) time.Duration {
	if recipients < 1 {
		recipients = 1
	}
	wait := time.Duration(recipients) * deliveries.RecipientBudget(mailTimeout)
	if wait < minAckWait {
		return minAckWait
	}
	return wait
}

// getEnv returns the variable or defaultValue when unset
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go durations ("750ms", "2s")
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvLocation(key string, defaultValue *time.Location) *time.Location {
	if value := os.Getenv(key); value != "" {
		if loc, err := time.LoadLocation(value); err == nil {
			return loc
		}
	}
	return defaultValue
}
