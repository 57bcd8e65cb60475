package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env         string
	Port        string
	AppURL      string
	LogLevel    string
	CORSOrigins []string

	DatabaseURL string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBSSLMode   string

	JWTSecret          string
	ClerkWebhookSecret string
	AdminAPIKey        string

	// Payment gateway: cashfree | razorpay | stub
	PaymentGateway string

	CashfreeAppID         string
	CashfreeSecretKey     string
	CashfreeEnv           string
	CashfreeWebhookSecret string

	RazorpayKeyID         string
	RazorpayKeySecret     string
	RazorpayWebhookSecret string

	StubWebhookSecret string

	SMTPHost  string
	SMTPPort  int
	SMTPUser  string
	SMTPPass  string
	EmailFrom string

	// Event bus: kafka | nats | none
	EventBus          string
	KafkaBrokers      string
	KafkaEmailTopic   string
	KafkaPaymentTopic string
	KafkaDLQTopic     string
	KafkaGroupID      string
	NatsURL           string
	NatsToken         string

	TelegramBotToken string
	TelegramChatIDs  []int64

	RateLimitPerMinute int
	DLQRetryInterval   time.Duration
	DLQMaxRetries      int
}

var AppConfig Config

func LoadConfig() {
	// Try loading .env from different locations
	envLocations := []string{
		".env",              // project root
		"config/.env",       // config subdirectory
		"../config/.env",    // one level up
		"../../config/.env", // two levels up
	}

	envLoaded := false
	for _, location := range envLocations {
		if err := godotenv.Load(location); err == nil {
			envLoaded = true
			break
		}
	}

	if !envLoaded {
		log.Println("No .env file found, using environment variables")
	}

	AppConfig = Config{
		Env:         getEnvWithDefault("APP_ENV", "development"),
		Port:        getEnvWithDefault("PORT", "8080"),
		AppURL:      strings.TrimRight(getEnvWithDefault("APP_URL", "http://localhost:3000"), "/"),
		LogLevel:    getEnvWithDefault("LOG_LEVEL", "info"),
		CORSOrigins: splitList(getEnvWithDefault("CORS_ORIGINS", "http://localhost:3000")),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		DBHost:      getEnvWithDefault("DB_HOST", "localhost"),
		DBPort:      getEnvWithDefault("DB_PORT", "5432"),
		DBUser:      getEnvWithDefault("DB_USER", "postgres"),
		DBPassword:  os.Getenv("DB_PASSWORD"),
		DBName:      getEnvWithDefault("DB_NAME", "hackathonwallah"),
		DBSSLMode:   getEnvWithDefault("DB_SSLMODE", "disable"),

		JWTSecret:          os.Getenv("JWT_SECRET"),
		ClerkWebhookSecret: os.Getenv("CLERK_WEBHOOK_SECRET"),
		AdminAPIKey:        os.Getenv("ADMIN_API_KEY"),

		PaymentGateway: strings.ToLower(getEnvWithDefault("PAYMENT_GATEWAY", "cashfree")),

		CashfreeAppID:     os.Getenv("CASHFREE_APP_ID"),
		CashfreeSecretKey: os.Getenv("CASHFREE_SECRET_KEY"),
		CashfreeEnv:       getEnvWithDefault("CASHFREE_ENV", "sandbox"),
		// Cashfree signs webhooks with the API secret unless a dedicated one is set
		CashfreeWebhookSecret: getEnvWithDefault("CASHFREE_WEBHOOK_SECRET", os.Getenv("CASHFREE_SECRET_KEY")),

		RazorpayKeyID:         os.Getenv("RAZORPAY_KEY_ID"),
		RazorpayKeySecret:     os.Getenv("RAZORPAY_KEY_SECRET"),
		RazorpayWebhookSecret: os.Getenv("RAZORPAY_WEBHOOK_SECRET"),

		StubWebhookSecret: getEnvWithDefault("STUB_WEBHOOK_SECRET", "stub-secret"),

		SMTPHost:  getEnvWithDefault("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:  getIntWithDefault("SMTP_PORT", 587),
		SMTPUser:  os.Getenv("SMTP_USER"),
		SMTPPass:  os.Getenv("SMTP_PASS"),
		EmailFrom: os.Getenv("EMAIL_FROM"),

		EventBus:          strings.ToLower(getEnvWithDefault("EVENT_BUS", "none")),
		KafkaBrokers:      getEnvWithDefault("KAFKA_BROKERS", "127.0.0.1:9092"),
		KafkaEmailTopic:   getEnvWithDefault("KAFKA_EMAIL_TOPIC", "emails"),
		KafkaPaymentTopic: getEnvWithDefault("KAFKA_PAYMENT_TOPIC", "payments"),
		KafkaDLQTopic:     getEnvWithDefault("KAFKA_DLQ_TOPIC", "dlq"),
		KafkaGroupID:      getEnvWithDefault("KAFKA_GROUP_ID", "hackathonwallah-consumer-group"),
		NatsURL:           getEnvWithDefault("NATS_URL", "nats://localhost:4222"),
		NatsToken:         os.Getenv("NATS_TOKEN"),

		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramChatIDs:  parseChatIDs(os.Getenv("TELEGRAM_CHAT_IDS")),

		RateLimitPerMinute: getIntWithDefault("RATE_LIMIT_PER_MINUTE", 60),
		DLQRetryInterval:   getDurationWithDefault("DLQ_RETRY_INTERVAL", time.Minute),
		DLQMaxRetries:      getIntWithDefault("DLQ_MAX_RETRIES", 5),
	}
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if v, err := strconv.Atoi(value); err == nil {
			return v
		}
		log.Printf("Invalid integer for %s=%q, using %d", key, value, defaultValue)
	}
	return defaultValue
}

func getDurationWithDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if v, err := time.ParseDuration(value); err == nil {
			return v
		}
		log.Printf("Invalid duration for %s=%q, using %s", key, value, defaultValue)
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseChatIDs(value string) []int64 {
	var ids []int64
	for _, part := range splitList(value) {
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			log.Printf("Invalid telegram chat id %q: %v", part, err)
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// KafkaBrokerList returns the configured brokers with blanks removed.
func (c Config) KafkaBrokerList() []string {
	return splitList(c.KafkaBrokers)
}

func GetDBConnString() string {
	if AppConfig.DatabaseURL != "" {
		return AppConfig.DatabaseURL
	}
	return "host=" + AppConfig.DBHost +
		" port=" + AppConfig.DBPort +
		" user=" + AppConfig.DBUser +
		" password=" + AppConfig.DBPassword +
		" dbname=" + AppConfig.DBName +
		" sslmode=" + AppConfig.DBSSLMode
}
