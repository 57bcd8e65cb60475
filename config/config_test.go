package config

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("PAYMENT_GATEWAY", "Razorpay")
	t.Setenv("APP_URL", "https://hackathonwallah.com/")
	t.Setenv("TELEGRAM_CHAT_IDS", "101, abc ,202")
	t.Setenv("DLQ_RETRY_INTERVAL", "30s")
	t.Setenv("SMTP_PORT", "not-a-number")
	t.Setenv("DATABASE_URL", "")

	LoadConfig()

	if AppConfig.PaymentGateway != "razorpay" {
		t.Errorf("PaymentGateway = %q, want razorpay", AppConfig.PaymentGateway)
	}
	if AppConfig.AppURL != "https://hackathonwallah.com" {
		t.Errorf("AppURL = %q, trailing slash should be trimmed", AppConfig.AppURL)
	}
	if len(AppConfig.TelegramChatIDs) != 2 || AppConfig.TelegramChatIDs[1] != 202 {
		t.Errorf("TelegramChatIDs = %v, want [101 202]", AppConfig.TelegramChatIDs)
	}
	if AppConfig.DLQRetryInterval != 30*time.Second {
		t.Errorf("DLQRetryInterval = %s", AppConfig.DLQRetryInterval)
	}
	if AppConfig.SMTPPort != 587 {
		t.Errorf("SMTPPort = %d, want fallback 587", AppConfig.SMTPPort)
	}
}

func TestGetDBConnStringPrefersURL(t *testing.T) {
	AppConfig = Config{DatabaseURL: "postgres://u:p@db:5432/hw"}
	if got := GetDBConnString(); got != "postgres://u:p@db:5432/hw" {
		t.Errorf("GetDBConnString() = %q", got)
	}

	AppConfig = Config{DBHost: "h", DBPort: "1", DBUser: "u", DBPassword: "p", DBName: "n", DBSSLMode: "require"}
	want := "host=h port=1 user=u password=p dbname=n sslmode=require"
	if got := GetDBConnString(); got != want {
		t.Errorf("GetDBConnString() = %q, want %q", got, want)
	}
}

func TestKafkaBrokerList(t *testing.T) {
	c := Config{KafkaBrokers: " a:9092, ,b:9092"}
	got := c.KafkaBrokerList()
	if len(got) != 2 || got[0] != "a:9092" || got[1] != "b:9092" {
		t.Errorf("KafkaBrokerList() = %v", got)
	}
}
