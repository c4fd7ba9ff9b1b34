package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	Env         string
	MongoURL    string
	MongoDBName string
	RedisURL    string
	PostgresDSN string

	StripeSecretKey   string
	StripeRedirectURL string
	Currency          string
	FrontendURL       string

	S3Bucket     string
	SNSTopicArn  string
	KafkaBrokers []string
	KafkaTopic   string

	JWTSecret string
	CartTTL   time.Duration
}

func Load() Config {
	_ = godotenv.Load()

	return Config{
		Port:        getEnv("PORT", "8080"),
		Env:         getEnv("APP_ENV", "development"),
		MongoURL:    getEnv("MONGO_URL", "mongodb://localhost:27017"),
		MongoDBName: getEnv("MONGO_DB", "marketplace"),
		RedisURL:    getEnv("REDIS_URL", "redis://localhost:6379"),
		PostgresDSN: getEnv("POSTGRES_DSN", "host=localhost user=postgres password=postgres dbname=payments port=5432 sslmode=disable"),

		StripeSecretKey:   getEnv("STRIPE_SECRET_KEY", ""),
		StripeRedirectURL: getEnv("STRIPE_REDIRECT_URL", "http://localhost:3000/onboarding"),
		Currency:          getEnv("CURRENCY", "usd"),
		FrontendURL:       getEnv("FRONTEND_URL", "http://localhost:3000"),

		S3Bucket:     getEnv("S3_BUCKET", "marketplace-product-images"),
		SNSTopicArn:  getEnv("SNS_TOPIC_ARN", ""),
		KafkaBrokers: strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "order.settled"),

		JWTSecret: getEnv("JWT_SECRET", ""),
		CartTTL:   time.Hour * 24 * 7,
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
