package cmd

import (
	"time"
)

type Config struct {
	HTTPPort   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string

	JWTSecret string

	PaymentAPIKey        string
	PaymentWebhookSecret string
	PaymentSuccessURL    string
	PaymentCancelURL     string
	PaymentCurrency      string

	S3Bucket          string
	S3Region          string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string

	KafkaHost              string
	KafkaOrderChangedTopic string

	OutboxRelaySchedule string
	OutboxBatchSize     int
	OutboxMaxRetries    int

	OTLPEndpoint    string
	TraceSampleRate float64

	ShutdownTimeout time.Duration
}
