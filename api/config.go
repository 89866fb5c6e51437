package api

import (
	"crypto/ed25519"
	"time"
)

type ServerConfig struct {
	OIDC   OIDCConfig
	S3     S3Config
	DB     DBConfig
	Redis  RedisConfig
	Fraud  FraudConfig
	Stripe StripeConfig
	Auth   AuthConfig
}

type OIDCConfig struct {
	IssuerURL    string
	ClientID     string
	ClientSecret string
}

type S3Config struct {
	AccessKeyID      string
	SecretAccessKey  string
	Endpoint         string
	Bucket           string
	PublicBaseURL    string
	RateLimitPerHour int64
}

type DBConfig struct {
	User     string
	Password string
	Host     string
	Port     int
	Database string
	Schema   string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int

	StreamKeys RedisStreamKeys
}

type RedisStreamKeys struct {
	BidStream string
}

type FraudConfig struct {
	Endpoint string
	APIKey   string
	Model    string
	Timeout  time.Duration
}

type StripeConfig struct {
	SecretKey string
}

type AuthConfig struct {
	PrivateKey     ed25519.PrivateKey
	Issuer         string
	Audience       string
	ExpireDuration time.Duration
}
