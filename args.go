package main

import (
	"crypto/ed25519"
	"encoding/base64"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"silentbid/api"
)

func ParseArgs() Args {
	// server config
	pflag.String("server-url", "0.0.0.0:8080", "")

	// oidc config
	pflag.String("oidc-issuer-url", "", "")
	pflag.String("oidc-client-id", "", "")
	pflag.String("oidc-client-secret", "", "")

	// auth config
	pflag.String("auth-private-key-seed", "", "base64 encoded ed25519 seed")
	pflag.String("auth-issuer", "silentbid", "")
	pflag.String("auth-audience", "silentbid-admin", "")
	pflag.Duration("auth-expire-duration", 3*time.Hour, "")

	// s3 config
	pflag.String("s3-endpoint", "", "")
	pflag.String("s3-bucket", "", "")
	pflag.String("s3-public-base-url", "", "")
	pflag.String("s3-access-key-id", "", "")
	pflag.String("s3-secret-access-key", "", "")
	pflag.Int64("s3-rate-limit-per-hour", 30, "")

	// db config
	pflag.String("db-user", "", "")
	pflag.String("db-password", "", "")
	pflag.String("db-host", "", "")
	pflag.Int("db-port", 5432, "")
	pflag.String("db-database", "", "")
	pflag.String("db-schema", "", "")

	// redis config
	pflag.String("redis-addr", "", "")
	pflag.String("redis-password", "", "")
	pflag.Int("redis-db", 15, "")

	// redis stream keys
	pflag.String("redis-stream-key-for-bids", "silentbid-shared-bid-stream", "")

	// fraud check config
	pflag.String("fraud-endpoint", "", "")
	pflag.String("fraud-api-key", "", "")
	pflag.String("fraud-model", "gemini-2.0-flash", "")
	pflag.Duration("fraud-timeout", 15*time.Second, "")

	// stripe config
	pflag.String("stripe-secret-key", "", "")

	// bind pflag to viper
	pflag.Parse()
	viper.BindPFlags(pflag.CommandLine)
	viper.AutomaticEnv()
	viper.SetEnvPrefix("SILENTBID")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	// initial arguments
	return Args{
		ServerURL: viper.GetString("server-url"),
		ServerConfig: api.ServerConfig{
			OIDC: api.OIDCConfig{
				IssuerURL:    viper.GetString("oidc-issuer-url"),
				ClientID:     viper.GetString("oidc-client-id"),
				ClientSecret: viper.GetString("oidc-client-secret"),
			},
			Auth: api.AuthConfig{
				PrivateKey:     parsePrivateKey(viper.GetString("auth-private-key-seed")),
				Issuer:         viper.GetString("auth-issuer"),
				Audience:       viper.GetString("auth-audience"),
				ExpireDuration: viper.GetDuration("auth-expire-duration"),
			},
			S3: api.S3Config{
				Endpoint:         viper.GetString("s3-endpoint"),
				Bucket:           viper.GetString("s3-bucket"),
				PublicBaseURL:    viper.GetString("s3-public-base-url"),
				AccessKeyID:      viper.GetString("s3-access-key-id"),
				SecretAccessKey:  viper.GetString("s3-secret-access-key"),
				RateLimitPerHour: viper.GetInt64("s3-rate-limit-per-hour"),
			},
			DB: api.DBConfig{
				User:     viper.GetString("db-user"),
				Password: viper.GetString("db-password"),
				Host:     viper.GetString("db-host"),
				Port:     viper.GetInt("db-port"),
				Database: viper.GetString("db-database"),
				Schema:   viper.GetString("db-schema"),
			},
			Redis: api.RedisConfig{
				Addr:     viper.GetString("redis-addr"),
				Password: viper.GetString("redis-password"),
				DB:       viper.GetInt("redis-db"),
				StreamKeys: api.RedisStreamKeys{
					BidStream: viper.GetString("redis-stream-key-for-bids"),
				},
			},
			Fraud: api.FraudConfig{
				Endpoint: viper.GetString("fraud-endpoint"),
				APIKey:   viper.GetString("fraud-api-key"),
				Model:    viper.GetString("fraud-model"),
				Timeout:  viper.GetDuration("fraud-timeout"),
			},
			Stripe: api.StripeConfig{
				SecretKey: viper.GetString("stripe-secret-key"),
			},
		},
	}
}

func parsePrivateKey(seed string) ed25519.PrivateKey {
	if seed == "" {
		return nil
	}
	bytes, err := base64.StdEncoding.DecodeString(seed)
	if err != nil || len(bytes) != ed25519.SeedSize {
		return nil
	}
	return ed25519.NewKeyFromSeed(bytes)
}

type Args struct {
	ServerURL    string
	ServerConfig api.ServerConfig
}

func (args Args) Validate() bool {
	return args.ServerURL != "" &&
		args.ServerConfig.OIDC.IssuerURL != "" &&
		args.ServerConfig.OIDC.ClientID != "" &&
		args.ServerConfig.OIDC.ClientSecret != "" &&
		args.ServerConfig.Auth.PrivateKey != nil &&
		args.ServerConfig.Fraud.Endpoint != ""
}
