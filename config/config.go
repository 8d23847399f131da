/*
Copyright 2024 Perch Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package config

import (
	"encoding/json"
	"errors"
	"log"
	"os"
	"strings"
	"sync/atomic"

	"github.com/kelseyhightower/envconfig"

	"github.com/sirupsen/logrus"
)

const (
	DEFAULT_PORT = "5001"

	// DefaultFeeRateBps is the platform's cut of every escrow deposit: 500
	// basis points, i.e. 5%.
	DefaultFeeRateBps = 500

	DefaultCurrency          = "PERCH"
	DefaultTreasuryIndicator = "@PlatformTreasury"
	DefaultWebhookQueue      = "new:webhook"
	DefaultIndexQueue        = "new:index"
	DefaultMonitoringPort    = "5003"
	DefaultOtlpEndpoint      = "localhost:4318"
)

var ConfigStore atomic.Value

type ServerConfig struct {
	SSL       bool   `json:"ssl" envconfig:"PERCH_SERVER_SSL"`
	Secure    bool   `json:"secure" envconfig:"PERCH_SERVER_SECURE"`
	SecretKey string `json:"secret_key" envconfig:"PERCH_SERVER_SECRET_KEY"`
	Domain    string `json:"domain" envconfig:"PERCH_SERVER_SSL_DOMAIN"`
	Email     string `json:"ssl_email" envconfig:"PERCH_SERVER_SSL_EMAIL"`
	Port      string `json:"port" envconfig:"PERCH_SERVER_PORT"`
}

type DataSourceConfig struct {
	Dns string `json:"dns" envconfig:"PERCH_DATA_SOURCE_DNS"`
}

type RedisConfig struct {
	Dns           string `json:"dns" envconfig:"PERCH_REDIS_DNS"`
	SkipTLSVerify bool   `json:"skip_tls_verify" envconfig:"PERCH_REDIS_SKIP_TLS_VERIFY"`
}

type TypeSenseConfig struct {
	Dns string `json:"dns" envconfig:"PERCH_TYPESENSE_DNS"`
}

// PlatformConfig holds the marketplace escrow settings. The fee rate and max
// fee are read once at process start and are immutable for the lifetime of the
// deployment; there is no update path.
type PlatformConfig struct {
	// Authority is the only identity permitted to release an escrow.
	Authority string `json:"authority" envconfig:"PERCH_PLATFORM_AUTHORITY"`
	// TreasuryIndicator names the balance that takes custody of deposits.
	TreasuryIndicator string `json:"treasury_indicator" envconfig:"PERCH_PLATFORM_TREASURY_INDICATOR"`
	Currency          string `json:"currency" envconfig:"PERCH_PLATFORM_CURRENCY"`
	// FeeRateBps is the platform fee in basis points (500 = 5%).
	FeeRateBps int64 `json:"fee_rate_bps" envconfig:"PERCH_PLATFORM_FEE_RATE_BPS"`
	// TransferFeeBps is the substrate's own in-flight transfer fee, deducted
	// from every transfer independently of the platform fee.
	TransferFeeBps int64 `json:"transfer_fee_bps" envconfig:"PERCH_PLATFORM_TRANSFER_FEE_BPS"`
	// MaxFee caps the substrate transfer fee in absolute units. Zero means no cap.
	MaxFee int64 `json:"max_fee" envconfig:"PERCH_PLATFORM_MAX_FEE"`
}

type QueueConfig struct {
	WebhookQueue   string `json:"webhook_queue" envconfig:"PERCH_QUEUE_WEBHOOK"`
	IndexQueue     string `json:"index_queue" envconfig:"PERCH_QUEUE_INDEX"`
	MonitoringPort string `json:"monitoring_port" envconfig:"PERCH_QUEUE_MONITORING_PORT"`
}

type RateLimitConfig struct {
	RequestsPerSecond  *float64 `json:"requests_per_second" envconfig:"PERCH_RATE_LIMIT_RPS"`
	Burst              *int     `json:"burst" envconfig:"PERCH_RATE_LIMIT_BURST"`
	CleanupIntervalSec *int     `json:"cleanup_interval_sec" envconfig:"PERCH_RATE_LIMIT_CLEANUP_INTERVAL_SEC"`
}

type SlackWebhook struct {
	WebhookUrl string `json:"webhook_url"`
}

type Notification struct {
	Slack   SlackWebhook `json:"slack"`
	Webhook struct {
		Url     string            `json:"url"`
		Headers map[string]string `json:"headers"`
	} `json:"webhook"`
}

type Configuration struct {
	ProjectName        string           `json:"project_name" envconfig:"PERCH_PROJECT_NAME"`
	BackupDir          string           `json:"backup_dir" envconfig:"PERCH_BACKUP_DIR"`
	AwsAccessKeyId     string           `json:"aws_access_key_id"`
	S3Endpoint         string           `json:"s3_endpoint"`
	AwsSecretAccessKey string           `json:"aws_secret_access_key"`
	S3BucketName       string           `json:"s3_bucket_name"`
	S3Region           string           `json:"s3_region"`
	EnableTelemetry    bool             `json:"enable_telemetry" envconfig:"PERCH_ENABLE_TELEMETRY"`
	OtlpEndpoint       string           `json:"otlp_endpoint" envconfig:"PERCH_OTLP_ENDPOINT"`
	Server             ServerConfig     `json:"server"`
	DataSource         DataSourceConfig `json:"data_source"`
	Redis              RedisConfig      `json:"redis"`
	TypeSense          TypeSenseConfig  `json:"typesense"`
	TypeSenseKey       string           `json:"type_sense_key"`
	Platform           PlatformConfig   `json:"platform"`
	Queue              QueueConfig      `json:"queue"`
	Notification       Notification     `json:"notification"`
	RateLimit          RateLimitConfig  `json:"rate_limit"`
}

func loadConfigFromFile(file string) error {
	var cnf Configuration
	_, err := os.Stat(file)
	if err == nil {
		f, err := os.Open(file)
		if err != nil {
			return err
		}
		err = json.NewDecoder(f).Decode(&cnf)
		if err != nil {
			return err
		}

	} else if errors.Is(err, os.ErrNotExist) {
		log.Println("config json not passed, will use env variables")
	}

	// override config from environment variables
	err = envconfig.Process("perch", &cnf)
	if err != nil {
		return err
	}

	err = cnf.validateAndAddDefaults()
	if err != nil {
		return err
	}

	ConfigStore.Store(&cnf)
	return err
}

func InitConfig(configFile string) error {
	logger()
	return loadConfigFromFile(configFile)
}

func Fetch() (*Configuration, error) {
	config := ConfigStore.Load()
	c, ok := config.(*Configuration)
	if !ok {
		return nil, errors.New("config not loaded from file. Create a json file called perch.json with your config ❌")
	}
	return c, nil
}

func (cnf *Configuration) validateAndAddDefaults() error {
	if cnf.ProjectName == "" {
		log.Println("Warning: Project name is empty. Setting a default name.")
		cnf.ProjectName = "Perch Server"
	}

	if cnf.TypeSense.Dns == "" {
		cnf.TypeSense.Dns = "http://typesense:8108"
	}

	if cnf.DataSource.Dns == "" {
		log.Println("Error: Data source DNS is empty. It's a required field.")
		return errors.New("data source DNS is required")
	}

	if cnf.Redis.Dns == "" {
		log.Println("Error: Redis DNS is empty. It's a required field.")
		return errors.New("redis DNS is required")
	}

	if cnf.Platform.Authority == "" {
		log.Println("Error: Platform authority is empty. It's a required field.")
		return errors.New("platform authority is required")
	}

	// Trim white spaces from fields
	cnf.ProjectName = strings.TrimSpace(cnf.ProjectName)
	cnf.Server.Port = strings.TrimSpace(cnf.Server.Port)
	cnf.DataSource.Dns = strings.TrimSpace(cnf.DataSource.Dns)
	cnf.Redis.Dns = strings.TrimSpace(cnf.Redis.Dns)
	cnf.Platform.Authority = strings.TrimSpace(cnf.Platform.Authority)

	// Set default value for Port if it's empty
	if cnf.Server.Port == "" {
		cnf.Server.Port = DEFAULT_PORT
		log.Printf("Warning: Port not specified in config. Setting default port: %s", DEFAULT_PORT)
	}

	if cnf.Platform.FeeRateBps == 0 {
		cnf.Platform.FeeRateBps = DefaultFeeRateBps
		log.Printf("Warning: Platform fee rate not specified. Setting default: %d bps", DefaultFeeRateBps)
	}
	if cnf.Platform.FeeRateBps < 0 || cnf.Platform.FeeRateBps > 10000 {
		return errors.New("platform fee rate must be between 0 and 10000 basis points")
	}
	if cnf.Platform.TransferFeeBps < 0 || cnf.Platform.TransferFeeBps >= 10000 {
		return errors.New("transfer fee rate must be between 0 and 9999 basis points")
	}
	if cnf.Platform.Currency == "" {
		cnf.Platform.Currency = DefaultCurrency
	}
	if cnf.Platform.TreasuryIndicator == "" {
		cnf.Platform.TreasuryIndicator = DefaultTreasuryIndicator
	}

	if cnf.Queue.WebhookQueue == "" {
		cnf.Queue.WebhookQueue = DefaultWebhookQueue
	}
	if cnf.Queue.IndexQueue == "" {
		cnf.Queue.IndexQueue = DefaultIndexQueue
	}
	if cnf.Queue.MonitoringPort == "" {
		cnf.Queue.MonitoringPort = DefaultMonitoringPort
	}
	if cnf.OtlpEndpoint == "" {
		cnf.OtlpEndpoint = DefaultOtlpEndpoint
	}

	// Rate limiting is disabled by default (when both RPS and Burst are nil)
	if cnf.RateLimit.RequestsPerSecond != nil && cnf.RateLimit.Burst == nil {
		defaultBurst := 2 * int(*cnf.RateLimit.RequestsPerSecond)
		cnf.RateLimit.Burst = &defaultBurst
		log.Printf("Warning: Rate limit burst not specified. Setting default value: %d", defaultBurst)
	}
	if cnf.RateLimit.RequestsPerSecond == nil && cnf.RateLimit.Burst != nil {
		defaultRPS := float64(*cnf.RateLimit.Burst) / 2
		cnf.RateLimit.RequestsPerSecond = &defaultRPS
		log.Printf("Warning: Rate limit RPS not specified. Setting default value: %.2f", defaultRPS)
	}

	// Set default cleanup interval if not specified
	if cnf.RateLimit.CleanupIntervalSec == nil {
		defaultCleanup := 10800 // 3 hours in seconds
		cnf.RateLimit.CleanupIntervalSec = &defaultCleanup
		log.Printf("Warning: Rate limit cleanup interval not specified. Setting default value: %d seconds", defaultCleanup)
	}

	return nil
}

// MockConfig sets a mock configuration for testing purposes.
func MockConfig(mockConfig *Configuration) {
	if mockConfig.Platform.Currency == "" {
		mockConfig.Platform.Currency = DefaultCurrency
	}
	if mockConfig.Platform.TreasuryIndicator == "" {
		mockConfig.Platform.TreasuryIndicator = DefaultTreasuryIndicator
	}
	if mockConfig.Queue.WebhookQueue == "" {
		mockConfig.Queue.WebhookQueue = DefaultWebhookQueue
	}
	if mockConfig.Queue.IndexQueue == "" {
		mockConfig.Queue.IndexQueue = DefaultIndexQueue
	}
	ConfigStore.Store(mockConfig)
}

func logger() {
	logger := logrus.New()
	log.SetOutput(logger.Writer())
}
