package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config is built once at startup and handed to each component's constructor.
type Config struct {
	Env      string `envconfig:"APP_ENV" default:"production"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	Port     string `envconfig:"PORT" default:"8080" validate:"required,numeric"`

	VerifyToken    string `envconfig:"VERIFY_TOKEN"`
	AppSecret      string `envconfig:"META_APP_SECRET"`
	CampaignPrefix string `envconfig:"CAMPAIGN_PREFIX"`

	Graph   GraphConfig
	Sheets  SheetsConfig
	Archive ArchiveConfig
	Kafka   KafkaConfig
}

// GraphConfig configures the campaign-name lookup against the Meta Graph API.
type GraphConfig struct {
	Token      string        `envconfig:"META_GRAPH_API_TOKEN"`
	BaseURL    string        `envconfig:"GRAPH_API_BASE_URL" default:"https://graph.facebook.com" validate:"required,url"`
	APIVersion string        `envconfig:"GRAPH_API_VERSION" default:"v20.0" validate:"required"`
	Fields     string        `envconfig:"GRAPH_FIELDS" default:"campaign" validate:"oneof=campaign name"`
	Timeout    time.Duration `envconfig:"GRAPH_API_TIMEOUT" default:"15s" validate:"gt=0"`
}

type SheetsConfig struct {
	CredentialsJSON string `envconfig:"GOOGLE_CREDS_JSON"`
	SheetName       string `envconfig:"SHEET_NAME"`
}

// ArchiveConfig selects the database for the local lead archive. DatabaseURL
// (PostgreSQL) wins over DBPath (SQLite) when both are set.
type ArchiveConfig struct {
	Enabled     bool   `envconfig:"ARCHIVE_ENABLED" default:"false"`
	DatabaseURL string `envconfig:"DATABASE_URL"`
	DBPath      string `envconfig:"DB_PATH" default:"./leads.db"`
}

type KafkaConfig struct {
	Brokers string `envconfig:"KAFKA_BROKERS"`
	Topic   string `envconfig:"KAFKA_TOPIC" default:"whatsapp-leads"`
}

// BrokerList splits the comma separated KAFKA_BROKERS value.
func (k KafkaConfig) BrokerList() []string {
	var out []string
	for _, b := range strings.Split(k.Brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

// Load reads an optional .env file, then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Error loading .env file")
	}
	return FromEnv()
}

// FromEnv builds a Config from the current environment only.
func FromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}
