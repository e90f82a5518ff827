package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Backends des Content-Stores.
const (
	BackendStrapi   = "strapi"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Config enthält alle Konfigurationsparameter aus Umgebungsvariablen.
type Config struct {
	// Datenwurzel der Altdaten; leer = Kandidatenliste relativ zum Arbeitsverzeichnis.
	// Ein Wert s3://bucket/prefix liest aus S3.
	DataRoot string `envconfig:"SEED_DATA_ROOT"`

	StoreBackend string        `envconfig:"STORE_BACKEND" default:"strapi"`
	CMSURL       string        `envconfig:"CMS_URL" default:"http://localhost:1337"`
	CMSAPIToken  string        `envconfig:"CMS_API_TOKEN"`
	CMSTimeout   time.Duration `envconfig:"CMS_TIMEOUT" default:"30s"`

	DBHost     string `envconfig:"DB_HOST"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER"`
	DBPassword string `envconfig:"DB_PASSWORD"`
	DBName     string `envconfig:"DB_NAME"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`

	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3Region    string `envconfig:"S3_REGION" default:"eu-central-1"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY"`
	S3SecretKey string `envconfig:"S3_SECRET_KEY"`

	// Metriken: Pushgateway am Ende eines Laufs, /metrics im Schedule-Modus
	PushgatewayURL string `envconfig:"PUSHGATEWAY_URL"`
	MetricsAddr    string `envconfig:"METRICS_ADDR"`

	// Cron-Ausdruck für wiederkehrende Reparaturläufe; leer = einmaliger Lauf
	Schedule string `envconfig:"SEED_SCHEDULE"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// DSN gibt den Data Source Name für die PostgreSQL-Verbindung zurück.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode)
}

// HasDatabase meldet, ob eine Datenbankverbindung konfiguriert ist.
func (c *Config) HasDatabase() bool {
	return c.DBHost != "" && c.DBName != ""
}

// Validate prüft die Kombination der Einstellungen.
func (c *Config) Validate() error {
	c.StoreBackend = strings.ToLower(strings.TrimSpace(c.StoreBackend))
	switch c.StoreBackend {
	case BackendStrapi:
		if c.CMSURL == "" {
			return fmt.Errorf("CMS_URL is required for backend %q", c.StoreBackend)
		}
	case BackendPostgres:
		if !c.HasDatabase() {
			return fmt.Errorf("DB_HOST and DB_NAME are required for backend %q", c.StoreBackend)
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q (want strapi, postgres or memory)", c.StoreBackend)
	}
	if c.CMSTimeout <= 0 {
		return fmt.Errorf("CMS_TIMEOUT must be positive, got %s", c.CMSTimeout)
	}
	return nil
}

// Load lädt die Konfiguration aus den Umgebungsvariablen.
func Load() (*Config, error) {
	_ = godotenv.Load()
	var c Config
	err := envconfig.Process("", &c)
	return &c, err
}
