// Package config loads run configuration from a YAML file, an optional
// .env file and M3C_ environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"m3c/internal/blob"
	"m3c/internal/infra/database"
	"m3c/internal/pubmed"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "M3C_"

// DefaultOutputDir is where dated output directories are created.
const DefaultOutputDir = "data_out"

// Database describes one source database.
type Database struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// S3 configures the S3 photo driver.
type S3 struct {
	Region          string `yaml:"region"`
	Bucket          string `yaml:"bucket"`
	Prefix          string `yaml:"prefix"`
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	PathStyle       bool   `yaml:"path_style"`
}

// Photos selects the store profile photos are looked up in.
type Photos struct {
	Driver string `yaml:"driver"`
	Root   string `yaml:"root"`
	S3     S3     `yaml:"s3"`
}

// Tools names the tool definition files. Either may be empty.
type Tools struct {
	YAML string `yaml:"yaml"`
	CSV  string `yaml:"csv"`
}

// PubMed configures the E-utilities client. When Search is set,
// publications are found by searching PubMed for every person instead of
// read from stored efetch documents.
type PubMed struct {
	Email      string        `yaml:"email"`
	APIKey     string        `yaml:"api_key"`
	BaseURL    string        `yaml:"base_url"`
	SearchURL  string        `yaml:"search_url"`
	Search     bool          `yaml:"search"`
	Retries    int           `yaml:"retries"`
	RetryDelay time.Duration `yaml:"retry_delay"`
}

// Metrics configures the end-of-run metrics export.
type Metrics struct {
	Textfile string `yaml:"textfile"`
}

// Log configures logging.
type Log struct {
	Env   string `yaml:"env"`
	Level string `yaml:"level"`
}

// Config is the full run configuration.
type Config struct {
	Namespace    string   `yaml:"namespace"`
	OutputDir    string   `yaml:"output_dir"`
	Workbench    Database `yaml:"workbench"`
	Supplemental Database `yaml:"supplemental"`
	Photos       Photos   `yaml:"photos"`
	Tools        Tools    `yaml:"tools"`
	Embargoed    string   `yaml:"embargoed"`
	PubMed       PubMed   `yaml:"pubmed"`
	Metrics      Metrics  `yaml:"metrics"`
	Log          Log      `yaml:"log"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		OutputDir:    DefaultOutputDir,
		Workbench:    Database{Driver: database.DriverPostgres},
		Supplemental: Database{Driver: database.DriverPostgres},
		Photos:       Photos{Driver: string(blob.DriverFilesystem)},
		PubMed: PubMed{
			BaseURL:    pubmed.DefaultBaseURL,
			SearchURL:  pubmed.DefaultSearchURL,
			Retries:    pubmed.DefaultAttempts,
			RetryDelay: pubmed.DefaultRetryDelay,
		},
		Log: Log{Env: "production", Level: "info"},
	}
}

// Load reads path (optional), then .env, then the environment, and
// validates the result.
func Load(path string) (*Config, error) {
	// a missing .env is fine
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

type lookupFunc func(string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	strs := map[string]*string{
		"NAMESPACE":                   &c.Namespace,
		"OUTPUT_DIR":                  &c.OutputDir,
		"WORKBENCH_DRIVER":            &c.Workbench.Driver,
		"WORKBENCH_DSN":               &c.Workbench.DSN,
		"SUPPLEMENTAL_DRIVER":         &c.Supplemental.Driver,
		"SUPPLEMENTAL_DSN":            &c.Supplemental.DSN,
		"PHOTOS_DRIVER":               &c.Photos.Driver,
		"PHOTOS_ROOT":                 &c.Photos.Root,
		"PHOTOS_S3_REGION":            &c.Photos.S3.Region,
		"PHOTOS_S3_BUCKET":            &c.Photos.S3.Bucket,
		"PHOTOS_S3_PREFIX":            &c.Photos.S3.Prefix,
		"PHOTOS_S3_ENDPOINT":          &c.Photos.S3.Endpoint,
		"PHOTOS_S3_ACCESS_KEY_ID":     &c.Photos.S3.AccessKeyID,
		"PHOTOS_S3_SECRET_ACCESS_KEY": &c.Photos.S3.SecretAccessKey,
		"TOOLS_YAML":                  &c.Tools.YAML,
		"TOOLS_CSV":                   &c.Tools.CSV,
		"EMBARGOED":                   &c.Embargoed,
		"PUBMED_EMAIL":                &c.PubMed.Email,
		"PUBMED_API_KEY":              &c.PubMed.APIKey,
		"PUBMED_BASE_URL":             &c.PubMed.BaseURL,
		"PUBMED_SEARCH_URL":           &c.PubMed.SearchURL,
		"METRICS_TEXTFILE":            &c.Metrics.Textfile,
		"LOG_ENV":                     &c.Log.Env,
		"LOG_LEVEL":                   &c.Log.Level,
	}
	for key, dst := range strs {
		if v, ok := lookup(EnvPrefix + key); ok {
			*dst = v
		}
	}
	if v, ok := lookup(EnvPrefix + "PHOTOS_S3_PATH_STYLE"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sPHOTOS_S3_PATH_STYLE: %w", EnvPrefix, err)
		}
		c.Photos.S3.PathStyle = b
	}
	if v, ok := lookup(EnvPrefix + "PUBMED_SEARCH"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sPUBMED_SEARCH: %w", EnvPrefix, err)
		}
		c.PubMed.Search = b
	}
	if v, ok := lookup(EnvPrefix + "PUBMED_RETRIES"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sPUBMED_RETRIES: %w", EnvPrefix, err)
		}
		c.PubMed.Retries = n
	}
	if v, ok := lookup(EnvPrefix + "PUBMED_RETRY_DELAY"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%sPUBMED_RETRY_DELAY: %w", EnvPrefix, err)
		}
		c.PubMed.RetryDelay = d
	}
	return nil
}

// Validate checks that required values are set and enums are known.
func (c *Config) Validate() error {
	var errs []error
	if c.Namespace == "" {
		errs = append(errs, errors.New("namespace is required"))
	}
	if c.OutputDir == "" {
		errs = append(errs, errors.New("output_dir is required"))
	}
	dbs := []struct {
		name string
		db   Database
	}{{"workbench", c.Workbench}, {"supplemental", c.Supplemental}}
	for _, d := range dbs {
		if d.db.DSN == "" {
			errs = append(errs, fmt.Errorf("%s.dsn is required", d.name))
		}
		switch d.db.Driver {
		case "", database.DriverPostgres, database.DriverSQLite:
		default:
			errs = append(errs, fmt.Errorf("%s.driver %q is not postgres or sqlite", d.name, d.db.Driver))
		}
	}
	switch blob.Driver(c.Photos.Driver) {
	case "", blob.DriverFilesystem:
		if c.Photos.Root == "" {
			errs = append(errs, errors.New("photos.root is required for the fs driver"))
		}
	case blob.DriverS3:
		if c.Photos.S3.Bucket == "" {
			errs = append(errs, errors.New("photos.s3.bucket is required for the s3 driver"))
		}
	case blob.DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("photos.driver %q is not fs, s3 or memory", c.Photos.Driver))
	}
	if c.PubMed.Retries < 1 {
		errs = append(errs, errors.New("pubmed.retries must be at least 1"))
	}
	if c.PubMed.RetryDelay < 0 {
		errs = append(errs, errors.New("pubmed.retry_delay must not be negative"))
	}
	return errors.Join(errs...)
}

// DatabaseConfig converts a source database section.
func (d Database) DatabaseConfig() database.Config {
	return database.Config{Driver: d.Driver, DSN: d.DSN}
}

// BlobConfig converts the photos section.
func (p Photos) BlobConfig() blob.Config {
	return blob.Config{
		Driver: blob.Driver(p.Driver),
		Root:   p.Root,
		S3: blob.S3Config{
			Region:          p.S3.Region,
			Bucket:          p.S3.Bucket,
			Prefix:          p.S3.Prefix,
			Endpoint:        p.S3.Endpoint,
			AccessKeyID:     p.S3.AccessKeyID,
			SecretAccessKey: p.S3.SecretAccessKey,
			PathStyle:       p.S3.PathStyle,
		},
	}
}

// ClientConfig converts the pubmed section.
func (p PubMed) ClientConfig() pubmed.Config {
	return pubmed.Config{
		BaseURL:    p.BaseURL,
		SearchURL:  p.SearchURL,
		Email:      p.Email,
		APIKey:     p.APIKey,
		Attempts:   p.Retries,
		RetryDelay: p.RetryDelay,
	}
}
