package core

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const defaultPlaceholderURL = "S3_NOT_CONFIGURED"

type Database struct {
	Type             string `yaml:"type"`
	ConnectionString string `yaml:"connectionString"`
}

// BlobStore holds the object storage settings. An empty endpoint or bucket
// leaves the store unconfigured and the server runs in degraded mode,
// persisting records with the placeholder URL instead of uploaded images.
type BlobStore struct {
	Endpoint      string `yaml:"endpoint"`
	AccessKey     string `yaml:"accessKey"`
	SecretKey     string `yaml:"secretKey"`
	Bucket        string `yaml:"bucket"`
	UseSSL        bool   `yaml:"useSSL"`
	PublicBaseURL string `yaml:"publicBaseURL"`
	Placeholder   string `yaml:"placeholder"`
}

// KeyValue holds the operator identity store settings. An empty address
// selects the in-memory store, which does not survive a client restart.
type KeyValue struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type ServiceConfig struct {
	Port      int       `yaml:"port"`
	ServerURL string    `yaml:"serverURL"`
	Database  Database  `yaml:"database"`
	BlobStore BlobStore `yaml:"blobStore"`
	KeyValue  KeyValue  `yaml:"keyValue"`
}

// LoadConfig loads configuration from the specified YAML file
func LoadConfig(configPath string) (*ServiceConfig, error) {
	// Read the config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	// Parse YAML
	var config ServiceConfig
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
	}

	config.applyDefaults()
	config.applyEnvOverrides()

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func (c *ServiceConfig) applyDefaults() {
	if c.Port == 0 {
		c.Port = 4000
	}
	if c.Database.Type == "" {
		c.Database.Type = "sqlite"
	}
	if c.Database.ConnectionString == "" {
		c.Database.ConnectionString = "sessions.db"
	}
	if c.BlobStore.Placeholder == "" {
		c.BlobStore.Placeholder = defaultPlaceholderURL
	}
}

// applyEnvOverrides lets credentials live outside the config file. The
// env file (if any) is loaded by the binaries before LoadConfig runs.
func (c *ServiceConfig) applyEnvOverrides() {
	if v := os.Getenv("BLOBSTORE_ENDPOINT"); v != "" {
		c.BlobStore.Endpoint = v
	}
	if v := os.Getenv("BLOBSTORE_ACCESS_KEY"); v != "" {
		c.BlobStore.AccessKey = v
	}
	if v := os.Getenv("BLOBSTORE_SECRET_KEY"); v != "" {
		c.BlobStore.SecretKey = v
	}
	if v := os.Getenv("BLOBSTORE_BUCKET"); v != "" {
		c.BlobStore.Bucket = v
	}
	if v := os.Getenv("KEYVALUE_ADDRESS"); v != "" {
		c.KeyValue.Address = v
	}
	if v := os.Getenv("KEYVALUE_PASSWORD"); v != "" {
		c.KeyValue.Password = v
	}
}

func (c *ServiceConfig) validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("port out of range: %d", c.Port)
	}
	if c.Database.Type != "sqlite" {
		return fmt.Errorf("unsupported database type: %s", c.Database.Type)
	}
	// A blob store endpoint without credentials cannot authenticate; catch
	// this at startup rather than on the first upload.
	if c.BlobStore.Endpoint != "" {
		if c.BlobStore.AccessKey == "" || c.BlobStore.SecretKey == "" {
			return fmt.Errorf("blob store endpoint %s configured without credentials", c.BlobStore.Endpoint)
		}
		if c.BlobStore.Bucket == "" {
			return fmt.Errorf("blob store endpoint %s configured without a bucket", c.BlobStore.Endpoint)
		}
	}
	return nil
}
