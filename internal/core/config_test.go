package core

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}
	return configPath
}

func TestLoadConfig_Success(t *testing.T) {
	configPath := writeConfig(t, `port: 8080
database:
  type: sqlite
  connectionString: "intake.db"
blobStore:
  endpoint: "minio.example.com:9000"
  accessKey: "access"
  secretKey: "secret"
  bucket: "intake"
`)

	config, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if config.Port != 8080 {
		t.Errorf("Expected port to be 8080, got %d", config.Port)
	}
	if config.Database.ConnectionString != "intake.db" {
		t.Errorf("Expected connectionString to be 'intake.db', got '%s'", config.Database.ConnectionString)
	}
	if config.BlobStore.Bucket != "intake" {
		t.Errorf("Expected bucket to be 'intake', got '%s'", config.BlobStore.Bucket)
	}
	if config.BlobStore.Placeholder != "S3_NOT_CONFIGURED" {
		t.Errorf("Expected default placeholder, got '%s'", config.BlobStore.Placeholder)
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	configPath := writeConfig(t, `{}`)

	config, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if config.Port != 4000 {
		t.Errorf("Expected default port 4000, got %d", config.Port)
	}
	if config.Database.Type != "sqlite" {
		t.Errorf("Expected default database type sqlite, got %s", config.Database.Type)
	}
	if config.Database.ConnectionString != "sessions.db" {
		t.Errorf("Expected default connection string sessions.db, got %s", config.Database.ConnectionString)
	}
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	config, err := LoadConfig("/path/that/does/not/exist/config.yaml")

	if err == nil {
		t.Fatal("Expected error for non-existent file, got nil")
	}
	if config != nil {
		t.Error("Expected config to be nil when file doesn't exist")
	}
}

func TestLoadConfig_InvalidYaml(t *testing.T) {
	configPath := writeConfig(t, "port: [not a port")

	if _, err := LoadConfig(configPath); err == nil {
		t.Fatal("Expected error for invalid YAML, got nil")
	}
}

func TestLoadConfig_BlobStoreWithoutCredentials(t *testing.T) {
	configPath := writeConfig(t, `blobStore:
  endpoint: "minio.example.com:9000"
  bucket: "intake"
`)

	if _, err := LoadConfig(configPath); err == nil {
		t.Fatal("Expected error for blob store endpoint without credentials, got nil")
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("BLOBSTORE_ENDPOINT", "env.example.com:9000")
	t.Setenv("BLOBSTORE_ACCESS_KEY", "env-access")
	t.Setenv("BLOBSTORE_SECRET_KEY", "env-secret")
	t.Setenv("BLOBSTORE_BUCKET", "env-bucket")

	configPath := writeConfig(t, `{}`)
	config, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if config.BlobStore.Endpoint != "env.example.com:9000" {
		t.Errorf("Expected endpoint from environment, got %s", config.BlobStore.Endpoint)
	}
	if config.BlobStore.Bucket != "env-bucket" {
		t.Errorf("Expected bucket from environment, got %s", config.BlobStore.Bucket)
	}
}
