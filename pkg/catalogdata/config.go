// Package catalogdata wires the course-entry grouping parser in pkg/catalog
// to the outside world: fetching the upstream catalog feed, persisting
// parsed programs, and the ambient configuration that drives both.
package catalogdata

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config is the service's full runtime configuration, read from environment
// variables, optionally loaded from a local .env file first.
type Config struct {
	Server   ServerConfig
	Data     DataConfig
	Fetching FetchingConfig
	Store    StoreConfig
}

type ServerConfig struct {
	Port int
}

type DataConfig struct {
	CacheDir string
}

type FetchingConfig struct {
	ProgramsURL string
	Concurrency int
}

type StoreConfig struct {
	// Driver is "sqlite" (default) or "postgres".
	Driver string
	// DSN is the sqlite file path or the postgres connection string,
	// depending on Driver.
	DSN string
}

// LoadConfig loads a local .env file if present (ignoring a missing file,
// matching godotenv's own convention) and then builds a Config from
// environment variables, with working defaults for local development.
func LoadConfig() Config {
	_ = godotenv.Load()

	return Config{
		Server: ServerConfig{
			Port: getEnvIntOrDefault("PORT", 8080),
		},
		Data: DataConfig{
			CacheDir: getEnvOrDefault("CATALOG_CACHE_DIR", "./data"),
		},
		Fetching: FetchingConfig{
			ProgramsURL: getEnvOrDefault("CATALOG_PROGRAMS_URL",
				"https://iq5prod1.smartcatalogiq.com/apis/progAPI?format=json"),
			Concurrency: getEnvIntOrDefault("CATALOG_FETCH_CONCURRENCY", 4),
		},
		Store: StoreConfig{
			Driver: getEnvOrDefault("CATALOG_STORE_DRIVER", "sqlite"),
			DSN:    getEnvOrDefault("CATALOG_STORE_DSN", "catalog.db"),
		},
	}
}

func getEnvOrDefault(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvIntOrDefault(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return n
}
