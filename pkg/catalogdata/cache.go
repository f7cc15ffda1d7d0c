package catalogdata

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// WriteCache writes raw (already-fetched) JSON bytes to the on-disk cache
// directory under name, creating the directory if needed. The ingestion
// paths write the program feed payload even when decoding it failed, so a
// parse failure never costs a re-fetch.
func WriteCache(cfg Config, name string, raw []byte) (string, error) {
	if err := os.MkdirAll(cfg.Data.CacheDir, 0o755); err != nil {
		return "", fmt.Errorf("create cache dir %s: %w", cfg.Data.CacheDir, err)
	}

	path := filepath.Join(cfg.Data.CacheDir, name)
	pretty, err := prettyJSON(raw)
	if err != nil {
		pretty = raw
	}
	if err := os.WriteFile(path, pretty, 0o644); err != nil {
		return "", fmt.Errorf("write cache %s: %w", path, err)
	}
	return path, nil
}

// ReadCache reads a previously cached payload back, letting cmd/roundtrip
// re-run parsing against a cached snapshot without re-hitting the network.
func ReadCache(cfg Config, name string) ([]byte, error) {
	path := filepath.Join(cfg.Data.CacheDir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read cache %s: %w", path, err)
	}
	return data, nil
}

func prettyJSON(raw []byte) ([]byte, error) {
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return json.MarshalIndent(v, "", "  ")
}
