package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/mealbook/mealbook/internal/flagx"
	"github.com/mealbook/mealbook/internal/timex"
)

// JSONConfig is a DTO used exclusively for JSON unmarshalling.
// It relies on timex.Duration so JSON can specify intervals either as
// strings like "30s" or as integer nanoseconds. After parsing, values
// are copied into the runtime Config (which uses time.Duration).
type JSONConfig struct {
	ServerEndpointAddr string         `json:"server_endpoint_addr"`
	DatabaseDSN        string         `json:"database_dsn"`
	RequestTimeout     timex.Duration `json:"request_timeout"`
}

// parseJSON overlays Config with values loaded from a JSON file.
//
// Lookup order for the JSON file path:
//  1. Command-line flags (-c or -config) via flagx.JSONConfigFlags().
//  2. If empty, no JSON is loaded and the function returns.
//
// The function panics if the file cannot be read or contains invalid JSON.
func parseJSON(cfg *Config) {

	jsonConfigFile := flagx.JSONConfigFlags()

	if jsonConfigFile == "" {
		return
	}

	c := &JSONConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	cfg.ServerEndpointAddr = c.ServerEndpointAddr
	cfg.DatabaseDSN = c.DatabaseDSN
	cfg.RequestTimeout = time.Duration(c.RequestTimeout.Duration)
}
