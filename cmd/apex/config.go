package main

import (
	"encoding/json"
	"fmt"
	"os"
)

// runConfig holds the knobs that can come from either the command
// line or a JSON file, mirroring the teacher's own pattern of flags as
// the default and a JSON config file for overrides.
type runConfig struct {
	Forwarding    bool  `json:"forwarding"`
	CycleBudget   int64 `json:"cycle_budget"`
	HaltThreshold int   `json:"halt_threshold"`
}

func defaultRunConfig() runConfig {
	return runConfig{
		Forwarding:    false,
		CycleBudget:   0,
		HaltThreshold: 4,
	}
}

func loadRunConfig(path string) (runConfig, error) {
	cfg := defaultRunConfig()
	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("opening config %s: %w", path, err)
	}
	defer f.Close()

	if err := json.NewDecoder(f).Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}
