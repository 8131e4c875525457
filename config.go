// config.go: layered configuration for the cache service.
//
// Priority, matching the teacher's own config layering: an explicitly
// set Go config beats a discovered slabmemd.json beats compile-time
// defaults.
//
// Copyright (c) 2025 AGILira
// SPDX-License-Identifier: MPL-2.0

package slabmemd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// CacheConfig configures the service's overridable knobs. Slab geometry
// (page size, slot sizes) is fixed by design and is not part of this
// struct: spec.md treats it as compile-time sizing.
type CacheConfig struct {
	// ListenAddr is the TCP address the server binds, e.g. "0.0.0.0:11211".
	ListenAddr string `json:"listen_addr"`
	// MaxBytes is the total page-pool budget in bytes.
	MaxBytes int64 `json:"max_bytes"`
	// WorkerQueueCapacity bounds the acceptor's connection queue.
	WorkerQueueCapacity int `json:"worker_queue_capacity"`
}

// fileConfig mirrors CacheConfig's JSON shape for slabmemd.json, with
// every field optional so a partial override file is valid.
type fileConfig struct {
	ListenAddr          string `json:"listen_addr"`
	MaxBytes            int64  `json:"max_bytes"`
	WorkerQueueCapacity int    `json:"worker_queue_capacity"`
}

var (
	globalConfig *CacheConfig
	configMu     sync.RWMutex
)

// SetGlobalConfig installs a configuration that LoadConfig will prefer
// over slabmemd.json and the built-in defaults. Intended to be called
// once at process startup by advanced embedders.
func SetGlobalConfig(config CacheConfig) {
	configMu.Lock()
	defer configMu.Unlock()
	globalConfig = &config
}

// GetGlobalConfig returns the configuration set via SetGlobalConfig, or
// nil if none has been set.
func GetGlobalConfig() *CacheConfig {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}

// LoadConfig resolves the effective configuration: an installed global
// config, else a discovered slabmemd.json, else DefaultConfig.
func LoadConfig() CacheConfig {
	if config := GetGlobalConfig(); config != nil {
		return *config
	}

	if config, err := loadFileConfig(); err == nil {
		return config
	}

	return DefaultConfig()
}

// DefaultConfig returns the compile-time defaults from spec.md §6: a
// 160 MiB page-pool budget, listening on 0.0.0.0:11211.
func DefaultConfig() CacheConfig {
	return CacheConfig{
		ListenAddr:          "0.0.0.0:11211",
		MaxBytes:            160 << 20,
		WorkerQueueCapacity: 1024,
	}
}

func loadFileConfig() (CacheConfig, error) {
	path := findConfigFile()
	if path == "" {
		return CacheConfig{}, fmt.Errorf("slabmemd.json not found")
	}

	// nosec G304 - path is validated below to prevent path traversal
	data, err := os.ReadFile(path)
	if err != nil {
		return CacheConfig{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var fc fileConfig
	if err := json.Unmarshal(data, &fc); err != nil {
		return CacheConfig{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	config := DefaultConfig()
	if fc.ListenAddr != "" {
		config.ListenAddr = fc.ListenAddr
	}
	if fc.MaxBytes > 0 {
		config.MaxBytes = fc.MaxBytes
	}
	if fc.WorkerQueueCapacity > 0 {
		config.WorkerQueueCapacity = fc.WorkerQueueCapacity
	}

	return config, nil
}

// findConfigFile searches the working directory and up to four parent
// directories for slabmemd.json.
func findConfigFile() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for i := 0; i < 5; i++ {
		path := filepath.Join(dir, "slabmemd.json")
		if filepath.Base(path) != "slabmemd.json" || strings.Contains(path, "..") {
			return ""
		}
		if _, err := os.Stat(path); err == nil {
			return path
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// ConfigSource describes where the effective configuration came from.
func ConfigSource() string {
	if GetGlobalConfig() != nil {
		return "Go configuration (SetGlobalConfig)"
	}
	if findConfigFile() != "" {
		return "JSON configuration (slabmemd.json)"
	}
	return "default configuration"
}
