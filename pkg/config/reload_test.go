package config_test

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bandproj/bandproj/pkg/config"
	"github.com/bandproj/bandproj/pkg/logger"
	"github.com/bandproj/bandproj/pkg/types"
)

func writeConfigFile(t *testing.T, path string, m map[string]interface{}) {
	t.Helper()

	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("failed to marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
}

func TestReloadManager_StartStop(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "bandproj.config.json")
	writeConfigFile(t, configPath, testConfigMap())

	rm := config.NewReloadManager(configPath, logger.CreateLoggerWithOutput("error", io.Discard))

	if rm.IsWatching() {
		t.Error("expected a fresh manager not to be watching")
	}
	if err := rm.StartWatching(); err != nil {
		t.Fatalf("failed to start watching: %v", err)
	}
	if !rm.IsWatching() {
		t.Error("expected the manager to be watching after start")
	}
	if err := rm.StartWatching(); err == nil {
		t.Error("expected an error when starting twice")
	}
	if err := rm.StopWatching(); err != nil {
		t.Fatalf("failed to stop watching: %v", err)
	}
	if rm.IsWatching() {
		t.Error("expected the manager to be stopped")
	}
}

func TestReloadManager_DebouncesRapidChanges(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping file-watch test in short mode")
	}

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "bandproj.config.json")
	writeConfigFile(t, configPath, testConfigMap())

	rm := config.NewReloadManager(configPath, logger.CreateLoggerWithOutput("error", io.Discard))
	rm.SetDebouncePeriod(200 * time.Millisecond)

	reloads := make(chan *types.Config, 8)
	rm.AddCallback(func(cfg *types.Config, err error) {
		if err != nil {
			t.Errorf("unexpected reload error: %v", err)
			return
		}
		reloads <- cfg
	})

	if err := rm.StartWatching(); err != nil {
		t.Fatalf("failed to start watching: %v", err)
	}
	defer rm.StopWatching()

	// Two rapid writes inside the debounce period must collapse into a
	// single reload carrying the final content.
	m := testConfigMap()
	m["groups"].([]map[string]interface{})[0]["name"] = "first"
	writeConfigFile(t, configPath, m)
	time.Sleep(50 * time.Millisecond)
	m["groups"].([]map[string]interface{})[0]["name"] = "second"
	writeConfigFile(t, configPath, m)

	select {
	case cfg := <-reloads:
		if cfg.Groups[0].Name != "second" {
			t.Errorf("expected the reload to carry the final config, got group %q", cfg.Groups[0].Name)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a reload")
	}

	select {
	case <-reloads:
		t.Error("expected rapid changes to collapse into one reload")
	case <-time.After(500 * time.Millisecond):
	}
}

func TestReloadManager_ReportsInvalidConfig(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping file-watch test in short mode")
	}

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "bandproj.config.json")
	writeConfigFile(t, configPath, testConfigMap())

	rm := config.NewReloadManager(configPath, logger.CreateLoggerWithOutput("error", io.Discard))
	rm.SetDebouncePeriod(100 * time.Millisecond)

	errs := make(chan error, 8)
	rm.AddCallback(func(cfg *types.Config, err error) {
		if err != nil {
			errs <- err
		}
	})

	if err := rm.StartWatching(); err != nil {
		t.Fatalf("failed to start watching: %v", err)
	}
	defer rm.StopWatching()

	m := testConfigMap()
	m["version"] = "9.9"
	writeConfigFile(t, configPath, m)

	select {
	case <-errs:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a reload error")
	}
}
