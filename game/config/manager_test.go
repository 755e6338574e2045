package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/wricardo/mcp-training/knightstour/game/engine"
)

func createValidConfig() *engine.GameConfig {
	return &engine.GameConfig{
		Name:        "Test Config",
		Description: "Test configuration",
		BoardSize:   5,
		AutoResetMs: 1000,
		Messages: engine.Messages{
			Welcome: "Welcome!",
			Victory: "Toured!",
		},
	}
}

func writeConfigFile(t *testing.T, dir, name string, config *engine.GameConfig) {
	t.Helper()
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		t.Fatalf("Failed to marshal config: %v", err)
	}

	filename := name
	if filepath.Ext(filename) == "" {
		filename = name + ".json"
	}

	if err := os.WriteFile(filepath.Join(dir, filename), data, 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
}

func TestNewManager(t *testing.T) {
	t.Run("valid directory", func(t *testing.T) {
		dir := t.TempDir()
		writeConfigFile(t, dir, "classic", createValidConfig())

		manager, err := NewManager(dir)
		if err != nil {
			t.Fatalf("Failed to create manager: %v", err)
		}
		if manager.GetDefault().Name != "Test Config" {
			t.Errorf("Expected classic to be the default, got %s", manager.GetDefault().Name)
		}
	})

	t.Run("non-existent directory", func(t *testing.T) {
		if _, err := NewManager("/non/existent/path"); err == nil {
			t.Error("Expected error for non-existent directory")
		}
	})

	t.Run("empty directory", func(t *testing.T) {
		manager, err := NewManager(t.TempDir())
		if err != nil {
			t.Fatalf("NewManager should succeed without config files, got: %v", err)
		}

		def := manager.GetDefault()
		if def == nil {
			t.Fatal("Expected a built-in default config")
		}
		if def.BoardSize != engine.DefaultBoardSize {
			t.Errorf("Expected built-in default size %d, got %d", engine.DefaultBoardSize, def.BoardSize)
		}
	})
}

func TestManager_LoadConfig(t *testing.T) {
	dir := t.TempDir()

	writeConfigFile(t, dir, "classic", createValidConfig())

	big := createValidConfig()
	big.Name = "Big"
	big.BoardSize = 10
	writeConfigFile(t, dir, "big", big)

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	t.Run("load existing config", func(t *testing.T) {
		config, err := manager.LoadConfig("big")
		if err != nil {
			t.Fatalf("Failed to load config: %v", err)
		}
		if config.BoardSize != 10 {
			t.Errorf("Expected board size 10, got %d", config.BoardSize)
		}
	})

	t.Run("load with .json extension", func(t *testing.T) {
		config, err := manager.LoadConfig("big.json")
		if err != nil {
			t.Fatalf("Failed to load config with extension: %v", err)
		}
		if config.Name != "Big" {
			t.Errorf("Expected config name 'Big', got '%s'", config.Name)
		}
	})

	t.Run("load from cache", func(t *testing.T) {
		config1, _ := manager.LoadConfig("big")
		config2, err := manager.LoadConfig("big")
		if err != nil {
			t.Fatalf("Failed to load config from cache: %v", err)
		}
		if config1 != config2 {
			t.Error("Expected config to be loaded from cache")
		}
	})

	t.Run("load non-existent config", func(t *testing.T) {
		if _, err := manager.LoadConfig("non-existent"); err != ErrConfigNotFound {
			t.Errorf("Expected ErrConfigNotFound, got %v", err)
		}
	})

	t.Run("load invalid config", func(t *testing.T) {
		os.WriteFile(filepath.Join(dir, "invalid.json"), []byte(`{"name": "x", "description": "y", "board_size": 20}`), 0644)

		_, err := manager.LoadConfig("invalid")
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("Expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("load malformed JSON", func(t *testing.T) {
		os.WriteFile(filepath.Join(dir, "malformed.json"), []byte(`{"name": "Malformed", invalid json}`), 0644)

		if _, err := manager.LoadConfig("malformed"); err == nil {
			t.Error("Expected error for malformed JSON")
		}
	})
}

func TestManager_GetDefault_FallsBackToFirst(t *testing.T) {
	dir := t.TempDir()

	beta := createValidConfig()
	beta.Name = "Beta"
	writeConfigFile(t, dir, "beta", beta)

	alpha := createValidConfig()
	alpha.Name = "Alpha"
	writeConfigFile(t, dir, "alpha", alpha)

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	if got := manager.GetDefault().Name; got != "Alpha" {
		t.Errorf("Expected first preset by id to be the default, got %s", got)
	}

	if err := manager.SetDefault("beta"); err != nil {
		t.Fatalf("SetDefault failed: %v", err)
	}
	if got := manager.GetDefault().Name; got != "Beta" {
		t.Errorf("Expected Beta after SetDefault, got %s", got)
	}
}

func TestManager_ListConfigs(t *testing.T) {
	dir := t.TempDir()

	presets := []struct {
		filename string
		size     int
	}{
		{"classic", 5},
		{"six", 6},
		{"chessboard", 8},
		{"grand", 13},
	}
	for _, p := range presets {
		config := createValidConfig()
		config.Name = p.filename
		config.BoardSize = p.size
		writeConfigFile(t, dir, p.filename, config)
	}

	// Ignored entries
	os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("readme"), 0644)
	os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{"), 0644)

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	list, err := manager.ListConfigs()
	if err != nil {
		t.Fatalf("Failed to list configs: %v", err)
	}
	if len(list) != len(presets) {
		t.Fatalf("Expected %d configs, got %d", len(presets), len(list))
	}

	want := []string{"chessboard", "classic", "grand", "six"}
	for i, info := range list {
		if info.ConfigID != want[i] {
			t.Errorf("Position %d: expected %s, got %s", i, want[i], info.ConfigID)
		}
		if info.Filename != info.ConfigID+".json" {
			t.Errorf("Unexpected filename %s for %s", info.Filename, info.ConfigID)
		}
	}
	if list[2].BoardSize != 13 {
		t.Errorf("Expected grand to report size 13, got %d", list[2].BoardSize)
	}
}

func TestManager_ReloadConfig(t *testing.T) {
	dir := t.TempDir()

	config := createValidConfig()
	writeConfigFile(t, dir, "changeable", config)

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	loaded, _ := manager.LoadConfig("changeable")
	if loaded.BoardSize != 5 {
		t.Errorf("Expected initial size 5, got %d", loaded.BoardSize)
	}

	config.BoardSize = 7
	writeConfigFile(t, dir, "changeable", config)

	if err := manager.ReloadConfig("changeable"); err != nil {
		t.Fatalf("Failed to reload config: %v", err)
	}

	reloaded, _ := manager.LoadConfig("changeable")
	if reloaded.BoardSize != 7 {
		t.Errorf("Expected reloaded size 7, got %d", reloaded.BoardSize)
	}
	if manager.GetDefault().BoardSize != 7 {
		t.Errorf("Expected the default to follow its reloaded file, got size %d", manager.GetDefault().BoardSize)
	}

	if err := manager.ReloadConfig("gone"); !errors.Is(err, ErrConfigNotFound) {
		t.Errorf("Expected ErrConfigNotFound for a missing file, got %v", err)
	}
}

func TestManager_RefreshCache(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "classic", createValidConfig())
	writeConfigFile(t, dir, "other", createValidConfig())

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}
	manager.LoadConfig("other")

	if err := manager.RefreshCache(); err != nil {
		t.Fatalf("RefreshCache failed: %v", err)
	}
	if manager.Count() != 1 {
		t.Errorf("Expected only the default in cache after refresh, got %d", manager.Count())
	}
}

func TestManager_RefreshCache_KeepsChosenDefault(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "classic", createValidConfig())
	big := createValidConfig()
	big.Name = "Big"
	big.BoardSize = 10
	writeConfigFile(t, dir, "big", big)

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}
	if err := manager.SetDefault("big"); err != nil {
		t.Fatalf("SetDefault failed: %v", err)
	}

	if err := manager.RefreshCache(); err != nil {
		t.Fatalf("RefreshCache failed: %v", err)
	}
	if got := manager.GetDefault().Name; got != "Big" {
		t.Errorf("Expected Big to stay the default, got %s", got)
	}

	os.Remove(filepath.Join(dir, "big.json"))
	if err := manager.RefreshCache(); err != nil {
		t.Fatalf("RefreshCache failed: %v", err)
	}
	if got := manager.GetDefault().BoardSize; got != 5 {
		t.Errorf("Expected fallback to classic once big.json is gone, got size %d", got)
	}
}

func TestManager_ValidateConfig(t *testing.T) {
	manager, err := NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	if err := manager.ValidateConfig(createValidConfig()); err != nil {
		t.Errorf("Expected valid config to pass validation: %v", err)
	}

	config := createValidConfig()
	config.Name = ""
	if err := manager.ValidateConfig(config); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig for missing name, got %v", err)
	}

	config = createValidConfig()
	config.BoardSize = 2
	if err := manager.ValidateConfig(config); err == nil {
		t.Error("Expected error for a 2x2 board")
	}
}

func TestManager_SaveConfig(t *testing.T) {
	dir := t.TempDir()
	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	config := createValidConfig()
	config.Name = "Saved"
	config.BoardSize = 9
	if err := manager.SaveConfig("saved", config); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "saved.json")); err != nil {
		t.Errorf("Expected saved.json on disk: %v", err)
	}

	loaded, err := manager.LoadConfig("saved")
	if err != nil || loaded.BoardSize != 9 {
		t.Errorf("Expected saved config to load with size 9, got %v / %v", loaded, err)
	}

	bad := createValidConfig()
	bad.BoardSize = 99
	if err := manager.SaveConfig("bad", bad); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}

	if err := manager.SaveConfig("../escape", createValidConfig()); err == nil {
		t.Error("Expected error for a name containing a path separator")
	}
}

func TestManager_ConcurrentAccess(t *testing.T) {
	dir := t.TempDir()

	for i := 1; i <= 5; i++ {
		config := createValidConfig()
		config.Name = "Config" + string(rune('0'+i))
		writeConfigFile(t, dir, "config"+string(rune('0'+i)), config)
	}

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 50)

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			configName := "config" + string(rune('0'+((id%5)+1)))
			if _, err := manager.LoadConfig(configName); err != nil {
				errs <- err
			}
		}(i)
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("Unexpected error during concurrent access: %v", err)
	}

	if manager.Count() < 5 {
		t.Errorf("Expected at least 5 configs in cache, got %d", manager.Count())
	}
}

func TestShippedPresets(t *testing.T) {
	manager, err := NewManager(filepath.Join("..", "..", "configs"))
	if err != nil {
		t.Fatalf("Failed to open shipped presets: %v", err)
	}

	list, err := manager.ListConfigs()
	if err != nil {
		t.Fatalf("Failed to list shipped presets: %v", err)
	}
	if len(list) < 3 {
		t.Errorf("Expected at least 3 shipped presets, got %d", len(list))
	}

	if manager.GetDefault().BoardSize != 5 {
		t.Errorf("Expected classic 5x5 as the default, got %d", manager.GetDefault().BoardSize)
	}
}
