package config

import "testing"

// TestLoadDefaults verifies defaults apply when the environment is empty.
func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.World.Width != 1280 || cfg.World.Height != 720 {
		t.Errorf("Expected 1280x720 world, got %.0fx%.0f", cfg.World.Width, cfg.World.Height)
	}
	if cfg.Index.NodeCapacity != 4 {
		t.Errorf("Expected node capacity 4, got %d", cfg.Index.NodeCapacity)
	}
	if cfg.Server.Port != 3000 {
		t.Errorf("Expected port 3000, got %d", cfg.Server.Port)
	}
}

// TestEnvOverrides verifies environment variables win over defaults.
func TestEnvOverrides(t *testing.T) {
	t.Setenv("WORLD_WIDTH", "640")
	t.Setenv("NODE_CAPACITY", "8")
	t.Setenv("PORT", "8080")
	t.Setenv("MAX_AGENTS", "10")
	t.Setenv("DEBUG_SERVER", "false")

	cfg := Load()
	if cfg.World.Width != 640 {
		t.Errorf("Expected world width 640, got %.0f", cfg.World.Width)
	}
	if cfg.Index.NodeCapacity != 8 {
		t.Errorf("Expected node capacity 8, got %d", cfg.Index.NodeCapacity)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Expected port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Limits.MaxAgents != 10 {
		t.Errorf("Expected max agents 10, got %d", cfg.Limits.MaxAgents)
	}
	if cfg.Server.DebugServer {
		t.Error("Expected debug server disabled")
	}
}

// TestInvalidEnvIgnored verifies unparsable values fall back to defaults.
func TestInvalidEnvIgnored(t *testing.T) {
	t.Setenv("TICK_RATE", "fast")
	t.Setenv("WORLD_WIDTH", "-100")

	cfg := Load()
	if cfg.World.TickRate != 30 {
		t.Errorf("Expected default tick rate 30, got %d", cfg.World.TickRate)
	}
	if cfg.World.Width != 1280 {
		t.Errorf("Expected default width 1280, got %.0f", cfg.World.Width)
	}
}
