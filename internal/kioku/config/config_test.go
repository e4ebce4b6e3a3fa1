package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// setDiscordBaseline sets the minimum environment for a valid discord
// configuration. t.Setenv restores everything afterwards.
func setDiscordBaseline(t *testing.T) {
	t.Helper()
	t.Setenv("TRANSPORT", "discord")
	t.Setenv("DISCORD_TOKEN", "token")
	t.Setenv("ALLOWED_SERVER_ID", "123")
	t.Setenv("ALLOWED_CHANNEL_ID", "456")
	t.Setenv("LLM_PROVIDER", "lmstudio")
	t.Setenv("DATA_DIR", t.TempDir())
	// Clear knobs that might leak in from the host environment.
	for _, name := range []string{
		"LLM_BASE_URL", "MAX_MEMORIES_PER_QUERY", "CONTEXT_WINDOW_SIZE",
		"MEMORY_SIMILARITY_THRESHOLD", "TOP_MEMORIES_TO_CONSIDER",
		"API_TIMEOUT", "MAX_RETRIES", "MESSAGE_LIMIT", "PERSONA_FILE",
		"EMBEDDER",
	} {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
}

func TestLoad_Defaults(t *testing.T) {
	setDiscordBaseline(t)

	s, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if s.MaxMemoriesPerQuery != 15 {
		t.Errorf("MaxMemoriesPerQuery = %d, want 15", s.MaxMemoriesPerQuery)
	}
	if s.ContextWindowSize != 10 {
		t.Errorf("ContextWindowSize = %d, want 10", s.ContextWindowSize)
	}
	if s.MemorySimilarityThreshold != 0.15 {
		t.Errorf("MemorySimilarityThreshold = %g, want 0.15", s.MemorySimilarityThreshold)
	}
	if s.TopMemoriesToConsider != 8 {
		t.Errorf("TopMemoriesToConsider = %d, want 8", s.TopMemoriesToConsider)
	}
	if s.APITimeout != 30*time.Second {
		t.Errorf("APITimeout = %v, want 30s", s.APITimeout)
	}
	if s.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", s.MaxRetries)
	}
	if s.MessageLimit != 2000 {
		t.Errorf("MessageLimit = %d, want 2000", s.MessageLimit)
	}
	if s.Embedder != EmbedderFastEmbed {
		t.Errorf("Embedder = %q, want fastembed", s.Embedder)
	}
	if s.Persona.SystemPrompt == "" {
		t.Error("default persona must carry a system prompt")
	}
}

func TestLoad_CreatesDataDir(t *testing.T) {
	setDiscordBaseline(t)
	dataDir := filepath.Join(t.TempDir(), "nested", "data")
	t.Setenv("DATA_DIR", dataDir)

	s, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := os.Stat(s.VectorPath()); err != nil {
		t.Fatalf("vector dir not created: %v", err)
	}
	if got := s.LedgerPath(); got != filepath.Join(dataDir, "kioku.db") {
		t.Fatalf("LedgerPath = %q", got)
	}
}

func TestLoad_DiscordRequiresCredentials(t *testing.T) {
	setDiscordBaseline(t)
	t.Setenv("DISCORD_TOKEN", "")
	os.Unsetenv("DISCORD_TOKEN")

	if _, err := Load(); err == nil {
		t.Fatal("expected an error without DISCORD_TOKEN")
	}
}

func TestLoad_MatrixRequiresRooms(t *testing.T) {
	setDiscordBaseline(t)
	t.Setenv("TRANSPORT", "matrix")
	t.Setenv("MATRIX_HOMESERVER", "https://matrix.example.org")
	t.Setenv("MATRIX_USER_ID", "@kioku:example.org")
	t.Setenv("MATRIX_ACCESS_TOKEN", "secret")

	if _, err := Load(); err == nil {
		t.Fatal("expected an error without MATRIX_ALLOWED_ROOMS")
	}

	t.Setenv("MATRIX_ALLOWED_ROOMS", "!room:example.org")
	if _, err := Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
}

func TestLoad_RejectsUnknownSelectors(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"transport", "TRANSPORT", "carrier-pigeon"},
		{"provider", "LLM_PROVIDER", "oracle"},
		{"embedder", "EMBEDDER", "tarot"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setDiscordBaseline(t)
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Fatalf("expected an error for %s=%q", tt.key, tt.value)
			}
		})
	}
}

func TestLoad_HostedProviderNeedsKey(t *testing.T) {
	setDiscordBaseline(t)
	t.Setenv("LLM_PROVIDER", "gemini")

	if _, err := Load(); err == nil {
		t.Fatal("expected an error without GEMINI_API_KEY")
	}

	t.Setenv("GEMINI_API_KEY", "key")
	if _, err := Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
}

func TestLoad_RejectsOutOfRangeThreshold(t *testing.T) {
	setDiscordBaseline(t)
	t.Setenv("MEMORY_SIMILARITY_THRESHOLD", "1.5")

	if _, err := Load(); err == nil {
		t.Fatal("expected an error for a threshold above 1")
	}
}

func TestLoad_RejectsNonPositiveMemoryKnobs(t *testing.T) {
	tests := []struct {
		name string
		key  string
	}{
		{"max memories", "MAX_MEMORIES_PER_QUERY"},
		{"context window", "CONTEXT_WINDOW_SIZE"},
		{"top memories", "TOP_MEMORIES_TO_CONSIDER"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, value := range []string{"0", "-1"} {
				setDiscordBaseline(t)
				t.Setenv(tt.key, value)
				if _, err := Load(); err == nil {
					t.Fatalf("expected an error for %s=%s", tt.key, value)
				}
			}
		})
	}
}

func TestSensitiveValues_OnlyConfiguredCredentials(t *testing.T) {
	s := &Settings{DiscordToken: "token-abcd", OpenAIAPIKey: "sk-1234"}
	got := s.SensitiveValues()
	if len(got) != 2 || got[0] != "token-abcd" || got[1] != "sk-1234" {
		t.Fatalf("SensitiveValues = %v", got)
	}
	if vals := (&Settings{}).SensitiveValues(); len(vals) != 0 {
		t.Fatalf("expected no values for an empty config, got %v", vals)
	}
}

func TestLoadPersona_Default(t *testing.T) {
	p, err := LoadPersona("")
	if err != nil {
		t.Fatalf("LoadPersona: %v", err)
	}
	if p.Name != "Kioku" {
		t.Fatalf("default persona name = %q", p.Name)
	}
	if !strings.Contains(p.SystemPrompt, "friendly") {
		t.Fatal("default persona prompt looks wrong")
	}
}

func TestLoadPersona_ValidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "persona.yaml")
	content := "name: Archivist\nsystem_prompt: You are a meticulous archivist.\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	p, err := LoadPersona(path)
	if err != nil {
		t.Fatalf("LoadPersona: %v", err)
	}
	if p.Name != "Archivist" || p.SystemPrompt != "You are a meticulous archivist." {
		t.Fatalf("persona = %+v", p)
	}
}

func TestLoadPersona_InvalidFiles(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing prompt", "name: NoPrompt\n"},
		{"empty prompt", "system_prompt: \"\"\n"},
		{"unknown key", "system_prompt: ok\ntemperture: 0.7\n"},
		{"not yaml", "{{{{\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "persona.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, err := LoadPersona(path); err == nil {
				t.Fatalf("expected an error for %s", tt.name)
			}
		})
	}
}

func TestLoadPersona_MissingFile(t *testing.T) {
	if _, err := LoadPersona(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}
