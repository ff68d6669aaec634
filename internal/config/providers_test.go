package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadProvidersWithoutFile(t *testing.T) {
	providers, err := LoadProviders("")
	if err != nil {
		t.Fatal(err)
	}
	if len(providers) != len(DefaultProviders()) {
		t.Errorf("got %d providers", len(providers))
	}
}

func TestLoadProvidersMergesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "providers.toml")
	content := `
[[provider]]
name = "ollama"
base_url = "http://gpu-box:11434/v1/"
default_model = "qwen2.5-coder"

[[provider]]
name = "local"
base_url = "http://localhost:8000/v1/"
api_key_env = "LOCAL_KEY"
default_model = "tiny"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	providers, err := LoadProviders(path)
	if err != nil {
		t.Fatal(err)
	}
	byName := map[string]Provider{}
	for _, p := range providers {
		byName[p.Name] = p
	}
	if got := byName["ollama"]; got.BaseURL != "http://gpu-box:11434/v1/" || got.DefaultModel != "qwen2.5-coder" {
		t.Errorf("ollama not overridden: %+v", got)
	}
	local, ok := byName["local"]
	if !ok {
		t.Fatal("local provider missing")
	}
	t.Setenv("LOCAL_KEY", "secret")
	if local.APIKey() != "secret" {
		t.Errorf("api key %q", local.APIKey())
	}
	if len(providers) != len(DefaultProviders())+1 {
		t.Errorf("got %d providers", len(providers))
	}
}

func TestLoadProvidersRejectsIncompleteEntries(t *testing.T) {
	tests := map[string]string{
		"missing name":  "[[provider]]\ndefault_model = \"m\"\n",
		"missing model": "[[provider]]\nname = \"x\"\n",
		"bad toml":      "[[provider]\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "p.toml")
			if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, err := LoadProviders(path); err == nil {
				t.Error("expected error")
			}
		})
	}
}
