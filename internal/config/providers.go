package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Provider describes one OpenAI-compatible endpoint.
type Provider struct {
	Name         string `toml:"name"`
	BaseURL      string `toml:"base_url"`
	APIKeyEnv    string `toml:"api_key_env"`
	DefaultModel string `toml:"default_model"`
}

// APIKey reads the provider key from the environment variable it names.
func (p Provider) APIKey() string {
	if p.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(p.APIKeyEnv)
}

type catalogFile struct {
	Providers []Provider `toml:"provider"`
}

// DefaultProviders is the built-in catalog.
func DefaultProviders() []Provider {
	return []Provider{
		{Name: "openai", BaseURL: "https://api.openai.com/v1/", APIKeyEnv: "OPENAI_API_KEY", DefaultModel: "gpt-4o-mini"},
		{Name: "anthropic", BaseURL: "https://api.anthropic.com/v1/", APIKeyEnv: "ANTHROPIC_API_KEY", DefaultModel: "claude-3-5-haiku-latest"},
		{Name: "groq", BaseURL: "https://api.groq.com/openai/v1/", APIKeyEnv: "GROQ_API_KEY", DefaultModel: "llama-3.1-8b-instant"},
		{Name: "mistral", BaseURL: "https://api.mistral.ai/v1/", APIKeyEnv: "MISTRAL_API_KEY", DefaultModel: "mistral-small-latest"},
		{Name: "deepseek", BaseURL: "https://api.deepseek.com/v1/", APIKeyEnv: "DEEPSEEK_API_KEY", DefaultModel: "deepseek-chat"},
		{Name: "openrouter", BaseURL: "https://openrouter.ai/api/v1/", APIKeyEnv: "OPENROUTER_API_KEY", DefaultModel: "openai/gpt-4o-mini"},
		{Name: "ollama", BaseURL: "http://localhost:11434/v1/", DefaultModel: "llama3.2"},
	}
}

// LoadProviders returns the built-in catalog merged with the entries of the
// TOML file at path. File entries replace built-ins of the same name.
// An empty path yields the built-in catalog.
func LoadProviders(path string) ([]Provider, error) {
	providers := DefaultProviders()
	if path == "" {
		return providers, nil
	}
	var file catalogFile
	if _, err := toml.DecodeFile(path, &file); err != nil {
		return nil, fmt.Errorf("decode providers %s: %w", path, err)
	}
	return mergeProviders(providers, file.Providers)
}

func mergeProviders(base, overrides []Provider) ([]Provider, error) {
	index := make(map[string]int, len(base))
	for i, p := range base {
		index[p.Name] = i
	}
	for _, p := range overrides {
		if p.Name == "" {
			return nil, fmt.Errorf("provider entry without name")
		}
		if p.DefaultModel == "" {
			return nil, fmt.Errorf("provider %s: default_model required", p.Name)
		}
		if i, ok := index[p.Name]; ok {
			base[i] = p
			continue
		}
		index[p.Name] = len(base)
		base = append(base, p)
	}
	return base, nil
}
