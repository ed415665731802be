package config

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

const (
	DefaultAssistantName         = "QA Assistant"
	DefaultAssistantInstructions = "You are a helpful QA assistant."
	DefaultAssistantModel        = "gpt-4-1106-preview"
)

// AssistantConfig describes the persona created on the remote API for each session
type AssistantConfig struct {
	Name         string `yaml:"name"`
	Instructions string `yaml:"instructions"`
	Model        string `yaml:"model"`
}

// GetAssistantConfig builds the persona from defaults, the optional YAML file
// named by ASSISTANT_CONFIG_PATH, and finally individual environment variables
func GetAssistantConfig() (AssistantConfig, error) {
	cfg := AssistantConfig{
		Name:         DefaultAssistantName,
		Instructions: DefaultAssistantInstructions,
		Model:        DefaultAssistantModel,
	}

	if path := GetEnvOrDefault("ASSISTANT_CONFIG_PATH", ""); path != "" {
		fileCfg, err := LoadAssistantConfig(path)
		if err != nil {
			return AssistantConfig{}, err
		}
		cfg = cfg.merge(*fileCfg)
		log.Info().Str("path", path).Msg("Loaded assistant persona from file")
	}

	cfg = cfg.merge(AssistantConfig{
		Name:         GetEnvOrDefault("ASSISTANT_NAME", ""),
		Instructions: GetEnvOrDefault("ASSISTANT_INSTRUCTIONS", ""),
		Model:        GetEnvOrDefault("ASSISTANT_MODEL", ""),
	})

	return cfg, nil
}

// LoadAssistantConfig reads a persona definition from a YAML file
func LoadAssistantConfig(path string) (*AssistantConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read assistant config: %w", err)
	}

	var cfg AssistantConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse assistant config: %w", err)
	}

	return &cfg, nil
}

func (c AssistantConfig) merge(override AssistantConfig) AssistantConfig {
	if override.Name != "" {
		c.Name = override.Name
	}
	if override.Instructions != "" {
		c.Instructions = override.Instructions
	}
	if override.Model != "" {
		c.Model = override.Model
	}
	return c
}
