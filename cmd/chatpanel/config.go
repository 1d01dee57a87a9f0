package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/calegann/chatpanel/internal/backend"
	"github.com/calegann/chatpanel/internal/relay"
)

const defaultAddress = "localhost:8190"

// defaultTitlePrompt instructs the title backend when the config enables
// title generation without naming a prompt of its own.
const defaultTitlePrompt = "Generate a title for this chat with only one " +
	"short sentence of at most five words. Answer with the title only."

// chatBackend is the provider surface the commands hand out: streaming chat
// for the relay, one-shot completions for chat titles, and a connectivity
// probe for the check command.
type chatBackend interface {
	relay.LLM
	backend.Titler
	Ping(ctx context.Context) error
}

type llmConfig interface {
	llm(systemPrompt string, logger *slog.Logger) (chatBackend, error)
	titleGen(systemPrompt string, logger *slog.Logger) (backend.Titler, error)
	model() string
}

// BaseLLMConfig contains the common fields for all LLM configurations.
type BaseLLMConfig struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
}

type titleGeneratorConfig struct {
	Enabled bool   `yaml:"enabled"`
	Prompt  string `yaml:"prompt"`
}

type config struct {
	Address        string               `yaml:"address"`
	SystemPrompt   string               `yaml:"systemPrompt"`
	TitleGenerator titleGeneratorConfig `yaml:"titleGenerator"`
	LLM            llmConfig            `yaml:"llm"`
}

type ollamaConfig struct {
	BaseLLMConfig `yaml:",inline"`
	Host          string `yaml:"host"`
}

type openAIConfig struct {
	BaseLLMConfig `yaml:",inline"`
	APIKey        string `yaml:"apiKey"`
	BaseURL       string `yaml:"baseURL"`
}

type lmStudioConfig struct {
	BaseLLMConfig `yaml:",inline"`
	Host          string `yaml:"host"`
}

func loadConfig(path string) (config, error) {
	if path == "" {
		cfgDir, err := os.UserConfigDir()
		if err != nil {
			return config{}, fmt.Errorf("error getting user config dir: %w", err)
		}
		path = filepath.Join(cfgDir, "chatpanel", "config.yaml")
	}

	f, err := os.Open(path)
	if err != nil {
		return config{}, fmt.Errorf("error opening config file: %w", err)
	}
	defer f.Close()

	cfg := config{}
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return config{}, fmt.Errorf("error decoding config file: %w", err)
	}

	if cfg.Address == "" {
		cfg.Address = defaultAddress
	}
	if cfg.TitleGenerator.Prompt == "" {
		cfg.TitleGenerator.Prompt = defaultTitlePrompt
	}

	return cfg, nil
}

func (c *config) UnmarshalYAML(value *yaml.Node) error {
	var rawConfig struct {
		Address        string               `yaml:"address"`
		SystemPrompt   string               `yaml:"systemPrompt"`
		TitleGenerator titleGeneratorConfig `yaml:"titleGenerator"`
		LLM            map[string]any       `yaml:"llm"`
	}

	if err := value.Decode(&rawConfig); err != nil {
		return err
	}

	c.Address = rawConfig.Address
	c.SystemPrompt = rawConfig.SystemPrompt
	c.TitleGenerator = rawConfig.TitleGenerator

	llmProvider, ok := rawConfig.LLM["provider"].(string)
	if !ok {
		return fmt.Errorf("llm provider is required")
	}

	llmRawYAML, err := yaml.Marshal(rawConfig.LLM)
	if err != nil {
		return err
	}

	var llm llmConfig
	switch llmProvider {
	case "ollama":
		llm = &ollamaConfig{}
	case "openai":
		llm = &openAIConfig{}
	case "lmstudio":
		llm = &lmStudioConfig{}
	default:
		return fmt.Errorf("unknown llm provider: %s", llmProvider)
	}

	if err := yaml.Unmarshal(llmRawYAML, llm); err != nil {
		return err
	}

	c.LLM = llm

	return nil
}

func (o ollamaConfig) newOllama(systemPrompt string) (backend.Ollama, error) {
	if o.Model == "" {
		return backend.Ollama{}, fmt.Errorf("model is required")
	}

	host := o.Host
	if host == "" {
		host = os.Getenv("OLLAMA_HOST")
	}
	return backend.NewOllama(host, systemPrompt), nil
}

func (o ollamaConfig) llm(systemPrompt string, _ *slog.Logger) (chatBackend, error) {
	return o.newOllama(systemPrompt)
}

func (o ollamaConfig) titleGen(systemPrompt string, _ *slog.Logger) (backend.Titler, error) {
	return o.newOllama(systemPrompt)
}

func (o ollamaConfig) model() string { return o.Model }

func (o openAIConfig) newOpenAI(systemPrompt string, logger *slog.Logger) (backend.OpenAI, error) {
	if o.Model == "" {
		return backend.OpenAI{}, fmt.Errorf("model is required")
	}

	apiKey := o.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return backend.OpenAI{}, fmt.Errorf("apiKey is required")
	}
	return backend.NewOpenAI(apiKey, o.BaseURL, systemPrompt, logger), nil
}

func (o openAIConfig) llm(systemPrompt string, logger *slog.Logger) (chatBackend, error) {
	return o.newOpenAI(systemPrompt, logger)
}

func (o openAIConfig) titleGen(systemPrompt string, logger *slog.Logger) (backend.Titler, error) {
	return o.newOpenAI(systemPrompt, logger)
}

func (o openAIConfig) model() string { return o.Model }

func (l lmStudioConfig) newLMStudio(systemPrompt string, logger *slog.Logger) (backend.LMStudio, error) {
	if l.Model == "" {
		return backend.LMStudio{}, fmt.Errorf("model is required")
	}
	return backend.NewLMStudio(l.Host, systemPrompt, logger), nil
}

func (l lmStudioConfig) llm(systemPrompt string, logger *slog.Logger) (chatBackend, error) {
	return l.newLMStudio(systemPrompt, logger)
}

func (l lmStudioConfig) titleGen(systemPrompt string, logger *slog.Logger) (backend.Titler, error) {
	return l.newLMStudio(systemPrompt, logger)
}

func (l lmStudioConfig) model() string { return l.Model }
