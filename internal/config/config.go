package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

const (
	defaultExternalHTTPTimeoutSeconds = 90
	defaultLLMTimeoutSeconds          = 30
	defaultLLMMaxRetries              = 1
	defaultLLMRequestsPerMinute       = 60
	defaultReprocessConcurrency       = 4
	defaultDBPath                     = "./complaintqa.db"
)

type Config struct {
	LLMProvider          string `yaml:"llm_provider"`
	LLMModel             string `yaml:"llm_model"`
	AnthropicAPIKey      string `yaml:"anthropic_api_key"`
	OpenAIAPIKey         string `yaml:"openai_api_key"`
	OpenAIBaseURL        string `yaml:"openai_base_url"`
	LLMTimeoutSeconds    int    `yaml:"llm_timeout_seconds"`
	LLMMaxRetries        int    `yaml:"llm_max_retries"`
	LLMRequestsPerMinute int    `yaml:"llm_requests_per_minute"`
	LLMGlossaryPath      string `yaml:"llm_glossary_path"`

	DBPath                     string `yaml:"db_path"`
	ExternalHTTPTimeoutSeconds int    `yaml:"external_http_timeout_seconds"`

	ReprocessSchedule    string `yaml:"reprocess_schedule"`
	ReprocessConcurrency int    `yaml:"reprocess_concurrency"`

	SlackBotToken       string   `yaml:"slack_bot_token"`
	SlackAppToken       string   `yaml:"slack_app_token"`
	SlackAlertChannelID string   `yaml:"slack_alert_channel_id"`
	SlackAdminUsers     []string `yaml:"slack_admin_users"`

	Timezone string         `yaml:"timezone"`
	Location *time.Location `yaml:"-"` // computed from Timezone, not from YAML
}

// LoadConfig reads .env (if present), the YAML file at CONFIG_PATH (default
// ./config.yaml) and environment overrides, then applies defaults. Invalid
// values are fatal; a missing LLM credential is not.
func LoadConfig() Config {
	if err := godotenv.Load(); err == nil {
		log.Printf("Loaded environment from .env")
	}

	// Keys whose zero value is meaningful get their default before decoding.
	cfg := Config{LLMMaxRetries: defaultLLMMaxRetries}

	configPath := "config.yaml"
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		configPath = envPath
	}
	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			log.Fatalf("Error parsing %s: %v", configPath, err)
		}
		log.Printf("Loaded config from %s", configPath)
	}

	envOverride(&cfg.LLMProvider, "LLM_PROVIDER")
	envOverride(&cfg.LLMModel, "LLM_MODEL")
	envOverride(&cfg.AnthropicAPIKey, "ANTHROPIC_API_KEY")
	envOverride(&cfg.OpenAIAPIKey, "OPENAI_API_KEY")
	envOverride(&cfg.OpenAIBaseURL, "OPENAI_BASE_URL")
	envOverrideInt(&cfg.LLMTimeoutSeconds, "LLM_TIMEOUT_SECONDS")
	envOverrideInt(&cfg.LLMMaxRetries, "LLM_MAX_RETRIES")
	envOverrideInt(&cfg.LLMRequestsPerMinute, "LLM_REQUESTS_PER_MINUTE")
	envOverride(&cfg.LLMGlossaryPath, "LLM_GLOSSARY_PATH")
	envOverride(&cfg.DBPath, "DB_PATH")
	envOverrideInt(&cfg.ExternalHTTPTimeoutSeconds, "EXTERNAL_HTTP_TIMEOUT_SECONDS")
	envOverrideAllowEmpty(&cfg.ReprocessSchedule, "REPROCESS_SCHEDULE")
	envOverrideInt(&cfg.ReprocessConcurrency, "REPROCESS_CONCURRENCY")
	envOverride(&cfg.SlackBotToken, "SLACK_BOT_TOKEN")
	envOverride(&cfg.SlackAppToken, "SLACK_APP_TOKEN")
	envOverride(&cfg.SlackAlertChannelID, "SLACK_ALERT_CHANNEL_ID")
	envOverrideList(&cfg.SlackAdminUsers, "SLACK_ADMIN_USERS")
	envOverride(&cfg.Timezone, "TIMEZONE")

	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		log.Fatalf("%v", err)
	}

	if strings.EqualFold(cfg.Timezone, "Local") {
		cfg.Location = time.Local
	} else {
		loc, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			log.Fatalf("invalid timezone '%s': %v", cfg.Timezone, err)
		}
		cfg.Location = loc
	}

	if !cfg.LLMConfigured() {
		log.Printf("WARNING: no %s API key configured. Analyses will be rule-based only.", cfg.LLMProvider)
	}
	return cfg
}

func applyDefaults(cfg *Config) {
	cfg.LLMProvider = strings.ToLower(strings.TrimSpace(cfg.LLMProvider))
	if cfg.LLMProvider == "" {
		cfg.LLMProvider = "anthropic"
	}
	if cfg.LLMTimeoutSeconds == 0 {
		cfg.LLMTimeoutSeconds = defaultLLMTimeoutSeconds
	}
	if cfg.LLMRequestsPerMinute == 0 {
		cfg.LLMRequestsPerMinute = defaultLLMRequestsPerMinute
	}
	if cfg.DBPath == "" {
		cfg.DBPath = defaultDBPath
	}
	if cfg.ExternalHTTPTimeoutSeconds == 0 {
		cfg.ExternalHTTPTimeoutSeconds = defaultExternalHTTPTimeoutSeconds
	}
	if cfg.ReprocessConcurrency == 0 {
		cfg.ReprocessConcurrency = defaultReprocessConcurrency
	}
	if cfg.Timezone == "" {
		cfg.Timezone = "Local"
	}
}

// Validate reports the first invalid setting. It does not require any
// credential.
func (c Config) Validate() error {
	switch c.LLMProvider {
	case "anthropic", "openai":
	default:
		return fmt.Errorf("llm_provider must be 'anthropic' or 'openai', got '%s'", c.LLMProvider)
	}
	if c.LLMTimeoutSeconds < 1 {
		return fmt.Errorf("invalid llm_timeout_seconds '%d': must be >= 1", c.LLMTimeoutSeconds)
	}
	if c.LLMMaxRetries < 0 || c.LLMMaxRetries > 3 {
		return fmt.Errorf("invalid llm_max_retries '%d': must be between 0 and 3", c.LLMMaxRetries)
	}
	if c.LLMRequestsPerMinute < 1 {
		return fmt.Errorf("invalid llm_requests_per_minute '%d': must be >= 1", c.LLMRequestsPerMinute)
	}
	if c.ExternalHTTPTimeoutSeconds < 5 {
		return fmt.Errorf("invalid external_http_timeout_seconds '%d': must be >= 5", c.ExternalHTTPTimeoutSeconds)
	}
	if c.ReprocessConcurrency < 1 || c.ReprocessConcurrency > 32 {
		return fmt.Errorf("invalid reprocess_concurrency '%d': must be between 1 and 32", c.ReprocessConcurrency)
	}
	if strings.TrimSpace(c.ReprocessSchedule) != "" {
		if _, err := ParseSchedule(c.ReprocessSchedule); err != nil {
			return fmt.Errorf("invalid reprocess_schedule '%s': %w", c.ReprocessSchedule, err)
		}
	}
	if c.LLMGlossaryPath != "" {
		if _, err := os.Stat(c.LLMGlossaryPath); err != nil {
			return fmt.Errorf("invalid llm_glossary_path '%s': %w", c.LLMGlossaryPath, err)
		}
	}
	return nil
}

// ParseSchedule parses a standard five-field cron expression.
func ParseSchedule(expr string) (cron.Schedule, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	return parser.Parse(strings.TrimSpace(expr))
}

// LLMConfigured reports whether the selected provider has a credential.
func (c Config) LLMConfigured() bool {
	switch c.LLMProvider {
	case "openai":
		return strings.TrimSpace(c.OpenAIAPIKey) != ""
	case "anthropic":
		return strings.TrimSpace(c.AnthropicAPIKey) != ""
	}
	return false
}

func (c Config) SlackConfigured() bool {
	return c.SlackBotToken != "" && c.SlackAppToken != ""
}

func (c Config) LLMTimeout() time.Duration {
	return time.Duration(c.LLMTimeoutSeconds) * time.Second
}

func envOverride(field *string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}

func envOverrideAllowEmpty(field *string, envKey string) {
	if val, ok := os.LookupEnv(envKey); ok {
		*field = val
	}
}

func envOverrideInt(field *int, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			log.Fatalf("invalid %s '%s': %v", envKey, val, err)
		}
		*field = parsed
	}
}

func envOverrideList(field *[]string, envKey string) {
	raw := os.Getenv(envKey)
	if raw == "" {
		return
	}
	var out []string
	for _, v := range strings.Split(raw, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	*field = out
}
