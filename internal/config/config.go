// Package config loads the configuration surface documented in spec.md §6:
// LLM provider selection, subtitle chunk budget, scoring threshold,
// collection size cap, retry/timeout policy, and scheduler concurrency
// caps. Values come from environment variables (bound via viper) with
// defaults, and are validated before use.
package config

import (
	"fmt"
	"reflect"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config is the full, validated configuration surface for a clipforge
// process (pipeline worker + API facade).
type Config struct {
	// ApiProvider selects the LLMGateway backend: "openai" or "anthropic".
	ApiProvider string `mapstructure:"API_PROVIDER" validate:"required,oneof=openai anthropic"`
	ModelName   string `mapstructure:"MODEL_NAME"`

	// ChunkSize is the subtitle chunk character budget (spec default 5000).
	ChunkSize int `mapstructure:"CHUNK_SIZE" validate:"gt=0"`

	// MinScoreThreshold is the stage-3 cutoff; clips below this are dropped.
	MinScoreThreshold float64 `mapstructure:"MIN_SCORE_THRESHOLD" validate:"gte=0,lte=1"`

	// MaxClipsPerCollection caps stage-5 collection size at creation time.
	MaxClipsPerCollection int `mapstructure:"MAX_CLIPS_PER_COLLECTION" validate:"gt=0"`

	MaxRetries     int `mapstructure:"MAX_RETRIES" validate:"gte=0"`
	TimeoutSeconds int `mapstructure:"TIMEOUT_SECONDS" validate:"gt=0"`

	// MaxConcurrentProcessing bounds how many projects execute pipelines at
	// once (TaskScheduler admission cap).
	MaxConcurrentProcessing int `mapstructure:"MAX_CONCURRENT_PROCESSING" validate:"gt=0"`

	// MaxInFlightLLMPerProject bounds per-project concurrent LLM calls for
	// order-invariant stages (1,2,3,4).
	MaxInFlightLLMPerProject int `mapstructure:"MAX_INFLIGHT_LLM_PER_PROJECT" validate:"gt=0"`

	// MaxConcurrentTranscodes bounds global stage-6 transcode parallelism.
	MaxConcurrentTranscodes int `mapstructure:"MAX_CONCURRENT_TRANSCODES" validate:"gt=0"`

	// TranscodeTimeoutSeconds bounds a single cut/concat invocation (spec
	// default 2h for collections).
	TranscodeTimeoutSeconds int `mapstructure:"TRANSCODE_TIMEOUT_SECONDS" validate:"gt=0"`

	// ProjectRoot is the filesystem root under which every project's
	// directory tree (input/output/logs/temp) lives.
	ProjectRoot string `mapstructure:"PROJECT_ROOT" validate:"required"`

	// HTTPAddr is the ApiFacade listen address.
	HTTPAddr string `mapstructure:"HTTP_ADDR"`

	// OpenAIAPIKey / AnthropicAPIKey authenticate the selected provider.
	OpenAIAPIKey    string `mapstructure:"OPENAI_API_KEY"`
	AnthropicAPIKey string `mapstructure:"ANTHROPIC_API_KEY"`

	// LogMode selects the logger's encoder ("prod" or "dev").
	LogMode string `mapstructure:"LOG_MODE"`

	// OTelExporter ("stdout" or "otlphttp") and OTelEndpoint are loaded
	// from configuration but not read by any code in this module; no
	// tracing exporter is set up from them.
	OTelExporter string `mapstructure:"OTEL_EXPORTER"`
	OTelEndpoint string `mapstructure:"OTEL_ENDPOINT"`
}

func (c Config) LLMTimeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c Config) TranscodeTimeout() time.Duration {
	return time.Duration(c.TranscodeTimeoutSeconds) * time.Second
}

// bindEnv walks Config's mapstructure tags and binds each to an environment
// variable of the same name, mirroring the reflect-driven binder used
// elsewhere in this codebase's config loaders.
func bindEnv(c Config) {
	val := reflect.ValueOf(c)
	typ := val.Type()
	for i := 0; i < typ.NumField(); i++ {
		tag := typ.Field(i).Tag.Get("mapstructure")
		if tag != "" {
			_ = viper.BindEnv(tag)
		}
	}
}

func setDefaults() {
	viper.SetDefault("API_PROVIDER", "openai")
	viper.SetDefault("MODEL_NAME", "")
	viper.SetDefault("CHUNK_SIZE", 5000)
	viper.SetDefault("MIN_SCORE_THRESHOLD", 0.7)
	viper.SetDefault("MAX_CLIPS_PER_COLLECTION", 5)
	viper.SetDefault("MAX_RETRIES", 3)
	viper.SetDefault("TIMEOUT_SECONDS", 30)
	viper.SetDefault("MAX_CONCURRENT_PROCESSING", 2)
	viper.SetDefault("MAX_INFLIGHT_LLM_PER_PROJECT", 3)
	viper.SetDefault("MAX_CONCURRENT_TRANSCODES", 2)
	viper.SetDefault("TRANSCODE_TIMEOUT_SECONDS", 2*60*60)
	viper.SetDefault("PROJECT_ROOT", "./data/projects")
	viper.SetDefault("HTTP_ADDR", ":8080")
	viper.SetDefault("LOG_MODE", "dev")
	viper.SetDefault("OTEL_EXPORTER", "stdout")
	viper.SetDefault("OTEL_ENDPOINT", "")
}

// Load reads configuration from the environment (and, when present, a
// config.yaml in the working directory), applies defaults, and validates
// the result.
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	setDefaults()
	bindEnv(Config{})
	viper.AutomaticEnv()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

// Category is the closed set of prompt-selecting project categories from
// the data model (§3). An unrecognized category is an input error; a blank
// one falls back to "default".
type Category string

const (
	CategoryDefault       Category = "default"
	CategoryKnowledge     Category = "knowledge"
	CategoryBusiness      Category = "business"
	CategoryOpinion       Category = "opinion"
	CategoryExperience    Category = "experience"
	CategorySpeech        Category = "speech"
	CategoryContentReview Category = "content_review"
	CategoryEntertainment Category = "entertainment"
)

var validCategories = map[Category]bool{
	CategoryDefault: true, CategoryKnowledge: true, CategoryBusiness: true,
	CategoryOpinion: true, CategoryExperience: true, CategorySpeech: true,
	CategoryContentReview: true, CategoryEntertainment: true,
}

// NormalizeCategory applies the fallback/validation rule from Design Notes
// §9: blank falls back to default, unknown categories are rejected.
func NormalizeCategory(raw string) (Category, error) {
	if raw == "" {
		return CategoryDefault, nil
	}
	c := Category(raw)
	if !validCategories[c] {
		return "", fmt.Errorf("unknown video category %q", raw)
	}
	return c, nil
}
