package config

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	StoreMongo    = "mongo"
	StorePostgres = "postgres"
	StoreMemory   = "memory"

	ConsistencyOptimistic = "optimistic"
	ConsistencyLocked     = "locked"
)

var (
	knownVisionProviders         = []string{"openai", "gemini"}
	knownRecommendationProviders = []string{"anthropic", "openai", "gemini"}
	knownImageProviders          = []string{"dalle", "replicate"}
)

type Config struct {
	Env            string
	ServiceName    string
	ServiceVersion string

	Port        string
	CORSOrigins []string

	JWTSecret string
	JWTIssuer string

	RedisURL string

	MongoURI    string
	DatabaseURL string
	DBTracing   bool

	OpenAIKey      string
	AnthropicKey   string
	GeminiKey      string
	ReplicateToken string

	AWSRegion string
	S3Bucket  string

	OtelExporterOTLPEndpoint string
	OtelExporterOTLPHeaders  string
	SentryDSN                string

	Store           StoreConfig
	Cache           CacheConfig
	Upload          UploadConfig
	Vision          ChainConfig
	Recommendations ChainConfig
	ImageGeneration ChainConfig
}

// ChainConfig describes an ordered provider fallback chain for one capability.
type ChainConfig struct {
	Providers []string          `yaml:"providers"`
	Timeout   time.Duration     `yaml:"timeout"`
	Models    map[string]string `yaml:"models"`
}

// Model returns the configured model for provider, or fallback when unset.
func (c ChainConfig) Model(provider, fallback string) string {
	if m := c.Models[provider]; m != "" {
		return m
	}
	return fallback
}

type CacheConfig struct {
	AnalysisTTL       time.Duration `yaml:"analysis_ttl"`
	RecommendationTTL time.Duration `yaml:"recommendation_ttl"`
	Consistency       string        `yaml:"consistency"`
	LockTTL           time.Duration `yaml:"lock_ttl"`
}

type StoreConfig struct {
	Driver   string `yaml:"driver"`
	Database string `yaml:"database"`
}

type UploadConfig struct {
	MaxBytes     int64 `yaml:"max_bytes"`
	MaxDimension int   `yaml:"max_dimension"`
}

func Load() (*Config, error) {
	cfg := &Config{
		Env:                      os.Getenv("ENV"),
		ServiceName:              os.Getenv("SERVICE_NAME"),
		ServiceVersion:           os.Getenv("SERVICE_VERSION"),
		Port:                     os.Getenv("PORT"),
		CORSOrigins:              splitList(os.Getenv("CORS_ORIGINS")),
		JWTSecret:                os.Getenv("JWT_SECRET"),
		JWTIssuer:                os.Getenv("JWT_ISSUER"),
		RedisURL:                 os.Getenv("REDIS_URL"),
		MongoURI:                 os.Getenv("MONGODB_URI"),
		DatabaseURL:              os.Getenv("DATABASE_URL"),
		DBTracing:                parseBool(os.Getenv("DB_TRACING")),
		OpenAIKey:                os.Getenv("OPENAI_API_KEY"),
		AnthropicKey:             os.Getenv("ANTHROPIC_API_KEY"),
		GeminiKey:                os.Getenv("GEMINI_API_KEY"),
		ReplicateToken:           os.Getenv("REPLICATE_API_TOKEN"),
		AWSRegion:                os.Getenv("AWS_REGION"),
		S3Bucket:                 os.Getenv("S3_BUCKET"),
		OtelExporterOTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		OtelExporterOTLPHeaders:  os.Getenv("OTEL_EXPORTER_OTLP_HEADERS"),
		SentryDSN:                os.Getenv("SENTRY_DSN"),
		Store: StoreConfig{
			Driver:   os.Getenv("STORE_DRIVER"),
			Database: os.Getenv("MONGODB_DATABASE"),
		},
		Cache: CacheConfig{
			Consistency: os.Getenv("CACHE_CONSISTENCY"),
		},
		Vision:          ChainConfig{Providers: splitList(os.Getenv("VISION_PROVIDERS"))},
		Recommendations: ChainConfig{Providers: splitList(os.Getenv("RECOMMENDATION_PROVIDERS"))},
		ImageGeneration: ChainConfig{Providers: splitList(os.Getenv("IMAGE_PROVIDERS"))},
	}

	// Load from YAML file if available
	if err := cfg.LoadFromYAML("config.yaml"); err != nil {
		return nil, fmt.Errorf("failed to load YAML config: %w", err)
	}

	if cfg.Env == "" {
		cfg.Env = "development"
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "glamlens-stylist"
	}
	if cfg.ServiceVersion == "" {
		cfg.ServiceVersion = "1.0.0"
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{"http://localhost:3000", "http://localhost:3001", "http://127.0.0.1:3000"}
	}
	if cfg.AWSRegion == "" {
		cfg.AWSRegion = "us-east-1"
	}

	cfg.SetStoreDefaults()
	cfg.SetCacheDefaults()
	cfg.SetUploadDefaults()
	cfg.SetProviderDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}

// LoadFromYAML overlays structured sections from a YAML file. A missing
// file is not an error. Values already set from the environment win.
func (c *Config) LoadFromYAML(path string) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var yamlConfig struct {
		Store           StoreConfig  `yaml:"store"`
		Cache           CacheConfig  `yaml:"cache"`
		Upload          UploadConfig `yaml:"upload"`
		Vision          ChainConfig  `yaml:"vision"`
		Recommendations ChainConfig  `yaml:"recommendations"`
		ImageGeneration ChainConfig  `yaml:"image_generation"`
	}

	if err := yaml.Unmarshal(data, &yamlConfig); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	if c.Store.Driver == "" {
		c.Store.Driver = yamlConfig.Store.Driver
	}
	if c.Store.Database == "" {
		c.Store.Database = yamlConfig.Store.Database
	}

	if c.Cache.AnalysisTTL == 0 {
		c.Cache.AnalysisTTL = yamlConfig.Cache.AnalysisTTL
	}
	if c.Cache.RecommendationTTL == 0 {
		c.Cache.RecommendationTTL = yamlConfig.Cache.RecommendationTTL
	}
	if c.Cache.Consistency == "" {
		c.Cache.Consistency = yamlConfig.Cache.Consistency
	}
	if c.Cache.LockTTL == 0 {
		c.Cache.LockTTL = yamlConfig.Cache.LockTTL
	}

	if c.Upload.MaxBytes == 0 {
		c.Upload.MaxBytes = yamlConfig.Upload.MaxBytes
	}
	if c.Upload.MaxDimension == 0 {
		c.Upload.MaxDimension = yamlConfig.Upload.MaxDimension
	}

	overlayChain(&c.Vision, yamlConfig.Vision)
	overlayChain(&c.Recommendations, yamlConfig.Recommendations)
	overlayChain(&c.ImageGeneration, yamlConfig.ImageGeneration)

	return nil
}

func overlayChain(dst *ChainConfig, src ChainConfig) {
	if len(dst.Providers) == 0 {
		dst.Providers = src.Providers
	}
	if dst.Timeout == 0 {
		dst.Timeout = src.Timeout
	}
	if len(src.Models) > 0 {
		if dst.Models == nil {
			dst.Models = make(map[string]string, len(src.Models))
		}
		for k, v := range src.Models {
			if _, ok := dst.Models[k]; !ok {
				dst.Models[k] = v
			}
		}
	}
}

func (c *Config) SetStoreDefaults() {
	if c.Store.Driver == "" {
		c.Store.Driver = StoreMongo
	}
	if c.Store.Database == "" {
		c.Store.Database = "glamlens"
	}
}

func (c *Config) SetCacheDefaults() {
	if c.Cache.AnalysisTTL == 0 {
		c.Cache.AnalysisTTL = time.Hour
	}
	if c.Cache.RecommendationTTL == 0 {
		c.Cache.RecommendationTTL = 30 * time.Minute
	}
	if c.Cache.Consistency == "" {
		c.Cache.Consistency = ConsistencyOptimistic
	}
	if c.Cache.LockTTL == 0 {
		c.Cache.LockTTL = 30 * time.Second
	}
}

func (c *Config) SetUploadDefaults() {
	if c.Upload.MaxBytes == 0 {
		c.Upload.MaxBytes = 10 << 20
	}
	if c.Upload.MaxDimension == 0 {
		c.Upload.MaxDimension = 1568
	}
}

func (c *Config) SetProviderDefaults() {
	if len(c.Vision.Providers) == 0 {
		c.Vision.Providers = []string{"openai", "gemini"}
	}
	if c.Vision.Timeout == 0 {
		c.Vision.Timeout = 60 * time.Second
	}
	if len(c.Recommendations.Providers) == 0 {
		c.Recommendations.Providers = []string{"anthropic", "openai", "gemini"}
	}
	if c.Recommendations.Timeout == 0 {
		c.Recommendations.Timeout = 90 * time.Second
	}
	if len(c.ImageGeneration.Providers) == 0 {
		c.ImageGeneration.Providers = []string{"dalle", "replicate"}
	}
	if c.ImageGeneration.Timeout == 0 {
		c.ImageGeneration.Timeout = 120 * time.Second
	}
}

func (c *Config) validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	switch c.Store.Driver {
	case StoreMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("MONGODB_URI is required for the mongo store")
		}
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres store")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}

	if c.Cache.Consistency != ConsistencyOptimistic && c.Cache.Consistency != ConsistencyLocked {
		return fmt.Errorf("unknown cache consistency %q", c.Cache.Consistency)
	}

	if err := validateChain("vision", c.Vision, knownVisionProviders); err != nil {
		return err
	}
	if err := validateChain("recommendations", c.Recommendations, knownRecommendationProviders); err != nil {
		return err
	}
	return validateChain("image_generation", c.ImageGeneration, knownImageProviders)
}

func validateChain(name string, chain ChainConfig, known []string) error {
	for _, p := range chain.Providers {
		if !slices.Contains(known, p) {
			return fmt.Errorf("%s: unknown provider %q", name, p)
		}
	}
	return nil
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseBool(s string) bool {
	b, _ := strconv.ParseBool(s)
	return b
}
