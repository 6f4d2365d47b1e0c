package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port      int              `json:"port"`
	JWTSecret string           `json:"jwt_secret"`
	LogConfig logger.LogConfig `json:"log_config"`
	Database  DatabaseConfig   `json:"database"`
	Vector    VectorConfig     `json:"vector"`
	AI        AIConfig         `json:"ai"`
	Mail      MailConfig       `json:"mail"`
	Archive   ArchiveConfig    `json:"archive"`
	Ingest    IngestConfig     `json:"ingest"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
	SSLMode  string `json:"ssl_mode"`
}

type VectorConfig struct {
	Type       string       `json:"type"`
	Dimensions int          `json:"dimensions"`
	Qdrant     QdrantConfig `json:"qdrant"`
}

type QdrantConfig struct {
	Addr string `json:"addr"`
}

type AIConfig struct {
	Provider        string             `json:"provider"`
	Model           string             `json:"model"`
	EmbedModel      string             `json:"embed_model"`
	Timeout         int                `json:"timeout"`
	Data            interface{}        `json:"data"`
	Fallbacks       []AIFallbackConfig `json:"fallbacks"`
	CacheSize       int                `json:"cache_size"`
	CacheTTLMinutes int                `json:"cache_ttl_minutes"`
	CacheMaxAgeDays int                `json:"cache_max_age_days"`
}

// AIFallbackConfig names a secondary provider tried when the primary one
// fails. Model names default to the primary's when omitted.
type AIFallbackConfig struct {
	Provider   string      `json:"provider"`
	Model      string      `json:"model"`
	EmbedModel string      `json:"embed_model"`
	Data       interface{} `json:"data"`
}

type MailConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	From     string `json:"from"`
}

type ArchiveConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type IngestConfig struct {
	ChunkSize         int    `json:"chunk_size"`
	ChunkOverlap      int    `json:"chunk_overlap"`
	Workers           int    `json:"workers"`
	TopK              int    `json:"top_k"`
	ClassifyMaxChars  int    `json:"classify_max_chars"`
	RetrySpec         string `json:"retry_spec"`
	RetryDelaySeconds int64  `json:"retry_delay_seconds"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Port == 0 {
		return nil, fmt.Errorf("port is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("jwt_secret is required")
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.Database.DSN == "" && cfg.Database.Host == "" {
		return nil, fmt.Errorf("database.dsn or database.host is required")
	}
	if err := applyVectorDefaults(&cfg.Vector); err != nil {
		return nil, err
	}
	if err := applyAIDefaults(&cfg.AI); err != nil {
		return nil, err
	}
	if err := applyIngestDefaults(&cfg.Ingest); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyVectorDefaults(cfg *VectorConfig) error {
	if cfg.Type == "" {
		cfg.Type = "pgvector"
	}
	if cfg.Dimensions == 0 {
		cfg.Dimensions = 768
	}
	switch cfg.Type {
	case "pgvector", "memory":
	case "qdrant":
		if cfg.Qdrant.Addr == "" {
			return fmt.Errorf("vector.qdrant.addr is required for qdrant store")
		}
	default:
		return fmt.Errorf("vector.type must be pgvector, qdrant or memory")
	}
	return nil
}

func applyAIDefaults(cfg *AIConfig) error {
	if cfg.Provider == "" {
		return fmt.Errorf("ai.provider is required")
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.0-flash"
	}
	if cfg.EmbedModel == "" {
		cfg.EmbedModel = "text-embedding-004"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60
	}
	if cfg.CacheSize == 0 {
		cfg.CacheSize = 4096
	}
	if cfg.CacheTTLMinutes == 0 {
		cfg.CacheTTLMinutes = 120
	}
	if cfg.CacheMaxAgeDays == 0 {
		cfg.CacheMaxAgeDays = 30
	}
	for i := range cfg.Fallbacks {
		fb := &cfg.Fallbacks[i]
		if fb.Provider == "" {
			return fmt.Errorf("ai.fallbacks[%d].provider is required", i)
		}
		if fb.Model == "" {
			fb.Model = cfg.Model
		}
		if fb.EmbedModel == "" {
			fb.EmbedModel = cfg.EmbedModel
		}
	}
	return nil
}

func applyIngestDefaults(cfg *IngestConfig) error {
	if cfg.ChunkSize == 0 {
		cfg.ChunkSize = 1100
	}
	if cfg.ChunkOverlap == 0 {
		cfg.ChunkOverlap = 100
	}
	if cfg.ChunkOverlap >= cfg.ChunkSize {
		return fmt.Errorf("ingest.chunk_overlap must be smaller than ingest.chunk_size")
	}
	if cfg.Workers == 0 {
		cfg.Workers = 4
	}
	if cfg.TopK == 0 {
		cfg.TopK = 6
	}
	if cfg.ClassifyMaxChars == 0 {
		cfg.ClassifyMaxChars = 500
	}
	if cfg.RetrySpec == "" {
		cfg.RetrySpec = "*/5 * * * *"
	}
	if cfg.RetryDelaySeconds == 0 {
		cfg.RetryDelaySeconds = 300
	}
	return nil
}
