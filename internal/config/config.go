// Package config loads and validates the service's YAML configuration,
// following the teacher's viper + ${ENV_VAR}-substitution loader.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Config is the top-level application configuration.
type Config struct {
	Server     *ServerConfig     `yaml:"server" json:"server"`
	Chunker    *ChunkerConfig    `yaml:"chunker" json:"chunker"`
	Ingestion  *IngestionConfig  `yaml:"ingestion" json:"ingestion"`
	Retriever  *RetrieverConfig  `yaml:"retriever" json:"retriever"`
	Quality    *QualityConfig    `yaml:"quality" json:"quality"`
	Lifecycle  *LifecycleConfig  `yaml:"lifecycle" json:"lifecycle"`
	Escalation *EscalationConfig `yaml:"escalation" json:"escalation"`
	Models     []ModelConfig     `yaml:"models" json:"models"`
	Store      *StoreConfig      `yaml:"store" json:"store"`
	Asynq        *AsynqConfig        `yaml:"asynq" json:"asynq"`
	Archive      *ArchiveConfig      `yaml:"archive" json:"archive"`
	Orchestrator *OrchestratorConfig `yaml:"orchestrator" json:"orchestrator"`
}

// ServerConfig configures the operational HTTP surface only (health +
// manual triggers).
type ServerConfig struct {
	Port            int           `yaml:"port" json:"port"`
	Host            string        `yaml:"host" json:"host"`
	CommandPrefix   string        `yaml:"command_prefix" json:"command_prefix" default:"/"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" json:"shutdown_timeout" default:"30s"`
}

// ChunkerConfig mirrors spec §6's chunk-splitter knobs.
type ChunkerConfig struct {
	MaxChunkSize int `yaml:"max_chunk_size" json:"max_chunk_size" default:"1000"`
	MinChunkSize int `yaml:"min_chunk_size" json:"min_chunk_size" default:"100"`
	Overlap      int `yaml:"chunk_overlap" json:"chunk_overlap" default:"100"`
}

// IngestionConfig covers sync batching, concurrency and rate limiting (spec §4.2, §6).
type IngestionConfig struct {
	IndexBatchSize        int           `yaml:"index_batch_size" json:"index_batch_size" default:"64"`
	Concurrency           int           `yaml:"graphiti_concurrency" json:"graphiti_concurrency" default:"8"`
	WikiReqsPerSec        float64       `yaml:"wiki_reqs_per_sec" json:"wiki_reqs_per_sec" default:"5"`
	BreakerThreshold      int           `yaml:"breaker_threshold" json:"breaker_threshold" default:"5"`
	BreakerCooldown       time.Duration `yaml:"breaker_cooldown" json:"breaker_cooldown" default:"60s"`
	BreakerWindow         time.Duration `yaml:"breaker_window" json:"breaker_window" default:"60s"`
	RetryBaseDelay        time.Duration `yaml:"retry_base_delay" json:"retry_base_delay" default:"2s"`
	RetryMaxDelay         time.Duration `yaml:"retry_max_delay" json:"retry_max_delay" default:"60s"`
	RetryMaxAttempts      int           `yaml:"retry_max_attempts" json:"retry_max_attempts" default:"5"`
	PageRoot              string        `yaml:"page_root" json:"page_root"`
	Spaces                []string      `yaml:"spaces" json:"spaces"`
	SyncCron              string        `yaml:"sync_cron" json:"sync_cron" default:"0 * * * *"`
}

// RetrieverConfig covers hybrid search tuning (spec §4.4).
type RetrieverConfig struct {
	QualityBoostWeight float64 `yaml:"quality_boost_weight" json:"quality_boost_weight" default:"0.2"`
	GraphExpansionM    int     `yaml:"graph_expansion_m" json:"graph_expansion_m" default:"5"`
	LexicalEngine      string  `yaml:"lexical_engine" json:"lexical_engine" default:"elasticsearch"`
}

// QualityConfig covers the score model's feedback deltas and weights (spec §4.5).
type QualityConfig struct {
	RecomputeCron  string             `yaml:"recompute_cron" json:"recompute_cron" default:"0 3 * * *"`
	FeedbackWeight float64            `yaml:"feedback_weight" json:"feedback_weight" default:"0.35"`
	BehaviorWeight float64            `yaml:"behavior_weight" json:"behavior_weight" default:"0.25"`
	RelevanceWeight float64           `yaml:"relevance_weight" json:"relevance_weight" default:"0.25"`
	FreshnessWeight float64           `yaml:"freshness_weight" json:"freshness_weight" default:"0.15"`
	FeedbackWindowDays int            `yaml:"feedback_window_days" json:"feedback_window_days" default:"90"`
	ImmediateDeltas map[string]float64 `yaml:"immediate_deltas" json:"immediate_deltas"`
}

// LifecycleConfig covers archival thresholds (spec §4.6, §6).
type LifecycleConfig struct {
	ArchivalCron               string  `yaml:"archival_cron" json:"archival_cron" default:"0 4 * * *"`
	ScoreThresholdDeprecated   float64 `yaml:"score_threshold_deprecated" json:"score_threshold_deprecated" default:"40"`
	ScoreThresholdArchive      float64 `yaml:"score_threshold_archive" json:"score_threshold_archive" default:"10"`
	RestoreThreshold           float64 `yaml:"restore_threshold" json:"restore_threshold" default:"70"`
	ColdArchiveDays            int     `yaml:"cold_archive_days" json:"cold_archive_days" default:"30"`
	ConflictSimilarityThreshold float64 `yaml:"conflict_similarity_threshold" json:"conflict_similarity_threshold" default:"0.85"`
	ConflictConfidenceThreshold float64 `yaml:"conflict_confidence_threshold" json:"conflict_confidence_threshold" default:"0.7"`
}

// EscalationConfig covers owner notification and auto-escalation (spec §4.8, §6).
type EscalationConfig struct {
	AdminChannel          string `yaml:"admin_channel" json:"admin_channel"`
	AutoEscalateThreshold int    `yaml:"auto_escalate_threshold" json:"auto_escalate_threshold" default:"3"`
	EscalateWindowHours   int    `yaml:"escalate_window_hours" json:"escalate_window_hours" default:"24"`
	DeepLinkSecret        string `yaml:"deep_link_secret" json:"deep_link_secret"`
	DeepLinkTTLHours      int    `yaml:"deep_link_ttl_hours" json:"deep_link_ttl_hours" default:"168"`
}

// OrchestratorConfig covers prompt assembly, dedup/thread-cache sizing and
// retrieval knobs for the answer orchestrator (spec §4.7).
type OrchestratorConfig struct {
	SystemPreamble      string `yaml:"system_preamble" json:"system_preamble"`
	FallbackMessage     string `yaml:"fallback_message" json:"fallback_message"`
	TopK                int    `yaml:"top_k" json:"top_k" default:"5"`
	UseQualityBoost     bool   `yaml:"use_quality_boost" json:"use_quality_boost" default:"true"`
	UseGraphExpansion   bool   `yaml:"use_graph_expansion" json:"use_graph_expansion" default:"false"`
	DedupCapacity       int    `yaml:"dedup_capacity" json:"dedup_capacity" default:"1000"`
	ThreadCacheCapacity int    `yaml:"thread_cache_capacity" json:"thread_cache_capacity" default:"500"`
	ThreadHistoryDepth  int    `yaml:"thread_history_depth" json:"thread_history_depth" default:"10"`
	MaxHistoryTurns     int    `yaml:"max_history_turns" json:"max_history_turns" default:"6"`
	MaxHistoryChars     int    `yaml:"max_history_chars" json:"max_history_chars" default:"500"`
	MaxContextChars     int    `yaml:"max_context_chars" json:"max_context_chars" default:"1000"`
}

// ModelConfig configures one provider-backed model instance (LLM or Embedder).
type ModelConfig struct {
	Type       string                 `yaml:"type" json:"type"` // "llm" | "embedder" | "reranker"
	Source     string                 `yaml:"source" json:"source"` // "local" (ollama) | "remote" (openai-compatible)
	ModelName  string                 `yaml:"model_name" json:"model_name"`
	BaseURL    string                 `yaml:"base_url" json:"base_url"`
	APIKey     string                 `yaml:"api_key" json:"api_key"`
	Dimensions int                    `yaml:"dimensions" json:"dimensions"`
	Parameters map[string]interface{} `yaml:"parameters" json:"parameters"`
}

// StoreConfig selects and configures the GraphStore and AnalyticsStore adapters.
type StoreConfig struct {
	GraphDriver     string        `yaml:"graph_driver" json:"graph_driver" default:"neo4j"` // "neo4j" | "memory"
	Neo4jURI        string        `yaml:"neo4j_uri" json:"neo4j_uri"`
	Neo4jUser       string        `yaml:"neo4j_user" json:"neo4j_user"`
	Neo4jPassword   string        `yaml:"neo4j_password" json:"neo4j_password"`
	PostgresDSN     string        `yaml:"postgres_dsn" json:"postgres_dsn"`
	ElasticsearchURL string       `yaml:"elasticsearch_url" json:"elasticsearch_url"`
	RedisAddr       string        `yaml:"redis_addr" json:"redis_addr"`
	RedisPassword   string        `yaml:"redis_password" json:"redis_password"`
	StoreTimeout    time.Duration `yaml:"store_timeout" json:"store_timeout" default:"30s"`
}

// AsynqConfig configures the background task queue (spec §9 "Scheduled maintenance").
type AsynqConfig struct {
	Addr         string        `yaml:"addr" json:"addr"`
	Username     string        `yaml:"username" json:"username"`
	Password     string        `yaml:"password" json:"password"`
	Concurrency  int           `yaml:"concurrency" json:"concurrency" default:"10"`
	ReadTimeout  time.Duration `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" json:"write_timeout"`
}

// ArchiveConfig selects and configures the hard-archive export target (spec §6).
type ArchiveConfig struct {
	Driver     string `yaml:"driver" json:"driver" default:"local"` // "local" | "minio"
	LocalRoot  string `yaml:"local_root" json:"local_root" default:"./data/archive"`
	MinioEndpoint string `yaml:"minio_endpoint" json:"minio_endpoint"`
	MinioBucket   string `yaml:"minio_bucket" json:"minio_bucket"`
	MinioAccessKey string `yaml:"minio_access_key" json:"minio_access_key"`
	MinioSecretKey string `yaml:"minio_secret_key" json:"minio_secret_key"`
	MinioUseSSL    bool   `yaml:"minio_use_ssl" json:"minio_use_ssl"`
}

// LoadConfig reads config.yaml from the search paths below, applies
// ${ENV_VAR} substitution, and fills in defaults for anything left unset.
func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("$HOME/.wikimind")
	viper.AddConfigPath("/etc/wikimind/")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	configFileContent, err := os.ReadFile(viper.ConfigFileUsed())
	if err != nil {
		return nil, fmt.Errorf("error reading config file content: %w", err)
	}

	// Substitute ${ENV_VAR} references before parsing into the struct.
	re := regexp.MustCompile(`\${([^}]+)}`)
	result := re.ReplaceAllStringFunc(string(configFileContent), func(match string) string {
		envVar := match[2 : len(match)-1]
		if value := os.Getenv(envVar); value != "" {
			return value
		}
		return match
	})
	if err := viper.ReadConfig(strings.NewReader(result)); err != nil {
		return nil, fmt.Errorf("error re-reading substituted config: %w", err)
	}

	viper.SetDefault("orchestrator.use_quality_boost", true)

	var cfg Config
	if err := viper.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "yaml"
	}); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

// applyDefaults fills zero-valued knobs with spec §6's documented defaults,
// since a partially-specified YAML file must not silently disable a feature.
func applyDefaults(cfg *Config) {
	if cfg.Server == nil {
		cfg.Server = &ServerConfig{}
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.CommandPrefix == "" {
		cfg.Server.CommandPrefix = "/"
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 30 * time.Second
	}
	if cfg.Store == nil {
		cfg.Store = &StoreConfig{}
	}
	if cfg.Store.GraphDriver == "" {
		cfg.Store.GraphDriver = "neo4j"
	}
	if cfg.Store.StoreTimeout == 0 {
		cfg.Store.StoreTimeout = 30 * time.Second
	}
	if cfg.Asynq == nil {
		cfg.Asynq = &AsynqConfig{}
	}
	if cfg.Asynq.Concurrency == 0 {
		cfg.Asynq.Concurrency = 10
	}
	if cfg.Chunker == nil {
		cfg.Chunker = &ChunkerConfig{}
	}
	if cfg.Chunker.MaxChunkSize == 0 {
		cfg.Chunker.MaxChunkSize = 1000
	}
	if cfg.Chunker.MinChunkSize == 0 {
		cfg.Chunker.MinChunkSize = 100
	}
	if cfg.Chunker.Overlap == 0 {
		cfg.Chunker.Overlap = 100
	}
	if cfg.Ingestion == nil {
		cfg.Ingestion = &IngestionConfig{}
	}
	if cfg.Ingestion.IndexBatchSize == 0 {
		cfg.Ingestion.IndexBatchSize = 64
	}
	if cfg.Ingestion.Concurrency == 0 {
		cfg.Ingestion.Concurrency = 8
	}
	if cfg.Ingestion.WikiReqsPerSec == 0 {
		cfg.Ingestion.WikiReqsPerSec = 5
	}
	if cfg.Ingestion.BreakerThreshold == 0 {
		cfg.Ingestion.BreakerThreshold = 5
	}
	if cfg.Ingestion.BreakerCooldown == 0 {
		cfg.Ingestion.BreakerCooldown = 60 * time.Second
	}
	if cfg.Ingestion.RetryBaseDelay == 0 {
		cfg.Ingestion.RetryBaseDelay = 2 * time.Second
	}
	if cfg.Ingestion.RetryMaxDelay == 0 {
		cfg.Ingestion.RetryMaxDelay = 60 * time.Second
	}
	if cfg.Ingestion.RetryMaxAttempts == 0 {
		cfg.Ingestion.RetryMaxAttempts = 5
	}
	if cfg.Ingestion.SyncCron == "" {
		cfg.Ingestion.SyncCron = "0 * * * *"
	}
	if cfg.Retriever == nil {
		cfg.Retriever = &RetrieverConfig{}
	}
	if cfg.Retriever.QualityBoostWeight == 0 {
		cfg.Retriever.QualityBoostWeight = 0.2
	}
	if cfg.Retriever.GraphExpansionM == 0 {
		cfg.Retriever.GraphExpansionM = 5
	}
	if cfg.Retriever.LexicalEngine == "" {
		cfg.Retriever.LexicalEngine = "elasticsearch"
	}
	if cfg.Quality == nil {
		cfg.Quality = &QualityConfig{}
	}
	if cfg.Quality.FeedbackWeight == 0 {
		cfg.Quality.FeedbackWeight = 0.35
	}
	if cfg.Quality.BehaviorWeight == 0 {
		cfg.Quality.BehaviorWeight = 0.25
	}
	if cfg.Quality.RelevanceWeight == 0 {
		cfg.Quality.RelevanceWeight = 0.25
	}
	if cfg.Quality.FreshnessWeight == 0 {
		cfg.Quality.FreshnessWeight = 0.15
	}
	if cfg.Quality.FeedbackWindowDays == 0 {
		cfg.Quality.FeedbackWindowDays = 90
	}
	if cfg.Quality.ImmediateDeltas == nil {
		cfg.Quality.ImmediateDeltas = map[string]float64{
			"helpful":   5,
			"outdated":  -20,
			"incorrect": -25,
			"confusing": -10,
		}
	}
	if cfg.Lifecycle == nil {
		cfg.Lifecycle = &LifecycleConfig{}
	}
	if cfg.Lifecycle.ScoreThresholdDeprecated == 0 {
		cfg.Lifecycle.ScoreThresholdDeprecated = 40
	}
	if cfg.Lifecycle.ScoreThresholdArchive == 0 {
		cfg.Lifecycle.ScoreThresholdArchive = 10
	}
	if cfg.Lifecycle.RestoreThreshold == 0 {
		cfg.Lifecycle.RestoreThreshold = 70
	}
	if cfg.Lifecycle.ColdArchiveDays == 0 {
		cfg.Lifecycle.ColdArchiveDays = 30
	}
	if cfg.Lifecycle.ConflictSimilarityThreshold == 0 {
		cfg.Lifecycle.ConflictSimilarityThreshold = 0.85
	}
	if cfg.Lifecycle.ConflictConfidenceThreshold == 0 {
		cfg.Lifecycle.ConflictConfidenceThreshold = 0.7
	}
	if cfg.Escalation == nil {
		cfg.Escalation = &EscalationConfig{}
	}
	if cfg.Escalation.AutoEscalateThreshold == 0 {
		cfg.Escalation.AutoEscalateThreshold = 3
	}
	if cfg.Escalation.EscalateWindowHours == 0 {
		cfg.Escalation.EscalateWindowHours = 24
	}
	if cfg.Escalation.DeepLinkTTLHours == 0 {
		cfg.Escalation.DeepLinkTTLHours = 168
	}
	if cfg.Escalation.DeepLinkSecret == "" {
		cfg.Escalation.DeepLinkSecret = "change-me-deep-link-secret"
	}
	if cfg.Archive == nil {
		cfg.Archive = &ArchiveConfig{Driver: "local", LocalRoot: "./data/archive"}
	}
	if cfg.Orchestrator == nil {
		cfg.Orchestrator = &OrchestratorConfig{}
	}
	if cfg.Orchestrator.SystemPreamble == "" {
		cfg.Orchestrator.SystemPreamble = "You are a knowledge base assistant. Answer using only the " +
			"numbered context blocks below, citing sources by their page title. If the context does not " +
			"contain the answer, say so plainly instead of guessing."
	}
	if cfg.Orchestrator.FallbackMessage == "" {
		cfg.Orchestrator.FallbackMessage = "I found some relevant sources but ran into trouble generating " +
			"an answer. Please see the linked sources below, or try rephrasing your question."
	}
	if cfg.Orchestrator.TopK == 0 {
		cfg.Orchestrator.TopK = 5
	}
	if cfg.Orchestrator.DedupCapacity == 0 {
		cfg.Orchestrator.DedupCapacity = 1000
	}
	if cfg.Orchestrator.ThreadCacheCapacity == 0 {
		cfg.Orchestrator.ThreadCacheCapacity = 500
	}
	if cfg.Orchestrator.ThreadHistoryDepth == 0 {
		cfg.Orchestrator.ThreadHistoryDepth = 10
	}
	if cfg.Orchestrator.MaxHistoryTurns == 0 {
		cfg.Orchestrator.MaxHistoryTurns = 6
	}
	if cfg.Orchestrator.MaxHistoryChars == 0 {
		cfg.Orchestrator.MaxHistoryChars = 500
	}
	if cfg.Orchestrator.MaxContextChars == 0 {
		cfg.Orchestrator.MaxContextChars = 1000
	}
}
