// Package config defines all configuration structures for the CultureMech
// pipeline.  No I/O or parsing logic lives here — only plain data types and
// validation.
package config

import (
	"fmt"
	"time"
)

// ─────────────────────────────────────────────────────────────────────────────
// Sub-configuration structs
// ─────────────────────────────────────────────────────────────────────────────

// PipelineConfig holds the filesystem layout of the four-tier layer store:
// raw/ → raw_yaml/ → normalized_yaml/ → merge_yaml/.  Every component that
// reads or writes a layer resolves its directory from here rather than
// hard-coding a path.
type PipelineConfig struct {
	RootDir           string `mapstructure:"root_dir"`
	RawDir            string `mapstructure:"raw_dir"`
	RawYAMLDir        string `mapstructure:"raw_yaml_dir"`
	NormalizedYAMLDir string `mapstructure:"normalized_yaml_dir"`
	MergeYAMLDir      string `mapstructure:"merge_yaml_dir"`
	QuarantineDir     string `mapstructure:"quarantine_dir"`
}

// OntologyConfig holds the parameters for the OLS remote client and the OAK
// local (OpenSearch-backed) client used by the mapping cascade.
type OntologyConfig struct {
	OLSBaseURL      string        `mapstructure:"ols_base_url"`
	OLSAPIVersion   string        `mapstructure:"ols_api_version"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	RateLimitRPS    float64       `mapstructure:"rate_limit_rps"`
	RateLimitBurst  int           `mapstructure:"rate_limit_burst"`
	CacheDir        string        `mapstructure:"cache_dir"`
	CacheTTL        time.Duration `mapstructure:"cache_ttl"`
	FuzzyThreshold  float64       `mapstructure:"fuzzy_threshold"`
	MaxRetries      int           `mapstructure:"max_retries"`
	PreferredOntologies []string  `mapstructure:"preferred_ontologies"`
}

// MergeConfig holds composition-resolution and fingerprint-merge tunables.
type MergeConfig struct {
	// SourcePriority lists source identifiers in descending trust order,
	// used to pick the canonical composition when sources disagree.
	SourcePriority []string `mapstructure:"source_priority"`
	// ConcentrationTolerance is loaded and defaulted but not read by the
	// merge stage: merge flags two sources' concentration values for the
	// same ingredient as disagreeing above a fixed 10% relative difference,
	// whatever this field holds.
	ConcentrationTolerance float64 `mapstructure:"concentration_tolerance"`
}

// ValidationConfig holds tunables for the validation driver.
type ValidationConfig struct {
	// StrictReferences, when true, treats an unresolvable bibliographic
	// reference as a validation failure rather than a warning.
	StrictReferences bool `mapstructure:"strict_references"`
	// PendingCurationReview, when true, flags every newly merged recipe
	// for curator review regardless of confidence.
	PendingCurationReview bool `mapstructure:"pending_curation_review"`
}

// ServerConfig holds HTTP server tunables for the optional query API.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // "debug" | "release" | "test"
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	MaxBodySize     int64         `mapstructure:"max_body_size"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// GRPCConfig holds the tunables for the gRPC ingestion listener used by
// external fetchers that submit Layer 3 records without shelling out to
// cmd/culturemech.
type GRPCConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Debug           bool          `mapstructure:"debug"`
	GracefulTimeout time.Duration `mapstructure:"graceful_timeout"`
}

// DatabaseConfig holds PostgreSQL connection parameters for the optional
// bibliographic-reference cache used by the validation driver.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"db_name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxConns        int           `mapstructure:"max_conns"`
	MinConns        int           `mapstructure:"min_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	MigrationPath   string        `mapstructure:"migration_path"`
}

// Neo4jConfig holds Neo4j connection parameters for the optional ingredient/
// ontology knowledge-graph projection.
type Neo4jConfig struct {
	URI                   string        `mapstructure:"uri"`
	User                  string        `mapstructure:"user"`
	Password              string        `mapstructure:"password"`
	MaxConnectionPoolSize int           `mapstructure:"max_connection_pool_size"`
	ConnectionTimeout     time.Duration `mapstructure:"connection_timeout"`
	Database              string        `mapstructure:"database"`
}

// RedisConfig holds Redis connection parameters for the ontology-lookup
// front cache placed ahead of the content-addressed filesystem cache.
type RedisConfig struct {
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	DefaultTTL   time.Duration `mapstructure:"default_ttl"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
}

// KafkaConfig holds Apache Kafka producer parameters for publishing curation
// events onto an append-only topic for downstream consumers.
type KafkaConfig struct {
	Brokers           []string `mapstructure:"brokers"`
	GroupID           string   `mapstructure:"group_id"`
	AutoOffsetReset   string   `mapstructure:"auto_offset_reset"` // "earliest" | "latest"
	TimeoutMS         int      `mapstructure:"timeout_ms"`
	ProducerRetries   int      `mapstructure:"producer_retries"`
	BatchSize         int      `mapstructure:"batch_size"`
	AutoCreateTopics  bool     `mapstructure:"auto_create_topics"`
	ReplicationFactor int      `mapstructure:"replication_factor"`
	NumPartitions     int      `mapstructure:"num_partitions"`
}

// OpenSearchConfig holds OpenSearch cluster parameters backing the OAK local
// synonym-lookup client and the full-text recipe/ingredient search index.
type OpenSearchConfig struct {
	Addresses          []string `mapstructure:"addresses"`
	User               string   `mapstructure:"user"`
	Password           string   `mapstructure:"password"`
	InsecureSkipVerify bool     `mapstructure:"insecure_skip_verify"`
	BulkBatchSize      int      `mapstructure:"bulk_batch_size"`
	ScrollSize         int      `mapstructure:"scroll_size"`
	IndexPrefix        string   `mapstructure:"index_prefix"`
}

// MinIOConfig holds MinIO / S3-compatible object-storage parameters for the
// optional archive mirror of the layer store.
type MinIOConfig struct {
	Endpoint      string        `mapstructure:"endpoint"`
	AccessKey     string        `mapstructure:"access_key"`
	SecretKey     string        `mapstructure:"secret_key"`
	Bucket        string        `mapstructure:"bucket"`
	UseSSL        bool          `mapstructure:"use_ssl"`
	PresignExpiry time.Duration `mapstructure:"presign_expiry"`
}

// WorkerConfig holds the bounded-concurrency parameters shared by the
// mapping cascade, composition resolver, and batch importer.
type WorkerConfig struct {
	Concurrency       int           `mapstructure:"concurrency"`
	QueueDepth        int           `mapstructure:"queue_depth"`
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
	MaxRetries        int           `mapstructure:"max_retries"`
	RetryBackoffMS    time.Duration `mapstructure:"retry_backoff_ms"`
}

// LogConfig holds structured-logging parameters.
type LogConfig struct {
	Level            string `mapstructure:"level"`  // "debug" | "info" | "warn" | "error"
	Format           string `mapstructure:"format"` // "json" | "console"
	Output           string `mapstructure:"output"`
	EnableCaller     bool   `mapstructure:"enable_caller"`
	EnableStacktrace bool   `mapstructure:"enable_stacktrace"`
	SamplingRate     int    `mapstructure:"sampling_rate"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Root Config
// ─────────────────────────────────────────────────────────────────────────────

// Config is the root configuration structure for the CultureMech pipeline.
// Every stage reads its settings from the relevant sub-struct.
type Config struct {
	Pipeline   PipelineConfig   `mapstructure:"pipeline"`
	Ontology   OntologyConfig   `mapstructure:"ontology"`
	Merge      MergeConfig      `mapstructure:"merge"`
	Validation ValidationConfig `mapstructure:"validation"`
	Server     ServerConfig     `mapstructure:"server"`
	GRPC       GRPCConfig       `mapstructure:"grpc"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Neo4j      Neo4jConfig      `mapstructure:"neo4j"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Kafka      KafkaConfig      `mapstructure:"kafka"`
	OpenSearch OpenSearchConfig `mapstructure:"opensearch"`
	MinIO      MinIOConfig      `mapstructure:"minio"`
	Worker     WorkerConfig     `mapstructure:"worker"`
	Log        LogConfig        `mapstructure:"log"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Validation
// ─────────────────────────────────────────────────────────────────────────────

// Validate performs semantic validation of the fully-populated Config.
// It returns the first error encountered; callers should treat any error as
// fatal and refuse to start a run.
func (c *Config) Validate() error {
	// Pipeline
	if c.Pipeline.RootDir == "" {
		return fmt.Errorf("config: pipeline.root_dir is required")
	}
	if c.Pipeline.RawDir == "" {
		return fmt.Errorf("config: pipeline.raw_dir is required")
	}
	if c.Pipeline.RawYAMLDir == "" {
		return fmt.Errorf("config: pipeline.raw_yaml_dir is required")
	}
	if c.Pipeline.NormalizedYAMLDir == "" {
		return fmt.Errorf("config: pipeline.normalized_yaml_dir is required")
	}
	if c.Pipeline.MergeYAMLDir == "" {
		return fmt.Errorf("config: pipeline.merge_yaml_dir is required")
	}

	// Ontology
	if c.Ontology.OLSBaseURL == "" {
		return fmt.Errorf("config: ontology.ols_base_url is required")
	}
	if c.Ontology.RateLimitRPS <= 0 {
		return fmt.Errorf("config: ontology.rate_limit_rps must be > 0, got %v", c.Ontology.RateLimitRPS)
	}
	if c.Ontology.FuzzyThreshold < 0 || c.Ontology.FuzzyThreshold > 1 {
		return fmt.Errorf("config: ontology.fuzzy_threshold %v is out of range [0, 1]", c.Ontology.FuzzyThreshold)
	}

	// Merge
	if len(c.Merge.SourcePriority) == 0 {
		return fmt.Errorf("config: merge.source_priority must list at least one source")
	}

	// Server
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d is out of range [1, 65535]", c.Server.Port)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("config: server.mode %q is invalid; expected debug|release|test", c.Server.Mode)
	}

	// gRPC
	if c.GRPC.Port < 1 || c.GRPC.Port > 65535 {
		return fmt.Errorf("config: grpc.port %d is out of range [1, 65535]", c.GRPC.Port)
	}

	// Worker
	if c.Worker.Concurrency < 1 {
		return fmt.Errorf("config: worker.concurrency must be ≥ 1, got %d", c.Worker.Concurrency)
	}

	// Log
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|console", c.Log.Format)
	}

	return nil
}
