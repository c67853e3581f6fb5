// Package config provides configuration loading, defaults, and validation for
// the CultureMech pipeline.
package config

import "time"

// ─────────────────────────────────────────────────────────────────────────────
// Default value constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	DefaultRootDir           = "./data"
	DefaultRawDir            = "./data/raw"
	DefaultRawYAMLDir        = "./data/raw_yaml"
	DefaultNormalizedYAMLDir = "./data/normalized_yaml"
	DefaultMergeYAMLDir      = "./data/merge_yaml"
	DefaultQuarantineDir     = "./data/quarantine"

	DefaultOLSBaseURL     = "https://www.ebi.ac.uk/ols4/api"
	DefaultOLSAPIVersion  = "v4"
	DefaultRateLimitRPS   = 5.0
	DefaultRateLimitBurst = 10
	DefaultCacheDir       = "./data/.ontology_cache"
	DefaultFuzzyThreshold = 0.5

	DefaultConcentrationTolerance = 0.05

	DefaultServerPort = 8080
	DefaultServerMode = "debug"

	DefaultGRPCHost            = "0.0.0.0"
	DefaultGRPCPort            = 9090
	DefaultGRPCGracefulTimeout = 10 * time.Second

	DefaultDBHost     = "localhost"
	DefaultDBPort     = 5432
	DefaultDBName     = "culturemech"
	DefaultDBMaxConns = 25

	DefaultRedisAddr = "localhost:6379"
	DefaultRedisDB   = 0

	DefaultKafkaBroker  = "localhost:9092"
	DefaultKafkaGroupID = "culturemech-curation"

	DefaultMinIOEndpoint = "localhost:9000"
	DefaultMinIOBucket   = "culturemech-layers"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultWorkerConcurrency = 10
)

// DefaultSourcePriority is the fallback source trust order used when
// merge.source_priority is left unset — DSMZ is the most curated upstream
// source, followed by MediaDive, TOGO, and KOMODO.
var DefaultSourcePriority = []string{"DSMZ", "MediaDive", "TOGO", "KOMODO"}

// ─────────────────────────────────────────────────────────────────────────────
// ApplyDefaults fills zero-value fields in cfg with well-known defaults.
// It must be called after unmarshalling raw config data and before Validate()
// so that optional-but-defaulted fields are never seen as missing.
// ─────────────────────────────────────────────────────────────────────────────

// ApplyDefaults fills every zero-value field in cfg with the pipeline
// default. Fields that have already been set by the caller (non-zero values)
// are left unchanged so that explicit configuration always wins.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── Pipeline ──────────────────────────────────────────────────────────────
	if cfg.Pipeline.RootDir == "" {
		cfg.Pipeline.RootDir = DefaultRootDir
	}
	if cfg.Pipeline.RawDir == "" {
		cfg.Pipeline.RawDir = DefaultRawDir
	}
	if cfg.Pipeline.RawYAMLDir == "" {
		cfg.Pipeline.RawYAMLDir = DefaultRawYAMLDir
	}
	if cfg.Pipeline.NormalizedYAMLDir == "" {
		cfg.Pipeline.NormalizedYAMLDir = DefaultNormalizedYAMLDir
	}
	if cfg.Pipeline.MergeYAMLDir == "" {
		cfg.Pipeline.MergeYAMLDir = DefaultMergeYAMLDir
	}
	if cfg.Pipeline.QuarantineDir == "" {
		cfg.Pipeline.QuarantineDir = DefaultQuarantineDir
	}

	// ── Ontology ──────────────────────────────────────────────────────────────
	if cfg.Ontology.OLSBaseURL == "" {
		cfg.Ontology.OLSBaseURL = DefaultOLSBaseURL
	}
	if cfg.Ontology.OLSAPIVersion == "" {
		cfg.Ontology.OLSAPIVersion = DefaultOLSAPIVersion
	}
	if cfg.Ontology.RequestTimeout == 0 {
		cfg.Ontology.RequestTimeout = 15 * time.Second
	}
	if cfg.Ontology.RateLimitRPS == 0 {
		cfg.Ontology.RateLimitRPS = DefaultRateLimitRPS
	}
	if cfg.Ontology.RateLimitBurst == 0 {
		cfg.Ontology.RateLimitBurst = DefaultRateLimitBurst
	}
	if cfg.Ontology.CacheDir == "" {
		cfg.Ontology.CacheDir = DefaultCacheDir
	}
	if cfg.Ontology.CacheTTL == 0 {
		cfg.Ontology.CacheTTL = 24 * time.Hour
	}
	if cfg.Ontology.FuzzyThreshold == 0 {
		cfg.Ontology.FuzzyThreshold = DefaultFuzzyThreshold
	}
	if cfg.Ontology.MaxRetries == 0 {
		cfg.Ontology.MaxRetries = 3
	}
	if len(cfg.Ontology.PreferredOntologies) == 0 {
		cfg.Ontology.PreferredOntologies = []string{"CHEBI", "FOODON", "NCBITaxon"}
	}

	// ── Merge ─────────────────────────────────────────────────────────────────
	if len(cfg.Merge.SourcePriority) == 0 {
		cfg.Merge.SourcePriority = DefaultSourcePriority
	}
	if cfg.Merge.ConcentrationTolerance == 0 {
		cfg.Merge.ConcentrationTolerance = DefaultConcentrationTolerance
	}

	// ── Validation ────────────────────────────────────────────────────────────
	// StrictReferences is not defaulted here (the zero value of bool is
	// false). The validate subcommand does not read this field: it runs
	// strict unless --lenient-references is given.

	// ── Server ────────────────────────────────────────────────────────────────
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = DefaultServerMode
	}

	// ── gRPC ──────────────────────────────────────────────────────────────────
	if cfg.GRPC.Host == "" {
		cfg.GRPC.Host = DefaultGRPCHost
	}
	if cfg.GRPC.Port == 0 {
		cfg.GRPC.Port = DefaultGRPCPort
	}
	if cfg.GRPC.GracefulTimeout == 0 {
		cfg.GRPC.GracefulTimeout = DefaultGRPCGracefulTimeout
	}

	// ── Database ──────────────────────────────────────────────────────────────
	if cfg.Database.Host == "" {
		cfg.Database.Host = DefaultDBHost
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = DefaultDBPort
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = DefaultDBName
	}
	if cfg.Database.MaxConns == 0 {
		cfg.Database.MaxConns = DefaultDBMaxConns
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}

	// ── Redis ─────────────────────────────────────────────────────────────────
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = DefaultRedisAddr
	}
	// DB is an int; 0 is a valid explicit value so we cannot distinguish "not
	// set" from "set to 0". We leave it as-is (0 is also the default).

	// ── Kafka ─────────────────────────────────────────────────────────────────
	if len(cfg.Kafka.Brokers) == 0 {
		cfg.Kafka.Brokers = []string{DefaultKafkaBroker}
	}
	if cfg.Kafka.GroupID == "" {
		cfg.Kafka.GroupID = DefaultKafkaGroupID
	}
	if cfg.Kafka.AutoOffsetReset == "" {
		cfg.Kafka.AutoOffsetReset = "earliest"
	}

	// ── MinIO ─────────────────────────────────────────────────────────────────
	if cfg.MinIO.Endpoint == "" {
		cfg.MinIO.Endpoint = DefaultMinIOEndpoint
	}
	if cfg.MinIO.Bucket == "" {
		cfg.MinIO.Bucket = DefaultMinIOBucket
	}

	// ── Worker ────────────────────────────────────────────────────────────────
	if cfg.Worker.Concurrency == 0 {
		cfg.Worker.Concurrency = DefaultWorkerConcurrency
	}
	if cfg.Worker.MaxRetries == 0 {
		cfg.Worker.MaxRetries = 3
	}

	// ── Log ───────────────────────────────────────────────────────────────────
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
}
