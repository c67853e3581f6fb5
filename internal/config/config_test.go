package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func newValidConfig() *Config {
	return &Config{
		Pipeline: PipelineConfig{
			RootDir:           "./data",
			RawDir:            "./data/raw",
			RawYAMLDir:        "./data/raw_yaml",
			NormalizedYAMLDir: "./data/normalized_yaml",
			MergeYAMLDir:      "./data/merge_yaml",
			QuarantineDir:     "./data/quarantine",
		},
		Ontology: OntologyConfig{
			OLSBaseURL:     "https://www.ebi.ac.uk/ols4/api",
			RateLimitRPS:   5.0,
			FuzzyThreshold: 0.5,
		},
		Merge: MergeConfig{
			SourcePriority: []string{"DSMZ", "MediaDive"},
		},
		Server: ServerConfig{
			Port: 8080,
			Mode: "debug",
		},
		Database: DatabaseConfig{
			Host:   "localhost",
			Port:   5432,
			User:   "user",
			DBName: "culturemech",
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Kafka: KafkaConfig{
			Brokers: []string{"localhost:9092"},
			GroupID: "culturemech-curation",
		},
		Worker: WorkerConfig{
			Concurrency: 10,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

func TestConfig_Validate_ValidConfig(t *testing.T) {
	cfg := newValidConfig()
	assert.NoError(t, cfg.Validate())
}

func TestConfig_Validate_MissingPipelineRootDir(t *testing.T) {
	cfg := newValidConfig()
	cfg.Pipeline.RootDir = ""
	assert.Error(t, cfg.Validate())
}

func TestConfig_Validate_MissingRawYAMLDir(t *testing.T) {
	cfg := newValidConfig()
	cfg.Pipeline.RawYAMLDir = ""
	assert.Error(t, cfg.Validate())
}

func TestConfig_Validate_MissingOLSBaseURL(t *testing.T) {
	cfg := newValidConfig()
	cfg.Ontology.OLSBaseURL = ""
	assert.Error(t, cfg.Validate())
}

func TestConfig_Validate_InvalidRateLimitRPS(t *testing.T) {
	cfg := newValidConfig()
	cfg.Ontology.RateLimitRPS = 0
	assert.Error(t, cfg.Validate())
}

func TestConfig_Validate_FuzzyThresholdOutOfRange(t *testing.T) {
	cfg := newValidConfig()
	cfg.Ontology.FuzzyThreshold = 1.5
	assert.Error(t, cfg.Validate())
}

func TestConfig_Validate_EmptySourcePriority(t *testing.T) {
	cfg := newValidConfig()
	cfg.Merge.SourcePriority = nil
	assert.Error(t, cfg.Validate())
}

func TestConfig_Validate_InvalidServerPort(t *testing.T) {
	cfg := newValidConfig()
	cfg.Server.Port = 70000
	assert.Error(t, cfg.Validate())
}

func TestConfig_Validate_InvalidServerMode(t *testing.T) {
	cfg := newValidConfig()
	cfg.Server.Mode = "bogus"
	assert.Error(t, cfg.Validate())
}

func TestConfig_Validate_ZeroWorkerConcurrency(t *testing.T) {
	cfg := newValidConfig()
	cfg.Worker.Concurrency = 0
	assert.Error(t, cfg.Validate())
}

func TestConfig_Validate_InvalidLogLevel(t *testing.T) {
	cfg := newValidConfig()
	cfg.Log.Level = "invalid"
	assert.Error(t, cfg.Validate())
}

func TestConfig_Validate_InvalidLogFormat(t *testing.T) {
	cfg := newValidConfig()
	cfg.Log.Format = "xml"
	assert.Error(t, cfg.Validate())
}
