package config

import (
	_ "embed"
	"os"
	"strconv"

	"github.com/kozaktomas/face-attendance/internal/facematch"
	"gopkg.in/yaml.v3"
)

//go:embed thresholds.yaml
var thresholdsYAML []byte

type Config struct {
	Database  DatabaseConfig
	Web       WebConfig
	Embedding EmbeddingConfig
	Matching  MatchingConfig
	Legacy    LegacyConfig
}

type DatabaseConfig struct {
	URL          string // PostgreSQL connection URL
	MaxOpenConns int    // Maximum open connections (default 25)
	MaxIdleConns int    // Maximum idle connections (default 5)
}

type WebConfig struct {
	Port           int
	Host           string
	SessionSecret  string
	AllowedOrigins string // comma-separated, localhost is always allowed
}

type EmbeddingConfig struct {
	Dim int // descriptor length produced by the client-side extractor, defaults to 128
}

// MatchingConfig selects the search strategy and acceptance thresholds.
type MatchingConfig struct {
	Index         string // "linear" (default) or "hnsw"
	HNSWIndexPath string // optional path to persist the HNSW roster index
	Enrollment    facematch.EnrollmentPolicy `yaml:"enrollment"`
	Attendance    facematch.AttendancePolicy `yaml:"attendance"`
}

type LegacyConfig struct {
	MariaDBDSN string // legacy roster source for `roster import`
}

const (
	IndexLinear = "linear"
	IndexHNSW   = "hnsw"
)

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads a positive float threshold, falling back to defaultVal.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
		return f
	}
	return defaultVal
}

func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

func Load() *Config {
	matching := MatchingConfig{
		Enrollment: facematch.DefaultEnrollmentPolicy(),
		Attendance: facematch.DefaultAttendancePolicy(),
	}
	if err := yaml.Unmarshal(thresholdsYAML, &matching); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded thresholds.yaml: " + err.Error())
	}

	matching.Index = envString("MATCH_INDEX", IndexLinear)
	if matching.Index != IndexHNSW {
		matching.Index = IndexLinear
	}
	matching.HNSWIndexPath = os.Getenv("HNSW_INDEX_PATH")
	matching.Enrollment.MaxDistance = envFloat("ENROLL_MAX_DISTANCE", matching.Enrollment.MaxDistance)
	matching.Enrollment.MinCosine = envFloat("ENROLL_MIN_COSINE", matching.Enrollment.MinCosine)
	matching.Attendance.MinCosine = envFloat("ATTEND_MIN_COSINE", matching.Attendance.MinCosine)
	matching.Attendance.MaxDistance = envFloat("ATTEND_MAX_DISTANCE", matching.Attendance.MaxDistance)

	return &Config{
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		Web: WebConfig{
			Port:           envInt("WEB_PORT", 8080),
			Host:           envString("WEB_HOST", "0.0.0.0"),
			SessionSecret:  os.Getenv("WEB_SESSION_SECRET"),
			AllowedOrigins: os.Getenv("WEB_ALLOWED_ORIGINS"),
		},
		Embedding: EmbeddingConfig{
			Dim: envInt("EMBEDDING_DIM", 128),
		},
		Matching: matching,
		Legacy: LegacyConfig{
			MariaDBDSN: os.Getenv("LEGACY_MARIADB_DSN"),
		},
	}
}

// UsesHNSW reports whether the HNSW roster index should back attendance matching.
func (c *MatchingConfig) UsesHNSW() bool {
	return c.Index == IndexHNSW
}
