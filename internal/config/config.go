// Package config loads the application configuration from config.toml next
// to the executable, with defaults and a few environment overrides.
package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// AppConfig is the full application configuration.
type AppConfig struct {
	Server     ServerConfig     `toml:"server"`
	Data       DataConfig       `toml:"data"`
	Redis      RedisConfig      `toml:"redis"`
	Parser     ParserConfig     `toml:"parser"`
	Confidence ConfidenceConfig `toml:"confidence"`
	Validation ValidationConfig `toml:"validation"`
	Jobs       JobsConfig       `toml:"jobs"`
}

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Port    int  `toml:"port"`
	DevMode bool `toml:"dev_mode"`
}

// DataConfig holds filesystem locations.
type DataConfig struct {
	DataDir string `toml:"data_dir"`
}

// RedisConfig holds the queue/tracker backend settings. An empty Addr
// selects the in-memory backend.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// ParserConfig tunes the fuzzy format adapter. SheetPatterns appends
// project-specific sheet name patterns per annexure type; ProjectAliases
// maps filename substrings to project codes.
type ParserConfig struct {
	MaxSearchRows       int                 `toml:"max_search_rows"`
	MaxSearchCols       int                 `toml:"max_search_cols"`
	MaxColOffset        int                 `toml:"max_col_offset"`
	MaxRowOffset        int                 `toml:"max_row_offset"`
	SimilarityThreshold float64             `toml:"similarity_threshold"`
	SheetPatterns       map[string][]string `toml:"sheet_patterns"`
	ProjectAliases      map[string]string   `toml:"project_aliases"`
}

// ConfidenceConfig weights the parse confidence score. The three weights
// must sum to 1.0.
type ConfidenceConfig struct {
	HeaderMatch    float64 `toml:"header_match"`
	DataComplete   float64 `toml:"data_complete"`
	ValidationPass float64 `toml:"validation_pass"`
}

// ValidationConfig tunes the report consistency checks.
type ValidationConfig struct {
	ProgressGapPoints   float64 `toml:"progress_gap_points"`
	MilestoneDelayDays  int     `toml:"milestone_delay_days"`
	OverrunRatio        float64 `toml:"overrun_ratio"`
	VarianceEpsilon     float64 `toml:"variance_epsilon"`
	ActivityProgressGap float64 `toml:"activity_progress_gap"`
	ReconcileTolerance  float64 `toml:"reconcile_tolerance"`
}

// JobsConfig bounds the processing layer.
type JobsConfig struct {
	Concurrency       int   `toml:"concurrency"`
	MaxRetries        int   `toml:"max_retries"`
	JobTimeoutSeconds int   `toml:"job_timeout_seconds"`
	RetentionSeconds  int   `toml:"retention_seconds"`
	MaxFileSizeMB     int64 `toml:"max_file_size_mb"`
	BatchLimit        int   `toml:"batch_limit"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:    8080,
			DevMode: false,
		},
		Data: DataConfig{
			DataDir: "data",
		},
		Redis: RedisConfig{
			Addr: "",
		},
		Parser: ParserConfig{
			MaxSearchRows:       50,
			MaxSearchCols:       20,
			MaxColOffset:        3,
			MaxRowOffset:        5,
			SimilarityThreshold: 0.85,
		},
		Confidence: ConfidenceConfig{
			HeaderMatch:    0.3,
			DataComplete:   0.4,
			ValidationPass: 0.3,
		},
		Validation: ValidationConfig{
			ProgressGapPoints:   20,
			MilestoneDelayDays:  30,
			OverrunRatio:        0.10,
			VarianceEpsilon:     0.01,
			ActivityProgressGap: 5,
			ReconcileTolerance:  100,
		},
		Jobs: JobsConfig{
			Concurrency:       10,
			MaxRetries:        3,
			JobTimeoutSeconds: 600,
			RetentionSeconds:  604800,
			MaxFileSizeMB:     100,
			BatchLimit:        10,
		},
	}
}

// Validate rejects configurations the pipeline cannot run with.
func (c *AppConfig) Validate() error {
	sum := c.Confidence.HeaderMatch + c.Confidence.DataComplete + c.Confidence.ValidationPass
	if math.Abs(sum-1.0) > 1e-9 {
		return fmt.Errorf("confidence weights must sum to 1.0, got %.4f", sum)
	}
	if c.Jobs.Concurrency <= 0 {
		return fmt.Errorf("jobs.concurrency must be positive, got %d", c.Jobs.Concurrency)
	}
	if c.Jobs.MaxFileSizeMB <= 0 {
		return fmt.Errorf("jobs.max_file_size_mb must be positive, got %d", c.Jobs.MaxFileSizeMB)
	}
	return nil
}

// GetExeDir returns the directory of the running executable.
func GetExeDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Dir(exe), nil
}

// LoadConfig reads config.toml from the executable's directory. A missing
// file yields the defaults.
func LoadConfig() (*AppConfig, error) {
	config := DefaultConfig()

	exeDir, err := GetExeDir()
	if err != nil {
		exeDir = "."
	}
	configPath := filepath.Join(exeDir, "config.toml")

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnvOverrides(config)
			return config, config.Validate()
		}
		return nil, err
	}
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, err
	}

	applyEnvOverrides(config)
	return config, config.Validate()
}

// applyEnvOverrides handles the deployment-time knobs.
func applyEnvOverrides(config *AppConfig) {
	if v := os.Getenv("MMRHUB_REDIS_ADDR"); v != "" {
		config.Redis.Addr = v
	}
	if v := os.Getenv("MMRHUB_DATA_DIR"); v != "" {
		config.Data.DataDir = v
	}
}

// EnsureDataDir creates the data directory and its uploads subdirectory,
// returning the resolved path.
func EnsureDataDir(config *AppConfig) (string, error) {
	exeDir, err := GetExeDir()
	if err != nil {
		exeDir = "."
	}
	dataDir := config.Data.DataDir
	if !filepath.IsAbs(dataDir) {
		dataDir = filepath.Join(exeDir, dataDir)
	}
	if err := os.MkdirAll(filepath.Join(dataDir, "uploads"), 0755); err != nil {
		return "", err
	}
	return dataDir, nil
}
