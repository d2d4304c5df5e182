package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/yumyai/hlalocus/logger"
	"go.uber.org/zap"
)

// Config holds the process settings. Every field can be set through the
// environment (or a .env file) and overridden by command line flags.
type Config struct {
	LogLevel    string // HLALOCUS_LOG_LEVEL
	Blasr       string // HLALOCUS_BLASR, path of the blasr executable
	Nproc       int    // HLALOCUS_NPROC
	FastaWidth  int    // HLALOCUS_FASTA_WIDTH
	Keystore    string // HLALOCUS_KEYSTORE, sqlite path or postgres:// DSN
	StageDir    string // HLALOCUS_STAGE_DIR, where s3:// inputs are downloaded
	S3Region    string // HLALOCUS_S3_REGION
	S3Endpoint  string // HLALOCUS_S3_ENDPOINT
	S3PathStyle bool   // HLALOCUS_S3_PATH_STYLE
	MetricsFile string // HLALOCUS_METRICS_FILE
	Normalize   string // HLALOCUS_NORMALIZE, query name normalizer: base or identity
	LocusName   string // HLALOCUS_LOCUS_NAME, reference record naming: first-field or whole
}

func Default() Config {
	return Config{
		LogLevel:   "info",
		Blasr:      "blasr",
		Nproc:      1,
		FastaWidth: 60,
		StageDir:   "./staging",
		S3Region:   "us-east-1",
		Normalize:  "base",
		LocusName:  "first-field",
	}
}

// Load reads .env files (if any) into the environment, then the HLALOCUS_* variables.
func Load(files ...string) Config {
	if err := godotenv.Load(files...); err != nil {
		logger.Warn("No .env found, using local environment")
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from getenv, keeping defaults for unset or invalid values.
func FromEnv(getenv func(string) string) Config {
	cfg := Default()
	setString(&cfg.LogLevel, getenv("HLALOCUS_LOG_LEVEL"))
	setString(&cfg.Blasr, getenv("HLALOCUS_BLASR"))
	setInt(&cfg.Nproc, "HLALOCUS_NPROC", getenv("HLALOCUS_NPROC"))
	setInt(&cfg.FastaWidth, "HLALOCUS_FASTA_WIDTH", getenv("HLALOCUS_FASTA_WIDTH"))
	setString(&cfg.Keystore, getenv("HLALOCUS_KEYSTORE"))
	setString(&cfg.StageDir, getenv("HLALOCUS_STAGE_DIR"))
	setString(&cfg.S3Region, getenv("HLALOCUS_S3_REGION"))
	setString(&cfg.S3Endpoint, getenv("HLALOCUS_S3_ENDPOINT"))
	cfg.S3PathStyle = strings.EqualFold(getenv("HLALOCUS_S3_PATH_STYLE"), "true")
	setString(&cfg.MetricsFile, getenv("HLALOCUS_METRICS_FILE"))
	setString(&cfg.Normalize, getenv("HLALOCUS_NORMALIZE"))
	setString(&cfg.LocusName, getenv("HLALOCUS_LOCUS_NAME"))
	return cfg
}

func setString(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}

func setInt(dst *int, name, value string) {
	if value == "" {
		return
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		logger.Warn("Ignoring invalid integer setting", zap.String("name", name), zap.String("value", value))
		return
	}
	*dst = n
}
