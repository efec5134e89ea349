package config

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/gregLibert/desfire-audit/pkg/originality"
	"github.com/pion/logging"
	"gopkg.in/yaml.v3"
)

// DefaultResponseCapacity bounds a chained response when the file sets none.
const DefaultResponseCapacity = 4096

// Config is the audit tool configuration, as read from YAML.
type Config struct {
	ReaderIndex      int    `yaml:"reader_index"`
	LogLevel         string `yaml:"log_level"`
	APDUTrace        bool   `yaml:"apdu_trace"`
	ISOSelectDFNames bool   `yaml:"iso_select_df_names"`
	ResponseCapacity int    `yaml:"response_capacity"`
	ProbeAuth        bool   `yaml:"probe_auth"`

	// OriginalityKeys are tried after the built-in NXP catalog.
	OriginalityKeys []KeyConfig `yaml:"originality_keys"`
}

// KeyConfig is an extra originality public key: a label and the 57-byte
// uncompressed P-224 point in hex.
type KeyConfig struct {
	Label string `yaml:"label"`
	Key   string `yaml:"key"`
}

var logLevels = map[string]logging.LogLevel{
	"trace":    logging.LogLevelTrace,
	"debug":    logging.LogLevelDebug,
	"info":     logging.LogLevelInfo,
	"warn":     logging.LogLevelWarn,
	"error":    logging.LogLevelError,
	"disabled": logging.LogLevelDisabled,
}

// Default is the configuration used when no file is given.
func Default() *Config {
	return &Config{
		LogLevel:         "warn",
		ResponseCapacity: DefaultResponseCapacity,
		ProbeAuth:        true,
	}
}

// Load reads a YAML file on top of Default and validates the result.
// Unknown keys are rejected.
func Load(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(content))
	dec.KnownFields(true)

	cfg := Default()
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("parse config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges and enumerations and decodes every configured key.
func (c *Config) Validate() error {
	if c.ReaderIndex < 0 {
		return fmt.Errorf("config.reader_index must be >= 0")
	}
	if _, ok := logLevels[strings.ToLower(c.LogLevel)]; !ok {
		return fmt.Errorf("config.log_level %q is not one of trace, debug, info, warn, error, disabled", c.LogLevel)
	}
	if c.ResponseCapacity <= 0 {
		return fmt.Errorf("config.response_capacity must be > 0")
	}
	for i, k := range c.OriginalityKeys {
		if strings.TrimSpace(k.Label) == "" {
			return fmt.Errorf("config.originality_keys[%d].label is required", i)
		}
		raw, err := decodeKey(k.Key)
		if err != nil {
			return fmt.Errorf("config.originality_keys[%d].key: %w", i, err)
		}
		if len(raw) != originality.PublicKeySize {
			return fmt.Errorf("config.originality_keys[%d].key must be %d bytes, got %d", i, originality.PublicKeySize, len(raw))
		}
	}
	return nil
}

// Catalog returns the built-in originality keys followed by the configured ones.
func (c *Config) Catalog() ([]originality.PublicKey, error) {
	keys := originality.DefaultCatalog()
	for i, k := range c.OriginalityKeys {
		raw, err := decodeKey(k.Key)
		if err != nil {
			return nil, fmt.Errorf("config.originality_keys[%d].key: %w", i, err)
		}
		keys = append(keys, originality.PublicKey{Label: k.Label, Key: raw})
	}
	return keys, nil
}

// LoggerFactory builds the pion factory for the configured level. It returns
// nil when logging is disabled. apdu_trace raises the desfire scope to trace.
func (c *Config) LoggerFactory() logging.LoggerFactory {
	level := logLevels[strings.ToLower(c.LogLevel)]
	if level == logging.LogLevelDisabled && !c.APDUTrace {
		return nil
	}

	f := logging.NewDefaultLoggerFactory()
	f.DefaultLogLevel = level
	if c.APDUTrace {
		f.ScopeLevels["desfire"] = logging.LogLevelTrace
	}
	return f
}

func decodeKey(s string) ([]byte, error) {
	clean := strings.NewReplacer(" ", "", ":", "").Replace(s)
	return hex.DecodeString(clean)
}
