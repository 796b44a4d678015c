// Package config decodes and validates the startup document and compiles it
// into the templates and timings the picker runs with.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// Format is the syntax a document was decoded from.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// QueryCommand is the external search command. Both fields are templates
// over query and query_escaped.
type QueryCommand struct {
	Executable string   `json:"executable" yaml:"executable" toml:"executable"`
	Args       []string `json:"args" yaml:"args" toml:"args"`
}

// Config is the startup document.
type Config struct {
	QueryCommand QueryCommand `json:"query_command" yaml:"query_command" toml:"query_command"`

	// TimeoutMillis is the debounce interval. nil means the key was missing.
	TimeoutMillis *uint64 `json:"timeout_millis" yaml:"timeout_millis" toml:"timeout_millis"`

	// ExecTimeoutMillis bounds a single execution. Optional.
	ExecTimeoutMillis *uint64 `json:"exec_timeout_millis,omitempty" yaml:"exec_timeout_millis,omitempty" toml:"exec_timeout_millis,omitempty"`

	// DisplayTemplate may be empty. nil means the key was missing.
	DisplayTemplate *string `json:"display_template" yaml:"display_template" toml:"display_template"`
}

var (
	ErrEmptyDocument      = errors.New("empty document")
	ErrMissingExecutable  = errors.New("query_command.executable is required")
	ErrMissingTimeout     = errors.New("timeout_millis is required")
	ErrMissingDisplay     = errors.New("display_template is required")
	ErrTrailingJSONValues = errors.New("unexpected data after the JSON document")
)

// Decode parses data as JSON (comments and trailing commas allowed), TOML or
// YAML and validates the result. Unknown keys are rejected in every format.
func Decode(data []byte) (*Config, Format, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, "", stageErr(StageDecode, ErrEmptyDocument)
	}

	var (
		cfg    Config
		format Format
		err    error
	)
	switch {
	case trimmed[0] == '{':
		format = FormatJSON
		err = decodeJSON(trimmed, &cfg)
	case isLikelyTOML(string(trimmed)):
		format = FormatTOML
		err = decodeTOML(trimmed, &cfg)
	default:
		format = FormatYAML
		err = decodeYAML(trimmed, &cfg)
	}
	if err != nil {
		return nil, format, stageErr(StageDecode, fmt.Errorf("invalid %s: %w", strings.ToUpper(string(format)), err))
	}

	if err := cfg.Validate(); err != nil {
		return nil, format, stageErr(StageValidate, err)
	}
	return &cfg, format, nil
}

// Load reads a whole document from r and decodes it.
func Load(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, stageErr(StageRead, fmt.Errorf("reading config: %w", err))
	}
	cfg, _, err := Decode(data)
	return cfg, err
}

// LoadFile reads and decodes the document at path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, stageErr(StageRead, fmt.Errorf("reading %s: %w", path, err))
	}
	cfg, _, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks required keys. Type errors (fractional or negative
// timeouts) are caught while decoding.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.QueryCommand.Executable) == "" {
		errs = append(errs, ErrMissingExecutable)
	}
	if c.TimeoutMillis == nil {
		errs = append(errs, ErrMissingTimeout)
	}
	if c.DisplayTemplate == nil {
		errs = append(errs, ErrMissingDisplay)
	}
	return errors.Join(errs...)
}

func decodeJSON(data []byte, cfg *Config) error {
	dec := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return err
	}
	if dec.More() {
		return ErrTrailingJSONValues
	}
	return nil
}

func decodeTOML(data []byte, cfg *Config) error {
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(cfg)
}

func decodeYAML(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return ErrEmptyDocument
		}
		return err
	}
	return nil
}

var (
	// [table], [[array]], ["quoted"], [a.b]
	tomlSectionPattern = regexp.MustCompile(`^\s*\[{1,2}(?:[a-zA-Z_][a-zA-Z0-9_-]*|"[^"]+"|'[^']+')+(?:\.(?:[a-zA-Z_][a-zA-Z0-9_-]*|"[^"]+"|'[^']+'))*\]{1,2}\s*$`)
	// key = value, as opposed to YAML's key: value
	tomlKeyValuePattern = regexp.MustCompile(`^\s*(?:[a-zA-Z_][a-zA-Z0-9_-]*|"[^"]+"|'[^']+')+(?:\.(?:[a-zA-Z_][a-zA-Z0-9_-]*|"[^"]+"|'[^']+'))*\s*=\s*.+$`)
)

// isLikelyTOML reports whether input has a table header or mostly
// key = value lines.
func isLikelyTOML(input string) bool {
	sections, keyValues, nonEmpty := 0, 0, 0
	for _, line := range strings.Split(input, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		nonEmpty++
		if tomlSectionPattern.MatchString(line) {
			sections++
		}
		if tomlKeyValuePattern.MatchString(line) {
			keyValues++
		}
	}
	if sections > 0 {
		return true
	}
	return nonEmpty > 0 && keyValues > nonEmpty/2
}
