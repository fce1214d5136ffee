package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaCUE string

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// DefaultHistoryLimit is the number of runs "history" lists by default.
const DefaultHistoryLimit = 20

// Config holds every setting the command line can also take as a flag.
type Config struct {
	Format        string `yaml:"format" json:"format"`
	Verbose       bool   `yaml:"verbose" json:"verbose"`
	Filter        string `yaml:"filter" json:"filter,omitempty"`
	FailuresFirst bool   `yaml:"failures_first" json:"failures_first"`
	DB            string `yaml:"db" json:"db,omitempty"`
	HistoryLimit  int    `yaml:"history_limit" json:"history_limit"`
	Kafka         Kafka  `yaml:"kafka" json:"kafka"`
}

// Kafka configures the result stream. Both fields are set or neither is.
type Kafka struct {
	Brokers []string `yaml:"brokers" json:"brokers,omitempty"`
	Topic   string   `yaml:"topic" json:"topic,omitempty"`
}

// Enabled reports whether results should be published.
func (k Kafka) Enabled() bool {
	return len(k.Brokers) > 0
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Format:       FormatText,
		HistoryLimit: DefaultHistoryLimit,
	}
}

// Load reads and validates the configuration file at path.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}
	defer f.Close()

	cfg, err := Decode(f)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Decode parses YAML from r over the defaults and validates the result.
// An empty document yields the defaults.
func Decode(r io.Reader) (Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Default()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cfg against the schema.
func (c Config) Validate() error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}

	value := schema.LookupPath(cue.ParsePath("#Config")).Unify(ctx.Encode(c))
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return &ValidationError{Details: cueerrors.Details(err, nil)}
	}

	if c.Kafka.Enabled() != (c.Kafka.Topic != "") {
		return &ValidationError{Details: "kafka: brokers and topic must be set together"}
	}
	return nil
}

// ValidationError reports a configuration that does not satisfy the schema.
type ValidationError struct {
	Details string
}

func (e *ValidationError) Error() string {
	return "invalid config: " + e.Details
}
