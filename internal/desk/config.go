package desk

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/shumlab/papertrade/internal/risk"
	"github.com/shumlab/papertrade/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ConfigVersion is the config schema version this build understands.
// Configs must match on major and minor; patch may differ.
const ConfigVersion = "1.0.0"

// Config is the desk's top-level configuration.
type Config struct {
	Version        string      `yaml:"version" json:"version" jsonschema:"title=Version,description=Config schema version" validate:"required"`
	InitialCapital float64     `yaml:"initial_capital" json:"initial_capital" jsonschema:"title=Initial Capital,description=Starting settled cash in USD,minimum=0" validate:"gt=0"`
	ResultsFolder  string      `yaml:"results_folder" json:"results_folder" jsonschema:"title=Results Folder,description=Directory for Parquet exports and run stats"`
	Risk           risk.Config `yaml:"risk" json:"risk" jsonschema:"title=Risk Limits"`
}

// UnmarshalYAML fills the risk section with the desk's standing limits when
// the config omits it.
func (c *Config) UnmarshalYAML(unmarshal func(interface{}) error) error {
	type rawConfig struct {
		Version        string       `yaml:"version"`
		InitialCapital float64      `yaml:"initial_capital"`
		ResultsFolder  string       `yaml:"results_folder"`
		Risk           *risk.Config `yaml:"risk"`
	}

	var raw rawConfig
	if err := unmarshal(&raw); err != nil {
		return err
	}

	c.Version = raw.Version
	c.InitialCapital = raw.InitialCapital
	c.ResultsFolder = raw.ResultsFolder

	if raw.Risk != nil {
		c.Risk = *raw.Risk
	} else {
		c.Risk = risk.DefaultConfig()
	}

	return nil
}

// LoadConfig reads, parses, and validates a yaml config file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to read config file", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse config file", err)
	}

	if err := config.Validate(); err != nil {
		return Config{}, err
	}

	return config, nil
}

// Validate checks field constraints and the config schema version.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "config validation failed", err)
	}

	return checkVersionCompatibility(c.Version, ConfigVersion)
}

// checkVersionCompatibility requires matching major and minor versions.
// "main" on either side marks a development build and skips the check.
func checkVersionCompatibility(configVersion, supportedVersion string) error {
	configVersion = strings.TrimPrefix(configVersion, "v")
	supportedVersion = strings.TrimPrefix(supportedVersion, "v")

	if configVersion == "main" || supportedVersion == "main" {
		return nil
	}

	configSemver, err := semver.NewVersion(configVersion)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeUnsupportedVersion, err, "invalid config version '%s'", configVersion)
	}

	supportedSemver, err := semver.NewVersion(supportedVersion)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeUnsupportedVersion, err, "invalid supported version '%s'", supportedVersion)
	}

	if configSemver.Major() != supportedSemver.Major() {
		return errors.Newf(errors.ErrCodeUnsupportedVersion,
			"major version mismatch: desk supports %d.x.x but config declares %d.x.x",
			supportedSemver.Major(), configSemver.Major())
	}

	if configSemver.Minor() != supportedSemver.Minor() {
		return errors.Newf(errors.ErrCodeUnsupportedVersion,
			"minor version mismatch: desk supports %d.%d.x but config declares %d.%d.x",
			supportedSemver.Major(), supportedSemver.Minor(),
			configSemver.Major(), configSemver.Minor())
	}

	return nil
}

// GenerateSchema generates a JSON schema for the desk config.
func (c *Config) GenerateSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  false,
		// Inline nested structs; with the root expanded a $ref into $defs
		// would dangle in the marshalled output.
		DoNotReference: true,
	}

	schema := reflector.Reflect(c)
	schema.Title = "papertrade-desk-config"
	schema.Description = "Configuration schema for the paper-trading desk"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return schema
}

// GenerateSchemaJSON generates the JSON schema string for the desk config.
func (c *Config) GenerateSchemaJSON() (string, error) {
	schemaBytes, err := json.MarshalIndent(c.GenerateSchema(), "", "  ")
	if err != nil {
		return "", err
	}

	return string(schemaBytes), nil
}

// DefaultConfig returns a config carrying the desk's standing limits.
func DefaultConfig() Config {
	return Config{
		Version:        ConfigVersion,
		InitialCapital: 10_000,
		ResultsFolder:  "results",
		Risk:           risk.DefaultConfig(),
	}
}
