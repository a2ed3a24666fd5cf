package application

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-prograde/internal/domain"
)

// ConfigLoader parses and validates course configuration documents.
// Use ConfigLoader to turn a YAML file into a Config with defaults applied
// and relative input paths resolved.
type ConfigLoader struct {
	// validator performs struct field validation with the custom tags
	// registered by RegisterConfigValidators.
	validator *validator.Validate
}

// NewConfigLoader creates a loader with the custom validators registered.
// NewConfigLoader returns an error if validator registration fails.
func NewConfigLoader() (*ConfigLoader, error) {
	v := validator.New()
	if err := RegisterConfigValidators(v); err != nil {
		return nil, fmt.Errorf("failed to register validators: %w", err)
	}
	return &ConfigLoader{validator: v}, nil
}

// LoadFromFile reads the configuration at path. Relative input paths in
// the document resolve against the directory holding path.
func (cl *ConfigLoader) LoadFromFile(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return cl.load(data, filepath.Dir(cleanPath))
}

// LoadFromReader reads a configuration from r. Relative input paths
// resolve against dir.
func (cl *ConfigLoader) LoadFromReader(r io.Reader, dir string) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return cl.load(data, dir)
}

func (cl *ConfigLoader) load(data []byte, dir string) (*Config, error) {
	config, err := cl.parseYAML(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	config.dir = dir

	if err := cl.validateConfig(config); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	applyDefaults(config)
	resolvePaths(config)
	return config, nil
}

// parseYAML decodes data in strict mode so misspelled keys are reported
// rather than silently ignored.
func (cl *ConfigLoader) parseYAML(data []byte) (*Config, error) {
	var config Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	if err := decoder.Decode(&config); err != nil {
		if err == io.EOF {
			return nil, domain.NewConfigError("projects", "configuration document is empty")
		}
		return nil, fmt.Errorf("YAML decode failed: %w", err)
	}
	return &config, nil
}

// validateConfig runs struct tag validation followed by the semantic
// rules tags cannot express.
func (cl *ConfigLoader) validateConfig(config *Config) error {
	if err := cl.validator.Struct(config); err != nil {
		return fmt.Errorf("struct validation failed: %w", err)
	}
	if err := cl.validateSemantics(config); err != nil {
		return fmt.Errorf("semantic validation failed: %w", err)
	}
	return nil
}

// validateSemantics checks uniqueness constraints across the document.
// Membership against the roster is checked by the Grader, which has the
// roster at hand.
func (cl *ConfigLoader) validateSemantics(config *Config) error {
	names := make(map[string]struct{}, len(config.Projects))
	for _, p := range config.Projects {
		if _, exists := names[p.Name]; exists {
			return domain.NewConfigError("projects", fmt.Sprintf("duplicate project %q", p.Name))
		}
		names[p.Name] = struct{}{}

		logins := make(map[string]struct{}, len(p.Members))
		for _, m := range p.Members {
			if _, exists := logins[m.Login]; exists {
				return domain.NewConfigError("projects",
					fmt.Sprintf("project %q lists %q twice", p.Name, m.Login))
			}
			logins[m.Login] = struct{}{}
		}
	}

	targets := make(map[string]struct{}, len(config.Export.ColMap))
	for _, rn := range config.Export.ColMap {
		if rn.From == "" || rn.To == "" {
			return domain.NewConfigError("export.col_map", "column names must not be empty")
		}
		if _, exists := targets[rn.To]; exists {
			return domain.NewConfigError("export.col_map", fmt.Sprintf("output column %q used twice", rn.To))
		}
		targets[rn.To] = struct{}{}
	}

	seen := make(map[string]struct{}, len(config.OutputColumns))
	for _, col := range config.OutputColumns {
		if _, exists := seen[col]; exists {
			return domain.NewConfigError("output_columns", fmt.Sprintf("column %q listed twice", col))
		}
		seen[col] = struct{}{}
	}
	return nil
}

func applyDefaults(c *Config) {
	if c.MarksCol == "" {
		c.MarksCol = DefaultMarksCol
	}
	if c.ProjectsPath == "" {
		c.ProjectsPath = DefaultProjectsPath
	}
	if c.MarksFroot == "" {
		c.MarksFroot = DefaultMarksFroot
	}
	if c.Rounding == "" {
		c.Rounding = DefaultRounding
	}
	if c.Export.Fname == "" {
		c.Export.Fname = DefaultExportFname
	}
	if c.FeedbackIDCol == "" {
		c.FeedbackIDCol = c.StudentIDCol
	}
}

// resolvePaths anchors input paths at the configuration directory. Output
// paths stay relative to the working directory.
func resolvePaths(c *Config) {
	c.RosterPath = resolve(c.dir, c.RosterPath)
	c.ProjectsPath = resolve(c.dir, c.ProjectsPath)
	c.CanvasExportPath = resolve(c.dir, c.CanvasExportPath)
}

func resolve(dir, p string) string {
	if p == "" || filepath.IsAbs(p) || dir == "" {
		return p
	}
	return filepath.Join(dir, p)
}
