// Package config holds the generator configuration and its YAML file form.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"atomikgen/internal/namespace"
)

// DefaultFile is the configuration file read when --config is not given.
const DefaultFile = "atomikgen.yaml"

// Config holds configuration for code generation.
type Config struct {
	// OutputDir is the root every target subtree is written under.
	OutputDir string `yaml:"output_dir" validate:"required"`
	// Targets restricts generation; empty means every registered target.
	Targets []string `yaml:"targets" validate:"dive,target"`
	// Validate reports semantic warnings and notes. Structural and
	// cross-field checks always run.
	Validate bool `yaml:"validate"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" validate:"oneof=debug info warn error"`
	// LogFormat is text or json.
	LogFormat string `yaml:"log_format" validate:"oneof=text json"`
	// Parallelism bounds the number of schemas a batch processes at once.
	Parallelism int `yaml:"parallelism" validate:"gte=1,lte=256"`
	// Report is the path of the machine-readable batch report, if any.
	Report string `yaml:"report,omitempty"`
}

// Default returns the default generator configuration.
func Default() Config {
	return Config{
		OutputDir:   "generated",
		Validate:    true,
		LogLevel:    "warn",
		LogFormat:   "text",
		Parallelism: 4,
	}
}

// Load reads the configuration file at path over the defaults. A missing
// DefaultFile is not an error; any other missing file is.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && path == DefaultFile {
			return cfg, nil
		}

		return cfg, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if err := cfg.Check(); err != nil {
		return cfg, fmt.Errorf("config file %s: %w", path, err)
	}

	return cfg, nil
}

var configValidator = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}

		return name
	})

	// Registration only fails for an empty tag or a nil function.
	_ = v.RegisterValidation("target", func(fl validator.FieldLevel) bool {
		return namespace.IsTarget(fl.Field().String())
	})

	return v
}

// Check validates the configuration, reporting every invalid key.
func (c Config) Check() error {
	err := configValidator.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}

	return errors.New(strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	key := strings.TrimPrefix(fe.Namespace(), "Config.")

	switch fe.Tag() {
	case "required":
		return key + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %q", key, fe.Param(), fe.Value())
	case "target":
		return fmt.Sprintf("%s: unknown target %q (known: %s)", key, fe.Value(), strings.Join(namespace.Targets(), ", "))
	case "gte", "lte":
		return fmt.Sprintf("%s must be %s %s, got %v", key, fe.Tag(), fe.Param(), fe.Value())
	default:
		return fmt.Sprintf("%s failed %s validation", key, fe.Tag())
	}
}
