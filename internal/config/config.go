// Package config loads the optional slurm-usage settings file. Flags always
// override file values; the file covers site-specific knobs like the QOS
// filter and partition rates that should not live on the command line.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const DefaultFileName = ".slurm-usage.yaml"

// Duration wraps time.Duration so YAML values can be written as "15m".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

type SSHSettings struct {
	ConfigPath   string `yaml:"config_path"`
	IdentityFile string `yaml:"identity_file"`
	Port         int    `yaml:"port" validate:"min=0,max=65535"`
}

type Settings struct {
	// QOS restricts accounting queries to these QOS names; empty means all.
	QOS []string `yaml:"qos"`

	// Operators are usernames granted the same view-all capability as root.
	Operators []string `yaml:"operators"`

	// Rates maps partition name to cost per GPU-hour. Partitions without a
	// rate simply render no cost column.
	Rates map[string]float64 `yaml:"rates" validate:"dive,min=0"`

	// AccountingBuffer extends the sacct query past the window end so
	// records the accounting daemon commits late are still included.
	AccountingBuffer Duration `yaml:"accounting_buffer" validate:"min=0"`

	CommandTimeout Duration `yaml:"command_timeout" validate:"gt=0"`
	ConnectTimeout Duration `yaml:"connect_timeout" validate:"gt=0"`

	// MinSlurmVersion is the oldest Slurm the doctor check accepts.
	MinSlurmVersion string `yaml:"min_slurm_version"`

	SSH SSHSettings `yaml:"ssh"`
}

func Default() Settings {
	return Settings{
		AccountingBuffer: Duration(15 * time.Minute),
		CommandTimeout:   Duration(15 * time.Second),
		ConnectTimeout:   Duration(10 * time.Second),
		MinSlurmVersion:  "20.11",
	}
}

// Load reads settings from path, falling back to defaults when path is empty
// and no file exists in the home directory. An explicitly given path that
// cannot be read is an error; a missing default file is not.
func Load(path string) (Settings, error) {
	explicit := path != ""
	if !explicit {
		home, err := os.UserHomeDir()
		if err != nil {
			return Default(), nil
		}
		path = filepath.Join(home, DefaultFileName)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && os.IsNotExist(err) {
			return Default(), nil
		}
		return Settings{}, fmt.Errorf("read config %s: %w", path, err)
	}

	return Parse(data, path)
}

// Parse decodes and validates settings on top of the defaults.
func Parse(data []byte, path string) (Settings, error) {
	settings := Default()
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return Settings{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := validator.New().Struct(settings); err != nil {
		return Settings{}, fmt.Errorf("validate config %s: %w", path, err)
	}
	return settings, nil
}
