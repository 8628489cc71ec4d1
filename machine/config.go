package machine

import (
	"context"
	"fmt"

	"github.com/viant/afs"
	"gopkg.in/yaml.v3"
)

// Config describes the simulated machine geometry and the kernel limits that
// depend on it.
type Config struct {
	// PageSize is the page size in bytes.
	PageSize int `yaml:"pageSize" json:"pageSize"`
	// NumPhysPages is the number of physical page frames.
	NumPhysPages int `yaml:"numPhysPages" json:"numPhysPages"`
	// StackPages is the number of pages reserved for each program's stack.
	StackPages int `yaml:"stackPages" json:"stackPages"`
	// ExecutableSuffix is the file suffix every executable image name must
	// carry; exec rejects names without it.
	ExecutableSuffix string `yaml:"executableSuffix" json:"executableSuffix"`
	// MaxArgLength bounds the length of any single string argument read from
	// user memory, not counting the NUL terminator.
	MaxArgLength int `yaml:"maxArgLength" json:"maxArgLength"`
}

// DefaultConfig returns the geometry used when no configuration is supplied.
func DefaultConfig() Config {
	return Config{
		PageSize:         1024,
		NumPhysPages:     64,
		StackPages:       8,
		ExecutableSuffix: ".bin",
		MaxArgLength:     256,
	}
}

// Validate reports the first problem with the configuration.
func (c Config) Validate() error {
	if c.PageSize <= 0 {
		return fmt.Errorf("machine: pageSize must be positive, got %d", c.PageSize)
	}
	if c.NumPhysPages <= 0 {
		return fmt.Errorf("machine: numPhysPages must be positive, got %d", c.NumPhysPages)
	}
	if c.StackPages <= 0 {
		return fmt.Errorf("machine: stackPages must be positive, got %d", c.StackPages)
	}
	if c.ExecutableSuffix == "" {
		return fmt.Errorf("machine: executableSuffix cannot be empty")
	}
	if c.MaxArgLength <= 0 {
		return fmt.Errorf("machine: maxArgLength must be positive, got %d", c.MaxArgLength)
	}
	return nil
}

// LoadConfig reads a yaml machine configuration from the supplied URL (any
// scheme the storage service understands, e.g. file path or mem://).
// Omitted fields keep their defaults.
func LoadConfig(ctx context.Context, URL string) (Config, error) {
	fs := afs.New()
	data, err := fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return Config{}, fmt.Errorf("machine: failed to load config %v: %w", URL, err)
	}
	config := DefaultConfig()
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("machine: failed to parse config %v: %w", URL, err)
	}
	if err := config.Validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}
