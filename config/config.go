// Package config loads the settings of the bagr command from a TOML file.
package config

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
	"github.com/pkg/errors"

	"github.com/ndlib/bagr/bagit"
)

// Config holds every setting. Zero values mean the default.
type Config struct {
	// Algorithms are the digest algorithms used for new bags.
	Algorithms []string `toml:"algorithms"`

	// Workers bounds how many files are digested at once.
	Workers int `toml:"workers"`

	// Rate limits digest reads, in bytes per second.
	Rate float64 `toml:"rate"`

	// FixityDB is where the operation history is kept: empty for
	// nowhere, "memory", a QL file name, or "mysql:<dial>".
	FixityDB string `toml:"fixity_db"`

	// SentryDSN, if set, sends errors to Sentry.
	SentryDSN string `toml:"sentry_dsn"`

	SoftwareAgent string `toml:"software_agent"`

	// BagInfo are tags added to the bag-info.txt of every new bag, in
	// order.
	BagInfo []Tag `toml:"bag_info"`
}

// Tag is a bag-info tag to add to new bags.
type Tag struct {
	Label string `toml:"label"`
	Value string `toml:"value"`
}

// Default returns the settings used when there is no configuration file.
func Default() *Config {
	c := &Config{SoftwareAgent: bagit.DefaultSoftwareAgent}
	for _, a := range bagit.DefaultAlgorithms {
		c.Algorithms = append(c.Algorithms, string(a))
	}
	return c
}

// DefaultPath is the configuration file read when none is given, usually
// ~/.config/bagr/config.toml.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "bagr", "config.toml")
}

// Load reads the configuration file at path on top of the defaults. The
// file must exist. Keys which are not known are logged and ignored.
func Load(path string) (*Config, error) {
	c := Default()
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		return nil, errors.Wrapf(err, "config %s", path)
	}
	for _, key := range md.Undecoded() {
		log.Warn("unknown config key", "file", path, "key", key.String())
	}
	if err := c.check(); err != nil {
		return nil, errors.Wrapf(err, "config %s", path)
	}
	log.Debug("loaded config", "file", path)
	return c, nil
}

// LoadDefault reads the file at DefaultPath, if there is one.
func LoadDefault() (*Config, error) {
	path := DefaultPath()
	if path == "" {
		return Default(), nil
	}
	c, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return c, err
}

func (c *Config) check() error {
	if _, err := bagit.ParseAlgorithms(c.Algorithms); err != nil {
		return err
	}
	if c.Workers < 0 {
		return errors.Errorf("workers must not be negative, got %d", c.Workers)
	}
	if c.Rate < 0 {
		return errors.Errorf("rate must not be negative, got %g", c.Rate)
	}
	return nil
}

// Options turns the settings into options for the bagit package.
func (c *Config) Options() (*bagit.Options, error) {
	algs, err := bagit.ParseAlgorithms(c.Algorithms)
	if err != nil {
		return nil, err
	}
	info := bagit.NewBagInfo()
	for _, tag := range c.BagInfo {
		if err := info.AddTag(tag.Label, tag.Value); err != nil {
			return nil, errors.Wrap(err, "config bag_info")
		}
	}
	return &bagit.Options{
		Algorithms:    algs,
		Workers:       c.Workers,
		Rate:          c.Rate,
		Info:          info,
		SoftwareAgent: c.SoftwareAgent,
	}, nil
}
