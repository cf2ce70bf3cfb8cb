// Package config provides the structures used to configure edge nodes and
// hosts.
//
// Configuration can be loaded from a YAML file or directory of YAML files.
// If no config file is specified, the default path(s) are determined by the
// first defined value of $SPARKPLUG_CONFIG_PATH, $XDG_CONFIG_HOME/synapse.yaml,
// or $HOME/.config/synapse.yaml. If none of these exist, the default
// configuration is used, reading broker credentials from:
//
//   - broker:   $SPARKPLUG_BROKER_ADDRESS
//   - username: $SPARKPLUG_BROKER_USERNAME
//   - password: $SPARKPLUG_BROKER_PASSWORD
package config

import (
	"io"
	"os"
	"path/filepath"
	"reflect"

	"gopkg.in/yaml.v3"

	"github.com/joyautomation/synapse-go/config/secrets"
	"github.com/joyautomation/synapse-go/log"
)

// Config is the top-level configuration file shape. A single file may
// configure an edge node, a host, or both (e.g. for local integration
// testing where one process runs both sides).
type Config struct {
	Node *NodeConfig `yaml:"node,omitempty"`
	Host *HostConfig `yaml:"host,omitempty"`
}

func defaultCfg() *Config {
	return &Config{
		Node: defaultNodeCfg(),
		Host: defaultHostCfg(),
	}
}

// Default returns the default configuration.
func Default() *Config {
	cfg := defaultCfg()
	cfg.init()

	return cfg
}

// Read returns the Config parsed from the yaml encoded config read from r.
func Read(r io.Reader) (cfg *Config, err error) {
	cfg = defaultCfg()
	if err = yaml.NewDecoder(r).Decode(cfg); err != nil && err != io.EOF {
		return nil, err
	}

	cfg.init()

	return cfg, nil
}

// Load returns the Config parsed from the given yaml file or directory. If
// filename does not exist, the default config is returned. If filename is a
// directory, every ".yml"/".yaml" file within it is read and merged in
// lexical order, later files overriding earlier ones.
func Load(filename string) (*Config, error) {
	log.Info("Loading config", "path", filename)

	if filename == "" {
		return Default(), nil
	}

	info, err := os.Stat(filename)
	if err != nil {
		return Default(), nil
	}

	cfg := defaultCfg()

	decode := func(path string) error {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		err = yaml.NewDecoder(f).Decode(cfg)
		if err == io.EOF {
			return nil
		}

		return err
	}

	if !info.IsDir() {
		if err := decode(filename); err != nil {
			return nil, err
		}
	} else {
		entries, err := os.ReadDir(filename)
		if err != nil {
			return nil, err
		}

		for _, e := range entries {
			if e.IsDir() {
				continue
			}

			switch filepath.Ext(e.Name()) {
			case ".yml", ".yaml":
			default:
				continue
			}

			if err := decode(filepath.Join(filename, e.Name())); err != nil {
				return nil, err
			}
		}
	}

	cfg.init()

	return cfg, nil
}

// DefaultPath returns the default config file path determined by
// $SPARKPLUG_CONFIG_PATH, $XDG_CONFIG_HOME/synapse.yaml, or
// $HOME/.config/synapse.yaml, in that order. It returns "" if none apply.
func DefaultPath() string {
	if p := os.Getenv("SPARKPLUG_CONFIG_PATH"); p != "" {
		return p
	}
	if p := os.Getenv("XDG_CONFIG_HOME"); p != "" {
		return filepath.Join(p, "synapse.yaml")
	}
	if p := os.Getenv("HOME"); p != "" {
		return filepath.Join(p, ".config", "synapse.yaml")
	}

	return ""
}

// Write writes the yaml encoding of cfg to w.
func (cfg *Config) Write(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	defer enc.Close()

	enc.SetIndent(2)

	return enc.Encode(cfg)
}

func (cfg *Config) init() {
	expandStrings(reflect.ValueOf(cfg))
}

func (cfg *NodeConfig) init() {
	expandStrings(reflect.ValueOf(cfg))
}

func (cfg *HostConfig) init() {
	expandStrings(reflect.ValueOf(cfg))
}

// Expand replaces "!secret <path>" with the contents of the file at <path>,
// and otherwise expands ${var} / $var according to the current environment.
func Expand(s string) string {
	if path, ok := secrets.CutPrefix(s); ok {
		return secrets.MustRead(path, "")
	}

	return os.ExpandEnv(s)
}

func expandStrings(v reflect.Value) {
	switch v.Kind() {
	case reflect.Pointer:
		if !v.IsNil() {
			expandStrings(v.Elem())
		}
	case reflect.Struct:
		n := v.NumField()
		for i := 0; i < n; i++ {
			f := v.Field(i)
			if !f.CanSet() {
				continue
			}
			expandStrings(f)
		}
	case reflect.Slice, reflect.Array:
		n := v.Len()
		for i := 0; i < n; i++ {
			expandStrings(v.Index(i))
		}
	case reflect.String:
		v.SetString(Expand(v.String()))
	}
}
