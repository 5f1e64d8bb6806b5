package bpopscfg

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DotEnvFileName is read from the directory of the configuration file.
const DotEnvFileName = ".env"

// Load reads the YAML file at path, expands ${VAR} references in provider and
// cluster settings, and validates the result. Variables come from the process
// environment first and then from a .env file next to the configuration.
func Load(path string) (*Root, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}

	var cfg Root
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal YAML: %w", err)
	}

	dotenv, err := readDotEnv(filepath.Join(filepath.Dir(path), DotEnvFileName))
	if err != nil {
		return nil, err
	}
	lookup := func(key string) string {
		if v, ok := os.LookupEnv(key); ok {
			return v
		}
		return dotenv[key]
	}
	expandSettings(cfg.Provider.Settings, lookup)
	expandSettings(cfg.Cluster.Settings, lookup)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func readDotEnv(path string) (map[string]string, error) {
	env, err := godotenv.Read(path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return env, nil
}

func expandSettings(settings map[string]string, lookup func(string) string) {
	for k, v := range settings {
		settings[k] = os.Expand(v, lookup)
	}
}
