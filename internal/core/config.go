// Package core contains configuration loading and validation for the task
// server: the global .ppadconfig file, environment overrides, and the
// per-repository .ppad.yaml command override.
package core

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/drmercer/prompt-pad/internal/integration"
)

// SecretEnvVar is the environment variable that supplies the bearer secret,
// taking precedence over the config file.
const SecretEnvVar = "PPAD_SECRET"

// Config holds the process configuration assembled at startup.
type Config struct {
	ServerName string   // reported in status responses
	Addr       string   // listen address
	Host       string   // expected Host header on every request
	Secret     string   // shared bearer secret
	StateDir   string   // directory for task documents and the event log
	Command    []string // external command argv containing the prompt placeholder
}

// RepoConfig is the optional per-repository override file (.ppad.yaml),
// kept untracked inside the target repository.
type RepoConfig struct {
	Command []string `yaml:"command"`
}

// ResolveStateDir returns the state directory: $PPAD_STATE_DIR if set,
// otherwise ~/.prompt-pad, falling back to the current directory when the
// home directory cannot be determined.
func ResolveStateDir() string {
	if dir := os.Getenv("PPAD_STATE_DIR"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".prompt-pad")
}

// LoadConfig reads .ppadconfig from the state directory using Viper. A
// missing file yields defaults; the secret from the environment overrides
// the file. Validation is separate (Validate) so callers can layer flag and
// per-repo overrides first.
func LoadConfig(stateDir string) (*Config, error) {
	cfg := &Config{
		ServerName: "prompt-pad",
		Addr:       "127.0.0.1:8999",
		StateDir:   stateDir,
	}

	v := viper.New()
	v.SetConfigName(".ppadconfig")
	v.SetConfigType("yaml")
	v.AddConfigPath(stateDir)

	v.SetDefault("server.name", cfg.ServerName)
	v.SetDefault("server.addr", cfg.Addr)
	v.SetDefault("server.host", "")
	v.SetDefault("secret", "")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading .ppadconfig: %w", err)
		}
		// No config file found: defaults plus environment.
	}

	cfg.ServerName = v.GetString("server.name")
	cfg.Addr = v.GetString("server.addr")
	cfg.Host = v.GetString("server.host")
	cfg.Secret = v.GetString("secret")
	cfg.Command = v.GetStringSlice("command")

	if env := os.Getenv(SecretEnvVar); env != "" {
		cfg.Secret = env
	}
	if cfg.Host == "" {
		cfg.Host = cfg.Addr
	}

	return cfg, nil
}

// LoadRepoConfig reads the optional .ppad.yaml override inside the target
// repository. A missing file returns (nil, nil).
func LoadRepoConfig(repoPath string) (*RepoConfig, error) {
	path := filepath.Join(repoPath, ".ppad.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var rc RepoConfig
	if err := yaml.Unmarshal(data, &rc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &rc, nil
}

// Validate checks that the assembled configuration can run a server. A
// missing secret or an unusable command is a fatal startup error.
func (c *Config) Validate() error {
	if c.Secret == "" {
		return fmt.Errorf("no secret configured: set %s or add 'secret' to .ppadconfig", SecretEnvVar)
	}
	if len(c.Command) == 0 {
		return fmt.Errorf("no command configured: pass one after -- or add 'command' to .ppadconfig")
	}
	if !hasPlaceholder(c.Command) {
		return fmt.Errorf("command must contain the %s placeholder", integration.PromptPlaceholder)
	}
	return nil
}

// hasPlaceholder reports whether any argv entry carries the prompt
// placeholder token.
func hasPlaceholder(command []string) bool {
	for _, arg := range command {
		if strings.Contains(arg, integration.PromptPlaceholder) {
			return true
		}
	}
	return false
}
