// Package config owns the .snapforge workspace directory and the runtime
// settings for one invocation. Settings come from the environment and may be
// overridden by CLI flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
)

const (
	// WorkspaceDir is the per-project directory snapforge keeps its logs and
	// declarative extension definitions in.
	WorkspaceDir = ".snapforge"

	// DefaultProjectFile is the project description file name.
	DefaultProjectFile = "snapforge.yaml"
)

// Config holds the runtime configuration for one invocation.
type Config struct {
	// ProjectFile overrides the project description path.
	ProjectFile string `env:"SNAPFORGE_PROJECT_FILE"`

	// ExtensionsDir overrides where declarative extension definitions are
	// discovered.
	ExtensionsDir string `env:"SNAPFORGE_EXTENSIONS_DIR"`

	// Debug enables verbose log output.
	Debug bool `env:"SNAPFORGE_DEBUG"`

	projectDir string
}

// Load builds the configuration rooted at projectDir with environment
// overrides applied.
func Load(projectDir string) (*Config, error) {
	cfg := &Config{projectDir: projectDir}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: parse environment: %w", err)
	}
	return cfg, nil
}

// ProjectDir returns the directory the invocation was rooted at.
func (c *Config) ProjectDir() string {
	return c.projectDir
}

// WorkspacePath returns the .snapforge directory for the project.
func (c *Config) WorkspacePath() string {
	return filepath.Join(c.projectDir, WorkspaceDir)
}

// ProjectFilePath resolves the project description path. Relative overrides
// are taken from the project directory.
func (c *Config) ProjectFilePath() string {
	return c.resolve(c.ProjectFile, DefaultProjectFile)
}

// ExtensionsDirPath resolves the declarative extension definitions directory.
func (c *Config) ExtensionsDirPath() string {
	return c.resolve(c.ExtensionsDir, filepath.Join(WorkspaceDir, "extensions"))
}

func (c *Config) resolve(override, fallback string) string {
	path := override
	if path == "" {
		path = fallback
	}
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.projectDir, path)
}

// InitWorkspace creates the .snapforge directory structure.
//
// Structure created:
//
//	.snapforge/
//	├── logs/        <- orchestration activity log
//	└── extensions/  <- declarative extension definitions (*.yaml)
func InitWorkspace(projectDir string) error {
	workspace := filepath.Join(projectDir, WorkspaceDir)
	for _, dir := range []string{
		filepath.Join(workspace, "logs"),
		filepath.Join(workspace, "extensions"),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("config: create %s: %w", dir, err)
		}
	}
	return nil
}
