package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

const globalEnvFile = ".hookguard.env"

// LoadEnv populates the process environment from .env files. Variables that
// are already set always win; among the files, earlier ones win:
// the --env file, then <projectDir>/.env, then ~/.hookguard.env.
// Only an explicit envFile is required to exist.
func LoadEnv(envFile, projectDir string) error {
	var files []string
	if envFile != "" {
		if _, err := os.Stat(envFile); err != nil {
			return fmt.Errorf("env file not found: %s", envFile)
		}
		files = append(files, envFile)
	}
	files = append(files, existing(envCandidates(projectDir)...)...)
	if len(files) == 0 {
		return nil
	}
	if err := godotenv.Load(files...); err != nil {
		return fmt.Errorf("load env: %w", err)
	}
	return nil
}

func envCandidates(projectDir string) []string {
	var paths []string
	if projectDir != "" {
		paths = append(paths, filepath.Join(projectDir, ".env"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, globalEnvFile))
	}
	return paths
}

func existing(paths ...string) []string {
	var out []string
	for _, p := range paths {
		if fi, err := os.Stat(p); err == nil && !fi.IsDir() {
			out = append(out, p)
		}
	}
	return out
}
