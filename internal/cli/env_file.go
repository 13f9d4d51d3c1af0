package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// loadEnvFile parses KEY=VALUE lines from a .env file. Blank lines, comments
// and a leading "export " are allowed; matching outer quotes are stripped.
func loadEnvFile(path string) (map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open env file: %w", err)
	}
	defer func() { _ = file.Close() }()

	env := make(map[string]string)
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("invalid line %d in env file: %s", lineNum, line)
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		if len(value) >= 2 {
			if (value[0] == '"' && value[len(value)-1] == '"') ||
				(value[0] == '\'' && value[len(value)-1] == '\'') {
				value = value[1 : len(value)-1]
			}
		}

		if key == "" {
			return nil, fmt.Errorf("empty key at line %d", lineNum)
		}

		env[key] = value
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading env file: %w", err)
	}

	return env, nil
}

// setEnvironmentVariables exports env into the process. Variables that are
// already set keep their value.
func setEnvironmentVariables(env map[string]string) error {
	for key, value := range env {
		if _, exists := os.LookupEnv(key); exists {
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			return fmt.Errorf("failed to set environment variable %s: %w", key, err)
		}
	}
	return nil
}

// applyEnvFile loads path into the environment and returns what it read, for
// use as template env. An empty path is a no-op.
func applyEnvFile(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	env, err := loadEnvFile(path)
	if err != nil {
		return nil, err
	}
	if err := setEnvironmentVariables(env); err != nil {
		return nil, err
	}
	Logger.Debug("loaded env file", "path", path, "count", len(env))
	return env, nil
}
