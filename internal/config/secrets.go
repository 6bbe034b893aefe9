package config

import (
	"fmt"
	"os"
	"strings"
)

// getEnv retrieves an environment variable value.
func getEnv(key string) string {
	return os.Getenv(key)
}

// getEnvOrFile retrieves a value from either a direct environment variable
// or a file path specified by the file key (Docker secrets pattern).
//
// If both are set, the file takes precedence. The file contents are trimmed
// of leading/trailing whitespace.
func getEnvOrFile(directKey, fileKey string) (string, error) {
	if filePath := os.Getenv(fileKey); filePath != "" {
		content, err := os.ReadFile(filePath)
		if err != nil {
			return "", fmt.Errorf("%s: reading %s: %w", fileKey, filePath, err)
		}
		return strings.TrimSpace(string(content)), nil
	}

	return os.Getenv(directKey), nil
}

// ReadKeyFile reads an API key from path. The file must be readable only by
// its owner (mode 0600 or 0400) and must not be empty.
func ReadKeyFile(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("auth_key_file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("auth_key_file: %s is not a regular file", path)
	}
	if perm := info.Mode().Perm(); perm != 0o600 && perm != 0o400 {
		return "", fmt.Errorf("auth_key_file: %s has mode %#o, must be 0600 or 0400 "+
			"(Docker secrets mount as 0444 unless the service sets mode: 0400)", path, perm)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("auth_key_file: %w", err)
	}
	key := strings.TrimSpace(string(content))
	if key == "" {
		return "", fmt.Errorf("auth_key_file: %s is empty", path)
	}
	return key, nil
}

// parseBool parses a boolean string, returning defaultValue on parse failure.
// Accepts: true/false, 1/0, yes/no, on/off (case-insensitive).
func parseBool(s string, defaultValue bool) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	default:
		return defaultValue
	}
}
