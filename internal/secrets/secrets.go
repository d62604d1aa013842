// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys and credentials from a directory of plain-text files.
// Each file in the directory represents one secret: the filename is the key name and the
// file contents (trimmed) are the value.
//
// Supported key files: backend-api-key, backend-admin-key.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files produce a warning on stderr but do not abort.
func Load(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not read secret %s: %v\n", name, err)
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// Lookup returns the value for key, or fallback when the key is absent
// or empty. Callers pass a config value as the fallback so secrets files
// win over configuration.
func Lookup(secrets map[string]string, key, fallback string) string {
	if v, ok := secrets[key]; ok && v != "" {
		return v
	}
	return fallback
}
