// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API tokens from a directory of plain-text files and
// from dotenv files. Each file in the directory represents one secret: the
// filename is the key name and the file contents (trimmed) are the value.
//
// Supported keys: store-token (alias airtable-token), producer-token
// (alias apify-token).
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// Secrets maps key names to values.
type Secrets map[string]string

// Load reads all files in dir, then merges each dotenv file in envFiles.
// Dotenv names are converted to key form (STORE_TOKEN becomes store-token)
// and never override a value read from dir. Missing directories and dotenv
// files are not errors. Unreadable files produce a warning on stderr but do
// not abort.
func Load(dir string, envFiles ...string) (Secrets, error) {
	secrets := make(Secrets)

	entries, err := os.ReadDir(dir)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}
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

	for _, path := range envFiles {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}
		vars, err := godotenv.Read(path)
		if err != nil {
			return nil, fmt.Errorf("reading env file %s: %w", path, err)
		}
		for name, value := range vars {
			key := keyName(name)
			value = strings.TrimSpace(value)
			if _, ok := secrets[key]; ok || value == "" {
				continue
			}
			secrets[key] = value
		}
	}

	return secrets, nil
}

// Get returns the first non-empty value among keys. A key that is not loaded
// falls back to its environment variable form (store-token reads STORE_TOKEN).
func (s Secrets) Get(keys ...string) string {
	for _, k := range keys {
		if v := s[k]; v != "" {
			return v
		}
		if v := strings.TrimSpace(os.Getenv(envName(k))); v != "" {
			return v
		}
	}
	return ""
}

func keyName(env string) string {
	return strings.ReplaceAll(strings.ToLower(env), "_", "-")
}

func envName(key string) string {
	return strings.ReplaceAll(strings.ToUpper(key), "-", "_")
}
