// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys from a directory of plain-text files. Each
// file in the directory represents one secret: the filename is the key name
// and the file contents (trimmed) are the value. Keys missing from the
// directory fall back to environment variables.
//
// Supported key files: openai-api-key, anthropic-api-key, gemini-api-key,
// cohere-api-key, serper-api-key.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Key file names.
const (
	OpenAIKey    = "openai-api-key"
	AnthropicKey = "anthropic-api-key"
	GeminiKey    = "gemini-api-key"
	CohereKey    = "cohere-api-key"
	SerperKey    = "serper-api-key"
)

// EnvFallbacks maps each key file to the environment variable consulted
// when the file is absent.
var EnvFallbacks = map[string]string{
	OpenAIKey:    "OPENAI_API_KEY",
	AnthropicKey: "ANTHROPIC_API_KEY",
	GeminiKey:    "GEMINI_API_KEY",
	CohereKey:    "COHERE_API_KEY",
	SerperKey:    "SERPER_API_KEY",
}

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

// LoadWithEnv is Load plus the environment: every key in EnvFallbacks that
// has no file takes its value from the environment variable, if set.
func LoadWithEnv(dir string) (map[string]string, error) {
	secrets, err := Load(dir)
	if err != nil {
		return nil, err
	}
	for key, env := range EnvFallbacks {
		if _, ok := secrets[key]; ok {
			continue
		}
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			secrets[key] = v
		}
	}
	return secrets, nil
}
