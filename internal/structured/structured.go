// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package structured parses JSON objects out of free-form model output.
// The only recovery it attempts is locating the outermost {...} span;
// anything else is reported as ErrMalformed so callers can fall back to a
// deterministic default.
package structured

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformed is returned when the text holds no decodable JSON object.
var ErrMalformed = errors.New("malformed structured response")

// MalformedError describes why a response could not be parsed.
type MalformedError struct {
	Reason string
	Err    error
}

func (e *MalformedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", ErrMalformed, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", ErrMalformed, e.Reason)
}

func (e *MalformedError) Is(target error) bool { return target == ErrMalformed }

func (e *MalformedError) Unwrap() error { return e.Err }

// Extract returns the span from the first '{' to the last '}' in text.
func Extract(text string) (string, error) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", &MalformedError{Reason: "no opening brace"}
	}
	end := strings.LastIndexByte(text, '}')
	if end < start {
		return "", &MalformedError{Reason: "no closing brace"}
	}
	return text[start : end+1], nil
}

// Decode extracts the outermost JSON object from text and unmarshals it into v.
func Decode(text string, v any) error {
	span, err := Extract(text)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(span), v); err != nil {
		return &MalformedError{Reason: "invalid JSON", Err: err}
	}
	return nil
}
