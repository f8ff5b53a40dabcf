// Package llmjson recovers JSON objects from model output that may wrap
// them in prose, markdown fences, or several candidate objects.
package llmjson

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNoObject is returned when no parseable JSON object exists in the text.
var ErrNoObject = errors.New("no JSON object found in model output")

// Extract returns the raw JSON of the best object candidate in text.
// Candidates are gathered from fenced code blocks first, then from the raw
// text, including every balanced top-level {...} span. Among candidates that
// parse, one containing any of the given schema keys wins; otherwise the
// first parseable object is returned.
func Extract(text string, schemaKeys ...string) (string, error) {
	var firstValid string
	for _, candidate := range candidates(text) {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal([]byte(candidate), &obj); err != nil {
			continue
		}
		if firstValid == "" {
			firstValid = candidate
		}
		for _, key := range schemaKeys {
			if _, ok := obj[key]; ok {
				return candidate, nil
			}
		}
	}
	if firstValid == "" {
		return "", ErrNoObject
	}
	return firstValid, nil
}

// Decode extracts the best object candidate and unmarshals it into v.
func Decode(text string, v any, schemaKeys ...string) error {
	raw, err := Extract(text, schemaKeys...)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("decoding extracted object: %w", err)
	}
	return nil
}

// candidates lists candidate JSON texts in preference order: each fenced
// block body, the raw text, and every balanced object span inside either.
func candidates(text string) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			return
		}
		seen[s] = true
		out = append(out, s)
	}

	for _, block := range fencedBlocks(text) {
		add(block)
		for _, span := range objectSpans(block) {
			add(span)
		}
	}
	add(text)
	for _, span := range objectSpans(text) {
		add(span)
	}
	return out
}

// fencedBlocks returns the body of every ``` fenced block in order.
func fencedBlocks(text string) []string {
	var blocks []string
	rest := text
	for {
		start := strings.Index(rest, "```")
		if start < 0 {
			break
		}
		rest = rest[start+3:]
		// Skip the info string ("json", "javascript", ...) up to end of line.
		if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
			rest = rest[nl+1:]
		}
		end := strings.Index(rest, "```")
		if end < 0 {
			blocks = append(blocks, rest)
			break
		}
		blocks = append(blocks, rest[:end])
		rest = rest[end+3:]
	}
	return blocks
}

// objectSpans scans text character by character, tracking string and escape
// state, and returns every balanced top-level {...} span.
func objectSpans(text string) []string {
	var spans []string
	depth := 0
	start := -1
	inString := false
	escaped := false

	for i, r := range text {
		if inString {
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '"':
				inString = false
			}
			continue
		}
		switch r {
		case '"':
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 && start >= 0 {
				spans = append(spans, text[start:i+1])
				start = -1
			}
		}
	}
	return spans
}
