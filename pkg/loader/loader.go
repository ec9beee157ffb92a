package loader

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// ErrEmptyInput is returned when there is nothing to parse.
var ErrEmptyInput = errors.New("empty input")

// LoadData parses structured data from a string, auto-detecting the format.
// Supports:
// - Single JSON object/array
// - Newline-delimited JSON (NDJSON): one JSON value per line
// - YAML: single document or multi-document (separated by ---)
// - TOML
//
// Every format returns one element per parsed document.
func LoadData(input string) ([]interface{}, error) {
	input = normalizeNewlines(strings.TrimSpace(input))
	if input == "" {
		return nil, ErrEmptyInput
	}

	if strings.Contains(input, "\n---") || strings.HasPrefix(input, "---") {
		return loadMultiDocYAML(input)
	}

	lines := strings.Split(input, "\n")
	if len(lines) > 1 && isLikelyNDJSON(lines) {
		return loadNDJSON(input)
	}

	// TOML [section] headers look like JSON arrays, so check TOML first.
	if isLikelyTOML(input) {
		if docs, err := loadTOML(input); err == nil {
			return docs, nil
		}
	}

	if strings.HasPrefix(input, "{") || strings.HasPrefix(input, "[") {
		docs, err := loadJSON(input)
		if err == nil {
			return docs, nil
		}
		// Flow-style YAML also starts with a brace.
		if ydocs, yerr := loadYAML(input); yerr == nil {
			return ydocs, nil
		}
		return nil, err
	}

	return loadYAML(input)
}

// LoadReader reads r to the end and parses it with LoadData.
func LoadReader(r io.Reader) ([]interface{}, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return LoadData(string(data))
}

// LoadFile reads a file and parses it. A known extension selects the parser;
// when that parser fails, or the extension is unknown, detection decides.
func LoadFile(path string) ([]interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	input := normalizeNewlines(strings.TrimSpace(string(data)))
	if input == "" {
		return nil, fmt.Errorf("%s: %w", path, ErrEmptyInput)
	}

	var parse func(string) ([]interface{}, error)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		parse = loadJSON
	case ".ndjson", ".jsonl":
		parse = loadNDJSON
	case ".yaml", ".yml":
		parse = loadMultiDocYAML
	case ".toml":
		parse = loadTOML
	}
	if parse != nil {
		if docs, err := parse(input); err == nil {
			return docs, nil
		}
	}
	docs, err := LoadData(input)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return docs, nil
}

// normalizeNewlines turns CRLF and bare CR (progress output) into LF.
func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

// loadJSON parses a single JSON object or array and wraps it in []interface{}
func loadJSON(input string) ([]interface{}, error) {
	var data interface{}
	if err := json.Unmarshal([]byte(input), &data); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	return []interface{}{data}, nil
}

// loadYAML parses a single YAML document and wraps it in []interface{}
func loadYAML(input string) ([]interface{}, error) {
	var data interface{}
	if err := yaml.Unmarshal([]byte(input), &data); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}
	return []interface{}{data}, nil
}

// loadMultiDocYAML parses YAML with one or more documents separated by ---.
func loadMultiDocYAML(input string) ([]interface{}, error) {
	var results []interface{}
	decoder := yaml.NewDecoder(strings.NewReader(input))

	for {
		var doc interface{}
		if err := decoder.Decode(&doc); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("invalid multi-document YAML: %w", err)
		}
		if doc != nil {
			results = append(results, doc)
		}
	}

	if len(results) == 0 {
		return nil, fmt.Errorf("no documents found in multi-document YAML")
	}
	return results, nil
}

// loadNDJSON parses newline-delimited JSON. Lines that are not valid JSON are
// kept as plain strings.
func loadNDJSON(input string) ([]interface{}, error) {
	lines := strings.Split(input, "\n")
	results := make([]interface{}, 0, len(lines))

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		var obj interface{}
		if err := json.Unmarshal([]byte(line), &obj); err != nil {
			results = append(results, line)
			continue
		}
		results = append(results, obj)
	}

	if len(results) == 0 {
		return nil, fmt.Errorf("no data found in input")
	}
	return results, nil
}

// isLikelyNDJSON requires a majority of non-empty lines to start with '{' or
// '[', so YAML with many bare list items is not misclassified.
func isLikelyNDJSON(lines []string) bool {
	jsonCount := 0
	nonEmptyCount := 0

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		nonEmptyCount++
		if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
			jsonCount++
		}
	}

	return nonEmptyCount > 1 && jsonCount > nonEmptyCount/2
}

var (
	// [server], [[items]], ["table name"], [database.credentials] at column 0;
	// not [1, 2, 3] and not indented YAML block content.
	tomlSection = regexp.MustCompile(`^\[{1,2}(?:[a-zA-Z_][a-zA-Z0-9_-]*|"[^"]+"|'[^']+')+(?:\.(?:[a-zA-Z_][a-zA-Z0-9_-]*|"[^"]+"|'[^']+'))*\]{1,2}\s*$`)
	// key = value, as opposed to YAML's key: value.
	tomlKeyValue = regexp.MustCompile(`^\s*(?:[a-zA-Z_][a-zA-Z0-9_-]*|"[^"]+"|'[^']+')+(?:\.(?:[a-zA-Z_][a-zA-Z0-9_-]*|"[^"]+"|'[^']+'))*\s*=\s*.+$`)
)

// isLikelyTOML reports TOML when any section header is present or most lines
// are key = value pairs.
func isLikelyTOML(input string) bool {
	sectionCount := 0
	keyValueCount := 0
	nonEmptyCount := 0

	for _, line := range strings.Split(input, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		nonEmptyCount++
		if tomlSection.MatchString(line) {
			sectionCount++
		}
		if tomlKeyValue.MatchString(line) {
			keyValueCount++
		}
	}

	if sectionCount > 0 {
		return true
	}
	return nonEmptyCount > 0 && keyValueCount > nonEmptyCount/2
}

// loadTOML parses TOML content and wraps it in []interface{}
func loadTOML(input string) ([]interface{}, error) {
	var data map[string]interface{}
	if err := toml.Unmarshal([]byte(input), &data); err != nil {
		return nil, fmt.Errorf("invalid TOML: %w", err)
	}
	return []interface{}{data}, nil
}
