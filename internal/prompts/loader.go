// Package prompts provides the prompt protocols issued to the external
// text-understanding service. Prompts are stored as JSON files, embedded at
// compile time and parsed once into an immutable Library.
package prompts

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"sort"
	"strings"
)

//go:embed *.json
var promptFiles embed.FS

// Library holds parsed prompt files keyed by filename, then prompt key. It is read-only after construction.
type Library struct {
	files map[string]map[string]string
}

// defaultLibrary is parsed from the embedded files at init and never mutated
var defaultLibrary = mustLoad(promptFiles)

// Load parses every *.json file at the root of fsys
func Load(fsys fs.FS) (*Library, error) {
	names, err := fs.Glob(fsys, "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list prompt files: %w", err)
	}

	lib := &Library{files: make(map[string]map[string]string, len(names))}
	for _, name := range names {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("failed to read prompt file %s: %w", name, err)
		}
		var prompts map[string]string
		if err := json.Unmarshal(data, &prompts); err != nil {
			return nil, fmt.Errorf("failed to parse prompt file %s: %w", name, err)
		}
		lib.files[name] = prompts
	}
	return lib, nil
}

func mustLoad(fsys fs.FS) *Library {
	lib, err := Load(fsys)
	if err != nil {
		panic(err)
	}
	return lib
}

// Get retrieves a prompt by filename and key
func (l *Library) Get(filename, key string) (string, error) {
	prompts, ok := l.files[filename]
	if !ok {
		return "", fmt.Errorf("failed to read prompt file %s: not found", filename)
	}
	prompt, ok := prompts[key]
	if !ok {
		return "", fmt.Errorf("prompt key %q not found in %s", key, filename)
	}
	return prompt, nil
}

// List returns the prompt keys in a file, sorted
func (l *Library) List(filename string) ([]string, error) {
	prompts, ok := l.files[filename]
	if !ok {
		return nil, fmt.Errorf("failed to read prompt file %s: not found", filename)
	}
	keys := make([]string, 0, len(prompts))
	for key := range prompts {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

// Get retrieves a prompt from the embedded library.
// The filename should not include the path (e.g., "extraction.json").
func Get(filename, key string) (string, error) {
	return defaultLibrary.Get(filename, key)
}

// MustGet retrieves a prompt from the embedded library, panicking if not found.
// Only use it with literal filenames and keys.
func MustGet(filename, key string) string {
	prompt, err := Get(filename, key)
	if err != nil {
		panic(fmt.Sprintf("failed to load prompt: %v", err))
	}
	return prompt
}

// List returns all prompt keys in an embedded file
func List(filename string) ([]string, error) {
	return defaultLibrary.List(filename)
}

// Format replaces placeholders in the form {{.Key}} with values from data.
// Substitution is a single pass, so values containing placeholders are left as-is.
func Format(template string, data map[string]string) string {
	keys := make([]string, 0, len(data))
	for key := range data {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, 2*len(keys))
	for _, key := range keys {
		pairs = append(pairs, "{{."+key+"}}", data[key])
	}
	return strings.NewReplacer(pairs...).Replace(template)
}
