package opencode

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ConfigFileName is the name of the generated config file.
const ConfigFileName = "opencode.json"

// ErrInvalidFileName is returned by Write for a bundle file whose name is not
// a single path element.
var ErrInvalidFileName = errors.New("invalid bundle file name")

// Write writes a bundle below dir:
//
//	opencode.json
//	agents/<name>.md
//	skills/<name>/SKILL.md
//	plugins/<name>
//
// Missing directories are created and existing files are overwritten.
// Every file name must be a single path element, so nothing is written
// outside dir.
func Write(dir string, b *Bundle) error {
	for _, group := range [][]File{b.Agents, b.Skills, b.Plugins} {
		for _, f := range group {
			if !ValidFileName(f.Name) {
				return fmt.Errorf("%w: %q", ErrInvalidFileName, f.Name)
			}
		}
	}

	config, err := MarshalConfig(b.Config)
	if err != nil {
		return err
	}
	if err := writeFile(filepath.Join(dir, ConfigFileName), config); err != nil {
		return err
	}

	for _, f := range b.Agents {
		if err := writeFile(filepath.Join(dir, "agents", f.Name+".md"), []byte(f.Content)); err != nil {
			return err
		}
	}
	for _, f := range b.Skills {
		if err := writeFile(filepath.Join(dir, "skills", f.Name, "SKILL.md"), []byte(f.Content)); err != nil {
			return err
		}
	}
	for _, f := range b.Plugins {
		if err := writeFile(filepath.Join(dir, "plugins", f.Name), []byte(f.Content)); err != nil {
			return err
		}
	}
	return nil
}

// MarshalConfig renders the config as indented JSON. Prompt text is kept
// verbatim rather than HTML-escaped.
func MarshalConfig(c Config) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(c); err != nil {
		return nil, fmt.Errorf("encoding config: %w", err)
	}
	return buf.Bytes(), nil
}

// ValidFileName reports whether name can be used as a single file or
// directory name inside a bundle.
func ValidFileName(name string) bool {
	switch name {
	case "", ".", "..":
		return false
	}
	return !strings.ContainsAny(name, `/\`+"\x00") && filepath.Base(name) == name
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
