package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// jsonIndent is the indentation of rendered home reports.
const jsonIndent = "    "

// RenderJSON writes v as UTF-8 JSON without escaping non-ASCII or HTML characters.
// With indent set, nested values are indented by four spaces.
func RenderJSON(w io.Writer, v any, indent bool) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent {
		enc.SetIndent("", jsonIndent)
	}
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// RenderHome renders the home report the way the main page expects it: a
// one-element array, indented.
func RenderHome(w io.Writer, home any) error {
	return RenderJSON(w, []any{home}, true)
}

// WriteFile renders v into the file at path, creating parent directories.
func WriteFile(path string, v any, indent bool) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := RenderJSON(&buf, v, indent); err != nil {
		return err
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("failed to write report file: %w", err)
	}
	return nil
}
