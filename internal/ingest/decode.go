// Package ingest decodes activity logs, bulk import files and onboarding
// answers from JSON or YAML. Decoding is strict: unknown fields and trailing
// content are rejected, and every decode failure matches
// engine.ErrValidation. Semantic checks stay in the engine.
package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rshade/planetzero/internal/engine"
	"github.com/rshade/planetzero/internal/logging"
)

// Format is an input encoding.
type Format string

// Supported formats. FormatAuto sniffs the content.
const (
	FormatAuto Format = ""
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks a format from a file extension, falling back to
// FormatAuto.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatAuto
	}
}

// detect resolves FormatAuto: content starting with '{' or '[' is JSON,
// anything else YAML.
func detect(data []byte, f Format) Format {
	if f != FormatAuto {
		return f
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
		return FormatJSON
	}
	return FormatYAML
}

// decodeStrict decodes data into v, rejecting unknown fields.
func decodeStrict(ctx context.Context, what string, data []byte, f Format, v any) error {
	f = detect(data, f)
	log := logging.FromContext(ctx)
	log.Debug().
		Str("component", "ingest").
		Str("operation", "decode").
		Str("kind", what).
		Str("format", string(f)).
		Int("data_size_bytes", len(data)).
		Msg("decoding input")

	if len(bytes.TrimSpace(data)) == 0 {
		return fmt.Errorf("%w: %s is empty", engine.ErrValidation, what)
	}

	var err error
	switch f {
	case FormatJSON:
		err = decodeJSON(data, v)
	case FormatYAML:
		err = decodeYAML(data, v)
	default:
		return fmt.Errorf("%w: unsupported format %q", engine.ErrValidation, f)
	}
	if err != nil {
		log.Warn().Str("component", "ingest").Str("kind", what).Err(err).Msg("decode failed")
		return fmt.Errorf("%w: parsing %s %s: %w", engine.ErrValidation, what, f, err)
	}
	return nil
}

func decodeJSON(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("unexpected content after document")
	}
	return nil
}

func decodeYAML(data []byte, v any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(v); err != nil {
		return err
	}
	var extra any
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return errors.New("unexpected second document")
	}
	return nil
}

// readFile reads path, with "-" meaning stdin.
func readFile(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}
