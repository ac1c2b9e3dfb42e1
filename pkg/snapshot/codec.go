package snapshot

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrUnknownCodec is returned for a manifest format other than json or yaml.
var ErrUnknownCodec = errors.New("manifest format must be json or yaml")

const (
	manifestIndent     = "  "
	manifestYAMLIndent = 2
	manifestFileMode   = 0o644
)

// Codec reads and writes manifests in one text format.
type Codec interface {
	Encode(w io.Writer, manifest any) error
	// Decode fails on fields the target type does not declare.
	Decode(r io.Reader, manifest any) error
	// Extension is appended to the manifest path, dot included.
	Extension() string
}

// JSONCodec writes JSON manifests. An empty Indent gives one line per manifest.
type JSONCodec struct {
	Indent string
}

// NewJSONCodec returns the codec used when no manifest format is configured.
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{Indent: manifestIndent}
}

func (c *JSONCodec) Encode(w io.Writer, manifest any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", c.Indent)

	if err := enc.Encode(manifest); err != nil {
		return fmt.Errorf("encode json manifest: %w", err)
	}

	return nil
}

func (c *JSONCodec) Decode(r io.Reader, manifest any) error {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	if err := dec.Decode(manifest); err != nil {
		return fmt.Errorf("decode json manifest: %w", err)
	}

	return nil
}

func (c *JSONCodec) Extension() string { return ".json" }

// YAMLCodec writes YAML manifests with a two space indent.
type YAMLCodec struct{}

// NewYAMLCodec returns a YAMLCodec.
func NewYAMLCodec() *YAMLCodec {
	return &YAMLCodec{}
}

func (c *YAMLCodec) Encode(w io.Writer, manifest any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(manifestYAMLIndent)

	if err := errors.Join(enc.Encode(manifest), enc.Close()); err != nil {
		return fmt.Errorf("encode yaml manifest: %w", err)
	}

	return nil
}

func (c *YAMLCodec) Decode(r io.Reader, manifest any) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	if err := dec.Decode(manifest); err != nil {
		return fmt.Errorf("decode yaml manifest: %w", err)
	}

	return nil
}

func (c *YAMLCodec) Extension() string { return ".yaml" }

// CodecFor maps a configured manifest format to its codec.
func CodecFor(format string) (Codec, error) {
	switch format {
	case "json":
		return NewJSONCodec(), nil
	case "yaml":
		return NewYAMLCodec(), nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownCodec, format)
}

// codecs is the order ReadManifest probes manifest extensions in.
func codecs() []Codec {
	return []Codec{NewJSONCodec(), NewYAMLCodec()}
}

// writeManifestFile encodes fully before touching path, so an encode error
// never leaves a truncated manifest behind.
func writeManifestFile(path string, codec Codec, manifest any) error {
	var buf bytes.Buffer

	if err := codec.Encode(&buf, manifest); err != nil {
		return err
	}

	if err := os.WriteFile(path, buf.Bytes(), manifestFileMode); err != nil {
		return fmt.Errorf("write file: %w", err)
	}

	return nil
}

func readManifestFile(path string, codec Codec, manifest any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	return codec.Decode(bytes.NewReader(data), manifest)
}
