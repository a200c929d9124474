// Package persist saves and loads analysis results through pluggable codecs.
package persist

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pierrec/lz4/v4"
	"gopkg.in/yaml.v3"
)

// File extensions for supported codecs.
const (
	jsonExtension = ".json"
	yamlExtension = ".yaml"
	gobExtension  = ".gob"
	lz4Extension  = ".lz4"
)

// Default indentation for pretty-printed JSON.
const defaultIndent = "  "

// lz4Magic prefixes every LZ4 frame written by LZ4Codec.
var lz4Magic = []byte("ASZ4")

// Sentinel errors.
var (
	ErrUnknownFormat = errors.New("unknown persist format")
	ErrCorrupt       = errors.New("corrupt compressed state")
)

// Codec defines how state is serialized and deserialized.
type Codec interface {
	// Encode writes the state to the writer.
	Encode(w io.Writer, state any) error
	// Decode reads the state from the reader.
	Decode(r io.Reader, state any) error
	// Extension returns the file extension for this codec (e.g., ".json", ".gob").
	Extension() string
}

// JSONCodec implements Codec using JSON encoding with optional indentation.
type JSONCodec struct {
	// Indent specifies the indentation string. Empty string means compact JSON.
	Indent string
}

// NewJSONCodec creates a JSON codec with pretty-printing (2-space indent).
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{Indent: defaultIndent}
}

// Encode implements Codec.Encode using JSON encoding.
func (c *JSONCodec) Encode(w io.Writer, state any) error {
	encoder := json.NewEncoder(w)
	if c.Indent != "" {
		encoder.SetIndent("", c.Indent)
	}

	err := encoder.Encode(state)
	if err != nil {
		return fmt.Errorf("json encode: %w", err)
	}

	return nil
}

// Decode implements Codec.Decode using JSON decoding.
func (c *JSONCodec) Decode(r io.Reader, state any) error {
	err := json.NewDecoder(r).Decode(state)
	if err != nil {
		return fmt.Errorf("json decode: %w", err)
	}

	return nil
}

// Extension implements Codec.Extension for JSON files.
func (c *JSONCodec) Extension() string {
	return jsonExtension
}

// YAMLCodec implements Codec using YAML. NaN and infinities survive as
// .nan and .inf.
type YAMLCodec struct{}

// NewYAMLCodec creates a YAML codec.
func NewYAMLCodec() *YAMLCodec {
	return &YAMLCodec{}
}

// Encode implements Codec.Encode using YAML encoding.
func (c *YAMLCodec) Encode(w io.Writer, state any) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(len(defaultIndent))

	err := encoder.Encode(state)
	if err != nil {
		return fmt.Errorf("yaml encode: %w", err)
	}

	err = encoder.Close()
	if err != nil {
		return fmt.Errorf("yaml encode: %w", err)
	}

	return nil
}

// Decode implements Codec.Decode using YAML decoding.
func (c *YAMLCodec) Decode(r io.Reader, state any) error {
	err := yaml.NewDecoder(r).Decode(state)
	if err != nil {
		return fmt.Errorf("yaml decode: %w", err)
	}

	return nil
}

// Extension implements Codec.Extension for YAML files.
func (c *YAMLCodec) Extension() string {
	return yamlExtension
}

// GobCodec implements Codec using gob encoding.
type GobCodec struct{}

// NewGobCodec creates a gob codec.
func NewGobCodec() *GobCodec {
	return &GobCodec{}
}

// Encode implements Codec.Encode using gob encoding.
func (c *GobCodec) Encode(w io.Writer, state any) error {
	err := gob.NewEncoder(w).Encode(state)
	if err != nil {
		return fmt.Errorf("gob encode: %w", err)
	}

	return nil
}

// Decode implements Codec.Decode using gob decoding.
func (c *GobCodec) Decode(r io.Reader, state any) error {
	err := gob.NewDecoder(r).Decode(state)
	if err != nil {
		return fmt.Errorf("gob decode: %w", err)
	}

	return nil
}

// Extension implements Codec.Extension for gob files.
func (c *GobCodec) Extension() string {
	return gobExtension
}

// LZ4Codec compresses the output of an inner codec as one LZ4 block.
// The frame is the magic, the uncompressed length as a uvarint, then the block.
type LZ4Codec struct {
	Inner Codec
}

// NewLZ4Codec wraps inner with LZ4 block compression.
func NewLZ4Codec(inner Codec) *LZ4Codec {
	return &LZ4Codec{Inner: inner}
}

// Encode implements Codec.Encode.
func (c *LZ4Codec) Encode(w io.Writer, state any) error {
	var raw bytes.Buffer

	err := c.Inner.Encode(&raw, state)
	if err != nil {
		return err
	}

	compressed := make([]byte, lz4.CompressBlockBound(raw.Len()))

	written, err := lz4.CompressBlock(raw.Bytes(), compressed, nil)
	if err != nil {
		return fmt.Errorf("lz4 compress: %w", err)
	}

	// Incompressible input yields zero; store it verbatim.
	stored := compressed[:written]
	if written == 0 {
		stored = raw.Bytes()
	}

	header := make([]byte, 0, len(lz4Magic)+binary.MaxVarintLen64+1)
	header = append(header, lz4Magic...)
	header = binary.AppendUvarint(header, uint64(raw.Len()))

	if written == 0 {
		header = append(header, 0)
	} else {
		header = append(header, 1)
	}

	_, err = w.Write(append(header, stored...))
	if err != nil {
		return fmt.Errorf("lz4 write: %w", err)
	}

	return nil
}

// Decode implements Codec.Decode.
func (c *LZ4Codec) Decode(r io.Reader, state any) error {
	frame, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("lz4 read: %w", err)
	}

	if !bytes.HasPrefix(frame, lz4Magic) {
		return fmt.Errorf("%w: missing magic", ErrCorrupt)
	}

	frame = frame[len(lz4Magic):]

	size, n := binary.Uvarint(frame)
	if n <= 0 || len(frame) < n+1 {
		return fmt.Errorf("%w: bad length header", ErrCorrupt)
	}

	compressed, body := frame[n] == 1, frame[n+1:]

	raw := body
	if compressed {
		raw = make([]byte, size)

		got, err := lz4.UncompressBlock(body, raw)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrCorrupt, err)
		}

		if uint64(got) != size {
			return fmt.Errorf("%w: got %d bytes, want %d", ErrCorrupt, got, size)
		}
	}

	return c.Inner.Decode(bytes.NewReader(raw), state)
}

// Extension implements Codec.Extension as the inner extension plus ".lz4".
func (c *LZ4Codec) Extension() string {
	return c.Inner.Extension() + lz4Extension
}

// CodecFor returns the codec for a format name: json, yaml, gob, or any of
// them with a "+lz4" suffix.
func CodecFor(format string) (Codec, error) {
	base, compressed := strings.CutSuffix(strings.ToLower(format), "+lz4")

	var codec Codec

	switch base {
	case "json":
		codec = NewJSONCodec()
	case "yaml", "yml":
		codec = NewYAMLCodec()
	case "gob":
		codec = NewGobCodec()
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	if compressed {
		codec = NewLZ4Codec(codec)
	}

	return codec, nil
}

// CodecForPath picks a codec from a file name's extensions.
func CodecForPath(path string) (Codec, error) {
	name := strings.ToLower(filepath.Base(path))
	format := strings.TrimPrefix(filepath.Ext(name), ".")

	if format == "lz4" {
		inner := strings.TrimPrefix(filepath.Ext(strings.TrimSuffix(name, lz4Extension)), ".")
		format = inner + "+lz4"
	}

	return CodecFor(format)
}

// SaveFile encodes state into path.
func SaveFile(path string, codec Codec, state any) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create state file: %w", err)
	}
	defer file.Close()

	err = codec.Encode(file, state)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	return nil
}

// LoadFile decodes path into state, which must be a pointer.
func LoadFile(path string, codec Codec, state any) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open state file: %w", err)
	}
	defer file.Close()

	err = codec.Decode(file, state)
	if err != nil {
		return fmt.Errorf("decode state: %w", err)
	}

	return nil
}
