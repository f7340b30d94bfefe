// Package container splits FSD files into their schema block and payload.
//
// Ownership boundary:
// - the 4-byte schema length header
// - size limits on schema and payload blocks
package container

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// HeaderLen is the size of the little-endian schema length prefix.
const HeaderLen = 4

var (
	ErrShortHeader     = errors.New("container: short schema length header")
	ErrSchemaTooLarge  = errors.New("container: schema block too large")
	ErrPayloadTooLarge = errors.New("container: payload too large")
	ErrTruncated       = errors.New("container: schema block truncated")
)

// Container is one FSD file split into its parts. Both slices alias the input
// of Split.
type Container struct {
	Schema  []byte
	Payload []byte
}

// PayloadOffset is the file offset of the first payload byte.
func (c Container) PayloadOffset() int {
	return HeaderLen + len(c.Schema)
}

// Limits constrains container decode/encode memory use.
type Limits struct {
	MaxSchemaBytes  uint64
	MaxPayloadBytes uint64
}

func DefaultLimits() Limits {
	return Limits{
		MaxSchemaBytes:  16 * 1024 * 1024,
		MaxPayloadBytes: 1024 * 1024 * 1024,
	}
}

func Split(data []byte, limits Limits) (Container, error) {
	if len(data) < HeaderLen {
		return Container{}, ErrShortHeader
	}
	schemaLen := uint64(binary.LittleEndian.Uint32(data[:HeaderLen]))
	if schemaLen > limits.MaxSchemaBytes {
		return Container{}, fmt.Errorf("%w: %d > %d", ErrSchemaTooLarge, schemaLen, limits.MaxSchemaBytes)
	}
	rest := uint64(len(data) - HeaderLen)
	if schemaLen > rest {
		return Container{}, fmt.Errorf("%w: declared %d bytes, %d available", ErrTruncated, schemaLen, rest)
	}
	payloadLen := rest - schemaLen
	if payloadLen > limits.MaxPayloadBytes {
		return Container{}, fmt.Errorf("%w: %d > %d", ErrPayloadTooLarge, payloadLen, limits.MaxPayloadBytes)
	}
	end := HeaderLen + int(schemaLen)
	return Container{
		Schema:  data[HeaderLen:end:end],
		Payload: data[end:],
	}, nil
}

// Read reads a whole container from r.
func Read(r io.Reader, limits Limits) (Container, error) {
	var hdr [HeaderLen]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return Container{}, ErrShortHeader
		}
		return Container{}, err
	}
	schemaLen := uint64(binary.LittleEndian.Uint32(hdr[:]))
	if schemaLen > limits.MaxSchemaBytes {
		return Container{}, fmt.Errorf("%w: %d > %d", ErrSchemaTooLarge, schemaLen, limits.MaxSchemaBytes)
	}
	schema := make([]byte, schemaLen)
	if _, err := io.ReadFull(r, schema); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return Container{}, ErrTruncated
		}
		return Container{}, err
	}
	payload, err := io.ReadAll(io.LimitReader(r, int64(limits.MaxPayloadBytes)+1))
	if err != nil {
		return Container{}, err
	}
	if uint64(len(payload)) > limits.MaxPayloadBytes {
		return Container{}, ErrPayloadTooLarge
	}
	return Container{Schema: schema, Payload: payload}, nil
}

// Write writes c in the container layout.
func Write(w io.Writer, c Container, limits Limits) error {
	if uint64(len(c.Schema)) > limits.MaxSchemaBytes || uint64(len(c.Schema)) > 0xFFFFFFFF {
		return ErrSchemaTooLarge
	}
	if uint64(len(c.Payload)) > limits.MaxPayloadBytes {
		return ErrPayloadTooLarge
	}
	var hdr [HeaderLen]byte
	binary.LittleEndian.PutUint32(hdr[:], uint32(len(c.Schema)))
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	if len(c.Schema) > 0 {
		if _, err := w.Write(c.Schema); err != nil {
			return err
		}
	}
	if len(c.Payload) > 0 {
		if _, err := w.Write(c.Payload); err != nil {
			return err
		}
	}
	return nil
}

// Encode returns schema and payload in the container layout.
func Encode(schema, payload []byte) []byte {
	out := make([]byte, HeaderLen, HeaderLen+len(schema)+len(payload))
	binary.LittleEndian.PutUint32(out, uint32(len(schema)))
	out = append(out, schema...)
	return append(out, payload...)
}
