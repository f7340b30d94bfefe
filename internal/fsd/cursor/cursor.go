package cursor

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

var (
	ErrShort       = errors.New("cursor: short buffer")
	ErrInvalidBool = errors.New("cursor: invalid bool value")
	ErrBadOffset   = errors.New("cursor: offset out of range")
)

// Cursor reads fixed-width values from an immutable buffer, moving forward only.
// A failed read leaves the offset untouched.
type Cursor struct {
	buf   []byte
	off   int
	order binary.ByteOrder
}

// New returns a little-endian cursor positioned at off.
func New(buf []byte, off int) (*Cursor, error) {
	if off < 0 || off > len(buf) {
		return nil, fmt.Errorf("%w: %d not in [0,%d]", ErrBadOffset, off, len(buf))
	}
	return &Cursor{buf: buf, off: off, order: binary.LittleEndian}, nil
}

// SetOrder switches the byte order used by subsequent reads.
func (c *Cursor) SetOrder(order binary.ByteOrder) {
	if order == nil {
		order = binary.LittleEndian
	}
	c.order = order
}

func (c *Cursor) Order() binary.ByteOrder { return c.order }
func (c *Cursor) Offset() int             { return c.off }
func (c *Cursor) Len() int                { return len(c.buf) }
func (c *Cursor) Remaining() int          { return len(c.buf) - c.off }

func (c *Cursor) peek(n int) ([]byte, error) {
	if n < 0 || n > c.Remaining() {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrShort, n, c.off, c.Remaining())
	}
	return c.buf[c.off : c.off+n], nil
}

func (c *Cursor) take(n int) ([]byte, error) {
	b, err := c.peek(n)
	if err != nil {
		return nil, err
	}
	c.off += n
	return b, nil
}

func (c *Cursor) Uint8() (uint8, error) {
	b, err := c.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (c *Cursor) Uint16() (uint16, error) {
	b, err := c.take(2)
	if err != nil {
		return 0, err
	}
	return c.order.Uint16(b), nil
}

func (c *Cursor) Uint32() (uint32, error) {
	b, err := c.take(4)
	if err != nil {
		return 0, err
	}
	return c.order.Uint32(b), nil
}

func (c *Cursor) Uint64() (uint64, error) {
	b, err := c.take(8)
	if err != nil {
		return 0, err
	}
	return c.order.Uint64(b), nil
}

func (c *Cursor) Int8() (int8, error) {
	v, err := c.Uint8()
	return int8(v), err
}

func (c *Cursor) Int16() (int16, error) {
	v, err := c.Uint16()
	return int16(v), err
}

func (c *Cursor) Int32() (int32, error) {
	v, err := c.Uint32()
	return int32(v), err
}

func (c *Cursor) Int64() (int64, error) {
	v, err := c.Uint64()
	return int64(v), err
}

func (c *Cursor) Float32() (float32, error) {
	v, err := c.Uint32()
	return math.Float32frombits(v), err
}

func (c *Cursor) Float64() (float64, error) {
	v, err := c.Uint64()
	return math.Float64frombits(v), err
}

// Bool reads one byte that must be 0 or 1.
func (c *Cursor) Bool() (bool, error) {
	b, err := c.peek(1)
	if err != nil {
		return false, err
	}
	switch b[0] {
	case 0:
		c.off++
		return false, nil
	case 1:
		c.off++
		return true, nil
	default:
		return false, fmt.Errorf("%w: 0x%02x at offset %d", ErrInvalidBool, b[0], c.off)
	}
}

// Bytes returns a copy of the next n bytes.
func (c *Cursor) Bytes(n int) ([]byte, error) {
	b, err := c.take(n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, b)
	return out, nil
}

// LenPrefixed reads a uint32 length followed by that many bytes. The length
// prefix is not consumed when the body does not fit.
func (c *Cursor) LenPrefixed() ([]byte, error) {
	head, err := c.peek(4)
	if err != nil {
		return nil, err
	}
	n := uint64(c.order.Uint32(head))
	if n > uint64(c.Remaining()-4) {
		return nil, fmt.Errorf("%w: length prefix %d at offset %d exceeds %d remaining", ErrShort, n, c.off, c.Remaining()-4)
	}
	c.off += 4
	return c.Bytes(int(n))
}
