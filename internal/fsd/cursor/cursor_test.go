package cursor

import (
	"encoding/binary"
	"errors"
	"testing"
)

func TestReadsAdvanceByWidth(t *testing.T) {
	buf := []byte{
		0x07,
		0x02, 0x01,
		0xfe, 0xff, 0xff, 0xff,
		0, 0, 0x80, 0x3f,
		1,
	}
	c, err := New(buf, 0)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	u8, _ := c.Uint8()
	u16, _ := c.Uint16()
	i32, _ := c.Int32()
	f32, _ := c.Float32()
	b, _ := c.Bool()
	if u8 != 7 || u16 != 0x0102 || i32 != -2 || f32 != 1.0 || !b {
		t.Fatalf("unexpected values: %d %d %d %v %v", u8, u16, i32, f32, b)
	}
	if c.Offset() != len(buf) || c.Remaining() != 0 {
		t.Fatalf("cursor did not reach end: off=%d", c.Offset())
	}
}

func TestShortReadLeavesOffset(t *testing.T) {
	c, _ := New([]byte{1, 2, 3}, 1)
	if _, err := c.Uint32(); !errors.Is(err, ErrShort) {
		t.Fatalf("expected ErrShort, got %v", err)
	}
	if c.Offset() != 1 {
		t.Fatalf("offset moved on failure: %d", c.Offset())
	}
}

func TestBigEndianOrder(t *testing.T) {
	c, _ := New([]byte{0x01, 0x02}, 0)
	c.SetOrder(binary.BigEndian)
	v, err := c.Uint16()
	if err != nil || v != 0x0102 {
		t.Fatalf("big endian read: %d %v", v, err)
	}
}

func TestLenPrefixedKeepsPrefixOnOverrun(t *testing.T) {
	c, _ := New([]byte{5, 0, 0, 0, 'a', 'b'}, 0)
	if _, err := c.LenPrefixed(); !errors.Is(err, ErrShort) {
		t.Fatalf("expected ErrShort, got %v", err)
	}
	if c.Offset() != 0 {
		t.Fatalf("prefix consumed on failure: %d", c.Offset())
	}

	c, _ = New([]byte{2, 0, 0, 0, 'h', 'i'}, 0)
	b, err := c.LenPrefixed()
	if err != nil || string(b) != "hi" {
		t.Fatalf("len prefixed: %q %v", b, err)
	}
}

func TestInvalidBool(t *testing.T) {
	c, _ := New([]byte{2}, 0)
	if _, err := c.Bool(); !errors.Is(err, ErrInvalidBool) {
		t.Fatalf("expected ErrInvalidBool, got %v", err)
	}
}

func TestNewRejectsBadOffset(t *testing.T) {
	if _, err := New([]byte{1}, 2); !errors.Is(err, ErrBadOffset) {
		t.Fatalf("expected ErrBadOffset, got %v", err)
	}
}
