// Package frame implements the RESP2 wire value and its encoding.
//
// A Frame is one protocol value: a simple string, an error, an integer,
// a bulk string, the null marker, or an array of frames. Requests are
// arrays of bulk strings; replies may be any kind.
package frame

import (
	"bytes"
	"strconv"
	"strings"
)

// Kind identifies the variant held by a Frame.
type Kind uint8

const (
	KindSimple Kind = iota + 1
	KindError
	KindInteger
	KindBulk
	KindNull
	KindArray
)

// String returns the name of the kind.
func (k Kind) String() string {
	switch k {
	case KindSimple:
		return "simple"
	case KindError:
		return "error"
	case KindInteger:
		return "integer"
	case KindBulk:
		return "bulk"
	case KindNull:
		return "null"
	case KindArray:
		return "array"
	default:
		return "invalid"
	}
}

// Frame is a single protocol value. Only the field matching Kind is
// meaningful. Frames are treated as immutable once constructed.
type Frame struct {
	Kind  Kind
	Str   string
	Int   int64
	Bulk  []byte
	Array []Frame
}

// NewSimple returns a simple string frame.
func NewSimple(s string) Frame {
	return Frame{Kind: KindSimple, Str: s}
}

// NewError returns an error frame.
func NewError(msg string) Frame {
	return Frame{Kind: KindError, Str: msg}
}

// NewInteger returns an integer frame.
func NewInteger(n int64) Frame {
	return Frame{Kind: KindInteger, Int: n}
}

// NewBulk returns a bulk frame. The frame takes ownership of b.
func NewBulk(b []byte) Frame {
	if b == nil {
		b = []byte{}
	}
	return Frame{Kind: KindBulk, Bulk: b}
}

// NewBulkString returns a bulk frame holding a copy of s.
func NewBulkString(s string) Frame {
	return Frame{Kind: KindBulk, Bulk: []byte(s)}
}

// Null returns the null frame.
func Null() Frame {
	return Frame{Kind: KindNull}
}

// NewArray returns an array frame holding elems.
func NewArray(elems ...Frame) Frame {
	if elems == nil {
		elems = []Frame{}
	}
	return Frame{Kind: KindArray, Array: elems}
}

// Command builds the request frame for a command line, one bulk per arg.
func Command(args ...string) Frame {
	elems := make([]Frame, len(args))
	for i, a := range args {
		elems[i] = NewBulkString(a)
	}
	return NewArray(elems...)
}

// IsNull reports whether f is the null frame.
func (f Frame) IsNull() bool {
	return f.Kind == KindNull
}

// Text returns the textual payload of simple, error and bulk frames.
func (f Frame) Text() (string, bool) {
	switch f.Kind {
	case KindSimple, KindError:
		return f.Str, true
	case KindBulk:
		return string(f.Bulk), true
	default:
		return "", false
	}
}

// Equal reports whether two frames hold the same value.
func (f Frame) Equal(o Frame) bool {
	if f.Kind != o.Kind {
		return false
	}
	switch f.Kind {
	case KindSimple, KindError:
		return f.Str == o.Str
	case KindInteger:
		return f.Int == o.Int
	case KindBulk:
		return bytes.Equal(f.Bulk, o.Bulk)
	case KindArray:
		if len(f.Array) != len(o.Array) {
			return false
		}
		for i := range f.Array {
			if !f.Array[i].Equal(o.Array[i]) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

// String renders f for logs and test failures.
func (f Frame) String() string {
	var sb strings.Builder
	f.format(&sb)
	return sb.String()
}

func (f Frame) format(sb *strings.Builder) {
	switch f.Kind {
	case KindSimple:
		sb.WriteString(f.Str)
	case KindError:
		sb.WriteString("(error) ")
		sb.WriteString(f.Str)
	case KindInteger:
		sb.WriteString("(integer) ")
		sb.WriteString(strconv.FormatInt(f.Int, 10))
	case KindBulk:
		sb.WriteString(strconv.Quote(string(f.Bulk)))
	case KindNull:
		sb.WriteString("(nil)")
	case KindArray:
		sb.WriteByte('[')
		for i, e := range f.Array {
			if i > 0 {
				sb.WriteByte(' ')
			}
			e.format(sb)
		}
		sb.WriteByte(']')
	default:
		sb.WriteString("(invalid)")
	}
}
