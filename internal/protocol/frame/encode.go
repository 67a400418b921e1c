package frame

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

var (
	crlf      = []byte("\r\n")
	nullBulk  = []byte("$-1\r\n")
	okSimple  = []byte("+OK\r\n")
	pongReply = []byte("+PONG\r\n")
)

// AppendEncode appends the wire encoding of f to dst.
func AppendEncode(dst []byte, f Frame) ([]byte, error) {
	switch f.Kind {
	case KindSimple:
		switch f.Str {
		case "OK":
			return append(dst, okSimple...), nil
		case "PONG":
			return append(dst, pongReply...), nil
		}
		return appendLine(dst, '+', f.Str)
	case KindError:
		return appendLine(dst, '-', f.Str)
	case KindInteger:
		dst = append(dst, ':')
		dst = strconv.AppendInt(dst, f.Int, 10)
		return append(dst, crlf...), nil
	case KindBulk:
		dst = append(dst, '$')
		dst = strconv.AppendInt(dst, int64(len(f.Bulk)), 10)
		dst = append(dst, crlf...)
		dst = append(dst, f.Bulk...)
		return append(dst, crlf...), nil
	case KindNull:
		return append(dst, nullBulk...), nil
	case KindArray:
		dst = append(dst, '*')
		dst = strconv.AppendInt(dst, int64(len(f.Array)), 10)
		dst = append(dst, crlf...)
		var err error
		for _, e := range f.Array {
			if dst, err = AppendEncode(dst, e); err != nil {
				return dst, err
			}
		}
		return dst, nil
	default:
		return dst, fmt.Errorf("%w: unknown kind %d", ErrInvalidFrame, f.Kind)
	}
}

func appendLine(dst []byte, marker byte, s string) ([]byte, error) {
	if strings.Contains(s, "\r\n") {
		return dst, fmt.Errorf("%w: line frame contains CRLF", ErrInvalidFrame)
	}
	dst = append(dst, marker)
	dst = append(dst, s...)
	return append(dst, crlf...), nil
}

// Encode writes the wire encoding of f to w.
func Encode(w io.Writer, f Frame) error {
	buf, err := AppendEncode(make([]byte, 0, 64), f)
	if err != nil {
		return err
	}
	_, err = w.Write(buf)
	return err
}
