package frame

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
)

// Protocol limits applied while decoding untrusted input.
const (
	// MaxBulkLen limits the size of a single bulk string (512 MiB).
	MaxBulkLen = 512 * 1024 * 1024

	// MaxArrayLen limits the number of elements in one array.
	MaxArrayLen = 1 << 20

	// MaxLineLen limits a CRLF-terminated line (simple, error, headers).
	MaxLineLen = 64 * 1024

	// MaxDepth limits array nesting.
	MaxDepth = 32
)

var (
	// ErrIncomplete means the buffer holds a valid prefix of a frame but
	// not the whole frame yet. The caller should read more and retry.
	ErrIncomplete = errors.New("frame: incomplete")

	// ErrProtocol means the buffered bytes can never become a valid frame.
	ErrProtocol = errors.New("frame: protocol error")

	// ErrLimitExceeded is a protocol error caused by a configured limit.
	ErrLimitExceeded = fmt.Errorf("%w: limit exceeded", ErrProtocol)

	// ErrInvalidFrame is returned when encoding a frame that breaks the
	// wire invariants (for example a simple string containing CRLF).
	ErrInvalidFrame = errors.New("frame: invalid frame")
)

// Parse decodes one frame from the start of buf.
//
// On success it returns the frame and the number of bytes consumed. If buf
// holds only part of a frame it returns ErrIncomplete; malformed input
// yields an error wrapping ErrProtocol. The returned frame never aliases buf.
func Parse(buf []byte) (Frame, int, error) {
	p := parser{buf: buf}
	f, err := p.next(0)
	if err != nil {
		return Frame{}, 0, err
	}
	return f, p.pos, nil
}

type parser struct {
	buf []byte
	pos int
}

func (p *parser) next(depth int) (Frame, error) {
	if p.pos >= len(p.buf) {
		return Frame{}, ErrIncomplete
	}
	marker := p.buf[p.pos]
	p.pos++

	switch marker {
	case '+', '-':
		end, err := lineEnd(p.buf, p.pos)
		if err != nil {
			return Frame{}, err
		}
		kind := KindSimple
		if marker == '-' {
			kind = KindError
		}
		f := Frame{Kind: kind, Str: string(p.buf[p.pos : end-2])}
		p.pos = end
		return f, nil
	case ':':
		n, end, err := readInt(p.buf, p.pos)
		if err != nil {
			return Frame{}, err
		}
		p.pos = end
		return NewInteger(n), nil
	case '$':
		return p.bulk()
	case '*':
		return p.array(depth)
	default:
		return Frame{}, unknownMarker(marker)
	}
}

func (p *parser) bulk() (Frame, error) {
	n, end, err := readInt(p.buf, p.pos)
	if err != nil {
		return Frame{}, err
	}
	if err := checkBulkLen(n); err != nil {
		return Frame{}, err
	}
	p.pos = end
	if n == -1 {
		return Null(), nil
	}

	stop, err := bulkEnd(p.buf, p.pos, n)
	if err != nil {
		return Frame{}, err
	}
	data := make([]byte, n)
	copy(data, p.buf[p.pos:])
	p.pos = stop
	return NewBulk(data), nil
}

func (p *parser) array(depth int) (Frame, error) {
	if depth >= MaxDepth {
		return Frame{}, errTooDeep
	}
	n, end, err := readInt(p.buf, p.pos)
	if err != nil {
		return Frame{}, err
	}
	if err := checkArrayLen(n); err != nil {
		return Frame{}, err
	}
	p.pos = end
	if n == -1 {
		return Null(), nil
	}

	// Cap the preallocation so a bogus header cannot force a huge slice.
	elems := make([]Frame, 0, min(int(n), 64))
	for i := int64(0); i < n; i++ {
		e, err := p.next(depth + 1)
		if err != nil {
			return Frame{}, err
		}
		elems = append(elems, e)
	}
	return NewArray(elems...), nil
}

// maxIntLen is the longest decimal int64 text, sign included.
const maxIntLen = 20

var errTooDeep = fmt.Errorf("%w: nesting deeper than %d", ErrLimitExceeded, MaxDepth)

func unknownMarker(marker byte) error {
	return fmt.Errorf("%w: unknown type marker %q", ErrProtocol, marker)
}

// lineEnd returns the offset just past the CRLF ending the line at pos.
func lineEnd(buf []byte, pos int) (int, error) {
	rest := buf[pos:]
	idx := bytes.Index(rest, crlf)
	if idx < 0 {
		if len(rest) > MaxLineLen {
			return 0, fmt.Errorf("%w: line longer than %d bytes", ErrLimitExceeded, MaxLineLen)
		}
		return 0, ErrIncomplete
	}
	if idx > MaxLineLen {
		return 0, fmt.Errorf("%w: line longer than %d bytes", ErrLimitExceeded, MaxLineLen)
	}
	return pos + idx + 2, nil
}

// readInt decodes the integer line at pos and returns the offset past its
// CRLF. An unterminated line is rejected as soon as it can no longer turn
// into a number, instead of waiting for MaxLineLen bytes.
func readInt(buf []byte, pos int) (int64, int, error) {
	window := buf[pos:]
	if len(window) > maxIntLen+2 {
		window = window[:maxIntLen+2]
	}
	idx := bytes.Index(window, crlf)
	if idx < 0 {
		if len(window) > maxIntLen+1 || !intPrefix(window) {
			return 0, 0, fmt.Errorf("%w: invalid integer %q", ErrProtocol, window)
		}
		return 0, 0, ErrIncomplete
	}
	n, err := strconv.ParseInt(string(window[:idx]), 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: invalid integer %q", ErrProtocol, window[:idx])
	}
	return n, pos + idx + 2, nil
}

// intPrefix reports whether b can still be extended into "<int>\r\n".
func intPrefix(b []byte) bool {
	for i, c := range b {
		switch {
		case c >= '0' && c <= '9':
		case (c == '-' || c == '+') && i == 0:
		case c == '\r' && i == len(b)-1:
		default:
			return false
		}
	}
	return true
}

func checkBulkLen(n int64) error {
	switch {
	case n < -1:
		return fmt.Errorf("%w: invalid bulk length %d", ErrProtocol, n)
	case n > MaxBulkLen:
		return fmt.Errorf("%w: bulk length %d exceeds %d", ErrLimitExceeded, n, MaxBulkLen)
	}
	return nil
}

func checkArrayLen(n int64) error {
	switch {
	case n < -1:
		return fmt.Errorf("%w: invalid array length %d", ErrProtocol, n)
	case n > MaxArrayLen:
		return fmt.Errorf("%w: array length %d exceeds %d", ErrLimitExceeded, n, MaxArrayLen)
	}
	return nil
}

// bulkEnd returns the offset past the n-byte payload at pos and its CRLF.
func bulkEnd(buf []byte, pos int, n int64) (int, error) {
	end := pos + int(n)
	if end+2 > len(buf) {
		return 0, ErrIncomplete
	}
	if buf[end] != '\r' || buf[end+1] != '\n' {
		return 0, fmt.Errorf("%w: invalid bulk terminator", ErrProtocol)
	}
	return end + 2, nil
}
