package frame

// Scanner finds where the first frame in a growing buffer ends.
//
// It keeps its position between calls, so a frame that arrives over many
// reads is examined once in total rather than once per read. Between calls
// the caller may only append to buf; bytes already scanned must stay in
// place. After a successful Scan the scanner starts over, ready for the
// bytes that follow the returned frame. The zero value is ready to use.
type Scanner struct {
	pos int
	// open holds, per unfinished array, how many elements are still due.
	open []int64
}

// Scan returns the length of the first frame in buf, ErrIncomplete when
// more bytes are needed, or an error wrapping ErrProtocol.
func (s *Scanner) Scan(buf []byte) (int, error) {
	for {
		if s.pos >= len(buf) {
			return 0, ErrIncomplete
		}
		next, count, err := scanItem(buf, s.pos, len(s.open))
		if err != nil {
			return 0, err
		}
		s.pos = next
		if count > 0 {
			s.open = append(s.open, count)
			continue
		}

		// One value finished; close every array it completes.
		for {
			if len(s.open) == 0 {
				n := s.pos
				s.pos = 0
				return n, nil
			}
			top := len(s.open) - 1
			s.open[top]--
			if s.open[top] > 0 {
				break
			}
			s.open = s.open[:top]
		}
	}
}

// Check reports how many bytes the first frame in buf occupies without
// building it. Errors are the same as Parse.
func Check(buf []byte) (int, error) {
	var s Scanner
	return s.Scan(buf)
}

// scanItem steps over one header or scalar at pos. For an array header
// with elements it returns the element count; otherwise count is zero and
// next is the end of a complete value.
func scanItem(buf []byte, pos, depth int) (next int, count int64, err error) {
	marker := buf[pos]
	pos++

	switch marker {
	case '+', '-':
		next, err = lineEnd(buf, pos)
		return next, 0, err
	case ':':
		_, next, err = readInt(buf, pos)
		return next, 0, err
	case '$':
		n, end, err := readInt(buf, pos)
		if err != nil {
			return 0, 0, err
		}
		if err := checkBulkLen(n); err != nil {
			return 0, 0, err
		}
		if n == -1 {
			return end, 0, nil
		}
		next, err = bulkEnd(buf, end, n)
		return next, 0, err
	case '*':
		if depth >= MaxDepth {
			return 0, 0, errTooDeep
		}
		n, end, err := readInt(buf, pos)
		if err != nil {
			return 0, 0, err
		}
		if err := checkArrayLen(n); err != nil {
			return 0, 0, err
		}
		if n <= 0 {
			return end, 0, nil
		}
		return end, n, nil
	default:
		return 0, 0, unknownMarker(marker)
	}
}
