package output

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/yndnr/minikv/internal/client"
	"github.com/yndnr/minikv/internal/protocol/frame"
)

// TextFormatter prints replies the way redis-cli does and maps as sorted
// "key: value" lines.
type TextFormatter struct{}

// Format writes data followed by a newline.
func (f *TextFormatter) Format(w io.Writer, data any) error {
	var sb strings.Builder
	switch v := data.(type) {
	case frame.Frame:
		writeFrame(&sb, v, 0)
	case client.Message:
		writeMessage(&sb, v)
	case map[string]any:
		writeMap(&sb, v)
	case string:
		sb.WriteString(v)
	case fmt.Stringer:
		sb.WriteString(v.String())
	default:
		fmt.Fprintf(&sb, "%v", v)
	}
	sb.WriteByte('\n')
	_, err := io.WriteString(w, sb.String())
	return err
}

// writeFrame renders f; nested arrays are numbered and indented under their
// parent line.
func writeFrame(sb *strings.Builder, f frame.Frame, indent int) {
	switch f.Kind {
	case frame.KindSimple:
		sb.WriteString(f.Str)
	case frame.KindError:
		sb.WriteString("(error) ")
		sb.WriteString(f.Str)
	case frame.KindInteger:
		sb.WriteString("(integer) ")
		sb.WriteString(strconv.FormatInt(f.Int, 10))
	case frame.KindBulk:
		sb.WriteString(strconv.Quote(string(f.Bulk)))
	case frame.KindNull:
		sb.WriteString("(nil)")
	case frame.KindArray:
		if len(f.Array) == 0 {
			sb.WriteString("(empty array)")
			return
		}
		width := len(strconv.Itoa(len(f.Array)))
		for i, e := range f.Array {
			if i > 0 {
				sb.WriteByte('\n')
				sb.WriteString(strings.Repeat(" ", indent))
			}
			label := fmt.Sprintf("%*d) ", width, i+1)
			sb.WriteString(label)
			writeFrame(sb, e, indent+len(label))
		}
	}
}

func writeMessage(sb *strings.Builder, m client.Message) {
	switch m.Kind {
	case client.KindMessage:
		fmt.Fprintf(sb, "%s: %s", m.Channel, m.Payload)
	case client.KindSubscribe:
		fmt.Fprintf(sb, "subscribed to %s (%d)", m.Channel, m.Count)
	case client.KindUnsubscribe:
		if m.Channel == "" {
			fmt.Fprintf(sb, "unsubscribed (%d)", m.Count)
			return
		}
		fmt.Fprintf(sb, "unsubscribed from %s (%d)", m.Channel, m.Count)
	default:
		sb.WriteString(m.Kind)
		if len(m.Payload) > 0 {
			sb.WriteByte(' ')
			sb.Write(m.Payload)
		}
	}
}

func writeMap(sb *strings.Builder, m map[string]any) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for i, k := range keys {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(k)
		sb.WriteString(": ")
		switch v := m[k].(type) {
		case int:
			sb.WriteString(humanize.Comma(int64(v)))
		case int64:
			sb.WriteString(humanize.Comma(v))
		default:
			fmt.Fprintf(sb, "%v", v)
		}
	}
}
