package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/yndnr/minikv/internal/client"
	"github.com/yndnr/minikv/internal/protocol/frame"
)

// Format represents the output format.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a --output value.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	case "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text, json or yaml)", s)
	}
}

// Formatter formats data for output.
type Formatter interface {
	Format(w io.Writer, data any) error
}

// NewFormatter creates a formatter for the given format.
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{}
	case FormatYAML:
		return &YAMLFormatter{}
	default:
		return &TextFormatter{}
	}
}

// Value converts a reply frame into a plain Go value: strings for simple
// and bulk strings, int64 for integers, nil for null, []any for arrays and
// {"error": msg} for error replies.
func Value(f frame.Frame) any {
	switch f.Kind {
	case frame.KindSimple:
		return f.Str
	case frame.KindError:
		return map[string]string{"error": f.Str}
	case frame.KindInteger:
		return f.Int
	case frame.KindBulk:
		return string(f.Bulk)
	case frame.KindArray:
		out := make([]any, len(f.Array))
		for i, e := range f.Array {
			out[i] = Value(e)
		}
		return out
	default:
		return nil
	}
}

// pushValue is the structured shape of a subscriber push.
type pushValue struct {
	Kind    string `json:"kind" yaml:"kind"`
	Channel string `json:"channel,omitempty" yaml:"channel,omitempty"`
	Payload string `json:"payload,omitempty" yaml:"payload,omitempty"`
	Count   *int64 `json:"count,omitempty" yaml:"count,omitempty"`
}

// normalize prepares data for structured encoders.
func normalize(data any) any {
	switch v := data.(type) {
	case frame.Frame:
		return Value(v)
	case client.Message:
		p := pushValue{Kind: v.Kind, Channel: v.Channel, Payload: string(v.Payload)}
		if v.Kind == client.KindSubscribe || v.Kind == client.KindUnsubscribe {
			n := v.Count
			p.Count = &n
		}
		return p
	default:
		return data
	}
}
