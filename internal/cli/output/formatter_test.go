package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/yndnr/minikv/internal/client"
	"github.com/yndnr/minikv/internal/protocol/frame"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatText, false},
		{"text", FormatText, false},
		{"JSON", FormatJSON, false},
		{"yaml", FormatYAML, false},
		{"table", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFormat(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNewFormatter(t *testing.T) {
	if _, ok := NewFormatter(FormatJSON).(*JSONFormatter); !ok {
		t.Error("expected JSONFormatter")
	}
	if _, ok := NewFormatter(FormatYAML).(*YAMLFormatter); !ok {
		t.Error("expected YAMLFormatter")
	}
	if _, ok := NewFormatter("unknown").(*TextFormatter); !ok {
		t.Error("expected TextFormatter as default")
	}
}

func render(t *testing.T, f Formatter, data any) string {
	t.Helper()
	var buf bytes.Buffer
	if err := f.Format(&buf, data); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	return buf.String()
}

func TestTextFormatter_Frames(t *testing.T) {
	tests := []struct {
		name string
		in   frame.Frame
		want string
	}{
		{"simple", frame.NewSimple("OK"), "OK\n"},
		{"error", frame.NewError("ERR boom"), "(error) ERR boom\n"},
		{"integer", frame.NewInteger(-2), "(integer) -2\n"},
		{"bulk", frame.NewBulkString("a \"b\""), "\"a \\\"b\\\"\"\n"},
		{"null", frame.Null(), "(nil)\n"},
		{"empty array", frame.NewArray(), "(empty array)\n"},
		{
			"array",
			frame.NewArray(frame.NewBulkString("message"), frame.NewBulkString("news"), frame.NewInteger(1)),
			"1) \"message\"\n2) \"news\"\n3) (integer) 1\n",
		},
		{
			"nested",
			frame.NewArray(frame.NewBulkString("a"), frame.NewArray(frame.NewBulkString("b"), frame.NewBulkString("c"))),
			"1) \"a\"\n2) 1) \"b\"\n   2) \"c\"\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := render(t, &TextFormatter{}, tt.in); got != tt.want {
				t.Errorf("Format() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTextFormatter_Messages(t *testing.T) {
	tests := []struct {
		in   client.Message
		want string
	}{
		{client.Message{Kind: client.KindMessage, Channel: "news", Payload: []byte("hi")}, "news: hi\n"},
		{client.Message{Kind: client.KindSubscribe, Channel: "news", Count: 1}, "subscribed to news (1)\n"},
		{client.Message{Kind: client.KindUnsubscribe, Channel: "news"}, "unsubscribed from news (0)\n"},
		{client.Message{Kind: client.KindUnsubscribe}, "unsubscribed (0)\n"},
		{client.Message{Kind: client.KindPong}, "pong\n"},
	}
	for _, tt := range tests {
		if got := render(t, &TextFormatter{}, tt.in); got != tt.want {
			t.Errorf("Format(%+v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTextFormatter_Map(t *testing.T) {
	got := render(t, &TextFormatter{}, map[string]any{"keys": 1234567, "channels": int64(2), "addr": "x"})
	want := "addr: x\nchannels: 2\nkeys: 1,234,567\n"
	if got != want {
		t.Errorf("Format() = %q, want %q", got, want)
	}
}

func TestJSONFormatter_Format(t *testing.T) {
	f := &JSONFormatter{}

	t.Run("bulk reply is a string", func(t *testing.T) {
		got := render(t, f, frame.NewBulkString("hello"))
		if strings.TrimSpace(got) != `"hello"` {
			t.Errorf("Format() = %q", got)
		}
	})

	t.Run("null reply", func(t *testing.T) {
		if got := strings.TrimSpace(render(t, f, frame.Null())); got != "null" {
			t.Errorf("Format() = %q", got)
		}
	})

	t.Run("error reply", func(t *testing.T) {
		got := render(t, f, frame.NewError("ERR x"))
		if !strings.Contains(got, `"error": "ERR x"`) {
			t.Errorf("Format() = %q", got)
		}
	})

	t.Run("message payload is text", func(t *testing.T) {
		got := render(t, f, client.Message{Kind: client.KindMessage, Channel: "c", Payload: []byte("p")})
		if !strings.Contains(got, `"payload": "p"`) || strings.Contains(got, "count") {
			t.Errorf("Format() = %q", got)
		}
	})

	t.Run("subscribe keeps zero count", func(t *testing.T) {
		got := render(t, f, client.Message{Kind: client.KindUnsubscribe, Channel: "c"})
		if !strings.Contains(got, `"count": 0`) {
			t.Errorf("Format() = %q", got)
		}
	})
}

func TestYAMLFormatter_Format(t *testing.T) {
	f := &YAMLFormatter{}

	got := render(t, f, frame.NewArray(frame.NewBulkString("a"), frame.NewInteger(2)))
	if got != "- a\n- 2\n" {
		t.Errorf("Format() = %q", got)
	}

	got = render(t, f, map[string]any{"keys": 3})
	if got != "keys: 3\n" {
		t.Errorf("Format() = %q", got)
	}
}

func TestValue(t *testing.T) {
	v := Value(frame.NewArray(frame.NewSimple("OK"), frame.Null(), frame.NewInteger(7)))
	arr, ok := v.([]any)
	if !ok || len(arr) != 3 {
		t.Fatalf("Value() = %#v", v)
	}
	if arr[0] != "OK" || arr[1] != nil || arr[2] != int64(7) {
		t.Errorf("Value() = %#v", arr)
	}
}
