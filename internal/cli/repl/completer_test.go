package repl

import "testing"

func TestCompleter_Complete(t *testing.T) {
	c := NewCompleter()

	tests := []struct {
		prefix string
		want   []string
	}{
		{"se", []string{"set key value [EX s|PX ms]"}},
		{"su", []string{"subscribe channel [...]"}},
		{"e", []string{"exit"}},
		{"zz", nil},
	}

	for _, tt := range tests {
		t.Run(tt.prefix, func(t *testing.T) {
			got := c.Complete(tt.prefix)
			if len(got) != len(tt.want) {
				t.Fatalf("Complete(%q) = %q, want %q", tt.prefix, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Complete(%q)[%d] = %q, want %q", tt.prefix, i, got[i], tt.want[i])
				}
			}
		})
	}

	if all := c.Complete(""); len(all) != 12 {
		t.Errorf("Complete(\"\") returned %d entries, want 12", len(all))
	}
	if c.Usage("exit") != "leave" {
		t.Errorf("Usage(exit) = %q", c.Usage("exit"))
	}
}
