package repl

import (
	"sort"
	"strings"
)

// Completer provides command completion for the REPL.
type Completer struct {
	commands map[string]string
}

// NewCompleter creates a new Completer.
func NewCompleter() *Completer {
	return &Completer{
		commands: map[string]string{
			"ping [message]":             "check the connection",
			"get key":                    "read a value",
			"set key value [EX s|PX ms]": "write a value, optionally expiring",
			"del key [key ...]":          "delete keys",
			"ttl key":                    "seconds left before a key expires",
			"publish channel message":    "send a message to subscribers",
			"subscribe channel [...]":    "listen on channels until Ctrl-C",
			"connect host:port":          "switch server",
			"help [prefix]":              "list commands",
			"history":                    "show previous lines",
			"exit":                       "leave",
			"quit":                       "leave",
		},
	}
}

// Complete returns completion suggestions for the given prefix, sorted.
func (c *Completer) Complete(prefix string) []string {
	var suggestions []string
	for cmd := range c.commands {
		if strings.HasPrefix(cmd, prefix) {
			suggestions = append(suggestions, cmd)
		}
	}
	sort.Strings(suggestions)
	return suggestions
}

// Usage returns the one-line description of a completion.
func (c *Completer) Usage(cmd string) string {
	return c.commands[cmd]
}
