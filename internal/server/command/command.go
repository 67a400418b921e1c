package command

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/yndnr/minikv/internal/protocol/frame"
)

// Command errors. Their text is sent to the client verbatim as an Error
// frame, so each one carries the RESP error prefix.
var (
	ErrInvalidRequest = errors.New("ERR invalid request: expected an array of bulk strings")
	ErrEmptyCommand   = errors.New("ERR empty command")
	ErrWrongArgs      = errors.New("ERR wrong number of arguments")
	ErrNotInteger     = errors.New("ERR value is not an integer or out of range")
	ErrInvalidExpire  = errors.New("ERR invalid expire time in 'set' command")
	ErrSyntax         = errors.New("ERR syntax error")
)

// Command is a parsed client request.
type Command interface {
	// Name is the lower-case verb, used in log and metric labels.
	Name() string

	exec(env *Env) []frame.Frame
}

// Ping replies PONG, or echoes Message when one was given.
type Ping struct {
	Message []byte
	HasMsg  bool
}

// Get reads the value at Key.
type Get struct {
	Key string
}

// Set stores Value at Key. A positive TTL makes the key expire.
type Set struct {
	Key   string
	Value []byte
	TTL   time.Duration
}

// Del removes Keys.
type Del struct {
	Keys []string
}

// TTL reports the remaining time to live of Key.
type TTL struct {
	Key string
}

// Publish sends Message to every subscriber of Channel.
type Publish struct {
	Channel string
	Message []byte
}

// Subscribe registers the connection on Channels.
type Subscribe struct {
	Channels []string
}

// Unsubscribe removes the connection from Channels, or from every channel
// when Channels is empty.
type Unsubscribe struct {
	Channels []string
}

// Unknown is a well-formed request with an unsupported verb.
type Unknown struct {
	Verb string
}

func (*Ping) Name() string        { return "ping" }
func (*Get) Name() string         { return "get" }
func (*Set) Name() string         { return "set" }
func (*Del) Name() string         { return "del" }
func (*TTL) Name() string         { return "ttl" }
func (*Publish) Name() string     { return "publish" }
func (*Subscribe) Name() string   { return "subscribe" }
func (*Unsubscribe) Name() string { return "unsubscribe" }
func (*Unknown) Name() string     { return "unknown" }

// Parse converts a request frame into a Command.
//
// The frame must be a non-empty Array of Bulk strings. The verb is matched
// case-insensitively. An unsupported verb yields *Unknown, not an error.
func Parse(f frame.Frame) (Command, error) {
	if f.Kind != frame.KindArray {
		return nil, ErrInvalidRequest
	}
	if len(f.Array) == 0 {
		return nil, ErrEmptyCommand
	}
	args := make([][]byte, len(f.Array))
	for i, el := range f.Array {
		if el.Kind != frame.KindBulk {
			return nil, ErrInvalidRequest
		}
		args[i] = el.Bulk
	}

	verb := strings.ToLower(string(args[0]))
	args = args[1:]

	switch verb {
	case "ping":
		switch len(args) {
		case 0:
			return &Ping{}, nil
		case 1:
			return &Ping{Message: args[0], HasMsg: true}, nil
		}
		return nil, wrongArgs(verb)
	case "get":
		if len(args) != 1 {
			return nil, wrongArgs(verb)
		}
		return &Get{Key: string(args[0])}, nil
	case "set":
		return parseSet(args)
	case "del":
		if len(args) == 0 {
			return nil, wrongArgs(verb)
		}
		return &Del{Keys: strs(args)}, nil
	case "ttl":
		if len(args) != 1 {
			return nil, wrongArgs(verb)
		}
		return &TTL{Key: string(args[0])}, nil
	case "publish":
		if len(args) != 2 {
			return nil, wrongArgs(verb)
		}
		return &Publish{Channel: string(args[0]), Message: args[1]}, nil
	case "subscribe":
		if len(args) == 0 {
			return nil, wrongArgs(verb)
		}
		return &Subscribe{Channels: strs(args)}, nil
	case "unsubscribe":
		return &Unsubscribe{Channels: strs(args)}, nil
	default:
		return &Unknown{Verb: string(f.Array[0].Bulk)}, nil
	}
}

// parseSet handles SET key value [EX seconds | PX milliseconds].
func parseSet(args [][]byte) (Command, error) {
	if len(args) < 2 {
		return nil, wrongArgs("set")
	}
	cmd := &Set{Key: string(args[0]), Value: args[1]}

	seenExpire := false
	for i := 2; i < len(args); i++ {
		opt := strings.ToUpper(string(args[i]))
		var unit time.Duration
		switch opt {
		case "EX":
			unit = time.Second
		case "PX":
			unit = time.Millisecond
		default:
			return nil, ErrSyntax
		}
		if seenExpire || i+1 >= len(args) {
			return nil, ErrSyntax
		}
		seenExpire = true
		i++

		n, err := strconv.ParseInt(string(args[i]), 10, 64)
		if err != nil {
			return nil, ErrNotInteger
		}
		if n <= 0 || n > math.MaxInt64/int64(unit) {
			return nil, ErrInvalidExpire
		}
		cmd.TTL = time.Duration(n) * unit
	}
	return cmd, nil
}

func wrongArgs(verb string) error {
	return fmt.Errorf("%w for '%s' command", ErrWrongArgs, verb)
}

func strs(args [][]byte) []string {
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = string(a)
	}
	return out
}
