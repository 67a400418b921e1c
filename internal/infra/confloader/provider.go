package confloader

import (
	"errors"

	"github.com/knadh/koanf/maps"
)

var errNoBytes = errors.New("confloader: overrides have no byte form")

// overrides feeds flag values into koanf. Keys are dotted config paths
// such as "server.addr".
type overrides map[string]any

func (o overrides) ReadBytes() ([]byte, error) {
	return nil, errNoBytes
}

func (o overrides) Read() (map[string]any, error) {
	return maps.Unflatten(o, "."), nil
}
