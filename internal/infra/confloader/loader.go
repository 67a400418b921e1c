package confloader

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix marks the environment variables read as settings.
const EnvPrefix = "MINIKV_"

// Loader accumulates configuration layers and decodes them into a struct
// with koanf tags.
type Loader struct {
	tree *koanf.Koanf
	path string
}

// Option configures a Loader.
type Option func(*Loader)

// WithConfigFile adds a YAML file layer. An empty path adds nothing.
func WithConfigFile(path string) Option {
	return func(l *Loader) {
		l.path = path
	}
}

// NewLoader returns a loader with no layers read yet.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{tree: koanf.New(".")}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads the file and environment layers and decodes the result into
// target, which should already hold the defaults.
func (l *Loader) Load(target any) error {
	if l.path != "" {
		if err := l.tree.Load(file.Provider(l.path), yaml.Parser()); err != nil {
			return fmt.Errorf("read %s: %w", l.path, err)
		}
	}
	if err := l.tree.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return fmt.Errorf("read environment: %w", err)
	}
	return l.Unmarshal(target)
}

// LoadMap adds a layer of dotted keys on top of everything loaded so far.
// Call Unmarshal afterwards to apply it.
func (l *Loader) LoadMap(values map[string]any) error {
	if err := l.tree.Load(overrides(values), nil); err != nil {
		return fmt.Errorf("apply overrides: %w", err)
	}
	return nil
}

// Unmarshal decodes every layer loaded so far into target.
func (l *Loader) Unmarshal(target any) error {
	if err := l.tree.Unmarshal("", target); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}
	return nil
}

// envKey maps MINIKV_SECTION_SOME_KEY to section.some_key. Variables
// without a section, such as MINIKV_CONFIG, are skipped.
func envKey(name string) string {
	section, key, ok := strings.Cut(strings.ToLower(strings.TrimPrefix(name, EnvPrefix)), "_")
	if !ok || section == "" || key == "" {
		return ""
	}
	return section + "." + key
}
