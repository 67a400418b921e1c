package config

// CLIConfig is the configuration for minikv-cli.
type CLIConfig struct {
	// Server is the default RESP address.
	Server string `yaml:"server"`

	// Admin is the default admin HTTP address.
	Admin string `yaml:"admin"`

	// Output is the default output format: text, json, yaml.
	Output string `yaml:"output"`

	// Profiles are named server/admin pairs selectable with --profile.
	Profiles map[string]Profile `yaml:"profiles,omitempty"`

	// HistoryFile overrides the REPL history location.
	HistoryFile string `yaml:"history_file,omitempty"`
}

// Profile is a saved server.
type Profile struct {
	Server string `yaml:"server"`
	Admin  string `yaml:"admin,omitempty"`
}

// Default values.
const (
	DefaultServer = "127.0.0.1:6379"
	DefaultAdmin  = "127.0.0.1:9121"
	DefaultOutput = "text"
)

// Default returns the default CLI configuration.
func Default() *CLIConfig {
	return &CLIConfig{
		Server:   DefaultServer,
		Admin:    DefaultAdmin,
		Output:   DefaultOutput,
		Profiles: make(map[string]Profile),
	}
}
