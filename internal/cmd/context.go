package cmd

import (
	"github.com/spf13/cobra"
)

// CommandContext holds the global command-line flags of one invocation.
type CommandContext struct {
	// Configuration
	ConfigPath string
	LogLevel   string
	LogFormat  string

	// Output control
	Format  string
	NoColor bool
	Metrics bool

	// Session
	Ephemeral bool
}

// NewCommandContext extracts the global flags from cmd. Empty strings mean
// the flag was not given and the configured value applies.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	flags := cmd.Flags()

	configPath, err := flags.GetString("config")
	if err != nil {
		return nil, err
	}

	logLevel, err := flags.GetString("log-level")
	if err != nil {
		return nil, err
	}

	logFormat, err := flags.GetString("log-format")
	if err != nil {
		return nil, err
	}

	format, err := flags.GetString("format")
	if err != nil {
		return nil, err
	}

	noColor, err := flags.GetBool("no-color")
	if err != nil {
		return nil, err
	}

	dumpMetrics, err := flags.GetBool("metrics")
	if err != nil {
		return nil, err
	}

	ephemeral, err := flags.GetBool("ephemeral")
	if err != nil {
		return nil, err
	}

	return &CommandContext{
		ConfigPath: configPath,
		LogLevel:   logLevel,
		LogFormat:  logFormat,
		Format:     format,
		NoColor:    noColor,
		Metrics:    dumpMetrics,
		Ephemeral:  ephemeral,
	}, nil
}
