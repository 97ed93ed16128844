// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - Command-line parsing and dispatch for folio.

package cli

import (
	"fmt"
	"os"
	"runtime"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdAsk
	CmdChat
	CmdHistory
	CmdServe
	CmdConfig
	CmdVersion
	CmdHelp
)

// String returns the command word.
func (c Command) String() string {
	switch c {
	case CmdTUI:
		return "tui"
	case CmdAsk:
		return "ask"
	case CmdChat:
		return "chat"
	case CmdHistory:
		return "history"
	case CmdServe:
		return "serve"
	case CmdConfig:
		return "config"
	case CmdVersion:
		return "version"
	default:
		return "help"
	}
}

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Verbose  bool
	JSON     bool
	Endpoint string // overrides assistant.endpoint
	Instant  bool   // skip reveal pacing

	// Command-specific
	Query      string
	Subcommand string
	ConfigKey  string
	ConfigVal  string
	Open       bool   // tui: start with the window open
	Addr       string // serve: listen address

	// Raw args (remaining after flag parsing)
	Raw []string
}

const usageText = `folio - chat with Adil Saeed's portfolio assistant

Usage:
  folio                        Start the chat widget (default)
  folio tui [--open]           Start the chat widget
  folio ask "question"         Ask a single question
  folio chat                   Interactive line-mode chat
  folio history [show|clear]   Show or clear the saved conversation
  folio history export [md|json] [DIR]
                               Write the conversation to a file
  folio serve [--addr ADDR]    Run the development backend
  folio config [show|get|set|path|keys]
                               Inspect or change configuration
  folio version                Show version information
  folio help                   Show this help

Global flags:
  --endpoint URL               Chat endpoint to use for this run
  --instant                    Show replies without the typing effect
  --json                       Machine-readable output (ask, history, config)
  -v, --verbose                Log to stderr

Examples:
  folio ask "What are your skills?"
  folio config set ui.theme light
  folio serve --addr 127.0.0.1:8000

Config: ~/.folio/config.toml (override the directory with FOLIO_HOME)

Version: %s
`

// PrintUsage prints the usage/help text.
func PrintUsage() {
	fmt.Printf(usageText, Version)
}

// PrintVersion prints version information.
func PrintVersion() {
	fmt.Printf("folio version %s\n", Version)
	fmt.Printf("  Git commit: %s\n", GitCommit)
	fmt.Printf("  Build date: %s\n", BuildDate)
	fmt.Printf("  Go:         %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// Parse parses os.Args.
func Parse() (Command, Args) {
	return ParseArgs(os.Args[1:])
}

// ParseArgs parses args (without the program name) and returns the command
// and its arguments.
func ParseArgs(args []string) (Command, Args) {
	remaining, parsedArgs := parseGlobalFlags(args)

	if len(remaining) == 0 {
		return CmdTUI, parsedArgs
	}

	cmd := strings.ToLower(remaining[0])
	remaining = remaining[1:]
	parsedArgs.Raw = remaining

	switch cmd {
	case "tui", "open":
		parseTUIArgs(&parsedArgs, remaining)
		return CmdTUI, parsedArgs
	case "ask":
		parsedArgs.Query = strings.Join(remaining, " ")
		return CmdAsk, parsedArgs
	case "chat":
		return CmdChat, parsedArgs
	case "history":
		parseSubcommandArgs(&parsedArgs, remaining)
		return CmdHistory, parsedArgs
	case "serve", "server":
		parseServeArgs(&parsedArgs, remaining)
		return CmdServe, parsedArgs
	case "config":
		parseSubcommandArgs(&parsedArgs, remaining)
		return CmdConfig, parsedArgs
	case "version", "--version", "-V":
		return CmdVersion, parsedArgs
	case "help", "--help", "-h":
		return CmdHelp, parsedArgs
	default:
		if strings.HasPrefix(cmd, "-") {
			parseTUIArgs(&parsedArgs, append([]string{cmd}, remaining...))
			return CmdTUI, parsedArgs
		}
		// Unknown words are treated as a question
		parsedArgs.Query = strings.Join(append([]string{cmd}, remaining...), " ")
		return CmdAsk, parsedArgs
	}
}

// parseGlobalFlags extracts global flags from args and returns remaining args.
func parseGlobalFlags(args []string) ([]string, Args) {
	var remaining []string
	var parsedArgs Args

	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "-v" || arg == "--verbose":
			parsedArgs.Verbose = true
		case arg == "--json":
			parsedArgs.JSON = true
		case arg == "--instant":
			parsedArgs.Instant = true
		case arg == "--endpoint":
			if i+1 < len(args) {
				i++
				parsedArgs.Endpoint = args[i]
			}
		case strings.HasPrefix(arg, "--endpoint="):
			parsedArgs.Endpoint = strings.TrimPrefix(arg, "--endpoint=")
		default:
			remaining = append(remaining, arg)
		}
	}
	return remaining, parsedArgs
}

func parseTUIArgs(args *Args, remaining []string) {
	for _, arg := range remaining {
		if arg == "--open" || arg == "-o" {
			args.Open = true
		}
	}
}

func parseServeArgs(args *Args, remaining []string) {
	for i := 0; i < len(remaining); i++ {
		arg := remaining[i]
		switch {
		case arg == "--addr" || arg == "-a":
			if i+1 < len(remaining) {
				i++
				args.Addr = remaining[i]
			}
		case strings.HasPrefix(arg, "--addr="):
			args.Addr = strings.TrimPrefix(arg, "--addr=")
		}
	}
}

// parseSubcommandArgs reads "<sub> [key] [value...]".
func parseSubcommandArgs(args *Args, remaining []string) {
	if len(remaining) > 0 {
		args.Subcommand = strings.ToLower(remaining[0])
	}
	if len(remaining) > 1 {
		args.ConfigKey = remaining[1]
	}
	if len(remaining) > 2 {
		args.ConfigVal = strings.Join(remaining[2:], " ")
	}
}

// =============================================================================
// DISPATCH
// =============================================================================

// Run executes cmd and returns the process exit code.
func Run(cmd Command, args Args) int {
	var err error
	switch cmd {
	case CmdTUI:
		err = HandleTUI(args)
	case CmdAsk:
		err = HandleAsk(args)
	case CmdChat:
		err = HandleChat(args)
	case CmdHistory:
		err = HandleHistory(args)
	case CmdServe:
		err = HandleServe(args)
	case CmdConfig:
		err = HandleConfig(args)
	case CmdVersion:
		err = HandleVersion(args)
	default:
		PrintUsage()
	}
	if err != nil {
		DisplayError(err, args.JSON)
		return GetExitCode(err)
	}
	return ExitSuccess
}

// HandleVersion prints version information, as JSON with --json.
func HandleVersion(args Args) error {
	if args.JSON {
		return outputJSON(map[string]string{
			"version":    Version,
			"git_commit": GitCommit,
			"build_date": BuildDate,
			"go":         runtime.Version(),
		})
	}
	PrintVersion()
	return nil
}
