package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

const (
	exitOK      = 0
	exitInvalid = 1
	exitError   = 2
)

// errInvalid marks a payload that failed validation.
var errInvalid = errors.New("payload does not match schema")

type command struct {
	name    string
	summary string
	run     func(ctx context.Context, env *env, args []string) error
}

type env struct {
	cfg    Config
	logger zerolog.Logger
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

var commands = []command{
	{name: "expand", summary: "print the strict JSON schema of a compact schema", run: runExpand},
	{name: "check", summary: "validate a payload or live response against a schema", run: runCheck},
	{name: "scaffold", summary: "infer a compact schema from a sample response", run: runScaffold},
	{name: "demo", summary: "serve the sample task API", run: runDemo},
}

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	global := flag.NewFlagSet("apismoke", flag.ContinueOnError)
	global.SetOutput(stderr)
	configPath := global.String("config", "", "YAML config file")
	logLevel := global.String("log-level", "", "log level (debug, info, warn, error)")
	global.Usage = func() { usage(global) }
	if err := global.Parse(args); err != nil {
		return exitError
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "apismoke: %v\n", err)
		return exitError
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(stderr, "apismoke: invalid log level %q\n", cfg.LogLevel)
		return exitError
	}
	logger := zerolog.New(stderr).Level(level).With().Timestamp().Logger()

	rest := global.Args()
	if len(rest) == 0 {
		usage(global)
		return exitError
	}
	cmd, ok := lookup(rest[0])
	if !ok {
		fmt.Fprintf(stderr, "apismoke: unknown command %q\n", rest[0])
		usage(global)
		return exitError
	}

	e := &env{cfg: cfg, logger: logger, stdin: stdin, stdout: stdout, stderr: stderr}
	err = cmd.run(ctx, e, rest[1:])
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, errInvalid):
		return exitInvalid
	case errors.Is(err, flag.ErrHelp):
		return exitOK
	default:
		fmt.Fprintf(stderr, "apismoke %s: %v\n", cmd.name, err)
		return exitError
	}
}

func lookup(name string) (command, bool) {
	for _, cmd := range commands {
		if cmd.name == name {
			return cmd, true
		}
	}
	return command{}, false
}

func usage(fs *flag.FlagSet) {
	out := fs.Output()
	fmt.Fprintf(out, "Usage: %s [-config file] [-log-level level] <command> [flags]\n\n", filepath.Base(os.Args[0]))
	fmt.Fprintln(out, "Commands:")
	for _, cmd := range commands {
		fmt.Fprintf(out, "  %-9s %s\n", cmd.name, cmd.summary)
	}
	fmt.Fprintln(out, "\nGlobal flags:")
	fs.PrintDefaults()
}

func newFlagSet(e *env, name string) *flag.FlagSet {
	fs := flag.NewFlagSet("apismoke "+name, flag.ContinueOnError)
	fs.SetOutput(e.stderr)
	return fs
}

// readInput reads path, or stdin when path is "-".
func readInput(e *env, path string) ([]byte, error) {
	if strings.TrimSpace(path) == "-" {
		return io.ReadAll(e.stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}
