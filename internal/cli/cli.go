package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/vk/tagforge/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// listFlag collects every occurrence of a repeatable flag.
type listFlag []string

func (l *listFlag) String() string { return strings.Join(*l, ",") }

func (l *listFlag) Set(v string) error {
	*l = append(*l, v)
	return nil
}

// localsFlag collects repeatable name=value pairs.
type localsFlag map[string]string

func (m localsFlag) String() string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k+"="+m[k])
	}
	sort.Strings(keys)
	return strings.Join(keys, ",")
}

func (m localsFlag) Set(v string) error {
	name, value, ok := strings.Cut(v, "=")
	if !ok || name == "" {
		return fmt.Errorf("expected name=value, got %q", v)
	}
	m[name] = value
	return nil
}

// defaultLogFormat is text on an interactive terminal and json otherwise.
func defaultLogFormat() string {
	fd := os.Stderr.Fd()
	if isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd) {
		return "text"
	}
	return "json"
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("tagforge", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
tagforge - compiles ERB template units and taglibs and renders their pages.

Usage:
  tagforge [options] TEMPLATE

Arguments:
  TEMPLATE
    A page (.erb), unit (.unit.hcl) or taglib (.taglib.hcl) file.
    With -check, a file or a directory to compile every unit under.

Options:
`)
		flagSet.PrintDefaults()
	}

	locals := localsFlag{}
	var autoImports, taglibPaths listFlag

	varsFlag := flagSet.String("vars", "", "Variables file (.hcl, .json, .yaml, .yml) bound as page locals.")
	flagSet.Var(locals, "local", "A page local as name=value. Repeatable; overrides -vars.")
	flagSet.Var(&autoImports, "auto-import", "Import linked into every unit: 'ref', 'ref=alias' or 'module:name'. Repeatable.")
	flagSet.Var(&taglibPaths, "taglib-path", "Directory searched for taglibs after the template's own. Repeatable.")
	autoescapeFlag := flagSet.Bool("autoescape", false, "Escape the output of <%= %> unless it is marked safe.")
	atomicFlag := flagSet.Bool("atomic", false, "Leave a unit unchanged when its rebuild fails.")
	emitFlag := flagSet.Bool("emit", false, "Print the unit's instructions and transpiled source instead of rendering.")
	checkFlag := flagSet.Bool("check", false, "Compile every unit and taglib under TEMPLATE and report failures.")
	workersFlag := flagSet.Int("workers", 4, "Number of concurrent workers for -check.")
	logFormatFlag := flagSet.String("log-format", defaultLogFormat(), "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "warn", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	if flagSet.NArg() == 0 {
		slog.Debug("No template path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}
	if flagSet.NArg() > 1 {
		return nil, false, &ExitError{Code: 2, Message: fmt.Sprintf("expected one TEMPLATE argument, got %d", flagSet.NArg())}
	}
	path := flagSet.Arg(0)
	slog.Debug("Template path determined.", "path", path)

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	config, err := app.NewConfig(app.Config{
		TemplatePath: path,
		VarsPath:     *varsFlag,
		Locals:       locals,
		AutoImports:  autoImports,
		TaglibPaths:  taglibPaths,
		Autoescape:   *autoescapeFlag,
		Atomic:       *atomicFlag,
		Emit:         *emitFlag,
		Check:        *checkFlag,
		Workers:      *workersFlag,
		LogFormat:    logFormat,
		LogLevel:     logLevel,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
