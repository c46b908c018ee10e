// Package config parses the trace-model command line and environment.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/peterbourgon/ff/v3"
)

// EnvVarPrefix is the prefix of environment variables that mirror flags,
// e.g. TRACE_MODEL_FORMAT for -format.
const EnvVarPrefix = "TRACE_MODEL"

// Output formats for the model summary.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// ErrNoInput is returned when no capture file is given.
var ErrNoInput = errors.New("no capture files specified")

// CustomAttribute is a span attribute computed from an expression.
type CustomAttribute struct {
	Name       string
	Expression string
}

// Config holds the parsed command-line configuration
type Config struct {
	// Inputs are the capture files to load, fed in this order
	Inputs []string
	// Format of the summary written to stdout
	Format string
	// Export sends the model as OTLP spans
	Export bool
	// TraceID is an expression producing the export trace ID
	TraceID string
	// ParentID is an expression producing the parent span ID of the root span
	ParentID string
	// CustomAttributes are added to every exported event span
	CustomAttributes []CustomAttribute
	// Anchor is the wall-clock time of the first traced event. Zero means
	// timestamps are interpreted as time since boot of this host.
	Anchor time.Time
	// Verbose enables debug logging
	Verbose bool
	// Version prints the version and exits
	Version bool
}

// attributeList collects repeated -attribute flags.
type attributeList struct {
	attrs *[]CustomAttribute
}

func (l attributeList) String() string {
	if l.attrs == nil {
		return ""
	}
	parts := make([]string, 0, len(*l.attrs))
	for _, a := range *l.attrs {
		parts = append(parts, a.Name+"="+a.Expression)
	}
	return strings.Join(parts, ";")
}

func (l attributeList) Set(s string) error {
	attrs, err := ParseAttributeString(s)
	if err != nil {
		return err
	}
	*l.attrs = append(*l.attrs, attrs...)
	return nil
}

// Help strings for command line arguments
var (
	configHelp    = "Config file with one 'flag value' per line."
	formatHelp    = "Summary output format: text or json."
	exportHelp    = "Export the model as OpenTelemetry spans (OTLP/HTTP, configured via OTEL_* variables)."
	traceIDHelp   = "Expression evaluated against the trace to produce the export trace ID. Random when empty."
	parentIDHelp  = "Expression evaluated against the trace to produce the root span's parent ID."
	attributeHelp = "Custom span attribute NAME=EXPR, evaluated per event. Repeatable; ';' separates several."
	anchorHelp    = "RFC3339 wall-clock time of the first traced event. Defaults to boot-time anchoring."
	verboseHelp   = "Enable debug logging."
	versionHelp   = "Show version."
)

// ParseArgs parses command-line arguments and returns a Config.
// Expected format: program_name [flags] <capture.json[.gz]>...
// Every flag can also be set through a TRACE_MODEL_* environment variable
// or a plain config file passed with -config.
func ParseArgs(args []string) (*Config, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("no arguments provided")
	}

	programName := args[0]
	cfg := &Config{}

	fs := flag.NewFlagSet(programName, flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	attrs := attributeList{attrs: &cfg.CustomAttributes}
	fs.Var(attrs, "a", "Shorthand for -attribute.")
	fs.Var(attrs, "attribute", attributeHelp)
	fs.Func("anchor", anchorHelp, func(s string) error {
		anchor, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return fmt.Errorf("invalid anchor time: %w", err)
		}
		cfg.Anchor = anchor
		return nil
	})
	_ = fs.String("config", "", configHelp)
	fs.BoolVar(&cfg.Export, "export", false, exportHelp)
	fs.StringVar(&cfg.Format, "format", FormatText, formatHelp)
	fs.StringVar(&cfg.ParentID, "p", "", "Shorthand for -parent-id.")
	fs.StringVar(&cfg.ParentID, "parent-id", "", parentIDHelp)
	fs.StringVar(&cfg.TraceID, "t", "", "Shorthand for -trace-id.")
	fs.StringVar(&cfg.TraceID, "trace-id", "", traceIDHelp)
	fs.BoolVar(&cfg.Verbose, "v", false, "Shorthand for -verbose.")
	fs.BoolVar(&cfg.Verbose, "verbose", false, verboseHelp)
	fs.BoolVar(&cfg.Version, "version", false, versionHelp)

	err := ff.Parse(fs, args[1:],
		ff.WithEnvVarPrefix(EnvVarPrefix),
		ff.WithConfigFileFlag("config"),
		ff.WithConfigFileParser(ff.PlainParser),
		ff.WithAllowMissingConfigFile(true),
	)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, fmt.Errorf("%w\n%s", err, Usage(programName))
		}
		return nil, fmt.Errorf("parsing flags: %w", err)
	}

	if cfg.Version {
		return cfg, nil
	}

	switch cfg.Format {
	case FormatText, FormatJSON:
	default:
		return nil, fmt.Errorf("unknown format %q (want %s or %s)", cfg.Format, FormatText, FormatJSON)
	}

	cfg.Inputs = fs.Args()
	if len(cfg.Inputs) == 0 {
		return nil, fmt.Errorf("%w\n%s", ErrNoInput, Usage(programName))
	}

	return cfg, nil
}

// Usage returns the one-line usage text.
func Usage(programName string) string {
	return fmt.Sprintf("Usage: %s [-format text|json] [-export] [-t EXPR] [-p EXPR] [-a NAME=EXPR]... <capture.json[.gz]>...\n"+
		"Example: %s -export -a 'category=cat' trace.json.gz", programName, programName)
}

// ParseAttributeString parses "name1=expr1;name2=expr2" into custom attributes.
// Empty sections are skipped; an empty string yields nil.
func ParseAttributeString(s string) ([]CustomAttribute, error) {
	var attrs []CustomAttribute
	for _, section := range strings.Split(s, ";") {
		section = strings.TrimSpace(section)
		if section == "" {
			continue
		}

		name, expression, ok := strings.Cut(section, "=")
		if !ok {
			return nil, fmt.Errorf("invalid attribute format %q: expected NAME=EXPR", section)
		}
		name = strings.TrimSpace(name)
		expression = strings.TrimSpace(expression)
		if name == "" {
			return nil, fmt.Errorf("invalid attribute %q: name cannot be empty", section)
		}
		if expression == "" {
			return nil, fmt.Errorf("invalid attribute %q: expression cannot be empty", section)
		}

		attrs = append(attrs, CustomAttribute{Name: name, Expression: expression})
	}
	return attrs, nil
}
