package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// ErrorLevel represents the severity of an error message
type ErrorLevel int

const (
	ErrorLevelError ErrorLevel = iota
	ErrorLevelWarning
)

// ErrorOptions configures the error message formatting
type ErrorOptions struct {
	Level        ErrorLevel
	Context      string
	Problem      string
	Detail       string
	Suggestions  []string
	HelpCommands []string
	NoColor      bool
}

// FormatError creates a standardized error message with suggestions and help commands
//
// Example output:
//
//	✗ RECORD NOT FOUND: Cannot find record type 'Ordr'.
//
//	   Did you mean: Order, OrderLine?
//
//	   → See all record types: recordkit inspect
func FormatError(opts ErrorOptions) string {
	var b strings.Builder

	headerAttrs := []color.Attribute{color.FgRed, color.Bold}
	bodyAttrs := []color.Attribute{color.FgRed}
	symbol := "✗"
	if opts.Level == ErrorLevelWarning {
		headerAttrs = []color.Attribute{color.FgYellow, color.Bold}
		bodyAttrs = []color.Attribute{color.FgYellow}
		symbol = "!"
	}
	header := painter(opts.NoColor, headerAttrs...)
	body := painter(opts.NoColor, bodyAttrs...)

	if opts.Context != "" {
		header.Fprintf(&b, "%s %s: %s\n", symbol, strings.ToUpper(opts.Context), opts.Problem)
	} else {
		header.Fprintf(&b, "%s %s\n", symbol, opts.Problem)
	}

	if opts.Detail != "" {
		body.Fprintf(&b, "   %s\n", opts.Detail)
	}

	if len(opts.Suggestions) > 0 {
		b.WriteString("\n")
		painter(opts.NoColor, color.FgYellow).Fprintf(&b, "   Did you mean: %s?\n", strings.Join(opts.Suggestions, ", "))
	}

	if len(opts.HelpCommands) > 0 {
		b.WriteString("\n")
		cyan := painter(opts.NoColor, color.FgCyan)
		for _, cmd := range opts.HelpCommands {
			cyan.Fprintf(&b, "   → %s\n", cmd)
		}
	}

	return b.String()
}

// WriteError writes a formatted error message to the writer
func WriteError(w io.Writer, opts ErrorOptions) {
	fmt.Fprint(w, FormatError(opts))
}

// RecordNotFoundError formats an unknown record type name with suggestions
func RecordNotFoundError(name string, suggestions []string, noColor bool) string {
	return FormatError(ErrorOptions{
		Context:     "record not found",
		Problem:     fmt.Sprintf("Cannot find record type '%s'.", name),
		Suggestions: suggestions,
		HelpCommands: []string{
			"See all record types: recordkit inspect",
		},
		NoColor: noColor,
	})
}

// ConversionFailed formats a value that could not be coerced to a kind
func ConversionFailed(kind, value string, cause error, noColor bool) string {
	return FormatError(ErrorOptions{
		Context: "conversion failed",
		Problem: fmt.Sprintf("Cannot convert %q to %s.", value, kind),
		Detail:  cause.Error(),
		HelpCommands: []string{
			"Retry with the mapper conversion rules: recordkit coerce --loose " + kind + " " + value,
		},
		NoColor: noColor,
	})
}

// ConfigError formats a configuration failure
func ConfigError(cause error, noColor bool) string {
	return FormatError(ErrorOptions{
		Context: "configuration error",
		Problem: cause.Error(),
		HelpCommands: []string{
			"Settings are read from recordkit.yaml and RECORDKIT_* variables",
			"Get help: recordkit --help",
		},
		NoColor: noColor,
	})
}

// Warning formats a warning message
func Warning(message string, noColor bool) string {
	return FormatError(ErrorOptions{Level: ErrorLevelWarning, Problem: message, NoColor: noColor})
}
