package main

import (
	"fmt"
	"io"
	"maps"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/shapestone/shape-csvchunk/internal/config"
	"github.com/shapestone/shape-csvchunk/pkg/csv"
)

// parserFlags overlay the parser section of the configuration.
type parserFlags struct {
	delimiter      string
	separators     []string
	lineSeparators []string
	noSmartRegex   bool
	skipEmpty      string
	skipWarnings   bool
}

func (f *parserFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.delimiter, "delimiter", "d", "", `field delimiter (quote), default "`)
	fs.StringArrayVarP(&f.separators, "separator", "s", nil, `field separator, repeatable; escapes \t \n \r allowed`)
	fs.StringArrayVarP(&f.lineSeparators, "line-separator", "l", nil, `line separator, repeatable; escapes \t \n \r allowed`)
	fs.BoolVar(&f.noSmartRegex, "no-smart-regex", false, "always use the general tokenizing pattern")
	fs.StringVar(&f.skipEmpty, "skip-empty", "", "skip empty lines: reallyEmpty, blank or onlyBlankFields")
	fs.BoolVar(&f.skipWarnings, "skip-warnings", false, "drop lines that raised a warning")
}

// options merges the changed flags over cfg.Parser and validates the result.
func (f *parserFlags) options(fs *pflag.FlagSet, cfg *config.Config) (csv.Options, error) {
	raw := maps.Clone(cfg.Parser)
	if raw == nil {
		raw = map[string]any{}
	}
	if fs.Changed("delimiter") {
		raw["fieldDelimiter"] = config.Unescape(f.delimiter)
	}
	if fs.Changed("separator") {
		raw["fieldSeparators"] = unescapeAll(f.separators)
	}
	if fs.Changed("line-separator") {
		raw["lineSeparators"] = unescapeAll(f.lineSeparators)
	}
	if fs.Changed("no-smart-regex") {
		raw["smartRegex"] = !f.noSmartRegex
	}
	if fs.Changed("skip-empty") {
		raw["skipEmptyLinesWhen"] = f.skipEmpty
	}
	if fs.Changed("skip-warnings") {
		raw["skipLinesWithWarnings"] = f.skipWarnings
	}

	opts, err := csv.ParseOptions(raw)
	if err != nil {
		return csv.Options{}, err
	}
	if fs.Changed("skip-empty") {
		// ParseOptions maps unknown names to no skipping; a flag typo is an error.
		if _, err := csv.ParseSkipPolicy(f.skipEmpty); err != nil {
			return csv.Options{}, err
		}
	}
	if _, err := csv.NewConfig(opts); err != nil {
		return csv.Options{}, err
	}
	return opts, nil
}

func unescapeAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = config.Unescape(v)
	}
	return out
}

// openInput returns stdin for no argument or "-", the named file otherwise.
func openInput(cmd *cobra.Command, args []string) (io.ReadCloser, string, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.NopCloser(cmd.InOrStdin()), "stdin", nil
	}
	f, err := os.Open(args[0])
	if err != nil {
		return nil, "", fmt.Errorf("failed to open input: %w", err)
	}
	return f, args[0], nil
}
