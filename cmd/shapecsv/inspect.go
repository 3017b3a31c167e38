package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/shapestone/shape-csvchunk/pkg/csv"
)

// sniffSampleBytes is how much input sniff reads.
const sniffSampleBytes = 64 << 10

func newTokensCmd(a *app) *cobra.Command {
	var pf parserFlags
	cmd := &cobra.Command{
		Use:   "tokens [file]",
		Short: "Print the tokens the parser would see",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := pf.options(cmd.Flags(), a.cfg)
			if err != nil {
				return err
			}
			in, _, err := openInput(cmd, args)
			if err != nil {
				return err
			}
			defer in.Close()
			data, err := io.ReadAll(in)
			if err != nil {
				return err
			}

			tokens, err := csv.Tokenize(string(data), opts)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, tok := range tokens {
				fmt.Fprintf(tw, "%s\t%s\n", tok.Kind(), strconv.Quote(tok.ValueString()))
			}
			return tw.Flush()
		},
	}
	pf.register(cmd.Flags())
	return cmd
}

func newSniffCmd(a *app) *cobra.Command {
	var asYAML bool
	cmd := &cobra.Command{
		Use:   "sniff [file]",
		Short: "Guess the separators and header of a CSV sample",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, _, err := openInput(cmd, args)
			if err != nil {
				return err
			}
			defer in.Close()
			sample, err := io.ReadAll(io.LimitReader(in, sniffSampleBytes))
			if err != nil {
				return err
			}

			d := csv.Sniff(string(sample))
			if asYAML {
				// Ready to paste into the parser section of a config file.
				return yaml.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{
					"parser": map[string]any{
						"fieldSeparators": []string{d.FieldSeparator},
						"lineSeparators":  []string{d.LineSeparator},
					},
					"reader": map[string]any{"has_headers": d.HasHeader},
				})
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(d)
		},
	}
	cmd.Flags().BoolVar(&asYAML, "yaml", false, "print as a configuration snippet")
	return cmd
}

func newConfigCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := a.cfg.ParserOptions()
			if err != nil {
				return err
			}
			// Show the parser section fully resolved.
			cfg := *a.cfg
			cfg.Parser = map[string]any{
				"fieldDelimiter":        opts.FieldDelimiter,
				"fieldSeparators":       opts.FieldSeparators,
				"lineSeparators":        opts.LineSeparators,
				"smartRegex":            opts.SmartRegex,
				"skipEmptyLinesWhen":    opts.SkipEmptyLinesWhen.String(),
				"skipLinesWithWarnings": opts.SkipLinesWithWarnings,
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(cfg); err != nil {
				return err
			}
			return enc.Close()
		},
	}
}
