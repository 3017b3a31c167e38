package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shapestone/shape-csvchunk/pkg/csv"
)

type parseOutput struct {
	Headers  []string      `json:"headers,omitempty"`
	Records  [][]string    `json:"records"`
	Warnings []csv.Warning `json:"warnings"`
}

func newParseCmd(a *app) *cobra.Command {
	var (
		pf        parserFlags
		format    string
		headers   bool
		strict    bool
		chunkSize int
	)
	cmd := &cobra.Command{
		Use:   "parse [file]",
		Short: "Parse CSV and print the records",
		Long: `Parse CSV from a file or stdin. Records are printed as JSON, or re-rendered
as CSV with --format csv. Warnings go to stderr; --strict turns them into a
failure.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := pf.options(cmd.Flags(), a.cfg)
			if err != nil {
				return err
			}
			in, name, err := openInput(cmd, args)
			if err != nil {
				return err
			}
			defer in.Close()

			scanner, err := csv.NewScanner(in, opts)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("chunk-size") {
				chunkSize = a.cfg.Reader.ChunkSize
			}
			if !cmd.Flags().Changed("headers") {
				headers = a.cfg.Reader.HasHeaders
			}
			scanner.SetChunkSize(chunkSize).SetHasHeaders(headers)

			out := cmd.OutOrStdout()
			switch format {
			case "csv":
				w, err := csv.NewWriter(out, csv.WriterOptionsFor(scanner.Config()))
				if err != nil {
					return err
				}
				wroteHeaders := false
				for scanner.Scan() {
					if h := scanner.Headers(); h != nil && !wroteHeaders {
						if err := w.Write(h); err != nil {
							return err
						}
						wroteHeaders = true
					}
					if err := w.Write(scanner.Record().Fields()); err != nil {
						return err
					}
				}
				if h := scanner.Headers(); h != nil && !wroteHeaders {
					if err := w.Write(h); err != nil {
						return err
					}
				}
				if err := w.Flush(); err != nil {
					return err
				}
			case "json":
				result := parseOutput{Records: [][]string{}}
				for scanner.Scan() {
					result.Records = append(result.Records, scanner.Record().Fields())
				}
				result.Headers = scanner.Headers()
				result.Warnings = scanner.Warnings()
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(result); err != nil {
					return err
				}
			default:
				return fmt.Errorf("unknown format %q (want json or csv)", format)
			}
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("failed to read %s: %w", name, err)
			}

			warnings := scanner.Warnings()
			for _, w := range warnings {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", name, w)
			}
			if strict && len(warnings) > 0 {
				return &csv.WarningsError{Warnings: warnings}
			}
			return nil
		},
	}

	pf.register(cmd.Flags())
	cmd.Flags().StringVarP(&format, "format", "f", "json", "output format: json or csv")
	cmd.Flags().BoolVar(&headers, "headers", false, "treat the first record as headers")
	cmd.Flags().BoolVar(&strict, "strict", false, "fail when the input raised warnings")
	cmd.Flags().IntVar(&chunkSize, "chunk-size", csv.DefaultChunkSize, "bytes read at a time")
	return cmd
}
