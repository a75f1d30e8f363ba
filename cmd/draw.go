package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"secretsanta/internal/draw"
	"secretsanta/internal/models"
)

var errInvalidDraw = errors.New("draw failed the integrity check")

func drawCmd(cfg *Config) *cobra.Command {
	var (
		seed    uint64
		asJSON  bool
		checked bool
	)

	cmd := &cobra.Command{
		Use:   "draw NAME...",
		Short: "Generate a draw for the given names and print it",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var src draw.Source
			if seed != 0 {
				src = draw.NewSource(seed)
			}

			result, err := draw.NewGenerator(cfg.maxAttempts, src).Generate(args)
			if err != nil {
				return err
			}
			if checked {
				if report := draw.Validate(result); !report.Valid {
					fmt.Fprint(cmd.ErrOrStderr(), renderReport(report))
					return errInvalidDraw
				}
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, result)
			}
			fmt.Fprint(out, renderDraw(result))
			return nil
		},
	}

	fs := cmd.Flags()
	fs.BoolVar(&checked, "check", true, "validate the draw before printing it")
	fs.BoolVar(&asJSON, "json", false, "print the pairs as JSON")
	fs.Uint64Var(&seed, "seed", 0, "seed for a reproducible draw (0 picks a random one)")

	return cmd
}

func auditCmd(cfg *Config) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "audit FILE",
		Short: "Check a saved draw document for integrity problems",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := readState(args[0])
			if err != nil {
				return err
			}

			report := draw.Audit(state.Draws, state.Participants)
			out := cmd.OutOrStdout()
			if asJSON {
				if err := writeJSON(out, report); err != nil {
					return err
				}
			} else {
				fmt.Fprint(out, renderReport(report))
			}
			if !report.Valid {
				return errInvalidDraw
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")

	return cmd
}

func readState(path string) (*models.State, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	state := models.NewState()
	if err := json.Unmarshal(b, state); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return state, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
