package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/coral-mesh/atosl/internal/config"
	"github.com/coral-mesh/atosl/internal/logging"
	"github.com/coral-mesh/atosl/pkg/atosl"
)

func newResolveCmd() *cobra.Command {
	var (
		file              string
		loadAddress       string
		offsetTextSegment bool
		includeDisasm     bool
		jsonPath          string
		logLevel          string
	)

	cmd := &cobra.Command{
		Use:   "resolve [addresses...]",
		Short: "Resolve addresses in a Mach-O binary to function/file/line",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}
			logger := logging.New(logging.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty, Output: os.Stderr})

			var req atosl.Request
			if jsonPath != "" {
				req, err = readJSONRequest(jsonPath)
				if err != nil {
					return err
				}
			} else {
				if !cmd.Flags().Changed("offset-text-segment") {
					offsetTextSegment = cfg.OffsetTextSegment
				}
				if !cmd.Flags().Changed("disasm") {
					includeDisasm = cfg.IncludeDisassembly
				}
				req, err = buildFlagRequest(file, loadAddress, offsetTextSegment, includeDisasm, args)
				if err != nil {
					return err
				}
			}
			req.DisassemblyContextBytes = cfg.DisassemblyContextBytes
			req.LargeOffsetWarningThreshold = cfg.LargeOffsetWarningThreshold

			resp := atosl.SymbolizeWithLogger(logger, req)
			return printResponse(cmd.OutOrStdout(), resp)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&file, "file", "", "path to the Mach-O binary")
	flags.StringVar(&loadAddress, "load-address", "0x0", "runtime load address of the binary's __TEXT segment")
	flags.BoolVar(&offsetTextSegment, "offset-text-segment", false, "treat addresses as runtime PCs that must be re-slid into file space")
	flags.BoolVar(&includeDisasm, "disasm", false, "include a short disassembly listing with each resolved address")
	flags.StringVar(&jsonPath, "json", "", "read a flat or grouped request from a JSON file (use '-' for stdin) instead of --file/flags/args")
	flags.StringVar(&logLevel, "log-level", "", "override the configured log level")

	return cmd
}

// buildFlagRequest shapes --file/--load-address/args into the flat form
// of atosl.Request: one load address applied to every positional
// address argument.
func buildFlagRequest(file, loadAddress string, offsetTextSegment, includeDisasm bool, args []string) (atosl.Request, error) {
	if file == "" {
		return atosl.Request{}, fmt.Errorf("--file is required unless --json is given")
	}
	if len(args) == 0 {
		return atosl.Request{}, fmt.Errorf("at least one address argument is required unless --json is given")
	}

	return atosl.Request{
		File:               file,
		LoadAddress:        loadAddress,
		Addresses:          args,
		OffsetTextSegment:  offsetTextSegment,
		IncludeDisassembly: includeDisasm,
	}, nil
}

// readJSONRequest decodes a full atosl.Request document — the flat or
// grouped JSON form of SPEC_FULL §6.1 — from a file or, for path "-",
// from stdin. --json is strictly an input option: it only controls how
// the request is read, never how the response is printed.
func readJSONRequest(path string) (atosl.Request, error) {
	var r io.Reader
	if path == "-" {
		r = os.Stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return atosl.Request{}, fmt.Errorf("open %s: %w", path, err)
		}
		defer f.Close()
		r = f
	}

	var req atosl.Request
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return atosl.Request{}, fmt.Errorf("decode json request: %w", err)
	}
	return req, nil
}

// printResponse always prints resp as JSON to w, regardless of whether
// the request was built from flags/args or read via --json — §6.2
// requires the CLI's output format to be unconditional JSON.
func printResponse(w io.Writer, resp atosl.Response) error {
	enc := json.NewEncoder(w)
	return enc.Encode(resp)
}
