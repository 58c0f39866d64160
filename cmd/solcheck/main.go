package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/isachard/solcheck/internal/analysis"
	"github.com/isachard/solcheck/internal/solcast"
	"github.com/isachard/solcheck/internal/sourcecode"
)

const (
	ERROR_STATUS_CODE = 1

	USAGE = "usage: solcheck [options] <ast.json> ...\n\n" +
		"solcheck checks the immutable-initialization discipline of Solidity contracts.\n" +
		"It consumes compact JSON ASTs produced by `solc --ast-compact-json` or the\n" +
		"standard JSON output.\n\noptions:\n"
)

func main() {
	statusCode := _main(os.Args, os.Stdout, os.Stderr)
	if statusCode != 0 {
		os.Exit(statusCode)
	}
}

func _main(args []string, outW, errW io.Writer) int {
	mainSubCommandParams := flag.NewFlagSet(args[0], flag.ExitOnError)

	var configPath string
	var sourceDir string
	var debug bool
	var noColor bool

	mainSubCommandParams.StringVar(&configPath, "config", "", "path to a YAML configuration file")
	mainSubCommandParams.StringVar(&sourceDir, "sources", "", "directory containing the .sol files the ASTs were compiled from")
	mainSubCommandParams.BoolVar(&debug, "debug", false, "enable debug logs")
	mainSubCommandParams.BoolVar(&noColor, "no-color", false, "disable colored output")

	mainSubCommandParams.Usage = func() {
		fmt.Fprint(errW, USAGE)
		mainSubCommandParams.PrintDefaults()
	}

	if err := mainSubCommandParams.Parse(args[1:]); err != nil {
		fmt.Fprintln(errW, err)
		return ERROR_STATUS_CODE
	}

	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: errW}).Level(level).With().Timestamp().Logger()

	config, err := readConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("failed to read the configuration")
		return ERROR_STATUS_CODE
	}
	if noColor {
		config.NoColor = true
	}

	astPaths := mainSubCommandParams.Args()
	if len(astPaths) == 0 {
		mainSubCommandParams.Usage()
		return ERROR_STATUS_CODE
	}

	printer := newDiagnosticPrinter(outW, config.NoColor)

	failed := false
	for _, astPath := range astPaths {
		data, err := os.ReadFile(astPath)
		if err != nil {
			logger.Error().Err(err).Str("file", astPath).Msg("failed to read input")
			failed = true
			continue
		}

		unit, err := solcast.DecodeSourceUnit(data)
		if err != nil {
			logger.Error().Err(err).Str("file", astPath).Msg("failed to decode AST")
			failed = true
			continue
		}

		file := loadSourceFile(astPath, sourceDir, logger)

		result, _ := analysis.Analyze(analysis.AnalysisInput{
			Unit:          unit,
			File:          file,
			SkipContracts: config.SkipContracts,
			Logger:        logger,
		})

		for _, diagnostic := range result.Errors {
			printer.print(diagnostic)
		}
		if len(result.Errors) > 0 {
			failed = true
		}
	}

	if failed {
		return ERROR_STATUS_CODE
	}
	return 0
}

// loadSourceFile tries to find the .sol file an AST was compiled from, so diagnostics
// can carry line:column positions. Without it positions fall back to byte spans.
func loadSourceFile(astPath, sourceDir string, logger zerolog.Logger) *sourcecode.SourceFile {
	name := strings.TrimSuffix(filepath.Base(astPath), filepath.Ext(astPath)) + ".sol"

	if sourceDir == "" {
		return sourcecode.NewSourceFile(name, "")
	}

	sourcePath := filepath.Join(sourceDir, name)
	code, err := os.ReadFile(sourcePath)
	if err != nil {
		logger.Debug().Err(err).Str("file", sourcePath).Msg("source file not found, positions will be byte spans")
		return sourcecode.NewSourceFile(name, "")
	}

	return sourcecode.NewSourceFile(name, string(code))
}
