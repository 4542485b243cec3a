// Command bfc compiles tape-language programs to C.
//
// Usage:
//
//	bfc [options] <input.bf>
//	cat input.bf | bfc [options]
//	bfc repl
//	bfc dumpconfig [file]
//
// Config file:
//
//	bfc looks for bfc.toml, .bfcrc, or .bfcrc.toml in the input's directory
//	and parent directories. Config file options are overridden by CLI flags.
//
// Example bfc.toml:
//
//	Optimize = true
//	MaxPasses = 20
//	Emit = "c"
//	TapeSize = 30000
//	Compact = false
//	SourceMap = false
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/tebeka/atexit"
	"gopkg.in/urfave/cli.v1"

	"codeberg.org/saruga/bfc/internal/compiler"
	"codeberg.org/saruga/bfc/internal/config"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

var (
	outputFlag = cli.StringFlag{
		Name:  "output, o",
		Usage: "Write output to `FILE` (- for stdout)",
	}
	configFileFlag = cli.StringFlag{
		Name:  "config",
		Usage: "TOML configuration `FILE`",
	}
	noConfigFlag = cli.BoolFlag{
		Name:  "no-config",
		Usage: "Ignore config files",
	}
	noOptimizeFlag = cli.BoolFlag{
		Name:  "no-optimize",
		Usage: "Skip the peephole optimizer",
	}
	maxPassesFlag = cli.IntFlag{
		Name:  "max-passes",
		Usage: "Maximum optimizer passes",
		Value: 20,
	}
	emitFlag = cli.StringFlag{
		Name:  "emit",
		Usage: "Output format: c, bf, or tree",
		Value: "c",
	}
	tapeSizeFlag = cli.IntFlag{
		Name:  "tape-size",
		Usage: "Number of cells in the generated program",
		Value: 30000,
	}
	compactFlag = cli.BoolFlag{
		Name:  "compact",
		Usage: "Minimize whitespace in the output",
	}
	sourceMapFlag = cli.BoolFlag{
		Name:  "source-map",
		Usage: "Write <output>.map next to C output",
	}
	statsFlag = cli.BoolFlag{
		Name:  "stats",
		Usage: "Print compilation statistics",
	}
	verboseFlag = cli.BoolFlag{
		Name:  "verbose",
		Usage: "Log pipeline progress",
	}

	configFlags = []cli.Flag{
		configFileFlag,
		noConfigFlag,
		noOptimizeFlag,
		maxPassesFlag,
		emitFlag,
		tapeSizeFlag,
		compactFlag,
		sourceMapFlag,
		verboseFlag,
	}
)

var (
	infoPrefix    = color.New(color.FgCyan).Sprint("info:")
	warningPrefix = color.New(color.FgYellow).Sprint("warning:")
	errorPrefix   = color.New(color.FgRed, color.Bold).Sprint("error:")
)

func main() {
	app := cli.NewApp()
	app.Name = "bfc"
	app.Usage = "compile tape-language programs to C"
	app.UsageText = "bfc [options] <input.bf>\n   cat input.bf | bfc [options]"
	app.Version = fmt.Sprintf("%s (%s)", version, commit)
	app.Flags = append([]cli.Flag{outputFlag, statsFlag}, configFlags...)
	app.Action = compileAction
	app.Commands = []cli.Command{
		{
			Name:        "repl",
			Usage:       "Compile programs interactively",
			Flags:       configFlags,
			Action:      replAction,
			Description: "Each entered program is optimized and its tree is printed. :c switches to C output.",
		},
		{
			Name:        "dumpconfig",
			Usage:       "Show configuration values",
			ArgsUsage:   "[file]",
			Flags:       configFlags,
			Action:      dumpConfigAction,
			Description: "The dumpconfig command shows the effective configuration as TOML.",
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", errorPrefix, err)
		atexit.Exit(1)
	}
	atexit.Exit(0)
}

// setupLogging installs the default logger. Pipeline progress is only shown
// with --verbose; warnings reach the user as diagnostics.
func setupLogging(ctx *cli.Context) {
	level := slog.LevelError
	if ctx.Bool(verboseFlag.Name) {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

// loadConfig resolves the config file and applies CLI overrides on top.
func loadConfig(ctx *cli.Context, startDir string) (config.Config, string, error) {
	var (
		cfg  *config.Config
		path string
		err  error
	)
	if !ctx.Bool(noConfigFlag.Name) {
		if file := ctx.String(configFileFlag.Name); file != "" {
			cfg, err = config.LoadFile(file)
			if err != nil {
				return config.Config{}, "", fmt.Errorf("loading config file %s: %w", file, err)
			}
			path = file
		} else {
			cfg, path, err = config.Load(startDir)
			if err != nil {
				return config.Config{}, "", fmt.Errorf("loading config: %w", err)
			}
		}
	}

	// Only flags given on the command line override the file
	overrides := config.MergeOptions{NoOptimize: ctx.Bool(noOptimizeFlag.Name)}
	if ctx.IsSet(maxPassesFlag.Name) {
		v := ctx.Int(maxPassesFlag.Name)
		overrides.MaxPasses = &v
	}
	if ctx.IsSet(emitFlag.Name) {
		v := ctx.String(emitFlag.Name)
		overrides.Emit = &v
	}
	if ctx.IsSet(tapeSizeFlag.Name) {
		v := ctx.Int(tapeSizeFlag.Name)
		overrides.TapeSize = &v
	}
	if ctx.IsSet(compactFlag.Name) {
		v := true
		overrides.Compact = &v
	}
	if ctx.IsSet(sourceMapFlag.Name) {
		v := true
		overrides.SourceMap = &v
	}
	return cfg.Merge(overrides), path, nil
}

// defaultOutput names the output file for a format.
func defaultOutput(emit compiler.Emit) string {
	switch emit {
	case compiler.EmitSource:
		return "out.bf"
	case compiler.EmitTree:
		return "out.tree"
	}
	return "out.c"
}

func readInput(ctx *cli.Context) ([]byte, string, error) {
	if ctx.NArg() > 0 {
		name := ctx.Args().First()
		source, err := os.ReadFile(name)
		if err != nil {
			return nil, "", fmt.Errorf("reading input: %w", err)
		}
		return source, name, nil
	}

	// Check if stdin is a pipe
	stat, _ := os.Stdin.Stat()
	if (stat.Mode() & os.ModeCharDevice) != 0 {
		cli.ShowAppHelp(ctx)
		return nil, "", fmt.Errorf("no input file specified")
	}
	source, err := io.ReadAll(os.Stdin)
	if err != nil {
		return nil, "", fmt.Errorf("reading stdin: %w", err)
	}
	return source, "<stdin>", nil
}

func compileAction(ctx *cli.Context) error {
	setupLogging(ctx)

	source, inputName, err := readInput(ctx)
	if err != nil {
		return err
	}

	startDir, _ := os.Getwd()
	if ctx.NArg() > 0 {
		startDir = filepath.Dir(inputName)
	}
	cfg, configPath, err := loadConfig(ctx, startDir)
	if err != nil {
		return err
	}
	if configPath != "" {
		slog.Debug("Using config", "path", configPath)
	}

	opts, err := cfg.ToOptions()
	if err != nil {
		return err
	}

	outputFile := ctx.String(outputFlag.Name)
	if outputFile == "" {
		outputFile = defaultOutput(opts.Emit)
	}
	toStdout := outputFile == "-"
	if opts.GenerateSourceMap {
		if toStdout {
			return fmt.Errorf("--source-map needs an output file")
		}
		opts.SourceMapOptions = compiler.SourceMapOptions{
			File:       filepath.Base(outputFile),
			SourceName: inputName,
		}
	}

	result := compiler.New(opts).Compile(string(source))
	if result.Diagnostics.HasErrors() {
		for _, d := range result.Diagnostics.Errors() {
			fmt.Fprintf(os.Stderr, "%s:%s", inputName, result.Diagnostics.FormatDiagnostic(&d))
		}
		return fmt.Errorf("compilation failed with %d error(s)", len(result.Diagnostics.Errors()))
	}
	for _, w := range result.Diagnostics.Warnings() {
		fmt.Fprintf(os.Stderr, "%s %s\n", warningPrefix, w.Message)
	}

	code := result.Code
	if result.SourceMap != nil {
		code += result.SourceMap.ToComment(false) + "\n"
	}

	if toStdout {
		if _, err := io.WriteString(os.Stdout, code); err != nil {
			return fmt.Errorf("writing output: %w", err)
		}
	} else {
		if err := writeOutput(outputFile, code); err != nil {
			return err
		}
		if result.SourceMap != nil {
			if err := writeOutput(outputFile+".map", result.SourceMap.ToJSON()); err != nil {
				return err
			}
		}
		fmt.Fprintf(os.Stderr, "%s finished writing to %s\n", infoPrefix, outputFile)
		if opts.Emit == compiler.EmitC {
			fmt.Fprintf(os.Stderr, "%s run gcc %s -o out && ./out\n", infoPrefix, outputFile)
		}
	}

	if ctx.Bool(statsFlag.Name) {
		printStats(os.Stderr, result.Stats, len(code))
	}
	return nil
}

// writeOutput writes data to path. If the process exits before the write
// completes, the partial file is removed.
func writeOutput(path, data string) error {
	done := false
	atexit.Register(func() {
		if !done {
			os.Remove(path)
		}
	})

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	if _, err := io.WriteString(f, data); err != nil {
		f.Close()
		return fmt.Errorf("writing output: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	done = true
	return nil
}

func printStats(w io.Writer, stats compiler.Stats, outputSize int) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Metric", "Value"})
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.AppendBulk([][]string{
		{"Input size", fmt.Sprintf("%d bytes", stats.OriginalSize)},
		{"Output size", fmt.Sprintf("%d bytes", outputSize)},
		{"Nodes parsed", fmt.Sprint(stats.NodesParsed)},
		{"Nodes optimized", fmt.Sprint(stats.NodesOptimized)},
		{"Optimizer passes", fmt.Sprint(stats.Passes)},
		{"Converged", fmt.Sprint(stats.Converged)},
		{"Max loop depth", fmt.Sprint(stats.MaxDepth)},
	})
	table.Render()
}

func dumpConfigAction(ctx *cli.Context) error {
	startDir, _ := os.Getwd()
	cfg, configPath, err := loadConfig(ctx, startDir)
	if err != nil {
		return err
	}

	out, err := cfg.Encode()
	if err != nil {
		return err
	}

	dump := os.Stdout
	if ctx.NArg() > 0 {
		dump, err = os.OpenFile(ctx.Args().Get(0), os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
		if err != nil {
			return err
		}
		defer dump.Close()
	}
	if configPath != "" {
		fmt.Fprintf(dump, "# Loaded from %s\n\n", strings.ReplaceAll(configPath, "\n", " "))
	}
	_, err = dump.Write(out)
	return err
}
