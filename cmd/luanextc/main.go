// Package main implements the luanextc command-line interface.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/luanext/luanext/pkg/config"
	"github.com/luanext/luanext/pkg/driver"
	"github.com/luanext/luanext/pkg/ui"
)

var version = "0.1.0-alpha"

func main() {
	rootCmd := &cobra.Command{
		Use:          "luanextc",
		Short:        "LuaNext compiler",
		Version:      version,
		SilenceUsage: true,
		Run: func(cmd *cobra.Command, args []string) {
			ui.PrintHelp(version)
		},
	}

	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		ui.PrintHelp(version)
	})
	rootCmd.SetHelpCommand(&cobra.Command{
		Use:   "help [command]",
		Short: "Help about any command",
		Run: func(cmd *cobra.Command, args []string) {
			ui.PrintHelp(version)
		},
	})

	rootCmd.AddCommand(compileCmd())
	rootCmd.AddCommand(checkCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// flagSet is bound once by addEmitFlags and read by both compile and check,
// since check is "compile with NoEmit forced on" rather than a distinct
// pipeline.
type flagSet struct {
	outDir    string
	noEmit    bool
	noCache   bool
	target    string
	sourceMap bool
	pretty    bool
	optimize  string
	emit      string
	o         [4]bool // -O0..-O3 shorthand, indexed by level
}

func addEmitFlags(cmd *cobra.Command, f *flagSet) {
	cmd.Flags().StringVar(&f.outDir, "out-dir", "", "output directory for emitted Lua (default: dist)")
	cmd.Flags().BoolVar(&f.noEmit, "no-emit", false, "run the pipeline without writing output files")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "bypass the incremental compilation cache")
	cmd.Flags().StringVar(&f.target, "target", "", "target dialect: 5.1, 5.2, 5.3, 5.4, 5.5, or luajit")
	cmd.Flags().BoolVar(&f.sourceMap, "source-map", false, "emit a sibling source map file")
	cmd.Flags().BoolVar(&f.pretty, "pretty", false, "print diagnostics with a source excerpt and caret")
	cmd.Flags().StringVar(&f.optimize, "optimize", "", "optimizer level: none, minimal, moderate, aggressive, or 0-3")
	cmd.Flags().StringVar(&f.emit, "emit", "lua", "emitted artifact kind")
	for level := 0; level <= 3; level++ {
		cmd.Flags().BoolVar(&f.o[level], fmt.Sprintf("O%d", level), false, fmt.Sprintf("shorthand for --optimize=%d", level))
	}
}

func compileCmd() *cobra.Command {
	f := &flagSet{}
	cmd := &cobra.Command{
		Use:   "compile <entry...>",
		Short: "Compile LuaX sources to the configured target dialect",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args, f, false)
		},
	}
	addEmitFlags(cmd, f)
	return cmd
}

func checkCmd() *cobra.Command {
	f := &flagSet{}
	cmd := &cobra.Command{
		Use:   "check <entry...>",
		Short: "Type-check sources without emitting output",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args, f, true)
		},
	}
	addEmitFlags(cmd, f)
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of luanextc",
		Run: func(cmd *cobra.Command, args []string) {
			ui.PrintVersionInfo(version)
		},
	}
}

func optimizeOverride(f *flagSet) string {
	for level := 3; level >= 0; level-- {
		if f.o[level] {
			return fmt.Sprintf("%d", level)
		}
	}
	return f.optimize
}

func run(cmd *cobra.Command, args []string, f *flagSet, checkOnly bool) error {
	overrides := &config.Config{
		Target: config.Dialect(f.target),
		Emit: config.EmitConfig{
			OutDir:    f.outDir,
			NoEmit:    f.noEmit || checkOnly,
			SourceMap: f.sourceMap,
			Pretty:    f.pretty,
		},
		Cache: config.CacheConfig{Disabled: f.noCache},
	}

	optimizeFlag := optimizeOverride(f)
	if optimizeFlag != "" {
		level, err := config.ParseOptimizationLevel(optimizeFlag)
		if err != nil {
			return err
		}
		overrides.Optimizer.Level = level
		overrides.Optimizer.LevelName = level.String()
	}

	cfg, err := config.Load(overrides)
	if err != nil {
		return err
	}

	root, err := os.Getwd()
	if err != nil {
		return err
	}

	p := driver.New(root, cfg, parseUnimplemented, typeCheckUnimplemented)
	output := ui.NewCompileOutput()
	p.SetOutput(output)

	output.PrintHeader(version)
	output.PrintCompileStart(len(args))

	result, err := p.Compile(args)
	if err != nil {
		output.PrintSummary(false, err.Error())
		return err
	}

	handler := p.Handler()
	for _, d := range handler.Diagnostics() {
		if cfg.Emit.Pretty {
			output.PrintError(d.Format())
		} else {
			output.PrintError(d.Error())
		}
	}

	for _, outcome := range result.Outcomes {
		if outcome.Skipped {
			continue
		}
		output.PrintModuleStart(outcome.Path, outcome.OutputPath)
	}

	if handler.HasErrors() {
		output.PrintSummary(false, fmt.Sprintf("%d diagnostic(s) reported", handler.Count()))
		return fmt.Errorf("compilation failed with %d diagnostic(s)", handler.Count())
	}

	output.PrintSummary(true, "")
	return nil
}
