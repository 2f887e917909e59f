package driver

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	luaast "github.com/luanext/luanext/pkg/ast"
	"github.com/luanext/luanext/pkg/cache"
	"github.com/luanext/luanext/pkg/codegen"
	"github.com/luanext/luanext/pkg/codegen/strategies"
	luaerrors "github.com/luanext/luanext/pkg/errors"
	"github.com/luanext/luanext/pkg/optimizer"
	"github.com/luanext/luanext/pkg/optimizer/passes"
	"github.com/luanext/luanext/pkg/resolver"
	"github.com/luanext/luanext/pkg/ui"
)

// compileOne runs Analysis -> Optimizer -> Codegen for one already
// type-checked module, writing the generated Lua (and cache entry) to
// disk unless the pipeline is configured with NoEmit/cache disabled.
func (p *Pipeline) compileOne(rec *moduleRecord) ModuleOutcome {
	outcome := ModuleOutcome{Path: rec.path}

	dependencies := p.dependencyPathsOf(rec)

	if p.cacheMgr != nil {
		lookup, err := p.cacheMgr.Lookup(rec.path, rec.sourceHash, rec.check.DeclHashes)
		if err == nil && lookup.Verdict == cache.VerdictHit {
			outcome.CacheHit = true
			outcome.OutputPath = outputPathFor(p.cfg.Emit.OutDir, p.root, rec.path)
			if p.output != nil {
				p.output.PrintStep(ui.Step{Name: "Codegen", Status: ui.StepSkipped, Message: "declarations unchanged"})
			}
			return outcome
		}
	}

	start := time.Now()

	module := &optimizer.Module{Arena: rec.parsed.Arena, Interner: rec.parsed.Interner, WholeProgram: p.wholeProgram}

	statements, _ := optimizer.Run(module, rec.parsed.Program.Statements, passes.All(), &p.cfg.Optimizer)

	if p.output != nil {
		p.output.PrintStep(ui.Step{Name: "Optimize", Status: ui.StepSuccess, Duration: time.Since(start)})
	}

	strategy, err := strategies.For(p.cfg.Target)
	if err != nil {
		p.handler.Report(luaerrors.Wrap(luaerrors.InternalError, rec.path, err))
		return outcome
	}

	outputPath := outputPathFor(p.cfg.Emit.OutDir, p.root, rec.path)
	codegenStart := time.Now()
	gen := codegen.New(rec.parsed.Arena, rec.parsed.Interner, strategy, p.cfg, outputPath, rec.path)
	gen.SetHandler(p.handler)
	code, sourceMap, err := gen.Generate(statements)
	if err != nil {
		p.handler.Report(luaerrors.Wrap(luaerrors.InternalError, rec.path, err))
		return outcome
	}
	if p.output != nil {
		p.output.PrintStep(ui.Step{Name: "Codegen", Status: ui.StepSuccess, Duration: time.Since(codegenStart)})
	}

	outcome.OutputPath = outputPath
	outcome.Code = code

	if !p.cfg.Emit.NoEmit {
		if err := writeOutput(outputPath, code, sourceMap); err != nil {
			p.handler.Report(luaerrors.Wrap(luaerrors.IOError, rec.path, err))
			return outcome
		}
	}

	if p.cacheMgr != nil {
		cached := &cache.CachedModule{Path: rec.path, SourceHash: rec.sourceHash}
		if rec.check.Exports != nil {
			cached.ExportNames, cached.HasDefaultExport = exportNamesOf(rec.parsed.Interner, rec.check.Exports)
			if rec.check.DescribeType != nil {
				cached.SerializableExports = cache.FromModuleExports(rec.parsed.Interner, rec.check.Exports, rec.check.DescribeType)
			}
		}
		if err := p.cacheMgr.Write(rec.path, cached, dependencies, rec.check.DeclHashes, rec.check.DeclDeps, time.Now().Unix()); err != nil {
			p.handler.Report(luaerrors.Wrap(luaerrors.IOError, rec.path, err))
		}
	}

	return outcome
}

func (p *Pipeline) dependencyPathsOf(rec *moduleRecord) []string {
	specs := importSpecifiersOf(rec.parsed.Arena, rec.parsed.Interner, rec.parsed.Program)
	seen := make(map[string]bool, len(specs))
	var out []string
	for _, spec := range specs {
		target, ok, err := p.resolver.Resolve(rec.path, spec)
		if err != nil || !ok || seen[target] {
			continue
		}
		seen[target] = true
		out = append(out, target)
	}
	return out
}

func exportNamesOf(in *luaast.StringInterner, exports *luaast.ModuleExports) ([]string, bool) {
	names := make([]string, 0, len(exports.Named))
	for _, d := range exports.Named {
		names = append(names, in.Resolve(d.Name))
	}
	return names, exports.HasDefault
}

// outputPathFor mirrors a module's path from the workspace root into the
// configured output directory, swapping the source extension for ".lua".
func outputPathFor(outDir, root, sourcePath string) string {
	rel, err := filepath.Rel(root, sourcePath)
	if err != nil {
		rel = filepath.Base(sourcePath)
	}
	rel = strings.TrimSuffix(rel, resolver.SourceExtension) + ".lua"
	return filepath.Join(root, outDir, rel)
}

func writeOutput(outputPath, code string, sourceMap []byte) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(outputPath, []byte(code), 0o644); err != nil {
		return err
	}
	if sourceMap != nil {
		if err := os.WriteFile(outputPath+".map", sourceMap, 0o644); err != nil {
			return err
		}
	}
	return nil
}
