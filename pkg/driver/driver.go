// Package driver orchestrates a full compilation run: resolving a
// workspace's module graph, parsing and type-checking every reachable
// module, running the whole-program and per-module optimizer passes, and
// emitting Lua text (plus an optional source map) for every module the
// module-graph passes keep. Lexing/parsing and type-checking are supplied
// by the caller as function values — this package treats them as opaque
// stages in the pipeline, not a concern of its own.
package driver

import (
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/luanext/luanext/pkg/analysis"
	luaast "github.com/luanext/luanext/pkg/ast"
	"github.com/luanext/luanext/pkg/cache"
	"github.com/luanext/luanext/pkg/config"
	luaerrors "github.com/luanext/luanext/pkg/errors"
	"github.com/luanext/luanext/pkg/resolver"
	"github.com/luanext/luanext/pkg/ui"
)

// ParsedSource is one module's output from the Parse stage.
type ParsedSource struct {
	Arena    *luaast.Arena
	Interner *luaast.StringInterner
	Program  *luaast.Program
}

// ParseFunc lexes and parses one module's raw source text. Lexing and
// parsing are out of this package's scope; the caller supplies the real
// implementation.
type ParseFunc func(path string, source []byte) (*ParsedSource, *luaerrors.Diagnostic)

// TypeCheckResult is what type-checking contributes for one module: its
// export surface, the declaration-signature hashes used for cache
// invalidation, the declaration-dependency edges used to propagate
// invalidation transitively, and (best-effort) usage info the
// module-graph passes use to drop dead imports/exports.
type TypeCheckResult struct {
	Exports *luaast.ModuleExports
	// DeclHashes maps a top-level declaration's name to the stable hash
	// of its canonicalized typed signature.
	DeclHashes map[string]uint64
	// DeclDeps maps a declaration name to the (module, declaration) pairs
	// elsewhere in the program that call it.
	DeclDeps map[string][]cache.DeclDependent
	// UnreferencedImportSpecifiers lists the raw module specifiers (e.g.
	// "./util") of import clauses whose bindings this module never
	// actually reads, input to dead-import elimination.
	UnreferencedImportSpecifiers []string
	// UnusedExportNames lists exported declarations nothing else in the
	// compilation imports, input to dead-export elimination.
	UnusedExportNames []string
	// DescribeType renders a TypeId to its stable textual form for cache
	// persistence (see cache.FromModuleExports); nil skips persisting the
	// export surface; (the module's declaration hashes are still cached,
	// so invalidation is still precise, but an unchanged-source re-run
	// re-type-checks rather than reusing a cached export surface).
	DescribeType func(luaast.TypeId) string
}

// TypeCheckFunc type-checks one parsed module. Registry is populated with
// every other module's export surface already type-checked in dependency
// order, so cross-module type references resolve without reparsing.
type TypeCheckFunc func(mod *luaast.Module, registry *luaast.ModuleRegistry) (*TypeCheckResult, []*luaerrors.Diagnostic)

// Pipeline wires every compilation stage together for one workspace.
type Pipeline struct {
	root      string
	cfg       *config.Config
	cacheMgr  *cache.Manager
	resolver  *resolver.Resolver
	parse     ParseFunc
	typeCheck TypeCheckFunc
	handler   *luaerrors.Handler
	output    *ui.CompileOutput

	// wholeProgram is the cross-module class-hierarchy and side-effect
	// summary, built sequentially across every module in Compile before
	// compileModules fans the per-module optimizer/codegen work out
	// across goroutines, then shared read-only by every worker.
	wholeProgram *analysis.WholeProgramAnalysis
}

// New creates a Pipeline rooted at workspaceRoot. If cfg.Cache.Disabled is
// false, it loads (or initializes) the on-disk cache at cfg.Cache.Dir
// under the workspace root; a cache that can't be opened degrades the
// whole pipeline to running uncached rather than failing outright, since
// a stale or corrupt cache directory should never block a compile.
func New(workspaceRoot string, cfg *config.Config, parse ParseFunc, typeCheck TypeCheckFunc) *Pipeline {
	p := &Pipeline{
		root:      workspaceRoot,
		cfg:       cfg,
		resolver:  resolver.New(workspaceRoot, cfg),
		parse:     parse,
		typeCheck: typeCheck,
		handler:   luaerrors.NewHandler(),
	}

	if !cfg.Cache.Disabled {
		mgr, err := cache.Load(filepath.Join(workspaceRoot, cfg.Cache.Dir), cfg.Hash())
		if err == nil {
			p.cacheMgr = mgr
		}
	}
	return p
}

// SetOutput attaches a ui.CompileOutput that per-stage progress is
// reported through. Compiling without one runs silently.
func (p *Pipeline) SetOutput(o *ui.CompileOutput) {
	p.output = o
}

// Handler returns the diagnostic sink every stage reports into.
func (p *Pipeline) Handler() *luaerrors.Handler {
	return p.handler
}

// ModuleOutcome records what happened to one module during Compile.
type ModuleOutcome struct {
	Path       string
	Skipped    bool // true if unused-module-elimination dropped it
	CacheHit   bool // true if declaration signatures were unchanged
	OutputPath string
	Code       string
}

// Result is the outcome of compiling an entire workspace.
type Result struct {
	Outcomes    []ModuleOutcome
	Elimination ModuleEliminationSummary
}

// Compile resolves every module reachable from entryPaths, type-checks
// and optimizes each, and (unless cfg.Emit.NoEmit) writes the generated
// Lua text to cfg.Emit.OutDir. It returns a non-nil error only for
// workspace-structural failures (a circular value dependency); an
// unresolvable import is reported through the Handler as an IOError and
// its edge is left out of the module graph. Per-module parse/type errors
// are reported through the Handler and leave that module's ModuleOutcome
// absent from Result, with Compile continuing to the rest of the
// workspace.
func (p *Pipeline) Compile(entryPaths []string) (*Result, error) {
	modules, graph, order, err := p.discoverAndCheck(entryPaths)
	if err != nil {
		return nil, err
	}

	p.wholeProgram = p.buildWholeProgramAnalysis(modules, order)

	entries := make([]string, 0, len(entryPaths))
	for _, e := range entryPaths {
		if !filepath.IsAbs(e) {
			e = filepath.Join(p.root, e)
		}
		entries = append(entries, e)
	}
	var elimination ModuleEliminationSummary
	if p.cfg.Optimizer.Level >= config.OptModerate {
		elimination = p.runModuleGraphPasses(modules, entries)
	}
	skip := make(map[string]bool, len(elimination.SkippedModules))
	for _, path := range elimination.SkippedModules {
		skip[path] = true
	}

	compileOrder := make([]string, 0, len(order))
	var outcomes []ModuleOutcome
	for _, path := range order {
		if !skip[path] {
			compileOrder = append(compileOrder, path)
			continue
		}
		if p.output != nil {
			p.output.PrintStep(ui.Step{Name: "Optimize", Status: ui.StepSkipped, Message: path + " unreachable from any entry point"})
		}
		outcomes = append(outcomes, ModuleOutcome{Path: path, Skipped: true})
	}

	outcomes = append(outcomes, p.compileModules(modules, graph, compileOrder)...)

	if p.cacheMgr != nil {
		_ = p.cacheMgr.Save()
	}

	return &Result{Outcomes: outcomes, Elimination: elimination}, nil
}

// buildWholeProgramAnalysis folds every discovered module's class
// declarations and side-effect summary into one cross-module view,
// walking order so the result is deterministic across runs. It runs
// once, sequentially, before compileModules fans the per-module
// optimizer/codegen work out across goroutines, so every worker can
// share the same *analysis.WholeProgramAnalysis without synchronization.
func (p *Pipeline) buildWholeProgramAnalysis(modules map[string]*moduleRecord, order []string) *analysis.WholeProgramAnalysis {
	wp := analysis.NewWholeProgramAnalysis()
	for _, path := range order {
		rec, ok := modules[path]
		if !ok {
			continue
		}
		wp.AddModule(path, rec.parsed.Arena, rec.parsed.Interner, rec.parsed.Program.Statements)
	}
	wp.Finalize()
	return wp
}

// moduleRecord bundles one discovered module's parse output with the
// bookkeeping the rest of the pipeline needs.
type moduleRecord struct {
	path       string
	source     []byte
	sourceHash string
	parsed     *ParsedSource
	check      *TypeCheckResult
}

// discoverAndCheck walks the import graph from entryPaths, parsing and
// type-checking every reachable module in dependency order (so a
// module's imports are always already in the ModuleRegistry by the time
// it is type-checked), and returns the module graph's topological order.
func (p *Pipeline) discoverAndCheck(entryPaths []string) (map[string]*moduleRecord, *resolver.Graph, []string, error) {
	modules := make(map[string]*moduleRecord)
	queue := make([]string, 0, len(entryPaths))
	for _, e := range entryPaths {
		abs := e
		if !filepath.IsAbs(abs) {
			abs = filepath.Join(p.root, abs)
		}
		queue = append(queue, abs)
	}

	for len(queue) > 0 {
		path := queue[0]
		queue = queue[1:]
		if _, ok := modules[path]; ok {
			continue
		}

		rec, diag := p.parseModule(path)
		if diag != nil {
			p.handler.Report(diag)
			continue
		}
		modules[path] = rec

		for _, spec := range importSpecifiersOf(rec.parsed.Arena, rec.parsed.Interner, rec.parsed.Program) {
			resolved, ok, err := p.resolver.Resolve(path, spec)
			if err != nil {
				p.handler.Report(luaerrors.Wrap(luaerrors.IOError, path, err))
				continue
			}
			if !ok {
				continue // external package, nothing to discover
			}
			if _, seen := modules[resolved]; !seen {
				queue = append(queue, resolved)
			}
		}
	}

	parsedModules := make([]resolver.ParsedModule, 0, len(modules))
	for path, rec := range modules {
		parsedModules = append(parsedModules, resolver.ParsedModule{
			Path:     path,
			Interner: rec.parsed.Interner,
			Arena:    rec.parsed.Arena,
			Program:  rec.parsed.Program,
		})
	}

	// Resolution failures were already reported as IOErrors above; their
	// edges are left out of the graph rather than failing the build.
	resolveReported := func(fromPath, specifier string) (string, bool, error) {
		target, ok, err := p.resolver.Resolve(fromPath, specifier)
		if err != nil {
			return "", false, nil
		}
		return target, ok, nil
	}
	graph, err := resolver.BuildGraph(parsedModules, resolveReported)
	if err != nil {
		return nil, nil, nil, err
	}
	cycles := resolver.DetectCycles(graph)
	if err := resolver.ValueCycles(cycles); err != nil {
		return nil, nil, nil, err
	}
	order := resolver.TopologicalOrder(graph)

	registry := luaast.NewModuleRegistry()
	for _, path := range order {
		rec, ok := modules[path]
		if !ok {
			continue
		}
		p.typeCheckModule(rec, registry)
	}

	return modules, graph, order, nil
}

func (p *Pipeline) parseModule(path string) (*moduleRecord, *luaerrors.Diagnostic) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, luaerrors.Wrap(luaerrors.IOError, path, err)
	}

	start := time.Now()
	parsed, diag := p.parse(path, source)
	if diag != nil {
		return nil, diag
	}
	if p.output != nil {
		p.output.PrintStep(ui.Step{Name: "Parse", Status: ui.StepSuccess, Duration: time.Since(start)})
	}

	return &moduleRecord{path: path, source: source, sourceHash: cache.HashBytes(source), parsed: parsed}, nil
}

func (p *Pipeline) typeCheckModule(rec *moduleRecord, registry *luaast.ModuleRegistry) {
	if p.cacheMgr != nil {
		if hashes, ok := p.cacheMgr.SourceUnchanged(rec.path, rec.sourceHash); ok {
			// Source text identical to the last successful compile: the
			// previously recorded declaration hashes are still accurate, so
			// reuse them to ask for a cache hit instead of re-type-checking.
			// A hit's CachedModule carries the export surface needed to
			// populate the registry without reparsing anything.
			lookup, err := p.cacheMgr.Lookup(rec.path, rec.sourceHash, hashes)
			if err == nil && lookup.Verdict == cache.VerdictHit && lookup.Module != nil && lookup.Module.SerializableExports != nil {
				exports := lookup.Module.SerializableExports.ToModuleExports(rec.parsed.Interner)
				rec.check = &TypeCheckResult{Exports: exports, DeclHashes: hashes}
				registry.Set(rec.path, exports)
				if p.output != nil {
					p.output.PrintStep(ui.Step{Name: "Type-check", Status: ui.StepSkipped, Message: "declarations unchanged"})
				}
				return
			}
		}
	}

	start := time.Now()
	mod := &luaast.Module{
		Path:     rec.path,
		Interner: rec.parsed.Interner,
		Arena:    rec.parsed.Arena,
		Common:   luaast.NewCommonIdentifiers(rec.parsed.Interner),
		Program:  rec.parsed.Program,
	}
	result, diags := p.typeCheck(mod, registry)
	for _, d := range diags {
		p.handler.Report(d)
	}
	if result == nil {
		return
	}
	rec.check = result
	if result.Exports != nil {
		registry.Set(rec.path, result.Exports)
	}
	if p.output != nil {
		status := ui.StepSuccess
		if p.handler.HasErrors(luaerrors.TypeError) {
			status = ui.StepError
		}
		p.output.PrintStep(ui.Step{Name: "Type-check", Status: status, Duration: time.Since(start)})
	}
}

// compileModules runs Analysis -> Optimizer -> Codegen -> Cache write for
// every module in compileOrder, respecting dependency order but fanning
// concurrent work out within each dependency level.
func (p *Pipeline) compileModules(modules map[string]*moduleRecord, graph *resolver.Graph, compileOrder []string) []ModuleOutcome {
	levels := levelsOf(graph, compileOrder)
	outcomes := make([]ModuleOutcome, 0, len(compileOrder))
	var mu sync.Mutex

	jobs := runtime.GOMAXPROCS(0)
	if jobs < 1 {
		jobs = 1
	}

	for _, level := range levels {
		var wg sync.WaitGroup
		sem := make(chan struct{}, jobs)

		for _, path := range level {
			rec, ok := modules[path]
			if !ok || rec.check == nil {
				continue
			}
			wg.Add(1)
			sem <- struct{}{}
			go func(rec *moduleRecord) {
				defer wg.Done()
				defer func() { <-sem }()

				outcome := p.compileOne(rec)
				mu.Lock()
				outcomes = append(outcomes, outcome)
				mu.Unlock()
			}(rec)
		}
		wg.Wait()
	}

	return outcomes
}
