package main

import (
	luaast "github.com/luanext/luanext/pkg/ast"
	"github.com/luanext/luanext/pkg/driver"
	luaerrors "github.com/luanext/luanext/pkg/errors"
)

// parseUnimplemented and typeCheckUnimplemented satisfy driver.ParseFunc and
// driver.TypeCheckFunc with a single diagnostic each: lexing/parsing and
// type inference are external collaborators this repository consumes as
// black boxes, not subsystems it implements. Wiring a real front end means
// replacing these two functions with ones backed by an actual
// lexer/parser/checker; pkg/driver's pipeline does not change.
func parseUnimplemented(path string, source []byte) (*driver.ParsedSource, *luaerrors.Diagnostic) {
	return nil, luaerrors.At(luaerrors.ParseError, path, luaast.Span{},
		"no lexer/parser is wired into this build").
		WithHint("pass a real driver.ParseFunc to driver.New")
}

func typeCheckUnimplemented(mod *luaast.Module, registry *luaast.ModuleRegistry) (*driver.TypeCheckResult, []*luaerrors.Diagnostic) {
	return nil, []*luaerrors.Diagnostic{
		luaerrors.At(luaerrors.TypeError, mod.Path, luaast.Span{},
			"no type checker is wired into this build").
			WithHint("pass a real driver.TypeCheckFunc to driver.New"),
	}
}
