package driver

import luaast "github.com/luanext/luanext/pkg/ast"

// importSpecifiersOf returns every module specifier a program's top-level
// import and re-export statements name, as raw text resolved through the
// module's own interner. Used during workspace discovery to find modules
// to parse next; resolver.BuildGraph re-derives the same edges afterward
// once every reachable module has been parsed, so this pass only needs
// to be approximately complete, not build the final graph itself.
func importSpecifiersOf(arena *luaast.Arena, in *luaast.StringInterner, prog *luaast.Program) []string {
	var out []string
	for _, sid := range prog.Statements {
		switch st := arena.Stmt(sid).(type) {
		case *luaast.ImportStmt:
			out = append(out, in.Resolve(st.Module))
		case *luaast.ExportStmt:
			if st.FromModule != luaast.InvalidStringId {
				out = append(out, in.Resolve(st.FromModule))
			}
		}
	}
	return out
}
