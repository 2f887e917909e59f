package passes

import (
	luaast "github.com/luanext/luanext/pkg/ast"
	"github.com/luanext/luanext/pkg/config"
	"github.com/luanext/luanext/pkg/optimizer"
)

// TablePreallocation is a registered no-op: a table constructor's size is
// just len(Elements)/len(Properties) on the literal node itself, already
// present on ArrayLiteralExpr/ObjectLiteralExpr, so there is nothing for
// this pass to write back into the AST and it never reports a rewrite. It
// exists so the pass table and the fixed-point trail account for every
// named pass. The codegen emits table constructors as written and does no
// preallocation.
type TablePreallocation struct{}

func (TablePreallocation) Name() string                        { return "table-preallocation" }
func (TablePreallocation) MinLevel() config.OptimizationLevel { return config.OptMinimal }

func (TablePreallocation) Run(m *optimizer.Module, statements []luaast.StmtId) ([]luaast.StmtId, int) {
	return statements, 0
}
