// Package analysis builds the dependency-ordered analyses shared across
// optimizer passes: control-flow graphs, dominator trees, SSA form, alias
// info, side-effect summaries, and the whole-program module graph. The
// dependency chain is CFG -> Dominance -> SSA, with Alias and Side-Effect
// analysis computed independently; every analysis here is keyed by the
// same ast.StmtId/ast.ExprId/ast.StringId integers the arena uses, so it
// stays decoupled from any particular arena generation.
package analysis

import (
	luaast "github.com/luanext/luanext/pkg/ast"
)

// BlockId indexes a basic block within a ControlFlowGraph.
type BlockId int32

const InvalidBlockId BlockId = -1

// TerminatorKind classifies how a basic block ends: fall-through,
// unconditional jump, conditional jump with two successors, return, throw.
type TerminatorKind int

const (
	TermFallThrough TerminatorKind = iota
	TermJump
	TermCondJump
	TermReturn
	TermThrow
)

// Terminator describes how control leaves a basic block.
type Terminator struct {
	Kind     TerminatorKind
	Cond     luaast.ExprId // valid only for TermCondJump
	Target   BlockId       // valid for TermJump, and the "true" edge of TermCondJump
	ElseTarget BlockId     // valid for TermCondJump: the "false" edge
}

// BasicBlock holds a contiguous run of statement indices from the owning
// function's statement list, plus how control leaves it.
type BasicBlock struct {
	Id         BlockId
	Statements []luaast.StmtId
	Terminator Terminator
	Preds      []BlockId
}

// ControlFlowGraph is the per-function (or top-level) CFG.
type ControlFlowGraph struct {
	Blocks []*BasicBlock
	Entry  BlockId
}

func (g *ControlFlowGraph) Block(id BlockId) *BasicBlock {
	if id < 0 || int(id) >= len(g.Blocks) {
		return nil
	}
	return g.Blocks[id]
}

func (g *ControlFlowGraph) Successors(id BlockId) []BlockId {
	b := g.Block(id)
	if b == nil {
		return nil
	}
	switch b.Terminator.Kind {
	case TermJump:
		return []BlockId{b.Terminator.Target}
	case TermCondJump:
		return []BlockId{b.Terminator.Target, b.Terminator.ElseTarget}
	case TermFallThrough:
		if int(id)+1 < len(g.Blocks) {
			return []BlockId{id + 1}
		}
		return nil
	default: // TermReturn, TermThrow
		return nil
	}
}

// loopFrame records the jump targets break/continue resolve to inside the
// loop currently being scanned: header is where continue re-enters (the
// condition re-check), exit is where break lands (the first block after
// the loop).
type loopFrame struct {
	header BlockId
	exit   BlockId
}

// CfgBuilder builds a ControlFlowGraph directly from a statement list by
// scanning for control transfers and splitting basic blocks at them.
type CfgBuilder struct {
	arena  *luaast.Arena
	blocks []*BasicBlock
	loops  []loopFrame
}

// Build constructs the CFG for a single function body (or the top-level
// statement list).
func Build(arena *luaast.Arena, statements []luaast.StmtId) *ControlFlowGraph {
	b := &CfgBuilder{arena: arena}
	if len(statements) == 0 {
		entry := b.newBlock()
		entry.Terminator = Terminator{Kind: TermReturn}
		return &ControlFlowGraph{Blocks: b.blocks, Entry: entry.Id}
	}

	entry := b.newBlock()
	b.scan(entry, statements)
	return &ControlFlowGraph{Blocks: b.blocks, Entry: entry.Id}
}

func (b *CfgBuilder) newBlock() *BasicBlock {
	blk := &BasicBlock{Id: BlockId(len(b.blocks)), Terminator: Terminator{Kind: TermFallThrough}}
	b.blocks = append(b.blocks, blk)
	return blk
}

// scan appends statements to cur, splitting into new blocks at control
// transfers (if/while/for/repeat/return/break/continue/throw).
func (b *CfgBuilder) scan(cur *BasicBlock, statements []luaast.StmtId) *BasicBlock {
	for _, sid := range statements {
		s := b.arena.Stmt(sid)
		switch n := s.(type) {
		case *luaast.IfStmt:
			cur.Statements = append(cur.Statements, sid)
			thenBlock := b.newBlock()
			elseBlock := b.newBlock()
			join := BlockId(-1)

			cur.Terminator = Terminator{Kind: TermCondJump, Cond: n.Cond, Target: thenBlock.Id, ElseTarget: elseBlock.Id}
			thenBlock.Preds = append(thenBlock.Preds, cur.Id)
			elseBlock.Preds = append(elseBlock.Preds, cur.Id)

			thenEnd := b.scan(thenBlock, []luaast.StmtId{n.ThenBlock})
			if thenEnd.Terminator.Kind == TermFallThrough {
				if join == -1 {
					joinBlock := b.newBlock()
					join = joinBlock.Id
				}
				thenEnd.Terminator = Terminator{Kind: TermJump, Target: join}
				b.blocks[join].Preds = append(b.blocks[join].Preds, thenEnd.Id)
			}

			elseEnd := b.scan(elseBlock, []luaast.StmtId{n.ElseBlock})
			if elseEnd.Terminator.Kind == TermFallThrough {
				if join == -1 {
					joinBlock := b.newBlock()
					join = joinBlock.Id
				}
				elseEnd.Terminator = Terminator{Kind: TermJump, Target: join}
				b.blocks[join].Preds = append(b.blocks[join].Preds, elseEnd.Id)
			}

			if join == -1 {
				// both branches terminate: no fall-through successor.
				unreachable := b.newBlock()
				return unreachable
			}
			return b.blocks[join]

		case *luaast.WhileStmt:
			cur.Statements = append(cur.Statements, sid)
			header := b.newBlock()
			cur.Terminator = Terminator{Kind: TermJump, Target: header.Id}
			header.Preds = append(header.Preds, cur.Id)

			body := b.newBlock()
			after := b.newBlock()
			header.Terminator = Terminator{Kind: TermCondJump, Cond: n.Cond, Target: body.Id, ElseTarget: after.Id}
			body.Preds = append(body.Preds, header.Id)
			after.Preds = append(after.Preds, header.Id)

			b.loops = append(b.loops, loopFrame{header: header.Id, exit: after.Id})
			bodyEnd := b.scan(body, []luaast.StmtId{n.Body})
			b.loops = b.loops[:len(b.loops)-1]
			if bodyEnd.Terminator.Kind == TermFallThrough {
				bodyEnd.Terminator = Terminator{Kind: TermJump, Target: header.Id}
				header.Preds = append(header.Preds, bodyEnd.Id)
			}
			cur = after

		case *luaast.RepeatStmt:
			cur.Statements = append(cur.Statements, sid)
			body := b.newBlock()
			test := b.newBlock()
			after := b.newBlock()
			cur.Terminator = Terminator{Kind: TermJump, Target: body.Id}
			body.Preds = append(body.Preds, cur.Id)

			// continue re-enters at the post-body condition check, not at
			// the top of the body, so repeat's loop header is the
			// dedicated test block rather than body itself.
			b.loops = append(b.loops, loopFrame{header: test.Id, exit: after.Id})
			bodyEnd := b.scan(body, []luaast.StmtId{n.Body})
			b.loops = b.loops[:len(b.loops)-1]
			if bodyEnd.Terminator.Kind == TermFallThrough {
				bodyEnd.Terminator = Terminator{Kind: TermJump, Target: test.Id}
				test.Preds = append(test.Preds, bodyEnd.Id)
			}

			test.Terminator = Terminator{Kind: TermCondJump, Cond: n.Cond, Target: after.Id, ElseTarget: body.Id}
			after.Preds = append(after.Preds, test.Id)
			body.Preds = append(body.Preds, test.Id)
			cur = after

		case *luaast.ForStmt:
			cur.Statements = append(cur.Statements, sid)
			body := b.newBlock()
			after := b.newBlock()
			cur.Terminator = Terminator{Kind: TermCondJump, Target: body.Id, ElseTarget: after.Id}
			body.Preds = append(body.Preds, cur.Id)
			after.Preds = append(after.Preds, cur.Id)

			b.loops = append(b.loops, loopFrame{header: cur.Id, exit: after.Id})
			bodyEnd := b.scan(body, []luaast.StmtId{n.Body})
			b.loops = b.loops[:len(b.loops)-1]
			if bodyEnd.Terminator.Kind == TermFallThrough {
				bodyEnd.Terminator = Terminator{Kind: TermJump, Target: cur.Id}
				cur.Preds = append(cur.Preds, bodyEnd.Id)
			}
			cur = after

		case *luaast.ReturnStmt:
			cur.Statements = append(cur.Statements, sid)
			cur.Terminator = Terminator{Kind: TermReturn}
			unreachable := b.newBlock()
			return unreachable

		case *luaast.ThrowStmt:
			cur.Statements = append(cur.Statements, sid)
			cur.Terminator = Terminator{Kind: TermThrow}
			unreachable := b.newBlock()
			return unreachable

		case *luaast.BreakStmt:
			cur.Statements = append(cur.Statements, sid)
			unreachable := b.newBlock()
			if len(b.loops) == 0 {
				// break outside any loop: not legal source, but don't
				// fabricate a jump target for it.
				cur.Terminator = Terminator{Kind: TermReturn}
				return unreachable
			}
			target := b.loops[len(b.loops)-1].exit
			cur.Terminator = Terminator{Kind: TermJump, Target: target}
			b.blocks[target].Preds = append(b.blocks[target].Preds, cur.Id)
			return unreachable

		case *luaast.ContinueStmt:
			cur.Statements = append(cur.Statements, sid)
			unreachable := b.newBlock()
			if len(b.loops) == 0 {
				cur.Terminator = Terminator{Kind: TermReturn}
				return unreachable
			}
			target := b.loops[len(b.loops)-1].header
			cur.Terminator = Terminator{Kind: TermJump, Target: target}
			b.blocks[target].Preds = append(b.blocks[target].Preds, cur.Id)
			return unreachable

		case *luaast.BlockStmt:
			cur = b.scan(cur, n.Statements)

		default:
			cur.Statements = append(cur.Statements, sid)
		}
	}
	return cur
}
