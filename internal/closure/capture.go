// Package closure analyzes a lambda's free variables and synthesizes
// the environment descriptor the body builder attaches to a closure's
// lowered Body (mir.ClosureEnvDescriptor).
//
// Grounded on original_source/src/mir/builder/body_builder/closures/
// analysis/pattern.rs: a structural walk of patterns (and, through
// them, embedded expressions) that either binds a name into scope or
// records it as a free reference. chic's walker covers ast.Expr and
// ast.Stmt directly, since chic's surface AST keeps pattern-embedded
// expressions (RelationalPattern.Value) as real Expr nodes rather than
// unparsed text requiring a second parse pass.
package closure

import "github.com/chic-lang/chic/internal/ast"

func copyBound(bound map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(bound))
	for k := range bound {
		out[k] = struct{}{}
	}
	return out
}

// FreeVars returns the sorted, deduplicated set of identifier names
// body references that are not among params and not bound by a nested
// let/using/fixed/for-init/pattern binding within body itself.
func FreeVars(params []string, body ast.Expr) []string {
	bound := make(map[string]struct{}, len(params))
	for _, p := range params {
		bound[p] = struct{}{}
	}
	free := make(map[string]struct{})
	collectExpr(body, bound, free)
	return sortedKeys(free)
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	// Simple insertion sort: capture lists are small (a handful of
	// names), so this avoids pulling in "sort" for a few dozen items
	// at most while staying deterministic.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

func collectExpr(e ast.Expr, bound, free map[string]struct{}) {
	if e == nil {
		return
	}
	switch ex := e.(type) {
	case *ast.Identifier:
		if _, ok := bound[ex.Name]; !ok {
			free[ex.Name] = struct{}{}
		}
	case *ast.Literal:
		// atomic, nothing to collect
	case *ast.BinaryOp:
		collectExpr(ex.Left, bound, free)
		collectExpr(ex.Right, bound, free)
	case *ast.UnaryOp:
		collectExpr(ex.X, bound, free)
	case *ast.Call:
		collectExpr(ex.Func, bound, free)
		for _, a := range ex.Args {
			collectExpr(a.Value, bound, free)
		}
	case *ast.Lambda:
		inner := copyBound(bound)
		for _, p := range ex.Params {
			inner[p.Name] = struct{}{}
		}
		collectExpr(ex.Body, inner, free)
	case *ast.BlockExpr:
		collectBlock(ex.Block, bound, free)
	case *ast.NewExpr:
		for _, f := range ex.Fields {
			collectExpr(f.Value, bound, free)
		}
	case *ast.ArrayLit:
		for _, el := range ex.Elements {
			collectExpr(el, bound, free)
		}
	case *ast.FieldAccess:
		collectExpr(ex.X, bound, free)
	case *ast.IndexExpr:
		collectExpr(ex.X, bound, free)
		collectExpr(ex.Index, bound, free)
	case *ast.AssignExpr:
		collectExpr(ex.Target, bound, free)
		collectExpr(ex.Value, bound, free)
	case *ast.AwaitExpr:
		collectExpr(ex.X, bound, free)
	case *ast.YieldExpr:
		collectExpr(ex.X, bound, free)
	case *ast.NullCoalesceExpr:
		collectExpr(ex.Left, bound, free)
		collectExpr(ex.Right, bound, free)
	case *ast.AddressOfExpr:
		collectExpr(ex.X, bound, free)
	case *ast.CastExpr:
		collectExpr(ex.X, bound, free)
	case *ast.GenericInstExpr:
		collectExpr(ex.Base, bound, free)
	}
}

// MutableUses returns the subset of FreeVars(params, body) that body
// writes through: a direct assignment target (x = ..., x.field = ...,
// x[i] = ...) or an operand of `&mut`. Mirrors collectExpr's bound-set
// walk so a name shadowed by a nested lambda's own parameter isn't
// attributed to the outer capture.
func MutableUses(params []string, body ast.Expr) map[string]struct{} {
	bound := make(map[string]struct{}, len(params))
	for _, p := range params {
		bound[p] = struct{}{}
	}
	mutated := make(map[string]struct{})
	walkMutable(body, bound, mutated)
	return mutated
}

// rootIdentifier unwraps a chain of field/index projections down to the
// identifier a place is ultimately rooted at, e.g. x.field[0] -> x.
func rootIdentifier(e ast.Expr) (string, bool) {
	for {
		switch ex := e.(type) {
		case *ast.Identifier:
			return ex.Name, true
		case *ast.FieldAccess:
			e = ex.X
		case *ast.IndexExpr:
			e = ex.X
		default:
			return "", false
		}
	}
}

func markMutated(target ast.Expr, bound, mutated map[string]struct{}) {
	if name, ok := rootIdentifier(target); ok {
		if _, isBound := bound[name]; !isBound {
			mutated[name] = struct{}{}
		}
	}
}

func walkMutable(e ast.Expr, bound, mutated map[string]struct{}) {
	if e == nil {
		return
	}
	switch ex := e.(type) {
	case *ast.AssignExpr:
		markMutated(ex.Target, bound, mutated)
		walkMutable(ex.Target, bound, mutated)
		walkMutable(ex.Value, bound, mutated)
	case *ast.AddressOfExpr:
		if ex.Mut {
			markMutated(ex.X, bound, mutated)
		}
		walkMutable(ex.X, bound, mutated)
	case *ast.BinaryOp:
		walkMutable(ex.Left, bound, mutated)
		walkMutable(ex.Right, bound, mutated)
	case *ast.UnaryOp:
		walkMutable(ex.X, bound, mutated)
	case *ast.Call:
		walkMutable(ex.Func, bound, mutated)
		for _, a := range ex.Args {
			walkMutable(a.Value, bound, mutated)
		}
	case *ast.Lambda:
		inner := copyBound(bound)
		for _, p := range ex.Params {
			inner[p.Name] = struct{}{}
		}
		walkMutable(ex.Body, inner, mutated)
	case *ast.BlockExpr:
		walkMutableBlock(ex.Block, bound, mutated)
	case *ast.NewExpr:
		for _, f := range ex.Fields {
			walkMutable(f.Value, bound, mutated)
		}
	case *ast.ArrayLit:
		for _, el := range ex.Elements {
			walkMutable(el, bound, mutated)
		}
	case *ast.FieldAccess:
		walkMutable(ex.X, bound, mutated)
	case *ast.IndexExpr:
		walkMutable(ex.X, bound, mutated)
		walkMutable(ex.Index, bound, mutated)
	case *ast.AwaitExpr:
		walkMutable(ex.X, bound, mutated)
	case *ast.YieldExpr:
		walkMutable(ex.X, bound, mutated)
	case *ast.NullCoalesceExpr:
		walkMutable(ex.Left, bound, mutated)
		walkMutable(ex.Right, bound, mutated)
	case *ast.CastExpr:
		walkMutable(ex.X, bound, mutated)
	case *ast.GenericInstExpr:
		walkMutable(ex.Base, bound, mutated)
	}
}

func walkMutableBlock(blk *ast.Block, bound, mutated map[string]struct{}) {
	if blk == nil {
		return
	}
	local := copyBound(bound)
	for _, s := range blk.Stmts {
		local = walkMutableStmt(s, local, mutated)
	}
}

func walkMutableStmt(s ast.Stmt, bound, mutated map[string]struct{}) map[string]struct{} {
	switch st := s.(type) {
	case *ast.LetStmt:
		walkMutable(st.Value, bound, mutated)
		next := copyBound(bound)
		next[st.Name] = struct{}{}
		return next
	case *ast.ExprStmt:
		walkMutable(st.X, bound, mutated)
	case *ast.IfStmt:
		walkMutable(st.Cond, bound, mutated)
		walkMutableBlock(st.Then, bound, mutated)
		walkMutableBlock(st.Else, bound, mutated)
	case *ast.WhileStmt:
		walkMutable(st.Cond, bound, mutated)
		walkMutableBlock(st.Body, bound, mutated)
	case *ast.DoWhileStmt:
		walkMutableBlock(st.Body, bound, mutated)
		walkMutable(st.Cond, bound, mutated)
	case *ast.ForStmt:
		local := copyBound(bound)
		if st.Init != nil {
			local = walkMutableStmt(st.Init, local, mutated)
		}
		if st.Cond != nil {
			walkMutable(st.Cond, local, mutated)
		}
		walkMutableBlock(st.Body, local, mutated)
		if st.Step != nil {
			walkMutableStmt(st.Step, local, mutated)
		}
	case *ast.ReturnStmt:
		if st.Value != nil {
			walkMutable(st.Value, bound, mutated)
		}
	case *ast.SwitchStmt:
		walkMutable(st.Discriminant, bound, mutated)
		for _, c := range st.Cases {
			for _, lbl := range c.Labels {
				walkMutable(lbl, bound, mutated)
			}
			if c.Guard != nil {
				walkMutable(c.Guard, bound, mutated)
			}
			walkMutableBlock(c.Body, bound, mutated)
		}
	case *ast.UsingStmt:
		walkMutable(st.Value, bound, mutated)
		inner := copyBound(bound)
		inner[st.Name] = struct{}{}
		walkMutableBlock(st.Body, inner, mutated)
	case *ast.LockStmt:
		walkMutable(st.Target, bound, mutated)
		walkMutableBlock(st.Body, bound, mutated)
	case *ast.FixedStmt:
		walkMutable(st.Value, bound, mutated)
		inner := copyBound(bound)
		inner[st.Name] = struct{}{}
		walkMutableBlock(st.Body, inner, mutated)
	case *ast.RegionStmt:
		walkMutableBlock(st.Body, bound, mutated)
	case *ast.BlockModStmt:
		walkMutableBlock(st.Body, bound, mutated)
	case *ast.AwaitStmt:
		walkMutable(st.Value, bound, mutated)
	case *ast.Block:
		walkMutableBlock(st, bound, mutated)
	}
	return bound
}

func collectBlock(blk *ast.Block, bound, free map[string]struct{}) {
	if blk == nil {
		return
	}
	local := copyBound(bound)
	for _, s := range blk.Stmts {
		local = collectStmt(s, local, free)
	}
}

// collectStmt returns the bound-set visible to statements that follow
// s within the same block (a LetStmt/UsingStmt/FixedStmt extends it).
func collectStmt(s ast.Stmt, bound, free map[string]struct{}) map[string]struct{} {
	switch st := s.(type) {
	case *ast.LetStmt:
		collectExpr(st.Value, bound, free)
		next := copyBound(bound)
		next[st.Name] = struct{}{}
		return next
	case *ast.ExprStmt:
		collectExpr(st.X, bound, free)
	case *ast.IfStmt:
		collectExpr(st.Cond, bound, free)
		collectBlock(st.Then, bound, free)
		collectBlock(st.Else, bound, free)
	case *ast.WhileStmt:
		collectExpr(st.Cond, bound, free)
		collectBlock(st.Body, bound, free)
	case *ast.DoWhileStmt:
		collectBlock(st.Body, bound, free)
		collectExpr(st.Cond, bound, free)
	case *ast.ForStmt:
		local := copyBound(bound)
		if st.Init != nil {
			local = collectStmt(st.Init, local, free)
		}
		if st.Cond != nil {
			collectExpr(st.Cond, local, free)
		}
		collectBlock(st.Body, local, free)
		if st.Step != nil {
			collectStmt(st.Step, local, free)
		}
	case *ast.ReturnStmt:
		if st.Value != nil {
			collectExpr(st.Value, bound, free)
		}
	case *ast.SwitchStmt:
		collectExpr(st.Discriminant, bound, free)
		for _, c := range st.Cases {
			for _, lbl := range c.Labels {
				collectExpr(lbl, bound, free)
			}
			if c.Guard != nil {
				collectExpr(c.Guard, bound, free)
			}
			caseBound := copyBound(bound)
			if c.Pattern != nil {
				collectPattern(c.Pattern, caseBound, free)
			}
			collectBlock(c.Body, caseBound, free)
		}
	case *ast.UsingStmt:
		collectExpr(st.Value, bound, free)
		inner := copyBound(bound)
		inner[st.Name] = struct{}{}
		collectBlock(st.Body, inner, free)
	case *ast.LockStmt:
		collectExpr(st.Target, bound, free)
		collectBlock(st.Body, bound, free)
	case *ast.FixedStmt:
		collectExpr(st.Value, bound, free)
		inner := copyBound(bound)
		inner[st.Name] = struct{}{}
		collectBlock(st.Body, inner, free)
	case *ast.RegionStmt:
		collectBlock(st.Body, bound, free)
	case *ast.BlockModStmt:
		collectBlock(st.Body, bound, free)
	case *ast.AwaitStmt:
		collectExpr(st.Value, bound, free)
	case *ast.Block:
		collectBlock(st, bound, free)
	}
	return bound
}

// collectPattern mirrors pattern.rs's match over PatternNode: it binds
// names (VarPattern, ListPattern.Rest) into bound and, for
// RelationalPattern, collects free references from the embedded
// comparison expression.
func collectPattern(p ast.Pattern, bound, free map[string]struct{}) {
	if p == nil {
		return
	}
	switch pt := p.(type) {
	case *ast.WildcardPattern, *ast.LiteralPattern:
	case *ast.VarPattern:
		bound[pt.Name] = struct{}{}
	case *ast.TuplePattern:
		for _, e := range pt.Elements {
			collectPattern(e, bound, free)
		}
	case *ast.ConstructorPattern:
		for _, f := range pt.Fields {
			collectPattern(f, bound, free)
		}
	case *ast.RelationalPattern:
		collectExpr(pt.Value, bound, free)
	case *ast.BinaryPattern:
		collectPattern(pt.Left, bound, free)
		collectPattern(pt.Right, bound, free)
	case *ast.NotPattern:
		collectPattern(pt.Inner, bound, free)
	case *ast.ListPattern:
		for _, e := range pt.Prefix {
			collectPattern(e, bound, free)
		}
		if pt.Rest != nil {
			bound[*pt.Rest] = struct{}{}
		}
		for _, e := range pt.Suffix {
			collectPattern(e, bound, free)
		}
	case *ast.RecordPattern:
		for _, f := range pt.Fields {
			collectPattern(f.Pattern, bound, free)
		}
	case *ast.TypePattern:
		if pt.Subpattern != nil {
			collectPattern(pt.Subpattern, bound, free)
		}
	}
}
