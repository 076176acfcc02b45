package mir

// BasicBlock is an ordered list of statements ending in a terminator.
// Blocks reference their successors only through the terminator.
type BasicBlock struct {
	Id         BlockId
	Statements []Statement
	Terminator *Terminator // nil only while under construction
	Span       Span
}

// HasTerminator reports whether the block's terminator has been set.
func (b *BasicBlock) HasTerminator() bool { return b.Terminator != nil }

// StreamMetadata carries body-level side information produced by the
// body builder's loop/switch/vectorize analyses.
type StreamMetadata struct {
	VectorizeHint string // e.g. "decimal"; empty if unset

	// ClosureEnv is non-nil when this body is a closure body: the
	// environment struct's canonical type name plus its capture list,
	// in capture order.
	ClosureEnv *ClosureEnvDescriptor

	// AsyncPolicy is non-nil when this body is an async function body.
	AsyncPolicy *AsyncFramePolicy
}

// ClosureEnvDescriptor names a synthesized closure environment type
// and the captured locals it carries.
type ClosureEnvDescriptor struct {
	EnvTypeName string
	Captures    []CapturedVar
}

// CapturedVar is one free variable captured into a closure environment.
type CapturedVar struct {
	Name   string
	Type   *Ty
	ByRef  bool // true when captured by reference rather than by value
}

// NoCaptureMode distinguishes how strictly a `no_capture` async policy
// is enforced.
type NoCaptureMode int

const (
	// NoCaptureAny forbids capturing anything from the enclosing scope.
	NoCaptureAny NoCaptureMode = iota
	// NoCaptureMoveOnly permits captures that are moved (not
	// by-reference) into the frame.
	NoCaptureMoveOnly
)

// AsyncFramePolicy records the policy an async function's frame must
// satisfy, per spec.md §4's async frame lowering rules.
type AsyncFramePolicy struct {
	StackOnly    bool
	FrameLimit   int // 0 means unset/unenforced
	NoCapture    bool
	NoCaptureMode NoCaptureMode
	LogPromotion bool // log when a frame is promoted to heap allocation
}

// Body is the dense local/block table for one function.
type Body struct {
	Locals      []LocalDecl
	Blocks      []BasicBlock
	EntryBlock  BlockId // always BlockId(0)
	Metadata    StreamMetadata
}

// NewBody creates an empty body with the return slot (LocalId 0)
// already declared, and no blocks.
func NewBody(returnType *Ty, returnSpan Span) *Body {
	return &Body{
		Locals: []LocalDecl{{Id: 0, Type: returnType, Kind: LocalReturn, Span: returnSpan}},
	}
}

// AddLocal appends a new local and returns its LocalId.
func (b *Body) AddLocal(decl LocalDecl) LocalId {
	decl.Id = LocalId(len(b.Locals))
	b.Locals = append(b.Locals, decl)
	return decl.Id
}

// Local returns the declaration for a LocalId.
func (b *Body) Local(id LocalId) *LocalDecl {
	return &b.Locals[id]
}

// AddBlock appends a new, terminator-less block and returns its BlockId.
func (b *Body) AddBlock(span Span) BlockId {
	id := BlockId(len(b.Blocks))
	b.Blocks = append(b.Blocks, BasicBlock{Id: id, Span: span})
	return id
}

// Block returns the block for a BlockId.
func (b *Body) Block(id BlockId) *BasicBlock {
	return &b.Blocks[id]
}

// PushStmt appends a statement to the named block.
func (b *Body) PushStmt(block BlockId, stmt Statement) {
	bb := b.Block(block)
	bb.Statements = append(bb.Statements, stmt)
}

// SetTerminator sets the named block's terminator. A second call on
// the same block replaces the earlier terminator; neither this method
// nor the verifier reports it.
func (b *Body) SetTerminator(block BlockId, term Terminator) {
	bb := b.Block(block)
	t := term
	bb.Terminator = &t
}

// ReachableBlocks returns every block reachable from the entry block,
// in a breadth-first deterministic order.
func (b *Body) ReachableBlocks() []BlockId {
	seen := make(map[BlockId]bool)
	order := []BlockId{}
	queue := []BlockId{b.EntryBlock}
	seen[b.EntryBlock] = true
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		order = append(order, cur)
		bb := b.Block(cur)
		if bb.Terminator == nil {
			continue
		}
		for _, succ := range bb.Terminator.Successors() {
			if !seen[succ] {
				seen[succ] = true
				queue = append(queue, succ)
			}
		}
	}
	return order
}
