// Package compiler lowers an ast.Program into a vm.Chunk of named-operand
// instructions. It plays the role the teacher's runtime/compiler.go plays
// for its stack machine — a single-pass, scope-tracking tree walk — but
// every destination is a string key instead of a local slot index, since
// the target machine has no stack frame of numbered slots to allocate.
package compiler

import (
	"fmt"

	"luacore/ast"
	"luacore/vm"
)

// funcScope tracks which names the current function body has declared
// local, so plain identifier assignment knows whether to write through to
// globals (spec.md's destination_local flag, honored per SPEC_FULL.md
// §4.2).
type funcScope struct {
	locals map[string]bool
}

// Compiler holds the chunk under construction plus the scope stack for the
// function currently being compiled. Each function body compiles with its
// own Compiler and Chunk (functions never capture an enclosing scope —
// vm.Function carries no environment, only its Chunk).
type Compiler struct {
	chunk  *vm.Chunk
	scopes []*funcScope
	tmp    int
}

func newCompiler() *Compiler {
	c := &Compiler{chunk: vm.NewChunk()}
	c.push()
	return c
}

func (c *Compiler) push() { c.scopes = append(c.scopes, &funcScope{locals: map[string]bool{}}) }
func (c *Compiler) pop()  { c.scopes = c.scopes[:len(c.scopes)-1] }
func (c *Compiler) scope() *funcScope { return c.scopes[len(c.scopes)-1] }

// atTopLevel reports whether the compiler is still working on the
// outermost program body, where a named function declaration binds a
// global the way a Lua chunk's top level does. A function body's
// compiler pushes a second scope, so it never reports true.
func (c *Compiler) atTopLevel() bool { return len(c.scopes) == 1 }

func (c *Compiler) declareLocal(name string) { c.scope().locals[name] = true }
func (c *Compiler) isLocal(name string) bool { return c.scope().locals[name] }

// newTemp names a compiler-owned intermediate. The leading paren keeps it
// out of the identifier grammar the parser accepts, so it can never
// collide with a user-declared name (vm/opcode.go's Instruction doc
// mentions this convention; it is enforced here, not by the VM).
func (c *Compiler) newTemp() string {
	c.tmp++
	return fmt.Sprintf("(t%d)", c.tmp)
}

func (c *Compiler) emit(instr vm.Instruction) int { return c.chunk.Emit(instr) }

// here returns the index the next Emit call will land on, for forward-jump
// patching (the same by-index patch style runtime/compiler.go uses).
func (c *Compiler) here() int { return len(c.chunk.Instructions) }

func (c *Compiler) patchTarget(jumpIdx, target int) {
	c.chunk.Instructions[jumpIdx].Target = target
}

// Compile lowers a full program into a callable top-level Function named
// "<main>", matching runtime/compiler.go's Compile entry point.
func Compile(prog *ast.Program) *vm.Function {
	c := newCompiler()
	for _, stmt := range prog.Body {
		c.compileStmt(stmt)
	}
	t := c.newTemp()
	c.emit(vm.Instruction{Op: vm.OpCreate, Destination: t, DestinationLocal: true})
	c.emit(vm.Instruction{Op: vm.OpReturn, Result: t})
	return vm.NewFunction("<main>", c.chunk)
}

func (c *Compiler) compileStmt(s ast.Stmt) {
	switch n := s.(type) {
	case *ast.LocalDecl:
		c.compileLocalDecl(n)
	case *ast.AssignStmt:
		c.compileAssignStmt(n)
	case *ast.IfStmt:
		c.compileIfStmt(n)
	case *ast.WhileStmt:
		c.compileWhileStmt(n)
	case *ast.FunctionDecl:
		c.compileFunctionDecl(n)
	case *ast.ReturnStmt:
		c.compileReturnStmt(n)
	case *ast.ExprStmt:
		c.compileExpr(n.Value)
	}
}

func (c *Compiler) compileLocalDecl(n *ast.LocalDecl) {
	if n.Value != nil {
		c.compileExprInto(n.Value, n.Name, true)
	} else {
		idx := c.chunk.AddConst(vm.Nil{})
		c.emit(vm.Instruction{Op: vm.OpLoad, Constant: idx, Destination: n.Name, DestinationLocal: true})
	}
	c.declareLocal(n.Name)
}

func (c *Compiler) compileAssignStmt(n *ast.AssignStmt) {
	switch target := n.Target.(type) {
	case *ast.Identifier:
		// A name never declared local in this function falls through to
		// globals (spec.md's resolved destination_local behavior).
		local := c.isLocal(target.Name)
		c.compileExprInto(n.Value, target.Name, local)
	case *ast.IndexExpr:
		objName := c.compileExpr(target.Object)
		keyName := c.compileExpr(target.Key)
		valName := c.compileExpr(n.Value)
		c.emit(vm.Instruction{Op: vm.OpIndexWrite, Indexee: objName, Index: keyName, Value: valName})
	}
}

func (c *Compiler) compileIfStmt(n *ast.IfStmt) {
	condName := c.compileExpr(n.Condition)
	notCond := c.newTemp()
	c.emit(vm.Instruction{Op: vm.OpUnaryOperation, Operand: condName, UnOp: vm.UnNot, Destination: notCond, DestinationLocal: true})
	jumpToElse := c.emit(vm.Instruction{Op: vm.OpJump, If: notCond, HasIf: true, Target: -1})

	for _, stmt := range n.Then {
		c.compileStmt(stmt)
	}

	if n.Else != nil {
		jumpToEnd := c.emit(vm.Instruction{Op: vm.OpJump, Target: -1})
		c.patchTarget(jumpToElse, c.here())
		for _, stmt := range n.Else {
			c.compileStmt(stmt)
		}
		c.patchTarget(jumpToEnd, c.here())
	} else {
		c.patchTarget(jumpToElse, c.here())
	}
}

func (c *Compiler) compileWhileStmt(n *ast.WhileStmt) {
	loopStart := c.here()
	condName := c.compileExpr(n.Condition)
	notCond := c.newTemp()
	c.emit(vm.Instruction{Op: vm.OpUnaryOperation, Operand: condName, UnOp: vm.UnNot, Destination: notCond, DestinationLocal: true})
	jumpExit := c.emit(vm.Instruction{Op: vm.OpJump, If: notCond, HasIf: true, Target: -1})

	for _, stmt := range n.Body {
		c.compileStmt(stmt)
	}
	c.emit(vm.Instruction{Op: vm.OpJump, Target: loopStart})
	c.patchTarget(jumpExit, c.here())
}

func (c *Compiler) compileFunctionDecl(n *ast.FunctionDecl) {
	inner := newCompiler()
	inner.push()
	for i, param := range n.Params {
		inner.declareLocal(param)
		inner.bindPositionalParam(param, i+1)
	}
	for _, stmt := range n.Body {
		inner.compileStmt(stmt)
	}
	t := inner.newTemp()
	inner.emit(vm.Instruction{Op: vm.OpCreate, Destination: t, DestinationLocal: true})
	inner.emit(vm.Instruction{Op: vm.OpReturn, Result: t})

	fn := vm.NewFunction(n.Name, inner.chunk)
	idx := c.chunk.AddConst(fn)
	local := !c.atTopLevel()
	c.emit(vm.Instruction{Op: vm.OpLoad, Constant: idx, Destination: n.Name, DestinationLocal: local})
	if local {
		c.declareLocal(n.Name)
	}
}

// bindPositionalParam copies the value a caller placed at the 1-based
// positional key i out of the activation's raw locals (cloneArgs clones an
// arguments Table's entries verbatim, so they arrive keyed by
// vm.Integer{i}, not by name) into the declared parameter name. This is
// exactly ReAssign's "resolve actor to get an intermediate Value, then
// resolve THAT value as a key into scope" indirection: actor's value IS
// the integer key to dereference.
func (c *Compiler) bindPositionalParam(name string, i int) {
	idx := c.chunk.AddConst(vm.Integer{V: int64(i)})
	ptr := c.newTemp()
	c.emit(vm.Instruction{Op: vm.OpLoad, Constant: idx, Destination: ptr, DestinationLocal: true})
	c.emit(vm.Instruction{Op: vm.OpReAssign, Actor: ptr, Destination: name, DestinationLocal: true})
}

func (c *Compiler) compileReturnStmt(n *ast.ReturnStmt) {
	result := c.newTemp()
	c.emit(vm.Instruction{Op: vm.OpCreate, Destination: result, DestinationLocal: true})
	if n.Value != nil {
		valName := c.compileExpr(n.Value)
		c.writeIndex(result, vm.Integer{V: 1}, valName)
	}
	c.emit(vm.Instruction{Op: vm.OpReturn, Result: result})
}

// writeIndex emits indexee[key] = value where key is a constant Value,
// not an already-computed operand name — a Load for the key constant
// followed by IndexWrite, the same two-instruction shape
// vm_test.go's TestTableCreateAndWrite exercises.
func (c *Compiler) writeIndex(indexee string, key vm.Value, valueName string) {
	idx := c.chunk.AddConst(key)
	keyName := c.newTemp()
	c.emit(vm.Instruction{Op: vm.OpLoad, Constant: idx, Destination: keyName, DestinationLocal: true})
	c.emit(vm.Instruction{Op: vm.OpIndexWrite, Indexee: indexee, Index: keyName, Value: valueName})
}

// ---- expressions ----

// compileExpr evaluates e and returns the name holding its value. A plain
// identifier reference costs no instruction: its own name already is a
// valid operand everywhere a name is expected.
func (c *Compiler) compileExpr(e ast.Expr) string {
	if ident, ok := e.(*ast.Identifier); ok {
		return ident.Name
	}
	dest := c.newTemp()
	c.compileExprInto(e, dest, true)
	return dest
}

// compileExprInto evaluates e and binds its value directly to dest,
// avoiding a redundant temporary-then-copy for the common case of
// compiling straight into an assignment or local declaration's target.
func (c *Compiler) compileExprInto(e ast.Expr, dest string, local bool) {
	switch n := e.(type) {
	case *ast.Identifier:
		c.copyVariable(n.Name, dest, local)
	case *ast.NumberLit:
		idx := c.chunk.AddConst(vm.Integer{V: n.Value})
		c.emit(vm.Instruction{Op: vm.OpLoad, Constant: idx, Destination: dest, DestinationLocal: local})
	case *ast.StringLit:
		idx := c.chunk.AddConst(vm.String{V: n.Value})
		c.emit(vm.Instruction{Op: vm.OpLoad, Constant: idx, Destination: dest, DestinationLocal: local})
	case *ast.BoolLit:
		idx := c.chunk.AddConst(vm.Boolean{V: n.Value})
		c.emit(vm.Instruction{Op: vm.OpLoad, Constant: idx, Destination: dest, DestinationLocal: local})
	case *ast.NilLit:
		idx := c.chunk.AddConst(vm.Nil{})
		c.emit(vm.Instruction{Op: vm.OpLoad, Constant: idx, Destination: dest, DestinationLocal: local})
	case *ast.UnaryExpr:
		operand := c.compileExpr(n.Operand)
		c.emit(vm.Instruction{Op: vm.OpUnaryOperation, Operand: operand, UnOp: vm.UnNot, Destination: dest, DestinationLocal: local})
	case *ast.BinaryExpr:
		c.compileBinaryInto(n, dest, local)
	case *ast.CallExpr:
		c.compileCallInto(n, dest, local)
	case *ast.IndexExpr:
		objName := c.compileExpr(n.Object)
		keyName := c.compileExpr(n.Key)
		c.emit(vm.Instruction{Op: vm.OpIndexRead, Indexee: objName, Index: keyName, Destination: dest, DestinationLocal: local})
	case *ast.TableCtor:
		c.compileTableCtorInto(n, dest, local)
	}
}

// copyVariable binds dest to whatever name currently holds, via a Load of
// a String constant naming it followed by a ReAssign — the VM's one
// indirect-read primitive used here to implement plain variable copy
// without a dedicated opcode for it.
func (c *Compiler) copyVariable(name, dest string, local bool) {
	idx := c.chunk.AddConst(vm.String{V: name})
	ptr := c.newTemp()
	c.emit(vm.Instruction{Op: vm.OpLoad, Constant: idx, Destination: ptr, DestinationLocal: true})
	c.emit(vm.Instruction{Op: vm.OpReAssign, Actor: ptr, Destination: dest, DestinationLocal: local})
}

var binaryOps = map[ast.BinaryOp]vm.BinaryOp{
	ast.OpEq:  vm.BinEqual,
	ast.OpNe:  vm.BinNotEqual,
	ast.OpLt:  vm.BinLessThan,
	ast.OpLe:  vm.BinLessThanOrEqual,
	ast.OpGt:  vm.BinGreaterThan,
	ast.OpGe:  vm.BinGreaterThanOrEqual,
	ast.OpAdd: vm.BinAdd,
	ast.OpSub: vm.BinSubtract,
}

func (c *Compiler) compileBinaryInto(n *ast.BinaryExpr, dest string, local bool) {
	switch n.Operator {
	case "and":
		c.compileAndInto(n, dest, local)
		return
	case "or":
		c.compileOrInto(n, dest, local)
		return
	}
	leftName := c.compileExpr(n.Left)
	rightName := c.compileExpr(n.Right)
	op, ok := binaryOps[n.Operator]
	if !ok {
		return
	}
	c.emit(vm.Instruction{Op: vm.OpBinaryOperation, First: leftName, Second: rightName, BinOp: op, Destination: dest, DestinationLocal: local})
}

// compileAndInto implements short-circuit "and": dest starts as the left
// operand's value; if it is falsy the right side is never evaluated.
func (c *Compiler) compileAndInto(n *ast.BinaryExpr, dest string, local bool) {
	c.compileExprInto(n.Left, dest, local)
	notLeft := c.newTemp()
	c.emit(vm.Instruction{Op: vm.OpUnaryOperation, Operand: dest, UnOp: vm.UnNot, Destination: notLeft, DestinationLocal: true})
	skip := c.emit(vm.Instruction{Op: vm.OpJump, If: notLeft, HasIf: true, Target: -1})
	c.compileExprInto(n.Right, dest, local)
	c.patchTarget(skip, c.here())
}

// compileOrInto mirrors compileAndInto: short-circuits to the left value
// when it is already truthy.
func (c *Compiler) compileOrInto(n *ast.BinaryExpr, dest string, local bool) {
	c.compileExprInto(n.Left, dest, local)
	skip := c.emit(vm.Instruction{Op: vm.OpJump, If: dest, HasIf: true, Target: -1})
	c.compileExprInto(n.Right, dest, local)
	c.patchTarget(skip, c.here())
}

func (c *Compiler) compileCallInto(n *ast.CallExpr, dest string, local bool) {
	calleeName := c.compileExpr(n.Callee)
	argsTmp := c.newTemp()
	c.emit(vm.Instruction{Op: vm.OpCreate, Destination: argsTmp, DestinationLocal: true})
	for i, argExpr := range n.Args {
		argName := c.compileExpr(argExpr)
		c.writeIndex(argsTmp, vm.Integer{V: int64(i + 1)}, argName)
	}
	c.emit(vm.Instruction{Op: vm.OpCall, Function: calleeName, Arguments: argsTmp, Destination: dest, DestinationLocal: local})
}

func (c *Compiler) compileTableCtorInto(n *ast.TableCtor, dest string, local bool) {
	c.emit(vm.Instruction{Op: vm.OpCreate, Destination: dest, DestinationLocal: local})
	arrayIndex := int64(1)
	for _, field := range n.Fields {
		valName := c.compileExpr(field.Value)
		if field.Key == nil {
			c.writeIndex(dest, vm.Integer{V: arrayIndex}, valName)
			arrayIndex++
			continue
		}
		if lit, ok := field.Key.(*ast.StringLit); ok {
			c.writeIndex(dest, vm.String{V: lit.Value}, valName)
			continue
		}
		keyName := c.compileExpr(field.Key)
		c.emit(vm.Instruction{Op: vm.OpIndexWrite, Indexee: dest, Index: keyName, Value: valName})
	}
}
