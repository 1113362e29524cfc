package compiler

import (
	"github.com/mna/emberlang/lang/bytecode"
	"github.com/mna/emberlang/lang/token"
	"github.com/mna/emberlang/lang/value"
)

// declaration parses one top-level or block-level declaration, recovering
// to the next statement boundary if a syntax error panics partway through.
func (c *Compiler) declaration() {
	defer func() {
		if r := recover(); r != nil {
			if r != errPanicMode {
				panic(r)
			}
			c.synchronize()
		}
	}()

	switch {
	case c.match(token.VAR):
		c.varDeclaration()
	case c.match(token.FUN):
		c.funDeclaration()
	default:
		c.statement()
	}
}

func (c *Compiler) synchronize() {
	c.panicMode = false
	for c.current.Kind != token.EOF {
		if c.previous.Kind == token.SEMICOLON {
			return
		}
		if token.IsSyncKeyword(c.current.Kind) {
			return
		}
		c.advance()
	}
}

func (c *Compiler) varDeclaration() {
	nameConstant := c.parseVariable("Expect variable name")

	if c.match(token.EQ) {
		c.expression()
	} else {
		c.emitOp(bytecode.OpNil)
	}
	c.consume(token.SEMICOLON, "Expect ';' after variable declaration")
	c.defineVariable(nameConstant)
}

// parseVariable consumes an identifier, declares it as a local if inside a
// scope, and returns the constant pool index of its name (meaningful only
// for a later OpDefineGlobal at global scope).
func (c *Compiler) parseVariable(errMsg string) byte {
	c.consume(token.IDENT, errMsg)
	name := c.previous.Lexeme
	c.declareVariable(name)
	if c.cur.scopeDepth > 0 {
		return 0
	}
	return c.makeConstant(value.FromObject(c.heap.NewString(name)))
}

func (c *Compiler) funDeclaration() {
	nameConstant := c.parseVariable("Expect function name")
	c.markInitialized()
	c.function(kindFunction)
	c.defineVariable(nameConstant)
}

// function compiles a function's parameter list and body into a fresh
// ObjFunction, pushing a new compiler state for the duration, then emits
// OpClosure with the resulting function as a constant, followed by one
// (isLocal, index) descriptor pair per captured upvalue.
func (c *Compiler) function(kind funcKind) {
	name := c.previous.Lexeme
	fn := c.heap.NewFunction()
	fn.Name = c.heap.NewString(name)

	c.cur = newState(c.cur, kind, fn)
	// if a syntax error inside this function's parameter list or body panics
	// for statement-boundary recovery, unwind the compiler chain back to the
	// enclosing function before the panic reaches its declaration() recover.
	defer func() {
		if r := recover(); r != nil {
			c.cur = c.cur.enclosing
			panic(r)
		}
	}()
	c.beginScope()

	c.consume(token.LPAREN, "Expect '(' after function name")
	if !c.check(token.RPAREN) {
		for {
			c.cur.function.Arity++
			if c.cur.function.Arity > 255 {
				c.errorAtCurrent("Can't have more than 255 parameters.")
			}
			paramConstant := c.parseVariable("Expect parameter name")
			c.defineVariable(paramConstant)
			if !c.match(token.COMMA) {
				break
			}
		}
	}
	c.consume(token.RPAREN, "Expect ')' after parameters")
	c.consume(token.LBRACE, "Expect '{' before function body")
	c.block()

	enclosingUpvalues := c.cur.upvalues
	compiled := c.endCompiler()

	c.emitOpByte(bytecode.OpClosure, c.makeConstant(value.FromObject(compiled)))
	for _, up := range enclosingUpvalues {
		if up.isLocal {
			c.emitByte(1)
		} else {
			c.emitByte(0)
		}
		c.emitByte(up.index)
	}
}

func (c *Compiler) statement() {
	switch {
	case c.match(token.PRINT):
		c.printStatement()
	case c.match(token.IF):
		c.ifStatement()
	case c.match(token.WHILE):
		c.whileStatement()
	case c.match(token.FOR):
		c.forStatement()
	case c.match(token.RETURN):
		c.returnStatement()
	case c.match(token.BREAK):
		c.breakStatement()
	case c.match(token.LBRACE):
		c.beginScope()
		c.block()
		c.endScope()
	default:
		c.expressionStatement()
	}
}

func (c *Compiler) block() {
	for !c.check(token.RBRACE) && !c.check(token.EOF) {
		c.declaration()
	}
	c.consume(token.RBRACE, "Expect '}' after block")
}

func (c *Compiler) printStatement() {
	c.expression()
	c.consume(token.SEMICOLON, "Expect ';' after value")
	c.emitOp(bytecode.OpPrint)
}

func (c *Compiler) expressionStatement() {
	c.expression()
	c.consume(token.SEMICOLON, "Expect ';' after expression")
	c.emitOp(bytecode.OpPop)
}

func (c *Compiler) ifStatement() {
	c.consume(token.LPAREN, "Expect '(' after 'if'")
	c.expression()
	c.consume(token.RPAREN, "Expect ')' after condition")

	thenJump := c.emitJump(bytecode.OpJumpIfFalse)
	c.emitOp(bytecode.OpPop)
	c.statement()

	elseJump := c.emitJump(bytecode.OpJump)
	c.patchJump(thenJump)
	c.emitOp(bytecode.OpPop)

	if c.match(token.ELSE) {
		c.statement()
	}
	c.patchJump(elseJump)
}

func (c *Compiler) whileStatement() {
	loopStart := len(c.currentChunk().Code)
	loop := &loopState{start: loopStart}
	c.cur.loops = append(c.cur.loops, loop)

	c.consume(token.LPAREN, "Expect '(' after 'while'")
	c.expression()
	c.consume(token.RPAREN, "Expect ')' after condition")

	exitJump := c.emitJump(bytecode.OpJumpIfFalse)
	c.emitOp(bytecode.OpPop)
	c.statement()
	c.emitLoop(loopStart)

	c.patchJump(exitJump)
	c.emitOp(bytecode.OpPop)

	c.endLoop()
}

// forStatement desugars the C-style for loop into the equivalent sequence
// of an initializer, a while loop over the condition, and the increment
// appended to the end of the body, the same transformation the rest of the
// clox-descended family uses.
func (c *Compiler) forStatement() {
	c.beginScope()
	c.consume(token.LPAREN, "Expect '(' after 'for'")

	switch {
	case c.match(token.SEMICOLON):
		// no initializer
	case c.match(token.VAR):
		c.varDeclaration()
	default:
		c.expressionStatement()
	}

	loopStart := len(c.currentChunk().Code)
	loop := &loopState{start: loopStart}
	c.cur.loops = append(c.cur.loops, loop)

	exitJump := -1
	if !c.match(token.SEMICOLON) {
		c.expression()
		c.consume(token.SEMICOLON, "Expect ';' after loop condition")
		exitJump = c.emitJump(bytecode.OpJumpIfFalse)
		c.emitOp(bytecode.OpPop)
	}

	if !c.match(token.RPAREN) {
		bodyJump := c.emitJump(bytecode.OpJump)
		incrementStart := len(c.currentChunk().Code)
		c.expression()
		c.emitOp(bytecode.OpPop)
		c.consume(token.RPAREN, "Expect ')' after for clauses")

		c.emitLoop(loopStart)
		loopStart = incrementStart
		loop.start = loopStart
		c.patchJump(bodyJump)
	}

	c.statement()
	c.emitLoop(loopStart)

	if exitJump != -1 {
		c.patchJump(exitJump)
		c.emitOp(bytecode.OpPop)
	}

	c.endLoop()
	c.endScope()
}

// endLoop patches every break jump recorded against the innermost loop and
// pops it off the loop stack.
func (c *Compiler) endLoop() {
	loop := c.cur.loops[len(c.cur.loops)-1]
	c.cur.loops = c.cur.loops[:len(c.cur.loops)-1]
	for _, jump := range loop.breakJumps {
		c.patchJump(jump)
	}
}

func (c *Compiler) breakStatement() {
	if len(c.cur.loops) == 0 {
		c.error("'break' outside a loop")
		return
	}
	c.consume(token.SEMICOLON, "Expect ';' after 'break'")
	jump := c.emitJump(bytecode.OpJump)
	loop := c.cur.loops[len(c.cur.loops)-1]
	loop.breakJumps = append(loop.breakJumps, jump)
}

func (c *Compiler) returnStatement() {
	if c.cur.kind == kindScript {
		c.error("Can't return from top-level code.")
	}
	if c.match(token.SEMICOLON) {
		c.emitReturn()
		return
	}
	c.expression()
	c.consume(token.SEMICOLON, "Expect ';' after return value")
	c.emitOp(bytecode.OpReturn)
}
