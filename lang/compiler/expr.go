package compiler

import (
	"github.com/mna/emberlang/lang/bytecode"
	"github.com/mna/emberlang/lang/token"
	"github.com/mna/emberlang/lang/value"
)

// precedence orders binary operators from loosest to tightest binding, used
// to drive the Pratt parser's climbing loop.
type precedence int

const (
	precNone       precedence = iota
	precAssignment            // =
	precOr                    // or
	precAnd                   // and
	precEquality              // == !=
	precComparison            // < > <= >=
	precTerm                  // + -
	precFactor                // * /
	precUnary                 // ! -
	precCall                  // . ()
	precPrimary
)

type parseFn func(c *Compiler, canAssign bool)

type parseRule struct {
	prefix     parseFn
	infix      parseFn
	precedence precedence
}

var rules map[token.Token]parseRule

func init() {
	rules = map[token.Token]parseRule{
		token.LPAREN:    {prefix: (*Compiler).grouping, infix: (*Compiler).call, precedence: precCall},
		token.MINUS:     {prefix: (*Compiler).unary, infix: (*Compiler).binary, precedence: precTerm},
		token.PLUS:      {infix: (*Compiler).binary, precedence: precTerm},
		token.SLASH:     {infix: (*Compiler).binary, precedence: precFactor},
		token.STAR:      {infix: (*Compiler).binary, precedence: precFactor},
		token.BANG:      {prefix: (*Compiler).unary},
		token.BANG_EQ:   {infix: (*Compiler).binary, precedence: precEquality},
		token.EQ_EQ:     {infix: (*Compiler).binary, precedence: precEquality},
		token.GT:        {infix: (*Compiler).binary, precedence: precComparison},
		token.GT_EQ:     {infix: (*Compiler).binary, precedence: precComparison},
		token.LT:        {infix: (*Compiler).binary, precedence: precComparison},
		token.LT_EQ:     {infix: (*Compiler).binary, precedence: precComparison},
		token.IDENT:     {prefix: (*Compiler).variable},
		token.STRING:    {prefix: (*Compiler).stringLiteral},
		token.NUMBER:    {prefix: (*Compiler).number},
		token.AND:       {infix: (*Compiler).and, precedence: precAnd},
		token.OR:        {infix: (*Compiler).or, precedence: precOr},
		token.FALSE:     {prefix: (*Compiler).literal},
		token.TRUE:      {prefix: (*Compiler).literal},
		token.NIL:       {prefix: (*Compiler).literal},
	}
}

func (c *Compiler) getRule(t token.Token) parseRule { return rules[t] }

// expression parses and emits an expression of at least precAssignment.
func (c *Compiler) expression() { c.parsePrecedence(precAssignment) }

func (c *Compiler) parsePrecedence(prec precedence) {
	c.advance()
	rule := c.getRule(c.previous.Kind)
	if rule.prefix == nil {
		c.error("Expect expression")
		return
	}
	canAssign := prec <= precAssignment
	rule.prefix(c, canAssign)

	for prec <= c.getRule(c.current.Kind).precedence {
		c.advance()
		infix := c.getRule(c.previous.Kind).infix
		infix(c, canAssign)
	}

	if canAssign && c.match(token.EQ) {
		c.error("Invalid assignment target")
	}
}

func (c *Compiler) number(_ bool) {
	c.emitConstant(value.Number(c.previous.Number))
}

func (c *Compiler) stringLiteral(_ bool) {
	s := c.heap.NewString(c.previous.Lexeme)
	c.emitConstant(value.FromObject(s))
}

func (c *Compiler) literal(_ bool) {
	switch c.previous.Kind {
	case token.FALSE:
		c.emitOp(bytecode.OpFalse)
	case token.TRUE:
		c.emitOp(bytecode.OpTrue)
	case token.NIL:
		c.emitOp(bytecode.OpNil)
	}
}

func (c *Compiler) grouping(_ bool) {
	c.expression()
	c.consume(token.RPAREN, "Expect ')' after expression")
}

func (c *Compiler) unary(_ bool) {
	opKind := c.previous.Kind
	c.parsePrecedence(precUnary)
	switch opKind {
	case token.BANG:
		c.emitOp(bytecode.OpNot)
	case token.MINUS:
		c.emitOp(bytecode.OpNegate)
	}
}

func (c *Compiler) binary(_ bool) {
	opKind := c.previous.Kind
	rule := c.getRule(opKind)
	c.parsePrecedence(rule.precedence + 1)

	switch opKind {
	case token.BANG_EQ:
		c.emitOp(bytecode.OpEqual)
		c.emitOp(bytecode.OpNot)
	case token.EQ_EQ:
		c.emitOp(bytecode.OpEqual)
	case token.GT:
		c.emitOp(bytecode.OpGreater)
	case token.GT_EQ:
		c.emitOp(bytecode.OpLess)
		c.emitOp(bytecode.OpNot)
	case token.LT:
		c.emitOp(bytecode.OpLess)
	case token.LT_EQ:
		c.emitOp(bytecode.OpGreater)
		c.emitOp(bytecode.OpNot)
	case token.PLUS:
		c.emitOp(bytecode.OpAdd)
	case token.MINUS:
		c.emitOp(bytecode.OpSubtract)
	case token.STAR:
		c.emitOp(bytecode.OpMultiply)
	case token.SLASH:
		c.emitOp(bytecode.OpDivide)
	}
}

// and short-circuits: if the left operand is falsey, skip the right operand
// and leave the falsey value as the result.
func (c *Compiler) and(_ bool) {
	endJump := c.emitJump(bytecode.OpJumpIfFalse)
	c.emitOp(bytecode.OpPop)
	c.parsePrecedence(precAnd)
	c.patchJump(endJump)
}

// or short-circuits: if the left operand is truthy, skip the right operand
// and leave the truthy value as the result.
func (c *Compiler) or(_ bool) {
	elseJump := c.emitJump(bytecode.OpJumpIfFalse)
	endJump := c.emitJump(bytecode.OpJump)

	c.patchJump(elseJump)
	c.emitOp(bytecode.OpPop)

	c.parsePrecedence(precOr)
	c.patchJump(endJump)
}

func (c *Compiler) call(_ bool) {
	argCount := c.argumentList()
	c.emitOpByte(bytecode.OpCall, argCount)
}

func (c *Compiler) argumentList() byte {
	var count int
	if !c.check(token.RPAREN) {
		for {
			c.expression()
			if count == 255 {
				c.error("Can't have more than 255 arguments.")
			}
			count++
			if !c.match(token.COMMA) {
				break
			}
		}
	}
	c.consume(token.RPAREN, "Expect ')' after arguments")
	return byte(count)
}

func (c *Compiler) variable(canAssign bool) {
	c.namedVariable(c.previous.Lexeme, canAssign)
}

func (c *Compiler) namedVariable(name string, canAssign bool) {
	var getOp, setOp bytecode.OpCode
	arg := c.resolveLocal(c.cur, name)
	if arg != -1 {
		getOp, setOp = bytecode.OpGetLocal, bytecode.OpSetLocal
	} else if arg = c.resolveUpvalue(c.cur, name); arg != -1 {
		getOp, setOp = bytecode.OpGetUpvalue, bytecode.OpSetUpvalue
	} else {
		arg = int(c.makeConstant(value.FromObject(c.heap.NewString(name))))
		getOp, setOp = bytecode.OpGetGlobal, bytecode.OpSetGlobal
	}

	if canAssign && c.match(token.EQ) {
		c.expression()
		c.emitOpByte(setOp, byte(arg))
	} else {
		c.emitOpByte(getOp, byte(arg))
	}
}
