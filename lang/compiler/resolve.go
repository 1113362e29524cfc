package compiler

import "github.com/mna/emberlang/lang/bytecode"

// declareVariable registers the variable named by c.previous as a local in
// the current scope, or does nothing at global scope (globals are looked up
// by name at runtime instead of by slot).
func (c *Compiler) declareVariable(name string) {
	if c.cur.scopeDepth == 0 {
		return
	}
	for i := len(c.cur.locals) - 1; i >= 0; i-- {
		l := c.cur.locals[i]
		if l.depth != -1 && l.depth < c.cur.scopeDepth {
			break
		}
		if l.name == name {
			c.error("Already a variable with this name in this scope")
			return
		}
	}
	c.addLocal(name)
}

func (c *Compiler) addLocal(name string) {
	if len(c.cur.locals) >= 256 {
		c.error("Too many local variables in function")
		return
	}
	c.cur.locals = append(c.cur.locals, local{name: name, depth: -1})
}

func (c *Compiler) markInitialized() {
	if c.cur.scopeDepth == 0 {
		return
	}
	c.cur.locals[len(c.cur.locals)-1].depth = c.cur.scopeDepth
}

// defineVariable finalizes a variable declaration: for a local it simply
// marks the slot initialized, since its value is already sitting on top of
// the stack; for a global it emits the byte code that stores the stack top
// under the given name constant.
func (c *Compiler) defineVariable(nameConstant byte) {
	if c.cur.scopeDepth > 0 {
		c.markInitialized()
		return
	}
	c.emitOpByte(bytecode.OpDefineGlobal, nameConstant)
}

// resolveLocal looks up name in s's own locals, innermost scope first.
// Returns -1 if not found, and reports an error if the matching local's
// initializer has not yet completed (a self-reference inside its own
// initializer).
func (c *Compiler) resolveLocal(s *state, name string) int {
	for i := len(s.locals) - 1; i >= 0; i-- {
		if s.locals[i].name == name {
			if s.locals[i].depth == -1 {
				c.error("Cannot read local variable in its own initializer")
			}
			return i
		}
	}
	return -1
}

// resolveUpvalue looks up name as a free variable reachable from s's
// enclosing function chain, threading an upvalue reference through every
// intermediate function so each one only ever refers to its immediate
// parent. Returns -1 if name resolves to neither a local nor an upvalue
// anywhere in the chain (the caller then treats it as global).
func (c *Compiler) resolveUpvalue(s *state, name string) int {
	if s.enclosing == nil {
		return -1
	}
	if local := c.resolveLocal(s.enclosing, name); local != -1 {
		s.enclosing.locals[local].isCaptured = true
		return c.addUpvalue(s, byte(local), true)
	}
	if up := c.resolveUpvalue(s.enclosing, name); up != -1 {
		return c.addUpvalue(s, byte(up), false)
	}
	return -1
}

func (c *Compiler) addUpvalue(s *state, index byte, isLocal bool) int {
	for i, u := range s.upvalues {
		if u.index == index && u.isLocal == isLocal {
			return i
		}
	}
	if len(s.upvalues) >= 256 {
		c.error("Too many closure variables in function")
		return 0
	}
	s.upvalues = append(s.upvalues, upvalueRef{index: index, isLocal: isLocal})
	return len(s.upvalues) - 1
}
