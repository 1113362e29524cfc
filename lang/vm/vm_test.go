package vm_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mna/emberlang/lang/vm"
)

func run(t *testing.T, src string) (stdout, stderr string, result vm.Result) {
	t.Helper()
	var out, errOut bytes.Buffer
	m := vm.New(vm.Config{GCGrowthFactor: 2, InitialGCThreshold: 1 << 20, MaxFrames: 64}, &out, &errOut)
	result = m.Interpret([]byte(src))
	return out.String(), errOut.String(), result
}

func TestInterpretArithmeticAndPrint(t *testing.T) {
	out, _, result := run(t, `print 1 + 2 * 3;`)
	require.Equal(t, vm.OK, result)
	assert.Equal(t, "7\n", out)
}

func TestInterpretStringConcatenation(t *testing.T) {
	out, _, result := run(t, `print "foo" + "bar";`)
	require.Equal(t, vm.OK, result)
	assert.Equal(t, "foobar\n", out)
}

func TestInterpretGlobalsAndAssignment(t *testing.T) {
	out, _, result := run(t, `var x = 10; x = x + 5; print x;`)
	require.Equal(t, vm.OK, result)
	assert.Equal(t, "15\n", out)
}

func TestInterpretControlFlow(t *testing.T) {
	src := `
		var total = 0;
		for (var i = 0; i < 5; i = i + 1) {
			if (i == 2) { continue_marker(); }
			total = total + i;
		}
		print total;
	`
	// "continue" isn't a keyword here, so replace with a no-op native call.
	src = strings.ReplaceAll(src, "continue_marker();", "clock();")
	out, _, result := run(t, src)
	require.Equal(t, vm.OK, result)
	assert.Equal(t, "10\n", out)
}

func TestInterpretWhileAndBreak(t *testing.T) {
	src := `
		var i = 0;
		while (true) {
			if (i == 3) { break; }
			i = i + 1;
		}
		print i;
	`
	out, _, result := run(t, src)
	require.Equal(t, vm.OK, result)
	assert.Equal(t, "3\n", out)
}

func TestInterpretFunctionsAndReturn(t *testing.T) {
	src := `
		fun add(a, b) { return a + b; }
		print add(3, 4);
	`
	out, _, result := run(t, src)
	require.Equal(t, vm.OK, result)
	assert.Equal(t, "7\n", out)
}

func TestInterpretClosuresCaptureUpvalues(t *testing.T) {
	src := `
		fun makeCounter() {
			var count = 0;
			fun increment() {
				count = count + 1;
				return count;
			}
			return increment;
		}
		var counter = makeCounter();
		print counter();
		print counter();
		print counter();
	`
	out, _, result := run(t, src)
	require.Equal(t, vm.OK, result)
	assert.Equal(t, "1\n2\n3\n", out)
}

func TestInterpretLocalWriteAfterCaptureIsVisibleThroughUpvalue(t *testing.T) {
	src := `
		fun outer() {
			var x = 1;
			fun reader() { return x; }
			var before = reader();
			x = 99;
			var after = reader();
			return before + after * 1000;
		}
		print outer();
	`
	out, _, result := run(t, src)
	require.Equal(t, vm.OK, result)
	assert.Equal(t, "99001\n", out, "the enclosing frame's direct write to x must be observed by the still-open upvalue")
}

func TestInterpretUpvalueWriteIsVisibleInEnclosingFrame(t *testing.T) {
	src := `
		fun outer() {
			var x = 1;
			fun writer() { x = 42; }
			writer();
			return x;
		}
		print outer();
	`
	out, _, result := run(t, src)
	require.Equal(t, vm.OK, result)
	assert.Equal(t, "42\n", out, "a write through an open upvalue must be observed by the enclosing frame's own local")
}

func TestInterpretCapturedUpvalueSurvivesHeavyStackChurn(t *testing.T) {
	// Pushes and pops thousands of temporaries between the capture and the
	// eventual read/write, the scenario that would expose a captured
	// *value.Value pointing into a value-stack backing array that had since
	// moved out from under it.
	src := `
		fun outer() {
			var x = 1;
			fun accessor() { return x; }
			var total = 0;
			for (var i = 0; i < 5000; i = i + 1) {
				total = total + sqrt(i * i);
			}
			x = 7;
			return accessor() + 0;
		}
		print outer();
	`
	out, _, result := run(t, src)
	require.Equal(t, vm.OK, result)
	assert.Equal(t, "7\n", out)
}

func TestInterpretRecursion(t *testing.T) {
	src := `
		fun fib(n) {
			if (n < 2) { return n; }
			return fib(n - 1) + fib(n - 2);
		}
		print fib(10);
	`
	out, _, result := run(t, src)
	require.Equal(t, vm.OK, result)
	assert.Equal(t, "55\n", out)
}

func TestInterpretUndefinedVariableRuntimeError(t *testing.T) {
	_, errOut, result := run(t, `print nope;`)
	assert.Equal(t, vm.RuntimeError, result)
	assert.Contains(t, errOut, "Undefined variable 'nope'")
	assert.Contains(t, errOut, "[line 1] in script")
}

func TestInterpretTypeErrorOperandsMustBeNumbers(t *testing.T) {
	_, errOut, result := run(t, `print "a" - 1;`)
	assert.Equal(t, vm.RuntimeError, result)
	assert.Contains(t, errOut, "Operands must be numbers")
}

func TestInterpretStackTraceAcrossCalls(t *testing.T) {
	src := `
		fun inner() { return 1 + nope; }
		fun outer() { return inner(); }
		outer();
	`
	_, errOut, result := run(t, src)
	assert.Equal(t, vm.RuntimeError, result)
	assert.Contains(t, errOut, "Undefined variable 'nope'")
	assert.Contains(t, errOut, "in inner()")
	assert.Contains(t, errOut, "in outer()")
	assert.Contains(t, errOut, "in script")
}

func TestInterpretArityMismatch(t *testing.T) {
	src := `
		fun add(a, b) { return a + b; }
		add(1);
	`
	_, errOut, result := run(t, src)
	assert.Equal(t, vm.RuntimeError, result)
	assert.Contains(t, errOut, "Expected 2 arguments but got 1")
}

func TestInterpretCompileErrorDoesNotRun(t *testing.T) {
	out, errOut, result := run(t, `print ;`)
	assert.Equal(t, vm.CompileError, result)
	assert.Empty(t, out)
	assert.Contains(t, errOut, "Expect expression")
}

func TestInterpretNativeFunctions(t *testing.T) {
	out, _, result := run(t, `print sqrt(16); print len("hello"); print type(1);`)
	require.Equal(t, vm.OK, result)
	assert.Equal(t, "4\n5\nnumber\n", out)
}

func TestInterpretReusesVMAcrossCalls(t *testing.T) {
	var out, errOut bytes.Buffer
	m := vm.New(vm.Config{GCGrowthFactor: 2, InitialGCThreshold: 1 << 20, MaxFrames: 64}, &out, &errOut)

	require.Equal(t, vm.OK, m.Interpret([]byte(`var x = 1;`)))
	require.Equal(t, vm.OK, m.Interpret([]byte(`print x + 1;`)))
	assert.Equal(t, "2\n", out.String())
}

func TestInterpretStressGC(t *testing.T) {
	out, _, result := func() (string, string, vm.Result) {
		var o, e bytes.Buffer
		m := vm.New(vm.Config{StressGC: true, GCGrowthFactor: 2, InitialGCThreshold: 1 << 20, MaxFrames: 64}, &o, &e)
		res := m.Interpret([]byte(`
			fun greet(name) { return "hi " + name; }
			print greet("a");
			print greet("b");
		`))
		return o.String(), e.String(), res
	}()
	require.Equal(t, vm.OK, result)
	assert.Equal(t, "hi a\nhi b\n", out)
}
