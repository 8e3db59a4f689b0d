package errors

import (
	"fmt"
	"runtime"
	"strings"
)

// StackFrame describes a single resolved frame within a stacktrace.
type StackFrame struct {
	File           string
	LineNumber     int
	Name           string
	Package        string
	ProgramCounter uintptr
}

// NewStackFrame resolves a program counter into a StackFrame.
func NewStackFrame(pc uintptr) (frame StackFrame) {
	frame = StackFrame{ProgramCounter: pc}
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return
	}
	frame.Package, frame.Name = packageAndName(fn.Name())

	// pc -1 because the program counters we use are usually return addresses,
	// and we want the line that corresponds to the function call.
	frame.File, frame.LineNumber = fn.FileLine(pc - 1)
	return
}

// String returns the stackframe formatted in the same way as go does in
// runtime/debug.Stack().
func (frame StackFrame) String() string {
	return fmt.Sprintf("%s:%d (0x%x)\n\t%s.%s\n", frame.File, frame.LineNumber, frame.ProgramCounter, frame.Package, frame.Name)
}

func packageAndName(name string) (string, string) {
	// Trailing dot separates the package path from the function name, but
	// the package path itself may contain dots (e.g. github.com/foo/bar).
	pkg := ""
	if lastslash := strings.LastIndex(name, "/"); lastslash >= 0 {
		pkg = name[:lastslash] + "/"
		name = name[lastslash+1:]
	}
	if period := strings.Index(name, "."); period >= 0 {
		pkg += name[:period]
		name = name[period+1:]
	}
	return pkg, name
}
