package argerr

import (
	"fmt"
	"strings"
)

// List bundles detail errors under one error that describes what they are.
type List struct {
	// What describes what kind of errors this list holds.
	What error

	// Children is the detail errors.
	Children []error
}

// Error renders What followed by every child, one per line, indented.
// Multi-line children stay aligned under their first line.
func (l List) Error() string {
	var b strings.Builder
	b.WriteString(l.What.Error())
	b.WriteByte(':')

	for _, child := range l.Children {
		for _, line := range strings.Split(child.Error(), "\n") {
			b.WriteString("\n  ")
			b.WriteString(line)
		}
	}

	return b.String()
}

// Unwrap returns What so the standard helpers can match the list's kind.
func (l List) Unwrap() error {
	return l.What
}

// Is matches What and every direct child.
func (l List) Is(err error) bool {
	if l.What == err {
		return true
	}
	for _, child := range l.Children {
		if child == err {
			return true
		}
	}
	return false
}

// ListBuilder collects errors and builds a List from them.
type ListBuilder struct {
	What     error
	Children []error
}

// Push appends errors as children.
func (lb *ListBuilder) Push(err ...error) {
	lb.Children = append(lb.Children, err...)
}

// Pushf formats a new error and appends it.
func (lb *ListBuilder) Pushf(format string, values ...interface{}) {
	lb.Push(fmt.Errorf(format, values...))
}

// Build returns the collected List, or nil when nothing was pushed. The nil
// return lets validation code use errs.Build() as its final return value.
func (lb *ListBuilder) Build() error {
	if len(lb.Children) == 0 {
		return nil
	}
	return List{What: lb.What, Children: lb.Children}
}
