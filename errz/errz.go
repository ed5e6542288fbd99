// Package errz defines the closed error taxonomy used by the executor and
// the lazily-formatted condition type that carries a failure from the raise
// site to wherever it is reported. Construction at the failure site records
// only minimal context; message text is built from the bytecode's location
// and argument-name metadata when the condition is actually reported.
package errz

import (
	"fmt"
	"strings"
)

// ErrorType categorizes a failure.
type ErrorType int

const (
	InvalidError ErrorType = iota

	// IDUndefined is the use of an undefined identifier as a value.
	IDUndefined

	// IDUndefinedConditional is the use of an undefined identifier in a
	// conditional context.
	IDUndefinedConditional

	// IndexError is a failed indexing operation.
	IndexError

	// InvalidNumTargets is a wrong count of assignment targets for the
	// results a call produced.
	InvalidNumTargets

	// RHSUndefined is an undefined right-hand side in an assignment.
	RHSUndefined

	// BadAlloc is an allocation failure. Reserved: oversized allocations
	// surface through the Go runtime rather than a raise site today.
	BadAlloc

	// Interrupt is a propagated interrupt.
	Interrupt

	// ExitException is an explicit exit request.
	ExitException

	// Execution is a condition raised by user code or a builtin.
	Execution
)

// String returns a short name for the error type.
func (t ErrorType) String() string {
	switch t {
	case IDUndefined:
		return "undefined identifier"
	case IDUndefinedConditional:
		return "undefined identifier in conditional"
	case IndexError:
		return "index error"
	case InvalidNumTargets:
		return "invalid number of output targets"
	case RHSUndefined:
		return "undefined right-hand side"
	case BadAlloc:
		return "allocation failure"
	case Interrupt:
		return "interrupt"
	case ExitException:
		return "exit"
	case Execution:
		return "execution error"
	default:
		return "invalid"
	}
}

// Metadata is the slice of bytecode side-table data the condition consults
// when its message is built. It is implemented by the bytecode package.
type Metadata interface {
	// FunctionName returns the name of the compiled unit.
	FunctionName() string

	// LocationAt returns the source line/column for an instruction address.
	// ok is false when no location was recorded for the range.
	LocationAt(ip int) (line, column int, ok bool)

	// ArgNamesAt returns the argument names and object name recorded for an
	// instruction address, for argument-specific messages.
	ArgNamesAt(ip int) (argNames []string, objName string, ok bool)
}

// Condition is the uniform error signal. Everything except the type tag and
// minimal site context is optional and filled in lazily.
type Condition struct {
	errType    ErrorType
	ip         int
	identifier string
	userMsg    string
	userID     string
	cause      error
	meta       Metadata
	built      string
}

// NewCondition creates a condition of the given type raised at the given
// instruction address.
func NewCondition(errType ErrorType, ip int) *Condition {
	return &Condition{errType: errType, ip: ip}
}

// NewExecutionError creates a user-raised condition with a message and an
// optional identifier of the form "pkg:id".
func NewExecutionError(id, msg string) *Condition {
	return &Condition{errType: Execution, ip: -1, userID: id, userMsg: msg}
}

// WithIdentifier records the identifier the condition concerns.
func (c *Condition) WithIdentifier(name string) *Condition {
	c.identifier = name
	return c
}

// WithCause records the underlying error.
func (c *Condition) WithCause(cause error) *Condition {
	c.cause = cause
	return c
}

// Attach records the metadata source for lazy message construction. The
// first attachment wins: a condition propagating through caller frames keeps
// the metadata of the frame it was raised in.
func (c *Condition) Attach(meta Metadata) *Condition {
	if c.meta == nil {
		c.meta = meta
	}
	return c
}

// Type returns the condition's category.
func (c *Condition) Type() ErrorType { return c.errType }

// IP returns the instruction address the condition was raised at.
func (c *Condition) IP() int { return c.ip }

// Identifier returns the identifier the condition concerns, or the
// user-supplied condition identifier for execution errors.
func (c *Condition) Identifier() string {
	if c.errType == Execution {
		return c.userID
	}
	return c.identifier
}

// Unwrap returns the underlying cause.
func (c *Condition) Unwrap() error { return c.cause }

// Catchable reports whether a try/catch handler may receive the condition.
// Interrupts and exit requests always propagate.
func (c *Condition) Catchable() bool {
	return c.errType != Interrupt && c.errType != ExitException
}

// Error builds and memoizes the full message text.
func (c *Condition) Error() string {
	if c.built != "" {
		return c.built
	}
	c.built = c.buildMessage()
	return c.built
}

func (c *Condition) buildMessage() string {
	switch c.errType {
	case IDUndefined:
		return fmt.Sprintf("'%s' undefined", c.identifier)
	case IDUndefinedConditional:
		return fmt.Sprintf("'%s' undefined used in conditional context", c.identifier)
	case IndexError:
		var sb strings.Builder
		if c.meta != nil {
			if argNames, objName, ok := c.meta.ArgNamesAt(c.ip); ok {
				if objName != "" {
					sb.WriteString(objName)
					sb.WriteString("(")
					sb.WriteString(strings.Join(argNames, ", "))
					sb.WriteString("): ")
				}
			}
		}
		if c.cause != nil {
			sb.WriteString(c.cause.Error())
		} else {
			sb.WriteString("index out of bound")
		}
		return sb.String()
	case InvalidNumTargets:
		return fmt.Sprintf("element number %s undefined in return list", c.identifier)
	case RHSUndefined:
		return "value on right-hand side of assignment is undefined"
	case BadAlloc:
		return "memory exhausted or requested size too large"
	case Interrupt:
		return "interrupted"
	case ExitException:
		return "exit requested"
	case Execution:
		return c.userMsg
	default:
		if c.cause != nil {
			return c.cause.Error()
		}
		return "unknown error"
	}
}

// Report returns the user-visible report, with the source location when the
// metadata provides one, otherwise "unknown location".
func (c *Condition) Report() string {
	msg := c.Error()
	if c.meta != nil {
		name := c.meta.FunctionName()
		if line, col, ok := c.meta.LocationAt(c.ip); ok {
			if name != "" {
				return fmt.Sprintf("error: %s\nerror: called from %s at line %d column %d", msg, name, line, col)
			}
			return fmt.Sprintf("error: %s (line %d, column %d)", msg, line, col)
		}
	}
	return fmt.Sprintf("error: %s (unknown location)", msg)
}
