package errcode

// Code is a stable status identifier returned by every fallible operation.
// It is a string newtype, comparable, allocation-free, and implements error.
type Code string

func (c Code) Error() string { return string(c) }

// Canonical codes (short, stable).
const (
	OK          Code = "ok"
	InvalidArgs Code = "invalid_args" // nil/zero/out-of-range caller input
	NotBound    Code = "not_bound"    // instance has no portable/port binding
	Unsupported Code = "unsupported"  // the binding does not provide this operation
	PortError   Code = "port_error"   // the underlying RTOS or driver call failed
	NoResource  Code = "no_resource"  // handle slot or memory exhaustion
	Timeout     Code = "timeout"
	Overflow    Code = "overflow" // bounded buffer would overflow
	Empty       Code = "empty"    // bounded buffer has nothing to give
	Busy        Code = "busy"
	InUse       Code = "in_use"     // handle already registered
	NotFound    Code = "not_found"  // lookup by name/identity missed
	TableFull   Code = "table_full" // fixed-capacity table exhausted
	FromISR     Code = "from_isr"   // operation not callable from interrupt context

	Error Code = "error" // generic fallback
)

// E keeps context and a cause alongside a Code.
type E struct {
	C   Code
	Op  string
	Msg string
	Err error
}

func (e *E) Error() string {
	s := string(e.C)
	if e.Op != "" {
		s = e.Op + ": " + s
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	return s
}
func (e *E) Unwrap() error { return e.Err }
func (e *E) Code() Code    { return e.C }

// Wrap attaches an operation name and cause to a Code.
func Wrap(c Code, op string, err error) error {
	return &E{C: c, Op: op, Err: err}
}

// Of extracts a Code from an error, defaulting to Error.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	if c, ok := err.(Code); ok {
		return c
	}
	type coder interface{ Code() Code }
	if x, ok := err.(coder); ok {
		return x.Code()
	}
	return Error
}

// Is reports whether err carries the given Code.
func Is(err error, c Code) bool { return Of(err) == c }
