package protocol

import "fmt"

type Kind uint8

const (
	KindIntegrity Kind = iota + 1
	KindUnknownCommand
	KindCapacity
	KindPayload
	KindTimeout
	KindUnexpected
	KindCommand
)

var kindNames = map[Kind]string{
	KindIntegrity:      "integrity",
	KindUnknownCommand: "unknown command",
	KindCapacity:       "capacity",
	KindPayload:        "payload",
	KindTimeout:        "timeout",
	KindUnexpected:     "unexpected",
	KindCommand:        "command",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Error is a classified protocol failure. The reason is what travels
// to the peer inside an error packet.
type Error struct {
	Kind   Kind
	Reason string
}

var (
	ErrIntegrity      = &Error{Kind: KindIntegrity}
	ErrUnknownCommand = &Error{Kind: KindUnknownCommand}
	ErrCapacity       = &Error{Kind: KindCapacity}
	ErrPayload        = &Error{Kind: KindPayload}
	ErrTimeout        = &Error{Kind: KindTimeout}
	ErrUnexpected     = &Error{Kind: KindUnexpected}
	ErrCommand        = &Error{Kind: KindCommand}
)

func NewError(kind Kind, format string, v ...interface{}) *Error {
	return &Error{Kind: kind, Reason: fmt.Sprintf(format, v...)}
}

func (e *Error) Error() string {
	if e.Reason == "" {
		return e.Kind.String() + " error"
	}
	return e.Reason
}

// Is matches any error of the same kind against a sentinel without reason.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Reason == "" || t.Reason == e.Reason)
}
