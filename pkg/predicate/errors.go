package predicate

import "errors"

var (
	ErrFieldNotFound       = errors.New("field not found")
	ErrTypeMismatch        = errors.New("type mismatch")
	ErrMalformedOperand    = errors.New("malformed operand")
	ErrNoMatchingCompiler  = errors.New("no matching compiler")
	ErrUnsupportedOperator = errors.New("unsupported operator")
)
