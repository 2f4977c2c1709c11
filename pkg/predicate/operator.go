package predicate

import "strings"

// Operator is one of the comparison kinds a criterion slot can request.
// Its value is the canonical lowercase token used in slot names.
type Operator string

const (
	OpEqual          Operator = "equal"
	OpNot            Operator = "not"
	OpIn             Operator = "in"
	OpNotIn          Operator = "notin"
	OpLessThan       Operator = "lt"
	OpLessOrEqual    Operator = "lte"
	OpGreaterThan    Operator = "gt"
	OpGreaterOrEqual Operator = "gte"
	OpContains       Operator = "contains"
	OpNotContains    Operator = "notcontains"
	OpStartsWith     Operator = "startswith"
	OpNotStartsWith  Operator = "notstartswith"
	OpEndsWith       Operator = "endswith"
	OpNotEndsWith    Operator = "notendswith"
	OpIsNull         Operator = "null"
	OpIsNotNull      Operator = "notnull"
	OpIsEmpty        Operator = "empty"
	OpIsNotEmpty     Operator = "notempty"
)

// negationPrefix is the token that may precede an operator to negate it.
const negationPrefix = "not"

var operators = [...]Operator{
	OpEqual,
	OpNot,
	OpIn,
	OpNotIn,
	OpLessThan,
	OpLessOrEqual,
	OpGreaterThan,
	OpGreaterOrEqual,
	OpContains,
	OpNotContains,
	OpStartsWith,
	OpNotStartsWith,
	OpEndsWith,
	OpNotEndsWith,
	OpIsNull,
	OpIsNotNull,
	OpIsEmpty,
	OpIsNotEmpty,
}

// Operators returns the full vocabulary in declaration order.
func Operators() []Operator {
	out := make([]Operator, len(operators))
	copy(out, operators[:])

	return out
}

// ParseOperator looks up a token in the vocabulary, ignoring case.
func ParseOperator(token string) (Operator, bool) {
	op := Operator(strings.ToLower(token))
	if !op.IsValid() {
		return "", false
	}

	return op, true
}

func (o Operator) String() string {
	return string(o)
}

func (o Operator) IsValid() bool {
	switch o {
	case OpEqual, OpNot, OpIn, OpNotIn,
		OpLessThan, OpLessOrEqual, OpGreaterThan, OpGreaterOrEqual,
		OpContains, OpNotContains, OpStartsWith, OpNotStartsWith,
		OpEndsWith, OpNotEndsWith,
		OpIsNull, OpIsNotNull, OpIsEmpty, OpIsNotEmpty:
		return true
	default:
		return false
	}
}

// Negated returns the "not"-prefixed form of o when the vocabulary has one.
func (o Operator) Negated() (Operator, bool) {
	return ParseOperator(negationPrefix + string(o))
}

// IsToggle reports whether the operator takes a boolean switch instead of
// a comparand.
func (o Operator) IsToggle() bool {
	switch o {
	case OpIsNull, OpIsNotNull, OpIsEmpty, OpIsNotEmpty:
		return true
	default:
		return false
	}
}
