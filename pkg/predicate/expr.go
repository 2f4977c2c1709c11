package predicate

import (
	"fmt"
	"reflect"
)

type (
	// Expr is a node of a compiled boolean expression. Eval takes the
	// record as a reflect.Value and never panics.
	Expr interface {
		fmt.Stringer
		Eval(record reflect.Value) bool
	}

	// Const is a constant boolean expression.
	Const bool

	AndExpr struct {
		Left  Expr
		Right Expr
	}

	OrExpr struct {
		Left  Expr
		Right Expr
	}

	// Comparison tests one record field against a literal.
	//
	// Value holds the literal converted to the field's base type, a []any
	// for membership tests, and nil for a null literal or for the
	// null/empty tests.
	Comparison struct {
		Field    string
		Op       Operator
		Value    any
		Nullable bool

		field *fieldInfo
		test  func(reflect.Value) bool
	}
)

const (
	True  Const = true
	False Const = false
)

var opSymbols = map[Operator]string{
	OpEqual:          "=",
	OpNot:            "!=",
	OpIn:             "IN",
	OpNotIn:          "NOT IN",
	OpLessThan:       "<",
	OpLessOrEqual:    "<=",
	OpGreaterThan:    ">",
	OpGreaterOrEqual: ">=",
	OpContains:       "CONTAINS",
	OpNotContains:    "NOT CONTAINS",
	OpStartsWith:     "STARTS WITH",
	OpNotStartsWith:  "NOT STARTS WITH",
	OpEndsWith:       "ENDS WITH",
	OpNotEndsWith:    "NOT ENDS WITH",
	OpIsNull:         "IS NULL",
	OpIsNotNull:      "IS NOT NULL",
	OpIsEmpty:        "IS EMPTY",
	OpIsNotEmpty:     "IS NOT EMPTY",
}

// AndOf returns the conjunction of left and right. A True operand is
// dropped.
func AndOf(left, right Expr) Expr {
	if left == True {
		return right
	}

	if right == True {
		return left
	}

	return &AndExpr{Left: left, Right: right}
}

// OrOf returns the disjunction of left and right. A False operand is
// dropped.
func OrOf(left, right Expr) Expr {
	if left == False {
		return right
	}

	if right == False {
		return left
	}

	return &OrExpr{Left: left, Right: right}
}

func (c Const) Eval(reflect.Value) bool { return bool(c) }

func (c Const) String() string {
	if c {
		return "TRUE"
	}

	return "FALSE"
}

func (e *AndExpr) Eval(record reflect.Value) bool {
	return e.Left.Eval(record) && e.Right.Eval(record)
}

func (e *AndExpr) String() string {
	return fmt.Sprintf("(%s AND %s)", e.Left, e.Right)
}

func (e *OrExpr) Eval(record reflect.Value) bool {
	return e.Left.Eval(record) || e.Right.Eval(record)
}

func (e *OrExpr) String() string {
	return fmt.Sprintf("(%s OR %s)", e.Left, e.Right)
}

func (c *Comparison) Eval(record reflect.Value) bool {
	if c.test == nil || c.field == nil {
		return false
	}

	return c.test(c.field.value(record))
}

func (c *Comparison) String() string {
	symbol, ok := opSymbols[c.Op]
	if !ok {
		symbol = c.Op.String()
	}

	if c.Op.IsToggle() {
		return fmt.Sprintf("%s %s", c.Field, symbol)
	}

	if c.Value == nil {
		return fmt.Sprintf("%s %s NULL", c.Field, symbol)
	}

	if s, ok := c.Value.(string); ok {
		return fmt.Sprintf("%s %s %q", c.Field, symbol, s)
	}

	return fmt.Sprintf("%s %s %v", c.Field, symbol, c.Value)
}

// Walk calls fn for every node of e in depth-first order, stopping early
// when fn returns false.
func Walk(e Expr, fn func(Expr) bool) bool {
	if !fn(e) {
		return false
	}

	switch n := e.(type) {
	case *AndExpr:
		return Walk(n.Left, fn) && Walk(n.Right, fn)
	case *OrExpr:
		return Walk(n.Left, fn) && Walk(n.Right, fn)
	}

	return true
}
