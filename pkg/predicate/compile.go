package predicate

import (
	"fmt"
	"reflect"
)

type (
	// Predicate reports whether a record satisfies a compiled filter.
	Predicate[T any] func(T) bool

	compiler[T any] struct {
		record reflect.Type
	}
)

// Compile folds a filter specification tree into a predicate over T.
func Compile[T any](spec Node[T]) (Predicate[T], error) {
	expr, err := Build(spec)
	if err != nil {
		return nil, err
	}

	return Bind[T](expr), nil
}

// Bind turns an expression into a predicate over T.
func Bind[T any](expr Expr) Predicate[T] {
	if expr == True {
		return func(T) bool { return true }
	}

	return func(record T) bool {
		return expr.Eval(reflect.ValueOf(&record).Elem())
	}
}

// Build folds a filter specification tree into an expression.
//
// A node's AND children and its own set criteria are combined with AND.
// OR children are then combined as siblings of that conjunction, not
// nested inside it: (criteria AND and-children) OR or-1 OR or-2 ...
func Build[T any](spec Node[T]) (Expr, error) {
	c := compiler[T]{record: reflect.TypeFor[T]()}

	return c.node(spec)
}

func (c compiler[T]) node(spec Node[T]) (Expr, error) {
	if isNilNode(spec) {
		return True, nil
	}

	and, or := spec.Children()

	var acc Expr = True

	for _, child := range and {
		expr, err := c.node(child)
		if err != nil {
			return nil, err
		}

		acc = AndOf(acc, expr)
	}

	for _, slot := range spec.Slots() {
		if !slot.Set {
			continue
		}

		expr, err := c.criterion(slot.Resolve())
		if err != nil {
			return nil, err
		}

		acc = AndOf(acc, expr)
	}

	if len(or) == 0 {
		return acc, nil
	}

	var res Expr = False

	res = OrOf(res, acc)

	for _, child := range or {
		expr, err := c.node(child)
		if err != nil {
			return nil, err
		}

		res = OrOf(res, expr)
	}

	return res, nil
}

func (c compiler[T]) criterion(crit Criterion) (Expr, error) {
	expr, err := Emit(c.record, crit.Field, crit.Op, crit.Value)
	if err != nil {
		return nil, fmt.Errorf("criterion %q: %w", crit.Slot, err)
	}

	return expr, nil
}

// isNilNode reports whether n is nil or a typed nil pointer.
func isNilNode[T any](n Node[T]) bool {
	if n == nil {
		return true
	}

	v := reflect.ValueOf(n)

	return v.Kind() == reflect.Pointer && v.IsNil()
}
