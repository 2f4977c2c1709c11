package predicate

import (
	"fmt"
	"reflect"
	"strings"
)

// EmitFor emits the comparison of field against literal on record type T.
func EmitFor[T any](field string, op Operator, literal any) (Expr, error) {
	return Emit(reflect.TypeFor[T](), field, op, literal)
}

// Emit builds one comparison of the named field of record against literal.
//
// Optional (pointer) fields and optional literals are lifted so that both
// operands are compared on the field's base type: equality with null holds
// only when both sides are null, and ordered or text comparisons involving
// null never hold.
func Emit(record reflect.Type, field string, op Operator, literal any) (Expr, error) {
	info, err := lookupField(record, field)
	if err != nil {
		return nil, err
	}

	switch op {
	case OpEqual, OpNot:
		return emitEquality(info, op, literal)
	case OpIn, OpNotIn:
		return emitMembership(info, op, literal)
	case OpLessThan, OpLessOrEqual, OpGreaterThan, OpGreaterOrEqual:
		return emitOrdered(info, op, literal)
	case OpContains, OpNotContains, OpStartsWith, OpNotStartsWith, OpEndsWith, OpNotEndsWith:
		return emitText(info, op, literal)
	case OpIsNull, OpIsNotNull:
		return emitNullTest(info, op, literal)
	case OpIsEmpty, OpIsNotEmpty:
		return emitEmptyTest(info, op, literal)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedOperator, op)
	}
}

func newComparison(info *fieldInfo, op Operator, value any, test func(reflect.Value) bool) *Comparison {
	return &Comparison{
		Field:    info.Name,
		Op:       op,
		Value:    value,
		Nullable: info.Nilable,
		field:    info,
		test:     test,
	}
}

func negate(test func(reflect.Value) bool) func(reflect.Value) bool {
	return func(v reflect.Value) bool {
		return !test(v)
	}
}

func emitEquality(info *fieldInfo, op Operator, literal any) (Expr, error) {
	eq, ok := equalityFor(info.Base)
	if !ok {
		return nil, fmt.Errorf("%w: field %s of type %s is not comparable", ErrTypeMismatch, info.Name, info.Type)
	}

	var (
		value any
		test  func(reflect.Value) bool
	)

	lit, null := liftLiteral(literal)
	if null {
		test = isNull
	} else {
		conv, err := convertLiteral(lit, info.Base)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", info.Name, err)
		}

		value = conv.Interface()
		test = func(v reflect.Value) bool {
			return !isNull(v) && eq(v, conv)
		}
	}

	if op == OpNot {
		test = negate(test)
	}

	return newComparison(info, op, value, test), nil
}

func emitMembership(info *fieldInfo, op Operator, literal any) (Expr, error) {
	eq, ok := equalityFor(info.Base)
	if !ok {
		return nil, fmt.Errorf("%w: field %s of type %s is not comparable", ErrTypeMismatch, info.Name, info.Type)
	}

	list, null := liftLiteral(literal)
	if null || (list.Kind() != reflect.Slice && list.Kind() != reflect.Array) {
		return nil, fmt.Errorf("%w: %s expects a list for field %s, got %T", ErrMalformedOperand, op, info.Name, literal)
	}

	var (
		members = make([]reflect.Value, 0, list.Len())
		values  = make([]any, 0, list.Len())
		hasNull bool
	)

	for i := range list.Len() {
		elem, null := liftLiteral(interfaceOf(list.Index(i)))
		if null {
			hasNull = true
			values = append(values, nil)

			continue
		}

		conv, err := convertLiteral(elem, info.Base)
		if err != nil {
			return nil, fmt.Errorf("field %s, element %d: %w", info.Name, i, err)
		}

		members = append(members, conv)
		values = append(values, conv.Interface())
	}

	test := func(v reflect.Value) bool {
		if isNull(v) {
			return hasNull
		}

		for _, m := range members {
			if eq(v, m) {
				return true
			}
		}

		return false
	}

	if op == OpNotIn {
		test = negate(test)
	}

	return newComparison(info, op, values, test), nil
}

func emitOrdered(info *fieldInfo, op Operator, literal any) (Expr, error) {
	ord, ok := orderingFor(info.Base)
	if !ok {
		return nil, fmt.Errorf("%w: field %s of type %s is not ordered", ErrTypeMismatch, info.Name, info.Type)
	}

	lit, null := liftLiteral(literal)
	if null {
		return newComparison(info, op, nil, func(reflect.Value) bool { return false }), nil
	}

	conv, err := convertLiteral(lit, info.Base)
	if err != nil {
		return nil, fmt.Errorf("field %s: %w", info.Name, err)
	}

	var holds func(int) bool

	switch op {
	case OpLessThan:
		holds = func(c int) bool { return c < 0 }
	case OpLessOrEqual:
		holds = func(c int) bool { return c <= 0 }
	case OpGreaterThan:
		holds = func(c int) bool { return c > 0 }
	default:
		holds = func(c int) bool { return c >= 0 }
	}

	return newComparison(info, op, conv.Interface(), func(v reflect.Value) bool {
		if isNull(v) {
			return false
		}

		c, ordered := ord(v, conv)

		return ordered && holds(c)
	}), nil
}

func emitText(info *fieldInfo, op Operator, literal any) (Expr, error) {
	if info.Base.Kind() != reflect.String {
		return nil, fmt.Errorf("%w: %s needs a text field, %s is %s", ErrTypeMismatch, op, info.Name, info.Type)
	}

	lit, null := liftLiteral(literal)
	if null {
		return nil, fmt.Errorf("%w: %s on field %s needs a non-null text operand", ErrMalformedOperand, op, info.Name)
	}

	if lit.Kind() != reflect.String {
		return nil, fmt.Errorf("%w: %s on field %s needs text, got %s", ErrTypeMismatch, op, info.Name, lit.Type())
	}

	var (
		needle = lit.String()
		match  func(s, needle string) bool
	)

	switch op {
	case OpContains, OpNotContains:
		match = strings.Contains
	case OpStartsWith, OpNotStartsWith:
		match = strings.HasPrefix
	default:
		match = strings.HasSuffix
	}

	test := func(v reflect.Value) bool {
		return !isNull(v) && match(v.String(), needle)
	}

	switch op {
	case OpNotContains, OpNotStartsWith, OpNotEndsWith:
		test = negate(test)
	}

	return newComparison(info, op, needle, test), nil
}

// toggle reads the boolean switch of a null or empty test.
func toggle(info *fieldInfo, op Operator, literal any) (bool, error) {
	lit, null := liftLiteral(literal)
	if null || lit.Kind() != reflect.Bool {
		return false, fmt.Errorf("%w: %s on field %s needs a boolean, got %T", ErrMalformedOperand, op, info.Name, literal)
	}

	return lit.Bool(), nil
}

func emitNullTest(info *fieldInfo, op Operator, literal any) (Expr, error) {
	on, err := toggle(info, op, literal)
	if err != nil {
		return nil, err
	}

	if on == (op == OpIsNull) {
		return newComparison(info, OpIsNull, nil, isNull), nil
	}

	return newComparison(info, OpIsNotNull, nil, negate(isNull)), nil
}

func emitEmptyTest(info *fieldInfo, op Operator, literal any) (Expr, error) {
	switch info.Base.Kind() {
	case reflect.String, reflect.Slice, reflect.Map, reflect.Array:
	default:
		return nil, fmt.Errorf("%w: %s needs text or a collection, %s is %s", ErrTypeMismatch, op, info.Name, info.Type)
	}

	on, err := toggle(info, op, literal)
	if err != nil {
		return nil, err
	}

	isEmpty := func(v reflect.Value) bool {
		return isNull(v) || v.Len() == 0
	}

	if on == (op == OpIsEmpty) {
		return newComparison(info, OpIsEmpty, nil, isEmpty), nil
	}

	return newComparison(info, OpIsNotEmpty, nil, negate(isEmpty)), nil
}

// interfaceOf unwraps list elements held in an interface, as in []any.
func interfaceOf(v reflect.Value) any {
	if !v.IsValid() || !v.CanInterface() {
		return nil
	}

	return v.Interface()
}
