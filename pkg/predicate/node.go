package predicate

type (
	// Slot is one declared criterion of a filter specification. Only slots
	// with Set participate in the compiled predicate.
	Slot struct {
		Name  string
		Value any
		Set   bool
	}

	// Node is implemented by filter specification types for records of
	// type T. Slots must be reported in a stable order.
	Node[T any] interface {
		Slots() []Slot
		Children() (and []Node[T], or []Node[T])
	}

	// Spec is a Node built from an explicit list of slots.
	Spec[T any] struct {
		Criteria []Slot
		And      []Node[T]
		Or       []Node[T]
	}

	// Criterion is a set slot resolved to its target field and operator.
	Criterion struct {
		Slot  string
		Field string
		Op    Operator
		Value any
	}
)

// Ptr declares a slot that is set when v is non-nil. The slot value is
// the pointee.
func Ptr[V any](name string, v *V) Slot {
	if v == nil {
		return Unset(name)
	}

	return Slot{Name: name, Value: *v, Set: true}
}

// List declares a slot that is set when values is non-nil.
func List[V any](name string, values []V) Slot {
	if values == nil {
		return Unset(name)
	}

	return Slot{Name: name, Value: values, Set: true}
}

// Value declares a slot that is always set. The value is used verbatim,
// so a pointer value acts as an optional literal.
func Value(name string, v any) Slot {
	return Slot{Name: name, Value: v, Set: true}
}

func Unset(name string) Slot {
	return Slot{Name: name}
}

// Nodes widens a typed child slice to []Node[T].
func Nodes[T any, N Node[T]](children []N) []Node[T] {
	if len(children) == 0 {
		return nil
	}

	out := make([]Node[T], 0, len(children))
	for _, child := range children {
		out = append(out, child)
	}

	return out
}

func (s *Spec[T]) Slots() []Slot {
	if s == nil {
		return nil
	}

	return s.Criteria
}

func (s *Spec[T]) Children() ([]Node[T], []Node[T]) {
	if s == nil {
		return nil, nil
	}

	return s.And, s.Or
}

// Resolve parses the slot name into a Criterion.
func (s Slot) Resolve() Criterion {
	field, op := ParseCriterion(s.Name)

	return Criterion{
		Slot:  s.Name,
		Field: field,
		Op:    op,
		Value: s.Value,
	}
}
