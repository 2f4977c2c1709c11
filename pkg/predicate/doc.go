// Package predicate compiles sparse filter specifications into boolean
// predicates over a record type.
//
// A specification exposes named criterion slots such as "age_gt" or
// "name_not_contains". The name is split into a target field and one of
// the operators in the vocabulary (see ParseCriterion), each set slot is
// emitted as a typed comparison against the record field, and the slots of
// a node are folded together with its And and Or children:
//
//	(criteria AND and-children) OR or-child-1 OR or-child-2 ...
//
// Compile is the typed entry point. Registry and Cache provide a
// type-erased one for callers that only learn the specification type at
// run time.
package predicate
