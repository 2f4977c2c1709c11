package predicate

import "strings"

const tokenSeparator = "_"

// ParseCriterion splits a compound slot name such as "created_at_gt" into
// the target field name and the operator it requests.
//
// Tokens are scanned right to left and the shortest suffix that spells an
// operator wins. A "not" token directly in front of the match upgrades it
// to the negated operator when the vocabulary has one. A name without any
// operator suffix targets the whole name with OpEqual.
func ParseCriterion(name string) (string, Operator) {
	tokens := strings.Split(name, tokenSeparator)

	for i := len(tokens) - 1; i >= 0; i-- {
		candidate := strings.Join(tokens[i:], "")

		op, ok := ParseOperator(candidate)
		if !ok {
			continue
		}

		if i > 0 && tokens[i-1] == negationPrefix {
			if negated, ok := ParseOperator(negationPrefix + candidate); ok {
				return strings.Join(tokens[:i-1], tokenSeparator), negated
			}
		}

		return strings.Join(tokens[:i], tokenSeparator), op
	}

	return name, OpEqual
}
