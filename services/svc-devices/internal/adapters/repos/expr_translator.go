package repos

import (
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/architeacher/filterspec/pkg/logger"
	"github.com/architeacher/filterspec/pkg/predicate"
	"github.com/architeacher/filterspec/services/svc-devices/internal/domain/model"
)

var (
	ErrUnmappedField             = errors.New("field has no column")
	ErrUntranslatable            = errors.New("expression cannot be translated to SQL")
	likeEscaper                  = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	sqlTrue           sq.Sqlizer = sq.Expr("TRUE")
	sqlFalse          sq.Sqlizer = sq.Expr("FALSE")
)

type (
	// Column describes where a record field is stored.
	Column struct {
		Name  string
		Array bool
	}

	// ExprTranslator renders compiled filter expressions as SQL conditions
	// with the same null semantics as in-memory evaluation: negated tests
	// hold for NULL columns.
	ExprTranslator struct {
		columns map[string]Column
		logger  logger.Logger
	}
)

// DeviceColumns maps Device fields onto the devices table.
var DeviceColumns = map[string]Column{
	"ID":           {Name: "id"},
	"Name":         {Name: "name"},
	"Brand":        {Name: "brand"},
	"State":        {Name: "state"},
	"Owner":        {Name: "owner"},
	"BatteryLevel": {Name: "battery_level"},
	"Tags":         {Name: "tags", Array: true},
	"CreatedAt":    {Name: "created_at"},
	"UpdatedAt":    {Name: "updated_at"},
}

func NewExprTranslator(columns map[string]Column, log logger.Logger) *ExprTranslator {
	return &ExprTranslator{columns: columns, logger: log}
}

func (t *ExprTranslator) Translate(expr predicate.Expr) (sq.Sqlizer, error) {
	switch e := expr.(type) {
	case predicate.Const:
		if e {
			return sqlTrue, nil
		}

		return sqlFalse, nil

	case *predicate.AndExpr:
		left, right, err := t.pair(e.Left, e.Right)
		if err != nil {
			return nil, err
		}

		return sq.And{left, right}, nil

	case *predicate.OrExpr:
		left, right, err := t.pair(e.Left, e.Right)
		if err != nil {
			return nil, err
		}

		return sq.Or{left, right}, nil

	case *predicate.Comparison:
		return t.comparison(e)
	}

	return nil, fmt.Errorf("%w: %T", ErrUntranslatable, expr)
}

func (t *ExprTranslator) pair(left, right predicate.Expr) (sq.Sqlizer, sq.Sqlizer, error) {
	l, err := t.Translate(left)
	if err != nil {
		return nil, nil, err
	}

	r, err := t.Translate(right)
	if err != nil {
		return nil, nil, err
	}

	return l, r, nil
}

func (t *ExprTranslator) comparison(c *predicate.Comparison) (sq.Sqlizer, error) {
	column, ok := t.columns[c.Field]
	if !ok {
		t.logger.Warn().
			Str("field", c.Field).
			Str("operator", c.Op.String()).
			Msg("filter references a field without a column")

		return nil, fmt.Errorf("%w: %s", ErrUnmappedField, c.Field)
	}

	col := column.Name
	isNull := sq.Eq{col: nil}
	isNotNull := sq.NotEq{col: nil}

	// orNull extends a negated test to NULL columns.
	orNull := func(cond sq.Sqlizer) sq.Sqlizer {
		if !c.Nullable {
			return cond
		}

		return sq.Or{cond, isNull}
	}

	switch c.Op {
	case predicate.OpEqual:
		if c.Value == nil {
			return isNull, nil
		}

		return sq.Eq{col: sqlValue(c.Value)}, nil

	case predicate.OpNot:
		if c.Value == nil {
			return isNotNull, nil
		}

		return orNull(sq.NotEq{col: sqlValue(c.Value)}), nil

	case predicate.OpIn, predicate.OpNotIn:
		return membership(c, col, orNull)

	case predicate.OpLessThan, predicate.OpLessOrEqual, predicate.OpGreaterThan, predicate.OpGreaterOrEqual:
		if c.Value == nil {
			return sqlFalse, nil
		}

		return ordered(c.Op, col, sqlValue(c.Value)), nil

	case predicate.OpContains, predicate.OpStartsWith, predicate.OpEndsWith:
		return sq.Like{col: likePattern(c)}, nil

	case predicate.OpNotContains, predicate.OpNotStartsWith, predicate.OpNotEndsWith:
		return orNull(sq.NotLike{col: likePattern(c)}), nil

	case predicate.OpIsNull:
		return isNull, nil

	case predicate.OpIsNotNull:
		return isNotNull, nil

	case predicate.OpIsEmpty:
		return sq.Or{isNull, empty(column)}, nil

	case predicate.OpIsNotEmpty:
		return sq.And{isNotNull, sq.Expr(fmt.Sprintf("NOT (%s)", emptySQL(column)))}, nil
	}

	return nil, fmt.Errorf("%w: operator %s", ErrUntranslatable, c.Op)
}

func membership(c *predicate.Comparison, col string, orNull func(sq.Sqlizer) sq.Sqlizer) (sq.Sqlizer, error) {
	values, ok := c.Value.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s expects a list, got %T", ErrUntranslatable, c.Op, c.Value)
	}

	var (
		members = make([]any, 0, len(values))
		hasNull bool
	)

	for _, v := range values {
		if v == nil {
			hasNull = true

			continue
		}

		members = append(members, sqlValue(v))
	}

	if c.Op == predicate.OpIn {
		if hasNull {
			return sq.Or{sq.Eq{col: members}, sq.Eq{col: nil}}, nil
		}

		return sq.Eq{col: members}, nil
	}

	if hasNull {
		return sq.And{sq.NotEq{col: members}, sq.NotEq{col: nil}}, nil
	}

	return orNull(sq.NotEq{col: members}), nil
}

func ordered(op predicate.Operator, col string, value any) sq.Sqlizer {
	switch op {
	case predicate.OpLessThan:
		return sq.Lt{col: value}
	case predicate.OpLessOrEqual:
		return sq.LtOrEq{col: value}
	case predicate.OpGreaterThan:
		return sq.Gt{col: value}
	default:
		return sq.GtOrEq{col: value}
	}
}

func likePattern(c *predicate.Comparison) string {
	needle := likeEscaper.Replace(fmt.Sprint(c.Value))

	switch c.Op {
	case predicate.OpStartsWith, predicate.OpNotStartsWith:
		return needle + "%"
	case predicate.OpEndsWith, predicate.OpNotEndsWith:
		return "%" + needle
	default:
		return "%" + needle + "%"
	}
}

func empty(column Column) sq.Sqlizer {
	return sq.Expr(emptySQL(column))
}

func emptySQL(column Column) string {
	if column.Array {
		return fmt.Sprintf("cardinality(%s) = 0", column.Name)
	}

	return fmt.Sprintf("%s = ''", column.Name)
}

// sqlValue converts domain literals into driver-friendly values.
func sqlValue(v any) any {
	switch x := v.(type) {
	case model.DeviceID:
		return x.String()
	case model.State:
		return x.String()
	default:
		return v
	}
}
