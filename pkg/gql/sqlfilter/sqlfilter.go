// Package sqlfilter renders GQL filters as SQL WHERE predicates.
//
// It targets relational mirrors of the aggregation index where every
// nested document path is a child table. A nested node becomes an EXISTS
// subquery over its path table, optionally correlated to the root table:
//
//	{"nested":{"path":"diagnoses","AND":[{"IN":{"stage":["I"]}}]}}
//
//	EXISTS (SELECT 1 FROM diagnoses WHERE diagnoses.subject_id = subject.id AND (diagnoses.stage IN (?)))
//
// Field and path names are validated as identifiers before they are
// written into SQL text. Values are always bound as arguments.
package sqlfilter

import (
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/matzehuels/portalcore/pkg/errors"
	"github.com/matzehuels/portalcore/pkg/gql"
)

// Options controls table naming.
type Options struct {
	// RootTable qualifies top-level fields and correlates nested
	// subqueries. Empty leaves top-level fields unqualified and nested
	// subqueries uncorrelated.
	RootTable string
	// RootKey is the root table's primary key column. Default "id".
	RootKey string
	// ForeignKey is the child table column referencing RootKey.
	// Default "<RootTable>_id".
	ForeignKey string
}

func (o Options) withDefaults() Options {
	if o.RootKey == "" {
		o.RootKey = "id"
	}
	if o.ForeignKey == "" && o.RootTable != "" {
		o.ForeignKey = o.RootTable + "_id"
	}
	return o
}

// Where converts f into a squirrel predicate that can be passed to a
// builder's Where. A nil filter matches everything.
func Where(f gql.Filter, opts Options) (sq.Sqlizer, error) {
	opts = opts.withDefaults()
	for _, name := range []string{opts.RootTable, opts.RootKey, opts.ForeignKey} {
		if name == "" {
			continue
		}
		if err := errors.ValidateFieldName(name); err != nil {
			return nil, err
		}
	}
	if f == nil {
		return sq.And{}, nil
	}
	return convert(f, opts.RootTable, opts)
}

// ToSQL renders f with the given placeholder format.
func ToSQL(f gql.Filter, opts Options, format sq.PlaceholderFormat) (string, []any, error) {
	pred, err := Where(f, opts)
	if err != nil {
		return "", nil, err
	}
	query, args, err := pred.ToSql()
	if err != nil {
		return "", nil, err
	}
	if format != nil {
		query, err = format.ReplacePlaceholders(query)
		if err != nil {
			return "", nil, err
		}
	}
	return query, args, nil
}

func convert(f gql.Filter, scope string, opts Options) (sq.Sqlizer, error) {
	switch f := f.(type) {
	case *gql.In:
		col, err := column(scope, f.Field)
		if err != nil {
			return nil, err
		}
		return sq.Eq{col: append([]string(nil), f.Values...)}, nil
	case *gql.GTE:
		col, err := column(scope, f.Field)
		if err != nil {
			return nil, err
		}
		return sq.GtOrEq{col: f.Value}, nil
	case *gql.LTE:
		col, err := column(scope, f.Field)
		if err != nil {
			return nil, err
		}
		return sq.LtOrEq{col: f.Value}, nil
	case *gql.Bool:
		return combine(f.Op, f.Filters, scope, opts)
	case *gql.Nested:
		return nested(f, scope, opts)
	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "unsupported filter node %T", f)
	}
}

func combine(op gql.Op, filters []gql.Filter, scope string, opts Options) (sq.Sqlizer, error) {
	parts := make([]sq.Sqlizer, 0, len(filters))
	for _, child := range filters {
		p, err := convert(child, scope, opts)
		if err != nil {
			return nil, err
		}
		parts = append(parts, p)
	}
	switch op {
	case gql.OpAnd:
		return sq.And(parts), nil
	case gql.OpOr:
		return sq.Or(parts), nil
	default:
		return nil, errors.New(errors.ErrCodeInvalidFilter, "invalid combinator %q", op)
	}
}

func nested(n *gql.Nested, parent string, opts Options) (sq.Sqlizer, error) {
	if err := errors.ValidateFieldName(n.Path); err != nil {
		return nil, err
	}
	inner, err := combine(n.Op, n.Filters, n.Path, opts)
	if err != nil {
		return nil, err
	}
	innerSQL, args, err := inner.ToSql()
	if err != nil {
		return nil, err
	}

	where := innerSQL
	if parent != "" && opts.ForeignKey != "" {
		where = fmt.Sprintf("%s.%s = %s.%s AND %s", n.Path, opts.ForeignKey, parent, opts.RootKey, innerSQL)
	}
	return sq.Expr(fmt.Sprintf("EXISTS (SELECT 1 FROM %s WHERE %s)", n.Path, where), args...), nil
}

func column(scope, field string) (string, error) {
	if err := errors.ValidateFieldName(field); err != nil {
		return "", err
	}
	if scope == "" {
		return field, nil
	}
	return scope + "." + field, nil
}
