// Package query builds GraphQL payloads for the aggregation service.
//
// Every builder returns a [Payload] ready to be posted as the body of a
// GraphQL request. Query strings are whitespace-collapsed. Filters travel
// as variables, never inlined, and type and field names are validated as
// identifiers before they are written into query text.
//
//	f, _ := filter.Compile(state, filter.CombineAnd)
//	p, err := query.AggregationChart("subject", []string{"gender"}, f)
//	body, _ := json.Marshal(p)
package query

import (
	"fmt"
	"strings"

	"github.com/matzehuels/portalcore/pkg/errors"
	"github.com/matzehuels/portalcore/pkg/gql"
)

// Payload is a GraphQL request body. Nil variables are omitted.
type Payload struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

func newPayload(query string, vars map[string]any) Payload {
	p := Payload{Query: collapse(query)}
	for k, v := range vars {
		if isNil(v) {
			continue
		}
		if p.Variables == nil {
			p.Variables = make(map[string]any)
		}
		p.Variables[k] = v
	}
	return p
}

func isNil(v any) bool {
	switch v := v.(type) {
	case nil:
		return true
	case gql.Filter:
		return v == nil
	case []map[string]string:
		return v == nil
	case string:
		return v == ""
	}
	return false
}

func collapse(s string) string { return strings.Join(strings.Fields(s), " ") }

func validate(typ string, fields ...string) error {
	if err := errors.ValidateFieldName(typ); err != nil {
		return err
	}
	if strings.Contains(typ, ".") {
		return errors.New(errors.ErrCodeInvalidField, "data type %q must not be a path", typ)
	}
	for _, f := range fields {
		if err := errors.ValidateFieldName(f); err != nil {
			return err
		}
	}
	return nil
}

// HistogramFragment selects the histogram of a possibly nested field:
// "a.b" becomes "a { b { histogram { key count } } }".
func HistogramFragment(field string) string {
	head, rest, nested := strings.Cut(field, ".")
	if !nested {
		return head + " { histogram { key count } }"
	}
	return head + " { " + HistogramFragment(rest) + " }"
}

// rawFragment selects a possibly nested field: "a.b" becomes "a { b }".
func rawFragment(field string) string {
	head, rest, nested := strings.Cut(field, ".")
	if !nested {
		return head
	}
	return head + " { " + rawFragment(rest) + " }"
}

func histograms(fields []string) string {
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = HistogramFragment(f)
	}
	return strings.Join(parts, " ")
}

// AggregationChart requests histograms of fields, ignoring each field's
// own filter so that unselected options stay visible.
func AggregationChart(typ string, fields []string, f gql.Filter) (Payload, error) {
	if err := validate(typ, fields...); err != nil {
		return Payload{}, err
	}
	if f == nil {
		return newPayload(fmt.Sprintf(`query { _aggregation { %s (accessibility: all) { %s } } }`,
			typ, histograms(fields)), nil), nil
	}
	return newPayload(fmt.Sprintf(`query ($filter: JSON) {
		_aggregation {
			%s (filter: $filter, filterSelf: false, accessibility: all) {
				%s
			}
		}
	}`, typ, histograms(fields)), map[string]any{"filter": f}), nil
}

// AggregationCount requests the total count visible to the user
// (accessible) and the total count overall (all).
func AggregationCount(typ string, f gql.Filter) (Payload, error) {
	if err := validate(typ); err != nil {
		return Payload{}, err
	}
	args := ""
	if f != nil {
		args = "filter: $filter, "
	}
	q := fmt.Sprintf(`query %s {
		_aggregation {
			accessible: %s (%saccessibility: accessible) { _totalCount }
			all: %s (%saccessibility: all) { _totalCount }
		}
	}`, varDecl(f != nil, "$filter: JSON"), typ, args, typ, args)
	return newPayload(q, map[string]any{"filter": f}), nil
}

// TotalCount requests the total count over all records.
func TotalCount(typ string, f gql.Filter) (Payload, error) {
	if err := validate(typ); err != nil {
		return Payload{}, err
	}
	args := "accessibility: all"
	if f != nil {
		args = "filter: $filter, " + args
	}
	q := fmt.Sprintf(`query %s { _aggregation { %s (%s) { _totalCount } } }`,
		varDecl(f != nil, "$filter: JSON"), typ, args)
	return newPayload(q, map[string]any{"filter": f}), nil
}

// Mapping requests the field names of a data type.
func Mapping(typ string) (Payload, error) {
	if err := validate(typ); err != nil {
		return Payload{}, err
	}
	return newPayload(fmt.Sprintf(`{ _mapping { %s } }`, typ), nil), nil
}

func varDecl(ok bool, decls ...string) string {
	if !ok || len(decls) == 0 {
		return ""
	}
	return "(" + strings.Join(decls, ", ") + ")"
}

// SubAggregationArgs selects a histogram of MainField broken down by the
// terms of TermsFields and the missing counts of MissingFields.
type SubAggregationArgs struct {
	Type             string     `json:"type"`
	MainField        string     `json:"mainField"`
	NumericAggAsText bool       `json:"numericAggAsText,omitempty"`
	TermsFields      []string   `json:"termsFields,omitempty"`
	MissingFields    []string   `json:"missingFields,omitempty"`
	Filter           gql.Filter `json:"-"`
}

// SubAggregation builds a nested aggregation request.
func SubAggregation(args SubAggregationArgs) (Payload, error) {
	if err := validate(args.Type, args.MainField); err != nil {
		return Payload{}, err
	}
	histogram := "histogram"
	if args.NumericAggAsText {
		histogram = "asTextHistogram"
	}
	selection := fmt.Sprintf(`%s {
		%s {
			key
			count
			missingFields { field count }
			termsFields { field terms { key count } }
		}
	}`, args.MainField, histogram)

	decl := "($nestedAggFields: JSON)"
	call := "nestedAggFields: $nestedAggFields, accessibility: all"
	if args.Filter != nil {
		decl = "($filter: JSON, $nestedAggFields: JSON)"
		call = "filter: $filter, filterSelf: false, " + call
	}
	q := fmt.Sprintf(`query %s { _aggregation { %s (%s) { %s } } }`, decl, args.Type, call, selection)

	nested := map[string]any{}
	if args.TermsFields != nil {
		nested["termsFields"] = args.TermsFields
	}
	if args.MissingFields != nil {
		nested["missingFields"] = args.MissingFields
	}
	return newPayload(q, map[string]any{"filter": args.Filter, "nestedAggFields": nested}), nil
}

// DefaultPageSize is the raw data page size when none is given.
const DefaultPageSize = 20

// RawDataArgs selects a page of records.
type RawDataArgs struct {
	Type           string              `json:"type"`
	Fields         []string            `json:"fields"`
	Filter         gql.Filter          `json:"-"`
	Sort           []map[string]string `json:"sort,omitempty"`
	Offset         int                 `json:"offset,omitempty"`
	Size           int                 `json:"size,omitempty"`
	Format         string              `json:"format,omitempty"`
	WithTotalCount bool                `json:"withTotalCount,omitempty"`
}

// RawData builds a paged record request, optionally with the total count
// of matching accessible records.
func RawData(args RawDataArgs) (Payload, error) {
	if err := validate(args.Type, args.Fields...); err != nil {
		return Payload{}, err
	}
	if args.Offset < 0 || args.Size < 0 {
		return Payload{}, errors.New(errors.ErrCodeInvalidInput, "offset and size must not be negative")
	}
	size := args.Size
	if size == 0 {
		size = DefaultPageSize
	}
	hasSort, hasFilter, hasFormat := args.Sort != nil, args.Filter != nil, args.Format != ""

	var decls []string
	if hasSort {
		decls = append(decls, "$sort: JSON")
	}
	if hasFilter {
		decls = append(decls, "$filter: JSON")
	}
	if hasFormat {
		decls = append(decls, "$format: Format")
	}

	call := []string{"accessibility: accessible", fmt.Sprintf("offset: %d", args.Offset), fmt.Sprintf("first: %d", size)}
	if hasFormat {
		call = append(call, "format: $format")
	}
	if hasSort {
		call = append(call, "sort: $sort")
	}
	if hasFilter {
		call = append(call, "filter: $filter")
	}

	fields := make([]string, len(args.Fields))
	for i, f := range args.Fields {
		fields[i] = rawFragment(f)
	}

	total := ""
	if args.WithTotalCount {
		aggArgs := "accessibility: accessible"
		if hasFilter {
			aggArgs += ", filter: $filter"
		}
		total = fmt.Sprintf("_aggregation { %s (%s) { _totalCount } }", args.Type, aggArgs)
	}

	q := fmt.Sprintf(`query %s { %s (%s) { %s } %s }`,
		varDecl(len(decls) > 0, decls...), args.Type, strings.Join(call, ", "), strings.Join(fields, " "), total)
	return newPayload(q, map[string]any{"format": args.Format, "filter": args.Filter, "sort": args.Sort}), nil
}

// DownloadRequest is the body of a bulk download request.
type DownloadRequest struct {
	Accessibility string              `json:"accessibility"`
	Filter        gql.Filter          `json:"filter,omitempty"`
	Type          string              `json:"type"`
	Fields        []string            `json:"fields,omitempty"`
	Sort          []map[string]string `json:"sort,omitempty"`
}

// Download builds a bulk download request over accessible records.
func Download(typ string, fields []string, f gql.Filter, sort []map[string]string) (DownloadRequest, error) {
	if err := validate(typ, fields...); err != nil {
		return DownloadRequest{}, err
	}
	return DownloadRequest{
		Accessibility: "accessible",
		Filter:        f,
		Type:          typ,
		Fields:        fields,
		Sort:          sort,
	}, nil
}
