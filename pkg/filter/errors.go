package filter

import (
	"encoding/json"
	"fmt"

	"github.com/matzehuels/portalcore/pkg/errors"
)

// InvalidFilterError reports a filter value that is neither a well-formed
// range nor a well-formed option.
type InvalidFilterError struct {
	Field string // leaf field name the value was keyed under
	Value Value  // offending value; nil when the key had no value
}

// Error implements the error interface.
func (e *InvalidFilterError) Error() string {
	return fmt.Sprintf("invalid filter object for %q: %s", e.Field, e.raw())
}

// Code returns the error code for this error type.
func (e *InvalidFilterError) Code() errors.Code {
	return errors.ErrCodeInvalidFilter
}

// Raw returns the offending value as JSON.
func (e *InvalidFilterError) Raw() json.RawMessage {
	return json.RawMessage(e.raw())
}

func (e *InvalidFilterError) raw() string {
	data, err := marshalValue(e.Value)
	if err != nil {
		return fmt.Sprintf("%v", e.Value)
	}
	return string(data)
}
