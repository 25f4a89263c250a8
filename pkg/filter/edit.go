package filter

import (
	"math"
	"slices"
)

// The editing helpers below never mutate their input. Each returns a new
// state with empty entries already removed.

// RemoveEmpty drops entries that neither filter nor carry a setting.
// Ranges and anchored states are always kept.
func RemoveEmpty(s State) State {
	var out State
	for _, key := range s.keys {
		v := s.values[key]
		if o, ok := v.(Option); ok && o.IsEmpty() {
			continue
		}
		if v == nil {
			continue
		}
		out.Set(key, v.clone())
	}
	return out
}

// ToggleValue adds value to the field's selection, or removes it when it is
// already selected. A range stored under field is replaced by the option.
func ToggleValue(s State, field, value string) State {
	out := s.Clone()
	o, _ := out.values[field].(Option)
	if i := slices.Index(o.SelectedValues, value); i >= 0 {
		o.SelectedValues = slices.Delete(o.SelectedValues, i, i+1)
		if len(o.SelectedValues) == 0 {
			o.SelectedValues = nil
		}
	} else {
		o.SelectedValues = append(o.SelectedValues, value)
	}
	out.Set(field, o)
	return RemoveEmpty(out)
}

// SetRange stores [lo, hi] under field. When the range covers the whole
// [min, max] domain to within step it no longer filters and is removed.
func SetRange(s State, field string, lo, hi, min, max, step float64) State {
	out := s.Clone()
	if math.Abs(lo-min) < step && math.Abs(hi-max) < step {
		out.Delete(field)
	} else {
		out.Set(field, Range{LowerBound: lo, UpperBound: hi})
	}
	return RemoveEmpty(out)
}

// SetCombineMode sets the combine mode of the field's option filter,
// creating a setting-only entry when the field has none.
func SetCombineMode(s State, field string, mode CombineMode) State {
	out := s.Clone()
	o, _ := out.values[field].(Option)
	o.CombineMode = mode
	out.Set(field, o)
	return RemoveEmpty(out)
}

// Clear removes the field from the state.
func Clear(s State, field string) State {
	out := s.Clone()
	out.Delete(field)
	return RemoveEmpty(out)
}

// ConsortiumField is the option field checked by [InScope].
const ConsortiumField = "consortium"

// InScope reports whether every state only selects consortium values from
// the allowed list. An empty allow-list puts everything in scope.
func InScope(allowed []string, states ...State) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, s := range states {
		o, ok := s.values[ConsortiumField].(Option)
		if !ok {
			continue
		}
		for _, v := range o.SelectedValues {
			if !slices.Contains(allowed, v) {
				return false
			}
		}
	}
	return true
}
