package dao

// StateParameter filters records by lifecycle state.
const StateParameter = "State"

// Parameter narrows a List call to records whose named attribute takes one of
// Values.
type Parameter struct {
	Name   string
	Values []string
}

// NewParameter creates a parameter accepting any of values.
func NewParameter(name string, values ...string) *Parameter {
	return &Parameter{Name: name, Values: values}
}

// WithState creates a StateParameter accepting any of states.
func WithState[S ~string](states ...S) *Parameter {
	values := make([]string, len(states))
	for i, state := range states {
		values[i] = string(state)
	}
	return NewParameter(StateParameter, values...)
}

// Accepts reports whether value is one of the parameter values. A parameter
// without values accepts everything.
func (p *Parameter) Accepts(value string) bool {
	if p == nil || len(p.Values) == 0 {
		return true
	}
	for _, candidate := range p.Values {
		if candidate == value {
			return true
		}
	}
	return false
}
