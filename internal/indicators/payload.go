package indicators

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Payload is the numeric request body sent to the prediction service.
type Payload struct {
	values []float64
}

// DefaultPayload returns the payload built from the default form.
func DefaultPayload() Payload {
	values := make([]float64, len(catalog))
	for i, ind := range catalog {
		values[i] = ind.Default
	}
	return Payload{values: values}
}

// Get returns the value for name.
func (p Payload) Get(name string) (float64, bool) {
	i, ok := index[name]
	if !ok || i >= len(p.values) {
		return 0, false
	}
	return p.values[i], true
}

// Len returns the number of values in the payload.
func (p Payload) Len() int {
	return len(p.values)
}

// Map returns the payload as a map keyed by indicator name.
func (p Payload) Map() map[string]float64 {
	m := make(map[string]float64, len(p.values))
	for i, v := range p.values {
		m[catalog[i].Name] = v
	}
	return m
}

// MarshalJSON writes the payload as a JSON object with keys in display
// order.
func (p Payload) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, v := range p.values {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(strconv.Quote(catalog[i].Name))
		buf.WriteByte(':')
		num, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("marshal %s: %w", catalog[i].Name, err)
		}
		buf.Write(num)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a payload object. Every indicator must be present
// and no other keys are allowed.
func (p *Payload) UnmarshalJSON(data []byte) error {
	var raw map[string]float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	values := make([]float64, len(catalog))
	for i, ind := range catalog {
		v, ok := raw[ind.Name]
		if !ok {
			return fmt.Errorf("missing indicator %q", ind.Name)
		}
		values[i] = v
	}
	for name := range raw {
		if !IsKnown(name) {
			return fmt.Errorf("unknown indicator %q", name)
		}
	}
	p.values = values
	return nil
}

// Form converts the payload back into editable form values.
func (p Payload) Form() FormValues {
	values := make([]string, len(p.values))
	for i, v := range p.values {
		values[i] = FormatValue(v)
	}
	return FormValues{values: values}
}
