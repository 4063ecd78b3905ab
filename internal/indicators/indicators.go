package indicators

import (
	"fmt"
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// Indicator describes a single named input of the prediction model.
type Indicator struct {
	Name    string
	Default float64
}

// catalog lists the indicators in display order together with their
// initial values.
var catalog = []Indicator{
	{"MonsoonIntensity", 2.5},
	{"TopographyDrainage", 3.1},
	{"RiverManagement", 4.2},
	{"Deforestation", 1.8},
	{"Urbanization", 3.3},
	{"ClimateChange", 4.0},
	{"DamsQuality", 2.9},
	{"Siltation", 3.7},
	{"AgriculturalPractices", 2.2},
	{"Encroachments", 3.5},
	{"IneffectiveDisasterPreparedness", 2.8},
	{"DrainageSystems", 4.3},
	{"CoastalVulnerability", 3.6},
	{"Landslides", 3.9},
	{"Watersheds", 4.1},
	{"DeterioratingInfrastructure", 2.7},
	{"PopulationScore", 3.4},
	{"WetlandLoss", 3.2},
	{"InadequatePlanning", 3.0},
	{"PoliticalFactors", 2.6},
}

// Count is the number of indicators the prediction service expects.
const Count = 20

var index = func() map[string]int {
	m := make(map[string]int, len(catalog))
	for i, ind := range catalog {
		m[ind.Name] = i
	}
	return m
}()

// All returns a copy of the indicator catalog in display order.
func All() []Indicator {
	out := make([]Indicator, len(catalog))
	copy(out, catalog)
	return out
}

// Names returns the indicator names in display order.
func Names() []string {
	names := make([]string, len(catalog))
	for i, ind := range catalog {
		names[i] = ind.Name
	}
	return names
}

// IsKnown reports whether name is one of the twenty indicators.
func IsKnown(name string) bool {
	_, ok := index[name]
	return ok
}

// Lookup returns the catalog entry for name.
func Lookup(name string) (Indicator, bool) {
	i, ok := index[name]
	if !ok {
		return Indicator{}, false
	}
	return catalog[i], true
}

// FormatValue renders a number the way it is shown in an input field.
func FormatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FormValues is the raw text currently entered for each indicator.
// The zero value is not usable; start from Defaults.
type FormValues struct {
	values []string
}

// Defaults returns the form populated with every indicator's initial value.
func Defaults() FormValues {
	values := make([]string, len(catalog))
	for i, ind := range catalog {
		values[i] = FormatValue(ind.Default)
	}
	return FormValues{values: values}
}

// Len returns the number of fields, which is always Count for a form
// created by Defaults.
func (f FormValues) Len() int {
	return len(f.values)
}

// Keys returns the field names in display order.
func (f FormValues) Keys() []string {
	return Names()[:len(f.values)]
}

// Get returns the raw value of the named field.
func (f FormValues) Get(name string) (string, bool) {
	i, ok := index[name]
	if !ok || i >= len(f.values) {
		return "", false
	}
	return f.values[i], true
}

// Value returns the raw value of the named field, or "" if unknown.
func (f FormValues) Value(name string) string {
	v, _ := f.Get(name)
	return v
}

// SetField returns a copy of f with name set to raw. The text is stored
// verbatim. Unknown names return f unchanged.
func (f FormValues) SetField(name, raw string) FormValues {
	i, ok := index[name]
	if !ok || i >= len(f.values) {
		return f
	}
	values := make([]string, len(f.values))
	copy(values, f.values)
	values[i] = raw
	return FormValues{values: values}
}

// Fields returns name/value pairs in display order.
func (f FormValues) Fields() []Field {
	fields := make([]Field, len(f.values))
	for i, v := range f.values {
		fields[i] = Field{Name: catalog[i].Name, Raw: v}
	}
	return fields
}

// Map returns the form as a plain map. Iteration order of the result is
// random; use Fields when order matters.
func (f FormValues) Map() map[string]string {
	m := make(map[string]string, len(f.values))
	for i, v := range f.values {
		m[catalog[i].Name] = v
	}
	return m
}

// Equal reports whether both forms hold the same raw text for every field.
func (f FormValues) Equal(other FormValues) bool {
	if len(f.values) != len(other.values) {
		return false
	}
	for i := range f.values {
		if f.values[i] != other.values[i] {
			return false
		}
	}
	return true
}

// Field is one entry of a form.
type Field struct {
	Name string
	Raw  string
}

// WithOverrides applies every known name in overrides to f. Unknown names
// are returned so callers can report them.
func (f FormValues) WithOverrides(overrides map[string]float64) (FormValues, []string) {
	var unknown []string
	for name, v := range overrides {
		if !IsKnown(name) {
			unknown = append(unknown, name)
			continue
		}
		f = f.SetField(name, FormatValue(v))
	}
	sort.Strings(unknown)
	return f, unknown
}

// FromValues copies every indicator present in values (for example a posted
// HTML form) onto f. Other keys are ignored.
func (f FormValues) FromValues(values url.Values) FormValues {
	for _, name := range f.Keys() {
		if vs, ok := values[name]; ok && len(vs) > 0 {
			f = f.SetField(name, vs[0])
		}
	}
	return f
}

// ParseAssignment splits a "Name=value" pair as accepted on the command line.
func ParseAssignment(s string) (string, string, error) {
	name, value, ok := strings.Cut(s, "=")
	if !ok {
		return "", "", fmt.Errorf("invalid assignment %q (expected Name=value)", s)
	}
	name = strings.TrimSpace(name)
	if !IsKnown(name) {
		return "", "", fmt.Errorf("unknown indicator %q", name)
	}
	return name, strings.TrimSpace(value), nil
}

// Payload coerces every field to a number. All fields that fail are
// reported together in a *ParseError.
func (f FormValues) Payload() (Payload, error) {
	p := Payload{values: make([]float64, len(f.values))}
	var bad []string
	for i, raw := range f.values {
		v, err := ParseNumber(raw)
		if err != nil {
			bad = append(bad, catalog[i].Name)
			continue
		}
		p.values[i] = v
	}
	if len(bad) > 0 {
		return Payload{}, &ParseError{Fields: bad}
	}
	return p, nil
}

// ParseNumber parses raw indicator text. It accepts what a numeric input
// field accepts: surrounding whitespace is ignored and the result must be
// finite.
func ParseNumber(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("empty value")
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, err
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, fmt.Errorf("value %q is not finite", raw)
	}
	return v, nil
}

// ParseError lists the indicators whose raw text is not a number.
type ParseError struct {
	Fields []string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("non-numeric indicator values: %s", strings.Join(e.Fields, ", "))
}
