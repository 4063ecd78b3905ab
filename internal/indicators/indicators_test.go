package indicators

import (
	"encoding/json"
	"errors"
	"net/url"
	"testing"

	"github.com/google/go-cmp/cmp"
)

var documentedOrder = []string{
	"MonsoonIntensity", "TopographyDrainage", "RiverManagement", "Deforestation",
	"Urbanization", "ClimateChange", "DamsQuality", "Siltation",
	"AgriculturalPractices", "Encroachments", "IneffectiveDisasterPreparedness",
	"DrainageSystems", "CoastalVulnerability", "Landslides", "Watersheds",
	"DeterioratingInfrastructure", "PopulationScore", "WetlandLoss",
	"InadequatePlanning", "PoliticalFactors",
}

func TestNames_Order(t *testing.T) {
	if diff := cmp.Diff(documentedOrder, Names()); diff != "" {
		t.Errorf("Names() mismatch (-want +got):\n%s", diff)
	}
	if len(Names()) != Count {
		t.Errorf("len(Names()) = %d, want %d", len(Names()), Count)
	}
}

func TestDefaults(t *testing.T) {
	form := Defaults()

	if form.Len() != Count {
		t.Fatalf("Len() = %d, want %d", form.Len(), Count)
	}
	if diff := cmp.Diff(documentedOrder, form.Keys()); diff != "" {
		t.Errorf("Keys() mismatch (-want +got):\n%s", diff)
	}

	tests := map[string]string{
		"MonsoonIntensity":   "2.5",
		"ClimateChange":      "4",
		"InadequatePlanning": "3",
		"PoliticalFactors":   "2.6",
	}
	for name, want := range tests {
		if got := form.Value(name); got != want {
			t.Errorf("Value(%s) = %q, want %q", name, got, want)
		}
	}
}

func TestSetField_OnlyTouchesOneField(t *testing.T) {
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			before := Defaults()
			after := before.SetField(name, "9.9")

			for _, other := range Names() {
				want := before.Value(other)
				if other == name {
					want = "9.9"
				}
				if got := after.Value(other); got != want {
					t.Errorf("after SetField(%s): Value(%s) = %q, want %q", name, other, got, want)
				}
			}

			if before.Value(name) == "9.9" {
				t.Errorf("SetField mutated the original form")
			}
			if diff := cmp.Diff(before.Keys(), after.Keys()); diff != "" {
				t.Errorf("key order changed (-before +after):\n%s", diff)
			}
		})
	}
}

func TestSetField_StoresRawText(t *testing.T) {
	form := Defaults().SetField("Siltation", " 1e2 ")
	if got := form.Value("Siltation"); got != " 1e2 " {
		t.Errorf("Value = %q, want raw text preserved", got)
	}

	form = form.SetField("Siltation", "")
	if got, ok := form.Get("Siltation"); !ok || got != "" {
		t.Errorf("Get = (%q, %v), want empty string present", got, ok)
	}
}

func TestSetField_UnknownNameIgnored(t *testing.T) {
	form := Defaults()
	got := form.SetField("RainfallTotal", "5")

	if !got.Equal(form) {
		t.Error("SetField with unknown name should leave the form unchanged")
	}
	if _, ok := got.Get("RainfallTotal"); ok {
		t.Error("unknown name should not be added")
	}
}

func TestPayload_Defaults(t *testing.T) {
	payload, err := Defaults().Payload()
	if err != nil {
		t.Fatalf("Payload() error = %v", err)
	}

	want := map[string]float64{
		"MonsoonIntensity": 2.5, "TopographyDrainage": 3.1, "RiverManagement": 4.2,
		"Deforestation": 1.8, "Urbanization": 3.3, "ClimateChange": 4.0,
		"DamsQuality": 2.9, "Siltation": 3.7, "AgriculturalPractices": 2.2,
		"Encroachments": 3.5, "IneffectiveDisasterPreparedness": 2.8,
		"DrainageSystems": 4.3, "CoastalVulnerability": 3.6, "Landslides": 3.9,
		"Watersheds": 4.1, "DeterioratingInfrastructure": 2.7, "PopulationScore": 3.4,
		"WetlandLoss": 3.2, "InadequatePlanning": 3.0, "PoliticalFactors": 2.6,
	}
	if diff := cmp.Diff(want, payload.Map()); diff != "" {
		t.Errorf("payload mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want, DefaultPayload().Map()); diff != "" {
		t.Errorf("DefaultPayload mismatch (-want +got):\n%s", diff)
	}
}

func TestPayload_ParseError(t *testing.T) {
	form := Defaults().
		SetField("Landslides", "abc").
		SetField("WetlandLoss", "").
		SetField("Watersheds", "NaN")

	_, err := form.Payload()
	if err == nil {
		t.Fatal("Payload() should fail for non-numeric values")
	}

	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("error type = %T, want *ParseError", err)
	}
	if diff := cmp.Diff([]string{"Landslides", "Watersheds", "WetlandLoss"}, perr.Fields); diff != "" {
		t.Errorf("Fields mismatch (-want +got):\n%s", diff)
	}
}

func TestPayload_TrimsWhitespace(t *testing.T) {
	payload, err := Defaults().SetField("Urbanization", " 7.25 ").Payload()
	if err != nil {
		t.Fatalf("Payload() error = %v", err)
	}
	if v, _ := payload.Get("Urbanization"); v != 7.25 {
		t.Errorf("Urbanization = %v, want 7.25", v)
	}
}

func TestPayload_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(DefaultPayload())
	if err != nil {
		t.Fatalf("Marshal error = %v", err)
	}

	want := `{"MonsoonIntensity":2.5,"TopographyDrainage":3.1,"RiverManagement":4.2,` +
		`"Deforestation":1.8,"Urbanization":3.3,"ClimateChange":4,"DamsQuality":2.9,` +
		`"Siltation":3.7,"AgriculturalPractices":2.2,"Encroachments":3.5,` +
		`"IneffectiveDisasterPreparedness":2.8,"DrainageSystems":4.3,` +
		`"CoastalVulnerability":3.6,"Landslides":3.9,"Watersheds":4.1,` +
		`"DeterioratingInfrastructure":2.7,"PopulationScore":3.4,"WetlandLoss":3.2,` +
		`"InadequatePlanning":3,"PoliticalFactors":2.6}`
	if string(data) != want {
		t.Errorf("Marshal =\n%s\nwant\n%s", data, want)
	}

	var decoded Payload
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal error = %v", err)
	}
	if !decoded.Form().Equal(Defaults()) {
		t.Error("decoded payload does not match defaults")
	}
}

func TestPayload_UnmarshalRejectsIncompleteBody(t *testing.T) {
	var p Payload
	if err := json.Unmarshal([]byte(`{"MonsoonIntensity":1}`), &p); err == nil {
		t.Error("Unmarshal should fail when indicators are missing")
	}

	full := DefaultPayload().Map()
	full["Extra"] = 1
	data, _ := json.Marshal(full)
	if err := json.Unmarshal(data, &p); err == nil {
		t.Error("Unmarshal should fail on unknown keys")
	}
}

func TestFromValues(t *testing.T) {
	values := url.Values{
		"Urbanization":  {"5.5"},
		"Deforestation": {"0"},
		"csrf":          {"ignored"},
	}
	form := Defaults().FromValues(values)

	if got := form.Value("Urbanization"); got != "5.5" {
		t.Errorf("Urbanization = %q, want 5.5", got)
	}
	if got := form.Value("Deforestation"); got != "0" {
		t.Errorf("Deforestation = %q, want 0", got)
	}
	if got := form.Value("Siltation"); got != "3.7" {
		t.Errorf("Siltation = %q, want default 3.7", got)
	}
}

func TestWithOverrides(t *testing.T) {
	form, unknown := Defaults().WithOverrides(map[string]float64{
		"Landslides": 1.5,
		"Bogus":      2,
		"Aardvark":   3,
	})

	if got := form.Value("Landslides"); got != "1.5" {
		t.Errorf("Landslides = %q, want 1.5", got)
	}
	if diff := cmp.Diff([]string{"Aardvark", "Bogus"}, unknown); diff != "" {
		t.Errorf("unknown mismatch (-want +got):\n%s", diff)
	}
}

func TestParseAssignment(t *testing.T) {
	tests := []struct {
		input     string
		wantName  string
		wantValue string
		wantErr   bool
	}{
		{"Urbanization=4.5", "Urbanization", "4.5", false},
		{" Siltation = 2 ", "Siltation", "2", false},
		{"Urbanization", "", "", true},
		{"Unknown=1", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			name, value, err := ParseAssignment(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseAssignment(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if name != tt.wantName || value != tt.wantValue {
				t.Errorf("ParseAssignment(%q) = (%q, %q), want (%q, %q)", tt.input, name, value, tt.wantName, tt.wantValue)
			}
		})
	}
}
