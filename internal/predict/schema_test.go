package predict

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/Ahlyab/flood-prediction/internal/indicators"
)

// fastAPIDocument builds an OpenAPI document shaped like the one FastAPI
// publishes for the prediction service. mutate may edit the input schema.
func fastAPIDocument(t *testing.T, mutate func(props map[string]any, schema map[string]any)) []byte {
	t.Helper()

	props := map[string]any{}
	required := []string{}
	for _, name := range indicators.Names() {
		props[name] = map[string]any{"type": "number", "title": name}
		required = append(required, name)
	}
	schema := map[string]any{
		"type":       "object",
		"title":      "FloodPredictionInput",
		"properties": props,
		"required":   required,
	}
	if mutate != nil {
		mutate(props, schema)
	}

	doc := map[string]any{
		"openapi": "3.0.2",
		"info":    map[string]any{"title": "FastAPI", "version": "0.1.0"},
		"paths": map[string]any{
			"/": map[string]any{
				"get": map[string]any{
					"summary":   "Read Root",
					"responses": map[string]any{"200": map[string]any{"description": "Successful Response"}},
				},
			},
			"/predict": map[string]any{
				"post": map[string]any{
					"summary":     "Predict Flood",
					"operationId": "predict_flood_predict_post",
					"requestBody": map[string]any{
						"required": true,
						"content": map[string]any{
							"application/json": map[string]any{
								"schema": map[string]any{"$ref": "#/components/schemas/FloodPredictionInput"},
							},
						},
					},
					"responses": map[string]any{"200": map[string]any{"description": "Successful Response"}},
				},
			},
		},
		"components": map[string]any{
			"schemas": map[string]any{"FloodPredictionInput": schema},
		},
	}

	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal document: %v", err)
	}
	return data
}

func TestCheckSchema_Matches(t *testing.T) {
	doc, err := LoadSchema(context.Background(), fastAPIDocument(t, nil))
	if err != nil {
		t.Fatalf("LoadSchema() error = %v", err)
	}

	report, err := CheckSchema(doc, DefaultPredictPath)
	if err != nil {
		t.Fatalf("CheckSchema() error = %v", err)
	}
	if !report.OK() {
		t.Errorf("report should be OK: %s", report.Summary())
	}
	if report.Title != "FastAPI" || report.Version != "0.1.0" {
		t.Errorf("Title/Version = %s/%s", report.Title, report.Version)
	}
}

func TestCheckSchema_Mismatch(t *testing.T) {
	data := fastAPIDocument(t, func(props map[string]any, schema map[string]any) {
		delete(props, "Landslides")
		props["Siltation"] = map[string]any{"type": "string"}
		props["RainfallTotal"] = map[string]any{"type": "number"}
		schema["required"] = []string{"MonsoonIntensity"}
	})

	doc, err := LoadSchema(context.Background(), data)
	if err != nil {
		t.Fatalf("LoadSchema() error = %v", err)
	}
	report, err := CheckSchema(doc, DefaultPredictPath)
	if err != nil {
		t.Fatalf("CheckSchema() error = %v", err)
	}

	if report.OK() {
		t.Fatal("report should not be OK")
	}
	if diff := cmp.Diff([]string{"Landslides"}, report.Missing); diff != "" {
		t.Errorf("Missing mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Siltation"}, report.NotNumeric); diff != "" {
		t.Errorf("NotNumeric mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"RainfallTotal"}, report.Unexpected); diff != "" {
		t.Errorf("Unexpected mismatch (-want +got):\n%s", diff)
	}
	if len(report.NotRequired) != indicators.Count-2 {
		t.Errorf("len(NotRequired) = %d, want %d", len(report.NotRequired), indicators.Count-2)
	}
}

func TestCheckSchema_NoOperation(t *testing.T) {
	doc, err := LoadSchema(context.Background(), fastAPIDocument(t, nil))
	if err != nil {
		t.Fatalf("LoadSchema() error = %v", err)
	}
	if _, err := CheckSchema(doc, "/v2/predict"); err == nil {
		t.Error("CheckSchema() should fail for an undocumented path")
	}
}

func TestFetchSchema(t *testing.T) {
	data := fastAPIDocument(t, nil)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != DefaultSchemaPath {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	}))
	defer server.Close()

	doc, err := NewClient(server.URL).FetchSchema(context.Background())
	if err != nil {
		t.Fatalf("FetchSchema() error = %v", err)
	}
	if doc.Paths.Value("/predict") == nil {
		t.Error("document should contain /predict")
	}
}

func TestLoadSchema_Invalid(t *testing.T) {
	_, err := LoadSchema(context.Background(), []byte("not json or yaml: ["))
	if !IsParseError(err) {
		t.Errorf("LoadSchema() error = %v, want parse error", err)
	}
}
