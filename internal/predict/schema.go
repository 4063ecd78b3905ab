package predict

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/Ahlyab/flood-prediction/internal/indicators"
)

// SchemaReport compares the request body the service documents for its
// prediction operation against the twenty indicators the form sends.
type SchemaReport struct {
	Title       string
	Version     string
	Path        string
	Missing     []string // indicators the service does not declare
	NotNumeric  []string // indicators declared with a non-numeric type
	NotRequired []string // indicators the service treats as optional
	Unexpected  []string // properties the form never sends
}

// OK reports whether the form's payload matches the documented request body.
func (r *SchemaReport) OK() bool {
	return len(r.Missing) == 0 && len(r.NotNumeric) == 0 && len(r.Unexpected) == 0
}

// Summary returns a one-line description of the report.
func (r *SchemaReport) Summary() string {
	if r.OK() {
		return fmt.Sprintf("%s %s: POST %s accepts all %d indicators", r.Title, r.Version, r.Path, indicators.Count)
	}
	var parts []string
	if len(r.Missing) > 0 {
		parts = append(parts, "missing: "+strings.Join(r.Missing, ", "))
	}
	if len(r.NotNumeric) > 0 {
		parts = append(parts, "not numeric: "+strings.Join(r.NotNumeric, ", "))
	}
	if len(r.Unexpected) > 0 {
		parts = append(parts, "unexpected: "+strings.Join(r.Unexpected, ", "))
	}
	return fmt.Sprintf("%s %s: POST %s schema mismatch (%s)", r.Title, r.Version, r.Path, strings.Join(parts, "; "))
}

// FetchSchema downloads and parses the service's OpenAPI document
func (c *Client) FetchSchema(ctx context.Context) (*openapi3.T, error) {
	data, err := c.get(ctx, c.SchemaPath)
	if err != nil {
		return nil, err
	}
	return LoadSchema(ctx, data)
}

// LoadSchema parses an OpenAPI document, resolving internal references
func LoadSchema(ctx context.Context, data []byte) (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	loader.Context = ctx

	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, newParseError("failed to load OpenAPI document", err)
	}
	return doc, nil
}

// CheckSchema inspects the JSON request body of POST path in doc
func CheckSchema(doc *openapi3.T, path string) (*SchemaReport, error) {
	if doc == nil {
		return nil, fmt.Errorf("openapi document is nil")
	}

	report := &SchemaReport{Path: path}
	if doc.Info != nil {
		report.Title = doc.Info.Title
		report.Version = doc.Info.Version
	}

	if doc.Paths == nil {
		return nil, fmt.Errorf("openapi document has no paths")
	}
	item := doc.Paths.Value(path)
	if item == nil || item.Post == nil {
		return nil, fmt.Errorf("openapi document has no POST %s operation", path)
	}

	body := item.Post.RequestBody
	if body == nil || body.Value == nil {
		return nil, fmt.Errorf("POST %s declares no request body", path)
	}
	media := body.Value.Content.Get("application/json")
	if media == nil || media.Schema == nil || media.Schema.Value == nil {
		return nil, fmt.Errorf("POST %s declares no application/json schema", path)
	}
	schema := media.Schema.Value

	required := make(map[string]bool, len(schema.Required))
	for _, name := range schema.Required {
		required[name] = true
	}

	for _, name := range indicators.Names() {
		prop, ok := schema.Properties[name]
		if !ok || prop == nil {
			report.Missing = append(report.Missing, name)
			continue
		}
		if prop.Value != nil && !isNumeric(prop.Value) {
			report.NotNumeric = append(report.NotNumeric, name)
		}
		if !required[name] {
			report.NotRequired = append(report.NotRequired, name)
		}
	}

	for name := range schema.Properties {
		if !indicators.IsKnown(name) {
			report.Unexpected = append(report.Unexpected, name)
		}
	}
	sort.Strings(report.Unexpected)

	return report, nil
}

func isNumeric(s *openapi3.Schema) bool {
	if s.Type == nil {
		return true
	}
	for _, t := range *s.Type {
		if t == openapi3.TypeNumber || t == openapi3.TypeInteger {
			return true
		}
	}
	return false
}
