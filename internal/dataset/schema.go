package dataset

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
)

// breakdownSchema accepts an object of counts. A JSON array is let through because the
// registration system encodes empty breakdowns as []; non-empty arrays fail decoding.
func breakdownSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Types:                []string{"object", "array"},
		AdditionalProperties: &jsonschema.Schema{Type: "integer"},
	}
}

func yearlySchema() *jsonschema.Schema {
	props := map[string]*jsonschema.Schema{
		"Year":       {Type: "integer"},
		"Convention": {Type: "string"},
		"TotalCount": {Type: "integer"},
		"Created":    breakdownSchema(),
	}
	for _, f := range Fields {
		props[string(f)] = breakdownSchema()
	}
	return &jsonschema.Schema{
		Type:       "object",
		Required:   []string{"Year", "Convention", "TotalCount"},
		Properties: props,
	}
}

var resolvedSchema = sync.OnceValues(func() (*jsonschema.Resolved, error) {
	return yearlySchema().Resolve(nil)
})

// Validate checks raw JSON against the yearly dataset schema.
func Validate(raw []byte) error {
	rs, err := resolvedSchema()
	if err != nil {
		return fmt.Errorf("resolve dataset schema: %w", err)
	}

	var instance any
	if err := json.Unmarshal(raw, &instance); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	if err := rs.Validate(instance); err != nil {
		return fmt.Errorf("schema: %w", err)
	}
	return nil
}
