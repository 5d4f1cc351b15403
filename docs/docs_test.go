package docs

import (
	"encoding/json"
	"testing"

	"github.com/swaggo/swag"
)

func TestRegisteredSpecIsValidJSON(t *testing.T) {
	doc, err := swag.ReadDoc("swagger")
	if err != nil {
		t.Fatalf("read doc: %v", err)
	}
	var v struct {
		Paths map[string]any `json:"paths"`
	}
	if err := json.Unmarshal([]byte(doc), &v); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	for _, p := range []string{"/load", "/unload", "/engines/{id}", "/devices/reset"} {
		if _, ok := v.Paths[p]; !ok {
			t.Fatalf("missing path %s", p)
		}
	}
}
