package store

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

type FieldKind string

const (
	KindString FieldKind = "string"
	KindPrice  FieldKind = "price"
)

const (
	JukeboxCollection = "movie_jukebox"
	CatalogCollection = "products"
)

type FieldSpec struct {
	Name        string    `json:"name"`
	Label       string    `json:"label"`
	Placeholder string    `json:"placeholder,omitempty"`
	Kind        FieldKind `json:"kind"`
	Required    bool      `json:"required"`
}

// Schema describes the fields of one collection and how its entries are shown.
type Schema struct {
	Name           string      `json:"name"`
	Heading        string      `json:"heading"`
	Fields         []FieldSpec `json:"fields"`
	TitleField     string      `json:"title_field"`
	DetailField    string      `json:"detail_field"`
	DetailLabel    string      `json:"detail_label,omitempty"`
	AuthorPrefix   int         `json:"author_prefix"`
	EmptyText      string      `json:"empty_text"`
	IncompleteText string      `json:"incomplete_text"`
	SubmitLabel    string      `json:"submit_label"`
	Playable       bool        `json:"playable"`
}

var JukeboxSchema = Schema{
	Name:    JukeboxCollection,
	Heading: "Collaborative Movie Jukebox",
	Fields: []FieldSpec{
		{Name: "movie", Label: "Movie", Placeholder: "e.g., Inception", Kind: KindString, Required: true},
		{Name: "song", Label: "Song", Placeholder: "e.g., Time", Kind: KindString, Required: true},
	},
	TitleField:     "movie",
	DetailField:    "song",
	DetailLabel:    "Iconic Song",
	AuthorPrefix:   10,
	EmptyText:      "The collaborative jukebox is currently empty. Add the first movie!",
	IncompleteText: "Please enter both a movie and a song.",
	SubmitLabel:    "Add Movie/Song",
	Playable:       true,
}

var CatalogSchema = Schema{
	Name:    CatalogCollection,
	Heading: "Real-Time Product Catalog",
	Fields: []FieldSpec{
		{Name: "name", Label: "Product Name", Placeholder: "e.g., Wireless Headset", Kind: KindString, Required: true},
		{Name: "price", Label: "Price ($)", Placeholder: "e.g., 99.99", Kind: KindPrice, Required: true},
	},
	TitleField:     "name",
	DetailField:    "price",
	AuthorPrefix:   8,
	EmptyText:      "The catalog is empty. Add the first product above!",
	IncompleteText: "Please ensure all fields are filled.",
	SubmitLabel:    "Add to Catalog",
}

var schemas = map[string]Schema{
	JukeboxCollection: JukeboxSchema,
	CatalogCollection: CatalogSchema,
}

func LookupSchema(collection string) (Schema, bool) {
	s, ok := schemas[collection]
	return s, ok
}

func SchemaNames() []string {
	names := make([]string, 0, len(schemas))
	for name := range schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidationError reports a field that failed the required-field checks.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Reason)
}

// Normalize checks fields against the schema and returns a cleaned copy:
// strings trimmed, prices parsed to float64. Unknown fields are rejected.
func (s Schema) Normalize(fields Fields) (Fields, error) {
	out := make(Fields, len(s.Fields))
	for _, spec := range s.Fields {
		raw, present := fields[spec.Name]
		if !present || raw == nil {
			if spec.Required {
				return nil, &ValidationError{Field: spec.Name, Reason: "is required"}
			}
			continue
		}

		switch spec.Kind {
		case KindPrice:
			price, err := parsePrice(raw)
			if err != nil {
				return nil, &ValidationError{Field: spec.Name, Reason: err.Error()}
			}
			out[spec.Name] = price
		default:
			str, ok := raw.(string)
			if !ok {
				return nil, &ValidationError{Field: spec.Name, Reason: "must be a string"}
			}
			str = strings.TrimSpace(str)
			if str == "" {
				if spec.Required {
					return nil, &ValidationError{Field: spec.Name, Reason: "must not be empty"}
				}
				continue
			}
			out[spec.Name] = str
		}
	}

	for name := range fields {
		if !s.hasField(name) {
			return nil, &ValidationError{Field: name, Reason: "is not part of " + s.Name}
		}
	}
	return out, nil
}

// Title returns the display name of an entry (movie or product name).
func (s Schema) Title(e Entry) string {
	return e.String(s.TitleField)
}

// Detail returns the secondary value of an entry formatted for display.
func (s Schema) Detail(e Entry) string {
	spec, ok := s.field(s.DetailField)
	if !ok {
		return ""
	}
	if spec.Kind == KindPrice {
		if price, ok := e.Number(spec.Name); ok {
			return fmt.Sprintf("$%.2f", price)
		}
		return ""
	}
	return e.String(spec.Name)
}

func (s Schema) hasField(name string) bool {
	_, ok := s.field(name)
	return ok
}

func (s Schema) field(name string) (FieldSpec, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

func parsePrice(raw any) (float64, error) {
	var price float64
	switch v := raw.(type) {
	case float64:
		price = v
	case float32:
		price = float64(v)
	case int:
		price = float64(v)
	case int64:
		price = float64(v)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, fmt.Errorf("must be a number")
		}
		price = f
	case string:
		v = strings.TrimSpace(v)
		if v == "" {
			return 0, fmt.Errorf("must not be empty")
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, fmt.Errorf("must be a number")
		}
		price = f
	default:
		return 0, fmt.Errorf("must be a number")
	}

	if math.IsNaN(price) || math.IsInf(price, 0) {
		return 0, fmt.Errorf("must be a finite number")
	}
	if price < 0 {
		return 0, fmt.Errorf("must not be negative")
	}
	return price, nil
}
