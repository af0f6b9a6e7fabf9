package domain

import (
	"maps"
	"time"
)

// SearchDocument is the field-based representation of a resource written to the search index.
type SearchDocument struct {
	// UID disambiguates resources sharing a numeric ID across resource types.
	// Format: "<id>_<short name>", e.g. "42_announce".
	UID string `json:"uid"`

	URL     string    `json:"url"`
	Date    time.Time `json:"date"`
	Title   string    `json:"title"`
	Content string    `json:"content"`
	Site    string    `json:"site"`
	Type    string    `json:"type"`

	// Categories always holds exactly one label for announces.
	Categories []string `json:"categorie"`

	// DynamicFields holds indexer-specific fields declared through AdditionalFields.
	DynamicFields map[string]any `json:"-"`
}

// Field name constants shared by the index mapping, queries and documents.
const (
	FieldUID        = "uid"
	FieldURL        = "url"
	FieldDate       = "date"
	FieldTitle      = "title"
	FieldContent    = "content"
	FieldSite       = "site"
	FieldType       = "type"
	FieldCategories = "categorie"
	FieldTags       = "tags"
)

// AddDynamicField attaches an additional named field to the document.
func (d *SearchDocument) AddDynamicField(name string, value any) {
	if d.DynamicFields == nil {
		d.DynamicFields = make(map[string]any)
	}
	d.DynamicFields[name] = value
}

// IndexFields flattens the document into the map handed to the index writer.
// Dynamic fields sit next to the fixed ones; they never override them.
func (d *SearchDocument) IndexFields() map[string]any {
	fields := make(map[string]any, 9+len(d.DynamicFields))
	maps.Copy(fields, d.DynamicFields)

	fields[FieldUID] = d.UID
	fields[FieldURL] = d.URL
	fields[FieldDate] = d.Date
	fields[FieldTitle] = d.Title
	fields[FieldContent] = d.Content
	fields[FieldSite] = d.Site
	fields[FieldType] = d.Type
	fields[FieldCategories] = d.Categories

	return fields
}

// Field describes an additional schema field contributed by an indexer.
type Field struct {
	Name        string `json:"name"`
	Label       string `json:"label"`
	Description string `json:"description"`
	EnableFacet bool   `json:"enable_facet"`
}
