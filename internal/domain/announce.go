package domain

import "time"

// ResourceType identifies announce records among the resource types known to the index.
const ResourceType = "ANNOUNCE"

// Category groups announces. Only the label is carried into search documents.
type Category struct {
	ID    int    `json:"id" yaml:"id"`
	Label string `json:"label" yaml:"label"`
}

// Announce is a listing published through the CMS.
type Announce struct {
	ID          int      `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    Category `json:"category"`

	// Tags is the raw tag string as entered by the author. It is indexed verbatim.
	Tags string `json:"tags"`

	DateCreation time.Time `json:"date_creation"`
	Published    bool      `json:"published"`

	// Suspended is set by moderators, SuspendedByUser by the author.
	Suspended       bool `json:"suspended"`
	SuspendedByUser bool `json:"suspended_by_user"`
}

// Indexable reports whether the announce may appear in search results:
// it must be published and suspended neither by moderation nor by its author.
func (a Announce) Indexable() bool {
	return a.Published && !a.Suspended && !a.SuspendedByUser
}
