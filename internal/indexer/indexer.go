// Package indexer turns announces into search documents and feeds them to an index writer.
package indexer

import (
	"context"

	"github.com/sha1n/announce-search/internal/domain"
)

// Indexer is the contract every resource indexer exposes to the indexing service.
type Indexer interface {
	Name() string
	Description() string
	Version() string
	IsEnabled() bool

	// IndexDocuments writes every eligible resource to the index and returns
	// one message per resource that failed. An empty result means full success.
	IndexDocuments(ctx context.Context) []string

	// Documents builds the documents without writing them.
	Documents(ctx context.Context, filter string) ([]*domain.SearchDocument, error)

	AdditionalFields() []domain.Field
	ResourceNames() []string
	ResourceUID(id, resourceType string) string
}

// Store lists announce records.
type Store interface {
	// FindAllPublished returns the published announces, suspended ones included.
	FindAllPublished(ctx context.Context) ([]domain.Announce, error)
}

// DocumentWriter accepts documents for the index.
type DocumentWriter interface {
	Write(doc *domain.SearchDocument) error
}

// ContentStripper reduces markup to indexable text.
type ContentStripper interface {
	Strip(s string) (string, error)
}
