package announces

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/sha1n/announce-search/internal/domain"
)

const (
	// IndexName is the directory name of the announce index
	IndexName = "announces.bleve"

	// MaxBatchSize is the maximum number of documents per batch
	MaxBatchSize = 100
)

// Index wraps the Bleve index holding announce documents.
// Writes are buffered in a batch that is flushed every MaxBatchSize documents.
type Index struct {
	index   bleve.Index
	mu      sync.Mutex
	batch   *bleve.Batch
	pending int
}

// CreateIndexMapping creates the Bleve index mapping for search documents.
func CreateIndexMapping() mapping.IndexMapping {
	docMapping := bleve.NewDocumentMapping()

	// Analyzed, stored for snippets and display
	for _, name := range []string{domain.FieldTitle, domain.FieldContent, domain.FieldTags} {
		f := bleve.NewTextFieldMapping()
		f.Analyzer = standard.Name
		f.Store = true
		f.IncludeTermVectors = name == domain.FieldContent
		docMapping.AddFieldMappingsAt(name, f)
	}

	// Exact-match fields used as filters
	for _, name := range []string{domain.FieldUID, domain.FieldURL, domain.FieldSite, domain.FieldType, domain.FieldCategories} {
		f := bleve.NewTextFieldMapping()
		f.Analyzer = keyword.Name
		f.Store = true
		docMapping.AddFieldMappingsAt(name, f)
	}

	dateField := bleve.NewDateTimeFieldMapping()
	dateField.Store = true
	docMapping.AddFieldMappingsAt(domain.FieldDate, dateField)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultMapping = docMapping
	indexMapping.DefaultAnalyzer = standard.Name

	return indexMapping
}

// OpenIndex opens the index under dir, creating it if needed.
func OpenIndex(dir string) (*Index, error) {
	path := filepath.Join(dir, IndexName)

	index, err := bleve.Open(path)
	if err != nil {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create index directory: %w", err)
		}
		index, err = bleve.New(path, CreateIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("failed to create index: %w", err)
		}
	}

	return &Index{
		index: index,
		batch: index.NewBatch(),
	}, nil
}

// Write adds a document to the current batch.
func (i *Index) Write(doc *domain.SearchDocument) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if err := i.batch.Index(doc.UID, doc.IndexFields()); err != nil {
		return fmt.Errorf("failed to add document %s: %w", doc.UID, err)
	}
	i.pending++

	if i.pending >= MaxBatchSize {
		return i.flushLocked()
	}
	return nil
}

// Flush commits buffered documents.
func (i *Index) Flush() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.flushLocked()
}

func (i *Index) flushLocked() error {
	if i.pending == 0 {
		return nil
	}
	if err := i.index.Batch(i.batch); err != nil {
		return fmt.Errorf("batch index failed: %w", err)
	}
	i.batch.Reset()
	i.pending = 0
	return nil
}

// DeleteByType removes every document of the given type. It is used to
// clear announce documents before a full reindex.
func (i *Index) DeleteByType(docType string) (int, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if err := i.flushLocked(); err != nil {
		return 0, err
	}

	count, err := i.index.DocCount()
	if err != nil {
		return 0, err
	}
	if count == 0 {
		return 0, nil
	}

	q := bleve.NewTermQuery(docType)
	q.SetField(domain.FieldType)
	req := bleve.NewSearchRequestOptions(q, int(count), 0, false)
	res, err := i.index.Search(req)
	if err != nil {
		return 0, fmt.Errorf("failed to list documents: %w", err)
	}

	batch := i.index.NewBatch()
	for _, hit := range res.Hits {
		batch.Delete(hit.ID)
	}
	if err := i.index.Batch(batch); err != nil {
		return 0, fmt.Errorf("batch delete failed: %w", err)
	}
	return len(res.Hits), nil
}

// SearchQuery describes a full-text search over announces.
type SearchQuery struct {
	Text     string
	Category string
	Size     int
}

// Search runs a match query over title, content and tags, optionally
// restricted to a category.
func (i *Index) Search(sq SearchQuery) (*bleve.SearchResult, error) {
	titleQuery := bleve.NewMatchQuery(sq.Text)
	titleQuery.SetField(domain.FieldTitle)
	titleQuery.SetBoost(2.0)

	contentQuery := bleve.NewMatchQuery(sq.Text)
	contentQuery.SetField(domain.FieldContent)

	tagsQuery := bleve.NewMatchQuery(sq.Text)
	tagsQuery.SetField(domain.FieldTags)

	var q query.Query = bleve.NewDisjunctionQuery(titleQuery, contentQuery, tagsQuery)

	if sq.Category != "" {
		catQuery := bleve.NewTermQuery(sq.Category)
		catQuery.SetField(domain.FieldCategories)
		q = bleve.NewConjunctionQuery(q, catQuery)
	}

	req := bleve.NewSearchRequest(q)
	if sq.Size > 0 {
		req.Size = sq.Size
	}
	req.Fields = []string{domain.FieldTitle, domain.FieldURL, domain.FieldCategories, domain.FieldDate, domain.FieldTags}
	req.Highlight = bleve.NewHighlight()
	req.Highlight.AddField(domain.FieldContent)

	return i.index.Search(req)
}

// Document returns the stored fields of a document, or nil if it does not exist.
func (i *Index) Document(uid string) (map[string]any, error) {
	q := bleve.NewDocIDQuery([]string{uid})
	req := bleve.NewSearchRequest(q)
	req.Fields = []string{"*"}

	res, err := i.index.Search(req)
	if err != nil {
		return nil, err
	}
	if len(res.Hits) == 0 {
		return nil, nil
	}
	return res.Hits[0].Fields, nil
}

// DocCount returns the number of documents in the index.
func (i *Index) DocCount() (uint64, error) {
	return i.index.DocCount()
}

// Close flushes pending documents and closes the index.
func (i *Index) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	flushErr := i.flushLocked()
	if err := i.index.Close(); err != nil {
		return err
	}
	return flushErr
}
