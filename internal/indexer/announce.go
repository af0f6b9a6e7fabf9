package indexer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/sha1n/announce-search/internal/domain"
)

const (
	// ShortName is appended to announce IDs to build resource UIDs.
	ShortName = "announce"

	// PluginName is the document type of announce documents.
	PluginName = "announce"

	// ParameterPage is the portal parameter selecting the application page.
	ParameterPage = "page"

	// ParameterAnnounceID is the portal parameter selecting the announce.
	ParameterAnnounceID = "announce_id"

	uidSeparator = "_"
	blank        = " "
)

// ErrDocuments is returned by Documents when any announce fails to build.
var ErrDocuments = errors.New("failed to build announce documents")

// Options holds the configuration read by the announce indexer.
type Options struct {
	Name            string
	Description     string
	Version         string
	Enabled         bool
	TagsLabel       string
	TagsDescription string

	// BaseURL is the portal URL the per-announce links are built on.
	BaseURL string
	// SiteName is written to the site field of every document.
	SiteName string
	// Page is the application page identifier of the announce plugin.
	Page string
}

// AnnounceIndexer indexes published announces.
type AnnounceIndexer struct {
	opts     Options
	store    Store
	writer   DocumentWriter
	stripper ContentStripper
}

var _ Indexer = (*AnnounceIndexer)(nil)

// NewAnnounceIndexer creates an announce indexer. writer may be nil when only
// Documents is used.
func NewAnnounceIndexer(opts Options, store Store, writer DocumentWriter, stripper ContentStripper) *AnnounceIndexer {
	return &AnnounceIndexer{
		opts:     opts,
		store:    store,
		writer:   writer,
		stripper: stripper,
	}
}

func (x *AnnounceIndexer) Name() string        { return x.opts.Name }
func (x *AnnounceIndexer) Description() string { return x.opts.Description }
func (x *AnnounceIndexer) Version() string     { return x.opts.Version }
func (x *AnnounceIndexer) IsEnabled() bool     { return x.opts.Enabled }

// IndexDocuments writes every eligible announce. A failing announce is logged
// and reported in the returned list; the remaining announces are still processed.
func (x *AnnounceIndexer) IndexDocuments(ctx context.Context) []string {
	var errs []string

	announces, err := x.store.FindAllPublished(ctx)
	if err != nil {
		slog.Error("Failed to list published announces", "error", err)
		return append(errs, fmt.Sprintf("failed to list published announces: %v", err))
	}

	for _, announce := range announces {
		if err := ctx.Err(); err != nil {
			slog.Warn("Announce indexation interrupted", "error", err)
			errs = append(errs, fmt.Sprintf("announce indexation interrupted: %v", err))
			break
		}

		if !announce.Indexable() {
			continue
		}

		if err := x.indexAnnounce(announce); err != nil {
			slog.Error("Failed to index announce", "announce_id", announce.ID, "error", err)
			errs = append(errs, ErrorMessage(announce.ID, err))
		}
	}

	return errs
}

func (x *AnnounceIndexer) indexAnnounce(announce domain.Announce) error {
	if x.writer == nil {
		return errors.New("no document writer configured")
	}

	doc, err := x.BuildDocument(announce, x.announceURL(announce.ID))
	if err != nil {
		return err
	}

	if err := x.writer.Write(doc); err != nil {
		return fmt.Errorf("write document %s: %w", doc.UID, err)
	}
	return nil
}

// Documents builds the documents of every eligible announce. Unlike
// IndexDocuments, the first failure aborts the call and no documents are
// returned. filter is ignored.
func (x *AnnounceIndexer) Documents(ctx context.Context, filter string) ([]*domain.SearchDocument, error) {
	announces, err := x.store.FindAllPublished(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDocuments, err)
	}

	var docs []*domain.SearchDocument
	for _, announce := range announces {
		if !announce.Indexable() {
			continue
		}

		doc, err := x.BuildDocument(announce, x.announceURL(announce.ID))
		if err != nil {
			return nil, fmt.Errorf("%w: announce %d: %w", ErrDocuments, announce.ID, err)
		}
		docs = append(docs, doc)
	}

	return docs, nil
}

// BuildDocument maps an announce to a search document. It fails only when
// the content cannot be stripped of its markup.
func (x *AnnounceIndexer) BuildDocument(announce domain.Announce, url string) (*domain.SearchDocument, error) {
	doc := &domain.SearchDocument{
		Categories: []string{announce.Category.Label},
		URL:        url,
		UID:        x.ResourceUID(strconv.Itoa(announce.ID), domain.ResourceType),
		Date:       announce.DateCreation,
	}
	doc.AddDynamicField(domain.FieldTags, announce.Tags)

	content, err := x.stripper.Strip(contentToIndex(announce))
	if err != nil {
		return nil, fmt.Errorf("announce %d content: %w", announce.ID, err)
	}
	doc.Content = content

	doc.Title = announce.Title
	doc.Site = x.opts.SiteName
	doc.Type = PluginName

	return doc, nil
}

// contentToIndex joins the searchable text of an announce.
func contentToIndex(announce domain.Announce) string {
	var sb strings.Builder
	sb.WriteString(announce.Title)
	sb.WriteString(blank)
	sb.WriteString(announce.Description)
	sb.WriteString(blank)
	sb.WriteString(announce.Tags)
	return sb.String()
}

func (x *AnnounceIndexer) announceURL(id int) string {
	u := newURLItem(x.opts.BaseURL)
	u.addParameter(ParameterPage, x.opts.Page)
	u.addParameter(ParameterAnnounceID, strconv.Itoa(id))
	return u.String()
}

// AdditionalFields declares the tags field. It is not faceted.
func (x *AnnounceIndexer) AdditionalFields() []domain.Field {
	return []domain.Field{{
		Name:        domain.FieldTags,
		Label:       x.opts.TagsLabel,
		Description: x.opts.TagsDescription,
		EnableFacet: false,
	}}
}

// ResourceNames returns the resource types handled by this indexer.
func (x *AnnounceIndexer) ResourceNames() []string {
	return []string{domain.ResourceType}
}

// ResourceUID returns "<id>_announce". resourceType is ignored: the indexer
// handles a single resource type.
func (x *AnnounceIndexer) ResourceUID(id, resourceType string) string {
	return id + uidSeparator + ShortName
}

// ErrorMessage formats the error reported for an announce that failed to index.
func ErrorMessage(id int, err error) string {
	return fmt.Sprintf("An error occurred during the indexation of the announce number %d: %v", id, err)
}
