// Package catalog is a Bleve-backed record store. Every issue, community and
// profile is indexed as a flat document keyed by kind and ID, and Fetch reads
// them back with keyword term queries.
//
// Issues carry a copy of their creator's reputation. Saving an issue takes it
// from the creator's indexed profile and saving a profile rewrites the copy
// on every issue of that creator. An issue whose creator has no profile keeps
// the reputation it was saved with.
package catalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/sha1n/mcp-civic-search/internal/domain"
	"github.com/sha1n/mcp-civic-search/internal/store"
)

const (
	// IndexDirName is the directory created inside the data directory.
	IndexDirName = "catalog.bleve"

	// MaxBatchSize is the maximum number of documents per batch
	MaxBatchSize = 100
)

// Catalog is a Bleve record store. It implements store.Backend.
type Catalog struct {
	index bleve.Index
	now   func() time.Time
}

var _ store.Backend = (*Catalog)(nil)

// CreateIndexMapping creates the Bleve index mapping for catalog documents.
func CreateIndexMapping() mapping.IndexMapping {
	docMapping := bleve.NewDocumentMapping()

	// Kind, category and creator - keyword (not analyzed) so term queries match exactly
	for _, name := range []string{domain.FieldKind, domain.FieldCategory, domain.FieldCreator} {
		field := bleve.NewTextFieldMapping()
		field.Analyzer = keyword.Name
		field.Store = true
		docMapping.AddFieldMappingsAt(name, field)
	}

	// Title, description and location - analyzed for full-text search
	for _, name := range []string{domain.FieldTitle, domain.FieldDescription, domain.FieldLocation} {
		field := bleve.NewTextFieldMapping()
		field.Analyzer = standard.Name
		field.Store = true
		field.IncludeTermVectors = true
		docMapping.AddFieldMappingsAt(name, field)
	}

	// ID and timestamps - stored but not indexed
	for _, name := range []string{domain.FieldID, domain.FieldCreatedAt, domain.FieldUpdatedAt} {
		field := bleve.NewTextFieldMapping()
		field.Index = false
		field.Store = true
		docMapping.AddFieldMappingsAt(name, field)
	}

	for _, name := range []string{domain.FieldPopularity, domain.FieldReputation} {
		field := bleve.NewNumericFieldMapping()
		field.Store = true
		docMapping.AddFieldMappingsAt(name, field)
	}

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultMapping = docMapping
	indexMapping.DefaultAnalyzer = standard.Name

	return indexMapping
}

// Open opens the index at path, creating it when it does not exist.
func Open(path string) (*Catalog, error) {
	index, err := bleve.Open(path)
	if err == nil {
		return &Catalog{index: index, now: time.Now}, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	index, err = bleve.New(path, CreateIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create index: %w", err)
	}
	return &Catalog{index: index, now: time.Now}, nil
}

// OpenMemory creates an index that lives only in memory.
func OpenMemory() (*Catalog, error) {
	index, err := bleve.NewMemOnly(CreateIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory index: %w", err)
	}
	return &Catalog{index: index, now: time.Now}, nil
}

// Close closes the underlying index.
func (c *Catalog) Close() error {
	return c.index.Close()
}

// SaveProfile indexes a profile and refreshes the creator reputation stored
// on the profile's issues.
func (c *Catalog) SaveProfile(ctx context.Context, p *domain.Profile) error {
	store.EnsureID(&p.ID)
	store.EnsureTimestamps(&p.CreatedAt, &p.UpdatedAt, c.now())

	issues, err := c.search(ctx, creatorQuery(p.ID))
	if err != nil {
		return fmt.Errorf("failed to load issues of %s: %w", p.ID, err)
	}
	items := make([]domain.Item, 0, len(issues)+1)
	items = append(items, p.Item())
	for _, issue := range issues {
		issue.CreatorReputation = p.Reputation
		items = append(items, issue)
	}
	_, err = c.IndexItems(items...)
	return err
}

// SaveIssue indexes an issue. The creator reputation is taken from the
// creator's profile when one is indexed.
func (c *Catalog) SaveIssue(ctx context.Context, i *domain.Issue) error {
	store.EnsureID(&i.ID)
	store.EnsureTimestamps(&i.CreatedAt, &i.UpdatedAt, c.now())

	item := i.Item()
	if i.CreatorID != "" {
		profiles, err := c.search(ctx, bleve.NewDocIDQuery([]string{DocumentID(domain.KindProfile, i.CreatorID)}))
		if err != nil {
			return fmt.Errorf("failed to load creator %s: %w", i.CreatorID, err)
		}
		if len(profiles) == 1 {
			item.CreatorReputation = profiles[0].CreatorReputation
		}
	}
	_, err := c.IndexItems(item)
	return err
}

// SaveCommunity indexes a community.
func (c *Catalog) SaveCommunity(_ context.Context, cm *domain.Community) error {
	store.EnsureID(&cm.ID)
	store.EnsureTimestamps(&cm.CreatedAt, &cm.UpdatedAt, c.now())
	_, err := c.IndexItems(cm.Item())
	return err
}

// IndexItems indexes items in batches and returns the number indexed.
// Re-indexing an existing kind and ID replaces the document.
func (c *Catalog) IndexItems(items ...domain.Item) (int, error) {
	batch := c.index.NewBatch()
	total := 0

	for _, item := range items {
		if err := batch.Index(DocumentID(item.Kind, item.ID), toDocument(item)); err != nil {
			return total, fmt.Errorf("failed to index %s %s: %w", item.Kind, item.ID, err)
		}
		if batch.Size() >= MaxBatchSize {
			if err := c.index.Batch(batch); err != nil {
				return total, fmt.Errorf("batch index failed: %w", err)
			}
			total += batch.Size()
			batch = c.index.NewBatch()
		}
	}

	if batch.Size() > 0 {
		if err := c.index.Batch(batch); err != nil {
			return total, fmt.Errorf("final batch index failed: %w", err)
		}
		total += batch.Size()
	}
	return total, nil
}

// Fetch returns every document of kind whose category is in categories. An
// empty list returns all documents of the kind.
func (c *Catalog) Fetch(ctx context.Context, kind domain.ContentKind, categories []string) ([]domain.Item, error) {
	if _, ok := domain.ParseContentKind(string(kind)); !ok {
		return nil, fmt.Errorf("%w: unknown content kind %q", domain.ErrInvalidOption, kind)
	}

	return c.search(ctx, fetchQuery(kind, categories))
}

// search returns every document matching q in document ID order.
func (c *Catalog) search(ctx context.Context, q query.Query) ([]domain.Item, error) {
	count, err := c.index.DocCount()
	if err != nil {
		return nil, fmt.Errorf("failed to count documents: %w", err)
	}
	if count == 0 {
		return nil, nil
	}

	req := bleve.NewSearchRequestOptions(q, int(count), 0, false)
	req.Fields = []string{"*"}
	req.SortBy([]string{"_id"})

	res, err := c.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	items := make([]domain.Item, 0, len(res.Hits))
	for _, hit := range res.Hits {
		items = append(items, fromFields(hit.Fields))
	}
	return items, nil
}

// DocumentID returns the document ID of a record.
func DocumentID(kind domain.ContentKind, id string) string {
	return string(kind) + "/" + id
}

func fetchQuery(kind domain.ContentKind, categories []string) query.Query {
	kindQuery := bleve.NewTermQuery(string(kind))
	kindQuery.SetField(domain.FieldKind)
	if len(categories) == 0 {
		return kindQuery
	}

	categoryQueries := make([]query.Query, 0, len(categories))
	for _, category := range categories {
		q := bleve.NewTermQuery(category)
		q.SetField(domain.FieldCategory)
		categoryQueries = append(categoryQueries, q)
	}
	return bleve.NewConjunctionQuery(kindQuery, bleve.NewDisjunctionQuery(categoryQueries...))
}

func creatorQuery(profileID string) query.Query {
	kindQuery := bleve.NewTermQuery(string(domain.KindIssue))
	kindQuery.SetField(domain.FieldKind)
	creator := bleve.NewTermQuery(profileID)
	creator.SetField(domain.FieldCreator)
	return bleve.NewConjunctionQuery(kindQuery, creator)
}

func toDocument(item domain.Item) map[string]interface{} {
	doc := map[string]interface{}{
		domain.FieldKind:        string(item.Kind),
		domain.FieldID:          item.ID,
		domain.FieldTitle:       item.Title,
		domain.FieldDescription: item.Description,
		domain.FieldCategory:    item.Category,
		domain.FieldLocation:    item.Location,
		domain.FieldPopularity:  float64(item.Popularity),
		domain.FieldCreatedAt:   formatTime(item.CreatedAt),
		domain.FieldUpdatedAt:   formatTime(item.UpdatedAt),
	}
	if item.CreatorID != "" {
		doc[domain.FieldCreator] = item.CreatorID
	}
	if item.CreatorReputation != nil {
		doc[domain.FieldReputation] = *item.CreatorReputation
	}
	return doc
}

func fromFields(fields map[string]interface{}) domain.Item {
	item := domain.Item{
		Kind:        domain.ContentKind(stringField(fields, domain.FieldKind)),
		ID:          stringField(fields, domain.FieldID),
		Title:       stringField(fields, domain.FieldTitle),
		Description: stringField(fields, domain.FieldDescription),
		Category:    stringField(fields, domain.FieldCategory),
		Location:    stringField(fields, domain.FieldLocation),
		CreatorID:   stringField(fields, domain.FieldCreator),
		CreatedAt:   parseTime(stringField(fields, domain.FieldCreatedAt)),
		UpdatedAt:   parseTime(stringField(fields, domain.FieldUpdatedAt)),
	}
	if v, ok := fields[domain.FieldPopularity].(float64); ok {
		item.Popularity = int(v)
	}
	if v, ok := fields[domain.FieldReputation].(float64); ok {
		item.CreatorReputation = &v
	}
	return item
}

func stringField(fields map[string]interface{}, name string) string {
	s, _ := fields[name].(string)
	return s
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
