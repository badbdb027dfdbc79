package publish

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/gitpress-io/gitpress/store"
)

// Record is one entry in a content type's denormalized search index: the
// fields a list view needs without fetching every item document. Beyond the
// three fixed keys it carries the item's non-binary scalar field values with
// markup stripped.
type Record map[string]any

// ID returns the record's item id.
func (r Record) ID() string {
	id, _ := r["id"].(string)
	return id
}

// IndexPath returns the well-known index path for a content type.
func IndexPath(contentType string) string {
	return "search/" + contentType + ".json"
}

// LoadIndex reads and decodes a content type's search index from the
// backend. A missing index is an empty list, not an error — the index does
// not exist until the first item of its type is published.
func LoadIndex(ctx context.Context, backend store.Backend, contentType string) ([]Record, error) {
	raw, err := backend.ReadFile(ctx, IndexPath(contentType))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	var records []Record
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("publish: decode index %s: %w", IndexPath(contentType), err)
	}
	return records, nil
}

// Merge upserts record into records by id: any existing record with the
// same id is removed, then the new record is appended. With remove set, the
// id is dropped and nothing is appended. Order of surviving records is
// preserved; correctness is order-insensitive.
func Merge(records []Record, record Record, remove bool) []Record {
	id := record.ID()
	merged := make([]Record, 0, len(records)+1)
	for _, existing := range records {
		if existing.ID() == id {
			continue
		}
		merged = append(merged, existing)
	}
	if !remove {
		merged = append(merged, record)
	}
	return merged
}

// IndexArtifact serializes a merged index as the FileArtifact that travels
// in the same batch as the content files it describes. Committing one
// without the other is an observable consistency violation, so the caller
// must never publish this separately.
func IndexArtifact(contentType string, records []Record) (store.FileArtifact, error) {
	if records == nil {
		records = []Record{}
	}
	encoded, err := json.Marshal(records)
	if err != nil {
		return store.FileArtifact{}, fmt.Errorf("publish: encode index %s: %w", IndexPath(contentType), err)
	}
	return store.FileArtifact{
		Path:     IndexPath(contentType),
		Content:  string(encoded),
		Encoding: store.EncodingUTF8,
	}, nil
}

// SortByID orders records by id for stable output in views that want a
// deterministic listing.
func SortByID(records []Record) {
	sort.Slice(records, func(i, j int) bool {
		return records[i].ID() < records[j].ID()
	})
}
