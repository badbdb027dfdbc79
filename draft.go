package gitpress

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/gitpress-io/gitpress/content"
)

// Draft states. Clean is the absence of a stored draft: the published copy
// is authoritative. The legal transitions are
//
//	Clean      --save-->     Dirty
//	Dirty      --save-->     Dirty
//	Dirty      --publish-->  Publishing
//	Publishing --success-->  Clean   (row deleted)
//	Publishing --failure-->  Dirty
//
// A draft is only cleared on confirmed publish success, never
// optimistically, so a failed publish loses no edits.
const (
	DraftDirty      = "dirty"
	DraftPublishing = "publishing"
)

// ErrDraftPublishing is returned when an edit or second publish arrives
// while a publish for the same item is in flight.
var ErrDraftPublishing = errors.New("gitpress: draft publish in progress")

// ErrNoDraft is returned when no draft exists for the item.
var ErrNoDraft = sql.ErrNoRows

// Draft is an in-progress edit of one content item, persisted so edits
// survive admin server restarts until a publish commits the authoritative
// copy.
type Draft struct {
	Type      string
	ID        string
	State     string
	Item      *content.ContentItem
	UpdatedAt time.Time
}

// DraftStore persists drafts in SQLite.
type DraftStore struct {
	db *sql.DB
}

// NewDraftStore opens (or creates) the SQLite database at path, ensures the
// data directory exists, and runs schema migrations.
func NewDraftStore(path string) (*DraftStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL for concurrent read/write, busy timeout so writers wait instead
	// of failing with SQLITE_BUSY.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
	`); err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &DraftStore{db: db}
	if err := s.ensureSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *DraftStore) Close() error {
	return s.db.Close()
}

func (s *DraftStore) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS drafts (
    type TEXT NOT NULL,
    id TEXT NOT NULL,
    state TEXT NOT NULL,
    data TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    PRIMARY KEY (type, id)
);
`)
	return err
}

// Get returns the draft for one item, or ErrNoDraft.
func (s *DraftStore) Get(contentType, id string) (Draft, error) {
	var state, data, updated string
	err := s.db.QueryRow(`SELECT state, data, updated_at FROM drafts WHERE type = ? AND id = ?`, contentType, id).
		Scan(&state, &data, &updated)
	if err != nil {
		return Draft{}, err
	}
	return decodeDraft(contentType, id, state, data, updated)
}

// Save upserts the draft for one item and marks it dirty. Edits arriving
// while a publish is in flight are rejected so the publish snapshot stays
// consistent.
func (s *DraftStore) Save(item *content.ContentItem) error {
	var state string
	err := s.db.QueryRow(`SELECT state FROM drafts WHERE type = ? AND id = ?`, item.Type, item.ID).Scan(&state)
	if err != nil && err != sql.ErrNoRows {
		return err
	}
	if state == DraftPublishing {
		return ErrDraftPublishing
	}
	data, err := encodeDraft(item)
	if err != nil {
		return fmt.Errorf("gitpress: encode draft %s/%s: %w", item.Type, item.ID, err)
	}
	_, err = s.db.Exec(`INSERT OR REPLACE INTO drafts (type, id, state, data, updated_at) VALUES (?, ?, ?, ?, ?)`,
		item.Type, item.ID, DraftDirty, string(data), time.Now().UTC().Format(time.RFC3339))
	return err
}

// BeginPublish transitions the draft to Publishing. Only a dirty draft can
// begin a publish; a concurrent publish of the same item is rejected.
func (s *DraftStore) BeginPublish(contentType, id string) (Draft, error) {
	draft, err := s.Get(contentType, id)
	if err != nil {
		return Draft{}, err
	}
	if draft.State == DraftPublishing {
		return Draft{}, ErrDraftPublishing
	}
	_, err = s.db.Exec(`UPDATE drafts SET state = ?, updated_at = ? WHERE type = ? AND id = ?`,
		DraftPublishing, time.Now().UTC().Format(time.RFC3339), contentType, id)
	if err != nil {
		return Draft{}, err
	}
	draft.State = DraftPublishing
	return draft, nil
}

// FinishPublish clears the draft after a confirmed publish success.
func (s *DraftStore) FinishPublish(contentType, id string) error {
	_, err := s.db.Exec(`DELETE FROM drafts WHERE type = ? AND id = ?`, contentType, id)
	return err
}

// AbortPublish returns a failed publish's draft to dirty so the operator
// can retry without data loss.
func (s *DraftStore) AbortPublish(contentType, id string) error {
	_, err := s.db.Exec(`UPDATE drafts SET state = ?, updated_at = ? WHERE type = ? AND id = ? AND state = ?`,
		DraftDirty, time.Now().UTC().Format(time.RFC3339), contentType, id, DraftPublishing)
	return err
}

// BeginDelete marks the item Publishing for the duration of a delete
// publish. Unlike BeginPublish it does not require an existing draft: when
// none exists a marker row is inserted so an edit arriving mid-delete is
// rejected instead of being silently swallowed by FinishPublish. The
// returned hadDraft must be passed to AbortDelete on failure.
func (s *DraftStore) BeginDelete(contentType, id string) (hadDraft bool, err error) {
	_, err = s.BeginPublish(contentType, id)
	if err == nil {
		return true, nil
	}
	if err != ErrNoDraft {
		return false, err
	}
	data, err := encodeDraft(&content.ContentItem{Type: contentType, ID: id})
	if err != nil {
		return false, err
	}
	_, err = s.db.Exec(`INSERT OR REPLACE INTO drafts (type, id, state, data, updated_at) VALUES (?, ?, ?, ?, ?)`,
		contentType, id, DraftPublishing, data, time.Now().UTC().Format(time.RFC3339))
	return false, err
}

// AbortDelete undoes BeginDelete after a failed delete publish: a real
// draft returns to dirty, a marker row is removed entirely.
func (s *DraftStore) AbortDelete(contentType, id string, hadDraft bool) error {
	if hadDraft {
		return s.AbortPublish(contentType, id)
	}
	_, err := s.db.Exec(`DELETE FROM drafts WHERE type = ? AND id = ? AND state = ?`, contentType, id, DraftPublishing)
	return err
}

// Discard drops the draft without publishing (the cancel button).
func (s *DraftStore) Discard(contentType, id string) error {
	_, err := s.db.Exec(`DELETE FROM drafts WHERE type = ? AND id = ? AND state != ?`, contentType, id, DraftPublishing)
	return err
}

// List returns all drafts of one content type, newest first.
func (s *DraftStore) List(contentType string) ([]Draft, error) {
	rows, err := s.db.Query(`SELECT id, state, data, updated_at FROM drafts WHERE type = ? ORDER BY updated_at DESC`, contentType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var drafts []Draft
	for rows.Next() {
		var id, state, data, updated string
		if err := rows.Scan(&id, &state, &data, &updated); err != nil {
			return nil, err
		}
		draft, err := decodeDraft(contentType, id, state, data, updated)
		if err != nil {
			return nil, err
		}
		drafts = append(drafts, draft)
	}
	return drafts, rows.Err()
}

// draftPayload wraps the item document with state the document itself never
// carries: pending attachment uploads must survive a server restart too.
type draftPayload struct {
	Item        json.RawMessage   `json:"item"`
	Attachments map[string]string `json:"attachments,omitempty"`
}

func encodeDraft(item *content.ContentItem) (string, error) {
	doc, err := json.Marshal(item)
	if err != nil {
		return "", err
	}
	data, err := json.Marshal(draftPayload{Item: doc, Attachments: item.Attachments})
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodeDraft(contentType, id, state, data, updated string) (Draft, error) {
	var payload draftPayload
	if err := json.Unmarshal([]byte(data), &payload); err != nil {
		return Draft{}, fmt.Errorf("gitpress: decode draft %s/%s: %w", contentType, id, err)
	}
	item := &content.ContentItem{}
	if err := json.Unmarshal(payload.Item, item); err != nil {
		return Draft{}, fmt.Errorf("gitpress: decode draft %s/%s: %w", contentType, id, err)
	}
	if len(payload.Attachments) > 0 {
		item.Attachments = payload.Attachments
	}
	item.Type = contentType
	item.ID = id
	draft := Draft{Type: contentType, ID: id, State: state, Item: item}
	if t, err := time.Parse(time.RFC3339, updated); err == nil {
		draft.UpdatedAt = t
	}
	return draft, nil
}
