package ledger

import (
	"encoding/json"
	"fmt"
	"sort"

	"pocketledger/internal/uuid"
)

// Tree is the transactional view handed to a RunTransaction attempt. Reads
// observe the snapshot plus any writes already staged in this attempt.
type Tree struct {
	userID   string
	revision int64
	docs     Snapshot
	order    []Path
	staged   map[Path]Write
}

// NewTree wraps a snapshot taken at revision. The snapshot is owned by the
// tree afterwards.
func NewTree(userID string, revision int64, snap Snapshot) *Tree {
	if snap == nil {
		snap = Snapshot{}
	}
	return &Tree{
		userID:   userID,
		revision: revision,
		docs:     snap,
		staged:   make(map[Path]Write),
	}
}

// UserID returns the owner of the subtree.
func (t *Tree) UserID() string { return t.userID }

// Revision returns the revision the snapshot was taken at.
func (t *Tree) Revision() int64 { return t.revision }

// NewID allocates a record id.
func (t *Tree) NewID() string { return uuid.New() }

// Get returns the record at id, or false if absent.
func (t *Tree) Get(coll Collection, id string) (json.RawMessage, bool) {
	raw, ok := t.docs[coll][id]
	return raw, ok
}

// IDs returns the ids present in the collection, sorted.
func (t *Tree) IDs(coll Collection) []string {
	docs := t.docs[coll]
	ids := make([]string, 0, len(docs))
	for id := range docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// List returns every record in the collection ordered by id.
func (t *Tree) List(coll Collection) []json.RawMessage {
	ids := t.IDs(coll)
	out := make([]json.RawMessage, 0, len(ids))
	for _, id := range ids {
		out = append(out, t.docs[coll][id])
	}
	return out
}

// Set stages a write of data at (coll, id).
func (t *Tree) Set(coll Collection, id string, data json.RawMessage) {
	if t.docs[coll] == nil {
		t.docs[coll] = make(map[string]json.RawMessage)
	}
	t.docs[coll][id] = data
	t.stage(Write{Path: Path{UserID: t.userID, Collection: coll, ID: id}, Data: data})
}

// Delete stages removal of (coll, id). Deleting an absent record is a no-op
// write.
func (t *Tree) Delete(coll Collection, id string) {
	delete(t.docs[coll], id)
	t.stage(Write{Path: Path{UserID: t.userID, Collection: coll, ID: id}, Delete: true})
}

func (t *Tree) stage(w Write) {
	if _, seen := t.staged[w.Path]; !seen {
		t.order = append(t.order, w.Path)
	}
	t.staged[w.Path] = w
}

// Writes returns the staged writes in first-touch order, one per path.
func (t *Tree) Writes() []Write {
	out := make([]Write, 0, len(t.order))
	for _, p := range t.order {
		out = append(out, t.staged[p])
	}
	return out
}

// GetAs decodes the record at (coll, id). Missing records yield ErrNotFound.
func GetAs[T any](t *Tree, coll Collection, id string) (*T, error) {
	raw, ok := t.Get(coll, id)
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, coll, id)
	}
	return Decode[T](raw)
}

// ListAs decodes every record in the collection.
func ListAs[T any](t *Tree, coll Collection) ([]T, error) {
	return DecodeAll[T](t.List(coll))
}

// Put encodes v and stages it at (coll, id).
func Put(t *Tree, coll Collection, id string, v any) error {
	data, err := Encode(v)
	if err != nil {
		return err
	}
	t.Set(coll, id, data)
	return nil
}
