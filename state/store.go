// Package state persists the bot's only durable record: the id of the live
// channel message and the present-member set it was posted for. The file
// format is a small JSON document kept byte-compatible across versions so an
// upgraded bot never re-posts.
package state

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
)

// State is the persisted record. LastMessageID zero means no live message.
// PresentIDs must only change together with a successful send or fallback
// post, never on its own.
type State struct {
	LastMessageID int64
	PresentIDs    map[int]struct{}
}

// Empty returns the zero state used when nothing was persisted yet.
func Empty() State {
	return State{PresentIDs: make(map[int]struct{})}
}

// fileRecord is the on-disk shape. Field names match the original state file
// so existing deployments load cleanly.
type fileRecord struct {
	LastMessageID          *int64 `json:"last_message_id"`
	PreviousPresentMembers []int  `json:"previous_present_members"`
}

// Store reads and writes the state file.
type Store struct {
	Path string
}

// NewStore returns a store bound to path.
func NewStore(path string) *Store { return &Store{Path: path} }

// Load reads the state file. A missing or unparseable file is not an error:
// the bot starts fresh and will simply post a new message on the first
// change, so Load logs and returns the empty state instead of failing.
func (s *Store) Load() State {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("state file unreadable, starting fresh", slog.String("path", s.Path), slog.Any("err", err))
		}
		return Empty()
	}
	var rec fileRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		slog.Warn("state file corrupt, starting fresh", slog.String("path", s.Path), slog.Any("err", err))
		return Empty()
	}
	st := Empty()
	if rec.LastMessageID != nil {
		st.LastMessageID = *rec.LastMessageID
	}
	for _, id := range rec.PreviousPresentMembers {
		st.PresentIDs[id] = struct{}{}
	}
	return st
}

// Save writes the full record via a temp file in the same directory followed
// by a rename, so a crash mid-write leaves the previous record intact.
func (s *Store) Save(st State) error {
	rec := fileRecord{PreviousPresentMembers: make([]int, 0, len(st.PresentIDs))}
	if st.LastMessageID != 0 {
		id := st.LastMessageID
		rec.LastMessageID = &id
	}
	for id := range st.PresentIDs {
		rec.PreviousPresentMembers = append(rec.PreviousPresentMembers, id)
	}
	sort.Ints(rec.PreviousPresentMembers)

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	dir := filepath.Dir(s.Path)
	tmp, err := os.CreateTemp(dir, ".state-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write state: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close state: %w", err)
	}
	if err := os.Rename(tmpName, s.Path); err != nil {
		return fmt.Errorf("rename state into place: %w", err)
	}
	return nil
}

// Equal reports whether two present-id sets contain exactly the same ids.
func Equal(a, b map[int]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for id := range a {
		if _, ok := b[id]; !ok {
			return false
		}
	}
	return true
}
