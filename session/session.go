// Package session holds the directory currently being edited: its items, the
// sort order, the selection and the merged view of that selection.
package session

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"photoPreProcessor/gallery"
	"photoPreProcessor/selection"
)

var (
	ErrUnknownItem    = errors.New("unknown item")
	ErrEmptySelection = errors.New("empty selection")
	ErrPanelDisabled  = errors.New("panel disabled for this selection")
	ErrUnknownField   = errors.New("unknown field")
)

// Options tune how edits are validated and tracked.
type Options struct {
	// Strict returns rejected edits to the caller instead of only logging them.
	Strict bool
	// CopyrightMarksEdited makes a copyright change count as an edit of the item.
	CopyrightMarksEdited bool
	Logger               logrus.FieldLogger
}

type entry struct {
	path      string
	item      *gallery.Item
	thumbnail []byte
}

// Session is safe for concurrent use. Every method runs to completion under
// one lock.
type Session struct {
	mu   sync.Mutex
	opts Options
	log  logrus.FieldLogger

	directory string
	entries   []*entry
	byName    map[string]*entry
	order     gallery.SortOrder

	selected []*entry
	merged   selection.Result
}

func New(opts Options) *Session {
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Session{
		opts:   opts,
		log:    log.WithField("component", "session"),
		byName: map[string]*entry{},
	}
}

// Load replaces the directory view with items built from records. The
// selection is cleared.
func (s *Session) Load(directory string, records []gallery.Record) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	opts := []gallery.Option{gallery.CountCopyright(s.opts.CopyrightMarksEdited)}
	s.directory = directory
	s.entries = make([]*entry, 0, len(records))
	s.byName = make(map[string]*entry, len(records))
	for _, r := range records {
		e := &entry{path: r.Path, item: gallery.NewItemFromRecord(r, opts...), thumbnail: r.Thumbnail}
		if e.path == "" {
			e.path = filepath.Join(directory, e.item.Filename())
		}
		if _, dup := s.byName[e.item.Filename()]; dup {
			s.log.WithField("file", e.item.Filename()).Warn("duplicate file name, keeping the first")
			continue
		}
		s.byName[e.item.Filename()] = e
		s.entries = append(s.entries, e)
	}
	s.sortLocked()
	s.selected = nil
	s.merged = selection.Merge(nil, nil)
	s.log.WithFields(logrus.Fields{"directory": directory, "items": len(s.entries)}).Info("directory loaded")
	return len(s.entries)
}

// Clear empties the view.
func (s *Session) Clear() {
	s.Load("", nil)
}

func (s *Session) Directory() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.directory
}

func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *Session) sortLocked() {
	items := make([]*gallery.Item, len(s.entries))
	for i, e := range s.entries {
		items[i] = e.item
	}
	gallery.Sort(items, s.order)
	for i, it := range items {
		s.entries[i] = s.byName[it.Filename()]
	}
}

func (s *Session) SortOrder() gallery.SortOrder {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.order
}

func (s *Session) SetSortOrder(order gallery.SortOrder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order = order
	s.sortLocked()
}

// Views returns snapshots of all items in the current sort order.
func (s *Session) Views() []gallery.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]gallery.View, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.item.View()
	}
	return out
}

func (s *Session) Item(name string) (gallery.View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.byName[name]
	if !ok {
		return gallery.View{}, fmt.Errorf("%w: %s", ErrUnknownItem, name)
	}
	return e.item.View(), nil
}

func (s *Session) String(name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.byName[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownItem, name)
	}
	return e.item.String(), nil
}

// ThumbnailSource is what a thumbnail renderer needs to know about an item.
type ThumbnailSource struct {
	Path        string
	Digest      string
	Embedded    []byte
	Orientation int
}

func (s *Session) Thumbnail(name string) (ThumbnailSource, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.byName[name]
	if !ok {
		return ThumbnailSource{}, fmt.Errorf("%w: %s", ErrUnknownItem, name)
	}
	return ThumbnailSource{Path: e.path, Digest: e.item.Digest(), Embedded: e.thumbnail, Orientation: e.item.EffectiveOrientation()}, nil
}

// Select makes names the current selection and merges it, putting conflicts
// to chooser. An empty list clears the selection.
func (s *Session) Select(names []string, chooser selection.Chooser) (selection.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	picked := make([]*entry, 0, len(names))
	seen := map[string]bool{}
	for _, name := range names {
		e, ok := s.byName[name]
		if !ok {
			return selection.Result{}, fmt.Errorf("%w: %s", ErrUnknownItem, name)
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		picked = append(picked, e)
	}
	s.selected = picked
	s.remergeLocked(chooser)
	for _, r := range s.merged.Resolutions {
		s.log.WithFields(logrus.Fields{"field": r.Field, "choice": r.Key}).Debug("conflict resolved")
	}
	return s.merged, nil
}

func (s *Session) remergeLocked(chooser selection.Chooser) {
	s.merged = selection.Merge(s.selectedItems(), chooser)
}

func (s *Session) selectedItems() []*gallery.Item {
	items := make([]*gallery.Item, len(s.selected))
	for i, e := range s.selected {
		items[i] = e.item
	}
	return items
}

// Selection returns the merged view of the current selection.
func (s *Session) Selection() selection.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.merged
}

func (s *Session) SelectedNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, len(s.selected))
	for i, e := range s.selected {
		names[i] = e.item.Filename()
	}
	return names
}

// SelectedPaths returns the file paths of the selection, for handing to an
// external editor.
func (s *Session) SelectedPaths() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.selected) == 0 {
		return nil, ErrEmptySelection
	}
	paths := make([]string, len(s.selected))
	for i, e := range s.selected {
		paths[i] = e.path
	}
	return paths, nil
}

// AnyEdited reports whether any item of the directory has pending edits.
func (s *Session) AnyEdited() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		if e.item.Edited() {
			return true
		}
	}
	return false
}

// Change is the pending writeback of one edited file.
type Change struct {
	Path     string          `json:"path"`
	Filename string          `json:"filename"`
	Params   []gallery.Param `json:"params"`
}

// Pending lists the writebacks of every edited item in view order.
func (s *Session) Pending() []Change {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Change
	for _, e := range s.entries {
		if params := e.item.ExportParams(); len(params) > 0 {
			out = append(out, Change{Path: e.path, Filename: e.item.Filename(), Params: params})
		}
	}
	return out
}

// RenameEntry carries what the renamer needs for one file. Timestamp is the
// shifted capture time and is nil when the file has none.
type RenameEntry struct {
	Path      string     `json:"path"`
	Filename  string     `json:"filename"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
	Model     string     `json:"model"`
}

// RenameFeed lists every item of the directory in view order.
func (s *Session) RenameFeed() []RenameEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]RenameEntry, len(s.entries))
	for i, e := range s.entries {
		r := RenameEntry{Path: e.path, Filename: e.item.Filename(), Model: e.item.CameraModel()}
		if ts, ok := e.item.ShiftedTimestamp(); ok {
			r.Timestamp = &ts
		}
		out[i] = r
	}
	return out
}
