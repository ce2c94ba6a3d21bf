package session

import (
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"photoPreProcessor/gallery"
	"photoPreProcessor/selection"
)

// editLocked runs fn on every selected item. The panel check is skipped when
// panel is nil.
func (s *Session) editLocked(panel *selection.Panel, fn func(*gallery.Item) error) error {
	if len(s.selected) == 0 {
		return ErrEmptySelection
	}
	if panel != nil && !panel.Enabled {
		return ErrPanelDisabled
	}
	var first error
	for _, e := range s.selected {
		if err := fn(e.item); err != nil {
			s.log.WithFields(logrus.Fields{"file": e.item.Filename(), "error": err}).Debug("edit rejected")
			if first == nil {
				first = err
			}
		}
	}
	s.refreshLocked()
	if s.opts.Strict {
		return first
	}
	return nil
}

// refreshLocked updates the merged view after an edit without prompting
// again: values come from the now uniform items, reset flags from their edit
// state.
func (s *Session) refreshLocked() {
	m := &s.merged
	var orientation, location, timezones, keywords, copyright bool
	for _, e := range s.selected {
		orientation = orientation || e.item.OrientationEdited()
		location = location || e.item.LocationEdited()
		timezones = timezones || e.item.TimezonesEdited()
		keywords = keywords || e.item.KeywordsEdited()
		copyright = copyright || e.item.CopyrightEdited()
	}
	if len(s.selected) > 0 {
		first := s.selected[0].item
		if m.Location.Enabled {
			m.Location.Location = nil
			if loc, ok := first.Location(); ok {
				m.Location.Location = &loc
			}
		}
		if m.Timezones.Enabled {
			m.Timezones.Timezones = first.Timezones()
		}
		if m.Keywords.Enabled {
			if m.Keywords.Seeded {
				m.Keywords.Keywords = gallery.Intersection(s.keywordSets()...)
			} else if kws := first.Keywords(); kws != nil {
				m.Keywords.Keywords = kws
			} else {
				m.Keywords.Keywords = gallery.Keywords{}
			}
		}
		if m.Copyright.Enabled {
			m.Copyright.Notice = first.Copyright()
		}
	}
	m.Location.ResetEnabled = location
	m.Timezones.ResetEnabled = timezones
	m.Keywords.ResetEnabled = keywords
	m.Copyright.ResetEnabled = copyright
	m.Actions.ResetOrientation = orientation
	m.Actions.ResetAll = orientation || location || timezones || keywords
}

func (s *Session) keywordSets() []gallery.Keywords {
	sets := make([]gallery.Keywords, len(s.selected))
	for i, e := range s.selected {
		sets[i] = e.item.Keywords()
	}
	return sets
}

func (s *Session) RotateLeft() (selection.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.editLocked(nil, func(it *gallery.Item) error { it.RotateLeft(); return nil })
	return s.merged, err
}

func (s *Session) RotateRight() (selection.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.editLocked(nil, func(it *gallery.Item) error { it.RotateRight(); return nil })
	return s.merged, err
}

// SetLocation tags the selection. A nil location removes the GPS data.
// Invalid coordinates clear the location as well.
func (s *Session) SetLocation(loc *gallery.Location) (selection.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.editLocked(&s.merged.Location.Panel, func(it *gallery.Item) error {
		if loc == nil {
			it.ClearLocation()
			return nil
		}
		return it.SetLocation(loc.Latitude, loc.Longitude, loc.Elevation)
	})
	return s.merged, err
}

func (s *Session) SetTimezones(from, to string) (selection.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.editLocked(&s.merged.Timezones.Panel, func(it *gallery.Item) error {
		return it.SetTimezones(from, to)
	})
	return s.merged, err
}

func (s *Session) AddKeyword(keyword string) (selection.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.editLocked(&s.merged.Keywords.Panel, func(it *gallery.Item) error {
		it.AddKeyword(keyword)
		return nil
	})
	return s.merged, err
}

func (s *Session) RemoveKeyword(keyword string) (selection.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.editLocked(&s.merged.Keywords.Panel, func(it *gallery.Item) error {
		it.RemoveKeyword(keyword)
		return nil
	})
	return s.merged, err
}

func (s *Session) SetCopyright(notice string) (selection.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.editLocked(&s.merged.Copyright.Panel, func(it *gallery.Item) error {
		it.SetCopyright(notice)
		return nil
	})
	return s.merged, err
}

func (s *Session) SetDescription(description string) (selection.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.editLocked(nil, func(it *gallery.Item) error {
		it.SetDescription(description)
		return nil
	})
	return s.merged, err
}

var resetters = map[string]func(*gallery.Item){
	"orientation": (*gallery.Item).ResetRotation,
	"location":    (*gallery.Item).ResetLocation,
	"timezones":   (*gallery.Item).ResetTimezones,
	"keywords":    (*gallery.Item).ResetKeywords,
	"copyright":   (*gallery.Item).ResetCopyright,
	"description": (*gallery.Item).ResetDescription,
	"all":         (*gallery.Item).ResetAll,
}

// ResetFields lists the names Reset accepts.
func ResetFields() []string {
	names := make([]string, 0, len(resetters))
	for name := range resetters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Reset discards the named edit on every selected item and merges the
// selection again. Conflicts that reappear are cancelled, so their panels
// come back disabled until the selection is made again with answers.
func (s *Session) Reset(field string) (selection.Result, error) {
	reset, ok := resetters[field]
	if !ok {
		return selection.Result{}, fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.selected) == 0 {
		return s.merged, ErrEmptySelection
	}
	for _, e := range s.selected {
		reset(e.item)
	}
	s.remergeLocked(selection.Cancel)
	s.log.WithFields(logrus.Fields{"field": field, "items": len(s.selected)}).Debug("selection reset")
	return s.merged, nil
}
