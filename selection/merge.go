// Package selection merges the editable fields of several gallery items into
// one view and resolves fields whose values disagree.
package selection

import (
	"fmt"
	"sort"
	"strings"

	"photoPreProcessor/gallery"
)

// Option keys offered in conflicts.
const (
	KeyDisable      = "disable"
	KeyReset        = "reset"
	KeyClear        = "clear"
	KeyUnion        = "union"
	KeyIntersection = "intersection"
	KeyDifference   = "difference"

	// KeyNotice prefixes the key of each copyright notice offered, so a
	// notice reading "clear" stays distinct from KeyClear.
	KeyNotice = "notice:"
)

// Panel is the enablement of an edit panel and of its reset action.
type Panel struct {
	Enabled      bool `json:"enabled"`
	ResetEnabled bool `json:"resetEnabled"`
}

type LocationPanel struct {
	Panel
	Location      *gallery.Location `json:"location,omitempty"`
	LookupEnabled bool              `json:"lookupEnabled"`
}

type TimezonePanel struct {
	Panel
	Timezones gallery.TimezonePair `json:"timezones"`
}

// KeywordPanel shows the keywords being edited. Seeded is set when the panel
// holds the intersection of the selection's keywords, which is not written
// to the items; later add and remove actions apply to every item directly.
type KeywordPanel struct {
	Panel
	Keywords gallery.Keywords `json:"keywords"`
	Seeded   bool             `json:"seeded"`
}

type CopyrightPanel struct {
	Panel
	Notice string `json:"notice"`
}

// Actions are the selection-wide actions that depend on edit state.
type Actions struct {
	Rotate           bool `json:"rotate"`
	ResetOrientation bool `json:"resetOrientation"`
	ResetAll         bool `json:"resetAll"`
	OpenEditor       bool `json:"openEditor"`
}

// Resolution records how a conflict was answered. Key is empty when the
// prompt was cancelled.
type Resolution struct {
	Field Field  `json:"field"`
	Key   string `json:"key"`
}

// Result is the merged view of a selection.
type Result struct {
	Count       int            `json:"count"`
	Location    LocationPanel  `json:"location"`
	Timezones   TimezonePanel  `json:"timezones"`
	Keywords    KeywordPanel   `json:"keywords"`
	Copyright   CopyrightPanel `json:"copyright"`
	Actions     Actions        `json:"actions"`
	Resolutions []Resolution   `json:"resolutions,omitempty"`
}

type locationKey struct {
	present bool
	loc     gallery.Location
}

// distinct collects values in first-seen order, deduplicated by key.
type distinct[K comparable, V any] struct {
	seen   map[K]struct{}
	values []V
}

func (d *distinct[K, V]) add(key K, v V) {
	if d.seen == nil {
		d.seen = map[K]struct{}{}
	}
	if _, ok := d.seen[key]; ok {
		return
	}
	d.seen[key] = struct{}{}
	d.values = append(d.values, v)
}

type merger struct {
	items   []*gallery.Item
	chooser Chooser
	result  Result
}

// choose asks the chooser and returns the key of the chosen option.
func (m *merger) choose(c Conflict) (string, bool) {
	i, ok := m.chooser.Choose(c)
	key := ""
	if ok && i >= 0 && i < len(c.Keys) {
		key = c.Keys[i]
	} else {
		ok = false
	}
	m.result.Resolutions = append(m.result.Resolutions, Resolution{Field: c.Field, Key: key})
	return key, ok
}

// Merge computes the merged view of items. Fields with exactly one distinct
// value are shown as they are; fields with several values are put to the
// chooser, and the chosen resolution is applied to every item. A nil
// chooser cancels every conflict.
func Merge(items []*gallery.Item, chooser Chooser) Result {
	if chooser == nil {
		chooser = Cancel
	}
	m := &merger{items: items, chooser: chooser, result: Result{Count: len(items)}}
	if len(items) == 0 {
		return m.result
	}

	var (
		locations distinct[locationKey, locationKey]
		timezones distinct[gallery.TimezonePair, gallery.TimezonePair]
		keywords  distinct[string, gallery.Keywords]
		notices   distinct[string, string]

		orientationEdited, locationEdited, timezonesEdited, keywordsEdited, copyrightEdited bool
	)
	for _, it := range items {
		loc, ok := it.Location()
		k := locationKey{present: ok, loc: loc}
		locations.add(k, k)
		timezones.add(it.Timezones(), it.Timezones())
		kws := it.Keywords()
		keywords.add(fmt.Sprintf("%q", []string(kws)), kws)
		notices.add(it.Copyright(), it.Copyright())

		orientationEdited = orientationEdited || it.OrientationEdited()
		locationEdited = locationEdited || it.LocationEdited()
		timezonesEdited = timezonesEdited || it.TimezonesEdited()
		keywordsEdited = keywordsEdited || it.KeywordsEdited()
		copyrightEdited = copyrightEdited || it.CopyrightEdited()
	}

	locationEdited = m.mergeLocation(locations.values, locationEdited)
	timezonesEdited = m.mergeTimezones(timezones.values, timezonesEdited)
	keywordsEdited = m.mergeKeywords(keywords.values, keywordsEdited)
	m.mergeCopyright(notices.values, copyrightEdited)

	m.result.Actions = Actions{
		Rotate:           true,
		ResetOrientation: orientationEdited,
		ResetAll:         orientationEdited || locationEdited || timezonesEdited || keywordsEdited,
		OpenEditor:       true,
	}
	return m.result
}

func (m *merger) mergeLocation(values []locationKey, edited bool) bool {
	p := LocationPanel{Panel: Panel{Enabled: true}, LookupEnabled: true}
	if len(values) == 1 {
		if v := values[0]; v.present {
			loc := v.loc
			p.Location = &loc
		}
	} else {
		key, ok := m.choose(Conflict{
			Field:   Location,
			Title:   "Location Collision",
			Message: "The selected images are tagged with different locations. Reset them, or disable geotagging?",
			Options: []string{"Disable geotagging.", "Reset the location of all images."},
			Keys:    []string{KeyDisable, KeyReset},
		})
		if ok && key == KeyReset {
			edited = false
			for _, it := range m.items {
				it.ClearLocation()
				edited = edited || it.LocationEdited()
			}
		} else {
			p.Enabled = false
			p.LookupEnabled = false
		}
	}
	p.ResetEnabled = edited
	m.result.Location = p
	return edited
}

func (m *merger) mergeTimezones(values []gallery.TimezonePair, edited bool) bool {
	p := TimezonePanel{Panel: Panel{Enabled: true}, Timezones: gallery.DefaultTimezones}
	if len(values) == 1 {
		p.Timezones = values[0]
	} else {
		candidates := map[string]struct{}{gallery.DefaultTimezones.String(): {}}
		for _, v := range values {
			candidates[v.String()] = struct{}{}
		}
		pairs := make([]string, 0, len(candidates))
		for s := range candidates {
			pairs = append(pairs, s)
		}
		sort.Strings(pairs)

		key, ok := m.choose(Conflict{
			Field:   Timezones,
			Title:   "Timezones Collision",
			Message: "The selected images feature different timezone correction information. Which one should be used?",
			Options: append([]string{"Disable timezone settings."}, pairs...),
			Keys:    append([]string{KeyDisable}, pairs...),
		})
		pair, parsed := gallery.ParseTimezonePair(key)
		if ok && key != KeyDisable && parsed {
			p.Timezones = pair
			edited = false
			for _, it := range m.items {
				_ = it.SetTimezones(pair.From, pair.To)
				edited = edited || it.TimezonesEdited()
			}
		} else {
			p.Enabled = false
		}
	}
	p.ResetEnabled = edited
	m.result.Timezones = p
	return edited
}

func (m *merger) mergeKeywords(values []gallery.Keywords, edited bool) bool {
	p := KeywordPanel{Panel: Panel{Enabled: true}, Keywords: gallery.Keywords{}}
	if len(values) == 1 {
		if values[0] != nil {
			p.Keywords = values[0]
		}
	} else {
		key, ok := m.choose(Conflict{
			Field:   Keywords,
			Title:   "Keyword Collision",
			Message: "The selected images feature different sets of keywords. What do you want to do?",
			Options: []string{
				"Disable keyword settings.",
				"Remove all keywords from all images.",
				"Apply union of all keywords to all images.",
				"Only edit keywords common to all images.",
				"Remove common keywords and merge the remaining.",
			},
			Keys: []string{KeyDisable, KeyClear, KeyUnion, KeyIntersection, KeyDifference},
		})
		apply := func(kws gallery.Keywords) {
			p.Keywords = kws
			edited = false
			for _, it := range m.items {
				it.SetKeywords(kws)
				edited = edited || it.KeywordsEdited()
			}
		}
		switch {
		case !ok || key == KeyDisable:
			p.Enabled = false
		case key == KeyClear:
			apply(gallery.Keywords{})
		case key == KeyUnion:
			apply(gallery.Union(values...))
		case key == KeyIntersection:
			p.Keywords = gallery.Intersection(values...)
			p.Seeded = true
		case key == KeyDifference:
			apply(gallery.SymmetricDifference(values...))
		}
	}
	p.ResetEnabled = edited
	m.result.Keywords = p
	return edited
}

func (m *merger) mergeCopyright(values []string, edited bool) {
	p := CopyrightPanel{Panel: Panel{Enabled: true}}
	if len(values) == 1 {
		p.Notice = values[0]
	} else {
		notices := append([]string(nil), values...)
		sort.Strings(notices)
		keys := []string{KeyClear}
		for _, n := range notices {
			keys = append(keys, KeyNotice+n)
		}
		key, ok := m.choose(Conflict{
			Field:   Copyright,
			Title:   "Copyright Collision",
			Message: "The selected images feature different copyright notices. Which one should be used?",
			Options: append([]string{"None (clear copyright notice)"}, notices...),
			Keys:    keys,
		})
		if ok {
			p.Notice = strings.TrimPrefix(key, KeyNotice)
			if key == KeyClear {
				p.Notice = ""
			}
			edited = false
			for _, it := range m.items {
				it.SetCopyright(p.Notice)
				edited = edited || it.CopyrightEdited()
			}
		} else {
			p.Enabled = false
		}
	}
	p.ResetEnabled = edited
	m.result.Copyright = p
}
