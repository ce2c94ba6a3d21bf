package session

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photoPreProcessor/gallery"
	"photoPreProcessor/selection"
)

func ts(t *testing.T, s string) *time.Time {
	t.Helper()
	v, err := time.Parse("2006-01-02 15:04:05", s)
	require.NoError(t, err)
	return &v
}

func fixture(t *testing.T, opts Options) *Session {
	t.Helper()
	if opts.Logger == nil {
		logger, _ := test.NewNullLogger()
		opts.Logger = logger
	}
	s := New(opts)
	n := s.Load("/photos", []gallery.Record{
		{Path: "/photos/b.jpg", CapturedAt: ts(t, "2012-07-14 12:00:00"), Model: "EOS", Keywords: []string{"x", "y"}},
		{Path: "/photos/a.jpg", CapturedAt: ts(t, "2012-07-15 08:00:00"), Model: "EOS", Keywords: []string{"y", "z"}},
		{Path: "/photos/c.jpg", Model: "D90", CopyrightRaw: "(C) 2011 Jane Doe"},
	})
	require.Equal(t, 3, n)
	return s
}

func filenames(views []gallery.View) []string {
	out := make([]string, len(views))
	for i, v := range views {
		out[i] = v.Filename
	}
	return out
}

func TestLoadAndSort(t *testing.T) {
	s := fixture(t, Options{})
	assert.Equal(t, "/photos", s.Directory())
	assert.Equal(t, []string{"a.jpg", "b.jpg", "c.jpg"}, filenames(s.Views()))

	s.SetSortOrder(gallery.ByTime)
	assert.Equal(t, []string{"c.jpg", "b.jpg", "a.jpg"}, filenames(s.Views()))
	assert.Equal(t, gallery.ByTime, s.SortOrder())

	_, err := s.Item("nope.jpg")
	assert.ErrorIs(t, err, ErrUnknownItem)
	assert.False(t, s.AnyEdited())
	assert.Empty(t, s.Pending())

	s.Clear()
	assert.Equal(t, 0, s.Len())
}

func TestSelectUnknownName(t *testing.T) {
	s := fixture(t, Options{})
	_, err := s.Select([]string{"a.jpg", "zzz.jpg"}, nil)
	assert.ErrorIs(t, err, ErrUnknownItem)
}

func TestEditsNeedSelection(t *testing.T) {
	s := fixture(t, Options{})
	_, err := s.RotateRight()
	assert.ErrorIs(t, err, ErrEmptySelection)
	_, err = s.Reset("all")
	assert.ErrorIs(t, err, ErrEmptySelection)
	_, err = s.SelectedPaths()
	assert.ErrorIs(t, err, ErrEmptySelection)
}

func TestDisabledPanelRejectsEdits(t *testing.T) {
	s := fixture(t, Options{})
	r, err := s.Select([]string{"a.jpg", "b.jpg"}, selection.Cancel)
	require.NoError(t, err)
	assert.False(t, r.Keywords.Enabled)

	_, err = s.AddKeyword("q")
	assert.ErrorIs(t, err, ErrPanelDisabled)
	v, _ := s.Item("a.jpg")
	assert.Equal(t, gallery.Keywords{"y", "z"}, v.Keywords)
}

func TestSeededKeywordsPanel(t *testing.T) {
	s := fixture(t, Options{})
	r, err := s.Select([]string{"a.jpg", "b.jpg"}, selection.Preset{selection.Keywords: selection.KeyIntersection})
	require.NoError(t, err)
	assert.True(t, r.Keywords.Seeded)
	assert.Equal(t, gallery.Keywords{"y"}, r.Keywords.Keywords)

	r, err = s.AddKeyword("lake")
	require.NoError(t, err)
	assert.Equal(t, gallery.Keywords{"lake", "y"}, r.Keywords.Keywords)
	assert.True(t, r.Keywords.ResetEnabled)
	assert.True(t, r.Actions.ResetAll)

	r, err = s.RemoveKeyword("y")
	require.NoError(t, err)
	assert.Equal(t, gallery.Keywords{"lake"}, r.Keywords.Keywords)

	a, _ := s.Item("a.jpg")
	b, _ := s.Item("b.jpg")
	assert.Equal(t, gallery.Keywords{"z", "lake"}, a.Keywords)
	assert.Equal(t, gallery.Keywords{"x", "lake"}, b.Keywords)
}

func TestStrictSurfacesRejectedEdits(t *testing.T) {
	lenient := fixture(t, Options{})
	_, err := lenient.Select([]string{"a.jpg"}, nil)
	require.NoError(t, err)
	_, err = lenient.SetTimezones("Mars/Olympus", "UTC")
	assert.NoError(t, err)

	strict := fixture(t, Options{Strict: true})
	_, err = strict.Select([]string{"a.jpg"}, nil)
	require.NoError(t, err)
	_, err = strict.SetTimezones("Mars/Olympus", "UTC")
	assert.ErrorIs(t, err, gallery.ErrUnknownTimezone)

	_, err = strict.SetLocation(&gallery.Location{Latitude: 91})
	assert.ErrorIs(t, err, gallery.ErrInvalidLocation)
	v, _ := strict.Item("a.jpg")
	assert.Nil(t, v.Location)
}

func TestSelectionEditsAndPending(t *testing.T) {
	s := fixture(t, Options{})
	_, err := s.Select([]string{"a.jpg", "b.jpg"}, selection.Preset{selection.Keywords: selection.KeyUnion})
	require.NoError(t, err)

	r, err := s.SetLocation(&gallery.Location{Latitude: 52.5, Longitude: 13.4, Elevation: 34})
	require.NoError(t, err)
	require.NotNil(t, r.Location.Location)
	assert.True(t, r.Location.ResetEnabled)

	r, err = s.SetTimezones("Europe/Berlin", "UTC")
	require.NoError(t, err)
	assert.Equal(t, gallery.TimezonePair{From: "Europe/Berlin", To: "UTC"}, r.Timezones.Timezones)

	r, err = s.RotateRight()
	require.NoError(t, err)
	assert.True(t, r.Actions.ResetOrientation)

	assert.True(t, s.AnyEdited())
	pending := s.Pending()
	require.Len(t, pending, 2)
	assert.Equal(t, "/photos/a.jpg", pending[0].Path)
	assert.Equal(t, gallery.Param{Tag: "Orientation#", Value: "6"}, pending[0].Params[0])

	feed := s.RenameFeed()
	require.Len(t, feed, 3)
	require.NotNil(t, feed[1].Timestamp)
	assert.Equal(t, "2012-07-14 10:00:00", feed[1].Timestamp.Format("2006-01-02 15:04:05"))
	assert.Equal(t, "EOS", feed[1].Model)
	assert.Nil(t, feed[2].Timestamp)

	paths, err := s.SelectedPaths()
	require.NoError(t, err)
	assert.Equal(t, []string{"/photos/a.jpg", "/photos/b.jpg"}, paths)
}

func TestResetRemergesWithCancel(t *testing.T) {
	s := fixture(t, Options{})
	r, err := s.Select([]string{"a.jpg", "b.jpg"}, selection.Preset{selection.Keywords: selection.KeyClear})
	require.NoError(t, err)
	assert.True(t, r.Keywords.Enabled)
	assert.True(t, r.Keywords.ResetEnabled)

	r, err = s.Reset("keywords")
	require.NoError(t, err)
	// the original keyword sets differ again, and the reset does not ask
	assert.False(t, r.Keywords.Enabled)
	assert.False(t, r.Keywords.ResetEnabled)
	a, _ := s.Item("a.jpg")
	assert.Equal(t, gallery.Keywords{"y", "z"}, a.Keywords)

	_, err = s.Reset("bogus")
	assert.ErrorIs(t, err, ErrUnknownField)
	assert.Contains(t, ResetFields(), "orientation")
}

func TestCopyrightMarksEditedOption(t *testing.T) {
	s := fixture(t, Options{CopyrightMarksEdited: true})
	_, err := s.Select([]string{"c.jpg"}, nil)
	require.NoError(t, err)
	r, err := s.SetCopyright("ACME")
	require.NoError(t, err)
	assert.Equal(t, "ACME", r.Copyright.Notice)
	assert.True(t, s.AnyEdited())
	assert.Equal(t, []gallery.Param{{Tag: "Copyright", Value: "(C) ACME"}}, s.Pending()[0].Params)

	plain := fixture(t, Options{})
	_, err = plain.Select([]string{"c.jpg"}, nil)
	require.NoError(t, err)
	_, err = plain.SetCopyright("ACME")
	require.NoError(t, err)
	assert.False(t, plain.AnyEdited())
}

func TestSelectLogsResolutions(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	s := fixture(t, Options{Logger: logger})
	_, err := s.Select([]string{"a.jpg", "b.jpg"}, nil)
	require.NoError(t, err)

	var fields []interface{}
	for _, e := range hook.AllEntries() {
		if e.Message == "conflict resolved" {
			fields = append(fields, e.Data["field"])
		}
	}
	assert.Equal(t, []interface{}{selection.Keywords}, fields)
}
