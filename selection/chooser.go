package selection

import (
	"fmt"
	"slices"
)

// Field names an editable field the merge engine reconciles.
type Field int

const (
	Location Field = iota
	Timezones
	Keywords
	Copyright
)

func (f Field) String() string {
	switch f {
	case Location:
		return "location"
	case Timezones:
		return "timezones"
	case Keywords:
		return "keywords"
	case Copyright:
		return "copyright"
	}
	return "unknown"
}

func (f Field) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

func (f *Field) UnmarshalText(text []byte) error {
	parsed, ok := ParseField(string(text))
	if !ok {
		return fmt.Errorf("unknown field %q", text)
	}
	*f = parsed
	return nil
}

// ParseField is the inverse of Field.String.
func ParseField(s string) (Field, bool) {
	for _, f := range []Field{Location, Timezones, Keywords, Copyright} {
		if f.String() == s {
			return f, true
		}
	}
	return 0, false
}

// Conflict describes a field whose value differs across the selection.
// Options are human readable, Keys are stable identifiers; both have the
// same length and order.
type Conflict struct {
	Field   Field    `json:"field"`
	Title   string   `json:"title"`
	Message string   `json:"message"`
	Options []string `json:"options"`
	Keys    []string `json:"keys"`
}

// Chooser resolves a conflict by returning the index of the chosen option.
// Returning ok == false means the prompt was cancelled.
type Chooser interface {
	Choose(c Conflict) (choice int, ok bool)
}

// ChooserFunc adapts a function to the Chooser interface.
type ChooserFunc func(c Conflict) (int, bool)

func (f ChooserFunc) Choose(c Conflict) (int, bool) { return f(c) }

// Cancel declines every conflict, which disables the affected panels.
var Cancel Chooser = ChooserFunc(func(Conflict) (int, bool) { return 0, false })

// Preset answers conflicts from a map of field to option key. Fields without
// an answer, or with a key that is not offered, are cancelled.
type Preset map[Field]string

func (p Preset) Choose(c Conflict) (int, bool) {
	key, ok := p[c.Field]
	if !ok {
		return 0, false
	}
	i := slices.Index(c.Keys, key)
	return i, i >= 0
}
