package multilingual

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMissingLanguage is returned when a structured value lacks one of the
// language keys.
var ErrMissingLanguage = errors.New("multilingual value must contain both en and ar")

// Text is a value carried in parallel for every supported language.
//
// Rows written before the bilingual schema may still hold a single plain
// string. Such values are kept verbatim as "legacy" text: they project to the
// same string in every language and are serialized back as a plain string
// until they are rewritten.
type Text struct {
	EN string
	AR string

	plain  string
	legacy bool
}

// wire is the structured JSON and storage form. Pointers let decoding tell a
// missing key apart from an empty one.
type wire struct {
	EN *string `json:"en"`
	AR *string `json:"ar"`
}

// New builds a structured value.
func New(en, ar string) Text { return Text{EN: en, AR: ar} }

// FromText fills only the slot for lang and leaves the other empty. It is a
// lossy ingestion helper, not a translation.
func FromText(s string, lang Language) Text {
	if lang == Arabic {
		return Text{AR: s}
	}
	return Text{EN: s}
}

// Legacy wraps a plain string stored before values became bilingual.
func Legacy(s string) Text { return Text{plain: s, legacy: true} }

// IsLegacy reports whether t is a plain pre-bilingual string.
func (t Text) IsLegacy() bool { return t.legacy }

// Plain returns the raw string of a legacy value and "" otherwise.
func (t Text) Plain() string { return t.plain }

// Get returns the stored slot for lang with no fallback. Legacy values return
// their plain string for every language.
func (t Text) Get(lang Language) string {
	if t.legacy {
		return t.plain
	}
	if lang == Arabic {
		return t.AR
	}
	return t.EN
}

// In projects t to a single string: the requested slot, else English, else
// "". Legacy values are returned unchanged.
func (t Text) In(lang Language) string {
	if t.legacy {
		return t.plain
	}
	if v := t.Get(lang); v != "" {
		return v
	}
	return t.EN
}

// IsBlank reports whether no language carries any text.
func (t Text) IsBlank() bool {
	if t.legacy {
		return t.plain == ""
	}
	return t.EN == "" && t.AR == ""
}

// Adopt converts a legacy value received on input into a structured one that
// only fills lang. Structured values are returned as is.
func (t Text) Adopt(lang Language) Text {
	if !t.legacy {
		return t
	}
	return FromText(t.plain, lang)
}

// Upgrade converts a stored legacy value into a structured one by copying the
// plain string into every slot. Structured values are returned as is.
func (t Text) Upgrade() Text {
	if !t.legacy {
		return t
	}
	return New(t.plain, t.plain)
}

// Merge applies a partial update. Each slot is replaced only when p supplies
// it. An empty patch leaves t untouched; otherwise legacy values are upgraded
// first so the untouched slot keeps the old text.
func (t Text) Merge(p Patch) Text {
	if p.IsEmpty() {
		return t
	}
	out := t.Upgrade()
	if p.EN != nil {
		out.EN = *p.EN
	}
	if p.AR != nil {
		out.AR = *p.AR
	}
	return out
}

func (t Text) MarshalJSON() ([]byte, error) {
	if t.legacy {
		return json.Marshal(t.plain)
	}
	en, ar := t.EN, t.AR
	return json.Marshal(wire{EN: &en, AR: &ar})
}

// UnmarshalJSON accepts either an object with both language keys or a plain
// string, which is kept as legacy text for the caller to Adopt.
func (t *Text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*t = Text{}
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = Legacy(s)
		return nil
	}
	var w wire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	if w.EN == nil || w.AR == nil {
		return ErrMissingLanguage
	}
	*t = New(*w.EN, *w.AR)
	return nil
}

// Value stores structured values as a JSON document and legacy values as the
// raw string, matching what older rows contain.
func (t Text) Value() (driver.Value, error) {
	if t.legacy {
		return t.plain, nil
	}
	b, err := t.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan reads a stored column. Anything that is not a JSON object carrying
// both language keys is treated as legacy plain text.
func (t *Text) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*t = Text{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = append([]byte(nil), v...)
	default:
		return fmt.Errorf("multilingual: cannot scan %T", src)
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var w wire
		if err := json.Unmarshal(trimmed, &w); err == nil && w.EN != nil && w.AR != nil {
			*t = New(*w.EN, *w.AR)
			return nil
		}
	}
	*t = Legacy(string(raw))
	return nil
}

// Patch is a partial update to a Text. Nil slots are left unchanged.
type Patch struct {
	EN *string `json:"en,omitempty"`
	AR *string `json:"ar,omitempty"`
}

// PatchFrom builds a patch that only touches lang.
func PatchFrom(s string, lang Language) Patch {
	v := s
	if lang == Arabic {
		return Patch{AR: &v}
	}
	return Patch{EN: &v}
}

// IsEmpty reports whether p touches no slot.
func (p Patch) IsEmpty() bool { return p.EN == nil && p.AR == nil }

// Set replaces the slot for lang.
func (p *Patch) Set(lang Language, s string) {
	v := s
	if lang == Arabic {
		p.AR = &v
		return
	}
	p.EN = &v
}

// Slots returns the supplied values keyed by language.
func (p Patch) Slots() map[Language]string {
	out := make(map[Language]string, 2)
	if p.EN != nil {
		out[English] = *p.EN
	}
	if p.AR != nil {
		out[Arabic] = *p.AR
	}
	return out
}
