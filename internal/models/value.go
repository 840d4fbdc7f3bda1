package models

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
)

// isoLayout matches the millisecond ISO-8601 form used by persisted drafts.
const isoLayout = "2006-01-02T15:04:05.000Z07:00"

// FormatISO formats t as a UTC ISO-8601 timestamp with millisecond precision.
func FormatISO(t time.Time) string {
	return t.UTC().Format(isoLayout)
}

// TruncateISO drops the precision FormatISO cannot represent, so a time
// survives a format and parse round trip unchanged.
func TruncateISO(t time.Time) time.Time {
	return t.Truncate(time.Millisecond)
}

// ParseISO parses the timestamp forms found in persisted drafts and API records.
func ParseISO(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("not an ISO-8601 date: %q", s)
}

// Date is an instant persisted as an ISO-8601 string.
type Date struct {
	time.Time
}

// NewDate returns a Date pointer for t at millisecond precision.
func NewDate(t time.Time) *Date {
	return &Date{Time: TruncateISO(t)}
}

// MarshalJSON implements json.Marshaler.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(strconv.Quote(FormatISO(d.Time))), nil
}

// UnmarshalJSON implements json.Unmarshaler. Unparseable strings decode to
// the zero date instead of failing the surrounding document.
func (d *Date) UnmarshalJSON(data []byte) error {
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	if s == nil || *s == "" {
		d.Time = time.Time{}
		return nil
	}
	t, err := ParseISO(*s)
	if err != nil {
		d.Time = time.Time{}
		return nil
	}
	d.Time = t
	return nil
}

// Option is one selectable entry of a catalog option set.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Ref is the resolved {id, nombre} shadow of a selected catalog entry.
// When the source id could not be coerced to a number the original item is
// kept verbatim and re-emitted unchanged.
type Ref struct {
	ID     int
	Nombre string

	raw []byte
}

// RefFromOption builds the shadow object for a selected option. A
// non-numeric option value leaves the option item unchanged.
func RefFromOption(opt Option) Ref {
	if id, err := strconv.Atoi(strings.TrimSpace(opt.Value)); err == nil {
		return Ref{ID: id, Nombre: opt.Label}
	}
	raw, _ := json.Marshal(opt)
	return Ref{Nombre: opt.Label, raw: raw}
}

// Coerced reports whether the ref carries a numeric id.
func (r Ref) Coerced() bool {
	return r.raw == nil
}

// Raw returns the original item for refs whose id could not be coerced.
func (r Ref) Raw() []byte {
	return r.raw
}

// Key returns the id as a string, the raw option value for uncoerced refs.
func (r Ref) Key() string {
	if r.Coerced() {
		return strconv.Itoa(r.ID)
	}
	if !isObject(r.raw) {
		var scalar any
		if err := json.Unmarshal(r.raw, &scalar); err != nil || scalar == nil {
			return ""
		}
		return fmt.Sprint(scalar)
	}
	var item struct {
		ID    any `json:"id"`
		Value any `json:"value"`
	}
	if err := json.Unmarshal(r.raw, &item); err != nil {
		return ""
	}
	if item.ID != nil {
		return fmt.Sprint(item.ID)
	}
	if item.Value != nil {
		return fmt.Sprint(item.Value)
	}
	return ""
}

// Equal compares two refs by value, including the preserved raw item.
func (r Ref) Equal(o Ref) bool {
	return r.ID == o.ID && r.Nombre == o.Nombre && bytes.Equal(r.raw, o.raw)
}

// MarshalJSON implements json.Marshaler.
func (r Ref) MarshalJSON() ([]byte, error) {
	if r.raw != nil {
		return r.raw, nil
	}
	return json.Marshal(struct {
		ID     int    `json:"id"`
		Nombre string `json:"nombre"`
	}{r.ID, r.Nombre})
}

// UnmarshalJSON accepts {id, nombre} and the older {value, label} shape,
// with ids given as numbers or numeric strings. Older drafts also stored a
// bare id; it is taken as the id, or kept verbatim when not numeric.
func (r *Ref) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if !isObject(data) {
		var scalar any
		if err := json.Unmarshal(data, &scalar); err != nil {
			return fmt.Errorf("decoding ref: %w", err)
		}
		switch n, ok := coerceID(scalar); {
		case scalar == nil:
			*r = Ref{}
		case ok:
			*r = Ref{ID: n}
		default:
			*r = Ref{raw: append([]byte(nil), data...)}
		}
		return nil
	}

	var item struct {
		ID     any    `json:"id"`
		Nombre string `json:"nombre"`
		Value  any    `json:"value"`
		Label  string `json:"label"`
	}
	if err := json.Unmarshal(data, &item); err != nil {
		return fmt.Errorf("decoding ref: %w", err)
	}

	id := item.ID
	if id == nil {
		id = item.Value
	}
	nombre := item.Nombre
	if nombre == "" {
		nombre = item.Label
	}

	if n, ok := coerceID(id); ok {
		*r = Ref{ID: n, Nombre: nombre}
		return nil
	}

	*r = Ref{Nombre: nombre, raw: append([]byte(nil), data...)}
	return nil
}

func isObject(data []byte) bool {
	data = bytes.TrimSpace(data)
	return len(data) > 0 && data[0] == '{'
}

func coerceID(v any) (int, bool) {
	switch id := v.(type) {
	case float64:
		if id != float64(int(id)) {
			return 0, false
		}
		return int(id), true
	case int:
		return id, true
	case int64:
		return int(id), true
	case json.Number:
		n, err := strconv.Atoi(id.String())
		return n, err == nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(id))
		return n, err == nil
	default:
		return 0, false
	}
}

// ValueKind discriminates the dynamic type held by a Value.
type ValueKind int

const (
	KindEmpty ValueKind = iota
	KindText
	KindDate
	KindBool
	KindList
	KindRef
)

func (k ValueKind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindDate:
		return "date"
	case KindBool:
		return "bool"
	case KindList:
		return "list"
	case KindRef:
		return "ref"
	default:
		return "empty"
	}
}

// Value is a single form field value: text, date, boolean, string list,
// resolved ref, or empty.
type Value struct {
	kind ValueKind
	text string
	date time.Time
	flag bool
	list []string
	ref  Ref
}

// Empty returns the empty value.
func Empty() Value { return Value{} }

// Text returns a text value.
func Text(s string) Value { return Value{kind: KindText, text: s} }

// DateValue returns a date value at millisecond precision.
func DateValue(t time.Time) Value { return Value{kind: KindDate, date: TruncateISO(t)} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, flag: b} }

// List returns a string-list value.
func List(items ...string) Value {
	return Value{kind: KindList, list: append([]string(nil), items...)}
}

// RefValue returns a resolved shadow value.
func RefValue(r Ref) Value { return Value{kind: KindRef, ref: r} }

// Kind returns the kind of value held.
func (v Value) Kind() ValueKind { return v.kind }

// AsText returns the text content, or "" for non-text values.
func (v Value) AsText() string {
	if v.kind == KindText {
		return v.text
	}
	return ""
}

// AsDate returns the date and whether the value is a real date.
func (v Value) AsDate() (time.Time, bool) {
	return v.date, v.kind == KindDate && !v.date.IsZero()
}

// AsBool returns the boolean and whether the value is a boolean.
func (v Value) AsBool() (bool, bool) {
	return v.flag, v.kind == KindBool
}

// IsTrue reports whether the value is exactly boolean true.
func (v Value) IsTrue() bool {
	return v.kind == KindBool && v.flag
}

// AsList returns a copy of the list items.
func (v Value) AsList() []string {
	if v.kind != KindList {
		return nil
	}
	return append([]string(nil), v.list...)
}

// AsRef returns the ref and whether the value holds one.
func (v Value) AsRef() (Ref, bool) {
	return v.ref, v.kind == KindRef
}

// IsEmpty reports whether the value counts as unanswered.
func (v Value) IsEmpty() bool {
	switch v.kind {
	case KindText:
		return strings.TrimSpace(v.text) == ""
	case KindDate:
		return v.date.IsZero()
	case KindList:
		return len(v.list) == 0
	case KindBool, KindRef:
		return false
	default:
		return true
	}
}

// String renders the value for display.
func (v Value) String() string {
	switch v.kind {
	case KindText:
		return v.text
	case KindDate:
		return v.date.Format(time.DateOnly)
	case KindBool:
		if v.flag {
			return "Sí"
		}
		return "No"
	case KindList:
		return strings.Join(v.list, ", ")
	case KindRef:
		return v.ref.Nombre
	default:
		return ""
	}
}

// Equal compares two values by content; dates compare by instant.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindText:
		return v.text == o.text
	case KindDate:
		return v.date.Equal(o.date)
	case KindBool:
		return v.flag == o.flag
	case KindList:
		if len(v.list) != len(o.list) {
			return false
		}
		for i := range v.list {
			if v.list[i] != o.list[i] {
				return false
			}
		}
		return true
	case KindRef:
		return v.ref.Equal(o.ref)
	default:
		return true
	}
}

// RehydrateDate converts an ISO string into a date value. Other values and
// strings that do not parse are returned unchanged.
func (v Value) RehydrateDate() Value {
	if v.kind != KindText || strings.TrimSpace(v.text) == "" {
		return v
	}
	t, err := ParseISO(v.text)
	if err != nil {
		return v
	}
	return DateValue(t)
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindText:
		return json.Marshal(v.text)
	case KindDate:
		return json.Marshal(FormatISO(v.date))
	case KindBool:
		return json.Marshal(v.flag)
	case KindList:
		if v.list == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.list)
	case KindRef:
		return v.ref.MarshalJSON()
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON implements json.Unmarshaler. Strings always decode as text;
// date fields are rehydrated by the caller that knows the field types.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		*v = Empty()
		return nil
	}

	switch data[0] {
	case 'n':
		*v = Empty()
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decoding text value: %w", err)
		}
		*v = Text(s)
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return fmt.Errorf("decoding boolean value: %w", err)
		}
		*v = Bool(b)
	case '[':
		var items []any
		if err := json.Unmarshal(data, &items); err != nil {
			return fmt.Errorf("decoding list value: %w", err)
		}
		list := make([]string, 0, len(items))
		for _, item := range items {
			list = append(list, listItemString(item))
		}
		*v = List(list...)
	case '{':
		var r Ref
		if err := r.UnmarshalJSON(data); err != nil {
			return err
		}
		*v = RefValue(r)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("decoding value: %w", err)
		}
		*v = Text(n.String())
	}
	return nil
}

func listItemString(item any) string {
	switch it := item.(type) {
	case string:
		return it
	case float64:
		return strconv.FormatFloat(it, 'f', -1, 64)
	case map[string]any:
		if id, ok := it["id"]; ok {
			return listItemString(id)
		}
		if val, ok := it["value"]; ok {
			return listItemString(val)
		}
		return ""
	case nil:
		return ""
	default:
		return fmt.Sprint(it)
	}
}
