package session

import (
	"strconv"
	"time"
)

// Kind identifies the variant held by a Value.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindTime
)

// Value is an attribute value: a string, an integer, or a timestamp.
// Readers of reserved keys match on the expected kind and reject the rest
// instead of interpreting whatever they find.
type Value struct {
	kind Kind
	s    string
	i    int64
	t    time.Time
}

// StringValue returns a Value holding s.
func StringValue(s string) Value { return Value{kind: KindString, s: s} }

// IntValue returns a Value holding i.
func IntValue(i int64) Value { return Value{kind: KindInt, i: i} }

// TimeValue returns a Value holding t.
func TimeValue(t time.Time) Value { return Value{kind: KindTime, t: t} }

// Kind returns the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// StringVal returns the string variant and whether v holds one.
func (v Value) StringVal() (string, bool) { return v.s, v.kind == KindString }

// IntVal returns the integer variant and whether v holds one.
func (v Value) IntVal() (int64, bool) { return v.i, v.kind == KindInt }

// TimeVal returns the timestamp variant and whether v holds one.
func (v Value) TimeVal() (time.Time, bool) { return v.t, v.kind == KindTime }

// String renders v for wire replies and diagnostics: strings as-is, integers
// in decimal, timestamps in RFC 3339.
func (v Value) String() string {
	switch v.kind {
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindTime:
		return v.t.UTC().Format(time.RFC3339)
	default:
		return v.s
	}
}
