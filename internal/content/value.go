package content

import (
	"fmt"
	"sort"
	"strconv"
	"time"
)

// Kind discriminates the variants a front-matter value can take.
type Kind int

const (
	KindNil Kind = iota
	KindString
	KindNumber
	KindBool
	KindSequence
	KindMapping
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindSequence:
		return "sequence"
	case KindMapping:
		return "mapping"
	default:
		return "nil"
	}
}

// Value is a tagged variant over the scalar/sequence/mapping shapes YAML
// front matter can carry. Accessors return (value, ok) pairs so callers
// branch on the kind instead of duck-typing an untyped any.
type Value struct {
	kind Kind
	str  string
	num  float64
	b    bool
	seq  []Value
	m    map[string]Value
}

// Fields is a front-matter mapping with unique keys.
type Fields map[string]Value

func String(s string) Value     { return Value{kind: KindString, str: s} }
func Number(f float64) Value    { return Value{kind: KindNumber, num: f} }
func Bool(b bool) Value         { return Value{kind: KindBool, b: b} }
func Sequence(v ...Value) Value { return Value{kind: KindSequence, seq: v} }

func Mapping(m map[string]Value) Value { return Value{kind: KindMapping, m: m} }

// FromAny converts a yaml.v3-decoded value into a tagged Value.
// Unrecognized scalar types degrade to their string form.
func FromAny(v any) Value {
	switch t := v.(type) {
	case nil:
		return Value{}
	case string:
		return String(t)
	case bool:
		return Bool(t)
	case int:
		return Number(float64(t))
	case int64:
		return Number(float64(t))
	case uint64:
		return Number(float64(t))
	case float64:
		return Number(t)
	case time.Time:
		return String(t.Format(time.RFC3339))
	case []any:
		seq := make([]Value, len(t))
		for i, e := range t {
			seq[i] = FromAny(e)
		}
		return Sequence(seq...)
	case map[string]any:
		m := make(map[string]Value, len(t))
		for k, e := range t {
			m[k] = FromAny(e)
		}
		return Mapping(m)
	default:
		return String(fmt.Sprint(t))
	}
}

// FieldsFromAny converts a decoded front-matter mapping into Fields.
func FieldsFromAny(m map[string]any) Fields {
	out := make(Fields, len(m))
	for k, v := range m {
		out[k] = FromAny(v)
	}
	return out
}

func (v Value) Kind() Kind  { return v.kind }
func (v Value) IsNil() bool { return v.kind == KindNil }

// Str returns the string form of a string value.
func (v Value) Str() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.str, true
}

// Num returns the numeric form of a number value.
func (v Value) Num() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return v.num, true
}

// Boolean returns the boolean form of a bool value.
func (v Value) Boolean() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

// Seq returns the element slice of a sequence value.
func (v Value) Seq() ([]Value, bool) {
	if v.kind != KindSequence {
		return nil, false
	}
	return v.seq, true
}

// Map returns the entry map of a mapping value.
func (v Value) Map() (map[string]Value, bool) {
	if v.kind != KindMapping {
		return nil, false
	}
	return v.m, true
}

// Text renders any value as a display string: scalars verbatim, sequences
// and mappings in a compact deterministic form.
func (v Value) Text() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindSequence:
		out := ""
		for i, e := range v.seq {
			if i > 0 {
				out += ", "
			}
			out += e.Text()
		}
		return out
	case KindMapping:
		keys := make([]string, 0, len(v.m))
		for k := range v.m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := ""
		for i, k := range keys {
			if i > 0 {
				out += ", "
			}
			out += k + ": " + v.m[k].Text()
		}
		return out
	default:
		return ""
	}
}

// Merge layers explicit fields over defaults, key by key. Explicit entries
// always win; defaults fill only absent keys. Neither input is mutated.
func Merge(defaults, explicit Fields) Fields {
	out := make(Fields, len(defaults)+len(explicit))
	for k, v := range defaults {
		out[k] = v
	}
	for k, v := range explicit {
		out[k] = v
	}
	return out
}
