package records

import (
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/antonholmquist/jason"
)

// Kind is the expected JSON shape of a field.
type Kind int

const (
	KindString Kind = iota
	KindText        // free text, markup reduced to plain text
	KindBool
	KindInt
	KindTime
	KindList // single value or array, decoded to a list
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindText:
		return "text"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindTime:
		return "time"
	case KindList:
		return "list"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// FieldSpec declares how one local field is read from a remote row: the remote column
// names to try, newest first, the expected shape and the default used when no name
// yields a usable value.
type FieldSpec[T any] struct {
	Names   []string
	Kind    Kind
	Default T
	decode  func(*jason.Value) (T, bool)
}

// Read returns the first usable value under f.Names, or f.Default.
func (f FieldSpec[T]) Read(b Bag) T {
	if b.obj == nil {
		return f.Default
	}
	for _, name := range f.Names {
		v, err := b.obj.GetValue(name)
		if err != nil || v.Null() == nil {
			continue
		}
		if out, ok := f.decode(v); ok {
			return out
		}
	}
	return f.Default
}

// Bag is the value map of one remote row.
type Bag struct {
	obj *jason.Object
}

// NewBag parses a row's values blob. Anything that is not a JSON object yields an empty
// bag whose every field reads as its default.
func NewBag(raw []byte) Bag {
	if len(raw) == 0 {
		return Bag{}
	}
	obj, err := jason.NewObjectFromBytes(raw)
	if err != nil {
		return Bag{}
	}
	return Bag{obj: obj}
}

// Empty reports whether the row carried no parseable values.
func (b Bag) Empty() bool {
	return b.obj == nil || len(b.obj.Map()) == 0
}

// StringField declares a single-line text field.
func StringField(def string, names ...string) FieldSpec[string] {
	return FieldSpec[string]{Names: names, Kind: KindString, Default: def, decode: func(v *jason.Value) (string, bool) {
		s, ok := scalarString(v)
		return CleanText(s), ok
	}}
}

// TextField declares a free-text field such as a note.
func TextField(def string, names ...string) FieldSpec[string] {
	return FieldSpec[string]{Names: names, Kind: KindText, Default: def, decode: func(v *jason.Value) (string, bool) {
		s, ok := scalarString(v)
		return PlainText(s), ok
	}}
}

// BoolField declares a checkbox field.
func BoolField(def bool, names ...string) FieldSpec[bool] {
	return FieldSpec[bool]{Names: names, Kind: KindBool, Default: def, decode: decodeBool}
}

// IntField declares a numeric count field.
func IntField(def int, names ...string) FieldSpec[int] {
	return FieldSpec[int]{Names: names, Kind: KindInt, Default: def, decode: decodeInt}
}

// TimeField declares a timestamp field.
func TimeField(names ...string) FieldSpec[time.Time] {
	return FieldSpec[time.Time]{Names: names, Kind: KindTime, decode: decodeTime}
}

// ListField declares a multi-select field. A joined string ("a, b"), a single value and
// an array all decode to the same list.
func ListField(names ...string) FieldSpec[[]string] {
	return FieldSpec[[]string]{Names: names, Kind: KindList, Default: []string{}, decode: decodeList}
}

func scalarString(v *jason.Value) (string, bool) {
	if s, err := v.String(); err == nil {
		return s, true
	}
	if n, err := v.Number(); err == nil {
		return n.String(), true
	}
	if b, err := v.Boolean(); err == nil {
		return strconv.FormatBool(b), true
	}
	if arr, err := v.Array(); err == nil {
		parts := make([]string, 0, len(arr))
		for _, item := range arr {
			if s, ok := scalarString(item); ok && s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", "), true
	}
	return "", false
}

var (
	trueLabels  = []string{"true", "yes", "y", "1", "是", "已上架", "v"}
	falseLabels = []string{"false", "no", "n", "0", "否", "未上架", ""}
)

func decodeBool(v *jason.Value) (bool, bool) {
	if b, err := v.Boolean(); err == nil {
		return b, true
	}
	if n, err := v.Float64(); err == nil {
		return n != 0, true
	}
	s, err := v.String()
	if err != nil {
		return false, false
	}
	s = strings.ToLower(CleanText(s))
	switch {
	case slices.Contains(trueLabels, s):
		return true, true
	case slices.Contains(falseLabels, s):
		return false, true
	}
	return false, false
}

func decodeInt(v *jason.Value) (int, bool) {
	if n, err := v.Int64(); err == nil {
		return int(n), true
	}
	if f, err := v.Float64(); err == nil {
		return floatToInt(f)
	}
	s, err := v.String()
	if err != nil {
		return 0, false
	}
	s = strings.ReplaceAll(CleanText(s), ",", "")
	if s == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return floatToInt(f)
	}
	return 0, false
}

// floatToInt truncates f, rejecting NaN, infinities and values outside the int range.
func floatToInt(f float64) (int, bool) {
	if math.IsNaN(f) || f < math.MinInt || f >= math.MaxInt {
		return 0, false
	}
	return int(f), true
}

// timeLayouts are tried in order for string timestamps.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006/01/02 15:04:05",
	"2006-01-02 15:04",
	"2006/1/2 15:04:05",
	"2006-01-02",
	"2006/01/02",
}

func decodeTime(v *jason.Value) (time.Time, bool) {
	s, err := v.String()
	if err != nil {
		// epoch seconds
		if n, err := v.Int64(); err == nil && n > 0 {
			return time.Unix(n, 0), true
		}
		return time.Time{}, false
	}
	s = CleanText(s)
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func decodeList(v *jason.Value) ([]string, bool) {
	var raw []string
	if arr, err := v.Array(); err == nil {
		for _, item := range arr {
			if s, ok := scalarString(item); ok {
				raw = append(raw, s)
			}
		}
	} else if s, ok := scalarString(v); ok {
		raw = append(raw, s)
	} else {
		return nil, false
	}

	out := make([]string, 0, len(raw))
	for _, s := range raw {
		for _, part := range splitList(s) {
			if part = CleanText(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out, true
}
