package treediff

import (
	"reflect"
	"regexp"
	"time"
)

// Kind is the closed set of value categories the differ distinguishes.
// Every Go value classifies to exactly one Kind; Classify never fails
type Kind uint8

const (
	// KindAbsent marks a missing value: a map key present on only one side
	// of a comparison, or an untyped nil interface
	KindAbsent Kind = iota
	// KindNil is an explicit null leaf (a typed nil inside a tree is not
	// distinguished from one; both compare equal to null)
	KindNil
	KindBool
	// KindNumber covers every Go numeric type, including the NaN singleton
	KindNumber
	KindString
	// KindTime is a timestamp leaf, compared by instant
	KindTime
	// KindRegexp is a compiled pattern leaf, compared by canonical source form
	KindRegexp
	KindArray
	KindMap
	// KindOther is everything else: structs, channels, funcs, non-string-keyed
	// maps. Such values are treated as opaque leaves & compared by deep
	// equality rather than rejected
	KindOther
)

var kindNames = map[Kind]string{
	KindAbsent: "absent",
	KindNil:    "null",
	KindBool:   "bool",
	KindNumber: "number",
	KindString: "string",
	KindTime:   "time",
	KindRegexp: "regexp",
	KindArray:  "array",
	KindMap:    "map",
	KindOther:  "other",
}

func (k Kind) String() string { return kindNames[k] }

// absent is the sentinel the differ passes for "no value on this side".
// It is distinct from nil, which classifies as an explicit null
type absentValue struct{}

var absent = absentValue{}

// Classify maps an arbitrary value onto the Kind enumeration. It is a total
// function: inputs the diff algorithm has no precise category for degrade to
// KindOther instead of failing
func Classify(v any) Kind {
	switch x := v.(type) {
	case absentValue:
		return KindAbsent
	case nil:
		return KindNil
	case bool:
		return KindBool
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, uintptr,
		float32, float64:
		return KindNumber
	case string:
		return KindString
	case time.Time:
		return KindTime
	case *time.Time:
		if x == nil {
			return KindNil
		}
		return KindTime
	case *regexp.Regexp:
		if x == nil {
			return KindNil
		}
		return KindRegexp
	case []any:
		return KindArray
	case map[string]any:
		return KindMap
	}

	// values outside the JSON-ish universe: recover slices & string-keyed
	// maps of concrete element types, degrade the rest to opaque leaves
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return KindArray
	case reflect.Map:
		if rv.Type().Key().Kind() == reflect.String {
			return KindMap
		}
		return KindOther
	case reflect.Ptr:
		if rv.IsNil() {
			return KindNil
		}
		return Classify(rv.Elem().Interface())
	default:
		return KindOther
	}
}

// asTime unwraps both time.Time & *time.Time leaves
func asTime(v any) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		return x, true
	case *time.Time:
		if x != nil {
			return *x, true
		}
	}
	return time.Time{}, false
}

// numbersEqual compares two numeric leaves. Integer pairs compare exactly,
// so 64-bit values beyond the float64 mantissa stay distinct; only mixed
// integer/float pairs widen to float64, where an int 1 and a float64 1 read
// from different decoders compare equal. NaN against itself is equal here;
// the differ relies on that to not report NaN leaves as perpetually changed
func numbersEqual(lhs, rhs any) bool {
	li, lInt := signedValue(lhs)
	ri, rInt := signedValue(rhs)
	lu, lUint := unsignedValue(lhs)
	ru, rUint := unsignedValue(rhs)
	switch {
	case lInt && rInt:
		return li == ri
	case lUint && rUint:
		return lu == ru
	case lInt && rUint:
		return li >= 0 && uint64(li) == ru
	case lUint && rInt:
		return ri >= 0 && lu == uint64(ri)
	}
	lf, _ := numericValue(lhs)
	rf, _ := numericValue(rhs)
	return lf == rf || (lf != lf && rf != rf)
}

func signedValue(v any) (int64, bool) {
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int8:
		return int64(x), true
	case int16:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	}
	return 0, false
}

func unsignedValue(v any) (uint64, bool) {
	switch x := v.(type) {
	case uint:
		return uint64(x), true
	case uint8:
		return uint64(x), true
	case uint16:
		return uint64(x), true
	case uint32:
		return uint64(x), true
	case uint64:
		return x, true
	case uintptr:
		return uint64(x), true
	}
	return 0, false
}

// numericValue widens any Go numeric to float64, the fallback representation
// for mixed integer/float comparisons
func numericValue(v any) (float64, bool) {
	switch x := v.(type) {
	case int:
		return float64(x), true
	case int8:
		return float64(x), true
	case int16:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint8:
		return float64(x), true
	case uint16:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	case uintptr:
		return float64(x), true
	case float32:
		return float64(x), true
	case float64:
		return x, true
	}
	return 0, false
}
