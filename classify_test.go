package treediff

import (
	"math"
	"regexp"
	"testing"
	"time"
)

func TestClassify(t *testing.T) {
	type custom struct{ A int }

	cases := []struct {
		description string
		value       any
		want        Kind
	}{
		{"nil", nil, KindNil},
		{"absent sentinel", absent, KindAbsent},
		{"bool", true, KindBool},
		{"int", 42, KindNumber},
		{"uint8", uint8(1), KindNumber},
		{"float64", 4.2, KindNumber},
		{"NaN is a number", math.NaN(), KindNumber},
		{"string", "s", KindString},
		{"time", time.Now(), KindTime},
		{"time pointer", &time.Time{}, KindTime},
		{"nil time pointer", (*time.Time)(nil), KindNil},
		{"regexp", regexp.MustCompile(`a+`), KindRegexp},
		{"nil regexp", (*regexp.Regexp)(nil), KindNil},
		{"generic slice", []any{1}, KindArray},
		{"typed slice", []int{1, 2}, KindArray},
		{"array", [2]int{1, 2}, KindArray},
		{"generic map", map[string]any{}, KindMap},
		{"typed string-keyed map", map[string]int{"a": 1}, KindMap},
		{"int-keyed map degrades", map[int]string{1: "a"}, KindOther},
		{"struct degrades", custom{1}, KindOther},
		{"func degrades", func() {}, KindOther},
		{"chan degrades", make(chan int), KindOther},
	}

	for _, c := range cases {
		t.Run(c.description, func(t *testing.T) {
			if got := Classify(c.value); got != c.want {
				t.Errorf("Classify(%v) = %s, want %s", c.value, got, c.want)
			}
		})
	}
}

func TestKindString(t *testing.T) {
	if KindMap.String() != "map" || KindAbsent.String() != "absent" {
		t.Error("kind names should match their category")
	}
}
