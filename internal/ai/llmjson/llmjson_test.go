package llmjson

import (
	"math"
	"reflect"
	"testing"
)

func TestExtractJSON(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
	}{
		{name: "bare", raw: ` {"a":1} `, want: `{"a":1}`},
		{name: "json fence", raw: "```json\n[1,2]\n```", want: `[1,2]`},
		{name: "upper case fence", raw: "```JSON\n{\"a\":1}\n```\n", want: `{"a":1}`},
		{name: "plain fence", raw: "```\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "stray backticks", raw: "`{\"a\":1}`", want: `{"a":1}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ExtractJSON(tc.raw); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestDecodeObject(t *testing.T) {
	obj, err := DecodeObject("```json\n{\"score\": \"12\", \"feedback\": \"ok\"}\n```")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if CoerceFloat(obj["score"]) != 12 {
		t.Fatalf("unexpected score: %v", obj["score"])
	}

	if _, err := DecodeObject("null"); err == nil {
		t.Fatal("expected error for null")
	}
	if _, err := DecodeObject("Sure! Here is your JSON"); err == nil {
		t.Fatal("expected error for prose")
	}
	if _, err := DecodeObject("[1]"); err == nil {
		t.Fatal("expected error for array")
	}
}

func TestDecodeArray(t *testing.T) {
	items, err := DecodeArray(`[{"question":"a"}, 3, null]`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	if items[0]["question"] != "a" || items[1] != nil || items[2] != nil {
		t.Fatalf("unexpected items: %+v", items)
	}

	if _, err := DecodeArray(`{"question":"a"}`); err == nil {
		t.Fatal("expected error for object")
	}
}

func TestCoercion(t *testing.T) {
	if !CoerceBool("Yes") || CoerceBool("no") || !CoerceBool(1.0) || CoerceBool(nil) {
		t.Fatal("unexpected bool coercion")
	}

	if CoerceFloat(" 7.5 ") != 7.5 || CoerceFloat(3) != 3 {
		t.Fatal("unexpected float coercion")
	}
	if !math.IsNaN(CoerceFloat("seven")) || !math.IsNaN(CoerceFloat(nil)) || !math.IsNaN(CoerceFloat("")) {
		t.Fatal("expected NaN for non-numeric values")
	}

	if CoerceString(nil) != "" || CoerceString(" x ") != "x" || CoerceString(2.0) != "2" {
		t.Fatal("unexpected string coercion")
	}

	got := CoerceStrings([]any{" Go ", "", nil, 3.0})
	if !reflect.DeepEqual(got, []string{"Go", "3"}) {
		t.Fatalf("unexpected strings: %#v", got)
	}
	if got := CoerceStrings("not a list"); got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
	if got := CoerceStrings([]string{"a", " "}); !reflect.DeepEqual(got, []string{"a"}) {
		t.Fatalf("unexpected typed strings: %#v", got)
	}
}
