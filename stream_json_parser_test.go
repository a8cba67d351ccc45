// Copyright 2025 easymvp
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package teejson

import (
	"encoding/json"
	"errors"
	"io"
	"reflect"
	"strings"
	"testing"
)

func mustParse(t *testing.T, input string) interface{} {
	t.Helper()
	v, err := ParseString(input)
	if err != nil {
		t.Fatalf("parse %q: unexpected error: %v", input, err)
	}
	return v
}

func TestParseEmptyContainers(t *testing.T) {
	if v := mustParse(t, "[]"); !reflect.DeepEqual(v, []interface{}{}) {
		t.Errorf("expected empty array, got %#v", v)
	}
	if v := mustParse(t, "{}"); !reflect.DeepEqual(v, map[string]interface{}{}) {
		t.Errorf("expected empty object, got %#v", v)
	}
}

func TestParseArrays(t *testing.T) {
	cases := []struct {
		input string
		want  interface{}
	}{
		{`["People", "Places", "Things"]`, []interface{}{"People", "Places", "Things"}},
		{`["Apples", "Bananas", ["Pears", "Limes"]]`, []interface{}{"Apples", "Bananas", []interface{}{"Pears", "Limes"}}},
		{`[1, 2.5, true, false, null, "x"]`, []interface{}{int64(1), 2.5, true, false, nil, "x"}},
		{`[[], [[]]]`, []interface{}{[]interface{}{}, []interface{}{[]interface{}{}}}},
		{`[{"a": 1}, {"a": 2}]`, []interface{}{
			map[string]interface{}{"a": int64(1)},
			map[string]interface{}{"a": int64(2)},
		}},
	}
	for _, c := range cases {
		if v := mustParse(t, c.input); !reflect.DeepEqual(v, c.want) {
			t.Errorf("parse %q: expected %#v, got %#v", c.input, c.want, v)
		}
	}
}

func TestParseObjects(t *testing.T) {
	cases := []struct {
		input string
		want  interface{}
	}{
		{`{"a": 1}`, map[string]interface{}{"a": int64(1)}},
		{`{"a": 1, "b": 2}`, map[string]interface{}{"a": int64(1), "b": int64(2)}},
		{
			`{"name": "sensor", "tags": [], "meta": {"fast": true, "version": 1.5}}`,
			map[string]interface{}{
				"name": "sensor",
				"tags": []interface{}{},
				"meta": map[string]interface{}{"fast": true, "version": 1.5},
			},
		},
		{`{"nested": {"deeper": {"deepest": null}}}`, map[string]interface{}{
			"nested": map[string]interface{}{
				"deeper": map[string]interface{}{"deepest": nil},
			},
		}},
	}
	for _, c := range cases {
		if v := mustParse(t, c.input); !reflect.DeepEqual(v, c.want) {
			t.Errorf("parse %q: expected %#v, got %#v", c.input, c.want, v)
		}
	}
}

func TestParseMatchesStandardDecoder(t *testing.T) {
	// For documents without integers the result is directly comparable
	// to encoding/json, which decodes every number to float64.
	inputs := []string{
		`{"a": 1.5, "b": ["x", true, null], "c": {"d": [2.25, false]}}`,
		`[["a", 1.5], {"k": "v"}, null]`,
	}
	for _, input := range inputs {
		var want interface{}
		if err := json.Unmarshal([]byte(input), &want); err != nil {
			t.Fatalf("reference decode %q: %v", input, err)
		}
		if v := mustParse(t, input); !reflect.DeepEqual(v, want) {
			t.Errorf("parse %q: expected %#v, got %#v", input, want, v)
		}
	}
}

func TestParseRejects(t *testing.T) {
	inputs := []string{
		`{`,
		`{"key": "value"`,
		`{"key": "value"}}`,
		`{"key": "value", "value2"}`,
		`{"key", "value": "value2"}`,
		`["People", "Places" "Things"]`,
		`[1, 2`,
		`[1, 2]]`,
		`[1,]`,
		`{"a": 1,}`,
		`["mismatched"}`,
		`{"mismatched": 1]`,
		`{1: "numeric key"}`,
		`{"missing" "colon"}`,
		`42`,
		`"text"`,
		`true`,
		``,
	}
	for _, input := range inputs {
		v, err := ParseString(input)
		if err == nil {
			t.Errorf("parse %q: expected error, got %#v", input, v)
			continue
		}
		if !errors.Is(err, ErrParse) && !errors.Is(err, ErrLex) {
			t.Errorf("parse %q: expected parse or lex error, got %v", input, err)
		}
	}
}

func TestParseTruncatedReportsUnexpectedEOF(t *testing.T) {
	for _, input := range []string{`{`, `[1,`, `{"key":`, `[[1, 2], [3`} {
		_, err := ParseString(input)
		if !errors.Is(err, io.ErrUnexpectedEOF) {
			t.Errorf("parse %q: expected unexpected EOF error, got %v", input, err)
		}
	}
}

func TestParseBytes(t *testing.T) {
	v, err := ParseBytes([]byte(`{"a": [1]}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := map[string]interface{}{"a": []interface{}{int64(1)}}
	if !reflect.DeepEqual(v, want) {
		t.Errorf("expected %#v, got %#v", want, v)
	}
}

// collectStream drains an ArrayStreamer over input.
func collectStream(t *testing.T, input string) []interface{} {
	t.Helper()
	items, err := tryStream(input)
	if err != nil {
		t.Fatalf("stream %q: unexpected error: %v", input, err)
	}
	return items
}

func tryStream(input string) ([]interface{}, error) {
	s := StreamArray(NewTokenizer(strings.NewReader(input)))
	items := []interface{}{}
	for {
		v, err := s.Next()
		if err == io.EOF {
			return items, nil
		}
		if err != nil {
			return nil, err
		}
		items = append(items, v)
	}
}

func TestStreamArrayEmpty(t *testing.T) {
	if items := collectStream(t, "[]"); len(items) != 0 {
		t.Errorf("expected no elements, got %#v", items)
	}
}

func TestStreamArrayScalars(t *testing.T) {
	items := collectStream(t, `["People", "Places", "Things"]`)
	want := []interface{}{"People", "Places", "Things"}
	if !reflect.DeepEqual(items, want) {
		t.Errorf("expected %#v, got %#v", want, items)
	}
}

func TestStreamArrayNestedContainers(t *testing.T) {
	items := collectStream(t, `["Apples", "Bananas", ["Pears", "Limes"]]`)
	want := []interface{}{"Apples", "Bananas", []interface{}{"Pears", "Limes"}}
	if !reflect.DeepEqual(items, want) {
		t.Errorf("expected %#v, got %#v", want, items)
	}

	// A container in first position is parsed like any other element.
	items = collectStream(t, `[{"a": 1}, [2, 3], "x", 4]`)
	want = []interface{}{
		map[string]interface{}{"a": int64(1)},
		[]interface{}{int64(2), int64(3)},
		"x",
		int64(4),
	}
	if !reflect.DeepEqual(items, want) {
		t.Errorf("expected %#v, got %#v", want, items)
	}
}

func TestStreamArrayMatchesParse(t *testing.T) {
	inputs := []string{
		`[]`,
		`[1, 2, 3]`,
		`["People", "Places", "Things"]`,
		`[[1, 2], [3], {"a": {"b": []}}, null, true]`,
	}
	for _, input := range inputs {
		streamed := collectStream(t, input)
		parsed := mustParse(t, input)
		if !reflect.DeepEqual(streamed, parsed) {
			t.Errorf("stream %q: streamed %#v differs from parsed %#v", input, streamed, parsed)
		}
	}
}

func TestStreamArrayConsumesExactly(t *testing.T) {
	// Only the array's own tokens are consumed; whatever follows the
	// closing ']' stays in the tokenizer.
	tok := NewTokenizer(strings.NewReader(`[1, [2]] true`))
	s := StreamArray(tok)
	for {
		if _, err := s.Next(); err == io.EOF {
			break
		} else if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	next, err := tok.Next()
	if err != nil {
		t.Fatalf("unexpected error after array: %v", err)
	}
	if next.Type != Boolean || next.Value != true {
		t.Errorf("expected trailing Boolean true, got %v", next)
	}
}

func TestStreamArrayRejects(t *testing.T) {
	cases := []string{
		`{"a": 1}`,
		`[1 2]`,
		`[1, :]`,
		`[,]`,
	}
	for _, input := range cases {
		if _, err := tryStream(input); !errors.Is(err, ErrParse) {
			t.Errorf("stream %q: expected parse error, got %v", input, err)
		}
	}
}

func TestStreamArrayTruncated(t *testing.T) {
	for _, input := range []string{`[`, `[1,`, `[{"a":`} {
		_, err := tryStream(input)
		if !errors.Is(err, io.ErrUnexpectedEOF) {
			t.Errorf("stream %q: expected unexpected EOF error, got %v", input, err)
		}
	}
}

func TestStreamArrayStopsAfterError(t *testing.T) {
	s := StreamArray(NewTokenizer(strings.NewReader(`[1 2]`)))
	if _, err := s.Next(); err != nil {
		t.Fatalf("unexpected error on first element: %v", err)
	}
	if _, err := s.Next(); err == nil {
		t.Fatalf("expected error on second element")
	}
	if _, err := s.Next(); err != io.EOF {
		t.Errorf("expected io.EOF after failure, got %v", err)
	}
}
