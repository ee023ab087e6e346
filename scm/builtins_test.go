/*
Copyright (C) 2025  Carl-Philip Hänsch

	This program is free software: you can redistribute it and/or modify
	it under the terms of the GNU General Public License as published by
	the Free Software Foundation, either version 3 of the License, or
	(at your option) any later version.

	This program is distributed in the hope that it will be useful,
	but WITHOUT ANY WARRANTY; without even the implied warranty of
	MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
	GNU General Public License for more details.

	You should have received a copy of the GNU General Public License
	along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/
package scm

import (
	"testing"
)

func TestBuiltins_Arithmetic(t *testing.T) {
	en := testEnv()
	cases := []struct {
		code string
		want Scmer
	}{
		{"(+ 1 2)", int64(3)},
		{"(+ 1.5 1)", float64(2.5)},
		{"(- 10 4 1)", int64(5)},
		{"(* 6 7)", int64(42)},
		{"(/ 6 3)", float64(2)},
		{"(remainder 7 3)", int64(1)},
		{"(min 3 1 2)", int64(1)},
		{"(max 3 1 2)", int64(3)},
		{"(floor 2.7)", int64(2)},
		{"(< 1 2)", true},
		{"(<= 2 2 3)", true},
		{"(> 1 2)", false},
		{"(equal? \"a\" \"a\")", true},
		{"(equal? nil nil)", true},
		{"(not false)", true},
		{"(nil? nil)", true},
		{"(nil? 0)", false},
		{"(int? 5)", true},
		{"(int? 5.5)", false},
		{"(number? 5.5)", true},
	}
	for _, c := range cases {
		if v := evalString(t, en, c.code); !Equal(v, c.want) {
			t.Fatalf("%s: got %v (%T), want %v", c.code, v, v, c.want)
		}
	}
}

func TestBuiltins_Strings(t *testing.T) {
	en := testEnv()
	cases := []struct {
		code string
		want Scmer
	}{
		{`(concat "foo" 1 "bar")`, "foo1bar"},
		{`(substr "hello" 1 3)`, "ell"},
		{`(strlen "hello")`, int64(5)},
		{`(toUpper "abc")`, "ABC"},
		{`(toLower "AbC")`, "abc"},
		{`(replace "aXbXc" "X" "-")`, "a-b-c"},
		{`(simplify "42")`, int64(42)},
		{`(string? "x")`, true},
		{`(string? 1)`, false},
	}
	for _, c := range cases {
		if v := evalString(t, en, c.code); !Equal(v, c.want) {
			t.Fatalf("%s: got %v (%T), want %v", c.code, v, v, c.want)
		}
	}
	parts := evalString(t, en, `(split "a,b,c" ",")`).([]Scmer)
	if len(parts) != 3 || parts[1] != "b" {
		t.Fatalf("split: %v", parts)
	}
}

func TestBuiltins_JSONRoundtrip(t *testing.T) {
	en := testEnv()
	s := evalString(t, en, `(json_encode '("a" 1 "b" 2.5))`)
	str, ok := s.(string)
	if !ok {
		t.Fatalf("json_encode did not return a string: %T", s)
	}
	back := evalString(t, en, "(json_decode "+SerializeToString(str, en)+")")
	l, ok := back.([]Scmer)
	if !ok || len(l) != 4 || l[0] != "a" || l[3] != float64(2.5) {
		t.Fatalf("json roundtrip: %v", back)
	}
}

func TestBuiltins_Lists(t *testing.T) {
	en := testEnv()
	cases := []struct {
		code string
		want string
	}{
		{"(append '(1 2) 3)", "(1 2 3)"},
		{"(cons 0 '(1 2))", "(0 1 2)"},
		{"(car '(1 2))", "1"},
		{"(cdr '(1 2 3))", "(2 3)"},
		{"(reverse '(1 2 3))", "(3 2 1)"},
		{"(merge (list (list 1 2) (list 3)))", "(1 2 3)"},
		{"(filter '(1 2 3 4) (lambda (x) (> x 2)))", "(3 4)"},
		{"(map '(1 2 3) (lambda (x) (* x 2)))", "(2 4 6)"},
		{"(produceN 4)", "(0 1 2 3)"},
	}
	for _, c := range cases {
		if v := String(evalString(t, en, c.code)); v != c.want {
			t.Fatalf("%s: got %s, want %s", c.code, v, c.want)
		}
	}
	if v := evalString(t, en, "(count '(9 9 9))"); v != int64(3) {
		t.Fatalf("count: %v", v)
	}
	if v := evalString(t, en, "(nth '(7 8 9) 1)"); v != int64(8) {
		t.Fatalf("nth: %v", v)
	}
	if v := evalString(t, en, "(reduce '(1 2 3 4) + 0)"); v != int64(10) {
		t.Fatalf("reduce: %v", v)
	}
	if v := evalString(t, en, "(has? '(1 2 3) 2)"); v != true {
		t.Fatalf("has?: %v", v)
	}
	if v := evalString(t, en, "(sort '(3 1 2) <)"); String(v) != "(1 2 3)" {
		t.Fatalf("sort: %v", String(v))
	}
}

func TestBuiltins_AssocLists(t *testing.T) {
	en := testEnv()
	if v := evalString(t, en, `(has_assoc? '("a" 1 "b" 2) "b")`); v != true {
		t.Fatalf("has_assoc?: %v", v)
	}
	if v := String(evalString(t, en, `(set_assoc '("a" 1) "b" 2)`)); v != "(a 1 b 2)" {
		t.Fatalf("set_assoc: %v", v)
	}
}

func TestBuiltins_Match(t *testing.T) {
	en := testEnv()
	cases := []struct {
		code string
		want Scmer
	}{
		{`(match 42 42 "num" "other")`, "num"},
		{`(match 41 42 "num" "other")`, "other"},
		{`(match '(1 2) (list a b) (+ a b) "nope")`, int64(3)},
		{`(match '(1 2 3) (cons h rest) h "nope")`, int64(1)},
		{`(match "hello world" (concat "hello " rest) rest "nope")`, "world"},
		{`(match "v=7" (regex "v=([0-9]+)" whole n) (simplify n) "nope")`, int64(7)},
		{`(match "HeLLo" (ignorecase "hello") "ci" "cs")`, "ci"},
	}
	for _, c := range cases {
		if v := evalString(t, en, c.code); !Equal(v, c.want) {
			t.Fatalf("%s: got %v, want %v", c.code, v, c.want)
		}
	}
}

func TestBuiltins_SortedMap(t *testing.T) {
	en := testEnv()
	code := `(define sm (sortedmap))
		(map_set! sm "b" 2)
		(map_set! sm "a" 1)
		(map_set! sm "c" 3)
		(map_count sm)`
	if v := evalString(t, en, code); v != int64(3) {
		t.Fatalf("map_count: %v", v)
	}
	if v := evalString(t, en, `(map_get sm "a")`); v != int64(1) {
		t.Fatalf("map_get: %v", v)
	}
	// key order visit
	var keys []Scmer
	sm, _ := en.Get(Symbol("sm"))
	sm.(*SortedMap).Ascend(func(k, v Scmer) bool {
		keys = append(keys, k)
		return true
	})
	if len(keys) != 3 || keys[0] != "a" || keys[2] != "c" {
		t.Fatalf("ascend order: %v", keys)
	}
	if v := evalString(t, en, `(map_delete! sm "a")`); v != true {
		t.Fatalf("map_delete!: %v", v)
	}
	if v := evalString(t, en, `(map_get sm "a")`); v != nil {
		t.Fatalf("deleted key still present: %v", v)
	}
}

func TestBuiltins_GrammarParser(t *testing.T) {
	en := testEnv()
	code := `(define num_p (parser (define x (regex "[0-9]+")) x))
		(num_p "42")`
	if v := evalString(t, en, code); v != int64(42) {
		t.Fatalf("grammar parser: %v (%T)", v, v)
	}
	v := evalString(t, en, `(parse num_p "7")`)
	if v != int64(7) {
		t.Fatalf("parse builtin: %v", v)
	}
	// sequences with a generator over the bound variables
	code2 := `(define pair_p (parser (list (define a (regex "[0-9]+")) "," (define b (regex "[0-9]+")))
			(+ (simplify a) (simplify b))))
		(pair_p "40,2")`
	if v := evalString(t, en, code2); v != int64(42) {
		t.Fatalf("sequence grammar: %v", v)
	}
}

func TestBuiltins_StringStream(t *testing.T) {
	en := testEnv()
	v := evalString(t, en, `(readAll (stringstream "abc def"))`)
	if v != "abc def" {
		t.Fatalf("stringstream/readAll: %v", v)
	}
}

func TestBuiltins_Stats(t *testing.T) {
	en := testEnv()
	v := evalString(t, en, "(stats)")
	l, ok := v.([]Scmer)
	if !ok || len(l) < 6 {
		t.Fatalf("stats shape: %v", v)
	}
	if v := evalString(t, en, `((stats) "applies")`); ToInt(v) <= 0 {
		t.Fatalf("apply counter did not move: %v", v)
	}
}
