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
	"strings"
	"testing"
)

func TestParser_Atoms(t *testing.T) {
	if v := Read("test", "42"); v != int64(42) {
		t.Fatalf("int literal: %T %v", v, v)
	}
	if v := Read("test", "-7"); v != int64(-7) {
		t.Fatalf("negative int: %T %v", v, v)
	}
	if v := Read("test", "3.25"); v != float64(3.25) {
		t.Fatalf("float literal: %T %v", v, v)
	}
	if v := Read("test", `"a b"`); v != "a b" {
		t.Fatalf("string literal: %T %v", v, v)
	}
	if v := Read("test", `"tab\there"`); v != "tab\there" {
		t.Fatalf("string escape: %v", v)
	}
	if v := Read("test", "foo"); v != Symbol("foo") {
		t.Fatalf("symbol: %T %v", v, v)
	}
}

func TestParser_ListsAreCells(t *testing.T) {
	v := Read("myfile.scm", "(a (b c))")
	c, ok := v.(*Cell)
	if !ok {
		t.Fatalf("list form not wrapped in a cell: %T", v)
	}
	if c.Source != "myfile.scm" || c.Line != 1 {
		t.Fatalf("cell position: %s", c.Position())
	}
	l, ok := c.Form.([]Scmer)
	if !ok || len(l) != 2 {
		t.Fatalf("cell form: %v", c.Form)
	}
	inner, ok := l[1].(*Cell)
	if !ok {
		t.Fatalf("inner list not wrapped: %T", l[1])
	}
	if inner.Col <= c.Col {
		t.Fatalf("inner cell column %d not after outer %d", inner.Col, c.Col)
	}
	// each list occurrence gets its own wrapper
	v2 := Read("myfile.scm", "((x) (x))")
	l2 := v2.(*Cell).Form.([]Scmer)
	if l2[0].(*Cell) == l2[1].(*Cell) {
		t.Fatalf("identical subforms share a wrapper")
	}
}

func TestParser_QuoteSugar(t *testing.T) {
	en := testEnv()
	v := evalString(t, en, "'(1 2 3)")
	l, ok := v.([]Scmer)
	if !ok || len(l) != 3 || l[0] != int64(1) || l[2] != int64(3) {
		t.Fatalf("quoted list: %v", v)
	}
	if v := evalString(t, en, "'sym"); v != Symbol("sym") {
		t.Fatalf("quoted symbol: %v", v)
	}
	if v := evalString(t, en, "'()"); String(v) != "()" {
		t.Fatalf("empty quoted list: %v", v)
	}
}

func TestParser_LineTracking(t *testing.T) {
	code := "(a)\n(b)\n  (c)"
	forms := ReadAll("test", code)
	if len(forms) != 3 {
		t.Fatalf("expected 3 forms, got %d", len(forms))
	}
	if c := forms[1].(*Cell); c.Line != 2 {
		t.Fatalf("second form line: %d", c.Line)
	}
	if c := forms[2].(*Cell); c.Line != 3 || c.Col != 3 {
		t.Fatalf("third form position: %s", c.Position())
	}
}

func TestParser_Comments(t *testing.T) {
	v := Read("test", "/* ignored */ 5")
	if v != int64(5) {
		t.Fatalf("comment not skipped: %v", v)
	}
	forms := ReadAll("test", "(+ 1 /* inline */ 2)")
	en := testEnv()
	if got := Eval(forms[0], en); got != int64(3) {
		t.Fatalf("inline comment: %v", got)
	}
}

func TestParser_UnbalancedPanics(t *testing.T) {
	r := mustPanic(t, func() { Read("broken.scm", "(a (b)") })
	msg, ok := r.(string)
	if !ok || !strings.Contains(msg, "expecting matching )") {
		t.Fatalf("unexpected panic: %v", r)
	}
	if !strings.Contains(msg, "broken.scm") {
		t.Fatalf("panic lacks the source position: %v", msg)
	}
}

func TestParser_SerializeRoundtrip(t *testing.T) {
	en := testEnv()
	cases := []string{
		`(quote (a b 1 2.5 "s"))`,
		"'(1 2 3)",
	}
	for _, code := range cases {
		v1 := evalString(t, en, code)
		s := SerializeToString(v1, en)
		v2 := evalString(t, en, "(quote "+s+")")
		// quoting the serialized text must reproduce the same data shape
		if String(v2) != String(v1) {
			t.Fatalf("%s: roundtrip %q -> %q", code, String(v1), String(v2))
		}
	}
}

func TestParser_EvalAllReusesCells(t *testing.T) {
	en := testEnv()
	if v := EvalAll("test", "(define ea_x 1) (+ ea_x 41)", en); v != int64(42) {
		t.Fatalf("EvalAll: %v", v)
	}
}
