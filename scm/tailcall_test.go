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

const countdownSrc = `
	(define countdown (lambda (n) (if (< n 1) "done" (countdown (- n 1)))))
	(countdown 300000)
`

func TestTailCall_ImmediateDeepRecursion(t *testing.T) {
	en := testEnv()
	if v := evalString(t, en, countdownSrc); v != "done" {
		t.Fatalf("deep tail recursion: %v", v)
	}
}

func TestTailCall_DigestedDeepRecursion(t *testing.T) {
	en := testEnv()
	if v := digestString(t, en, countdownSrc); v != "done" {
		t.Fatalf("deep tail recursion through dispatch nodes: %v", v)
	}
}

func TestTailCall_AccumulatorLoop(t *testing.T) {
	code := `
		(define sum_to (lambda (n acc) (if (< n 1) acc (sum_to (- n 1) (+ acc n)))))
		(sum_to 100000 0)
	`
	want := int64(100000) * 100001 / 2
	if v := evalString(t, testEnv(), code); v != want {
		t.Fatalf("immediate accumulator loop: %v", v)
	}
	if v := digestString(t, testEnv(), code); v != want {
		t.Fatalf("digested accumulator loop: %v", v)
	}
}

func TestTailCall_MutualRecursion(t *testing.T) {
	code := `
		(define is_even (lambda (n) (if (< n 1) true (is_odd (- n 1)))))
		(define is_odd (lambda (n) (if (< n 1) false (is_even (- n 1)))))
		(is_even 100001)
	`
	if v := evalString(t, testEnv(), code); v != false {
		t.Fatalf("immediate mutual recursion: %v", v)
	}
	if v := digestString(t, testEnv(), code); v != false {
		t.Fatalf("digested mutual recursion: %v", v)
	}
}

func TestTailCall_ThroughBeginAndWhen(t *testing.T) {
	// the tail position survives sequencing forms and macro expansions
	code := `
		(define drain (lambda (n) (begin
			(+ n 0)
			(if (< n 1) "empty" (drain (- n 1))))))
		(drain 200000)
	`
	if v := evalString(t, testEnv(), code); v != "empty" {
		t.Fatalf("tail call through begin: %v", v)
	}
	if v := digestString(t, testEnv(), code); v != "empty" {
		t.Fatalf("digested tail call through begin: %v", v)
	}
}
