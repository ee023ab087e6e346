/*
Copyright (C) 2026  Carl-Philip Hänsch

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

import "fmt"

// evaluator error values; they travel by panic and are turned into ordinary
// errors at the entry points (TryEval) or caught by the (try) builtin

// TypeError is raised when a binding with a declared type is read and the
// current value does not satisfy it. The value is never silently coerced.
type TypeError struct {
	Form     Scmer
	Value    Scmer
	Expected string
}

func (e TypeError) Error() string {
	return fmt.Sprintf("type check failed on %s: value %s does not satisfy %s", String(e.Form), String(e.Value), e.Expected)
}

// InvalidOperatorError is raised when the head of a form is neither a symbol
// nor an inline lambda expression
type InvalidOperatorError struct {
	Form Scmer
}

func (e InvalidOperatorError) Error() string {
	return "invalid operator in form " + String(e.Form)
}

// UnboundError is raised when a name resolves to neither a lexical binding,
// a global macro, a foreign variable nor a dynamic variable
type UnboundError struct {
	Sym Symbol
}

func (e UnboundError) Error() string {
	return "unbound symbol " + string(e.Sym)
}

// ProtocolError marks a configuration fault in the special operator table,
// e.g. a digest handler that declines without a fallback macro of the same
// name. This is never caused by bad object language input.
type ProtocolError struct {
	Op  Symbol
	Msg string
}

func (e ProtocolError) Error() string {
	return "special operator " + string(e.Op) + ": " + e.Msg
}

// recoverToError converts a recovered panic value into an error
func recoverToError(r any) error {
	switch e := r.(type) {
	case nil:
		return nil
	case error:
		return e
	default:
		return fmt.Errorf("%s", String(FromAny(r)))
	}
}
