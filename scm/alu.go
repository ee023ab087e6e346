/*
Copyright (C) 2023-2026  Carl-Philip Hänsch

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
	"math"
	"math/rand"
)

// numeric fold helpers; integer arithmetic stays integer until a float joins
func foldNum(a []Scmer, intOp func(int64, int64) int64, floatOp func(float64, float64) float64) Scmer {
	if len(a) == 0 {
		return int64(0)
	}
	acc := a[0]
	for _, v := range a[1:] {
		ai, aok := acc.(int64)
		bi, bok := v.(int64)
		if aok && bok {
			acc = intOp(ai, bi)
		} else {
			acc = floatOp(ToFloat(acc), ToFloat(v))
		}
	}
	return acc
}

func compareNum(a, b Scmer) int {
	if as, aok := a.(string); aok {
		bs := String(b)
		switch {
		case as < bs:
			return -1
		case as > bs:
			return 1
		}
		return 0
	}
	af, bf := ToFloat(a), ToFloat(b)
	switch {
	case af < bf:
		return -1
	case af > bf:
		return 1
	}
	return 0
}

func chainCompare(a []Scmer, ok func(int) bool) Scmer {
	for i := 0; i+1 < len(a); i++ {
		if !ok(compareNum(a[i], a[i+1])) {
			return false
		}
	}
	return true
}

func init_alu() {
	DeclareTitle("ALU")

	Declare(&Globalenv, &Declaration{
		"int?", "tells if the value is a integer",
		1, 1,
		[]DeclarationParameter{
			DeclarationParameter{"value", "any", "value to check"},
		}, "bool",
		func(a ...Scmer) Scmer {
			_, ok := a[0].(int64)
			return ok
		}, nil, true,
	})
	Declare(&Globalenv, &Declaration{
		"number?", "tells if the value is a number",
		1, 1,
		[]DeclarationParameter{
			DeclarationParameter{"value", "any", "value to check"},
		}, "bool",
		func(a ...Scmer) Scmer {
			return isNumber(a[0])
		}, nil, true,
	})
	Declare(&Globalenv, &Declaration{
		"+", "adds two or more numbers",
		0, 10000,
		[]DeclarationParameter{
			DeclarationParameter{"value...", "number", "values to add"},
		}, "number",
		func(a ...Scmer) Scmer {
			return foldNum(a, func(x, y int64) int64 { return x + y }, func(x, y float64) float64 { return x + y })
		}, nil, true,
	})
	Declare(&Globalenv, &Declaration{
		"-", "subtracts two or more numbers from the first one",
		1, 10000,
		[]DeclarationParameter{
			DeclarationParameter{"value...", "number", "values"},
		}, "number",
		func(a ...Scmer) Scmer {
			if len(a) == 1 {
				if i, ok := a[0].(int64); ok {
					return -i
				}
				return -ToFloat(a[0])
			}
			return foldNum(a, func(x, y int64) int64 { return x - y }, func(x, y float64) float64 { return x - y })
		}, nil, true,
	})
	Declare(&Globalenv, &Declaration{
		"*", "multiplies two or more numbers",
		0, 10000,
		[]DeclarationParameter{
			DeclarationParameter{"value...", "number", "values"},
		}, "number",
		func(a ...Scmer) Scmer {
			if len(a) == 0 {
				return int64(1)
			}
			return foldNum(a, func(x, y int64) int64 { return x * y }, func(x, y float64) float64 { return x * y })
		}, nil, true,
	})
	Declare(&Globalenv, &Declaration{
		"/", "divides two or more numbers from the first one",
		1, 10000,
		[]DeclarationParameter{
			DeclarationParameter{"value...", "number", "values"},
		}, "number",
		func(a ...Scmer) Scmer {
			acc := ToFloat(a[0])
			for _, v := range a[1:] {
				acc /= ToFloat(v)
			}
			return acc
		}, nil, true,
	})
	Declare(&Globalenv, &Declaration{
		"remainder", "computes the remainder of an integer division",
		2, 2,
		[]DeclarationParameter{
			DeclarationParameter{"dividend", "number", "dividend"},
			DeclarationParameter{"divisor", "number", "divisor"},
		}, "number",
		func(a ...Scmer) Scmer {
			return int64(ToInt(a[0]) % ToInt(a[1]))
		}, nil, true,
	})
	Declare(&Globalenv, &Declaration{
		"<=", "compares two numbers or strings",
		2, 10000,
		[]DeclarationParameter{
			DeclarationParameter{"value...", "any", "values"},
		}, "bool",
		func(a ...Scmer) Scmer {
			return chainCompare(a, func(c int) bool { return c <= 0 })
		}, nil, true,
	})
	Declare(&Globalenv, &Declaration{
		"<", "compares two numbers or strings",
		2, 10000,
		[]DeclarationParameter{
			DeclarationParameter{"value...", "any", "values"},
		}, "bool",
		func(a ...Scmer) Scmer {
			return chainCompare(a, func(c int) bool { return c < 0 })
		}, nil, true,
	})
	Declare(&Globalenv, &Declaration{
		">", "compares two numbers or strings",
		2, 10000,
		[]DeclarationParameter{
			DeclarationParameter{"value...", "any", "values"},
		}, "bool",
		func(a ...Scmer) Scmer {
			return chainCompare(a, func(c int) bool { return c > 0 })
		}, nil, true,
	})
	Declare(&Globalenv, &Declaration{
		">=", "compares two numbers or strings",
		2, 10000,
		[]DeclarationParameter{
			DeclarationParameter{"value...", "any", "values"},
		}, "bool",
		func(a ...Scmer) Scmer {
			return chainCompare(a, func(c int) bool { return c >= 0 })
		}, nil, true,
	})
	Declare(&Globalenv, &Declaration{
		"equal?", "compares two values of the same type, (equal? nil nil) is true",
		2, 2,
		[]DeclarationParameter{
			DeclarationParameter{"a", "any", "first value"},
			DeclarationParameter{"b", "any", "second value"},
		}, "bool",
		func(a ...Scmer) Scmer {
			return Equal(a[0], a[1])
		}, nil, true,
	})
	Declare(&Globalenv, &Declaration{
		"!", "negates the boolean value",
		1, 1,
		[]DeclarationParameter{
			DeclarationParameter{"value", "bool", "value"},
		}, "bool",
		func(a ...Scmer) Scmer {
			return !ToBool(a[0])
		}, nil, true,
	})
	Declare(&Globalenv, &Declaration{
		"not", "negates the boolean value",
		1, 1,
		[]DeclarationParameter{
			DeclarationParameter{"value", "bool", "value"},
		}, "bool",
		func(a ...Scmer) Scmer {
			return !ToBool(a[0])
		}, nil, true,
	})
	Declare(&Globalenv, &Declaration{
		"nil?", "returns true if value is nil",
		1, 1,
		[]DeclarationParameter{
			DeclarationParameter{"value", "any", "value"},
		}, "bool",
		func(a ...Scmer) Scmer {
			return a[0] == nil
		}, nil, true,
	})
	Declare(&Globalenv, &Declaration{
		"min", "returns the smallest value",
		1, 10000,
		[]DeclarationParameter{
			DeclarationParameter{"value...", "number", "values"},
		}, "number",
		func(a ...Scmer) Scmer {
			best := a[0]
			for _, v := range a[1:] {
				if compareNum(v, best) < 0 {
					best = v
				}
			}
			return best
		}, nil, true,
	})
	Declare(&Globalenv, &Declaration{
		"max", "returns the highest value",
		1, 10000,
		[]DeclarationParameter{
			DeclarationParameter{"value...", "number", "values"},
		}, "number",
		func(a ...Scmer) Scmer {
			best := a[0]
			for _, v := range a[1:] {
				if compareNum(v, best) > 0 {
					best = v
				}
			}
			return best
		}, nil, true,
	})
	Declare(&Globalenv, &Declaration{
		"floor", "rounds the number down",
		1, 1,
		[]DeclarationParameter{
			DeclarationParameter{"value", "number", "value"},
		}, "number",
		func(a ...Scmer) Scmer {
			if i, ok := a[0].(int64); ok {
				return i
			}
			return int64(math.Floor(ToFloat(a[0])))
		}, nil, true,
	})
	Declare(&Globalenv, &Declaration{
		"ceil", "rounds the number up",
		1, 1,
		[]DeclarationParameter{
			DeclarationParameter{"value", "number", "value"},
		}, "number",
		func(a ...Scmer) Scmer {
			if i, ok := a[0].(int64); ok {
				return i
			}
			return int64(math.Ceil(ToFloat(a[0])))
		}, nil, true,
	})
	Declare(&Globalenv, &Declaration{
		"round", "rounds the number",
		1, 1,
		[]DeclarationParameter{
			DeclarationParameter{"value", "number", "value"},
		}, "number",
		func(a ...Scmer) Scmer {
			if i, ok := a[0].(int64); ok {
				return i
			}
			return int64(math.Round(ToFloat(a[0])))
		}, nil, true,
	})
	Declare(&Globalenv, &Declaration{
		"abs", "returns the absolute value",
		1, 1,
		[]DeclarationParameter{
			DeclarationParameter{"value", "number", "value"},
		}, "number",
		func(a ...Scmer) Scmer {
			if i, ok := a[0].(int64); ok {
				if i < 0 {
					return -i
				}
				return i
			}
			return math.Abs(ToFloat(a[0]))
		}, nil, true,
	})
	Declare(&Globalenv, &Declaration{
		"sqrt", "returns the square root of a number",
		1, 1,
		[]DeclarationParameter{
			DeclarationParameter{"value", "number", "value"},
		}, "number",
		func(a ...Scmer) Scmer {
			return math.Sqrt(ToFloat(a[0]))
		}, nil, true,
	})
	Declare(&Globalenv, &Declaration{
		"random", "returns a random float in [0,1)",
		0, 0,
		[]DeclarationParameter{}, "number",
		func(a ...Scmer) Scmer {
			return rand.Float64()
		}, nil, false,
	})
}
