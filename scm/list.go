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

import "sort"

func init_list() {
	DeclareTitle("Lists")

	Declare(&Globalenv, &Declaration{
		"count", "counts the number of elements in the list",
		1, 1,
		[]DeclarationParameter{
			DeclarationParameter{"list", "list", "list to count"},
		}, "number",
		func(a ...Scmer) Scmer {
			return int64(len(asSlice(a[0], "count")))
		}, nil, true,
	})
	Declare(&Globalenv, &Declaration{
		"nth", "get the nth item of a list",
		2, 2,
		[]DeclarationParameter{
			DeclarationParameter{"list", "list", "list"},
			DeclarationParameter{"index", "number", "index starting at 0"},
		}, "any",
		func(a ...Scmer) Scmer {
			l := asSlice(a[0], "nth")
			i := ToInt(a[1])
			if i < 0 || i >= len(l) {
				return nil
			}
			return l[i]
		}, nil, true,
	})
	Declare(&Globalenv, &Declaration{
		"append", "appends items to a list and return the extended list.\nThe original list stays unharmed.",
		1, 10000,
		[]DeclarationParameter{
			DeclarationParameter{"list", "list", "list to extend"},
			DeclarationParameter{"item...", "any", "items to append"},
		}, "list",
		func(a ...Scmer) Scmer {
			l := asSlice(a[0], "append")
			result := make([]Scmer, len(l), len(l)+len(a)-1)
			copy(result, l)
			return append(result, a[1:]...)
		}, nil, true,
	})
	Declare(&Globalenv, &Declaration{
		"cons", "constructs a list from a head and a tail list",
		2, 2,
		[]DeclarationParameter{
			DeclarationParameter{"head", "any", "head item"},
			DeclarationParameter{"tail", "list", "tail list"},
		}, "list",
		func(a ...Scmer) Scmer {
			tail := asSlice(a[1], "cons")
			result := make([]Scmer, 1, len(tail)+1)
			result[0] = a[0]
			return append(result, tail...)
		}, nil, true,
	})
	Declare(&Globalenv, &Declaration{
		"car", "extracts the head of a list",
		1, 1,
		[]DeclarationParameter{
			DeclarationParameter{"list", "list", "list"},
		}, "any",
		func(a ...Scmer) Scmer {
			l := asSlice(a[0], "car")
			if len(l) == 0 {
				return nil
			}
			return l[0]
		}, nil, true,
	})
	Declare(&Globalenv, &Declaration{
		"cdr", "extracts the tail of a list\nThe tail of a list is a list with all items except the head.",
		1, 1,
		[]DeclarationParameter{
			DeclarationParameter{"list", "list", "list"},
		}, "list",
		func(a ...Scmer) Scmer {
			l := asSlice(a[0], "cdr")
			if len(l) == 0 {
				return []Scmer{}
			}
			return l[1:]
		}, nil, true,
	})
	Declare(&Globalenv, &Declaration{
		"merge", "flattens a list of lists into a list containing all the subitems",
		1, 10000,
		[]DeclarationParameter{
			DeclarationParameter{"list...", "list", "lists to merge"},
		}, "list",
		func(a ...Scmer) Scmer {
			var lists [][]Scmer
			if len(a) == 1 {
				for _, sub := range asSlice(a[0], "merge") {
					lists = append(lists, asSlice(sub, "merge"))
				}
			} else {
				for _, sub := range a {
					lists = append(lists, asSlice(sub, "merge"))
				}
			}
			size := 0
			for _, l := range lists {
				size += len(l)
			}
			result := make([]Scmer, 0, size)
			for _, l := range lists {
				result = append(result, l...)
			}
			return result
		}, nil, true,
	})
	Declare(&Globalenv, &Declaration{
		"has?", "checks if a list has a certain item (equal?)",
		2, 2,
		[]DeclarationParameter{
			DeclarationParameter{"list", "list", "list to check"},
			DeclarationParameter{"item", "any", "item to find"},
		}, "bool",
		func(a ...Scmer) Scmer {
			for _, item := range asSlice(a[0], "has?") {
				if Equal(item, a[1]) {
					return true
				}
			}
			return false
		}, nil, true,
	})
	Declare(&Globalenv, &Declaration{
		"filter", "returns a list that only contains elements that pass the filter function",
		2, 2,
		[]DeclarationParameter{
			DeclarationParameter{"list", "list", "list to filter"},
			DeclarationParameter{"condition", "func", "filter function that takes an item and returns a bool"},
		}, "list",
		func(a ...Scmer) Scmer {
			l := asSlice(a[0], "filter")
			result := make([]Scmer, 0, len(l))
			for _, item := range l {
				if ToBool(Apply(a[1], item)) {
					result = append(result, item)
				}
			}
			return result
		}, nil, true,
	})
	Declare(&Globalenv, &Declaration{
		"map", "returns a list that contains the results of a map function that is applied to the list",
		2, 2,
		[]DeclarationParameter{
			DeclarationParameter{"list", "list", "list to map"},
			DeclarationParameter{"map", "func", "function that takes an item and returns the mapped value"},
		}, "list",
		func(a ...Scmer) Scmer {
			l := asSlice(a[0], "map")
			result := make([]Scmer, len(l))
			for i, item := range l {
				result[i] = Apply(a[1], item)
			}
			return result
		}, nil, true,
	})
	Declare(&Globalenv, &Declaration{
		"mapIndex", "returns a list that contains the results of a map function (index item) applied to the list",
		2, 2,
		[]DeclarationParameter{
			DeclarationParameter{"list", "list", "list to map"},
			DeclarationParameter{"map", "func", "function that takes index and item"},
		}, "list",
		func(a ...Scmer) Scmer {
			l := asSlice(a[0], "mapIndex")
			result := make([]Scmer, len(l))
			for i, item := range l {
				result[i] = Apply(a[1], int64(i), item)
			}
			return result
		}, nil, true,
	})
	Declare(&Globalenv, &Declaration{
		"reduce", "reduces a list with an aggregation function",
		2, 3,
		[]DeclarationParameter{
			DeclarationParameter{"list", "list", "list to reduce"},
			DeclarationParameter{"reduce", "func", "function that takes the accumulator and an item"},
			DeclarationParameter{"start", "any", "start value of the accumulator"},
		}, "any",
		func(a ...Scmer) Scmer {
			var acc Scmer
			if len(a) > 2 {
				acc = a[2]
			}
			for _, item := range asSlice(a[0], "reduce") {
				acc = Apply(a[1], acc, item)
			}
			return acc
		}, nil, true,
	})
	Declare(&Globalenv, &Declaration{
		"produceN", "returns a list with numbers from 0..n-1",
		1, 1,
		[]DeclarationParameter{
			DeclarationParameter{"n", "number", "number of items"},
		}, "list",
		func(a ...Scmer) Scmer {
			n := ToInt(a[0])
			result := make([]Scmer, n)
			for i := 0; i < n; i++ {
				result[i] = int64(i)
			}
			return result
		}, nil, true,
	})
	Declare(&Globalenv, &Declaration{
		"list?", "checks if a value is a list",
		1, 1,
		[]DeclarationParameter{
			DeclarationParameter{"value", "any", "value to check"},
		}, "bool",
		func(a ...Scmer) Scmer {
			_, ok := unwrap(a[0]).([]Scmer)
			return ok
		}, nil, true,
	})
	Declare(&Globalenv, &Declaration{
		"reverse", "returns the list in reverse order",
		1, 1,
		[]DeclarationParameter{
			DeclarationParameter{"list", "list", "list to reverse"},
		}, "list",
		func(a ...Scmer) Scmer {
			l := asSlice(a[0], "reverse")
			result := make([]Scmer, len(l))
			for i, item := range l {
				result[len(l)-1-i] = item
			}
			return result
		}, nil, true,
	})
	Declare(&Globalenv, &Declaration{
		"sort", "sorts a list with a less function",
		1, 2,
		[]DeclarationParameter{
			DeclarationParameter{"list", "list", "list to sort"},
			DeclarationParameter{"less", "func", "comparator; defaults to <"},
		}, "list",
		func(a ...Scmer) Scmer {
			l := asSlice(a[0], "sort")
			result := make([]Scmer, len(l))
			copy(result, l)
			if len(a) > 1 {
				sort.SliceStable(result, func(i, j int) bool {
					return ToBool(Apply(a[1], result[i], result[j]))
				})
			} else {
				sort.SliceStable(result, func(i, j int) bool {
					return compareNum(result[i], result[j]) < 0
				})
			}
			return result
		}, nil, true,
	})
	Declare(&Globalenv, &Declaration{
		"has_assoc?", "checks if a dictionary has a key present",
		2, 2,
		[]DeclarationParameter{
			DeclarationParameter{"dict", "list", "assoc list"},
			DeclarationParameter{"key", "any", "key to find"},
		}, "bool",
		func(a ...Scmer) Scmer {
			l := asSlice(a[0], "has_assoc?")
			for i := 0; i+1 < len(l); i += 2 {
				if Equal(l[i], a[1]) {
					return true
				}
			}
			return false
		}, nil, true,
	})
	Declare(&Globalenv, &Declaration{
		"set_assoc", "returns a dictionary where a single value has been changed",
		3, 3,
		[]DeclarationParameter{
			DeclarationParameter{"dict", "list", "assoc list"},
			DeclarationParameter{"key", "any", "key to set"},
			DeclarationParameter{"value", "any", "new value"},
		}, "list",
		func(a ...Scmer) Scmer {
			l := asSlice(a[0], "set_assoc")
			result := make([]Scmer, len(l), len(l)+2)
			copy(result, l)
			for i := 0; i+1 < len(result); i += 2 {
				if Equal(result[i], a[1]) {
					result[i+1] = a[2]
					return result
				}
			}
			return append(result, a[1], a[2])
		}, nil, true,
	})
	Declare(&Globalenv, &Declaration{
		"extract_assoc", "applies a function (key value) on the dictionary and returns the results as a flat list",
		2, 2,
		[]DeclarationParameter{
			DeclarationParameter{"dict", "list", "assoc list"},
			DeclarationParameter{"map", "func", "function (key value)"},
		}, "list",
		func(a ...Scmer) Scmer {
			l := asSlice(a[0], "extract_assoc")
			result := make([]Scmer, 0, len(l)/2)
			for i := 0; i+1 < len(l); i += 2 {
				result = append(result, Apply(a[1], l[i], l[i+1]))
			}
			return result
		}, nil, true,
	})
}
