/*
Copyright (C) 2024-2026  Carl-Philip Hänsch

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
	"sync"

	"github.com/google/btree"
)

// SortedMap is an ordered key-value store backed by a btree. Keys sort
// numerically first, then lexicographically.
type SortedMap struct {
	mu   sync.RWMutex
	tree *btree.BTreeG[sortedMapItem]
}

type sortedMapItem struct {
	key   Scmer
	value Scmer
}

func sortedMapLess(a, b sortedMapItem) bool {
	an, bn := isNumber(a.key), isNumber(b.key)
	if an != bn {
		return an
	}
	return compareNum(a.key, b.key) < 0
}

func NewSortedMap() *SortedMap {
	return &SortedMap{tree: btree.NewG[sortedMapItem](8, sortedMapLess)}
}

func (m *SortedMap) Set(key, value Scmer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tree.ReplaceOrInsert(sortedMapItem{key, value})
}

func (m *SortedMap) Get(key Scmer) Scmer {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if item, ok := m.tree.Get(sortedMapItem{key: key}); ok {
		return item.value
	}
	return nil
}

func (m *SortedMap) Delete(key Scmer) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.tree.Delete(sortedMapItem{key: key})
	return ok
}

func (m *SortedMap) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tree.Len()
}

// Ascend visits pairs in key order; fn returns false to stop.
func (m *SortedMap) Ascend(fn func(key, value Scmer) bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	m.tree.Ascend(func(item sortedMapItem) bool {
		return fn(item.key, item.value)
	})
}

func (m *SortedMap) String() string {
	var result []Scmer
	m.Ascend(func(k, v Scmer) bool {
		result = append(result, k, v)
		return true
	})
	return "[sortedmap " + String(result) + "]"
}

func init_sortedmap() {
	DeclareTitle("Sorted maps")

	Declare(&Globalenv, &Declaration{
		"sortedmap", "creates an ordered key-value map",
		0, 0,
		[]DeclarationParameter{}, "any",
		func(a ...Scmer) Scmer {
			return NewSortedMap()
		}, nil, false,
	})
	Declare(&Globalenv, &Declaration{
		"map_set!", "sets a key in a sorted map; returns the map",
		3, 3,
		[]DeclarationParameter{
			DeclarationParameter{"map", "any", "sorted map"},
			DeclarationParameter{"key", "any", "key"},
			DeclarationParameter{"value", "any", "value"},
		}, "any",
		func(a ...Scmer) Scmer {
			a[0].(*SortedMap).Set(a[1], a[2])
			return a[0]
		}, nil, false,
	})
	Declare(&Globalenv, &Declaration{
		"map_get", "reads a key from a sorted map; nil if not present",
		2, 2,
		[]DeclarationParameter{
			DeclarationParameter{"map", "any", "sorted map"},
			DeclarationParameter{"key", "any", "key"},
		}, "any",
		func(a ...Scmer) Scmer {
			return a[0].(*SortedMap).Get(a[1])
		}, nil, false,
	})
	Declare(&Globalenv, &Declaration{
		"map_delete!", "removes a key from a sorted map; returns whether it was present",
		2, 2,
		[]DeclarationParameter{
			DeclarationParameter{"map", "any", "sorted map"},
			DeclarationParameter{"key", "any", "key"},
		}, "bool",
		func(a ...Scmer) Scmer {
			return a[0].(*SortedMap).Delete(a[1])
		}, nil, false,
	})
	Declare(&Globalenv, &Declaration{
		"map_count", "number of entries in a sorted map",
		1, 1,
		[]DeclarationParameter{
			DeclarationParameter{"map", "any", "sorted map"},
		}, "number",
		func(a ...Scmer) Scmer {
			return int64(a[0].(*SortedMap).Len())
		}, nil, false,
	})
	Declare(&Globalenv, &Declaration{
		"map_foreach", "visits all entries in key order with a function (key value); stops when the function returns false",
		2, 2,
		[]DeclarationParameter{
			DeclarationParameter{"map", "any", "sorted map"},
			DeclarationParameter{"visitor", "func", "function (key value) returning bool"},
		}, "nil",
		func(a ...Scmer) Scmer {
			a[0].(*SortedMap).Ascend(func(k, v Scmer) bool {
				return ToBool(Apply(a[1], k, v))
			})
			return nil
		}, nil, false,
	})
}
