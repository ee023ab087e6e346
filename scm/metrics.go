/*
Copyright (C) 2025-2026  Carl-Philip Hänsch

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
	"runtime"
	"sync/atomic"

	"github.com/docker/go-units"
)

// engine counters, incremented on the hot paths with single atomics
var (
	totalApplies    int64 // function applications through the slow path
	totalExpansions int64 // macro expansions through the gateway
	totalDigestions int64 // forms digested into dispatch nodes
)

func countApply()  { atomic.AddInt64(&totalApplies, 1) }
func countExpand() { atomic.AddInt64(&totalExpansions, 1) }
func countDigest() { atomic.AddInt64(&totalDigestions, 1) }

// Stats returns the engine counters plus memory usage as an assoc list.
func Stats() Scmer {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	return []Scmer{
		"applies", atomic.LoadInt64(&totalApplies),
		"expansions", atomic.LoadInt64(&totalExpansions),
		"digestions", atomic.LoadInt64(&totalDigestions),
		"goroutines", int64(runtime.NumGoroutine()),
		"heap", units.BytesSize(float64(mem.HeapAlloc)),
		"sys", units.BytesSize(float64(mem.Sys)),
		"gc_runs", int64(mem.NumGC),
	}
}

func init_metrics() {
	DeclareTitle("Metrics")

	Declare(&Globalenv, &Declaration{
		"stats", "returns engine counters and memory usage as an assoc list",
		0, 0,
		[]DeclarationParameter{}, "list",
		func(a ...Scmer) Scmer {
			return Stats()
		}, nil, false,
	})
	Declare(&Globalenv, &Declaration{
		"memsize", "formats a byte count into a human readable size",
		1, 1,
		[]DeclarationParameter{
			DeclarationParameter{"bytes", "number", "byte count"},
		}, "string",
		func(a ...Scmer) Scmer {
			return units.BytesSize(ToFloat(a[0]))
		}, nil, true,
	})
	Declare(&Globalenv, &Declaration{
		"parsesize", "parses a human readable size like 32kB into a byte count",
		1, 1,
		[]DeclarationParameter{
			DeclarationParameter{"size", "string", "human readable size"},
		}, "number",
		func(a ...Scmer) Scmer {
			n, err := units.FromHumanSize(String(a[0]))
			if err != nil {
				panic("parsesize: " + err.Error())
			}
			return n
		}, nil, true,
	})
}
