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
	"container/heap"
	"fmt"
	"runtime/debug"
	"sync"
	"time"
)

// Scheduler runs callbacks at deadlines from a single timer goroutine. Tasks
// run on their own goroutines so a slow task never delays the next deadline.
type Scheduler struct {
	mu      sync.Mutex
	queue   timerQueue
	pending map[uint64]bool // false = cancelled, still in the heap
	nextID  uint64
	wake    chan struct{}
	stop    chan struct{}
	stopped bool
	once    sync.Once
	wg      sync.WaitGroup
}

type timerEntry struct {
	due time.Time
	fn  func()
	id  uint64
}

type timerQueue []timerEntry

func (q timerQueue) Len() int { return len(q) }
func (q timerQueue) Less(i, j int) bool {
	if q[i].due.Equal(q[j].due) {
		return q[i].id < q[j].id
	}
	return q[i].due.Before(q[j].due)
}
func (q timerQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *timerQueue) Push(x any)   { *q = append(*q, x.(timerEntry)) }
func (q *timerQueue) Pop() any {
	old := *q
	item := old[len(old)-1]
	*q = old[:len(old)-1]
	return item
}

var DefaultScheduler Scheduler

func (s *Scheduler) init() {
	s.once.Do(func() {
		s.pending = make(map[uint64]bool)
		s.wake = make(chan struct{}, 1)
		s.stop = make(chan struct{})
		heap.Init(&s.queue)
		s.wg.Add(1)
		go s.loop()
	})
}

func (s *Scheduler) ScheduleAfter(delay time.Duration, fn func()) (uint64, bool) {
	if delay < 0 {
		delay = 0
	}
	return s.ScheduleAt(time.Now().Add(delay), fn)
}

func (s *Scheduler) ScheduleAt(due time.Time, fn func()) (uint64, bool) {
	if fn == nil {
		return 0, false
	}
	s.init()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return 0, false
	}
	s.nextID++
	id := s.nextID
	heap.Push(&s.queue, timerEntry{due: due, fn: fn, id: id})
	s.pending[id] = true
	if s.queue[0].id == id {
		s.wakeLocked()
	}
	return id, true
}

// Clear cancels a scheduled task; reports whether it was still pending.
func (s *Scheduler) Clear(id uint64) bool {
	s.init()
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.pending[id] {
		return false
	}
	s.pending[id] = false
	s.wakeLocked()
	return true
}

func (s *Scheduler) Stop() {
	s.init()
	s.mu.Lock()
	if !s.stopped {
		s.stopped = true
		close(s.stop)
	}
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *Scheduler) wakeLocked() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Scheduler) loop() {
	defer s.wg.Done()
	var timer *time.Timer
	drain := func() {
		if timer != nil && !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
	}
	for {
		s.mu.Lock()
		for len(s.queue) > 0 && !s.pending[s.queue[0].id] {
			dropped := heap.Pop(&s.queue).(timerEntry)
			delete(s.pending, dropped.id)
		}
		if len(s.queue) == 0 {
			s.mu.Unlock()
			select {
			case <-s.stop:
				return
			case <-s.wake:
			}
			continue
		}
		next := s.queue[0]
		wait := time.Until(next.due)
		if wait <= 0 {
			heap.Pop(&s.queue)
			delete(s.pending, next.id)
			s.mu.Unlock()
			go runScheduled(next.fn)
			continue
		}
		if timer == nil {
			timer = time.NewTimer(wait)
		} else {
			timer.Reset(wait)
		}
		s.mu.Unlock()
		select {
		case <-timer.C:
		case <-s.wake:
			drain()
		case <-s.stop:
			drain()
			return
		}
	}
}

func runScheduled(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Printf("scheduler: task panic: %v\n", r)
			debug.PrintStack()
		}
	}()
	fn()
}

func init_scheduler() {
	DeclareTitle("Scheduler")
	Declare(&Globalenv, &Declaration{
		"setTimeout", "Schedules a callback to run after the given delay in milliseconds (fractional values allowed for sub-millisecond precision).",
		2, 1000,
		[]DeclarationParameter{
			DeclarationParameter{"callback", "func", "function to execute once the timeout expires"},
			DeclarationParameter{"milliseconds", "number", "milliseconds until execution"},
			DeclarationParameter{"args...", "any", "optional arguments forwarded to the callback"},
		}, "number",
		func(a ...Scmer) Scmer {
			callback := a[0]
			millis := ToFloat(a[1])
			if millis < 0 {
				millis = 0
			}
			args := append([]Scmer(nil), a[2:]...)
			id, ok := DefaultScheduler.ScheduleAfter(time.Duration(millis*float64(time.Millisecond)), func() {
				Apply(callback, args...)
			})
			if !ok {
				return false
			}
			return int64(id)
		}, nil, false,
	})
	Declare(&Globalenv, &Declaration{
		"clearTimeout", "Cancels a timeout created with setTimeout.",
		1, 1,
		[]DeclarationParameter{
			DeclarationParameter{"id", "number", "identifier returned by setTimeout"},
		}, "bool",
		func(a ...Scmer) Scmer {
			return DefaultScheduler.Clear(uint64(ToInt(a[0])))
		}, nil, false,
	})
	Declare(&Globalenv, &Declaration{
		"sleep", "pauses the current thread for the given number of seconds",
		1, 1,
		[]DeclarationParameter{
			DeclarationParameter{"seconds", "number", "seconds to sleep"},
		}, "nil",
		func(a ...Scmer) Scmer {
			time.Sleep(time.Duration(ToFloat(a[0]) * float64(time.Second)))
			return nil
		}, nil, false,
	})
	Declare(&Globalenv, &Declaration{
		"now", "returns the current unix timestamp as a float",
		0, 0,
		[]DeclarationParameter{}, "number",
		func(a ...Scmer) Scmer {
			return float64(time.Now().UnixNano()) / 1e9
		}, nil, false,
	})
}
