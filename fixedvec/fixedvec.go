/*
 *
 * Copyright 2026 the hostipc authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 *
 */

// Package fixedvec provides a bounded, trivially copyable dynamic array for
// use in structures that cross a process boundary by raw byte copy.
//
// The element type may not contain pointers in any form (pointers, slices,
// maps, strings, channels, functions, interfaces): a pointer copied into
// another address space is garbage. The constraint is checked once at
// construction and violated construction panics.
//
// Capacity is fixed for the vector's lifetime and every capacity- or
// bounds-violating operation panics rather than returning an error. The
// container exists for statically sized, pre-validated shared-memory
// bookkeeping where exceeding capacity is a configuration bug, not a runtime
// condition to recover from; keeping the mutating operations infallible
// keeps their call sites branch-free.
package fixedvec

import (
	"fmt"
	"reflect"
	"sync"
)

// Vector is a fixed-capacity array with a separate logical size. The zero
// value is not usable; construct with New, FromBacking or Of.
type Vector[T any] struct {
	items []T // backing storage; len(items) is the capacity, never resized
	size  int
}

var (
	copyableMu    sync.Mutex
	copyableCache = map[reflect.Type]bool{}
)

// checkCopyable panics unless T is trivially copyable across address spaces.
func checkCopyable[T any]() {
	var zero T
	t := reflect.TypeOf(zero)
	if t == nil {
		contractViolation("element type is an interface")
	}
	copyableMu.Lock()
	ok, seen := copyableCache[t]
	if !seen {
		ok = isCopyable(t)
		copyableCache[t] = ok
	}
	copyableMu.Unlock()
	if !ok {
		contractViolation("element type %s contains pointer-like members", t)
	}
}

func isCopyable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return true
	case reflect.Array:
		return isCopyable(t.Elem())
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if !isCopyable(t.Field(i).Type) {
				return false
			}
		}
		return true
	default:
		// Ptr, Slice, Map, String, Chan, Func, Interface, UnsafePointer.
		return false
	}
}

// New returns an empty vector with the given fixed capacity.
func New[T any](capacity int) *Vector[T] {
	checkCopyable[T]()
	if capacity <= 0 {
		contractViolation("capacity %d must be positive", capacity)
	}
	return &Vector[T]{items: make([]T, capacity)}
}

// FromBacking returns a vector viewing caller-supplied storage, typically a
// span of mapped shared memory. The capacity is len(backing); size is the
// current logical length within it.
func FromBacking[T any](backing []T, size int) *Vector[T] {
	checkCopyable[T]()
	if len(backing) == 0 {
		contractViolation("empty backing storage")
	}
	if size < 0 || size > len(backing) {
		contractViolation("size %d outside backing capacity %d", size, len(backing))
	}
	return &Vector[T]{items: backing, size: size}
}

// Of returns a vector of the given capacity holding vals. Construction from
// more values than the capacity admits panics.
func Of[T any](capacity int, vals ...T) *Vector[T] {
	v := New[T](capacity)
	v.Assign(vals...)
	return v
}

// Size returns the logical length.
func (v *Vector[T]) Size() int { return v.size }

// MaxSize returns the fixed capacity.
func (v *Vector[T]) MaxSize() int { return len(v.items) }

// Empty reports whether the vector holds no elements.
func (v *Vector[T]) Empty() bool { return v.size == 0 }

// Full reports whether the vector is at capacity.
func (v *Vector[T]) Full() bool { return v.size == len(v.items) }

// Items returns the live elements as a view into the backing storage.
func (v *Vector[T]) Items() []T { return v.items[:v.size] }

// At returns the element at index i. Access at or past Size panics.
func (v *Vector[T]) At(i int) T {
	v.checkIndex(i)
	return v.items[i]
}

// Set overwrites the element at index i.
func (v *Vector[T]) Set(i int, val T) {
	v.checkIndex(i)
	v.items[i] = val
}

// Front returns the first element. Panics on an empty vector.
func (v *Vector[T]) Front() T {
	v.checkNonEmpty()
	return v.items[0]
}

// Back returns the last element. Panics on an empty vector.
func (v *Vector[T]) Back() T {
	v.checkNonEmpty()
	return v.items[v.size-1]
}

// PushBack appends val. Panics when the vector is full.
func (v *Vector[T]) PushBack(val T) {
	if v.Full() {
		contractViolation("push on full vector of capacity %d", len(v.items))
	}
	v.items[v.size] = val
	v.size++
}

// PopBack removes and returns the last element. Panics on an empty vector.
func (v *Vector[T]) PopBack() T {
	v.checkNonEmpty()
	v.size--
	return v.items[v.size]
}

// Insert places val before index i, shifting the tail right. i == Size
// appends. Panics when full or i is out of range.
func (v *Vector[T]) Insert(i int, val T) {
	if v.Full() {
		contractViolation("insert on full vector of capacity %d", len(v.items))
	}
	if i < 0 || i > v.size {
		contractViolation("insert index %d outside size %d", i, v.size)
	}
	copy(v.items[i+1:v.size+1], v.items[i:v.size])
	v.items[i] = val
	v.size++
}

// Erase removes the element at index i, shifting the tail left.
func (v *Vector[T]) Erase(i int) {
	v.checkIndex(i)
	copy(v.items[i:], v.items[i+1:v.size])
	v.size--
}

// Resize sets the logical size to n. Growth zero-fills the new elements.
// Panics when n exceeds the capacity.
func (v *Vector[T]) Resize(n int) {
	if n < 0 || n > len(v.items) {
		contractViolation("resize to %d outside capacity %d", n, len(v.items))
	}
	var zero T
	for i := v.size; i < n; i++ {
		v.items[i] = zero
	}
	v.size = n
}

// Assign replaces the contents with vals. Panics when vals exceed the
// capacity.
func (v *Vector[T]) Assign(vals ...T) {
	if len(vals) > len(v.items) {
		contractViolation("assign of %d elements exceeds capacity %d", len(vals), len(v.items))
	}
	copy(v.items, vals)
	v.size = len(vals)
}

// Clear resets the logical size to zero.
func (v *Vector[T]) Clear() { v.size = 0 }

// CopyFrom replaces the contents with src's, which may have a different
// capacity. The transfer is a single bulk element copy followed by a size
// update; element-wise construction is unnecessary because T is trivially
// copyable. Panics when src's size exceeds this vector's capacity.
func (v *Vector[T]) CopyFrom(src *Vector[T]) {
	if src.size > len(v.items) {
		contractViolation("copy of %d elements exceeds capacity %d", src.size, len(v.items))
	}
	copy(v.items, src.items[:src.size])
	v.size = src.size
}

func (v *Vector[T]) checkIndex(i int) {
	if i < 0 || i >= v.size {
		contractViolation("index %d outside size %d", i, v.size)
	}
}

func (v *Vector[T]) checkNonEmpty() {
	if v.size == 0 {
		contractViolation("access on empty vector")
	}
}

// contractViolation is the single escalation point for capacity and bounds
// violations.
func contractViolation(format string, args ...any) {
	panic(fmt.Sprintf("fixedvec: "+format, args...))
}
