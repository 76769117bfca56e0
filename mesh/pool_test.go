// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package mesh

import (
	"testing"
)

func TestArena_AllocSequential(t *testing.T) {
	var a arena[int]
	for want := 0; want < 5; want++ {
		i, p := a.alloc()
		if i != want {
			t.Errorf("alloc() index = %v, want %v", i, want)
		}
		*p = want * 10
	}
	if a.liveCount() != 5 {
		t.Errorf("liveCount() = %v, want 5", a.liveCount())
	}
	for i := 0; i < 5; i++ {
		if *a.at(i) != i*10 {
			t.Errorf("at(%v) = %v, want %v", i, *a.at(i), i*10)
		}
	}
}

func TestArena_RecycleBumpsGeneration(t *testing.T) {
	var a arena[int]
	i, p := a.alloc()
	*p = 42
	g0 := a.gen(i)

	a.dealloc(i)
	if !a.isDead(i) {
		t.Fatalf("isDead(%v) = false after dealloc", i)
	}

	j, q := a.alloc()
	if j != i {
		t.Fatalf("alloc() after dealloc = %v, want recycled slot %v", j, i)
	}
	if a.isDead(j) {
		t.Errorf("isDead(%v) = true after realloc", j)
	}
	if a.gen(j) != g0+1 {
		t.Errorf("gen(%v) = %v, want %v", j, a.gen(j), g0+1)
	}
	if *q != 0 {
		t.Errorf("recycled item = %v, want zeroed", *q)
	}
}

func TestArena_DoubleFreePanics(t *testing.T) {
	var a arena[int]
	i, _ := a.alloc()
	a.dealloc(i)

	defer func() {
		if recover() == nil {
			t.Error("dealloc of a dead slot did not panic")
		}
	}()
	a.dealloc(i)
}

func TestArena_LenCountsTombstones(t *testing.T) {
	var a arena[int]
	for i := 0; i < 4; i++ {
		a.alloc()
	}
	a.dealloc(1)
	a.dealloc(2)
	if a.len() != 4 {
		t.Errorf("len() = %v, want 4", a.len())
	}
	if a.liveCount() != 2 {
		t.Errorf("liveCount() = %v, want 2", a.liveCount())
	}
}
