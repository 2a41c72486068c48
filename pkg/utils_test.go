package pkg_test

import (
	"testing"

	. "github.com/tabulo/tabulo/pkg"
)

func TestFilter(t *testing.T) {
	res := Filter([]int{1, 2, 3, 4, 5, 6}, func(i int) bool {
		return i%2 == 0
	})

	if len(res) != 3 {
		t.Errorf("Expected 3, got %d", len(res))
	}

	if res[0] != 2 || res[1] != 4 || res[2] != 6 {
		t.Errorf("Expected 2, 4, 6, got %d, %d, %d", res[0], res[1], res[2])
	}
}

func TestNumToInt(t *testing.T) {
	if NumToInt(1) != 1 {
		t.Errorf("Expected 1, got %d", NumToInt(1))
	}

	if NumToInt(1.1) != 1 {
		t.Errorf("Expected 1, got %d", NumToInt(1.1))
	}
}

func TestInsertSortMap(t *testing.T) {
	m := NewInsertSortMap[string, int]()
	m.Push("b", 2)
	m.Push("a", 1)
	m.Push("b", 3)

	if m.Len() != 2 {
		t.Errorf("Expected 2 keys, got %d", m.Len())
	}

	if m.Sorted[0] != "b" || m.Sorted[1] != "a" {
		t.Errorf("Expected insertion order b, a, got %v", m.Sorted)
	}

	if m.Get("b") != 3 {
		t.Errorf("Expected pushed key to be overwritten, got %d", m.Get("b"))
	}

	m.Delete("b")
	if m.Len() != 1 || m.Sorted[0] != "a" {
		t.Errorf("Expected only a after delete, got %v", m.Sorted)
	}
}
