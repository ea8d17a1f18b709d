package metrics

import (
	"sync"
	"testing"
)

func TestHistory_WrapAround(t *testing.T) {
	h := NewHistory[int](3)
	for i := 1; i <= 5; i++ {
		h.Push(i)
	}

	got := h.Last(10)
	want := []int{3, 4, 5}
	if len(got) != len(want) {
		t.Fatalf("Last() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Last() = %v, want %v", got, want)
		}
	}
	if n, _ := h.Newest(); n != 5 {
		t.Errorf("Newest() = %d, want 5", n)
	}
	if h.Len() != 3 || h.Cap() != 3 {
		t.Errorf("Len/Cap = %d/%d, want 3/3", h.Len(), h.Cap())
	}
}

func TestHistory_Last(t *testing.T) {
	h := NewHistory[string](4)
	h.Push("a")
	h.Push("b")

	tests := []struct {
		name string
		n    int
		want []string
	}{
		{"zero", 0, []string{}},
		{"negative", -1, []string{}},
		{"one", 1, []string{"b"}},
		{"more than held", 9, []string{"a", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := h.Last(tt.n)
			if len(got) != len(tt.want) {
				t.Fatalf("Last(%d) = %v, want %v", tt.n, got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Fatalf("Last(%d) = %v, want %v", tt.n, got, tt.want)
				}
			}
		})
	}
}

func TestHistory_EmptyAndClear(t *testing.T) {
	h := NewHistory[int](2)
	if _, ok := h.Newest(); ok {
		t.Error("Newest() ok on empty history")
	}
	h.Push(1)
	h.Clear()
	if h.Len() != 0 {
		t.Errorf("Len() after Clear = %d", h.Len())
	}
}

func TestNewHistory_PanicsOnZero(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("NewHistory(0) did not panic")
		}
	}()
	NewHistory[int](0)
}

func TestHistory_Concurrent(t *testing.T) {
	h := NewHistory[int](16)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				h.Push(i)
				h.Last(4)
			}
		}()
	}
	wg.Wait()
	if h.Len() != 16 {
		t.Errorf("Len() = %d, want 16", h.Len())
	}
}
