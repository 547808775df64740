package utils

import (
	"testing"
)

func TestRandomIndex_Bounds(t *testing.T) {
	for _, n := range []int{1, 2, 9, 100} {
		for i := 0; i < 50; i++ {
			idx := RandomIndex(n)
			if idx < 0 || idx >= n {
				t.Fatalf("RandomIndex(%d) = %d, out of range", n, idx)
			}
		}
	}
}

func TestPickInt64_SingleElement(t *testing.T) {
	if got := PickInt64([]int64{42}); got != 42 {
		t.Errorf("PickInt64 = %d, want 42", got)
	}
}

func TestPickInt64_Member(t *testing.T) {
	ids := []int64{10, 20, 30}
	for i := 0; i < 30; i++ {
		got := PickInt64(ids)
		if got != 10 && got != 20 && got != 30 {
			t.Fatalf("PickInt64 returned %d, not a member", got)
		}
	}
}
