package ringbuf

import "testing"

func TestPushGet(t *testing.T) {
	b := New(4)
	for i := range 4 {
		if got := b.Get(i); got != 0 {
			t.Fatalf("zero-initialized buffer Get(%d) = %v, want 0", i, got)
		}
	}

	values := []float32{1, 2, 3, 4}
	for _, v := range values {
		b.Push(v)
	}

	if got := b.Get(0); got != 4 {
		t.Fatalf("Get(0) = %v, want 4 (last pushed)", got)
	}
	want := []float32{4, 3, 2, 1}
	for i, w := range want {
		if got := b.Get(i); got != w {
			t.Fatalf("Get(%d) = %v, want %v", i, got, w)
		}
	}
}

func TestWrapAround(t *testing.T) {
	b := New(3)
	for _, v := range []float32{1, 2, 3, 4, 5} {
		b.Push(v)
	}
	want := []float32{5, 4, 3}
	for i, w := range want {
		if got := b.Get(i); got != w {
			t.Fatalf("Get(%d) = %v, want %v", i, got, w)
		}
	}
}
