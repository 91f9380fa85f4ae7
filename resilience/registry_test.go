package resilience

import (
	"sync"
	"testing"
)

func TestRegistry_GetOrCreate(t *testing.T) {
	r := NewRegistry[*Bulkhead]()
	calls := 0
	create := func() *Bulkhead {
		calls++
		return NewBulkhead(DefaultBulkheadConfig("a"))
	}

	first := r.GetOrCreate("a", create)
	second := r.GetOrCreate("a", create)

	if first != second {
		t.Error("expected the same instance for the same name")
	}
	if calls != 1 {
		t.Errorf("expected create once, got %d", calls)
	}
	if _, ok := r.Get("b"); ok {
		t.Error("expected no instance for b")
	}
}

func TestRegistry_Concurrent(t *testing.T) {
	r := NewRegistry[int]()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r.GetOrCreate("shared", func() int { return i })
		}(i)
	}
	wg.Wait()

	if r.Len() != 1 {
		t.Errorf("expected 1 instance, got %d", r.Len())
	}
}
