package registry

import (
	"fmt"
	"sync"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

type fakeConn struct{ id string }

func (c *fakeConn) ID() string          { return c.id }
func (c *fakeConn) Send(_ []byte) error { return nil }

func conns(n int) []*fakeConn {
	out := make([]*fakeConn, n)
	for i := range out {
		out[i] = &fakeConn{id: fmt.Sprintf("c%d", i)}
	}
	return out
}

func ids(r *Registry) []string {
	var out []string
	for c := range r.All() {
		out = append(out, c.ID())
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestAdd_KeepsArrivalOrder(t *testing.T) {
	r := New()
	for _, c := range conns(3) {
		r.Add(c)
	}
	if got := ids(r); !equal(got, []string{"c0", "c1", "c2"}) {
		t.Errorf("order: got %v, want [c0 c1 c2]", got)
	}
}

func TestAdd_Duplicate(t *testing.T) {
	r := New()
	c := &fakeConn{id: "dup"}
	r.Add(c)
	r.Add(c)
	if n := r.Len(); n != 1 {
		t.Errorf("Len: got %d, want 1", n)
	}
}

func TestAdd_Nil(t *testing.T) {
	r := New()
	r.Add(nil)
	if n := r.Len(); n != 0 {
		t.Errorf("Len: got %d, want 0", n)
	}
}

// The first connection to arrive must be removable like any other.
func TestRemove_FirstArrival(t *testing.T) {
	r := New()
	cs := conns(3)
	for _, c := range cs {
		r.Add(c)
	}

	if !r.Remove(cs[0]) {
		t.Fatal("Remove(first): got false, want true")
	}
	if got := ids(r); !equal(got, []string{"c1", "c2"}) {
		t.Errorf("after remove: got %v, want [c1 c2]", got)
	}
}

func TestRemove_OnlyConnection(t *testing.T) {
	r := New()
	c := &fakeConn{id: "solo"}
	r.Add(c)
	r.Remove(c)
	if n := r.Len(); n != 0 {
		t.Errorf("Len: got %d, want 0", n)
	}
}

func TestRemove_Middle(t *testing.T) {
	r := New()
	cs := conns(3)
	for _, c := range cs {
		r.Add(c)
	}
	r.Remove(cs[1])
	if got := ids(r); !equal(got, []string{"c0", "c2"}) {
		t.Errorf("after remove: got %v, want [c0 c2]", got)
	}
}

func TestRemove_NotFoundIsNoOp(t *testing.T) {
	r := New()
	cs := conns(2)
	r.Add(cs[0])
	r.Add(cs[1])

	if r.Remove(&fakeConn{id: "c0"}) {
		t.Error("Remove(unknown with same id): got true, want false")
	}
	if r.Remove(cs[0]) != true || r.Remove(cs[0]) != false {
		t.Error("second Remove of the same connection should report false")
	}
	if got := ids(r); !equal(got, []string{"c1"}) {
		t.Errorf("after removes: got %v, want [c1]", got)
	}
}

func TestAll_Restartable(t *testing.T) {
	r := New()
	for _, c := range conns(2) {
		r.Add(c)
	}
	seq := r.All()
	var first, second []string
	for c := range seq {
		first = append(first, c.ID())
	}
	for c := range seq {
		second = append(second, c.ID())
	}
	if !equal(first, second) {
		t.Errorf("second pass: got %v, want %v", second, first)
	}
}

func TestAll_ToleratesMutationDuringIteration(t *testing.T) {
	r := New()
	cs := conns(3)
	for _, c := range cs {
		r.Add(c)
	}

	var seen []string
	for c := range r.All() {
		seen = append(seen, c.ID())
		// Removing the current entry and adding a new one must not shift the
		// iteration.
		r.Remove(c)
		r.Add(&fakeConn{id: "late-" + c.ID()})
	}
	if !equal(seen, []string{"c0", "c1", "c2"}) {
		t.Errorf("seen: got %v, want [c0 c1 c2]", seen)
	}
}

func TestAll_EarlyBreak(t *testing.T) {
	r := New()
	for _, c := range conns(3) {
		r.Add(c)
	}
	n := 0
	for range r.All() {
		n++
		break
	}
	if n != 1 {
		t.Errorf("iterations: got %d, want 1", n)
	}
}

func TestConcurrentAddRemove(t *testing.T) {
	r := New()
	cs := conns(100)
	var wg sync.WaitGroup
	for _, c := range cs {
		wg.Add(1)
		go func(c *fakeConn) {
			defer wg.Done()
			r.Add(c)
			_ = ids(r)
			r.Remove(c)
		}(c)
	}
	wg.Wait()
	if n := r.Len(); n != 0 {
		t.Errorf("Len after concurrent add/remove: got %d, want 0", n)
	}
}

// For any interleaving of connects and disconnects, iteration order equals the
// surviving subset of arrival order.
func TestRegistryStabilityProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("iteration order is surviving arrival order", prop.ForAll(
		// op >= 0 connects a new client; op < 0 disconnects the client that
		// arrived at position (-op-1) modulo arrivals so far.
		func(ops []int) bool {
			r := New()
			var arrivals []*fakeConn
			alive := make(map[*fakeConn]bool)

			for _, op := range ops {
				if op >= 0 || len(arrivals) == 0 {
					c := &fakeConn{id: fmt.Sprintf("c%d", len(arrivals))}
					arrivals = append(arrivals, c)
					alive[c] = true
					r.Add(c)
					continue
				}
				c := arrivals[(-op-1)%len(arrivals)]
				r.Remove(c)
				alive[c] = false
			}

			var want []string
			for _, c := range arrivals {
				if alive[c] {
					want = append(want, c.id)
				}
			}
			return equal(ids(r), want) && r.Len() == len(want)
		},
		gen.SliceOf(gen.IntRange(-10, 10)),
	))

	properties.TestingRun(t)
}
