package av

import "testing"

func TestFilterPushRejectsWhenClosed(t *testing.T) {
	f := &Filter{closed: true}
	if err := f.Push(&Frame{}); err == nil {
		t.Fatal("expected error pushing to closed filter")
	}
}

func TestFilterCloseIdempotent(t *testing.T) {
	f := &Filter{graph: nil, closed: true}
	f.Close()
	f.Close()
}
