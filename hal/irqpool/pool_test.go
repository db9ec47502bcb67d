package irqpool

import (
	"testing"

	"cmdshell-go/errcode"
)

type owner struct{ name string }

func TestSingleSlot_Exclusivity(t *testing.T) {
	p := New[uintptr, *owner](1)
	a := &owner{"a"}
	b := &owner{"b"}

	if err := p.Add(1, a); err != nil {
		t.Fatalf("first Add: %v", err)
	}
	if err := p.Add(2, b); errcode.Of(err) != errcode.TableFull {
		t.Fatalf("second Add = %v, want table_full", err)
	}
	if err := p.RemoveByOwner(a); err != nil {
		t.Fatalf("RemoveByOwner: %v", err)
	}
	if err := p.Add(2, b); err != nil {
		t.Fatalf("Add after remove: %v", err)
	}
}

func TestDuplicateHandle_Rejected(t *testing.T) {
	p := New[uintptr, *owner](4)
	a := &owner{"a"}
	b := &owner{"b"}

	if err := p.Add(7, a); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := p.Add(7, b); errcode.Of(err) != errcode.InUse {
		t.Fatalf("duplicate Add = %v, want in_use", err)
	}
}

func TestLookup(t *testing.T) {
	p := New[uintptr, *owner](4)
	a := &owner{"a"}
	b := &owner{"b"}
	p.Add(1, a)
	p.Add(2, b)

	if got, ok := p.Lookup(2); !ok || got != b {
		t.Fatalf("Lookup(2) = %v %v", got, ok)
	}
	if _, ok := p.Lookup(9); ok {
		t.Fatal("Lookup(9) should miss")
	}
}

func TestRemoveByOwner_AllLinksAndNotFound(t *testing.T) {
	p := New[uintptr, *owner](4)
	a := &owner{"a"}
	p.Add(1, a)
	p.Add(2, a)

	if err := p.RemoveByOwner(a); err != nil {
		t.Fatalf("RemoveByOwner: %v", err)
	}
	if p.Len() != 0 {
		t.Fatalf("Len = %d after remove", p.Len())
	}
	if err := p.RemoveByOwner(a); errcode.Of(err) != errcode.NotFound {
		t.Fatalf("second RemoveByOwner = %v, want not_found", err)
	}
}
