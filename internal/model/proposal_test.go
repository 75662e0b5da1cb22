package model

import "testing"

func TestNewProposalTrimsTitle(t *testing.T) {
	p := NewProposal("SE-0001", "0001-a.md", "  Foo \t", Status{State: StateAccepted})
	if p.Title != "Foo" {
		t.Errorf("Title = %q, want %q", p.Title, "Foo")
	}
}

func TestUpdateKeepsIdentity(t *testing.T) {
	p := NewProposal("SE-0001", "0001-a.md", "Foo", Status{State: StateActiveReview})

	p.Update(NewProposal("SE-0001", "0001-b.md", " Bar ", Status{State: StateAccepted, Version: "6.2"}))
	if p.ID != "SE-0001" {
		t.Errorf("ID = %q, want %q", p.ID, "SE-0001")
	}
	if p.Link != "0001-b.md" || p.Title != "Bar" || p.Status.State != StateAccepted {
		t.Errorf("update not applied: %+v", p)
	}

	// A snapshot with a different identity must be ignored.
	p.Update(NewProposal("SE-0002", "0002.md", "Other", Status{State: StateRejected}))
	if p.ID != "SE-0001" || p.Link != "0001-b.md" {
		t.Errorf("update with mismatched id applied: %+v", p)
	}
}
