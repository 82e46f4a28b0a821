package internal

import (
	"strings"
	"testing"
)

func match(id, source, text string, score float64) ScoredMatch {
	return ScoredMatch{
		Passage: Passage{ID: id, Source: source, Text: text},
		Score:   score,
	}
}

func TestAssembleNeverExceedsBudget(t *testing.T) {
	a, err := NewContextAssembler(120)
	if err != nil {
		t.Fatalf("new assembler: %v", err)
	}

	matches := []ScoredMatch{
		match("a", "a.txt", strings.Repeat("x", 50), 0.9),
		match("b", "b.txt", strings.Repeat("y", 50), 0.8),
		match("c", "c.txt", strings.Repeat("z", 50), 0.7),
	}

	block := a.Assemble(matches)
	if len(block.Text) > 120 {
		t.Errorf("block text %d chars exceeds budget 120", len(block.Text))
	}
}

func TestAssembleOmitsOverflowingPassageWhole(t *testing.T) {
	a, err := NewContextAssembler(100)
	if err != nil {
		t.Fatalf("new assembler: %v", err)
	}

	big := strings.Repeat("b", 200)
	matches := []ScoredMatch{
		match("big", "big.txt", big, 0.9),
		match("small", "small.txt", "fits", 0.8),
	}

	block := a.Assemble(matches)

	if strings.Contains(block.Text, "bbb") {
		t.Error("oversized passage should be omitted, not truncated into the block")
	}
	if !strings.Contains(block.Text, "fits") {
		t.Error("expected the passage within budget to be included")
	}
	for _, s := range block.Sources {
		if s == "big.txt" {
			t.Error("omitted passage must not be attributed")
		}
	}
}

func TestAssembleDeduplicatesByID(t *testing.T) {
	a, err := NewContextAssembler(1000)
	if err != nil {
		t.Fatalf("new assembler: %v", err)
	}

	matches := []ScoredMatch{
		match("dup", "doc.txt", "repeated passage", 0.9),
		match("dup", "doc.txt", "repeated passage", 0.85),
		match("other", "doc.txt", "different passage", 0.8),
	}

	block := a.Assemble(matches)
	if got := strings.Count(block.Text, "repeated passage"); got != 1 {
		t.Errorf("expected duplicate passage once, found %d times", got)
	}
}

func TestAssembleSourcesMatchIncludedPassages(t *testing.T) {
	a, err := NewContextAssembler(1000)
	if err != nil {
		t.Fatalf("new assembler: %v", err)
	}

	matches := []ScoredMatch{
		match("a", "guide.pdf", "first", 0.9),
		match("b", "faq.md", "second", 0.8),
		match("c", "guide.pdf", "third", 0.7),
	}

	block := a.Assemble(matches)

	want := []string{"faq.md", "guide.pdf"}
	if len(block.Sources) != len(want) {
		t.Fatalf("expected sources %v, got %v", want, block.Sources)
	}
	for i := range want {
		if block.Sources[i] != want[i] {
			t.Errorf("expected sources %v, got %v", want, block.Sources)
			break
		}
	}
	for _, s := range block.Sources {
		if !strings.Contains(block.Text, "[Source: "+s) {
			t.Errorf("source %q attributed but not tagged in text", s)
		}
	}
}

func TestAssembleEmptyMatches(t *testing.T) {
	a, err := NewContextAssembler(100)
	if err != nil {
		t.Fatalf("new assembler: %v", err)
	}

	block := a.Assemble(nil)
	if !block.Empty() {
		t.Errorf("expected empty block, got %q", block.Text)
	}
	if len(block.Sources) != 0 {
		t.Errorf("expected no sources, got %v", block.Sources)
	}
}

func TestNewContextAssemblerValidation(t *testing.T) {
	if _, err := NewContextAssembler(0); err == nil {
		t.Error("expected error for zero budget")
	}
	if _, err := NewContextAssembler(-5); err == nil {
		t.Error("expected error for negative budget")
	}
}
