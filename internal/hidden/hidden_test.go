package hidden

import "testing"

func TestContains(t *testing.T) {
	if Contains("plain text") {
		t.Fatalf("plain text should not contain hidden span")
	}
	if !Contains("a [HIDDEN]secret[/HIDDEN] b") {
		t.Fatalf("expected hidden span detected")
	}
	if Contains("a [HIDDEN]unterminated") {
		t.Fatalf("unterminated marker is not a span")
	}
}

func TestParseSingleSpan(t *testing.T) {
	visible, hiddenText := Parse("intro [HIDDEN]answer key[/HIDDEN] outro")
	if visible != "intro "+Placeholder+" outro" {
		t.Fatalf("unexpected visible text %q", visible)
	}
	if hiddenText != "answer key" {
		t.Fatalf("unexpected hidden text %q", hiddenText)
	}
}

func TestParseMultipleSpansJoinedInOrder(t *testing.T) {
	visible, hiddenText := Parse("[HIDDEN]first[/HIDDEN] mid [HIDDEN]second[/HIDDEN]")
	if visible != Placeholder+" mid "+Placeholder {
		t.Fatalf("unexpected visible text %q", visible)
	}
	if hiddenText != "first\n\nsecond" {
		t.Fatalf("unexpected hidden text %q", hiddenText)
	}
}

func TestParseWithoutMarkers(t *testing.T) {
	visible, hiddenText := Parse("nothing to hide")
	if visible != "nothing to hide" || hiddenText != "" {
		t.Fatalf("unexpected result %q %q", visible, hiddenText)
	}
}

func TestParseUnterminatedMarkerIsLiteral(t *testing.T) {
	visible, hiddenText := Parse("a [HIDDEN]oops")
	if visible != "a [HIDDEN]oops" || hiddenText != "" {
		t.Fatalf("unexpected result %q %q", visible, hiddenText)
	}
}
