package catalog

import "testing"

func TestParseCredits_SingleInteger(t *testing.T) {
	c, err := ParseCredits("3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Lower != 3 || c.Upper != nil {
		t.Fatalf("got %+v", c)
	}
}

func TestParseCredits_Range(t *testing.T) {
	c, err := ParseCredits("1.0-3.0")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Lower != 1 || c.Upper == nil || *c.Upper != 3 {
		t.Fatalf("got %+v", c)
	}
}

func TestParseCredits_FloorsFractional(t *testing.T) {
	c, err := ParseCredits("1.9-3.9")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Lower != 1 || c.Upper == nil || *c.Upper != 3 {
		t.Fatalf("expected floored bounds, got %+v", c)
	}
}

func TestParseCredits_Empty(t *testing.T) {
	if _, err := ParseCredits(""); err == nil {
		t.Fatal("expected error for empty credits string")
	}
}
