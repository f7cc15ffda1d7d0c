package catalog

import "testing"

func TestParseGUID_WithAndWithoutHyphensAgree(t *testing.T) {
	plain := "0123456789abcdef0123456789abcdef"
	hyphenated := "01234567-89ab-cdef-0123-456789abcdef"

	a, err := ParseGUID(plain)
	if err != nil {
		t.Fatalf("parse plain: %v", err)
	}
	b, err := ParseGUID(hyphenated)
	if err != nil {
		t.Fatalf("parse hyphenated: %v", err)
	}
	if a != b {
		t.Fatalf("expected equal byte values, got %x vs %x", a, b)
	}
}

func TestParseGUID_TooShort(t *testing.T) {
	_, err := ParseGUID("0123456789abcdef")
	if err == nil {
		t.Fatal("expected error")
	}
	var ge *GUIDParseError
	if !asGUIDErr(err, &ge) || ge.Reason != "too short" {
		t.Fatalf("expected too-short error, got %v", err)
	}
}

func TestParseGUID_TooLong(t *testing.T) {
	_, err := ParseGUID("0123456789abcdef0123456789abcdef0123456789abcdef")
	if err == nil {
		t.Fatal("expected error")
	}
	var ge *GUIDParseError
	if !asGUIDErr(err, &ge) || ge.Reason != "too long" {
		t.Fatalf("expected too-long error, got %v", err)
	}
}

func TestParseGUID_InvalidCharacter(t *testing.T) {
	_, err := ParseGUID("0123456789abcdefg123456789abcdef")
	if err == nil {
		t.Fatal("expected error")
	}
	var ge *GUIDParseError
	if !asGUIDErr(err, &ge) || ge.Reason != "invalid character" {
		t.Fatalf("expected invalid-character error, got %v", err)
	}
}

func TestStripBraces(t *testing.T) {
	if got := stripBraces("{abc}"); got != "abc" {
		t.Fatalf("got %q", got)
	}
	if got := stripBraces("abc"); got != "abc" {
		t.Fatalf("got %q", got)
	}
}

func asGUIDErr(err error, target **GUIDParseError) bool {
	ge, ok := err.(*GUIDParseError)
	if !ok {
		return false
	}
	*target = ge
	return true
}
