package identity

import "testing"

func TestAnonymousIdentity(t *testing.T) {
	id := Anonymous("device-42")
	if !id.IsAnonymous() {
		t.Fatal("expected anonymous identity")
	}
	if id.Subject() != "device-42" {
		t.Fatalf("unexpected subject %q", id.Subject())
	}
	if err := id.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if id.String() != "anonymous:device-42" {
		t.Fatalf("unexpected string %q", id.String())
	}
}

func TestAuthenticatedIdentity(t *testing.T) {
	id := Authenticated(" user-7 ")
	if id.IsAnonymous() {
		t.Fatal("expected authenticated identity")
	}
	if id.Subject() != "user-7" {
		t.Fatalf("expected trimmed subject, got %q", id.Subject())
	}
	if err := id.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestValidateRejectsEmptySubject(t *testing.T) {
	if err := Anonymous("  ").Validate(); err == nil {
		t.Fatal("expected error for empty subject")
	}
	var zero Identity
	if err := zero.Validate(); err == nil {
		t.Fatal("expected error for zero identity")
	}
	if !zero.IsZero() {
		t.Fatal("expected zero identity")
	}
}
