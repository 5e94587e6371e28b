// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Mark Feghali

package stringpool

import "testing"

func TestPackDedup(t *testing.T) {
	p := New()

	tok1 := p.Pack("CLOUDFLARENET")
	tok2 := p.Pack("CLOUDFLARENET")

	if tok1 != tok2 {
		t.Fatalf("expected identical token for repeated string, got %v and %v", tok1, tok2)
	}
	if len(p.Save()) != len("CLOUDFLARENET") {
		t.Fatalf("expected pool to contain the string exactly once, got %d bytes", len(p.Save()))
	}
}

func TestPackUnpackRoundTrip(t *testing.T) {
	p := New()

	tokA := p.Pack("DESC-A")
	tokB := p.Pack("DESC-B")

	if got := p.Unpack(tokA); got != "DESC-A" {
		t.Fatalf("got %q, want DESC-A", got)
	}
	if got := p.Unpack(tokB); got != "DESC-B" {
		t.Fatalf("got %q, want DESC-B", got)
	}
}

func TestLoadUnpackOnly(t *testing.T) {
	p := New()
	p.Pack("HELLO")
	saved := p.Save()

	reloaded := Load(saved)
	tok := encodeToken(0, 5)
	if got := reloaded.Unpack(tok); got != "HELLO" {
		t.Fatalf("got %q, want HELLO", got)
	}
}

func TestUnpackOutOfBounds(t *testing.T) {
	p := Load([]byte("short"))
	tok := encodeToken(0, 100)
	if got := p.Unpack(tok); got != "" {
		t.Fatalf("expected empty string for out-of-bounds token, got %q", got)
	}
}
