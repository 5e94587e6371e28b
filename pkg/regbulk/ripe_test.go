// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Mark Feghali

package regbulk

import (
	"strings"
	"testing"

	"asndb/pkg/stage"
)

func TestParseOrganisations(t *testing.T) {
	input := "organisation: ORG-EA123-RIPE\norg-name:     Example Org\n\n"
	orgs, err := ParseOrganisations(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseOrganisations: %v", err)
	}
	org, ok := orgs["ORG-EA123-RIPE"]
	if !ok || org.OrgName != "Example Org" {
		t.Fatalf("got %+v, %v", org, ok)
	}
}

func TestParseInetnums(t *testing.T) {
	input := "inetnum:      31.90.0.0 - 31.91.255.255\ncountry:      NL\ndescr:        Example Network\norg:          ORG-EA123-RIPE\n\n"
	nets, err := ParseInetnums(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseInetnums: %v", err)
	}
	if len(nets) != 1 {
		t.Fatalf("got %d inetnums, want 1", len(nets))
	}
	n := nets[0]
	if n.Country != "NL" || n.OrgID != "ORG-EA123-RIPE" || n.Descr != "Example Network" {
		t.Fatalf("got %+v", n)
	}
}

func TestParseInetnumsSkipsMalformedRange(t *testing.T) {
	input := "inetnum:      not-a-range\ncountry:      NL\n\n"
	nets, err := ParseInetnums(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseInetnums: %v", err)
	}
	if len(nets) != 0 {
		t.Fatalf("got %d inetnums, want 0", len(nets))
	}
}

func TestStageAllResolvesOrganisation(t *testing.T) {
	inetnumInput := "inetnum:      31.90.0.0 - 31.91.255.255\ncountry:      NL\norg:          ORG-EA123-RIPE\n\n"
	nets, err := ParseInetnums(strings.NewReader(inetnumInput))
	if err != nil {
		t.Fatalf("ParseInetnums: %v", err)
	}

	orgInput := "organisation: ORG-EA123-RIPE\norg-name:     Example Org\n\n"
	orgs, err := ParseOrganisations(strings.NewReader(orgInput))
	if err != nil {
		t.Fatalf("ParseOrganisations: %v", err)
	}

	store, err := stage.Open(t.TempDir())
	if err != nil {
		t.Fatalf("stage.Open: %v", err)
	}
	defer store.Close()

	if err := StageAll(store, nets, orgs); err != nil {
		t.Fatalf("StageAll: %v", err)
	}

	var got []stage.Record
	if err := store.Walk(true, func(rec stage.Record) error {
		got = append(got, rec)
		return nil
	}); err != nil {
		t.Fatalf("Walk: %v", err)
	}
	if len(got) != 1 || got[0].Description != "Example Org" {
		t.Fatalf("got %+v, want description %q resolved from org-name", got, "Example Org")
	}
}

func TestStageAllFallsBackToDescrWithoutOrgMatch(t *testing.T) {
	inetnumInput := "inetnum:      31.90.0.0 - 31.91.255.255\ncountry:      NL\ndescr:        Example Network\norg:          ORG-UNKNOWN\n\n"
	nets, err := ParseInetnums(strings.NewReader(inetnumInput))
	if err != nil {
		t.Fatalf("ParseInetnums: %v", err)
	}

	store, err := stage.Open(t.TempDir())
	if err != nil {
		t.Fatalf("stage.Open: %v", err)
	}
	defer store.Close()

	if err := StageAll(store, nets, nil); err != nil {
		t.Fatalf("StageAll: %v", err)
	}

	var got []stage.Record
	if err := store.Walk(true, func(rec stage.Record) error {
		got = append(got, rec)
		return nil
	}); err != nil {
		t.Fatalf("Walk: %v", err)
	}
	if len(got) != 1 || got[0].Description != "Example Network" {
		t.Fatalf("got %+v, want description %q", got, "Example Network")
	}
}
