// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Mark Feghali

package tsvingest

import (
	"strings"
	"testing"
)

type collectingSink struct {
	rows []Row
}

func (c *collectingSink) IngestRow(r Row) {
	c.rows = append(c.rows, r)
}

func TestIngestWellFormedRows(t *testing.T) {
	input := "1.0.0.0\t1.0.0.255\t13335\tUS\tCLOUDFLARENET\n"
	sink := &collectingSink{}
	if err := Ingest(strings.NewReader(input), sink); err != nil {
		t.Fatalf("Ingest error: %v", err)
	}
	if len(sink.rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(sink.rows))
	}
	r := sink.rows[0]
	if r.ASN != 13335 || r.Description != "CLOUDFLARENET" || r.Country != [2]byte{'U', 'S'} {
		t.Fatalf("got %+v", r)
	}
}

func TestIngestSkipsMalformedLine(t *testing.T) {
	input := "garbage\n"
	sink := &collectingSink{}
	if err := Ingest(strings.NewReader(input), sink); err != nil {
		t.Fatalf("Ingest error: %v", err)
	}
	if len(sink.rows) != 0 {
		t.Fatalf("got %d rows, want 0", len(sink.rows))
	}
}

func TestIngestTrailingEmptyLineTolerated(t *testing.T) {
	input := "2.0.0.0\t2.0.0.10\t100\tUS\tDESC\n\n"
	sink := &collectingSink{}
	if err := Ingest(strings.NewReader(input), sink); err != nil {
		t.Fatalf("Ingest error: %v", err)
	}
	if len(sink.rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(sink.rows))
	}
}

func TestIngestSkipsMixedFamily(t *testing.T) {
	input := "1.0.0.0\t::1\t100\tUS\tDESC\n"
	sink := &collectingSink{}
	if err := Ingest(strings.NewReader(input), sink); err != nil {
		t.Fatalf("Ingest error: %v", err)
	}
	if len(sink.rows) != 0 {
		t.Fatalf("got %d rows, want 0", len(sink.rows))
	}
}

func TestIngestShortCountryFieldZeroesTag(t *testing.T) {
	input := "3.0.0.0\t3.0.0.10\t200\tU\tDESC\n"
	sink := &collectingSink{}
	if err := Ingest(strings.NewReader(input), sink); err != nil {
		t.Fatalf("Ingest error: %v", err)
	}
	if len(sink.rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(sink.rows))
	}
	if sink.rows[0].Country != ([2]byte{}) {
		t.Fatalf("expected zeroed country tag, got %v", sink.rows[0].Country)
	}
}

func TestIngestMissingDescriptionSkipped(t *testing.T) {
	input := "4.0.0.0\t4.0.0.10\t300\tUS\n"
	sink := &collectingSink{}
	if err := Ingest(strings.NewReader(input), sink); err != nil {
		t.Fatalf("Ingest error: %v", err)
	}
	if len(sink.rows) != 0 {
		t.Fatalf("got %d rows, want 0", len(sink.rows))
	}
}
