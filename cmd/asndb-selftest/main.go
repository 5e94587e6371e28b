// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Mark Feghali

// Command asndb-selftest builds a small in-memory database from a TSV
// source, saves and reloads it, and runs one query, timing each step.
// It is a Go rendering of src/bin/asndb-test.rs from the original
// implementation this module's core was distilled from, structured as
// a standalone smoke test rather than a table-driven test so it can be
// pointed at a real multi-million-row TSV file outside the test suite.
package main

import (
	"flag"
	"log"
	"os"
	"time"

	"asndb/pkg/database"
)

func main() {
	tsvPath := flag.String("tsv", "./ip2asn-combined.tsv", "TSV source to load")
	binPath := flag.String("bin", "./ip_database.bin", "Scratch path for the binary snapshot")
	queryIP := flag.String("ip", "51.79.162.201", "IP address to query after reload")
	flag.Parse()

	start := time.Now()

	tsvFile, err := os.Open(*tsvPath)
	if err != nil {
		log.Fatalf("ERROR: open TSV source: %v", err)
	}
	db := database.New()
	loadStart := time.Now()
	if err := db.IngestTSV(tsvFile); err != nil {
		tsvFile.Close()
		log.Fatalf("ERROR: ingest TSV: %v", err)
	}
	tsvFile.Close()
	log.Printf("time to load TSV: %s", time.Since(loadStart))

	out, err := os.Create(*binPath)
	if err != nil {
		log.Fatalf("ERROR: create snapshot file: %v", err)
	}
	saveStart := time.Now()
	if err := db.Save(out); err != nil {
		out.Close()
		log.Fatalf("ERROR: save snapshot: %v", err)
	}
	out.Close()
	log.Printf("time to save binary file: %s", time.Since(saveStart))

	in, err := os.Open(*binPath)
	if err != nil {
		log.Fatalf("ERROR: reopen snapshot file: %v", err)
	}
	defer in.Close()
	loaded := database.New()
	reloadStart := time.Now()
	if err := loaded.Load(in); err != nil {
		log.Fatalf("ERROR: load snapshot: %v", err)
	}
	log.Printf("time to load from binary file: %s", time.Since(reloadStart))

	queryStart := time.Now()
	rec, ok := loaded.Query(*queryIP)
	log.Printf("time to query: %s", time.Since(queryStart))
	if !ok {
		log.Printf("response: not found")
	} else {
		log.Printf("response: AS%d %s %q", rec.ASN, rec.CountryString(), rec.Description)
	}

	log.Printf("total elapsed time: %s", time.Since(start))
}
