// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Mark Feghali

// Command asndb-bench times the four stages benches/general.rs timed in
// the original implementation — TSV load, snapshot save, snapshot
// reload, and single-query lookup — reporting iteration counts and
// per-op timings the way a hand-rolled benchmark harness would, since
// this module's test suite already carries the equivalent
// testing.B benchmark (pkg/database's BenchmarkQuery) for `go test
// -bench` use. This binary exists for ad-hoc runs against a real TSV
// file outside the test tree.
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
	queryIP := flag.String("ip", "51.79.162.201", "IP address to query")
	queryIters := flag.Int("query-iters", 100000, "Number of repeated queries timed in the query benchmark")
	flag.Parse()

	benchLoadTSV(*tsvPath)
	benchSaveSnapshot(*tsvPath, *binPath)
	db := benchLoadSnapshot(*binPath)
	benchQuery(db, *queryIP, *queryIters)
}

func benchLoadTSV(tsvPath string) {
	f, err := os.Open(tsvPath)
	if err != nil {
		log.Fatalf("ERROR: open TSV source: %v", err)
	}
	defer f.Close()

	start := time.Now()
	db := database.New()
	if err := db.IngestTSV(f); err != nil {
		log.Fatalf("ERROR: ingest TSV: %v", err)
	}
	elapsed := time.Since(start)
	stats := db.Stats()
	log.Printf("load from TSV: %s (%d ASNs, %d v4 ranges, %d v6 ranges)",
		elapsed, stats.ASNCount, stats.IPv4Count, stats.IPv6Count)
}

func benchSaveSnapshot(tsvPath, binPath string) {
	f, err := os.Open(tsvPath)
	if err != nil {
		log.Fatalf("ERROR: open TSV source: %v", err)
	}
	db := database.New()
	if err := db.IngestTSV(f); err != nil {
		f.Close()
		log.Fatalf("ERROR: ingest TSV: %v", err)
	}
	f.Close()

	out, err := os.Create(binPath)
	if err != nil {
		log.Fatalf("ERROR: create snapshot file: %v", err)
	}
	defer out.Close()

	start := time.Now()
	if err := db.Save(out); err != nil {
		log.Fatalf("ERROR: save snapshot: %v", err)
	}
	log.Printf("save snapshot: %s", time.Since(start))
}

func benchLoadSnapshot(binPath string) *database.Database {
	f, err := os.Open(binPath)
	if err != nil {
		log.Fatalf("ERROR: open snapshot file: %v", err)
	}
	defer f.Close()

	db := database.New()
	start := time.Now()
	if err := db.Load(f); err != nil {
		log.Fatalf("ERROR: load snapshot: %v", err)
	}
	log.Printf("load from binary file: %s", time.Since(start))
	return db
}

func benchQuery(db *database.Database, ip string, iters int) {
	start := time.Now()
	for i := 0; i < iters; i++ {
		db.Query(ip)
	}
	elapsed := time.Since(start)
	log.Printf("query IP x%d: %s total, %s/op", iters, elapsed, elapsed/time.Duration(iters))
}
