// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Mark Feghali

// Command asndb-build builds a binary snapshot (spec.md §4.F) from the
// spec-mandated TSV source, optionally layering in enrichment from a
// local MaxMind ASN database, a RIPE or ARIN bulk whois dump, and live
// RDAP queries. It is structured as a verb-dispatched CLI the way
// cmd/iptoasn-build in the teacher repo is.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"asndb/pkg/database"
	"asndb/pkg/enrich"
	"asndb/pkg/fetch"
	"asndb/pkg/regbulk"
	"asndb/pkg/stage"
)

const version = "1.0.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "build":
		runBuild(os.Args[2:])
	case "version":
		fmt.Printf("asndb-build version %s\n", version)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage: asndb-build <command> [options]

Commands:
  build     Parse the TSV source (and any enrichment sources) and write a snapshot
  version   Show version

Build options:
  --tsv=<path>          Primary TSV source (required)
  --out=<path>          Snapshot output path (default: ./asndb.bin)
  --maxmind-db=<path>   Optional MaxMind ASN database for description fallback
  --ripe-bulk=<path>    Optional RIPE bulk whois dump (inetnum objects) for country/description enrichment
  --ripe-org=<path>     Optional RIPE organisation dump, resolved against --ripe-bulk's org: references
  --arin-bulk=<path>    Optional ARIN bulk whois XML export for description enrichment
  --stage-dir=<path>    Staging store directory, shared by --ripe-bulk and --arin-bulk
  --rdap                Backfill remaining descriptions with live RDAP queries
  --rdap-workers=<n>    Concurrent RDAP workers (default: 4)
  --rdap-rate=<n>       Max RDAP requests per second (default: 2)

Examples:
  asndb-build build --tsv=./ip2asn-combined.tsv --out=./asndb.bin
  asndb-build build --tsv=./ip2asn-combined.tsv --ripe-bulk=./ripe.db --ripe-org=./ripe-org.db --stage-dir=./stage
  asndb-build build --tsv=./ip2asn-combined.tsv --arin-bulk=./arin.xml --rdap
`)
}

type buildConfig struct {
	tsvPath     string
	outPath     string
	maxmindDB   string
	ripeBulk    string
	ripeOrg     string
	arinBulk    string
	stageDir    string
	rdap        bool
	rdapWorkers int
	rdapRate    float64
}

func parseBuildFlags(args []string) *buildConfig {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	cfg := &buildConfig{}
	fs.StringVar(&cfg.tsvPath, "tsv", "", "Primary TSV source (required)")
	fs.StringVar(&cfg.outPath, "out", "./asndb.bin", "Snapshot output path")
	fs.StringVar(&cfg.maxmindDB, "maxmind-db", "", "Optional MaxMind ASN database")
	fs.StringVar(&cfg.ripeBulk, "ripe-bulk", "", "Optional RIPE bulk whois dump (inetnum objects)")
	fs.StringVar(&cfg.ripeOrg, "ripe-org", "", "Optional RIPE organisation dump")
	fs.StringVar(&cfg.arinBulk, "arin-bulk", "", "Optional ARIN bulk whois XML export")
	fs.StringVar(&cfg.stageDir, "stage-dir", "./asndb-stage", "Staging store directory")
	fs.BoolVar(&cfg.rdap, "rdap", false, "Backfill remaining descriptions with live RDAP queries")
	fs.IntVar(&cfg.rdapWorkers, "rdap-workers", 4, "Concurrent RDAP workers")
	fs.Float64Var(&cfg.rdapRate, "rdap-rate", 2, "Max RDAP requests per second")
	fs.Parse(args)

	if cfg.tsvPath == "" {
		fmt.Fprintln(os.Stderr, "ERROR: --tsv is required")
		fs.PrintDefaults()
		os.Exit(1)
	}
	return cfg
}

func runBuild(args []string) {
	cfg := parseBuildFlags(args)

	db := database.New()

	tsvFile, err := os.Open(cfg.tsvPath)
	if err != nil {
		log.Fatalf("ERROR: failed to open TSV source: %v", err)
	}
	if err := db.IngestTSV(tsvFile); err != nil {
		tsvFile.Close()
		log.Fatalf("ERROR: failed to ingest TSV: %v", err)
	}
	tsvFile.Close()

	if cfg.maxmindDB != "" {
		enrichWithMaxMind(db, cfg.maxmindDB)
	}
	if cfg.ripeBulk != "" || cfg.arinBulk != "" {
		enrichFromRegistryBulk(db, cfg)
	}
	if cfg.rdap {
		enrichWithRDAP(db, cfg.rdapWorkers, cfg.rdapRate)
	}

	out, err := os.Create(cfg.outPath)
	if err != nil {
		log.Fatalf("ERROR: failed to create output file: %v", err)
	}
	defer out.Close()

	if err := db.Save(out); err != nil {
		log.Fatalf("ERROR: failed to write snapshot: %v", err)
	}

	stats := db.Stats()
	log.Printf("wrote %s: %d ASNs, %d IPv4 ranges, %d IPv6 ranges",
		cfg.outPath, stats.ASNCount, stats.IPv4Count, stats.IPv6Count)
}

// enrichWithMaxMind backfills descriptions for ASNs the TSV source left
// blank. It asks MaxMind about one address already known (from the
// TSV's own ranges) to belong to each such ASN, rather than trusting
// MaxMind's own range boundaries — the core's range index stays the
// single source of truth for what ranges map to what ASN.
func enrichWithMaxMind(db *database.Database, path string) {
	mm, err := enrich.OpenMaxMind(path)
	if err != nil {
		log.Printf("WARN: skipping MaxMind enrichment: %v", err)
		return
	}
	defer mm.Close()

	targets := db.MissingDescriptions()
	var filled int
	for _, t := range targets {
		_, org, ok := mm.Lookup(t.Repr)
		if !ok || org == "" {
			continue
		}
		if db.EnrichMissingDescription(t.Repr, [2]byte{}, org) {
			filled++
		}
	}
	log.Printf("MaxMind backfilled %d/%d descriptions from %s", filled, len(targets), path)
}

// enrichFromRegistryBulk stages every configured registry bulk source
// into one staging store and then flattens it back out: the store is
// the single accumulation point for RIPE and/or ARIN data, and the
// flatten pass is the only place that touches database.Database. RIPE
// records are staged before ARIN ones; an ARIN record with the same
// start address replaces the staged RIPE record, and during flatten the
// first record to fill an ASN's gap wins (EnrichMissingDescription has
// no effect once a gap is already filled).
func enrichFromRegistryBulk(db *database.Database, cfg *buildConfig) {
	store, err := stage.Open(cfg.stageDir)
	if err != nil {
		log.Printf("WARN: failed to open staging store: %v", err)
		return
	}
	defer store.Close()

	if cfg.ripeBulk != "" {
		stageRIPEBulk(store, cfg.ripeBulk, cfg.ripeOrg)
	}
	if cfg.arinBulk != "" {
		stageARINBulk(store, cfg.arinBulk)
	}

	flattenStage(db, store)
}

// stageRIPEBulk parses a RIPE bulk whois dump of inetnum objects (and,
// if given, a companion dump of organisation objects) and writes each
// resolved record into store. It does not touch database.Database —
// flattenStage reads the staged records back out afterward.
func stageRIPEBulk(store *stage.Store, dumpPath, orgPath string) {
	dump, err := os.Open(dumpPath)
	if err != nil {
		log.Printf("WARN: skipping RIPE bulk enrichment: %v", err)
		return
	}
	defer dump.Close()

	inetnums, err := regbulk.ParseInetnums(dump)
	if err != nil {
		log.Printf("WARN: failed to parse RIPE bulk dump: %v", err)
		return
	}

	var orgs map[string]regbulk.Organisation
	if orgPath != "" {
		orgDump, err := os.Open(orgPath)
		if err != nil {
			log.Printf("WARN: skipping RIPE organisation resolution: %v", err)
		} else {
			orgs, err = regbulk.ParseOrganisations(orgDump)
			orgDump.Close()
			if err != nil {
				log.Printf("WARN: failed to parse RIPE organisation dump: %v", err)
				orgs = nil
			}
		}
	}

	if err := regbulk.StageAll(store, inetnums, orgs); err != nil {
		log.Printf("WARN: failed to stage RIPE bulk records: %v", err)
		return
	}
	log.Printf("staged %d RIPE bulk ranges (%d organisations resolved)", len(inetnums), len(orgs))
}

// stageARINBulk parses an ARIN bulk whois XML export and writes each
// net block into store. ARIN org references are already resolved
// inline by ParseARINBulk, so StageAll is given no orgs map.
func stageARINBulk(store *stage.Store, dumpPath string) {
	dump, err := os.Open(dumpPath)
	if err != nil {
		log.Printf("WARN: skipping ARIN bulk enrichment: %v", err)
		return
	}
	defer dump.Close()

	inetnums, err := regbulk.ParseARINBulk(dump)
	if err != nil {
		log.Printf("WARN: failed to parse ARIN bulk dump: %v", err)
		return
	}

	if err := regbulk.StageAll(store, inetnums, nil); err != nil {
		log.Printf("WARN: failed to stage ARIN bulk records: %v", err)
		return
	}
	log.Printf("staged %d ARIN bulk ranges", len(inetnums))
}

// flattenStage walks every record staged by stageRIPEBulk/stageARINBulk,
// in both families, and uses each one to backfill whatever ASN already
// covers that range. This is the read side of the staging round-trip:
// registry bulk objects carry no ASN number, so it can only fill gaps
// the TSV ingest left, never create a new ASN-to-range mapping.
func flattenStage(db *database.Database, store *stage.Store) {
	var staged, filled int
	walk := func(rec stage.Record) error {
		staged++
		var country [2]byte
		if len(rec.Country) == 2 {
			country[0], country[1] = rec.Country[0], rec.Country[1]
		}
		if db.EnrichMissingDescription(rec.Start, country, rec.Description) {
			filled++
		}
		return nil
	}

	if err := store.Walk(true, walk); err != nil {
		log.Printf("WARN: failed to walk staged IPv4 records: %v", err)
	}
	if err := store.Walk(false, walk); err != nil {
		log.Printf("WARN: failed to walk staged IPv6 records: %v", err)
	}
	log.Printf("flattened %d staged registry records, backfilled %d/%d ASN descriptions", staged, filled, staged)
}

// enrichWithRDAP is the last-resort enrichment pass: whatever
// descriptions MaxMind and the RIPE/ARIN bulk passes left empty are looked up live
// against a bootstrap RDAP server, with fetch.Pool bounding concurrency
// and request rate so a large build never hammers the server.
func enrichWithRDAP(db *database.Database, workers int, rateLimit float64) {
	targets := db.MissingDescriptions()
	if len(targets) == 0 {
		return
	}

	client := enrich.NewRDAPClient("", "asndb-build/1.0")
	pool := fetch.New(fetch.Config{Workers: workers, RateLimit: rateLimit, Burst: workers})

	orgs := make([]string, len(targets))
	ctx := context.Background()
	for i, t := range targets {
		i, t := i, t
		pool.Submit(ctx, i, func(ctx context.Context) error {
			org, err := client.OrgForIP(ctx, t.Repr)
			if err != nil {
				return err
			}
			orgs[i] = org
			return nil
		})
	}

	var failed, filled int
	for _, res := range pool.Wait() {
		if res.Err != nil {
			failed++
			continue
		}
		if orgs[res.Index] == "" {
			continue
		}
		if db.EnrichMissingDescription(targets[res.Index].Repr, [2]byte{}, orgs[res.Index]) {
			filled++
		}
	}
	log.Printf("RDAP backfilled %d/%d descriptions (%d lookups failed)", filled, len(targets), failed)
}
