// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Mark Feghali

// Command asndb-lookup loads a binary snapshot and answers one query,
// the way cmd/iporg-lookup in the teacher repo loads a LevelDB database
// and answers one query.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"asndb/pkg/database"
)

const version = "1.0.0"

type jsonResult struct {
	ASN         uint32 `json:"asn"`
	Country     string `json:"country"`
	Description string `json:"description"`
}

func main() {
	dbPath := flag.String("db", "./asndb.bin", "Path to binary snapshot")
	jsonOutput := flag.Bool("json", true, "Output as JSON")
	showVersion := flag.Bool("version", false, "Show version")
	flag.Parse()

	if *showVersion {
		fmt.Printf("asndb-lookup version %s\n", version)
		return
	}

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: asndb-lookup [options] <ip-address>\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  asndb-lookup 8.8.8.8\n")
		fmt.Fprintf(os.Stderr, "  asndb-lookup --db=/data/asndb.bin 2001:4860:4860::8888\n")
		os.Exit(1)
	}

	ipStr := flag.Arg(0)

	f, err := os.Open(*dbPath)
	if err != nil {
		log.Fatalf("ERROR: failed to open snapshot: %v", err)
	}
	defer f.Close()

	db := database.New()
	if err := db.Load(f); err != nil {
		log.Fatalf("ERROR: failed to load snapshot: %v", err)
	}

	rec, ok := db.Query(ipStr)
	if !ok {
		if *jsonOutput {
			fmt.Printf("{\"error\":\"IP not found\",\"ip\":\"%s\"}\n", ipStr)
		} else {
			fmt.Printf("IP %s not found\n", ipStr)
		}
		os.Exit(1)
	}

	result := jsonResult{ASN: rec.ASN, Country: rec.CountryString(), Description: rec.Description}

	if *jsonOutput {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			log.Fatalf("ERROR: failed to marshal JSON: %v", err)
		}
		fmt.Println(string(data))
		return
	}

	fmt.Printf("IP Address:   %s\n", ipStr)
	fmt.Printf("ASN:          AS%d\n", result.ASN)
	fmt.Printf("Country:      %s\n", result.Country)
	fmt.Printf("Description:  %s\n", result.Description)
}
