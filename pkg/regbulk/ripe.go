// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Mark Feghali

// Package regbulk reads RIPE-style RPSL bulk whois dumps (inetnum and
// organisation objects) and turns them into stage.Record values for the
// builder's staging store. It is a trimmed adaptation of
// pkg/ripebulk/parser.go and pkg/ripebulk/database.go from the teacher
// repo: the overlap-reconciliation and HTTP-fetch machinery those
// packages carry is dropped — the builder only needs parse-and-emit —
// but the RPSL attribute-parsing loop (key: value lines,
// blank-line-terminated objects) is kept. RPSL continuation lines are
// not joined to the attribute they continue: a continuation line
// without a colon is ignored, and one with a colon is read as an
// attribute of its own.
package regbulk

import (
	"bufio"
	"fmt"
	"io"
	"net/netip"
	"strings"

	"asndb/pkg/stage"
)

// Inetnum is one parsed RIPE inetnum object.
type Inetnum struct {
	Start   netip.Addr
	End     netip.Addr
	OrgID   string
	Country string
	Descr   string
}

// Organisation is one parsed RIPE organisation object, keyed by OrgID.
type Organisation struct {
	OrgID   string
	OrgName string
}

// ParseOrganisations reads RIPE "organisation:" RPSL objects from r.
func ParseOrganisations(r io.Reader) (map[string]Organisation, error) {
	orgs := make(map[string]Organisation)
	scanner := bufio.NewScanner(r)

	var current *Organisation
	flush := func() {
		if current != nil && current.OrgID != "" {
			orgs[current.OrgID] = *current
		}
		current = nil
	}

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			flush()
			continue
		}
		if strings.HasPrefix(line, "#") || strings.HasPrefix(line, "%") {
			continue
		}
		key, value, ok := parseAttribute(line)
		if !ok {
			continue
		}
		switch key {
		case "organisation":
			flush()
			current = &Organisation{OrgID: value}
		case "org-name":
			if current != nil {
				current.OrgName = value
			}
		}
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("regbulk: scan organisations: %w", err)
	}
	return orgs, nil
}

// ParseInetnums reads RIPE "inetnum:" RPSL objects from r.
func ParseInetnums(r io.Reader) ([]Inetnum, error) {
	var inetnums []Inetnum
	scanner := bufio.NewScanner(r)

	var current *Inetnum
	flush := func() {
		if current != nil && current.Start.IsValid() && current.End.IsValid() {
			inetnums = append(inetnums, *current)
		}
		current = nil
	}

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			flush()
			continue
		}
		if strings.HasPrefix(line, "#") || strings.HasPrefix(line, "%") {
			continue
		}
		key, value, ok := parseAttribute(line)
		if !ok {
			continue
		}
		switch key {
		case "inetnum":
			flush()
			start, end, perr := parseRange(value)
			if perr != nil {
				continue
			}
			current = &Inetnum{Start: start, End: end}
		case "country":
			if current != nil {
				current.Country = value
			}
		case "descr":
			if current != nil && current.Descr == "" {
				current.Descr = value
			}
		case "org":
			if current != nil {
				current.OrgID = value
			}
		}
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("regbulk: scan inetnums: %w", err)
	}
	return inetnums, nil
}

// StageAll resolves each inetnum's org reference against orgs and writes
// the resulting stage.Records into store, tagged with source "ripebulk".
func StageAll(store *stage.Store, inetnums []Inetnum, orgs map[string]Organisation) error {
	for _, n := range inetnums {
		descr := n.Descr
		if org, ok := orgs[n.OrgID]; ok && org.OrgName != "" {
			descr = org.OrgName
		}
		rec := stage.Record{
			Start:       n.Start,
			End:         n.End,
			Country:     n.Country,
			Description: descr,
			Source:      "ripebulk",
		}
		if err := store.Put(rec); err != nil {
			return fmt.Errorf("regbulk: stage inetnum %s-%s: %w", n.Start, n.End, err)
		}
	}
	return nil
}

func parseAttribute(line string) (key, value string, ok bool) {
	idx := strings.Index(line, ":")
	if idx == -1 {
		return "", "", false
	}
	return strings.TrimSpace(line[:idx]), strings.TrimSpace(line[idx+1:]), true
}

func parseRange(s string) (start, end netip.Addr, err error) {
	parts := strings.SplitN(s, "-", 2)
	if len(parts) != 2 {
		return netip.Addr{}, netip.Addr{}, fmt.Errorf("regbulk: malformed inetnum range %q", s)
	}
	start, err = netip.ParseAddr(strings.TrimSpace(parts[0]))
	if err != nil {
		return netip.Addr{}, netip.Addr{}, fmt.Errorf("regbulk: invalid start IP: %w", err)
	}
	end, err = netip.ParseAddr(strings.TrimSpace(parts[1]))
	if err != nil {
		return netip.Addr{}, netip.Addr{}, fmt.Errorf("regbulk: invalid end IP: %w", err)
	}
	return start, end, nil
}
