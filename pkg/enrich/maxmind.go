// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Mark Feghali

// Package enrich fills in gaps left by a thin TSV source, either from a
// local MaxMind ASN database (this file) or live RDAP queries
// (rdap.go). It is a build-time collaborator only: nothing in
// pkg/database imports it, matching spec.md's framing of enrichment
// sources as external to the core (§1, §6).
//
// Adapted from pkg/sources/maxmind/maxmind.go in the teacher repo,
// trimmed to the one lookup the builder pipeline needs: the ASN and its
// organization name, given a representative IP in one of its ranges.
// No country is looked up.
package enrich

import (
	"fmt"
	"net"
	"net/netip"

	"github.com/oschwald/geoip2-golang"
)

// MaxMind wraps a MaxMind GeoLite2-ASN (or GeoIP2-ASN) database reader.
type MaxMind struct {
	asn *geoip2.Reader
}

// OpenMaxMind opens the ASN database at path.
func OpenMaxMind(path string) (*MaxMind, error) {
	r, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("enrich: open maxmind db: %w", err)
	}
	return &MaxMind{asn: r}, nil
}

// Close releases the underlying mmap'd database.
func (m *MaxMind) Close() error {
	return m.asn.Close()
}

// Lookup returns the organization name MaxMind associates with the ASN
// announcing ip's range. It is used as a fallback description when a
// TSV row's own description field is empty.
func (m *MaxMind) Lookup(ip netip.Addr) (asn uint32, org string, ok bool) {
	record, err := m.asn.ASN(net.IP(ip.AsSlice()))
	if err != nil {
		return 0, "", false
	}
	if record.AutonomousSystemNumber == 0 {
		return 0, "", false
	}
	return uint32(record.AutonomousSystemNumber), record.AutonomousSystemOrganization, true
}
