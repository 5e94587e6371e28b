// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Mark Feghali

package regbulk

import (
	"encoding/xml"
	"fmt"
	"io"
	"net/netip"
	"strings"
)

// ParseARINBulk reads an ARIN bulk whois XML export (the "net" and
// "org" elements of its `<arin>` document) and returns the same
// Inetnum shape ParseInetnums produces, so both registries feed the
// same staging path. IPv6 net elements are skipped: ARIN's bulk XML
// export predates widespread IPv6 allocation detail and the teacher's
// own ARIN parser only ever handled version "4" blocks.
//
// Adapted and trimmed from pkg/arinbulk/parser.go in the teacher repo:
// the streaming net/org/asn/poc decode loop and the leading-zero IP
// workaround are kept, but ASN and POC elements (not needed for
// inetnum-shaped enrichment) are skipped rather than decoded.
func ParseARINBulk(r io.Reader) ([]Inetnum, error) {
	decoder := xml.NewDecoder(r)

	var nets []Inetnum
	orgs := make(map[string]Organisation)

	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("regbulk: decode arin bulk xml: %w", err)
		}

		start, ok := token.(xml.StartElement)
		if !ok {
			continue
		}

		switch start.Name.Local {
		case "net":
			var net arinNetXML
			if err := decoder.DecodeElement(&net, &start); err != nil {
				return nil, fmt.Errorf("regbulk: decode arin net element: %w", err)
			}
			if net.Version != "4" {
				continue
			}
			for _, block := range net.NetBlocks.Blocks {
				inet, ok := parseARINNetBlock(net, block)
				if ok {
					nets = append(nets, inet)
				}
			}

		case "org":
			var org arinOrgXML
			if err := decoder.DecodeElement(&org, &start); err != nil {
				return nil, fmt.Errorf("regbulk: decode arin org element: %w", err)
			}
			orgs[org.Handle] = Organisation{OrgID: org.Handle, OrgName: strings.TrimSpace(org.Name)}
		}
	}

	for i, n := range nets {
		if n.Descr != "" {
			continue
		}
		if org, ok := orgs[n.OrgID]; ok && org.OrgName != "" {
			nets[i].Descr = org.OrgName
		}
	}
	return nets, nil
}

type arinNetXML struct {
	Name      string            `xml:"name"`
	OrgHandle string            `xml:"orgHandle"`
	NetBlocks arinNetBlocksXML  `xml:"netBlocks"`
	Version   string            `xml:"version"`
}

type arinNetBlocksXML struct {
	Blocks []arinNetBlockXML `xml:"netBlock"`
}

type arinNetBlockXML struct {
	StartAddress string `xml:"startAddress"`
	EndAddress   string `xml:"endAddress"`
	Description  string `xml:"description"`
}

type arinOrgXML struct {
	Handle string `xml:"handle"`
	Name   string `xml:"name"`
}

func parseARINNetBlock(net arinNetXML, block arinNetBlockXML) (Inetnum, bool) {
	start, err := netip.ParseAddr(arinStripLeadingZeros(block.StartAddress))
	if err != nil {
		return Inetnum{}, false
	}
	end, err := netip.ParseAddr(arinStripLeadingZeros(block.EndAddress))
	if err != nil {
		return Inetnum{}, false
	}
	if !start.Is4() || !end.Is4() {
		return Inetnum{}, false
	}

	descr := block.Description
	if descr == "" {
		descr = net.Name
	}

	return Inetnum{
		Start: start,
		End:   end,
		OrgID: net.OrgHandle,
		Descr: descr,
	}, true
}

// arinStripLeadingZeros removes leading zeros from each IPv4 octet:
// ARIN's bulk export writes addresses like "001.002.003.004", which
// netip.ParseAddr rejects.
func arinStripLeadingZeros(ip string) string {
	parts := strings.Split(ip, ".")
	for i, part := range parts {
		if len(part) > 1 {
			parts[i] = strings.TrimLeft(part, "0")
			if parts[i] == "" {
				parts[i] = "0"
			}
		}
	}
	return strings.Join(parts, ".")
}
