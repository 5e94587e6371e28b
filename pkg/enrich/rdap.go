// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Mark Feghali

package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/netip"
	"time"
)

// RDAPClient queries a bootstrap RDAP server for the organization name
// backing an IP address. Adapted and trimmed from
// pkg/sources/rdap/client.go in the teacher repo: the retry/backoff
// wrapper and RIR-guessing helpers are dropped (a build invoking this
// concurrently already has fetch.Pool's rate limit and concurrency cap
// in front of it, and the builder only needs the organization name, not
// RIR attribution), but the bootstrap URL, request shape, and vCard
// name extraction are kept as-is.
type RDAPClient struct {
	bootstrapURL string
	httpClient   *http.Client
	userAgent    string
}

// NewRDAPClient returns a client against bootstrapURL, or the RIPE
// bootstrap server if bootstrapURL is empty.
func NewRDAPClient(bootstrapURL, userAgent string) *RDAPClient {
	if bootstrapURL == "" {
		bootstrapURL = "https://rdap.db.ripe.net"
	}
	return &RDAPClient{
		bootstrapURL: bootstrapURL,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		userAgent:    userAgent,
	}
}

type rdapEntity struct {
	VCardArray []interface{} `json:"vcardArray"`
	Entities   []rdapEntity  `json:"entities"`
}

type rdapResponse struct {
	Name     string       `json:"name"`
	Entities []rdapEntity `json:"entities"`
}

// OrgForIP queries the RDAP server about ip and returns the best
// organization name it can extract from the response: the network
// object's own "name", falling back to the first entity vCard with a
// formatted name or organization field.
func (c *RDAPClient) OrgForIP(ctx context.Context, ip netip.Addr) (string, error) {
	url := fmt.Sprintf("%s/ip/%s", c.bootstrapURL, ip)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("enrich: build rdap request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	req.Header.Set("Accept", "application/rdap+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("enrich: rdap request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("enrich: rdap status %d: %s", resp.StatusCode, body)
	}

	var parsed rdapResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("enrich: decode rdap response: %w", err)
	}

	if parsed.Name != "" {
		return parsed.Name, nil
	}
	for _, e := range parsed.Entities {
		if name := entityName(e); name != "" {
			return name, nil
		}
	}
	return "", nil
}

func entityName(e rdapEntity) string {
	if len(e.VCardArray) >= 2 {
		if vcard, ok := e.VCardArray[1].([]interface{}); ok {
			for _, field := range vcard {
				fieldArray, ok := field.([]interface{})
				if !ok || len(fieldArray) < 4 {
					continue
				}
				name, _ := fieldArray[0].(string)
				if name != "fn" && name != "org" {
					continue
				}
				if value, ok := fieldArray[3].(string); ok && value != "" {
					return value
				}
			}
		}
	}
	for _, sub := range e.Entities {
		if name := entityName(sub); name != "" {
			return name
		}
	}
	return ""
}
