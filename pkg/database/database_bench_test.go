// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Mark Feghali

package database

import (
	"fmt"
	"strings"
	"testing"
)

func buildBenchDatabase(b *testing.B, n int) *Database {
	b.Helper()
	var sb strings.Builder
	for i := 0; i < n; i++ {
		start := i * 256
		fmt.Fprintf(&sb, "%d.%d.%d.0\t%d.%d.%d.255\t%d\tUS\tORG-%d\n",
			(start>>24)&0xFF, (start>>16)&0xFF, (start>>8)&0xFF,
			(start>>24)&0xFF, (start>>16)&0xFF, (start>>8)&0xFF,
			i%4096, i%1024)
	}
	d := New()
	if err := d.IngestTSV(strings.NewReader(sb.String())); err != nil {
		b.Fatalf("IngestTSV: %v", err)
	}
	return d
}

func BenchmarkQuery(b *testing.B) {
	d := buildBenchDatabase(b, 50000)
	ip := "128.64.32.1"

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		d.Query(ip)
	}
}
