// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package mpq

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/suprsokr/icecap/internal/testutil"
)

// benchChain builds a chain of five file-backed archives with 20 files each.
func benchChain(b *testing.B) *Chain {
	b.Helper()
	dir := b.TempDir()
	names := []string{"patch-2", "patch", "expansion", "common-2", "common"}

	chain := NewChain()
	for i, name := range names {
		builder := testutil.NewArchive(b)
		for j := 0; j < 20; j++ {
			builder.Add(fmt.Sprintf("Data\\File_%c.txt", 'a'+j), []byte(fmt.Sprintf("test content %d%c", i, 'a'+j)))
		}
		path := filepath.Join(dir, name+".MPQ")
		builder.WriteFile(path)

		archive, err := Open(path)
		if err != nil {
			b.Fatal(err)
		}
		if err := chain.AddArchive(archive); err != nil {
			b.Fatal(err)
		}
	}
	return chain
}

// BenchmarkChainLookup measures lookups once the tables are cached
func BenchmarkChainLookup(b *testing.B) {
	chain := benchChain(b)
	// Load every hash and block table before timing.
	if _, err := chain.FileExists("Data\\NonExistent.txt"); err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		chain.FileExists("Data\\File_a.txt")
		chain.FileExists("Data\\File_j.txt")
		chain.FileExists("Data\\File_t.txt")
		chain.FileExists("Data\\NonExistent.txt")
	}
}

// BenchmarkChainReadFile measures resolving and decoding a file
func BenchmarkChainReadFile(b *testing.B) {
	chain := benchChain(b)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, _, err := chain.ReadFile("Data\\File_a.txt"); err != nil {
			b.Fatal(err)
		}
	}
}
