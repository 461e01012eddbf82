// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package mpq

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"
)

// archiveExt is the extension LoadArchives looks for, compared ignoring case.
const archiveExt = ".mpq"

type loadConfig struct {
	concurrency  int
	chainOptions []ChainOption
	logger       *slog.Logger
}

// LoadOption configures LoadArchives.
type LoadOption func(*loadConfig)

// WithConcurrency bounds how many archives are opened at once.
// Values < 1 open archives one at a time.
func WithConcurrency(n int) LoadOption {
	return func(c *loadConfig) {
		if n < 1 {
			n = 1
		}
		c.concurrency = n
	}
}

// WithChainOptions passes options to the chain LoadArchives builds.
func WithChainOptions(opts ...ChainOption) LoadOption {
	return func(c *loadConfig) {
		c.chainOptions = append(c.chainOptions, opts...)
	}
}

// WithLoadLogger sets the logger for the loader, the chain and every archive.
func WithLoadLogger(logger *slog.Logger) LoadOption {
	return func(c *loadConfig) {
		c.logger = logger
	}
}

// LoadArchives opens every MPQ archive below root and adds it to a new
// chain. Archives are added in lexical path order. If any archive fails to
// open or matches no priority, no chain is returned and the error names the
// offending path.
func LoadArchives(ctx context.Context, root string, opts ...LoadOption) (*Chain, error) {
	cfg := &loadConfig{concurrency: runtime.GOMAXPROCS(0)}
	for _, opt := range opts {
		opt(cfg)
	}
	logger := cfg.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), archiveExt) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}

	archives := make([]*Archive, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.concurrency)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			archive, err := Open(path, WithLogger(logger))
			if err != nil {
				return fmt.Errorf("failed to load MPQ archive %s: %w", path, err)
			}
			archives[i] = archive
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	chainOpts := append([]ChainOption{WithChainLogger(logger)}, cfg.chainOptions...)
	chain := NewChain(chainOpts...)
	for _, archive := range archives {
		if err := chain.AddArchive(archive); err != nil {
			return nil, fmt.Errorf("failed to load MPQ archive %s: %w", archive.Path(), err)
		}
	}

	logger.Info("loaded archives", "root", root, "archives", chain.Len())
	return chain, nil
}
