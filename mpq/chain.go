// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package mpq

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
)

// DefaultPriorities orders the archives of a World of Warcraft client
// installation, highest priority first. A pattern matches an archive when
// it occurs anywhere in the archive path, ignoring case.
var DefaultPriorities = []string{
	"patch-3",
	"patch-2",
	"patch",
	"lichking",
	"expansion",
	"locale",
	"speech",
	"base",
	"common-2",
	"common",
	"backup",
}

// Reader is the part of an archive a Chain needs. *Archive implements it.
type Reader interface {
	Path() string
	FileExists(name string) (bool, error)
	ReadFile(name string) ([]byte, bool, error)
}

// fileLister is implemented by readers that expose their listfile.
type fileLister interface {
	FileNames() ([]string, error)
}

// Chain resolves file names across several archives, preferring archives
// whose path matches an earlier priority pattern.
//
// A Chain does not own its readers and never closes them. It is not safe
// for concurrent use.
type Chain struct {
	priorities []string
	buckets    [][]Reader
	members    map[string]int // cleaned archive path -> bucket
	logger     *slog.Logger
}

// ChainOption configures a Chain.
type ChainOption func(*Chain)

// WithPriorities replaces DefaultPriorities.
func WithPriorities(patterns []string) ChainOption {
	return func(c *Chain) {
		c.priorities = patterns
	}
}

// WithChainLogger sets the logger used for debug output.
func WithChainLogger(logger *slog.Logger) ChainOption {
	return func(c *Chain) {
		c.logger = logger
	}
}

// NewChain returns an empty chain.
func NewChain(opts ...ChainOption) *Chain {
	c := &Chain{priorities: DefaultPriorities}
	for _, opt := range opts {
		opt(c)
	}

	lowered := make([]string, len(c.priorities))
	for i, p := range c.priorities {
		lowered[i] = strings.ToLower(p)
	}
	c.priorities = lowered
	c.buckets = make([][]Reader, len(lowered))
	c.members = make(map[string]int)
	return c
}

// log returns the logger, falling back to a discard logger if nil.
func (c *Chain) log() *slog.Logger {
	if c.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.logger
}

// Priorities returns the lowercased priority patterns in order.
func (c *Chain) Priorities() []string {
	return c.priorities
}

// priorityOf returns the index of the first pattern found in path.
func (c *Chain) priorityOf(path string) (int, bool) {
	lower := strings.ToLower(path)
	for i, pattern := range c.priorities {
		if strings.Contains(lower, pattern) {
			return i, true
		}
	}
	return 0, false
}

// AddArchive inserts r into the bucket of the first matching priority
// pattern. Adding an archive whose path is already in the chain is a no-op.
func (c *Chain) AddArchive(r Reader) error {
	key := filepath.Clean(r.Path())
	if _, ok := c.members[key]; ok {
		return nil
	}

	priority, ok := c.priorityOf(r.Path())
	if !ok {
		return fmt.Errorf("%w for archive %s", ErrNoPriority, r.Path())
	}

	c.buckets[priority] = append(c.buckets[priority], r)
	c.members[key] = priority
	c.log().Debug("added archive to chain",
		"archive", r.Path(),
		"priority", priority,
		"pattern", c.priorities[priority])
	return nil
}

// Archives returns the readers in lookup order.
func (c *Chain) Archives() []Reader {
	var readers []Reader
	for _, bucket := range c.buckets {
		readers = append(readers, bucket...)
	}
	return readers
}

// Len returns the number of archives in the chain.
func (c *Chain) Len() int {
	return len(c.members)
}

// find returns the highest-priority reader holding name.
func (c *Chain) find(name string) (Reader, error) {
	for _, bucket := range c.buckets {
		for _, r := range bucket {
			ok, err := r.FileExists(name)
			if err != nil {
				return nil, fmt.Errorf("archive %s: %w", r.Path(), err)
			}
			if ok {
				return r, nil
			}
		}
	}
	return nil, nil
}

// FileExists reports whether any archive in the chain holds name.
func (c *Chain) FileExists(name string) (bool, error) {
	r, err := c.find(name)
	return r != nil, err
}

// ReadFile returns name from the highest-priority archive that holds it.
// The boolean is false when no archive in the chain has the file.
func (c *Chain) ReadFile(name string) ([]byte, bool, error) {
	r, err := c.find(name)
	if err != nil || r == nil {
		return nil, false, err
	}
	c.log().Debug("resolved file", "file", name, "archive", r.Path())
	data, ok, err := r.ReadFile(name)
	if err != nil {
		return nil, false, fmt.Errorf("archive %s: %w", r.Path(), err)
	}
	return data, ok, nil
}

// FileNames returns the union of all listfiles in the chain. Names are
// compared ignoring case and slash direction; the first spelling seen wins.
func (c *Chain) FileNames() ([]string, error) {
	seen := make(map[string]struct{})
	var result []string
	for _, r := range c.Archives() {
		lister, ok := r.(fileLister)
		if !ok {
			continue
		}
		files, err := lister.FileNames()
		if err != nil {
			return nil, fmt.Errorf("archive %s: %w", r.Path(), err)
		}
		for _, file := range files {
			key := strings.ToUpper(strings.ReplaceAll(file, "/", "\\"))
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			result = append(result, file)
		}
	}
	return result, nil
}
