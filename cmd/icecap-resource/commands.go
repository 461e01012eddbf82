// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/spf13/pflag"

	"github.com/suprsokr/icecap/dbc"
	"github.com/suprsokr/icecap/minimap"
	"github.com/suprsokr/icecap/mpq"
)

func oneArg(args []string, what string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("expected exactly one %s, got %d arguments", what, len(args))
	}
	return args[0], nil
}

func runList(ctx context.Context, e *env, args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("unexpected argument: %s", args[0])
	}
	chain, err := e.loadChain(ctx)
	if err != nil {
		return err
	}
	names, err := chain.FileNames()
	if err != nil {
		return err
	}
	slices.SortFunc(names, func(a, b string) int {
		return strings.Compare(strings.ToLower(a), strings.ToLower(b))
	})
	for _, name := range names {
		fmt.Fprintln(e.stdout, name)
	}
	return nil
}

func runExists(ctx context.Context, e *env, args []string) error {
	name, err := oneArg(args, "file name")
	if err != nil {
		return err
	}
	chain, err := e.loadChain(ctx)
	if err != nil {
		return err
	}
	ok, err := chain.FileExists(name)
	if err != nil {
		return err
	}
	fmt.Fprintln(e.stdout, ok)
	return nil
}

func runCat(ctx context.Context, e *env, args []string) error {
	name, err := oneArg(args, "file name")
	if err != nil {
		return err
	}
	chain, err := e.loadChain(ctx)
	if err != nil {
		return err
	}
	data, ok, err := chain.ReadFile(name)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s: not found", name)
	}
	_, err = e.stdout.Write(data)
	return err
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func runInfo(_ context.Context, e *env, args []string) error {
	path, err := oneArg(args, "archive path")
	if err != nil {
		return err
	}
	archive, err := mpq.Open(path, mpq.WithLogger(e.logger))
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}

	header, err := archive.Header()
	if err != nil {
		return err
	}
	hashes, err := archive.HashTable()
	if err != nil {
		return err
	}
	blocks, err := archive.BlockTable()
	if err != nil {
		return err
	}
	names, err := archive.FileNames()
	if err != nil {
		return err
	}
	attrs, err := archive.Attributes()
	if err != nil {
		return err
	}
	sig, err := archive.Signature()
	if err != nil {
		return err
	}

	used := 0
	for _, entry := range hashes.Entries {
		if !entry.Empty() && !entry.Deleted() {
			used++
		}
	}

	w := e.stdout
	fmt.Fprintf(w, "path:            %s\n", archive.Path())
	fmt.Fprintf(w, "format version:  %d\n", header.FormatVersion)
	fmt.Fprintf(w, "header size:     %d\n", header.HeaderSize)
	fmt.Fprintf(w, "archive size:    %d\n", header.ArchiveSize)
	fmt.Fprintf(w, "sector size:     %d\n", header.SectorSize())
	fmt.Fprintf(w, "hash table:      %d/%d slots used\n", used, len(hashes.Entries))
	fmt.Fprintf(w, "block table:     %d entries\n", len(blocks.Entries))
	fmt.Fprintf(w, "listed files:    %d\n", len(names))
	fmt.Fprintf(w, "attributes:      %s\n", yesNo(attrs != nil))
	fmt.Fprintf(w, "signed:          %s\n", yesNo(sig != nil))
	return nil
}

func runDBC(ctx context.Context, e *env, args []string) error {
	var id int64
	flagSet := pflag.NewFlagSet("dbc", pflag.ContinueOnError)
	flagSet.Int64Var(&id, "id", 0, "print only the record with this primary key")
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	byID := flagSet.Changed("id")
	if byID && (id < 0 || id > math.MaxUint32) {
		return fmt.Errorf("--id %d is out of range", id)
	}
	name, err := oneArg(flagSet.Args(), "database name")
	if err != nil {
		return err
	}

	chain, err := e.loadChain(ctx)
	if err != nil {
		return err
	}
	data, ok, err := chain.ReadFile(name)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s: not found", name)
	}

	db := dbc.New(data, nil, dbc.WithLogger(e.logger))
	header, err := db.Header()
	if err != nil {
		return err
	}

	var records []dbc.Record
	if byID {
		rec, ok, err := db.Find(uint32(id))
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%s: no record with id %d", name, id)
		}
		records = []dbc.Record{rec}
	} else {
		records, err = db.Records()
		if err != nil {
			return err
		}
	}

	fmt.Fprintf(e.stdout, "# %d records, %d fields, %d bytes per record\n",
		header.RecordCount, header.FieldCount, header.RecordSize)
	for _, rec := range records {
		fields := make([]string, len(rec.Values))
		for i, v := range rec.Values {
			fields[i] = fmt.Sprint(v)
		}
		fmt.Fprintln(e.stdout, strings.Join(fields, "\t"))
	}
	return nil
}

func runMinimap(ctx context.Context, e *env, args []string) error {
	if len(args) != 0 {
		return errors.New("minimap takes no arguments")
	}
	chain, err := e.loadChain(ctx)
	if err != nil {
		return err
	}
	svc, err := minimap.NewService(chain, minimap.WithLogger(e.logger))
	if err != nil {
		return err
	}

	maps := svc.Minimap().Maps
	ids := make([]uint32, 0, len(maps))
	for id := range maps {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	for _, id := range ids {
		m := maps[id]
		fmt.Fprintf(e.stdout, "%d\t%s\t%s\t%d tiles\n", m.ID, m.Directory, m.Name[dbc.EnUS], len(m.Tiles))
	}
	return nil
}
