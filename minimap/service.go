// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

// Package minimap assembles the world minimap from the client archives: the
// map list in Map.dbc and the tile textures named in md5translate.trs.
package minimap

import (
	"fmt"
	"log/slog"

	"github.com/suprsokr/icecap/dbc"
)

const (
	// TexturesDirectory holds the minimap tile textures.
	TexturesDirectory = `textures\Minimap`
	// TranslatePath is the index of hashed tile texture names.
	TranslatePath = TexturesDirectory + `\md5translate.trs`
	// MapDatabasePath is the client database listing every map.
	MapDatabasePath = `DBFilesClient\Map.dbc`

	// GridSize is the number of tiles along each side of a map.
	GridSize = 64
)

// FileReader reads files by archive path. *mpq.Archive and *mpq.Chain
// implement it.
type FileReader interface {
	ReadFile(name string) ([]byte, bool, error)
}

// MapRecord is a row of Map.dbc.
type MapRecord struct {
	ID           uint32              `dbc:"id,pk"`
	Directory    string              `dbc:"directory"`
	InstanceType uint32              `dbc:"instance_type"`
	MapType      uint32              `dbc:"map_type"`
	Name         dbc.LocalizedString `dbc:"name"`
}

// Position is a tile coordinate on the 64x64 map grid.
type Position struct {
	X, Y int
}

// Tile is one minimap texture.
type Tile struct {
	Position    Position
	TexturePath string
	reader      FileReader
}

// Texture reads the BLP image of the tile.
func (t *Tile) Texture() ([]byte, error) {
	data, ok, err := t.reader.ReadFile(t.TexturePath)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", t.TexturePath, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingResource, t.TexturePath)
	}
	return data, nil
}

// Map is one map with the tiles that have a texture.
type Map struct {
	ID        uint32
	Directory string
	Name      dbc.LocalizedString
	Tiles     map[Position]*Tile
}

// Minimap holds every map by ID.
type Minimap struct {
	Maps map[uint32]*Map
}

// Service builds minimaps from game data.
type Service struct {
	reader    FileReader
	logger    *slog.Logger
	translate Translate
	maps      []MapRecord
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService loads the translate file and the map database from reader.
func NewService(reader FileReader, opts ...Option) (*Service, error) {
	s := &Service{reader: reader}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}

	data, err := s.read(TranslatePath)
	if err != nil {
		return nil, err
	}
	s.translate, err = ParseTranslate(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", TranslatePath, err)
	}
	s.logger.Debug("loaded md5 translate", "directories", len(s.translate))

	data, err = s.read(MapDatabasePath)
	if err != nil {
		return nil, err
	}
	s.maps, err = dbc.Unmarshal[MapRecord](data, dbc.WithLogger(s.logger))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", MapDatabasePath, err)
	}
	s.logger.Debug("loaded map database", "maps", len(s.maps))
	return s, nil
}

func (s *Service) read(name string) ([]byte, error) {
	data, ok, err := s.reader.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingResource, name)
	}
	return data, nil
}

// Maps returns the rows of Map.dbc.
func (s *Service) Maps() []MapRecord {
	return s.maps
}

// TexturePath returns the archive path of the texture for tile (x, y) of
// the map stored in directory.
func (s *Service) TexturePath(directory string, x, y int) (string, bool) {
	hashed, ok := s.translate.Lookup(directory, fmt.Sprintf("map%d_%d.blp", x, y))
	if !ok {
		return "", false
	}
	return TexturesDirectory + `\` + hashed, true
}

// Minimap returns every map of the database with its textured tiles.
func (s *Service) Minimap() *Minimap {
	minimap := &Minimap{Maps: make(map[uint32]*Map, len(s.maps))}
	total := 0
	for _, rec := range s.maps {
		m := &Map{
			ID:        rec.ID,
			Directory: rec.Directory,
			Name:      rec.Name,
			Tiles:     make(map[Position]*Tile),
		}
		for x := range GridSize {
			for y := range GridSize {
				path, ok := s.TexturePath(rec.Directory, x, y)
				if !ok {
					continue
				}
				pos := Position{X: x, Y: y}
				m.Tiles[pos] = &Tile{Position: pos, TexturePath: path, reader: s.reader}
			}
		}
		minimap.Maps[rec.ID] = m
		total += len(m.Tiles)
		s.logger.Debug("built map", "map", rec.ID, "directory", rec.Directory, "tiles", len(m.Tiles))
	}
	s.logger.Info("built minimap", "maps", len(minimap.Maps), "tiles", total)
	return minimap
}
