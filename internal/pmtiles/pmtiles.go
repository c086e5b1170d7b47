// Package pmtiles reads tileset metadata from PMTiles v3 archives.
//
// Only the fixed header and the JSON metadata block are decoded; tiles are
// served to clients as byte ranges of the archive and never parsed here.
//
// Format: https://github.com/protomaps/PMTiles/blob/main/spec/v3/spec.md
package pmtiles

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/paulmach/orb"
)

// Compression is the compression algorithm applied to directories,
// metadata or tiles.
type Compression uint8

const (
	UnknownCompression Compression = 0
	NoCompression      Compression = 1
	Gzip               Compression = 2
	Brotli             Compression = 3
	Zstd               Compression = 4
)

// TileType is the format of individual tile contents.
type TileType uint8

const (
	UnknownTileType TileType = 0
	Mvt             TileType = 1
	Png             TileType = 2
	Jpeg            TileType = 3
	Webp            TileType = 4
	Avif            TileType = 5
)

func (t TileType) String() string {
	switch t {
	case Mvt:
		return "mvt"
	case Png:
		return "png"
	case Jpeg:
		return "jpeg"
	case Webp:
		return "webp"
	case Avif:
		return "avif"
	}
	return "unknown"
}

// HeaderV3LenBytes is the fixed-size binary header.
const HeaderV3LenBytes = 127

// HeaderV3 is a binary header for PMTiles v3.
type HeaderV3 struct {
	SpecVersion         uint8
	RootOffset          uint64
	RootLength          uint64
	MetadataOffset      uint64
	MetadataLength      uint64
	LeafDirectoryOffset uint64
	LeafDirectoryLength uint64
	TileDataOffset      uint64
	TileDataLength      uint64
	AddressedTilesCount uint64
	TileEntriesCount    uint64
	TileContentsCount   uint64
	Clustered           bool
	InternalCompression Compression
	TileCompression     Compression
	TileType            TileType
	MinZoom             uint8
	MaxZoom             uint8
	MinLonE7            int32
	MinLatE7            int32
	MaxLonE7            int32
	MaxLatE7            int32
	CenterZoom          uint8
	CenterLonE7         int32
	CenterLatE7         int32
}

// Bound returns the tileset bounds.
func (h HeaderV3) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{fromE7(h.MinLonE7), fromE7(h.MinLatE7)},
		Max: orb.Point{fromE7(h.MaxLonE7), fromE7(h.MaxLatE7)},
	}
}

// Center returns the suggested initial map centre.
func (h HeaderV3) Center() orb.Point {
	return orb.Point{fromE7(h.CenterLonE7), fromE7(h.CenterLatE7)}
}

func fromE7(v int32) float64 { return float64(v) / 1e7 }

// DeserializeHeader parses a binary header.
func DeserializeHeader(d []byte) (HeaderV3, error) {
	h := HeaderV3{}
	if len(d) < HeaderV3LenBytes {
		return h, errors.New("buffer too small for header")
	}
	if string(d[0:7]) != "PMTiles" {
		return h, errors.New("magic number not detected")
	}
	h.SpecVersion = d[7]
	if h.SpecVersion != 3 {
		return h, fmt.Errorf("unsupported PMTiles version %d", h.SpecVersion)
	}
	h.RootOffset = binary.LittleEndian.Uint64(d[8 : 8+8])
	h.RootLength = binary.LittleEndian.Uint64(d[16 : 16+8])
	h.MetadataOffset = binary.LittleEndian.Uint64(d[24 : 24+8])
	h.MetadataLength = binary.LittleEndian.Uint64(d[32 : 32+8])
	h.LeafDirectoryOffset = binary.LittleEndian.Uint64(d[40 : 40+8])
	h.LeafDirectoryLength = binary.LittleEndian.Uint64(d[48 : 48+8])
	h.TileDataOffset = binary.LittleEndian.Uint64(d[56 : 56+8])
	h.TileDataLength = binary.LittleEndian.Uint64(d[64 : 64+8])
	h.AddressedTilesCount = binary.LittleEndian.Uint64(d[72 : 72+8])
	h.TileEntriesCount = binary.LittleEndian.Uint64(d[80 : 80+8])
	h.TileContentsCount = binary.LittleEndian.Uint64(d[88 : 88+8])
	h.Clustered = (d[96] == 0x1)
	h.InternalCompression = Compression(d[97])
	h.TileCompression = Compression(d[98])
	h.TileType = TileType(d[99])
	h.MinZoom = d[100]
	h.MaxZoom = d[101]
	h.MinLonE7 = int32(binary.LittleEndian.Uint32(d[102 : 102+4]))
	h.MinLatE7 = int32(binary.LittleEndian.Uint32(d[106 : 106+4]))
	h.MaxLonE7 = int32(binary.LittleEndian.Uint32(d[110 : 110+4]))
	h.MaxLatE7 = int32(binary.LittleEndian.Uint32(d[114 : 114+4]))
	h.CenterZoom = d[118]
	h.CenterLonE7 = int32(binary.LittleEndian.Uint32(d[119 : 119+4]))
	h.CenterLatE7 = int32(binary.LittleEndian.Uint32(d[123 : 123+4]))

	return h, nil
}

// DeserializeMetadata decodes a stored metadata block.
func DeserializeMetadata(d []byte, compression Compression) (map[string]any, error) {
	var r io.Reader = bytes.NewReader(d)
	switch compression {
	case NoCompression, UnknownCompression:
	case Gzip:
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("metadata gzip: %w", err)
		}
		defer gz.Close()
		r = gz
	default:
		return nil, errors.New("compression not supported")
	}
	var metadata map[string]any
	if err := json.NewDecoder(r).Decode(&metadata); err != nil {
		return nil, fmt.Errorf("metadata json: %w", err)
	}
	return metadata, nil
}

// Info describes a tileset.
type Info struct {
	Name         string     `json:"name,omitempty" doc:"Tileset name from metadata"`
	TileType     string     `json:"tileType" doc:"Tile format" example:"mvt"`
	MinZoom      int        `json:"minZoom" doc:"Minimum zoom level"`
	MaxZoom      int        `json:"maxZoom" doc:"Maximum zoom level"`
	Bounds       [4]float64 `json:"bounds" doc:"West, south, east, north"`
	Center       [2]float64 `json:"center" doc:"Longitude, latitude"`
	CenterZoom   int        `json:"centerZoom" doc:"Suggested initial zoom"`
	VectorLayers []string   `json:"vectorLayers,omitempty" doc:"Vector layer ids"`
}

// ReadInfo reads the header and metadata of an archive.
func ReadInfo(r io.ReaderAt) (Info, error) {
	buf := make([]byte, HeaderV3LenBytes)
	if _, err := r.ReadAt(buf, 0); err != nil {
		return Info{}, fmt.Errorf("reading header: %w", err)
	}
	h, err := DeserializeHeader(buf)
	if err != nil {
		return Info{}, err
	}

	b := h.Bound()
	c := h.Center()
	info := Info{
		TileType:   h.TileType.String(),
		MinZoom:    int(h.MinZoom),
		MaxZoom:    int(h.MaxZoom),
		Bounds:     [4]float64{b.Min.Lon(), b.Min.Lat(), b.Max.Lon(), b.Max.Lat()},
		Center:     [2]float64{c.Lon(), c.Lat()},
		CenterZoom: int(h.CenterZoom),
	}
	if h.MetadataLength == 0 {
		return info, nil
	}

	raw := make([]byte, h.MetadataLength)
	if _, err := r.ReadAt(raw, int64(h.MetadataOffset)); err != nil {
		return Info{}, fmt.Errorf("reading metadata: %w", err)
	}
	metadata, err := DeserializeMetadata(raw, h.InternalCompression)
	if err != nil {
		return Info{}, err
	}
	info.Name, _ = metadata["name"].(string)
	if layers, ok := metadata["vector_layers"].([]any); ok {
		for _, l := range layers {
			if m, ok := l.(map[string]any); ok {
				if id, ok := m["id"].(string); ok {
					info.VectorLayers = append(info.VectorLayers, id)
				}
			}
		}
	}
	return info, nil
}

// ReadFileInfo reads the tileset info of the archive at path.
func ReadFileInfo(path string) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, err
	}
	defer f.Close()
	return ReadInfo(f)
}
