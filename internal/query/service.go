// Package query answers tile and point requests for the network transports
// and records each one in the query log.
package query

import (
	"fmt"
	"math"
	"time"

	plog "terrainforge.ai/internal/persistence/log"
	"terrainforge.ai/internal/persistence/tilefile"
	"terrainforge.ai/internal/protocol"
	"terrainforge.ai/internal/terrain/gen"
)

// Logger receives one entry per served query. *plog.QueryLogger satisfies it.
type Logger interface {
	WriteQuery(plog.QueryLogEntry) error
}

// RequestError carries a protocol error code back to the transport.
type RequestError struct {
	Code    string
	Message string
}

func (e *RequestError) Error() string { return e.Code + ": " + e.Message }

type Service struct {
	gen    *gen.Generator
	preset string
	qlog   Logger
	now    func() time.Time
}

// New wraps a generator. qlog may be nil.
func New(g *gen.Generator, preset string, qlog Logger) *Service {
	return &Service{gen: g, preset: preset, qlog: qlog, now: time.Now}
}

func (s *Service) Generator() *gen.Generator { return s.gen }

func (s *Service) WorldParams() protocol.WorldParams {
	return protocol.NewWorldParams(s.gen.Config(), s.preset)
}

// Origin tags a query with where it came from.
type Origin struct {
	Transport string
	Session   string
}

func checkCoord(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return &RequestError{Code: protocol.ErrOutOfRange, Message: fmt.Sprintf("%s must be finite", name)}
	}
	return nil
}

// MaxTileCoord bounds tile coordinates accepted from the wire. Tile seeds
// fold coordinates to 32 bits, so larger ids would only alias.
const MaxTileCoord = math.MaxInt32

func checkTile(name string, v int) error {
	if v > MaxTileCoord || v < -MaxTileCoord {
		return &RequestError{Code: protocol.ErrOutOfRange, Message: fmt.Sprintf("%s must be within ±%d", name, MaxTileCoord)}
	}
	return nil
}

func (s *Service) Height(o Origin, x, z float64) (float64, error) {
	start := s.now()
	err := firstErr(checkCoord("x", x), checkCoord("z", z))
	var h float64
	if err == nil {
		h = s.gen.HeightAt(x, z)
	}
	s.record(o, plog.QueryLogEntry{Kind: "height", X: x, Z: z}, start, err)
	return h, err
}

func (s *Service) Point(o Origin, reqID string, x, z float64) (protocol.PointMsg, error) {
	start := s.now()
	err := firstErr(checkCoord("x", x), checkCoord("z", z))
	var msg protocol.PointMsg
	if err == nil {
		q := s.gen.QueryPoint(x, z)
		msg = protocol.NewPointMsg(reqID, x, z, q, q.Height < s.gen.Config().WaterThreshold)
	}
	s.record(o, plog.QueryLogEntry{Kind: "point", X: x, Z: z}, start, err)
	return msg, err
}

// Tile builds a TILE message; colors are included only when asked for.
func (s *Service) Tile(o Origin, reqID string, tx, tz int, withColors bool) (protocol.TileMsg, error) {
	start := s.now()
	if err := firstErr(checkTile("tile_x", tx), checkTile("tile_z", tz)); err != nil {
		s.record(o, plog.QueryLogEntry{Kind: "tile", TileX: tx, TileZ: tz}, start, err)
		return protocol.TileMsg{}, err
	}
	var (
		hm     *gen.Heightmap
		colors []float32
	)
	if withColors {
		t := s.gen.Tile(tx, tz)
		hm, colors = &t.Heightmap, t.Colors
	} else {
		hm = s.gen.Heightmap(tx, tz)
	}
	msg := protocol.NewTileMsg(reqID, hm, colors, tilefile.Digest(hm.Heights, hm.BiomeIDs))
	s.record(o, plog.QueryLogEntry{Kind: "tile", TileX: tx, TileZ: tz}, start, nil)
	return msg, nil
}

func (s *Service) record(o Origin, e plog.QueryLogEntry, start time.Time, err error) {
	if s.qlog == nil {
		return
	}
	e.Time = start.UTC()
	e.Transport = o.Transport
	e.Session = o.Session
	e.Micros = s.now().Sub(start).Microseconds()
	if err != nil {
		e.Error = err.Error()
	}
	_ = s.qlog.WriteQuery(e)
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
