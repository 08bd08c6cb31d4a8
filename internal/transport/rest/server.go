// Package rest serves terrain queries as plain HTTP GET endpoints.
package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"strconv"
	"strings"

	"terrainforge.ai/internal/protocol"
	"terrainforge.ai/internal/query"
	"terrainforge.ai/internal/render"
)

const (
	maxPreviewTiles = 16
	maxPreviewSize  = 2048
)

type Server struct {
	svc *query.Service
	log *log.Logger
}

func NewServer(svc *query.Service, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Server{svc: svc, log: logger}
}

// Register mounts every endpoint on mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/v1/params", s.ParamsHandler())
	mux.HandleFunc("/v1/height", s.HeightHandler())
	mux.HandleFunc("/v1/point", s.PointHandler())
	mux.HandleFunc("/v1/tile", s.TileHandler())
	mux.HandleFunc("/admin/v1/preview.png", s.PreviewHandler())
}

type HeightResponse struct {
	X          float64 `json:"x"`
	Z          float64 `json:"z"`
	Height     float64 `json:"height"`
	Underwater bool    `json:"underwater"`
}

var origin = query.Origin{Transport: "rest"}

func (s *Server) ParamsHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if !getOnly(rw, r) {
			return
		}
		writeJSON(rw, http.StatusOK, struct {
			ProtocolVersion string               `json:"protocol_version"`
			WorldParams     protocol.WorldParams `json:"world_params"`
			BiomePalette    []string             `json:"biome_palette"`
		}{protocol.Version, s.svc.WorldParams(), protocol.BiomePalette()})
	}
}

func (s *Server) HeightHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if !getOnly(rw, r) {
			return
		}
		x, z, err := floatPair(r, "x", "z")
		if err != nil {
			writeErr(rw, "", err)
			return
		}
		h, err := s.svc.Height(origin, x, z)
		if err != nil {
			writeErr(rw, "", err)
			return
		}
		writeJSON(rw, http.StatusOK, HeightResponse{
			X: x, Z: z, Height: h,
			Underwater: h < s.svc.Generator().Config().WaterThreshold,
		})
	}
}

func (s *Server) PointHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if !getOnly(rw, r) {
			return
		}
		x, z, err := floatPair(r, "x", "z")
		if err != nil {
			writeErr(rw, "", err)
			return
		}
		reqID := r.URL.Query().Get("req_id")
		pt, err := s.svc.Point(origin, reqID, x, z)
		if err != nil {
			writeErr(rw, reqID, err)
			return
		}
		writeJSON(rw, http.StatusOK, pt)
	}
}

func (s *Server) TileHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if !getOnly(rw, r) {
			return
		}
		q := r.URL.Query()
		tx, err := intParam(q.Get("tx"), "tx")
		if err != nil {
			writeErr(rw, "", err)
			return
		}
		tz, err := intParam(q.Get("tz"), "tz")
		if err != nil {
			writeErr(rw, "", err)
			return
		}
		colors := q.Get("colors") == "1" || q.Get("colors") == "true"
		tile, err := s.svc.Tile(origin, q.Get("req_id"), tx, tz, colors)
		if err != nil {
			writeErr(rw, q.Get("req_id"), err)
			return
		}
		writeJSON(rw, http.StatusOK, tile)
	}
}

// PreviewHandler renders a PNG of a tile range. Loopback callers only.
func (s *Server) PreviewHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if !getOnly(rw, r) {
			return
		}
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		q := r.URL.Query()
		tx0, err1 := intParamDefault(q.Get("tx0"), "tx0", 0)
		tz0, err2 := intParamDefault(q.Get("tz0"), "tz0", 0)
		tiles, err3 := intParamDefault(q.Get("tiles"), "tiles", 4)
		size, err4 := intParamDefault(q.Get("size"), "size", 256)
		if err := errors.Join(err1, err2, err3, err4); err != nil {
			writeErr(rw, "", err)
			return
		}
		if tiles < 1 || tiles > maxPreviewTiles || size < 1 || size > maxPreviewSize {
			writeErr(rw, "", badRequest(fmt.Sprintf("tiles must be in [1,%d] and size in [1,%d]", maxPreviewTiles, maxPreviewSize)))
			return
		}
		img, err := render.Preview(s.svc.Generator(), tx0, tz0, tiles, tiles, size, size)
		if err != nil {
			writeErr(rw, "", err)
			return
		}
		rw.Header().Set("Content-Type", "image/png")
		if err := render.EncodePNG(rw, img); err != nil {
			s.log.Printf("preview: %v", err)
		}
	}
}

func getOnly(rw http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodGet {
		rw.WriteHeader(http.StatusMethodNotAllowed)
		return false
	}
	return true
}

func badRequest(msg string) error {
	return &query.RequestError{Code: protocol.ErrBadRequest, Message: msg}
}

func floatPair(r *http.Request, a, b string) (float64, float64, error) {
	q := r.URL.Query()
	va, err := floatParam(q.Get(a), a)
	if err != nil {
		return 0, 0, err
	}
	vb, err := floatParam(q.Get(b), b)
	if err != nil {
		return 0, 0, err
	}
	return va, vb, nil
}

func floatParam(raw, name string) (float64, error) {
	if strings.TrimSpace(raw) == "" {
		return 0, badRequest("missing " + name)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, badRequest("bad " + name)
	}
	return v, nil
}

func intParam(raw, name string) (int, error) {
	if strings.TrimSpace(raw) == "" {
		return 0, badRequest("missing " + name)
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, badRequest("bad " + name)
	}
	return v, nil
}

func intParamDefault(raw, name string, def int) (int, error) {
	if strings.TrimSpace(raw) == "" {
		return def, nil
	}
	return intParam(raw, name)
}

func writeJSON(rw http.ResponseWriter, status int, v any) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	_ = json.NewEncoder(rw).Encode(v)
}

func writeErr(rw http.ResponseWriter, reqID string, err error) {
	var re *query.RequestError
	if errors.As(err, &re) {
		writeJSON(rw, http.StatusBadRequest, protocol.NewError(reqID, re.Code, re.Message))
		return
	}
	writeJSON(rw, http.StatusInternalServerError, protocol.NewError(reqID, protocol.ErrInternal, err.Error()))
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
