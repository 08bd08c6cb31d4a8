package rest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"terrainforge.ai/internal/protocol"
	"terrainforge.ai/internal/query"
	"terrainforge.ai/internal/terrain/gen"
	"terrainforge.ai/internal/terrain/tuning"
)

func newMux(t *testing.T) (*http.ServeMux, *gen.Generator) {
	t.Helper()
	cfg := tuning.Defaults()
	cfg.Seed = 12345
	cfg.TileResolution = 5
	g, err := gen.New(cfg)
	if err != nil {
		t.Fatalf("gen.New: %v", err)
	}
	mux := http.NewServeMux()
	NewServer(query.New(g, "default", nil), nil).Register(mux)
	return mux, g
}

func get(mux http.Handler, target, remote string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if remote != "" {
		req.RemoteAddr = remote
	}
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	return rr
}

func TestParams(t *testing.T) {
	mux, _ := newMux(t)
	rr := get(mux, "/v1/params", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	var resp struct {
		ProtocolVersion string               `json:"protocol_version"`
		WorldParams     protocol.WorldParams `json:"world_params"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.WorldParams.Seed != 12345 || resp.WorldParams.Preset != "default" {
		t.Fatalf("params: %+v", resp.WorldParams)
	}
}

func TestHeightAndPoint(t *testing.T) {
	mux, g := newMux(t)
	rr := get(mux, "/v1/height?x=12.5&z=-40", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("height status=%d body=%s", rr.Code, rr.Body.String())
	}
	var h HeightResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &h); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if h.Height != g.HeightAt(12.5, -40) {
		t.Fatalf("height: got %v want %v", h.Height, g.HeightAt(12.5, -40))
	}

	rr = get(mux, "/v1/point?x=12.5&z=-40&req_id=q9", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("point status=%d", rr.Code)
	}
	var pt protocol.PointMsg
	if err := json.Unmarshal(rr.Body.Bytes(), &pt); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if pt.ReqID != "q9" || pt.Height != h.Height || len(pt.BiomeInfluences) == 0 {
		t.Fatalf("point: %+v", pt)
	}
}

func TestTile(t *testing.T) {
	mux, g := newMux(t)
	rr := get(mux, "/v1/tile?tx=-1&tz=2&colors=1", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	var tile protocol.TileMsg
	if err := json.Unmarshal(rr.Body.Bytes(), &tile); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := g.Heightmap(-1, 2)
	if tile.DominantBiome != want.DominantBiome || len(tile.BiomeIDs) != len(want.BiomeIDs) || len(tile.Colors) != 3*len(want.Heights) {
		t.Fatalf("tile: dominant=%v ids=%d colors=%d", tile.DominantBiome, len(tile.BiomeIDs), len(tile.Colors))
	}
}

func TestBadRequests(t *testing.T) {
	mux, _ := newMux(t)
	cases := map[string]string{
		"/v1/height?x=1":                 protocol.ErrBadRequest,
		"/v1/height?x=a&z=1":             protocol.ErrBadRequest,
		"/v1/point?x=NaN&z=0":            protocol.ErrOutOfRange,
		"/v1/tile?tx=1":                  protocol.ErrBadRequest,
		"/v1/tile?tx=1.5&tz=0":           protocol.ErrBadRequest,
		"/admin/v1/preview.png?tiles=99": protocol.ErrBadRequest,
	}
	for target, code := range cases {
		rr := get(mux, target, "127.0.0.1:5555")
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("%s: status=%d want 400", target, rr.Code)
		}
		var e protocol.ErrorMsg
		if err := json.Unmarshal(rr.Body.Bytes(), &e); err != nil {
			t.Fatalf("%s: decode: %v", target, err)
		}
		if e.Type != protocol.TypeError || e.Code != code {
			t.Fatalf("%s: error=%+v want code %s", target, e, code)
		}
	}
}

func TestMethodNotAllowed(t *testing.T) {
	mux, _ := newMux(t)
	req := httptest.NewRequest(http.MethodPost, "/v1/params", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status=%d want 405", rr.Code)
	}
}

func TestPreviewLoopbackOnly(t *testing.T) {
	mux, _ := newMux(t)
	rr := get(mux, "/admin/v1/preview.png?tiles=1&size=16", "203.0.113.9:4000")
	if rr.Code != http.StatusForbidden {
		t.Fatalf("remote status=%d want 403", rr.Code)
	}
	rr = get(mux, "/admin/v1/preview.png?tiles=1&size=16", "[::1]:4000")
	if rr.Code != http.StatusOK || rr.Header().Get("Content-Type") != "image/png" {
		t.Fatalf("loopback status=%d type=%q", rr.Code, rr.Header().Get("Content-Type"))
	}
	if b := rr.Body.Bytes(); len(b) < 8 || string(b[1:4]) != "PNG" {
		t.Fatalf("body is not a png")
	}
}
