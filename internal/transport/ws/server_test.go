package ws

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"terrainforge.ai/internal/protocol"
	"terrainforge.ai/internal/query"
	"terrainforge.ai/internal/terrain/gen"
	"terrainforge.ai/internal/terrain/tuning"
)

func dial(t *testing.T, colors bool) (*websocket.Conn, protocol.WelcomeMsg, *gen.Generator) {
	t.Helper()
	cfg := tuning.Defaults()
	cfg.Seed = 12345
	cfg.TileResolution = 6
	g, err := gen.New(cfg)
	if err != nil {
		t.Fatalf("gen.New: %v", err)
	}
	srv := httptest.NewServer(NewServer(query.New(g, "default", nil), nil).Handler())
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	hello := protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		ClientName:      "test",
		Capabilities:    protocol.HelloCapabilities{MaxQueue: 4, Colors: colors},
	}
	if err := conn.WriteJSON(hello); err != nil {
		t.Fatalf("write hello: %v", err)
	}
	var welcome protocol.WelcomeMsg
	readJSON(t, conn, &welcome)
	return conn, welcome, g
}

func readJSON(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	_, b, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		t.Fatalf("decode %s: %v", b, err)
	}
}

func TestHandshakeSendsWelcome(t *testing.T) {
	_, welcome, g := dial(t, false)
	if welcome.Type != protocol.TypeWelcome || welcome.SessionID == "" {
		t.Fatalf("welcome: %+v", welcome)
	}
	if welcome.WorldParams.Seed != 12345 || welcome.WorldParams.TileResolution != g.Config().TileResolution {
		t.Fatalf("world params: %+v", welcome.WorldParams)
	}
	if len(welcome.BiomePalette) != 8 || welcome.BiomePalette[0] != "plains" {
		t.Fatalf("palette: %v", welcome.BiomePalette)
	}
}

func TestTileRoundTrip(t *testing.T) {
	conn, _, g := dial(t, true)
	req := protocol.TileReqMsg{Type: protocol.TypeTileReq, ProtocolVersion: protocol.Version, ReqID: "t1", TileX: 1, TileZ: 2}
	if err := conn.WriteJSON(req); err != nil {
		t.Fatalf("write: %v", err)
	}
	var tile protocol.TileMsg
	readJSON(t, conn, &tile)
	if tile.Type != protocol.TypeTile || tile.ReqID != "t1" || tile.TileX != 1 || tile.TileZ != 2 {
		t.Fatalf("tile header: %+v", tile)
	}
	want := g.Heightmap(1, 2)
	if len(tile.Heights) != len(want.Heights) {
		t.Fatalf("heights: got %d want %d", len(tile.Heights), len(want.Heights))
	}
	for i := range want.Heights {
		if tile.Heights[i] != want.Heights[i] {
			t.Fatalf("height %d: got %v want %v", i, tile.Heights[i], want.Heights[i])
		}
	}
	if len(tile.Colors) != 3*len(want.Heights) {
		t.Fatalf("colors requested but got %d", len(tile.Colors))
	}
}

func TestPointAndErrors(t *testing.T) {
	conn, _, g := dial(t, false)

	req := protocol.PointReqMsg{Type: protocol.TypePointReq, ProtocolVersion: protocol.Version, ReqID: "p1", X: 40, Z: -60}
	if err := conn.WriteJSON(req); err != nil {
		t.Fatalf("write: %v", err)
	}
	var pt protocol.PointMsg
	readJSON(t, conn, &pt)
	if pt.ReqID != "p1" || pt.Height != g.HeightAt(40, -60) {
		t.Fatalf("point: %+v", pt)
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"POINT_REQ","protocol_version":"0.1"}`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	var e protocol.ErrorMsg
	readJSON(t, conn, &e)
	if e.Type != protocol.TypeError || e.Code != protocol.ErrProtoVersion {
		t.Fatalf("version error: %+v", e)
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"DANCE","protocol_version":"1.0"}`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	readJSON(t, conn, &e)
	if e.Code != protocol.ErrProtoBadRequest {
		t.Fatalf("unknown type error: %+v", e)
	}
}

func TestHandshakeRejectsNonHello(t *testing.T) {
	cfg := tuning.Defaults()
	cfg.TileResolution = 4
	g, err := gen.New(cfg)
	if err != nil {
		t.Fatalf("gen.New: %v", err)
	}
	srv := httptest.NewServer(NewServer(query.New(g, "", nil), nil).Handler())
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	if err := conn.WriteJSON(map[string]string{"type": "TILE_REQ", "protocol_version": "1.0"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, _, err = conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.ClosePolicyViolation) {
		t.Fatalf("expected policy violation close, got %v", err)
	}
}
