package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	persistlog "terrainforge.ai/internal/persistence/log"
	"terrainforge.ai/internal/query"
	"terrainforge.ai/internal/terrain/gen"
	"terrainforge.ai/internal/terrain/presets"
	"terrainforge.ai/internal/terrain/tuning"
	"terrainforge.ai/internal/transport/rest"
	"terrainforge.ai/internal/transport/ws"
)

func main() {
	var (
		addr        = flag.String("addr", ":8080", "http listen address")
		seed        = flag.Int64("seed", 0, "terrain seed")
		preset      = flag.String("preset", presets.Default, "preset name")
		presetsPath = flag.String("presets", "./configs/presets.yaml", "preset file (empty for built-ins only)")
		tuningPath  = flag.String("tuning", "", "yaml overrides applied after the preset (optional)")
		dataDir     = flag.String("data", "./data", "runtime data directory")
		queryLog    = flag.Bool("query_log", false, "append served queries to <data>/queries")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	cfg, err := resolveConfig(*presetsPath, *preset, *tuningPath, *seed, logger)
	if err != nil {
		logger.Fatalf("config: %v", err)
	}
	g, err := gen.New(cfg)
	if err != nil {
		logger.Fatalf("generator: %v", err)
	}
	logger.Printf("terrain seed=%d preset=%s world=%dx%d tiles res=%d island=%v",
		cfg.Seed, *preset, cfg.WorldSizeTiles, cfg.WorldSizeTiles, cfg.TileResolution, cfg.Island.Enabled)

	// Passing a nil *QueryLogger through the interface would defeat the nil check.
	var qlog query.Logger
	if *queryLog {
		ql := persistlog.NewQueryLogger(*dataDir)
		defer ql.Close()
		qlog = ql
	}
	svc := query.New(g, *preset, qlog)

	ctx, cancel := signalContext()
	defer cancel()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	rest.NewServer(svc, logger).Register(mux)
	mux.HandleFunc("/v1/ws", ws.NewServer(svc, logger).Handler())

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s", *addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
}

// resolveConfig layers the preset, the tuning file and the seed flag.
func resolveConfig(presetsPath, preset, tuningPath string, seed int64, logger *log.Logger) (tuning.Config, error) {
	cat, err := presets.Load(strings.TrimSpace(presetsPath))
	if err != nil {
		if !os.IsNotExist(err) {
			return tuning.Config{}, err
		}
		logger.Printf("presets not found (%s); using built-ins", presetsPath)
	}
	o, err := tuning.LoadOverrides(tuningPath)
	if err != nil {
		return tuning.Config{}, err
	}
	o.Seed = &seed
	return cat.Resolve(preset, o, logger)
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}
