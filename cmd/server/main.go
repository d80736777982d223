package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"frogtank.app/internal/assets"
	"frogtank.app/internal/content"
	persistlog "frogtank.app/internal/persistence/log"
	"frogtank.app/internal/protocol"
	"frogtank.app/internal/sim/tank"
	"frogtank.app/internal/sim/tuning"
	"frogtank.app/internal/transport/ws"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		tankID     = flag.String("tank", "tank_1", "tank id")
		seed       = flag.Int64("seed", 1337, "simulation seed")
		contentDir = flag.String("dir", ".", "directory to browse")
		configDir  = flag.String("configs", "./configs", "config directory")
		dataDir    = flag.String("data", "./data", "runtime data directory (index + session logs)")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		modelsPath = flag.String("models", "", "path to models.yaml (default: <configs>/models.yaml)")
		meshDir    = flag.String("meshes", "", "directory holding model meshes (empty: skip existence checks)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Printf("tuning not found (%s); using defaults", tp)
			tune = tuning.Default()
		} else {
			logger.Fatalf("load tuning: %v", err)
		}
	}

	mp := strings.TrimSpace(*modelsPath)
	if mp == "" {
		mp = filepath.Join(*configDir, "models.yaml")
	}
	cat, err := assets.LoadCatalog(mp)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Printf("models not found (%s); using built-in catalog", mp)
			cat = assets.DefaultCatalog()
		} else {
			logger.Fatalf("load models: %v", err)
		}
	}

	root, err := filepath.Abs(*contentDir)
	if err != nil {
		logger.Fatalf("resolve dir: %v", err)
	}
	entries, err := content.Scan(root, tune.Layout.MaxDepth)
	if err != nil {
		logger.Fatalf("content: %v", err)
	}
	logger.Printf("scanned %s: %d entries", root, len(entries))

	ix, err := content.OpenIndex(filepath.Join(*dataDir, "index.db"))
	if err != nil {
		logger.Fatalf("open content index: %v", err)
	}
	defer ix.Close()
	if err := ix.Rebuild(entries); err != nil {
		logger.Fatalf("index rebuild: %v", err)
	}

	objs := content.BuildLayout(entries, tune.Tank, tune.Layout)

	w, err := tank.New(tank.Config{ID: *tankID, Seed: *seed}, tune)
	if err != nil {
		logger.Fatalf("world: %v", err)
	}
	w.SetObjects(objs)
	w.SetContentIndex(ix)
	w.SetLoader(assets.NewLoader(cat, strings.TrimSpace(*meshDir), time.Duration(tune.Assets.LoadTimeoutS)*time.Second, logger))
	w.SetModelManifest(buildManifest(cat, tune.Assets))

	sessionID := uuid.NewString()
	sw, err := persistlog.NewSessionWriter(filepath.Join(*dataDir, "sessions"), sessionID)
	if err != nil {
		logger.Fatalf("session log: %v", err)
	}
	defer sw.Close()
	if err := sw.WriteHeader(persistlog.SessionHeader{
		SessionID:  sessionID,
		StartedAt:  time.Now().UTC().Format(time.RFC3339Nano),
		Seed:       *seed,
		TickRateHz: tune.TickRateHz,
		Tuning:     tune,
		Objects:    tank.ObjectStates(objs),
	}); err != nil {
		logger.Fatalf("session log: %v", err)
	}
	w.SetTickLogger(sw)
	logger.Printf("session log %s", sw.Path())

	ctx, cancel := signalContext()
	defer cancel()

	// Live edits: file-system changes flow into the world as edit batches.
	watcher, err := content.NewWatcher(root, ix, tune.Tank, tune.Layout, logger)
	if err != nil {
		logger.Printf("directory watch disabled: %v", err)
	} else {
		defer watcher.Close()
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case batch := <-watcher.Edits():
					select {
					case w.Edits() <- batch:
					case <-ctx.Done():
						return
					}
				}
			}
		}()
	}

	go func() {
		if err := w.Run(ctx); err != nil && err != context.Canceled {
			logger.Printf("world stopped: %v", err)
		}
	}()

	wsSrv := ws.NewServer(w, logger)
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/v1/ws", wsSrv.Handler())
	mux.HandleFunc("/v1/cmd", wsSrv.CommandHandler())

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

func buildManifest(cat *assets.Catalog, as tuning.Assets) protocol.ModelManifest {
	var mf protocol.ModelManifest
	if m, ok := cat.Model(as.AvatarModel); ok {
		mf.Avatar = modelInfo(m)
	}
	if m, ok := cat.Model(as.AgentModel); ok {
		mf.Agent = modelInfo(m)
	}
	return mf
}

func modelInfo(m assets.Model) protocol.ModelInfo {
	return protocol.ModelInfo{Name: m.Name, Mesh: m.Mesh, Animations: m.Animations, Scale: m.Scale}
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
