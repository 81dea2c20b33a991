package main

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ardanlabs/conf/v3"
	"github.com/xlerion/ivachain/app/services/ivaledger/handlers"
	"github.com/xlerion/ivachain/business/core/invoice"
	"github.com/xlerion/ivachain/business/core/user"
	"github.com/xlerion/ivachain/foundation/blockchain/ledger"
	"github.com/xlerion/ivachain/foundation/blockchain/signature"
	"github.com/xlerion/ivachain/foundation/blockchain/state"
	"github.com/xlerion/ivachain/foundation/blockchain/storage/disk"
	"github.com/xlerion/ivachain/foundation/blockchain/storage/memory"
	"github.com/xlerion/ivachain/foundation/blockchain/storage/slot"
	"github.com/xlerion/ivachain/foundation/blockchain/storage/sqlite"
	"github.com/xlerion/ivachain/foundation/events"
	"github.com/xlerion/ivachain/foundation/kvstore"
	"github.com/xlerion/ivachain/foundation/logger"
	"go.uber.org/zap"
)

// build is set at link time with -ldflags "-X main.build=<version>".
var build = "develop"

func main() {

	log, err := logger.New("IVALEDGER")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(log); err != nil {
		log.Errorw("startup", "ERROR", err)
		log.Sync()
		os.Exit(1)
	}
}

// storageConfig selects where the chain and the user registry live.
type storageConfig struct {
	Backend        string `conf:"default:leveldb,help:memory|disk|leveldb|redis|sqlite"`
	DiskPath       string `conf:"default:zblock/blocks"`
	LevelDBPath    string `conf:"default:zblock/ledger.db"`
	SQLitePath     string `conf:"default:zblock/ledger.sqlite"`
	SlotKey        string `conf:"default:blockchain_data"`
	RedisAddr      string `conf:"default:localhost:6379"`
	RedisPassword  string `conf:"mask"`
	RedisDB        int    `conf:"default:0"`
	ResetOnCorrupt bool   `conf:"default:false"`
}

func run(log *zap.SugaredLogger) error {

	// =========================================================================
	// Configuration

	cfg := struct {
		conf.Version
		Web struct {
			ReadTimeout     time.Duration `conf:"default:5s"`
			WriteTimeout    time.Duration `conf:"default:30s"`
			IdleTimeout     time.Duration `conf:"default:120s"`
			ShutdownTimeout time.Duration `conf:"default:20s"`
			DebugHost       string        `conf:"default:0.0.0.0:7080"`
			APIHost         string        `conf:"default:0.0.0.0:3000"`
			CorsOrigin      string        `conf:"default:*"`
			LegacyRoutes    bool          `conf:"default:true"`
		}
		Storage storageConfig
		Sealer  struct {
			KeyPath string `conf:"default:zblock/sealer.ecdsa"`
			Enabled bool   `conf:"default:true"`
		}
		Invoice struct {
			ValidateDelay   time.Duration `conf:"default:1500ms"`
			SealDelay       time.Duration `conf:"default:2000ms"`
			DistributeDelay time.Duration `conf:"default:2500ms"`
		}
		Users struct {
			Backend     string `conf:"default:leveldb,help:memory|leveldb|redis"`
			LevelDBPath string `conf:"default:zblock/users.db"`
			RedisPrefix string `conf:"default:ivaledger:"`
		}
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "IVA traceability ledger",
		},
	}

	const prefix = "IVALEDGER"
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	// =========================================================================
	// App Starting

	log.Infow("starting service", "version", build)
	defer log.Infow("shutdown complete")

	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	log.Infow("startup", "config", out)

	// =========================================================================
	// Ledger Support

	var sealerKey *ecdsa.PrivateKey
	if cfg.Sealer.Enabled {
		sealerKey, err = signature.LoadKey(cfg.Sealer.KeyPath, true)
		if err != nil {
			return fmt.Errorf("loading sealer key: %w", err)
		}
	}

	strg, err := openStorage(context.Background(), cfg.Storage)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}

	// The ledger packages accept a function of this signature to allow the
	// application to log. Websocket clients receive structured events through
	// the events package instead.
	evts := events.New()
	ev := func(v string, args ...any) {
		s := fmt.Sprintf(v, args...)
		log.Infow(s, "traceid", "00000000-0000-0000-0000-000000000000")
	}

	st, err := state.New(context.Background(), state.Config{
		Storage:        strg,
		SealerKey:      sealerKey,
		ResetOnCorrupt: cfg.Storage.ResetOnCorrupt,
		EvHandler:      ev,
		Events:         evts,
	})
	if err != nil {
		strg.Close()
		return err
	}
	defer st.Shutdown()

	log.Infow("startup", "status", "ledger loaded", "backend", cfg.Storage.Backend, "blocks", st.Len(), "sealer", st.SealerAddress())

	invCore := invoice.NewCore(log, st, invoice.Config{
		ValidateDelay:   cfg.Invoice.ValidateDelay,
		SealDelay:       cfg.Invoice.SealDelay,
		DistributeDelay: cfg.Invoice.DistributeDelay,
	})

	// =========================================================================
	// User Support

	var usrStore kvstore.Store
	switch cfg.Users.Backend {
	case "memory":
		usrStore = kvstore.NewMemory()
	case "leveldb":
		usrStore, err = kvstore.NewLevelDB(cfg.Users.LevelDBPath)
	case "redis":
		usrStore, err = kvstore.NewRedis(context.Background(), cfg.Storage.RedisAddr, cfg.Storage.RedisPassword, cfg.Storage.RedisDB, cfg.Users.RedisPrefix)
	default:
		err = fmt.Errorf("unknown users backend %q", cfg.Users.Backend)
	}
	if err != nil {
		return fmt.Errorf("opening user store: %w", err)
	}
	defer usrStore.Close()

	usrCore := user.NewCore(usrStore)

	// =========================================================================
	// Start Debug Service

	log.Infow("startup", "status", "debug v1 router started", "host", cfg.Web.DebugHost)

	debugMux := handlers.DebugMux(build, log, st)

	// The debug server is never shut down gracefully.
	go func() {
		if err := http.ListenAndServe(cfg.Web.DebugHost, debugMux); err != nil {
			log.Errorw("shutdown", "status", "debug v1 router closed", "host", cfg.Web.DebugHost, "ERROR", err)
		}
	}()

	// =========================================================================
	// Service Start/Stop Support

	// signal.Notify requires a buffered channel.
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	// Buffered so the listener goroutine never blocks on exit.
	serverErrors := make(chan error, 1)

	// =========================================================================
	// Start API Service

	log.Infow("startup", "status", "initializing V1 API support")

	apiMux := handlers.APIMux(handlers.MuxConfig{
		Shutdown:    shutdown,
		Log:         log,
		State:       st,
		Invoice:     invCore,
		User:        usrCore,
		Evts:        evts,
		CorsOrigin:  cfg.Web.CorsOrigin,
		LegacyRoute: cfg.Web.LegacyRoutes,
	})

	api := http.Server{
		Addr:         cfg.Web.APIHost,
		Handler:      apiMux,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     zap.NewStdLog(log.Desugar()),
	}

	go func() {
		log.Infow("startup", "status", "api router started", "host", api.Addr)
		serverErrors <- api.ListenAndServe()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		log.Infow("shutdown", "status", "shutdown started", "signal", sig)
		defer log.Infow("shutdown", "status", "shutdown complete", "signal", sig)

		// Closing the subscriber channels ends every websocket loop.
		log.Infow("shutdown", "status", "shutdown web socket channels")
		evts.Shutdown()

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancel()

		log.Infow("shutdown", "status", "shutdown api started")
		if err := api.Shutdown(ctx); err != nil {
			api.Close()
			return fmt.Errorf("could not stop api service gracefully: %w", err)
		}

		// Let background fund distributions land before the writer stops.
		log.Infow("shutdown", "status", "waiting for pending distributions")
		if err := invCore.Shutdown(ctx); err != nil {
			log.Errorw("shutdown", "status", "pending distributions", "ERROR", err)
		}
	}

	return nil
}

// openStorage constructs the chain storage for the configured backend.
func openStorage(ctx context.Context, cfg storageConfig) (ledger.Storage, error) {
	switch cfg.Backend {
	case "memory":
		return memory.New()

	case "disk":
		return disk.New(cfg.DiskPath)

	case "leveldb":
		store, err := kvstore.NewLevelDB(cfg.LevelDBPath)
		if err != nil {
			return nil, err
		}
		return slot.New(store, cfg.SlotKey), nil

	case "redis":
		store, err := kvstore.NewRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, "")
		if err != nil {
			return nil, err
		}
		return slot.New(store, cfg.SlotKey), nil

	case "sqlite":
		return sqlite.Open(ctx, cfg.SQLitePath)
	}

	return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
}
