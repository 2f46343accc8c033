package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/DoyleJ11/battlebees-backend/internal/config"
	"github.com/DoyleJ11/battlebees-backend/internal/dictionary"
	"github.com/DoyleJ11/battlebees-backend/internal/httpapi"
	"github.com/DoyleJ11/battlebees-backend/internal/hub"
	"github.com/DoyleJ11/battlebees-backend/internal/letters"
	"github.com/DoyleJ11/battlebees-backend/internal/room"
	"github.com/DoyleJ11/battlebees-backend/internal/ws"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		// No logger yet.
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	log, err := newLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func run(ctx context.Context, cfg config.Config, log *zap.Logger) error {
	corpus := loadLetters(ctx, cfg, log)

	dict, err := newDictionary(cfg, log)
	if err != nil {
		return err
	}

	gw := ws.NewGateway(log.Named("ws"))
	h := hub.NewHub(ctx, hub.Options{
		RoomDeps: room.Deps{
			Transport:     gw,
			Dictionary:    dict,
			Letters:       corpus,
			Logger:        log.Named("room"),
			TickInterval:  cfg.CountdownInterval,
			LookupTimeout: cfg.DictionaryTimeout,
		},
		PangramBonus: &cfg.PangramBonus,
		Logger:       log.Named("hub"),
	})

	// Build the router *with* the hub injected
	srv := &http.Server{
		Addr: cfg.Addr(),
		Handler: httpapi.SetupRoutes(h, gw, httpapi.Options{
			WS:     ws.Options{OriginPatterns: cfg.AllowedOrigins},
			Logger: log.Named("http"),
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		select {
		case h.Inbox() <- hub.ShutdownHub{}:
		default:
		}

		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	return g.Wait()
}

// loadLetters prefers the Postgres corpus when configured and falls back to
// the CSV corpus on any error.
func loadLetters(ctx context.Context, cfg config.Config, log *zap.Logger) *letters.Corpus {
	var (
		sets    []letters.Set
		skipped int
		err     error
	)
	if cfg.LettersCSV != "" {
		sets, skipped, err = letters.LoadFile(cfg.LettersCSV)
	} else {
		sets, skipped, err = letters.Embedded()
	}
	if err != nil {
		log.Warn("letter corpus unreadable, using default set", zap.Error(err))
	}
	if skipped > 0 {
		log.Warn("skipped malformed corpus rows", zap.Int("skipped", skipped))
	}

	if cfg.DatabaseURL != "" {
		if dbSets, err := loadFromDB(ctx, cfg.DatabaseURL, sets); err != nil {
			log.Warn("postgres corpus unavailable, using csv", zap.Error(err))
		} else if len(dbSets) > 0 {
			sets = dbSets
		}
	}

	corpus := letters.NewCorpus(sets, nil, log.Named("letters"))
	log.Info("letter corpus ready", zap.Int("sets", corpus.Len()))
	return corpus
}

func loadFromDB(ctx context.Context, dsn string, seed []letters.Set) ([]letters.Set, error) {
	store, err := letters.OpenStore(dsn)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := store.Migrate(ctx); err != nil {
		return nil, err
	}
	if err := store.Seed(ctx, seed); err != nil {
		return nil, err
	}
	sets, _, err := store.Load(ctx)
	return sets, err
}

func newDictionary(cfg config.Config, log *zap.Logger) (dictionary.Validator, error) {
	if cfg.DictionaryMode == config.DictionaryWordList {
		wl, err := dictionary.LoadWordList(cfg.DictionaryWords)
		if err != nil {
			return nil, err
		}
		log.Info("using word list dictionary", zap.Int("words", wl.Len()))
		return wl, nil
	}
	return dictionary.NewClient(cfg.DictionaryURL,
		dictionary.WithTimeout(cfg.DictionaryTimeout),
		dictionary.WithLogger(log.Named("dictionary")),
	), nil
}
