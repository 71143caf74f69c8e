// Package app assembles the symptom engine and its HTTP front end from
// configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/themobileprof/symptomcheck/internal/api"
	"github.com/themobileprof/symptomcheck/internal/api/middleware"
	"github.com/themobileprof/symptomcheck/internal/chat"
	"github.com/themobileprof/symptomcheck/internal/config"
	"github.com/themobileprof/symptomcheck/internal/db"
	"github.com/themobileprof/symptomcheck/internal/knowledge"
	"github.com/themobileprof/symptomcheck/internal/model"
	"github.com/themobileprof/symptomcheck/internal/ws"
)

// syntheticPerCondition is the synthesized dataset size per condition
const syntheticPerCondition = 50

// App holds the assembled components
type App struct {
	Config *config.Config
	Logger *zap.Logger
	Base   *knowledge.Base
	Engine *chat.Engine
	DB     *db.DB // nil without history storage
}

// New loads the knowledge base and connects the history database in
// parallel, then builds the engine and installs a persisted model if one
// matches. A missing model is not an error; a mismatched one is.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{Config: cfg, Logger: logger}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		base, err := knowledge.Open(gctx, cfg.KnowledgePath)
		if err != nil {
			return fmt.Errorf("failed to load knowledge base: %w", err)
		}
		a.Base = base
		return nil
	})
	if cfg.HistoryEnabled() {
		g.Go(func() error {
			database, err := db.New(cfg.DB())
			if err != nil {
				return err
			}
			if err := database.Migrate(); err != nil {
				database.Close()
				return err
			}
			a.DB = database
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		a.Close()
		return nil, err
	}
	logger.Info("knowledge base loaded",
		zap.Int("conditions", a.Base.Len()),
		zap.Int("symptoms", a.Base.Lexicon().Len()),
	)

	var history chat.HistoryStore
	if a.DB != nil {
		history = a.DB
		logger.Info("history storage enabled")
	}
	a.Engine = chat.NewEngine(a.Base, cfg.EngineOptions(history, logger))

	if err := a.loadModel(); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) loadModel() error {
	m, err := model.LoadFor(a.Config.ModelPath, a.Base)
	if errors.Is(err, model.ErrModelUnavailable) {
		a.Logger.Warn("no usable model, statistical scoring disabled",
			zap.String("path", a.Config.ModelPath),
			zap.Error(err),
		)
		return nil
	}
	if err != nil {
		return fmt.Errorf("model does not match knowledge base: %w", err)
	}
	if err := a.Engine.SetModel(m); err != nil {
		return err
	}
	a.Logger.Info("model loaded", zap.String("path", a.Config.ModelPath))
	return nil
}

// Dataset returns the training examples: the configured JSON-lines file
// when set, otherwise a dataset synthesized from the knowledge base.
func (a *App) Dataset() ([]model.Example, error) {
	if a.Config.DatasetPath == "" {
		return model.Synthesize(a.Base, a.Config.Tuning.Training.Seed, syntheticPerCondition), nil
	}
	examples, err := model.LoadDatasetFile(a.Config.DatasetPath)
	if err != nil {
		return nil, err
	}
	if err := model.ValidateDataset(a.Base, examples); err != nil {
		return nil, err
	}
	return examples, nil
}

// Trainer returns a trainer for the loaded knowledge base
func (a *App) Trainer() *model.Trainer {
	return model.NewTrainer(a.Base, a.Config.Tuning.Training, a.Logger)
}

// TrainInBackground fits and persists a model without blocking and
// installs it in the engine when done.
func (a *App) TrainInBackground(ctx context.Context) error {
	examples, err := a.Dataset()
	if err != nil {
		return err
	}
	outcomes, err := a.Trainer().TrainAsync(ctx, examples, a.Config.ModelPath)
	if err != nil {
		return err
	}
	go func() {
		out := <-outcomes
		if out.Err != nil {
			a.Logger.Error("background training failed", zap.Error(out.Err))
			return
		}
		if err := a.Engine.SetModel(out.Model); err != nil {
			a.Logger.Error("trained model rejected", zap.Error(err))
			return
		}
		a.Logger.Info("background training finished, statistical scoring enabled")
	}()
	return nil
}

// Handler builds the HTTP handler. The rate limiter sweeps until ctx is
// done.
func (a *App) Handler(ctx context.Context) http.Handler {
	opts := api.RouterOptions{
		Engine:         a.Engine,
		WebSocket:      ws.NewChatHandler(a.Engine, a.Logger, nil, 30).HandleChat,
		AllowedOrigins: a.Config.AllowedOrigins,
		Logger:         a.Logger,
	}
	if a.Config.RatePerMinute > 0 {
		opts.Limiter = middleware.NewRateLimiter(ctx, a.Config.RatePerMinute/60.0, a.Config.RateBurst)
	}
	if a.DB != nil {
		opts.History = a.DB
	}
	return api.NewRouter(opts)
}

// Serve runs the HTTP server until ctx is done, then shuts down gracefully.
// Idle sessions are expired while it runs.
func (a *App) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + a.Config.Port,
		Handler:           a.Handler(ctx),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.Logger.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		a.expireSessions(gctx)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.Logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})
	return g.Wait()
}

func (a *App) expireSessions(ctx context.Context) {
	idle := a.Config.SessionIdle
	if idle <= 0 {
		return
	}
	ticker := time.NewTicker(idle / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := a.Engine.ExpireSessions(idle); n > 0 {
				a.Logger.Info("expired idle sessions", zap.Int("count", n))
			}
		}
	}
}

// Close releases the database connection
func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close()
	}
}
