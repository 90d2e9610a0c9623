package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/m3rciful/quizbot/bot"
	"github.com/m3rciful/quizbot/core/bootstrap"
	corecmd "github.com/m3rciful/quizbot/core/cmd"
	coreconfig "github.com/m3rciful/quizbot/core/config"
	"github.com/m3rciful/quizbot/core/logger"
	tg "github.com/m3rciful/quizbot/core/telegram"
	"github.com/m3rciful/quizbot/core/telegram/router"
	"github.com/m3rciful/quizbot/core/telegram/sender"
	"github.com/m3rciful/quizbot/quiz"
	"github.com/m3rciful/quizbot/trivia"
)

type app struct {
	cfg      *coreconfig.Config
	infra    *bootstrap.Result
	handlers *bot.Handlers
	registry *tg.Registry
}

func newApp(ctx context.Context, carrier corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
	cfg := carrier.CoreConfig()

	infra, err := bootstrap.Run(ctx, bootstrap.Options{Config: cfg})
	if err != nil {
		return nil, err
	}

	source := trivia.NewClient(trivia.Options{
		BaseURL:       cfg.Trivia.BaseURL,
		Timeout:       time.Duration(cfg.Trivia.TimeoutSeconds) * time.Second,
		Retries:       cfg.Trivia.Retries,
		MaxConcurrent: cfg.Trivia.MaxConcurrent,
	})
	machine := quiz.NewMachine(quiz.Options{
		Sessions:   infra.Sessions,
		States:     infra.States,
		Source:     source,
		Categories: quiz.VisibleCategories(cfg.Quiz.VisibleCategories),
	})

	handlers := bot.New(machine)
	reg := tg.NewRegistry()
	if err := handlers.Register(reg); err != nil {
		_ = infra.Close()
		return nil, fmt.Errorf("register handlers: %w", err)
	}

	return &app{cfg: cfg, infra: infra, handlers: handlers, registry: reg}, nil
}

func (a *app) TelegramRunOptions() (tg.RunOptions, error) {
	routes := router.CommandRoutes(a.registry)
	routes = append(routes,
		router.CallbackRoute(a.registry),
		router.TextRoute(a.registry),
	)

	return tg.RunOptions{
		Config:   a.cfg,
		Registry: a.registry,
		DispatcherOptions: sender.Options{
			Workers:      4,
			MaxRetries:   3,
			RetryBackoff: 500 * time.Millisecond,
			MaxDuration:  30 * time.Second,
		},
		Middlewares: tg.DefaultMiddlewares(a.cfg, a.handlers.OnRateLimited),
		Routes:      routes,
		OnStop: func(ctx context.Context, rt tg.Runtime) error {
			logger.Info(ctx, "app", "sender.summary",
				slog.Uint64("send_errors", rt.Dispatcher.ErrorCount()),
			)
			return a.infra.Close()
		},
	}, nil
}
