package bot

import (
	"context"
	"fmt"

	corebootstrap "quizbot/core/bootstrap"
	coretelegram "quizbot/core/telegram"
	"quizbot/core/telegram/router"
	"quizbot/internal/engine"
	"quizbot/internal/quiz"
	"quizbot/internal/session"
)

// App wires the quiz engine to the Telegram runtime.
type App struct {
	cfg       *Config
	store     quiz.Store
	sessions  *session.Store
	engine    *engine.Engine
	transport *teleTransport
	reg       *coretelegram.Registry
}

// New bootstraps infrastructure (logger, database, migrations) and
// assembles the application.
func New(cfg *Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bot: nil config provided")
	}

	res, err := corebootstrap.Run(corebootstrap.Options{
		Config:   cfg.CoreConfig(),
		Database: cfg.Database,
	})
	if err != nil {
		return nil, err
	}

	app := &App{
		cfg:       cfg,
		store:     quiz.NewPostgresStore(res.DB),
		sessions:  session.NewStore(cfg.SessionTTL()),
		transport: &teleTransport{},
		reg:       coretelegram.NewRegistry(),
	}
	app.engine = engine.New(app.store, app.sessions, app.transport, cfg.EngineOptions())

	app.registerCommands()
	app.registerCallbacks()
	return app, nil
}

// InProgress reports whether the user has an open dialogue. Text,
// document, and poll updates are routed to ManagerHandler while it
// returns true.
func (a *App) InProgress(userID int64) bool {
	return a.sessions.InProgress(userID)
}

// TelegramRunOptions builds the runtime configuration consumed by
// coretelegram.RunTelegram.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	cfg := a.cfg.CoreConfig()

	routes := router.CommandRoutes(a.reg)
	routes = append(routes, router.CallbackRoute(a.reg, router.CallbackOptions{}))
	routes = append(routes, router.TextRoutes(a, a.reg, router.TextOptions{})...)
	routes = append(routes, router.PollRoutes(a, a.handlePollAnswer)...)

	return coretelegram.RunOptions{
		Config:      cfg,
		Registry:    a.reg,
		Middlewares: coretelegram.DefaultMiddlewares(cfg, nil),
		Routes:      routes,
		// Poll and poll_answer updates are off by default; a live run
		// cannot work without them.
		AllowedUpdates: []string{"message", "callback_query", "poll", "poll_answer"},
		OnStart: func(ctx context.Context, rt coretelegram.Runtime) error {
			a.transport.bind(rt.Bot)
			go a.engine.RunJanitor(ctx)
			return nil
		},
	}, nil
}

var _ router.FSM = (*App)(nil)
var _ engine.Transport = (*teleTransport)(nil)
