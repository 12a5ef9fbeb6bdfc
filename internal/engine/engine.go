// Package engine implements the conversation core of the bot: the
// authoring flow that builds quizzes out of chat polls, the delivery
// flow that runs them live, the answer review flow and the JSON
// import. The engine owns session state and talks to storage and the
// messaging side through narrow interfaces, so every transition is
// unit-testable without a live bot.
package engine

import (
	"context"
	"log/slog"
	"time"

	"quizbot/core/logger"
	"quizbot/internal/pagination"
	"quizbot/internal/quiz"
	"quizbot/internal/session"
)

const (
	// defaultOpenPeriod is the poll timer when a quiz has none set.
	defaultOpenPeriod = 60

	defaultCountdownStep  = time.Second
	defaultReviewThrottle = 300 * time.Millisecond
	janitorInterval       = time.Minute
)

// Options tune listing layout and message pacing. Zero values fall
// back to the defaults above.
type Options struct {
	PageSize       int
	OpenPeriod     int
	CountdownStep  time.Duration
	ReviewThrottle time.Duration
}

// Engine drives all user dialogues. One instance serves all users;
// per-user serialization comes from the session store's locks.
type Engine struct {
	store    quiz.Store
	sessions *session.Store
	tr       Transport

	pageSize       int
	openPeriod     int
	countdownStep  time.Duration
	reviewThrottle time.Duration

	// sleep paces countdowns and review bursts. Tests replace it.
	sleep func(ctx context.Context, d time.Duration)
}

// New wires an engine. The session store is shared with the transport
// layer, which consults it for routing.
func New(store quiz.Store, sessions *session.Store, tr Transport, opts Options) *Engine {
	if opts.PageSize <= 0 {
		opts.PageSize = pagination.DefaultPageSize
	}
	if opts.OpenPeriod <= 0 {
		opts.OpenPeriod = defaultOpenPeriod
	}
	if opts.CountdownStep <= 0 {
		opts.CountdownStep = defaultCountdownStep
	}
	if opts.ReviewThrottle <= 0 {
		opts.ReviewThrottle = defaultReviewThrottle
	}
	return &Engine{
		store:          store,
		sessions:       sessions,
		tr:             tr,
		pageSize:       opts.PageSize,
		openPeriod:     opts.OpenPeriod,
		countdownStep:  opts.CountdownStep,
		reviewThrottle: opts.ReviewThrottle,
		sleep:          sleepCtx,
	}
}

// RunJanitor evicts idle sessions until ctx is done.
func (e *Engine) RunJanitor(ctx context.Context) {
	e.sessions.Janitor(ctx, janitorInterval)
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// notify sends a plain notice and logs delivery failures instead of
// propagating them. User-facing fallout of a failure should never
// cascade into a second failure.
func (e *Engine) notify(ctx context.Context, chatID int64, text string) {
	if _, err := e.tr.Send(ctx, chatID, text, nil); err != nil {
		logger.LogEvent(ctx, logger.TG, slog.LevelWarn, "notify.failed",
			slog.String("status", "error"),
			slog.Int64("chat_id", chatID),
			slog.String("err", err.Error()))
	}
}

// storageFailed reports a persistence problem to the user and logs it.
// The session is left as it was before the failed call.
func (e *Engine) storageFailed(ctx context.Context, comp *slog.Logger, event string, chatID int64, err error) {
	logger.LogEvent(ctx, comp, slog.LevelError, event,
		slog.String("status", "error"),
		slog.String("err_code", "STORAGE_ERROR"),
		slog.String("err", err.Error()))
	e.notify(ctx, chatID, "Something went wrong on our side. Please try again in a moment.")
}

// expired tells the user their dialogue is gone and clears the stage.
func (e *Engine) expired(ctx context.Context, s *session.Session, chatID int64) {
	s.ResetDialogue()
	e.notify(ctx, chatID, "This session has expired. Use /help to see what you can do.")
}
