package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"quizbot/core/logger"
	"quizbot/internal/importer"
	"quizbot/internal/pagination"
	"quizbot/internal/quiz"
	"quizbot/internal/session"
)

// countdownSteps are edited into a single message one second apart so
// everyone in the chat starts on the same beat.
var countdownSteps = []string{"3️⃣...", "2️⃣ READY...", "1️⃣ SET...", "🚀 GOOOO!"}

// BrowseFolders opens the folder listing for quiz browsing.
func (e *Engine) BrowseFolders(ctx context.Context, userID, chatID int64) error {
	folders, err := e.store.ListFolders(ctx, userID)
	if err != nil {
		e.storageFailed(ctx, logger.Delivery, "delivery.list_folders_failed", chatID, err)
		return err
	}
	if len(folders) == 0 {
		e.notify(ctx, chatID, "You have no folders yet. Create one with /create_folder.")
		return nil
	}
	return e.sessions.WithLock(userID, func(s *session.Session) error {
		s.FolderPage = 0
		e.sendFolderPage(ctx, chatID, folders, 0, ListFolders, "Your folders:")
		return nil
	})
}

// BeginDeleteFolder lists folders with delete actions.
func (e *Engine) BeginDeleteFolder(ctx context.Context, userID, chatID int64) error {
	folders, err := e.store.ListFolders(ctx, userID)
	if err != nil {
		e.storageFailed(ctx, logger.Delivery, "delivery.list_folders_failed", chatID, err)
		return err
	}
	if len(folders) == 0 {
		e.notify(ctx, chatID, "Nothing to delete, you have no folders.")
		return nil
	}
	var markup Markup
	for _, f := range folders {
		markup = append(markup, []Button{{Label: "🗑 " + f.Name, Intent: DeleteFolder{FolderID: f.ID}}})
	}
	if _, err := e.tr.Send(ctx, chatID, "Which folder should I delete? Its quizzes go with it.", markup); err != nil {
		logger.LogEvent(ctx, logger.TG, slog.LevelWarn, "list.send_failed",
			slog.String("status", "error"), slog.String("err", err.Error()))
	}
	return nil
}

func (e *Engine) deleteFolder(ctx context.Context, userID, chatID, folderID int64) error {
	err := e.store.DeleteFolder(ctx, folderID, userID)
	switch {
	case errors.Is(err, quiz.ErrNotFound):
		e.notify(ctx, chatID, "That folder is already gone.")
		return nil
	case err != nil:
		e.storageFailed(ctx, logger.Delivery, "delivery.delete_folder_failed", chatID, err)
		return err
	}
	logger.LogEvent(ctx, logger.Delivery, slog.LevelInfo, "delivery.folder_deleted",
		slog.String("status", "ok"), slog.Int64("user_id", userID), slog.Int64("folder_id", folderID))
	e.notify(ctx, chatID, "Folder deleted.")
	return nil
}

func (e *Engine) selectFolder(ctx context.Context, s *session.Session, userID, chatID, folderID int64) error {
	quizzes, err := e.store.ListQuizzes(ctx, folderID, userID)
	if err != nil {
		e.storageFailed(ctx, logger.Delivery, "delivery.list_quizzes_failed", chatID, err)
		return err
	}
	if len(quizzes) == 0 {
		e.notify(ctx, chatID, "This folder is empty. Add a quiz with /create_quiz.")
		return nil
	}
	s.QuizPage = 0
	e.sendQuizPage(ctx, chatID, quizzes, 0, folderID, ListQuizzes, "Quizzes in this folder:")
	return nil
}

func (e *Engine) viewQuiz(ctx context.Context, userID, chatID, quizID int64) error {
	q, err := e.store.GetQuiz(ctx, quizID)
	if errors.Is(err, quiz.ErrNotFound) {
		e.notify(ctx, chatID, "That quiz no longer exists.")
		return nil
	}
	if err != nil {
		e.storageFailed(ctx, logger.Delivery, "delivery.get_quiz_failed", chatID, err)
		return err
	}
	questions, err := e.store.ListQuestions(ctx, quizID)
	if err != nil {
		e.storageFailed(ctx, logger.Delivery, "delivery.list_questions_failed", chatID, err)
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<b>%s</b>\n", EscapeHTML(q.Title))
	if q.Description != "" {
		fmt.Fprintf(&b, "%s\n", EscapeHTML(q.Description))
	}
	fmt.Fprintf(&b, "\nQuestions: %d\nTimer: %ds per question", len(questions), e.pollOpenPeriod(q.TimerSeconds))

	markup := Markup{{
		{Label: "▶️ Start", Intent: StartQuiz{QuizID: q.ID}},
		{Label: "🗑 Delete", Intent: DeleteQuiz{QuizID: q.ID}},
		{Label: "⬅️ Back", Intent: SelectFolder{FolderID: q.FolderID}},
	}}
	if _, err := e.tr.Send(ctx, chatID, b.String(), markup); err != nil {
		logger.LogEvent(ctx, logger.TG, slog.LevelWarn, "view.send_failed",
			slog.String("status", "error"), slog.String("err", err.Error()))
	}
	return nil
}

func (e *Engine) deleteQuiz(ctx context.Context, userID, chatID, quizID int64) error {
	err := e.store.DeleteQuiz(ctx, quizID, userID)
	switch {
	case errors.Is(err, quiz.ErrNotFound):
		e.notify(ctx, chatID, "That quiz is already gone.")
		return nil
	case err != nil:
		e.storageFailed(ctx, logger.Delivery, "delivery.delete_quiz_failed", chatID, err)
		return err
	}
	logger.LogEvent(ctx, logger.Delivery, slog.LevelInfo, "delivery.quiz_deleted",
		slog.String("status", "ok"), slog.Int64("user_id", userID), slog.Int64("quiz_id", quizID))
	e.notify(ctx, chatID, "Quiz deleted.")
	return nil
}

// startRun arms a live run: snapshot the questions and show the
// get-ready card. Nothing goes on the wire until the ready press so
// the owner controls when the chat starts. The whole launch runs
// under the user's session lock so a stray second press cannot start
// two runs.
func (e *Engine) startRun(ctx context.Context, s *session.Session, userID, chatID, quizID int64) error {
	q, err := e.store.GetQuiz(ctx, quizID)
	if errors.Is(err, quiz.ErrNotFound) {
		e.notify(ctx, chatID, "That quiz no longer exists.")
		return nil
	}
	if err != nil {
		e.storageFailed(ctx, logger.Delivery, "delivery.get_quiz_failed", chatID, err)
		return err
	}
	questions, err := e.store.ListQuestions(ctx, quizID)
	if err != nil {
		e.storageFailed(ctx, logger.Delivery, "delivery.list_questions_failed", chatID, err)
		return err
	}
	if len(questions) == 0 {
		e.notify(ctx, chatID, "This quiz has no questions yet.")
		return nil
	}
	if s.Run != nil {
		e.notify(ctx, chatID, "A quiz is already running. Send /stop to abandon it first.")
		return nil
	}

	s.ResetDialogue()
	if err := s.Transition(session.StageStartQuiz); err != nil {
		return err
	}
	s.Run = &session.Run{
		QuizID:       q.ID,
		ChatID:       chatID,
		Title:        q.Title,
		Questions:    questions,
		Polls:        make(map[string]int),
		TimerSeconds: q.TimerSeconds,
		StartedAt:    time.Now(),
	}

	logger.LogEvent(ctx, logger.Delivery, slog.LevelInfo, "run.armed",
		slog.String("status", "ok"),
		slog.Int64("user_id", userID),
		slog.Int64("quiz_id", q.ID),
		slog.Int("questions", len(questions)))

	var b strings.Builder
	fmt.Fprintf(&b, "🎲 Get ready for the quiz <b>'%s'</b>\n\n", EscapeHTML(q.Title))
	fmt.Fprintf(&b, "🖊 %d question(s)\n", len(questions))
	fmt.Fprintf(&b, "⏱ %s per question\n", timerText(e.pollOpenPeriod(q.TimerSeconds)))
	b.WriteString("📰 Votes are visible to the quiz owner\n\n")
	b.WriteString("🏁 Press the button below when you are ready.\nSend /stop to stop it.")
	markup := Markup{{{Label: "I am ready!", Intent: Ready{}}}}
	if _, err := e.tr.Send(ctx, chatID, b.String(), markup); err != nil {
		logger.LogEvent(ctx, logger.Delivery, slog.LevelWarn, "run.ready_prompt_failed",
			slog.String("status", "error"), slog.String("err", err.Error()))
	}
	return nil
}

// beginRun is the ready press: play the countdown and put the first
// poll on the wire. A press with no armed run is a stale button.
func (e *Engine) beginRun(ctx context.Context, s *session.Session, userID, chatID int64) error {
	if s.Stage != session.StageStartQuiz || s.Run == nil {
		e.expired(ctx, s, chatID)
		return nil
	}
	if len(s.Run.Polls) > 0 {
		e.notify(ctx, chatID, "The quiz is already running.")
		return nil
	}
	logger.LogEvent(ctx, logger.Delivery, slog.LevelInfo, "run.started",
		slog.String("status", "ok"),
		slog.Int64("user_id", userID),
		slog.Int64("quiz_id", s.Run.QuizID),
		slog.Int("questions", len(s.Run.Questions)))
	e.countdown(ctx, chatID)
	return e.deliverQuestion(ctx, s.Run)
}

// timerText renders an open period the way the get-ready card shows
// it, switching to minutes past the minute mark.
func timerText(seconds int) string {
	if seconds < 60 {
		return fmt.Sprintf("%d seconds", seconds)
	}
	if seconds%60 == 0 {
		return fmt.Sprintf("%d minute(s)", seconds/60)
	}
	return fmt.Sprintf("%d minute(s) %d seconds", seconds/60, seconds%60)
}

// countdown edits one message through the fixed steps, then removes
// it. Failures degrade to skipping the animation, never to aborting
// the run.
func (e *Engine) countdown(ctx context.Context, chatID int64) {
	msgID, err := e.tr.Send(ctx, chatID, countdownSteps[0], nil)
	if err != nil {
		logger.LogEvent(ctx, logger.Delivery, slog.LevelWarn, "run.countdown_failed",
			slog.String("status", "error"), slog.String("err", err.Error()))
		return
	}
	for _, step := range countdownSteps[1:] {
		e.sleep(ctx, e.countdownStep)
		if err := e.tr.Edit(ctx, chatID, msgID, step); err != nil {
			logger.LogEvent(ctx, logger.Delivery, slog.LevelWarn, "run.countdown_failed",
				slog.String("status", "error"), slog.String("err", err.Error()))
			break
		}
	}
	e.sleep(ctx, e.countdownStep)
	if err := e.tr.Delete(ctx, chatID, msgID); err != nil {
		logger.LogEvent(ctx, logger.Delivery, slog.LevelDebug, "run.countdown_cleanup_failed",
			slog.String("status", "error"), slog.String("err", err.Error()))
	}
}

// deliverQuestion sends the poll for the run's current question,
// working around the transport's field-length limits: an over-long
// question goes out as a plain message with a placeholder poll text,
// over-long options are replaced by letter labels with the full bodies
// in a preceding message.
func (e *Engine) deliverQuestion(ctx context.Context, run *session.Run) error {
	i := run.Index
	q := run.Questions[i]
	prefix := fmt.Sprintf("[%d/%d] ", i+1, len(run.Questions))

	pollQuestion := prefix + q.Text
	if utf8.RuneCountInString(pollQuestion) > importer.MaxQuestionLen {
		e.notify(ctx, run.ChatID, prefix+q.Text)
		pollQuestion = prefix + "Question provided above"
	}

	options := []string(q.Options)
	if overLongOptions(options) {
		var b strings.Builder
		for j, opt := range options {
			fmt.Fprintf(&b, "%c) %s\n", 'A'+j, opt)
		}
		e.notify(ctx, run.ChatID, b.String())
		options = letterLabels(len(options))
	}

	explanation := q.Explanation
	if utf8.RuneCountInString(explanation) >= importer.MaxExplanationLen {
		explanation = ""
	}

	pollID, err := e.tr.SendQuizPoll(ctx, run.ChatID, pollQuestion, options,
		q.CorrectOption, e.pollOpenPeriod(run.TimerSeconds), explanation)
	if err != nil {
		logger.LogEvent(ctx, logger.Delivery, slog.LevelError, "run.send_poll_failed",
			slog.String("status", "error"),
			slog.Int64("quiz_id", run.QuizID),
			slog.Int("question_idx", i),
			slog.String("err", err.Error()))
		e.notify(ctx, run.ChatID, "I could not deliver the next question. Send /stop and try again.")
		return err
	}
	run.Polls[pollID] = i
	return nil
}

// HandlePollAnswer records one answer and drives the run forward.
// Answers to unknown polls or to questions already answered are
// dropped, the first answer stands.
func (e *Engine) HandlePollAnswer(ctx context.Context, userID int64, pollID string, selected int) error {
	return e.sessions.WithLock(userID, func(s *session.Session) error {
		run := s.Run
		if run == nil || s.Stage != session.StageStartQuiz {
			return nil
		}
		idx, ok := run.Polls[pollID]
		if !ok {
			return nil
		}
		q := run.Questions[idx]
		if run.Answered(q.ID) {
			logger.LogEvent(ctx, logger.Delivery, slog.LevelDebug, "run.duplicate_answer",
				slog.String("status", "skip"),
				slog.Int64("user_id", userID),
				slog.Int64("question_id", q.ID))
			return nil
		}

		correct := selected == q.CorrectOption
		run.Answers = append(run.Answers, session.Answer{
			QuestionID:    q.ID,
			SelectedIndex: selected,
			Correct:       correct,
		})
		if correct {
			run.Score++
		}
		if idx == run.Index {
			run.Index++
		}

		if run.Index >= len(run.Questions) {
			return e.completeRun(ctx, s, userID)
		}
		return e.deliverQuestion(ctx, run)
	})
}

// completeRun persists every accumulated answer, one write each, then
// reports the score. A failed write is logged and counted but earlier
// writes stay, bulk persistence is not atomic.
func (e *Engine) completeRun(ctx context.Context, s *session.Session, userID int64) error {
	run := s.Run
	var failed int
	for _, a := range run.Answers {
		err := e.store.SubmitResponse(ctx, quiz.Response{
			UserID:        userID,
			QuizID:        run.QuizID,
			QuestionID:    a.QuestionID,
			SelectedIndex: a.SelectedIndex,
			Correct:       a.Correct,
		})
		if errors.Is(err, quiz.ErrDuplicateResponse) {
			continue
		}
		if err != nil {
			failed++
			logger.LogEvent(ctx, logger.Delivery, slog.LevelError, "run.persist_failed",
				slog.String("status", "error"),
				slog.String("err_code", "STORAGE_ERROR"),
				slog.Int64("question_id", a.QuestionID),
				slog.String("err", err.Error()))
		}
	}

	chatID := run.ChatID
	score, total := run.Score, len(run.Questions)
	logger.LogEvent(ctx, logger.Delivery, slog.LevelInfo, "run.completed",
		slog.String("status", "ok"),
		slog.Int64("user_id", userID),
		slog.Int64("quiz_id", run.QuizID),
		slog.Int("score", score),
		slog.Int("answers", total),
		slog.Int("skipped", failed))

	s.Run = nil
	s.ResetDialogue()

	msg := fmt.Sprintf("🎉 Quiz completed! Your score: %d/%d", score, total)
	if failed > 0 {
		msg += fmt.Sprintf("\n⚠️ %d answers could not be saved for review.", failed)
	}
	e.notify(ctx, chatID, msg)
	return nil
}

// Stop abandons a live run without persisting anything.
func (e *Engine) Stop(ctx context.Context, userID, chatID int64) error {
	return e.sessions.WithLock(userID, func(s *session.Session) error {
		if s.Stage != session.StageStartQuiz || s.Run == nil {
			e.notify(ctx, chatID, "No quiz is running.")
			return nil
		}
		logger.LogEvent(ctx, logger.Delivery, slog.LevelInfo, "run.stopped",
			slog.String("status", "ok"),
			slog.Int64("user_id", userID),
			slog.Int64("quiz_id", s.Run.QuizID),
			slog.Int("answers", len(s.Run.Answers)))
		s.Run = nil
		s.ResetDialogue()
		e.notify(ctx, chatID, "Run stopped. Nothing was recorded.")
		return nil
	})
}

func (e *Engine) sendQuizPage(ctx context.Context, chatID int64, quizzes []quiz.Quiz, page int, folderID int64, kind ListKind, title string) {
	w := pagination.Paginate(quizzes, page, e.pageSize)
	var markup Markup
	for _, q := range w.Items {
		var intent Intent
		if kind == ListReviewQuizzes {
			intent = ReviewQuiz{QuizID: q.ID}
		} else {
			intent = ViewQuiz{QuizID: q.ID}
		}
		markup = append(markup, []Button{{Label: q.Title, Intent: intent}})
	}
	if nav := navRow(w.HasPrev(), w.HasNext(), kind, folderID); nav != nil {
		markup = append(markup, nav)
	}
	if _, err := e.tr.Send(ctx, chatID, title, markup); err != nil {
		logger.LogEvent(ctx, logger.TG, slog.LevelWarn, "list.send_failed",
			slog.String("status", "error"), slog.String("err", err.Error()))
	}
}

func (e *Engine) pollOpenPeriod(timerSeconds int) int {
	if timerSeconds <= 0 {
		return e.openPeriod
	}
	return timerSeconds
}

func overLongOptions(options []string) bool {
	for _, opt := range options {
		if utf8.RuneCountInString(opt) > importer.MaxOptionLen {
			return true
		}
	}
	return false
}

func letterLabels(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = string(rune('A' + i))
	}
	return out
}
