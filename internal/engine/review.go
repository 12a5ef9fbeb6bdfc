package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"quizbot/core/logger"
	"quizbot/internal/quiz"
	"quizbot/internal/session"
)

// BeginReview opens the review path: folders first, then only quizzes
// the user has answered before.
func (e *Engine) BeginReview(ctx context.Context, userID, chatID int64) error {
	folders, err := e.store.ListFolders(ctx, userID)
	if err != nil {
		e.storageFailed(ctx, logger.Delivery, "review.list_folders_failed", chatID, err)
		return err
	}
	if len(folders) == 0 {
		e.notify(ctx, chatID, "You have no folders yet, so there is nothing to review.")
		return nil
	}
	return e.sessions.WithLock(userID, func(s *session.Session) error {
		s.ResetDialogue()
		if err := s.Transition(session.StageReviewFolder); err != nil {
			return err
		}
		s.FolderPage = 0
		e.sendFolderPage(ctx, chatID, folders, 0, ListReviewFolders, "Review answers from which folder?")
		return nil
	})
}

func (e *Engine) reviewFolder(ctx context.Context, s *session.Session, userID, chatID, folderID int64) error {
	if s.Stage != session.StageReviewFolder && s.Stage != session.StageReviewQuiz {
		e.expired(ctx, s, chatID)
		return nil
	}
	reviewable, err := e.reviewableQuizzes(ctx, userID, folderID)
	if err != nil {
		e.storageFailed(ctx, logger.Delivery, "review.list_quizzes_failed", chatID, err)
		return err
	}
	if len(reviewable) == 0 {
		e.notify(ctx, chatID, "You have not completed any quiz in this folder yet.")
		return nil
	}

	if s.Stage == session.StageReviewFolder {
		if err := s.Transition(session.StageReviewQuiz); err != nil {
			return err
		}
	}
	s.ReviewFolderID = folderID
	s.QuizPage = 0
	e.sendQuizPage(ctx, chatID, reviewable, 0, folderID, ListReviewQuizzes, "Pick a quiz to review:")
	return nil
}

// reviewableQuizzes returns the folder's quizzes the user has at
// least one recorded response for, in listing order.
func (e *Engine) reviewableQuizzes(ctx context.Context, userID, folderID int64) ([]quiz.Quiz, error) {
	answered, err := e.store.QuizIDsWithResponses(ctx, userID, folderID)
	if err != nil {
		return nil, err
	}
	if len(answered) == 0 {
		return nil, nil
	}
	quizzes, err := e.store.ListQuizzes(ctx, folderID, userID)
	if err != nil {
		return nil, err
	}
	answeredSet := make(map[int64]bool, len(answered))
	for _, id := range answered {
		answeredSet[id] = true
	}
	var out []quiz.Quiz
	for _, q := range quizzes {
		if answeredSet[q.ID] {
			out = append(out, q)
		}
	}
	return out, nil
}

// reviewQuiz renders one message per answered question, then a tally.
// Questions without a recorded response are skipped silently.
func (e *Engine) reviewQuiz(ctx context.Context, s *session.Session, userID, chatID, quizID int64) error {
	q, err := e.store.GetQuiz(ctx, quizID)
	if errors.Is(err, quiz.ErrNotFound) {
		e.notify(ctx, chatID, "That quiz no longer exists.")
		return nil
	}
	if err != nil {
		e.storageFailed(ctx, logger.Delivery, "review.get_quiz_failed", chatID, err)
		return err
	}
	questions, err := e.store.ListQuestions(ctx, quizID)
	if err != nil {
		e.storageFailed(ctx, logger.Delivery, "review.list_questions_failed", chatID, err)
		return err
	}
	responses, err := e.store.ListResponses(ctx, userID, quizID)
	if err != nil {
		e.storageFailed(ctx, logger.Delivery, "review.list_responses_failed", chatID, err)
		return err
	}

	byQuestion := make(map[int64]quiz.Response, len(responses))
	for _, r := range responses {
		byQuestion[r.QuestionID] = r
	}

	e.notify(ctx, chatID, fmt.Sprintf("Your answers for <b>%s</b>:", EscapeHTML(q.Title)))

	var correct, answered int
	for i, question := range questions {
		r, ok := byQuestion[question.ID]
		if !ok {
			continue
		}
		answered++
		if r.Correct {
			correct++
		}
		e.sleep(ctx, e.reviewThrottle)
		e.notify(ctx, chatID, renderAnswer(i+1, question, r))
	}

	logger.LogEvent(ctx, logger.Delivery, slog.LevelInfo, "review.rendered",
		slog.String("status", "ok"),
		slog.Int64("user_id", userID),
		slog.Int64("quiz_id", quizID),
		slog.Int("answers", answered),
		slog.Int("score", correct))

	e.sleep(ctx, e.reviewThrottle)
	e.notify(ctx, chatID, fmt.Sprintf("You answered %d of %d correctly.", correct, answered))
	s.ResetDialogue()
	return nil
}

func renderAnswer(num int, q quiz.Question, r quiz.Response) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>Question %d:</b> %s\n", num, EscapeHTML(q.Text))

	chosen := optionText(q.Options, r.SelectedIndex)
	if r.Correct {
		fmt.Fprintf(&b, "✅ Your answer: %s", EscapeHTML(chosen))
	} else {
		fmt.Fprintf(&b, "❌ Your answer: %s\n", EscapeHTML(chosen))
		fmt.Fprintf(&b, "✅ Correct answer: %s", EscapeHTML(optionText(q.Options, q.CorrectOption)))
	}
	if q.Explanation != "" {
		fmt.Fprintf(&b, "\n<i>%s</i>", EscapeHTML(q.Explanation))
	}
	return b.String()
}

func optionText(options []string, idx int) string {
	if idx < 0 || idx >= len(options) {
		return "(unknown)"
	}
	return options[idx]
}
