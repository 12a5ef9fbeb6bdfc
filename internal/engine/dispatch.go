package engine

import (
	"context"
	"fmt"
	"log/slog"

	"quizbot/core/logger"
	"quizbot/internal/pagination"
	"quizbot/internal/quiz"
	"quizbot/internal/session"
)

// HandleIntent dispatches a parsed button press. Every intent type is
// handled here; the transport layer never routes on payload strings.
func (e *Engine) HandleIntent(ctx context.Context, userID, chatID int64, intent Intent) error {
	return e.sessions.WithLock(userID, func(s *session.Session) error {
		switch it := intent.(type) {
		case ConfirmFolder:
			return e.confirmFolder(ctx, s, userID, chatID, it.Accept)
		case SelectFolderForQuiz:
			return e.selectFolderForQuiz(ctx, s, chatID, it.FolderID)
		case SelectFolderForImport:
			return e.selectFolderForImport(ctx, s, chatID, it.FolderID)
		case SelectFolder:
			return e.selectFolder(ctx, s, userID, chatID, it.FolderID)
		case DeleteFolder:
			return e.deleteFolder(ctx, userID, chatID, it.FolderID)
		case ViewQuiz:
			return e.viewQuiz(ctx, userID, chatID, it.QuizID)
		case StartQuiz:
			return e.startRun(ctx, s, userID, chatID, it.QuizID)
		case Ready:
			return e.beginRun(ctx, s, userID, chatID)
		case DeleteQuiz:
			return e.deleteQuiz(ctx, userID, chatID, it.QuizID)
		case SetTimer:
			return e.setTimer(ctx, s, userID, chatID, it.Seconds)
		case ReviewFolder:
			return e.reviewFolder(ctx, s, userID, chatID, it.FolderID)
		case ReviewQuiz:
			return e.reviewQuiz(ctx, s, userID, chatID, it.QuizID)
		case PageNext:
			return e.movePage(ctx, s, userID, chatID, it.Kind, it.FolderID, 1)
		case CancelDialogue:
			return e.cancelDialogue(ctx, s, chatID)
		case PagePrev:
			return e.movePage(ctx, s, userID, chatID, it.Kind, it.FolderID, -1)
		default:
			logger.LogEvent(ctx, logger.TG, slog.LevelWarn, "intent.unknown",
				slog.String("status", "skip"),
				slog.String("payload", fmt.Sprintf("%T", intent)))
			return nil
		}
	})
}

// movePage shifts a listing window. The target page is clamped, so a
// stale navigation button on the last page simply redraws it.
func (e *Engine) movePage(ctx context.Context, s *session.Session, userID, chatID int64, kind ListKind, folderID int64, delta int) error {
	switch kind {
	case ListFolders, ListAuthorFolders, ListImportFolders, ListReviewFolders:
		folders, err := e.store.ListFolders(ctx, userID)
		if err != nil {
			e.storageFailed(ctx, logger.Delivery, "delivery.list_folders_failed", chatID, err)
			return err
		}
		pages := pagination.PageCount(len(folders), e.pageSize)
		s.FolderPage = pagination.Clamp(s.FolderPage+delta, pages)
		e.sendFolderPage(ctx, chatID, folders, s.FolderPage, kind, folderListTitle(kind))
		return nil

	case ListQuizzes:
		quizzes, err := e.store.ListQuizzes(ctx, folderID, userID)
		if err != nil {
			e.storageFailed(ctx, logger.Delivery, "delivery.list_quizzes_failed", chatID, err)
			return err
		}
		return e.redrawQuizPage(ctx, s, chatID, quizzes, folderID, kind, delta, "Quizzes in this folder:")

	case ListReviewQuizzes:
		quizzes, err := e.reviewableQuizzes(ctx, userID, folderID)
		if err != nil {
			e.storageFailed(ctx, logger.Delivery, "review.list_quizzes_failed", chatID, err)
			return err
		}
		return e.redrawQuizPage(ctx, s, chatID, quizzes, folderID, kind, delta, "Pick a quiz to review:")
	}
	return nil
}

func (e *Engine) redrawQuizPage(ctx context.Context, s *session.Session, chatID int64, quizzes []quiz.Quiz, folderID int64, kind ListKind, delta int, title string) error {
	pages := pagination.PageCount(len(quizzes), e.pageSize)
	s.QuizPage = pagination.Clamp(s.QuizPage+delta, pages)
	e.sendQuizPage(ctx, chatID, quizzes, s.QuizPage, folderID, kind, title)
	return nil
}

func folderListTitle(kind ListKind) string {
	switch kind {
	case ListAuthorFolders:
		return "Pick a folder for the new quiz:"
	case ListImportFolders:
		return "📂 Select a folder where you want to import the quiz:"
	case ListReviewFolders:
		return "Review answers from which folder?"
	default:
		return "Your folders:"
	}
}
