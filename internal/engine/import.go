package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"quizbot/core/logger"
	"quizbot/internal/importer"
	"quizbot/internal/quiz"
	"quizbot/internal/session"
)

// importFolderName is the fallback destination for users who had no
// folders when they started the import. Creation is idempotent.
const importFolderName = "Imported"

// HandleDocument runs the import pipeline on an uploaded file. Invalid
// documents keep the dialogue open so the user can fix and resend;
// a document with at least one valid question is imported partially
// and the skipped questions are itemized in the reply.
func (e *Engine) HandleDocument(ctx context.Context, userID, chatID int64, data []byte) error {
	return e.sessions.WithLock(userID, func(s *session.Session) error {
		if s.Stage != session.StageAwaitingJSONFile {
			return nil
		}

		doc, err := importer.Parse(data)
		if err != nil {
			logger.LogEvent(ctx, logger.Import, slog.LevelInfo, "import.parse_failed",
				slog.String("status", "error"),
				slog.Int64("user_id", userID),
				slog.String("err", err.Error()))
			e.notify(ctx, chatID, "That file is not valid JSON for a quiz. Check the format and send it again.")
			return nil
		}

		rep, err := importer.Validate(doc)
		if err != nil {
			logger.LogEvent(ctx, logger.Import, slog.LevelInfo, "import.refused",
				slog.String("status", "error"),
				slog.Int64("user_id", userID),
				slog.Int("valid", len(rep.Valid)),
				slog.String("err", err.Error()))
			e.notify(ctx, chatID, refusalMessage(err, rep.Errors))
			return nil
		}

		folderID := s.FolderID
		if folderID == 0 {
			folder, err := e.store.CreateFolder(ctx, userID, importFolderName)
			if err != nil {
				e.storageFailed(ctx, logger.Import, "import.create_folder_failed", chatID, err)
				return err
			}
			folderID = folder.ID
		}
		created, err := e.store.CreateQuiz(ctx, quiz.Quiz{
			UserID:       userID,
			FolderID:     folderID,
			Title:        rep.Title,
			Description:  rep.Description,
			TimerSeconds: rep.TimerSeconds,
			Shuffle:      true,
			Shared:       true,
		})
		if err != nil {
			e.storageFailed(ctx, logger.Import, "import.create_quiz_failed", chatID, err)
			return err
		}

		var persisted, failed int
		for _, q := range rep.Valid {
			_, err := e.store.AddQuestion(ctx, quiz.Question{
				QuizID:        created.ID,
				Text:          strings.TrimSpace(q.Text),
				Options:       q.Options,
				CorrectOption: *q.CorrectOption,
				Explanation:   q.Explanation,
			})
			if err != nil {
				failed++
				logger.LogEvent(ctx, logger.Import, slog.LevelError, "import.persist_question_failed",
					slog.String("status", "error"),
					slog.Int64("quiz_id", created.ID),
					slog.String("err", err.Error()))
				continue
			}
			persisted++
		}

		logger.LogEvent(ctx, logger.Import, slog.LevelInfo, "import.completed",
			slog.String("status", "ok"),
			slog.Int64("user_id", userID),
			slog.Int64("quiz_id", created.ID),
			slog.Int("questions", persisted),
			slog.Int("skipped", len(rep.Errors)+failed))

		s.ResetDialogue()
		e.notify(ctx, chatID, importSummary(created.Title, persisted, failed, rep.Errors))
		return nil
	})
}

func refusalMessage(err error, questionErrors []string) string {
	var b strings.Builder
	b.WriteString("I could not import that document:\n")
	fmt.Fprintf(&b, "• %s\n", err.Error())
	for _, msg := range questionErrors {
		fmt.Fprintf(&b, "• %s\n", EscapeHTML(msg))
	}
	b.WriteString("Fix the file and send it again.")
	return b.String()
}

func importSummary(title string, persisted, failed int, skipped []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Quiz %q imported with %d questions.", title, persisted)
	if failed > 0 {
		fmt.Fprintf(&b, "\n⚠️ %d questions could not be stored.", failed)
	}
	if len(skipped) > 0 {
		fmt.Fprintf(&b, "\n\nSkipped %d questions:", len(skipped))
		for _, msg := range skipped {
			fmt.Fprintf(&b, "\n• %s", EscapeHTML(msg))
		}
	}
	return b.String()
}
