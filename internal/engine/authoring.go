package engine

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"unicode/utf8"

	"quizbot/core/logger"
	"quizbot/internal/importer"
	"quizbot/internal/pagination"
	"quizbot/internal/quiz"
	"quizbot/internal/session"
)

// MaxFolderNameLen bounds folder names; other authoring limits are
// shared with the import pipeline.
const MaxFolderNameLen = 50

// numberPrefix strips the "[n/m] " numbering a re-forwarded run poll
// carries so drafts never accumulate stale numbering.
var numberPrefix = regexp.MustCompile(`^\[\d+/\d+\]\s*`)

// timerChoices is the fixed set of open periods offered on /done.
var timerChoices = []struct {
	Label   string
	Seconds int
}{
	{"15s", 15}, {"30s", 30}, {"1m", 60}, {"1m 30s", 90}, {"2m", 120},
}

// BeginCreateFolder starts the folder dialogue, discarding any other
// dialogue in progress.
func (e *Engine) BeginCreateFolder(ctx context.Context, userID, chatID int64) error {
	return e.sessions.WithLock(userID, func(s *session.Session) error {
		s.ResetDialogue()
		if err := s.Transition(session.StageCreateFolder); err != nil {
			return err
		}
		e.notify(ctx, chatID, fmt.Sprintf("Send me a name for the new folder (1-%d characters).", MaxFolderNameLen))
		return nil
	})
}

// BeginQuizCreation starts the authoring dialogue by asking which
// folder the quiz belongs in.
func (e *Engine) BeginQuizCreation(ctx context.Context, userID, chatID int64) error {
	folders, err := e.store.ListFolders(ctx, userID)
	if err != nil {
		e.storageFailed(ctx, logger.Authoring, "authoring.list_folders_failed", chatID, err)
		return err
	}
	if len(folders) == 0 {
		e.notify(ctx, chatID, "You have no folders yet. Create one with /create_folder first.")
		return nil
	}
	return e.sessions.WithLock(userID, func(s *session.Session) error {
		s.ResetDialogue()
		if err := s.Transition(session.StageSelectFolderForQuiz); err != nil {
			return err
		}
		s.FolderPage = 0
		e.sendFolderPage(ctx, chatID, folders, 0, ListAuthorFolders, "Pick a folder for the new quiz:")
		return nil
	})
}

// BeginImport starts the JSON import dialogue by asking which folder
// the quiz should land in. A user with no folders skips the question,
// the quiz goes into an auto-created fallback folder instead.
func (e *Engine) BeginImport(ctx context.Context, userID, chatID int64) error {
	folders, err := e.store.ListFolders(ctx, userID)
	if err != nil {
		e.storageFailed(ctx, logger.Import, "import.list_folders_failed", chatID, err)
		return err
	}
	return e.sessions.WithLock(userID, func(s *session.Session) error {
		s.ResetDialogue()
		if len(folders) == 0 {
			folder, err := e.store.CreateFolder(ctx, userID, importFolderName)
			if err != nil {
				e.storageFailed(ctx, logger.Import, "import.create_folder_failed", chatID, err)
				return err
			}
			if err := s.Transition(session.StageAwaitingJSONFile); err != nil {
				return err
			}
			s.FolderID = folder.ID
			e.sendImportPrompt(ctx, chatID)
			return nil
		}
		if err := s.Transition(session.StageSelectFolderForImport); err != nil {
			return err
		}
		s.FolderPage = 0
		e.sendFolderPage(ctx, chatID, folders, 0, ListImportFolders, "📂 Select a folder where you want to import the quiz:")
		return nil
	})
}

func (e *Engine) selectFolderForImport(ctx context.Context, s *session.Session, chatID, folderID int64) error {
	if s.Stage != session.StageSelectFolderForImport {
		e.expired(ctx, s, chatID)
		return nil
	}
	s.FolderID = folderID
	if err := s.Transition(session.StageAwaitingJSONFile); err != nil {
		return err
	}
	e.sendImportPrompt(ctx, chatID)
	return nil
}

func (e *Engine) sendImportPrompt(ctx context.Context, chatID int64) {
	e.notify(ctx, chatID, "Send me a .json file describing one quiz. Here is the format:")
	markup := Markup{{{Label: "❌ Cancel", Intent: CancelDialogue{}}}}
	if _, err := e.tr.Send(ctx, chatID, "<pre>"+EscapeHTML(importer.SampleJSON)+"</pre>", markup); err != nil {
		logger.LogEvent(ctx, logger.Import, slog.LevelWarn, "import.prompt_failed",
			slog.String("status", "error"), slog.String("err", err.Error()))
	}
}

// HandleText routes a plain message by the current stage. Text outside
// any dialogue is ignored so chatter does not trigger error replies.
func (e *Engine) HandleText(ctx context.Context, userID, chatID int64, text string) error {
	return e.sessions.WithLock(userID, func(s *session.Session) error {
		text = strings.TrimSpace(text)
		switch s.Stage {
		case session.StageCreateFolder, session.StageConfirmFolder:
			return e.folderNameInput(ctx, s, chatID, text)
		case session.StageAwaitingQuizTitle:
			return e.titleInput(ctx, s, chatID, text)
		case session.StageAwaitingDescription:
			return e.descriptionInput(ctx, s, chatID, text)
		case session.StageAwaitingQuizPoll:
			e.notify(ctx, chatID, "Send a quiz poll to add a question, /undo to drop the last one, or /done to finish.")
			return nil
		case session.StageAwaitingJSONFile:
			e.notify(ctx, chatID, "I need a .json document. Attach it as a file.")
			return nil
		case session.StageSelectFolderForQuiz, session.StageSelectFolderForImport:
			e.notify(ctx, chatID, "Use the buttons above to pick a folder.")
			return nil
		default:
			return nil
		}
	})
}

func (e *Engine) folderNameInput(ctx context.Context, s *session.Session, chatID int64, name string) error {
	if name == "" || utf8.RuneCountInString(name) > MaxFolderNameLen {
		e.notify(ctx, chatID, fmt.Sprintf("Folder names must be 1-%d characters. Try again.", MaxFolderNameLen))
		return nil
	}
	s.FolderName = name
	if s.Stage == session.StageCreateFolder {
		if err := s.Transition(session.StageConfirmFolder); err != nil {
			return err
		}
	}
	markup := Markup{{
		{Label: "✅ Create", Intent: ConfirmFolder{Accept: true}},
		{Label: "✏️ Rename", Intent: ConfirmFolder{Accept: false}},
	}}
	if _, err := e.tr.Send(ctx, chatID, fmt.Sprintf("Create folder %q?", name), markup); err != nil {
		logger.LogEvent(ctx, logger.Authoring, slog.LevelWarn, "authoring.prompt_failed",
			slog.String("status", "error"), slog.String("err", err.Error()))
	}
	return nil
}

func (e *Engine) confirmFolder(ctx context.Context, s *session.Session, userID, chatID int64, accept bool) error {
	if s.Stage != session.StageConfirmFolder {
		e.expired(ctx, s, chatID)
		return nil
	}
	if !accept {
		if err := s.Transition(session.StageCreateFolder); err != nil {
			return err
		}
		e.notify(ctx, chatID, "Okay, send another name.")
		return nil
	}
	folder, err := e.store.CreateFolder(ctx, userID, s.FolderName)
	if err != nil {
		e.storageFailed(ctx, logger.Authoring, "authoring.create_folder_failed", chatID, err)
		return err
	}
	logger.LogEvent(ctx, logger.Authoring, slog.LevelInfo, "authoring.folder_created",
		slog.String("status", "ok"),
		slog.Int64("user_id", userID),
		slog.Int64("folder_id", folder.ID))
	s.ResetDialogue()
	e.notify(ctx, chatID, fmt.Sprintf("Folder %q is ready. Add a quiz with /create_quiz.", folder.Name))
	return nil
}

func (e *Engine) selectFolderForQuiz(ctx context.Context, s *session.Session, chatID, folderID int64) error {
	if s.Stage != session.StageSelectFolderForQuiz {
		e.expired(ctx, s, chatID)
		return nil
	}
	s.FolderID = folderID
	if err := s.Transition(session.StageAwaitingQuizTitle); err != nil {
		return err
	}
	e.notify(ctx, chatID, fmt.Sprintf("What is the quiz called? (1-%d characters)", importer.MaxTitleLen))
	return nil
}

func (e *Engine) titleInput(ctx context.Context, s *session.Session, chatID int64, title string) error {
	if title == "" || utf8.RuneCountInString(title) > importer.MaxTitleLen {
		e.notify(ctx, chatID, fmt.Sprintf("Titles must be 1-%d characters. Try again.", importer.MaxTitleLen))
		return nil
	}
	s.QuizTitle = title
	if err := s.Transition(session.StageAwaitingDescription); err != nil {
		return err
	}
	e.notify(ctx, chatID, "Now send a description, or /skip to leave it empty.")
	return nil
}

func (e *Engine) descriptionInput(ctx context.Context, s *session.Session, chatID int64, desc string) error {
	if utf8.RuneCountInString(desc) > importer.MaxDescriptionLen {
		e.notify(ctx, chatID, fmt.Sprintf("Descriptions are limited to %d characters. Try again.", importer.MaxDescriptionLen))
		return nil
	}
	s.QuizDesc = desc
	if err := s.Transition(session.StageAwaitingQuizPoll); err != nil {
		return err
	}
	e.promptForPoll(ctx, chatID)
	return nil
}

func (e *Engine) promptForPoll(ctx context.Context, chatID int64) {
	e.notify(ctx, chatID,
		"Now send each question as a quiz poll (tap 📎 → Poll, pick Quiz mode, mark the right answer). "+
			"Send /done when you have added them all.")
}

// Skip advances past the description step with an empty description.
func (e *Engine) Skip(ctx context.Context, userID, chatID int64) error {
	return e.sessions.WithLock(userID, func(s *session.Session) error {
		if s.Stage != session.StageAwaitingDescription {
			e.notify(ctx, chatID, "Nothing to skip right now.")
			return nil
		}
		return e.descriptionInput(ctx, s, chatID, "")
	})
}

// HandlePoll captures one authored question from a chat poll.
func (e *Engine) HandlePoll(ctx context.Context, userID, chatID int64, p Poll) error {
	return e.sessions.WithLock(userID, func(s *session.Session) error {
		if s.Stage != session.StageAwaitingQuizPoll {
			return nil
		}
		if p.Anonymous {
			e.notify(ctx, chatID, "Anonymous polls cannot be graded. Disable anonymous voting and send it again.")
			return nil
		}
		q := session.DraftQuestion{
			Text:          numberPrefix.ReplaceAllString(strings.TrimSpace(p.Question), ""),
			Options:       p.Options,
			CorrectOption: p.CorrectOption,
			Explanation:   p.Explanation,
		}
		s.Questions = append(s.Questions, q)
		logger.LogEvent(ctx, logger.Authoring, slog.LevelDebug, "authoring.question_captured",
			slog.String("status", "ok"),
			slog.Int64("user_id", userID),
			slog.Int("questions", len(s.Questions)))
		e.notify(ctx, chatID, fmt.Sprintf("Question %d saved. Send another poll, or /done to finish.", len(s.Questions)))
		return nil
	})
}

// Undo steps the authoring dialogue back one notch. What "back" means
// depends on the stage.
func (e *Engine) Undo(ctx context.Context, userID, chatID int64) error {
	return e.sessions.WithLock(userID, func(s *session.Session) error {
		switch s.Stage {
		case session.StageAwaitingQuizTitle:
			s.ResetDialogue()
			e.notify(ctx, chatID, "Quiz creation cancelled.")
		case session.StageAwaitingDescription:
			s.QuizDesc = ""
			if err := s.Transition(session.StageAwaitingQuizTitle); err != nil {
				return err
			}
			e.notify(ctx, chatID, "Description cleared. Send a new title.")
		case session.StageAwaitingQuizPoll:
			if len(s.Questions) == 0 {
				if err := s.Transition(session.StageAwaitingDescription); err != nil {
					return err
				}
				e.notify(ctx, chatID, "No questions yet. Send a description, or /skip.")
				return nil
			}
			s.Questions = s.Questions[:len(s.Questions)-1]
			if len(s.Questions) == 0 {
				e.notify(ctx, chatID, "Last question removed. No questions left.")
			} else {
				e.notify(ctx, chatID, fmt.Sprintf("Last question removed. %d left.", len(s.Questions)))
			}
		default:
			e.notify(ctx, chatID, "Nothing to undo right now.")
		}
		return nil
	})
}

// Done closes the question loop and offers the timer choices.
func (e *Engine) Done(ctx context.Context, userID, chatID int64) error {
	return e.sessions.WithLock(userID, func(s *session.Session) error {
		if s.Stage != session.StageAwaitingQuizPoll {
			e.notify(ctx, chatID, "You are not creating a quiz right now.")
			return nil
		}
		if len(s.Questions) == 0 {
			e.notify(ctx, chatID, "Add at least one question first.")
			return nil
		}
		var row []Button
		for _, tc := range timerChoices {
			row = append(row, Button{Label: tc.Label, Intent: SetTimer{Seconds: tc.Seconds}})
		}
		if _, err := e.tr.Send(ctx, chatID, "How long should each question stay open?", Markup{row}); err != nil {
			logger.LogEvent(ctx, logger.Authoring, slog.LevelWarn, "authoring.prompt_failed",
				slog.String("status", "error"), slog.String("err", err.Error()))
		}
		return nil
	})
}

// Cancel discards the current dialogue, whatever it is building.
func (e *Engine) Cancel(ctx context.Context, userID, chatID int64) error {
	return e.sessions.WithLock(userID, func(s *session.Session) error {
		return e.cancelDialogue(ctx, s, chatID)
	})
}

func (e *Engine) cancelDialogue(ctx context.Context, s *session.Session, chatID int64) error {
	switch s.Stage {
	case session.StageAwaitingQuizTitle, session.StageAwaitingDescription, session.StageAwaitingQuizPoll:
		s.ResetDialogue()
		e.notify(ctx, chatID, "Quiz creation cancelled. The draft is gone.")
	case session.StageSelectFolderForImport, session.StageAwaitingJSONFile:
		s.ResetDialogue()
		e.notify(ctx, chatID, "Import cancelled.")
	case session.StageCreateFolder, session.StageConfirmFolder:
		s.ResetDialogue()
		e.notify(ctx, chatID, "Folder creation cancelled.")
	default:
		e.notify(ctx, chatID, "Nothing to cancel right now.")
	}
	return nil
}

// setTimer persists the draft: the quiz row first, then every question
// in order. A failed question write is reported but earlier writes
// stay (see the completion loop for the same policy on answers).
func (e *Engine) setTimer(ctx context.Context, s *session.Session, userID, chatID int64, seconds int) error {
	if s.Stage != session.StageAwaitingQuizPoll || len(s.Questions) == 0 {
		e.expired(ctx, s, chatID)
		return nil
	}
	created, err := e.store.CreateQuiz(ctx, quiz.Quiz{
		UserID:       userID,
		FolderID:     s.FolderID,
		Title:        s.QuizTitle,
		Description:  s.QuizDesc,
		TimerSeconds: seconds,
		Shuffle:      true,
		Shared:       true,
	})
	if err != nil {
		e.storageFailed(ctx, logger.Authoring, "authoring.create_quiz_failed", chatID, err)
		return err
	}

	var persisted, failed int
	for _, d := range s.Questions {
		_, err := e.store.AddQuestion(ctx, quiz.Question{
			QuizID:        created.ID,
			Text:          d.Text,
			Options:       d.Options,
			CorrectOption: d.CorrectOption,
			Explanation:   d.Explanation,
		})
		if err != nil {
			failed++
			logger.LogEvent(ctx, logger.Authoring, slog.LevelError, "authoring.persist_question_failed",
				slog.String("status", "error"),
				slog.Int64("quiz_id", created.ID),
				slog.String("err", err.Error()))
			continue
		}
		persisted++
	}

	logger.LogEvent(ctx, logger.Authoring, slog.LevelInfo, "authoring.quiz_created",
		slog.String("status", "ok"),
		slog.Int64("user_id", userID),
		slog.Int64("quiz_id", created.ID),
		slog.Int("questions", persisted),
		slog.Int("timer_seconds", seconds))

	s.ResetDialogue()
	msg := fmt.Sprintf("Quiz %q saved with %d questions. Find it under /list_quizzes.", created.Title, persisted)
	if failed > 0 {
		msg = fmt.Sprintf("Quiz %q saved, but %d of %d questions could not be stored.",
			created.Title, failed, persisted+failed)
	}
	e.notify(ctx, chatID, msg)
	return nil
}

// sendFolderPage renders one page of folders with navigation buttons.
func (e *Engine) sendFolderPage(ctx context.Context, chatID int64, folders []quiz.Folder, page int, kind ListKind, title string) {
	w := pagination.Paginate(folders, page, e.pageSize)
	var markup Markup
	for _, f := range w.Items {
		var intent Intent
		switch kind {
		case ListReviewFolders:
			intent = ReviewFolder{FolderID: f.ID}
		case ListAuthorFolders:
			intent = SelectFolderForQuiz{FolderID: f.ID}
		case ListImportFolders:
			intent = SelectFolderForImport{FolderID: f.ID}
		default:
			intent = SelectFolder{FolderID: f.ID}
		}
		markup = append(markup, []Button{{Label: f.Name, Intent: intent}})
	}
	if nav := navRow(w.HasPrev(), w.HasNext(), kind, 0); nav != nil {
		markup = append(markup, nav)
	}
	if _, err := e.tr.Send(ctx, chatID, title, markup); err != nil {
		logger.LogEvent(ctx, logger.TG, slog.LevelWarn, "list.send_failed",
			slog.String("status", "error"), slog.String("err", err.Error()))
	}
}

func navRow(hasPrev, hasNext bool, kind ListKind, folderID int64) []Button {
	var nav []Button
	if hasPrev {
		nav = append(nav, Button{Label: "⬅️", Intent: PagePrev{Kind: kind, FolderID: folderID}})
	}
	if hasNext {
		nav = append(nav, Button{Label: "➡️", Intent: PageNext{Kind: kind, FolderID: folderID}})
	}
	return nav
}
