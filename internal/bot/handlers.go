package bot

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"quizbot/core/logger"
	"quizbot/core/telegram/callbacks"
	"quizbot/core/telegram/commands"
	"quizbot/core/telegram/helpers"
	"quizbot/internal/engine"
	"quizbot/internal/quiz"
)

// Imported documents are read fully into memory; anything bigger than
// this is refused before download.
const maxImportFileSize = 1 << 20

func (a *App) registerCommands() {
	a.reg.RegisterCommand("/start", commands.Command{
		Handler:     a.cmdStart,
		Description: "Register yourself and reset the dialogue",
	})
	a.reg.RegisterCommand("/help", commands.Command{
		Handler:     a.cmdHelp,
		Description: "Show the help menu",
	})
	a.reg.RegisterCommand("/create_folder", commands.Command{
		Handler:     a.cmdCreateFolder,
		Description: "Create a folder for your quizzes",
		Aliases:     []string{"add_folder"},
	})
	a.reg.RegisterCommand("/delete_folder", commands.Command{
		Handler:     a.cmdDeleteFolder,
		Description: "Delete a folder with everything in it",
	})
	a.reg.RegisterCommand("/create_quiz", commands.Command{
		Handler:     a.cmdCreateQuiz,
		Description: "Author a new quiz from chat polls",
		Aliases:     []string{"new_quiz"},
	})
	a.reg.RegisterCommand("/list_quizzes", commands.Command{
		Handler:     a.cmdListQuizzes,
		Description: "Browse your folders and quizzes",
		Aliases:     []string{"quizzes"},
	})
	a.reg.RegisterCommand("/import", commands.Command{
		Handler:     a.cmdImport,
		Description: "Import a quiz from a JSON file",
	})
	a.reg.RegisterCommand("/review", commands.Command{
		Handler:     a.cmdReview,
		Description: "Review your answers for completed quizzes",
	})
	a.reg.RegisterCommand("/confirm_folder", commands.Command{
		Handler:     a.cmdConfirmFolder,
		Description: "Confirm the pending folder name",
		Hidden:      true,
	})
	a.reg.RegisterCommand("/skip", commands.Command{
		Handler:     a.cmdSkip,
		Description: "Skip the optional description step",
		Hidden:      true,
	})
	a.reg.RegisterCommand("/undo", commands.Command{
		Handler:     a.cmdUndo,
		Description: "Undo the last authoring step",
		Hidden:      true,
	})
	a.reg.RegisterCommand("/done", commands.Command{
		Handler:     a.cmdDone,
		Description: "Finish the quiz and pick a timer",
		Hidden:      true,
	})
	a.reg.RegisterCommand("/cancel", commands.Command{
		Handler:     a.cmdCancel,
		Description: "Abort the current dialogue",
	})
	a.reg.RegisterCommand("/stop", commands.Command{
		Handler:     a.cmdStop,
		Description: "Stop the running quiz",
	})
}

func (a *App) registerCallbacks() {
	parsers := map[string]func(c tele.Context) (engine.Intent, error){
		cbFolderOpen: func(c tele.Context) (engine.Intent, error) {
			id, err := callbacks.PayloadInt64(c)
			return engine.SelectFolder{FolderID: id}, err
		},
		cbFolderForQuiz: func(c tele.Context) (engine.Intent, error) {
			id, err := callbacks.PayloadInt64(c)
			return engine.SelectFolderForQuiz{FolderID: id}, err
		},
		cbFolderImport: func(c tele.Context) (engine.Intent, error) {
			id, err := callbacks.PayloadInt64(c)
			return engine.SelectFolderForImport{FolderID: id}, err
		},
		cbFolderConfirm: func(c tele.Context) (engine.Intent, error) {
			return engine.ConfirmFolder{Accept: callbacks.CallbackPayload(c) == "1"}, nil
		},
		cbFolderDelete: func(c tele.Context) (engine.Intent, error) {
			id, err := callbacks.PayloadInt64(c)
			return engine.DeleteFolder{FolderID: id}, err
		},
		cbQuizView: func(c tele.Context) (engine.Intent, error) {
			id, err := callbacks.PayloadInt64(c)
			return engine.ViewQuiz{QuizID: id}, err
		},
		cbQuizStart: func(c tele.Context) (engine.Intent, error) {
			id, err := callbacks.PayloadInt64(c)
			return engine.StartQuiz{QuizID: id}, err
		},
		cbRunReady: func(c tele.Context) (engine.Intent, error) {
			return engine.Ready{}, nil
		},
		cbQuizDelete: func(c tele.Context) (engine.Intent, error) {
			id, err := callbacks.PayloadInt64(c)
			return engine.DeleteQuiz{QuizID: id}, err
		},
		cbQuizTimer: func(c tele.Context) (engine.Intent, error) {
			seconds, err := callbacks.PayloadInt(c)
			return engine.SetTimer{Seconds: seconds}, err
		},
		cbReviewFolder: func(c tele.Context) (engine.Intent, error) {
			id, err := callbacks.PayloadInt64(c)
			return engine.ReviewFolder{FolderID: id}, err
		},
		cbReviewQuiz: func(c tele.Context) (engine.Intent, error) {
			id, err := callbacks.PayloadInt64(c)
			return engine.ReviewQuiz{QuizID: id}, err
		},
		cbCancel: func(c tele.Context) (engine.Intent, error) {
			return engine.CancelDialogue{}, nil
		},
		cbPageNext: func(c tele.Context) (engine.Intent, error) {
			parts, err := callbacks.PayloadParts(c, payloadSep)
			if err != nil {
				return nil, err
			}
			kind, folderID, err := decodePage(parts)
			return engine.PageNext{Kind: kind, FolderID: folderID}, err
		},
		cbPagePrev: func(c tele.Context) (engine.Intent, error) {
			parts, err := callbacks.PayloadParts(c, payloadSep)
			if err != nil {
				return nil, err
			}
			kind, folderID, err := decodePage(parts)
			return engine.PagePrev{Kind: kind, FolderID: folderID}, err
		},
	}

	for key, parse := range parsers {
		key, parse := key, parse
		_ = a.reg.RegisterCallback(key, func(c tele.Context) error {
			intent, err := parse(c)
			if err != nil {
				ctx := helpers.BuildContext(c)
				logger.LogEvent(ctx, logger.TG, slog.LevelWarn, "callback.malformed",
					slog.String("status", "skip"),
					slog.String("cb_key", key),
					slog.String("err", err.Error()))
				return c.Respond(&tele.CallbackResponse{Text: "This button has expired."})
			}
			return a.dispatch(c, intent)
		})
	}
}

func (a *App) dispatch(c tele.Context, intent engine.Intent) error {
	sender := c.Sender()
	chat := c.Chat()
	if sender == nil || chat == nil {
		return nil
	}
	return a.engine.HandleIntent(helpers.BuildContext(c), sender.ID, chat.ID, intent)
}

// ManagerHandler receives text, document, and poll updates while a
// dialogue is open and forwards them to the matching engine entry.
func (a *App) ManagerHandler(c tele.Context) error {
	sender := c.Sender()
	chat := c.Chat()
	msg := c.Message()
	if sender == nil || chat == nil || msg == nil {
		return nil
	}
	ctx := helpers.BuildContext(c)

	switch {
	case msg.Poll != nil:
		p := msg.Poll
		if p.Type != tele.PollQuiz {
			return helpers.SendHTML(c, "That is a regular poll. I need a <b>quiz</b> poll with one correct answer.")
		}
		options := make([]string, 0, len(p.Options))
		for _, opt := range p.Options {
			options = append(options, opt.Text)
		}
		return a.engine.HandlePoll(ctx, sender.ID, chat.ID, engine.Poll{
			Question:      p.Question,
			Options:       options,
			CorrectOption: p.CorrectOption,
			Explanation:   p.Explanation,
			Anonymous:     p.Anonymous,
		})
	case msg.Document != nil:
		data, err := a.downloadDocument(c, msg.Document)
		if err != nil {
			logger.LogEvent(ctx, logger.Import, slog.LevelWarn, "import.download_failed",
				slog.String("status", "error"),
				slog.String("err", err.Error()))
			return helpers.SendHTML(c, "I could not read that file. Attach a JSON document under 1 MB.")
		}
		return a.engine.HandleDocument(ctx, sender.ID, chat.ID, data)
	default:
		return a.engine.HandleText(ctx, sender.ID, chat.ID, c.Text())
	}
}

func (a *App) downloadDocument(c tele.Context, doc *tele.Document) ([]byte, error) {
	if doc.FileSize > maxImportFileSize {
		return nil, fmt.Errorf("document too large: %d bytes", doc.FileSize)
	}
	rc, err := c.Bot().File(&doc.File)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(io.LimitReader(rc, maxImportFileSize))
}

func (a *App) handlePollAnswer(c tele.Context) error {
	pa := c.PollAnswer()
	if pa == nil || pa.Sender == nil || len(pa.Options) == 0 {
		return nil
	}
	ctx := helpers.BuildContext(c)
	return a.engine.HandlePollAnswer(ctx, pa.Sender.ID, pa.PollID, pa.Options[0])
}

func (a *App) cmdStart(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	ctx := helpers.BuildContext(c)
	u := quiz.User{
		ID:        sender.ID,
		Username:  sender.Username,
		FirstName: sender.FirstName,
		LastName:  sender.LastName,
	}
	if err := a.store.UpsertUser(ctx, u); err != nil {
		logger.LogEvent(ctx, logger.DB, slog.LevelError, "user.upsert_failed",
			slog.String("status", "error"),
			slog.Int64("user_id", sender.ID),
			slog.String("err", err.Error()))
		return helpers.SendHTML(c, "⚠️ <b>Failed to start.</b>\n\nPlease try again later.")
	}
	a.sessions.Reset(sender.ID)
	name := engine.EscapeHTML(sender.FirstName)
	return helpers.SendHTML(c, fmt.Sprintf("👋 <b>Welcome, %s!</b>\n\nUse /help to see available commands.", name))
}

func (a *App) cmdHelp(c tele.Context) error {
	return helpers.SendHTML(c, helpText)
}

func (a *App) cmdCreateFolder(c tele.Context) error {
	return a.withEngine(c, a.engine.BeginCreateFolder)
}

func (a *App) cmdDeleteFolder(c tele.Context) error {
	return a.withEngine(c, a.engine.BeginDeleteFolder)
}

func (a *App) cmdCreateQuiz(c tele.Context) error {
	return a.withEngine(c, a.engine.BeginQuizCreation)
}

func (a *App) cmdListQuizzes(c tele.Context) error {
	return a.withEngine(c, a.engine.BrowseFolders)
}

func (a *App) cmdImport(c tele.Context) error {
	return a.withEngine(c, a.engine.BeginImport)
}

func (a *App) cmdReview(c tele.Context) error {
	return a.withEngine(c, a.engine.BeginReview)
}

func (a *App) cmdConfirmFolder(c tele.Context) error {
	return a.dispatch(c, engine.ConfirmFolder{Accept: true})
}

func (a *App) cmdSkip(c tele.Context) error {
	return a.withEngine(c, a.engine.Skip)
}

func (a *App) cmdUndo(c tele.Context) error {
	return a.withEngine(c, a.engine.Undo)
}

func (a *App) cmdDone(c tele.Context) error {
	return a.withEngine(c, a.engine.Done)
}

func (a *App) cmdCancel(c tele.Context) error {
	return a.withEngine(c, a.engine.Cancel)
}

func (a *App) cmdStop(c tele.Context) error {
	return a.withEngine(c, a.engine.Stop)
}

func (a *App) withEngine(c tele.Context, fn func(ctx context.Context, userID, chatID int64) error) error {
	sender := c.Sender()
	chat := c.Chat()
	if sender == nil || chat == nil {
		return nil
	}
	return fn(helpers.BuildContext(c), sender.ID, chat.ID)
}

const helpText = `ℹ️ <b>Help Menu</b>

Here are the available commands:

/start - Register yourself and reset the dialogue
/help - Show this help menu
/create_folder - Create a new folder to organize your quizzes
/delete_folder - Delete an existing folder
/create_quiz - Start creating a new quiz by selecting a folder
/list_quizzes - View quizzes in a selected folder
/import - Import a quiz from a JSON file
/review - Review your answers for completed quizzes
/skip - Skip optional steps like the quiz description
/undo - Undo the last step in quiz creation
/done - Finish creating a quiz and set a timer for questions
/cancel - Cancel the current dialogue
/stop - Stop an ongoing quiz

📝 <b>Quiz Creation</b>

1. Use /create_quiz or /import
2. Select a folder
3. For /create_quiz: provide a title, optionally a description, then add questions as non-anonymous quiz polls and finish with /done
4. For /import: send a JSON file with title, description, timer, and questions

🎯 <b>Taking Quizzes</b>

• Pick a quiz under /list_quizzes
• Each question has a timer
• Review your results later with /review
• Use /stop to end a run early`
