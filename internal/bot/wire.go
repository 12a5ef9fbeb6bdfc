package bot

import (
	"fmt"
	"strconv"

	tele "gopkg.in/telebot.v4"

	"quizbot/core/telegram/keyboard"
	"quizbot/internal/engine"
)

// Callback keys. Each key maps to exactly one intent type; payload
// encoding is private to this file, the engine only ever sees parsed
// engine.Intent values.
const (
	cbFolderOpen    = "fld_open"
	cbFolderForQuiz = "fld_quiz"
	cbFolderImport  = "fld_imp"
	cbFolderConfirm = "fld_confirm"
	cbFolderDelete  = "fld_del"
	cbQuizView      = "qz_view"
	cbQuizStart     = "qz_start"
	cbRunReady      = "run_ready"
	cbQuizDelete    = "qz_del"
	cbQuizTimer     = "qz_timer"
	cbReviewFolder  = "rev_fld"
	cbReviewQuiz    = "rev_qz"
	cbPageNext      = "pg_next"
	cbPagePrev      = "pg_prev"
	cbCancel        = "dlg_cancel"
)

const payloadSep = "|"

func encodeIntent(intent engine.Intent) (unique, payload string, err error) {
	switch it := intent.(type) {
	case engine.SelectFolder:
		return cbFolderOpen, strconv.FormatInt(it.FolderID, 10), nil
	case engine.SelectFolderForQuiz:
		return cbFolderForQuiz, strconv.FormatInt(it.FolderID, 10), nil
	case engine.SelectFolderForImport:
		return cbFolderImport, strconv.FormatInt(it.FolderID, 10), nil
	case engine.ConfirmFolder:
		if it.Accept {
			return cbFolderConfirm, "1", nil
		}
		return cbFolderConfirm, "0", nil
	case engine.DeleteFolder:
		return cbFolderDelete, strconv.FormatInt(it.FolderID, 10), nil
	case engine.ViewQuiz:
		return cbQuizView, strconv.FormatInt(it.QuizID, 10), nil
	case engine.StartQuiz:
		return cbQuizStart, strconv.FormatInt(it.QuizID, 10), nil
	case engine.Ready:
		return cbRunReady, "", nil
	case engine.DeleteQuiz:
		return cbQuizDelete, strconv.FormatInt(it.QuizID, 10), nil
	case engine.SetTimer:
		return cbQuizTimer, strconv.Itoa(it.Seconds), nil
	case engine.ReviewFolder:
		return cbReviewFolder, strconv.FormatInt(it.FolderID, 10), nil
	case engine.ReviewQuiz:
		return cbReviewQuiz, strconv.FormatInt(it.QuizID, 10), nil
	case engine.CancelDialogue:
		return cbCancel, "", nil
	case engine.PageNext:
		return cbPageNext, encodePage(it.Kind, it.FolderID), nil
	case engine.PagePrev:
		return cbPagePrev, encodePage(it.Kind, it.FolderID), nil
	default:
		return "", "", fmt.Errorf("unsupported intent %T", intent)
	}
}

func encodePage(kind engine.ListKind, folderID int64) string {
	return string(kind) + payloadSep + strconv.FormatInt(folderID, 10)
}

func decodePage(payload []string) (engine.ListKind, int64, error) {
	if len(payload) != 2 {
		return "", 0, fmt.Errorf("page payload wants 2 parts, got %d", len(payload))
	}
	folderID, err := strconv.ParseInt(payload[1], 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("page payload folder id: %w", err)
	}
	switch kind := engine.ListKind(payload[0]); kind {
	case engine.ListFolders, engine.ListAuthorFolders, engine.ListImportFolders,
		engine.ListQuizzes, engine.ListReviewFolders, engine.ListReviewQuizzes:
		return kind, folderID, nil
	default:
		return "", 0, fmt.Errorf("unknown list kind %q", payload[0])
	}
}

// teleMarkup converts an engine keyboard into a telebot inline markup.
// Buttons whose intent cannot be encoded are dropped rather than sent
// with a broken payload.
func teleMarkup(m engine.Markup) (*tele.ReplyMarkup, error) {
	if len(m) == 0 {
		return nil, nil
	}
	rows := make([][]keyboard.InlineBtn, 0, len(m))
	for _, row := range m {
		btns := make([]keyboard.InlineBtn, 0, len(row))
		for _, b := range row {
			unique, payload, err := encodeIntent(b.Intent)
			if err != nil {
				return nil, err
			}
			btns = append(btns, keyboard.InlineBtn{Text: b.Label, Unique: unique, Data: payload})
		}
		rows = append(rows, btns)
	}
	return keyboard.InlineButtonsRows(rows...), nil
}
