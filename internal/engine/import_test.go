package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"quizbot/internal/session"
)

func beginImport(t *testing.T, e *Engine) {
	t.Helper()
	require.NoError(t, e.BeginImport(context.Background(), testUser, testChat))
}

func TestImportCreatesQuizInImportFolder(t *testing.T) {
	e, store, tr, sessions := newTestEngine()
	ctx := context.Background()
	beginImport(t, e)

	doc := []byte(`{
		"title": "Capitals",
		"questions": [
			{"text": "Capital of France?", "options": ["Paris", "London"], "correctOption": 0}
		]
	}`)
	require.NoError(t, e.HandleDocument(ctx, testUser, testChat, doc))

	folders, _ := store.ListFolders(ctx, testUser)
	require.Len(t, folders, 1)
	require.Equal(t, importFolderName, folders[0].Name)

	quizzes, _ := store.ListQuizzes(ctx, folders[0].ID, testUser)
	require.Len(t, quizzes, 1)
	require.Equal(t, "Capitals", quizzes[0].Title)
	require.Equal(t, 30, quizzes[0].TimerSeconds)

	questions, _ := store.ListQuestions(ctx, quizzes[0].ID)
	require.Len(t, questions, 1)

	require.Contains(t, tr.lastText(), `imported with 1 questions`)
	sess, _ := sessions.Peek(testUser)
	require.Equal(t, session.StageIdle, sess.Stage)
}

func TestImportPartialSuccessListsSkipped(t *testing.T) {
	e, store, tr, _ := newTestEngine()
	ctx := context.Background()
	beginImport(t, e)

	doc := []byte(`{
		"title": "Capitals",
		"questions": [
			{"text": "Capital of France?", "options": ["Paris", "London"], "correctOption": 0},
			{"options": ["Yes", "No"], "correctOption": 0}
		]
	}`)
	require.NoError(t, e.HandleDocument(ctx, testUser, testChat, doc))

	folders, _ := store.ListFolders(ctx, testUser)
	quizzes, _ := store.ListQuizzes(ctx, folders[0].ID, testUser)
	questions, _ := store.ListQuestions(ctx, quizzes[0].ID)
	require.Len(t, questions, 1)

	last := tr.lastText()
	require.Contains(t, last, "Skipped 1 questions")
	require.Contains(t, last, "Question 2")
}

func TestImportRefusedKeepsDialogueOpen(t *testing.T) {
	e, store, tr, sessions := newTestEngine()
	ctx := context.Background()
	beginImport(t, e)

	require.NoError(t, e.HandleDocument(ctx, testUser, testChat, []byte(`{"title": "x"}`)))
	require.Contains(t, tr.lastText(), "could not import")

	sess, _ := sessions.Peek(testUser)
	require.Equal(t, session.StageAwaitingJSONFile, sess.Stage)

	quizzes, _ := store.ListQuizzes(ctx, 1, testUser)
	require.Empty(t, quizzes)
}

func TestImportMalformedJSON(t *testing.T) {
	e, _, tr, sessions := newTestEngine()
	ctx := context.Background()
	beginImport(t, e)

	require.NoError(t, e.HandleDocument(ctx, testUser, testChat, []byte(`not json`)))
	require.Contains(t, tr.lastText(), "not valid JSON")

	sess, _ := sessions.Peek(testUser)
	require.Equal(t, session.StageAwaitingJSONFile, sess.Stage)
}

func TestImportAsksForFolderWhenFoldersExist(t *testing.T) {
	e, store, tr, sessions := newTestEngine()
	ctx := context.Background()
	folder, err := store.CreateFolder(ctx, testUser, "Trivia")
	require.NoError(t, err)

	require.NoError(t, e.BeginImport(ctx, testUser, testChat))
	sess, _ := sessions.Peek(testUser)
	require.Equal(t, session.StageSelectFolderForImport, sess.Stage)

	page := tr.Sends[len(tr.Sends)-1]
	require.Contains(t, page.Text, "Select a folder")
	require.Equal(t, "Trivia", page.Markup[0][0].Label)
	require.Equal(t, SelectFolderForImport{FolderID: folder.ID}, page.Markup[0][0].Intent)

	require.NoError(t, e.HandleIntent(ctx, testUser, testChat, SelectFolderForImport{FolderID: folder.ID}))
	sess, _ = sessions.Peek(testUser)
	require.Equal(t, session.StageAwaitingJSONFile, sess.Stage)

	doc := []byte(`{
		"title": "Capitals",
		"questions": [
			{"text": "Capital of France?", "options": ["Paris", "London"], "correctOption": 0}
		]
	}`)
	require.NoError(t, e.HandleDocument(ctx, testUser, testChat, doc))

	quizzes, _ := store.ListQuizzes(ctx, folder.ID, testUser)
	require.Len(t, quizzes, 1)
	require.Equal(t, "Capitals", quizzes[0].Title)

	// No fallback folder was created.
	folders, _ := store.ListFolders(ctx, testUser)
	require.Len(t, folders, 1)
}

func TestImportFolderButtonIgnoredOutsideSelection(t *testing.T) {
	e, store, tr, _ := newTestEngine()
	ctx := context.Background()
	folder, err := store.CreateFolder(ctx, testUser, "Trivia")
	require.NoError(t, err)

	require.NoError(t, e.HandleIntent(ctx, testUser, testChat, SelectFolderForImport{FolderID: folder.ID}))
	require.Contains(t, tr.lastText(), "expired")
}

func TestImportCancelledDuringFolderSelection(t *testing.T) {
	e, store, tr, sessions := newTestEngine()
	ctx := context.Background()
	_, err := store.CreateFolder(ctx, testUser, "Trivia")
	require.NoError(t, err)

	require.NoError(t, e.BeginImport(ctx, testUser, testChat))
	require.NoError(t, e.HandleIntent(ctx, testUser, testChat, CancelDialogue{}))
	require.Contains(t, tr.lastText(), "Import cancelled")
	sess, _ := sessions.Peek(testUser)
	require.Equal(t, session.StageIdle, sess.Stage)
}

func TestDocumentIgnoredOutsideImportStage(t *testing.T) {
	e, store, _, _ := newTestEngine()
	ctx := context.Background()

	require.NoError(t, e.HandleDocument(ctx, testUser, testChat, []byte(`{"title":"x"}`)))
	folders, _ := store.ListFolders(ctx, testUser)
	require.Empty(t, folders)
}
