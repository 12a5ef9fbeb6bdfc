package engine

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"quizbot/internal/session"
)

const (
	testUser int64 = 100
	testChat int64 = 200
)

func TestFolderCreationFlow(t *testing.T) {
	e, store, tr, sessions := newTestEngine()
	ctx := context.Background()

	require.NoError(t, e.BeginCreateFolder(ctx, testUser, testChat))
	sess, _ := sessions.Peek(testUser)
	require.Equal(t, session.StageCreateFolder, sess.Stage)

	require.NoError(t, e.HandleText(ctx, testUser, testChat, "History"))
	sess, _ = sessions.Peek(testUser)
	require.Equal(t, session.StageConfirmFolder, sess.Stage)
	require.Contains(t, tr.lastText(), `"History"`)

	require.NoError(t, e.HandleIntent(ctx, testUser, testChat, ConfirmFolder{Accept: true}))
	folders, _ := store.ListFolders(ctx, testUser)
	require.Len(t, folders, 1)
	require.Equal(t, "History", folders[0].Name)

	sess, _ = sessions.Peek(testUser)
	require.Equal(t, session.StageIdle, sess.Stage)
}

func TestFolderNameValidation(t *testing.T) {
	e, store, tr, sessions := newTestEngine()
	ctx := context.Background()

	require.NoError(t, e.BeginCreateFolder(ctx, testUser, testChat))

	require.NoError(t, e.HandleText(ctx, testUser, testChat, strings.Repeat("x", MaxFolderNameLen+1)))
	sess, _ := sessions.Peek(testUser)
	require.Equal(t, session.StageCreateFolder, sess.Stage)
	require.Contains(t, tr.lastText(), "1-50 characters")

	require.NoError(t, e.HandleText(ctx, testUser, testChat, "   "))
	sess, _ = sessions.Peek(testUser)
	require.Equal(t, session.StageCreateFolder, sess.Stage)

	folders, _ := store.ListFolders(ctx, testUser)
	require.Empty(t, folders)
}

func TestFolderRename(t *testing.T) {
	e, store, _, _ := newTestEngine()
	ctx := context.Background()

	require.NoError(t, e.BeginCreateFolder(ctx, testUser, testChat))
	require.NoError(t, e.HandleText(ctx, testUser, testChat, "Histroy"))
	require.NoError(t, e.HandleIntent(ctx, testUser, testChat, ConfirmFolder{Accept: false}))
	require.NoError(t, e.HandleText(ctx, testUser, testChat, "History"))
	require.NoError(t, e.HandleIntent(ctx, testUser, testChat, ConfirmFolder{Accept: true}))

	folders, _ := store.ListFolders(ctx, testUser)
	require.Len(t, folders, 1)
	require.Equal(t, "History", folders[0].Name)
}

// beginAuthoring walks a test user to the question capture stage.
func beginAuthoring(t *testing.T, e *Engine, store *fakeStore) int64 {
	t.Helper()
	ctx := context.Background()
	folder, err := store.CreateFolder(ctx, testUser, "Science")
	require.NoError(t, err)

	require.NoError(t, e.BeginQuizCreation(ctx, testUser, testChat))
	require.NoError(t, e.HandleIntent(ctx, testUser, testChat, SelectFolderForQuiz{FolderID: folder.ID}))
	require.NoError(t, e.HandleText(ctx, testUser, testChat, "Space"))
	require.NoError(t, e.HandleText(ctx, testUser, testChat, "All about planets"))
	return folder.ID
}

func TestQuizAuthoringFlow(t *testing.T) {
	e, store, _, sessions := newTestEngine()
	ctx := context.Background()
	folderID := beginAuthoring(t, e, store)

	sess, _ := sessions.Peek(testUser)
	require.Equal(t, session.StageAwaitingQuizPoll, sess.Stage)

	require.NoError(t, e.HandlePoll(ctx, testUser, testChat, Poll{
		Question:      "[3/9] Which planet is closest to the Sun?",
		Options:       []string{"Venus", "Mercury"},
		CorrectOption: 1,
	}))
	require.NoError(t, e.HandlePoll(ctx, testUser, testChat, Poll{
		Question:      "How many moons does Mars have?",
		Options:       []string{"One", "Two"},
		CorrectOption: 1,
		Explanation:   "Phobos and Deimos.",
	}))

	require.NoError(t, e.Done(ctx, testUser, testChat))
	require.NoError(t, e.HandleIntent(ctx, testUser, testChat, SetTimer{Seconds: 30}))

	quizzes, _ := store.ListQuizzes(ctx, folderID, testUser)
	require.Len(t, quizzes, 1)
	created := quizzes[0]
	require.Equal(t, "Space", created.Title)
	require.Equal(t, "All about planets", created.Description)
	require.Equal(t, 30, created.TimerSeconds)
	require.True(t, created.Shuffle)
	require.True(t, created.Shared)

	questions, _ := store.ListQuestions(ctx, created.ID)
	require.Len(t, questions, 2)
	require.Equal(t, "Which planet is closest to the Sun?", questions[0].Text)
	require.Equal(t, "Phobos and Deimos.", questions[1].Explanation)

	sess, _ = sessions.Peek(testUser)
	require.Equal(t, session.StageIdle, sess.Stage)
	require.Empty(t, sess.Questions)
}

func TestAnonymousPollRejected(t *testing.T) {
	e, store, tr, sessions := newTestEngine()
	ctx := context.Background()
	beginAuthoring(t, e, store)

	require.NoError(t, e.HandlePoll(ctx, testUser, testChat, Poll{
		Question:      "Who am I?",
		Options:       []string{"A", "B"},
		CorrectOption: 0,
		Anonymous:     true,
	}))

	sess, _ := sessions.Peek(testUser)
	require.Empty(t, sess.Questions)
	require.Contains(t, tr.lastText(), "Anonymous polls")
}

func TestSkipDescription(t *testing.T) {
	e, store, _, sessions := newTestEngine()
	ctx := context.Background()
	folder, _ := store.CreateFolder(ctx, testUser, "Science")

	require.NoError(t, e.BeginQuizCreation(ctx, testUser, testChat))
	require.NoError(t, e.HandleIntent(ctx, testUser, testChat, SelectFolderForQuiz{FolderID: folder.ID}))
	require.NoError(t, e.HandleText(ctx, testUser, testChat, "Space"))
	require.NoError(t, e.Skip(ctx, testUser, testChat))

	sess, _ := sessions.Peek(testUser)
	require.Equal(t, session.StageAwaitingQuizPoll, sess.Stage)
	require.Empty(t, sess.QuizDesc)
}

func TestUndoIsStageSensitive(t *testing.T) {
	e, store, _, sessions := newTestEngine()
	ctx := context.Background()
	beginAuthoring(t, e, store)

	// Popping an empty draft steps back to the description stage.
	require.NoError(t, e.Undo(ctx, testUser, testChat))
	sess, _ := sessions.Peek(testUser)
	require.Equal(t, session.StageAwaitingDescription, sess.Stage)

	// From description, undo clears it and returns to the title stage.
	require.NoError(t, e.Undo(ctx, testUser, testChat))
	sess, _ = sessions.Peek(testUser)
	require.Equal(t, session.StageAwaitingQuizTitle, sess.Stage)
	require.Empty(t, sess.QuizDesc)

	// From title, undo discards the draft entirely.
	require.NoError(t, e.Undo(ctx, testUser, testChat))
	sess, _ = sessions.Peek(testUser)
	require.Equal(t, session.StageIdle, sess.Stage)
}

func TestUndoPopsLastQuestion(t *testing.T) {
	e, store, _, sessions := newTestEngine()
	ctx := context.Background()
	beginAuthoring(t, e, store)

	for _, q := range []string{"first", "second"} {
		require.NoError(t, e.HandlePoll(ctx, testUser, testChat, Poll{
			Question: q, Options: []string{"A", "B"}, CorrectOption: 0,
		}))
	}

	require.NoError(t, e.Undo(ctx, testUser, testChat))
	sess, _ := sessions.Peek(testUser)
	require.Equal(t, session.StageAwaitingQuizPoll, sess.Stage)
	require.Len(t, sess.Questions, 1)
	require.Equal(t, "first", sess.Questions[0].Text)
}

func TestDoneRequiresQuestions(t *testing.T) {
	e, store, tr, _ := newTestEngine()
	ctx := context.Background()
	beginAuthoring(t, e, store)

	require.NoError(t, e.Done(ctx, testUser, testChat))
	require.Contains(t, tr.lastText(), "at least one question")
}

func TestCancelDiscardsDraft(t *testing.T) {
	e, store, _, sessions := newTestEngine()
	ctx := context.Background()
	folderID := beginAuthoring(t, e, store)

	require.NoError(t, e.HandlePoll(ctx, testUser, testChat, Poll{
		Question: "q", Options: []string{"A", "B"}, CorrectOption: 0,
	}))
	require.NoError(t, e.Cancel(ctx, testUser, testChat))

	sess, _ := sessions.Peek(testUser)
	require.Equal(t, session.StageIdle, sess.Stage)
	require.Empty(t, sess.Questions)

	quizzes, _ := store.ListQuizzes(context.Background(), folderID, testUser)
	require.Empty(t, quizzes)
}

func TestCancelOutsideAuthoring(t *testing.T) {
	e, _, tr, _ := newTestEngine()
	require.NoError(t, e.Cancel(context.Background(), testUser, testChat))
	require.Contains(t, tr.lastText(), "Nothing to cancel")
}

func TestCancelCoversImportAndFolderStages(t *testing.T) {
	e, _, tr, sessions := newTestEngine()
	ctx := context.Background()

	require.NoError(t, e.BeginImport(ctx, testUser, testChat))
	require.NoError(t, e.HandleIntent(ctx, testUser, testChat, CancelDialogue{}))
	require.Contains(t, tr.lastText(), "Import cancelled")
	sess, _ := sessions.Peek(testUser)
	require.Equal(t, session.StageIdle, sess.Stage)

	require.NoError(t, e.BeginCreateFolder(ctx, testUser, testChat))
	require.NoError(t, e.Cancel(ctx, testUser, testChat))
	require.Contains(t, tr.lastText(), "Folder creation cancelled")
	sess, _ = sessions.Peek(testUser)
	require.Equal(t, session.StageIdle, sess.Stage)
}

func TestPersistQuestionPartialFailureReported(t *testing.T) {
	e, store, tr, sessions := newTestEngine()
	ctx := context.Background()
	folderID := beginAuthoring(t, e, store)

	for _, q := range []string{"one", "two", "three"} {
		require.NoError(t, e.HandlePoll(ctx, testUser, testChat, Poll{
			Question: q, Options: []string{"A", "B"}, CorrectOption: 0,
		}))
	}
	store.failAddQuestionAfter = 2

	require.NoError(t, e.Done(ctx, testUser, testChat))
	require.NoError(t, e.HandleIntent(ctx, testUser, testChat, SetTimer{Seconds: 15}))

	quizzes, _ := store.ListQuizzes(ctx, folderID, testUser)
	require.Len(t, quizzes, 1)
	questions, _ := store.ListQuestions(ctx, quizzes[0].ID)
	require.Len(t, questions, 2, "persisted questions are not rolled back")
	require.Contains(t, tr.lastText(), "1 of 3 questions could not be stored")

	sess, _ := sessions.Peek(testUser)
	require.Equal(t, session.StageIdle, sess.Stage)
}

func TestQuizCreationNeedsFolder(t *testing.T) {
	e, _, tr, sessions := newTestEngine()
	require.NoError(t, e.BeginQuizCreation(context.Background(), testUser, testChat))
	require.Contains(t, tr.lastText(), "no folders")
	require.False(t, sessions.InProgress(testUser))
}
