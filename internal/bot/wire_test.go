package bot

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quizbot/internal/engine"
)

func TestEncodeIntentKeysAndPayloads(t *testing.T) {
	cases := []struct {
		intent  engine.Intent
		unique  string
		payload string
	}{
		{engine.SelectFolder{FolderID: 7}, cbFolderOpen, "7"},
		{engine.SelectFolderForQuiz{FolderID: 7}, cbFolderForQuiz, "7"},
		{engine.SelectFolderForImport{FolderID: 4}, cbFolderImport, "4"},
		{engine.ConfirmFolder{Accept: true}, cbFolderConfirm, "1"},
		{engine.ConfirmFolder{Accept: false}, cbFolderConfirm, "0"},
		{engine.DeleteFolder{FolderID: 9}, cbFolderDelete, "9"},
		{engine.ViewQuiz{QuizID: 3}, cbQuizView, "3"},
		{engine.StartQuiz{QuizID: 3}, cbQuizStart, "3"},
		{engine.Ready{}, cbRunReady, ""},
		{engine.DeleteQuiz{QuizID: 3}, cbQuizDelete, "3"},
		{engine.SetTimer{Seconds: 90}, cbQuizTimer, "90"},
		{engine.ReviewFolder{FolderID: 5}, cbReviewFolder, "5"},
		{engine.ReviewQuiz{QuizID: 6}, cbReviewQuiz, "6"},
		{engine.PageNext{Kind: engine.ListQuizzes, FolderID: 7}, cbPageNext, "quizzes|7"},
		{engine.PagePrev{Kind: engine.ListFolders}, cbPagePrev, "folders|0"},
		{engine.CancelDialogue{}, cbCancel, ""},
	}
	for _, tc := range cases {
		unique, payload, err := encodeIntent(tc.intent)
		require.NoError(t, err)
		assert.Equal(t, tc.unique, unique)
		assert.Equal(t, tc.payload, payload)
	}
}

func TestPagePayloadRoundTrip(t *testing.T) {
	payload := encodePage(engine.ListReviewQuizzes, 42)
	kind, folderID, err := decodePage(strings.Split(payload, payloadSep))
	require.NoError(t, err)
	assert.Equal(t, engine.ListReviewQuizzes, kind)
	assert.Equal(t, int64(42), folderID)

	kind, folderID, err = decodePage([]string{"import_folders", "0"})
	require.NoError(t, err)
	assert.Equal(t, engine.ListImportFolders, kind)
	assert.Equal(t, int64(0), folderID)
}

func TestDecodePageRejectsGarbage(t *testing.T) {
	_, _, err := decodePage([]string{"folders"})
	assert.Error(t, err)

	_, _, err = decodePage([]string{"folders", "not-a-number"})
	assert.Error(t, err)

	_, _, err = decodePage([]string{"martians", "1"})
	assert.Error(t, err)
}

func TestTeleMarkupEncodesButtons(t *testing.T) {
	m := engine.Markup{
		{{Label: "Open", Intent: engine.ViewQuiz{QuizID: 7}}},
		{
			{Label: "⬅️", Intent: engine.PagePrev{Kind: engine.ListQuizzes, FolderID: 2}},
			{Label: "➡️", Intent: engine.PageNext{Kind: engine.ListQuizzes, FolderID: 2}},
		},
	}
	rm, err := teleMarkup(m)
	require.NoError(t, err)
	require.NotNil(t, rm)
	require.Len(t, rm.InlineKeyboard, 2)
	require.Len(t, rm.InlineKeyboard[1], 2)
	assert.Equal(t, "Open", rm.InlineKeyboard[0][0].Text)
	assert.Equal(t, cbQuizView, rm.InlineKeyboard[0][0].Unique)
	assert.Equal(t, "7", rm.InlineKeyboard[0][0].Data)
	assert.Equal(t, cbPagePrev, rm.InlineKeyboard[1][0].Unique)
	assert.Equal(t, "quizzes|2", rm.InlineKeyboard[1][0].Data)
}

func TestTeleMarkupEmpty(t *testing.T) {
	rm, err := teleMarkup(nil)
	require.NoError(t, err)
	assert.Nil(t, rm)
}
