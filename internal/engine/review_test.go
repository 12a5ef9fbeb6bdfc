package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"quizbot/internal/quiz"
	"quizbot/internal/session"
)

// runSeededQuiz answers a seeded quiz so responses exist for review.
func runSeededQuiz(t *testing.T, e *Engine, tr *fakeTransport, quizID int64, answers ...int) {
	t.Helper()
	ctx := context.Background()
	launchQuiz(t, e, quizID)
	for i, sel := range answers {
		require.NoError(t, e.HandlePollAnswer(ctx, testUser, tr.Polls[i].PollID, sel))
	}
}

func TestReviewRendersAnswersAndTally(t *testing.T) {
	e, store, tr, sessions := newTestEngine()
	ctx := context.Background()
	q := seedQuiz(t, store, 15, threeQuestions()...)
	runSeededQuiz(t, e, tr, q.ID, 0, 0, 0) // correct, incorrect, correct

	require.NoError(t, e.BeginReview(ctx, testUser, testChat))
	sess, _ := sessions.Peek(testUser)
	require.Equal(t, session.StageReviewFolder, sess.Stage)

	require.NoError(t, e.HandleIntent(ctx, testUser, testChat, ReviewFolder{FolderID: q.FolderID}))
	sess, _ = sessions.Peek(testUser)
	require.Equal(t, session.StageReviewQuiz, sess.Stage)
	require.Contains(t, tr.lastText(), "Pick a quiz to review")

	require.NoError(t, e.HandleIntent(ctx, testUser, testChat, ReviewQuiz{QuizID: q.ID}))

	require.Equal(t, 1, tr.textsContaining("✅ Your answer: Paris"))
	require.Equal(t, 1, tr.textsContaining("❌ Your answer: Lisbon"))
	require.Equal(t, 1, tr.textsContaining("✅ Correct answer: Madrid"))
	require.Equal(t, 1, tr.textsContaining("<i>Rome since 1871.</i>"))
	require.Equal(t, 1, tr.textsContaining("You answered 2 of 3 correctly."))

	sess, _ = sessions.Peek(testUser)
	require.Equal(t, session.StageIdle, sess.Stage)
}

func TestReviewEscapesMarkup(t *testing.T) {
	e, store, tr, _ := newTestEngine()
	ctx := context.Background()
	q := seedQuiz(t, store, 15, quiz.Question{
		Text:          "Is 1 < 2 & 2 > 1?",
		Options:       []string{"<yes>", "no"},
		CorrectOption: 0,
	})
	runSeededQuiz(t, e, tr, q.ID, 0)

	require.NoError(t, e.BeginReview(ctx, testUser, testChat))
	require.NoError(t, e.HandleIntent(ctx, testUser, testChat, ReviewFolder{FolderID: q.FolderID}))
	require.NoError(t, e.HandleIntent(ctx, testUser, testChat, ReviewQuiz{QuizID: q.ID}))

	require.Equal(t, 1, tr.textsContaining("Is 1 &lt; 2 &amp; 2 &gt; 1?"))
	require.Equal(t, 1, tr.textsContaining("&lt;yes&gt;"))
	require.Equal(t, 0, tr.textsContaining("<yes>"))
}

func TestReviewSkipsUnansweredQuestions(t *testing.T) {
	e, store, tr, _ := newTestEngine()
	ctx := context.Background()
	q := seedQuiz(t, store, 15, threeQuestions()...)
	// Answer only the first question, then stop.
	launchQuiz(t, e, q.ID)
	require.NoError(t, e.HandlePollAnswer(ctx, testUser, tr.Polls[0].PollID, 0))
	// Persist the single answer directly, as if the run had completed.
	questions, err := store.ListQuestions(ctx, q.ID)
	require.NoError(t, err)
	require.NoError(t, store.SubmitResponse(ctx, quiz.Response{
		UserID: testUser, QuizID: q.ID, QuestionID: questions[0].ID, SelectedIndex: 0, Correct: true,
	}))
	require.NoError(t, e.Stop(ctx, testUser, testChat))

	require.NoError(t, e.BeginReview(ctx, testUser, testChat))
	require.NoError(t, e.HandleIntent(ctx, testUser, testChat, ReviewFolder{FolderID: q.FolderID}))
	require.NoError(t, e.HandleIntent(ctx, testUser, testChat, ReviewQuiz{QuizID: q.ID}))

	require.Equal(t, 1, tr.textsContaining("Question 1:"))
	require.Equal(t, 0, tr.textsContaining("Question 2:"))
	require.Equal(t, 1, tr.textsContaining("You answered 1 of 1 correctly."))
}

func TestReviewFolderWithoutResponses(t *testing.T) {
	e, store, tr, _ := newTestEngine()
	ctx := context.Background()
	q := seedQuiz(t, store, 15, threeQuestions()...)

	require.NoError(t, e.BeginReview(ctx, testUser, testChat))
	require.NoError(t, e.HandleIntent(ctx, testUser, testChat, ReviewFolder{FolderID: q.FolderID}))
	require.Contains(t, tr.lastText(), "not completed any quiz")
}

func TestReviewWithNoFolders(t *testing.T) {
	e, _, tr, sessions := newTestEngine()
	require.NoError(t, e.BeginReview(context.Background(), testUser, testChat))
	require.Contains(t, tr.lastText(), "nothing to review")
	require.False(t, sessions.InProgress(testUser))
}
