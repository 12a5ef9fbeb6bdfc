// Package quiz holds the persistent entities of the bot and the store
// contract their handlers depend on. The only production implementation
// is the Postgres one in this package; tests substitute in-memory fakes.
package quiz

import "context"

// Store is the persistence boundary. All methods are safe for
// concurrent use and honour context cancellation.
type Store interface {
	// UpsertUser inserts the user or refreshes name fields on conflict.
	UpsertUser(ctx context.Context, u User) error

	// CreateFolder inserts a folder. On a (user_id, name) conflict the
	// existing folder is returned untouched.
	CreateFolder(ctx context.Context, userID int64, name string) (Folder, error)
	ListFolders(ctx context.Context, userID int64) ([]Folder, error)
	// DeleteFolder removes the folder and, via cascade, its quizzes,
	// questions and responses.
	DeleteFolder(ctx context.Context, folderID, userID int64) error

	// CreateQuiz inserts a quiz and returns it with ID and CreatedAt set.
	CreateQuiz(ctx context.Context, q Quiz) (Quiz, error)
	GetQuiz(ctx context.Context, quizID int64) (Quiz, error)
	ListQuizzes(ctx context.Context, folderID, userID int64) ([]Quiz, error)
	DeleteQuiz(ctx context.Context, quizID, userID int64) error

	// AddQuestion appends a question to a quiz.
	AddQuestion(ctx context.Context, q Question) (Question, error)
	// ListQuestions returns the questions of a quiz in insertion order.
	ListQuestions(ctx context.Context, quizID int64) ([]Question, error)

	// SubmitResponse records an answer. A second answer by the same user
	// to the same question is rejected with ErrDuplicateResponse.
	SubmitResponse(ctx context.Context, r Response) error
	ListResponses(ctx context.Context, userID, quizID int64) ([]Response, error)
	// QuizIDsWithResponses returns the IDs of quizzes in the folder the
	// user has at least one recorded response for.
	QuizIDsWithResponses(ctx context.Context, userID, folderID int64) ([]int64, error)
}
