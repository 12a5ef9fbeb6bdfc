package quiz

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// PostgresStore implements Store on top of sqlx.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore wraps an open sqlx handle.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) UpsertUser(ctx context.Context, u User) error {
	const q = `
		INSERT INTO users (user_id, username, first_name, last_name)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE
		SET username = EXCLUDED.username,
		    first_name = EXCLUDED.first_name,
		    last_name = EXCLUDED.last_name`
	if _, err := s.db.ExecContext(ctx, q, u.ID, u.Username, u.FirstName, u.LastName); err != nil {
		return fmt.Errorf("upsert user %d: %w", u.ID, err)
	}
	return nil
}

func (s *PostgresStore) CreateFolder(ctx context.Context, userID int64, name string) (Folder, error) {
	const ins = `
		INSERT INTO folders (user_id, name)
		VALUES ($1, $2)
		ON CONFLICT (user_id, name) DO NOTHING
		RETURNING id, user_id, name, created_at`
	var f Folder
	err := s.db.GetContext(ctx, &f, ins, userID, name)
	if errors.Is(err, sql.ErrNoRows) {
		// Conflict: the folder already exists, return it as-is.
		const sel = `SELECT id, user_id, name, created_at FROM folders WHERE user_id = $1 AND name = $2`
		err = s.db.GetContext(ctx, &f, sel, userID, name)
	}
	if err != nil {
		return Folder{}, fmt.Errorf("create folder %q: %w", name, err)
	}
	return f, nil
}

func (s *PostgresStore) ListFolders(ctx context.Context, userID int64) ([]Folder, error) {
	const q = `SELECT id, user_id, name, created_at FROM folders WHERE user_id = $1 ORDER BY created_at DESC`
	var out []Folder
	if err := s.db.SelectContext(ctx, &out, q, userID); err != nil {
		return nil, fmt.Errorf("list folders for %d: %w", userID, err)
	}
	return out, nil
}

func (s *PostgresStore) DeleteFolder(ctx context.Context, folderID, userID int64) error {
	const q = `DELETE FROM folders WHERE id = $1 AND user_id = $2`
	res, err := s.db.ExecContext(ctx, q, folderID, userID)
	if err != nil {
		return fmt.Errorf("delete folder %d: %w", folderID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) CreateQuiz(ctx context.Context, q Quiz) (Quiz, error) {
	const ins = `
		INSERT INTO quizzes (user_id, folder_id, title, description, timer_seconds, shuffle, is_shared)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, user_id, folder_id, title, description, timer_seconds, shuffle, is_shared, created_at`
	var out Quiz
	err := s.db.GetContext(ctx, &out, ins,
		q.UserID, q.FolderID, q.Title, q.Description, q.TimerSeconds, q.Shuffle, q.Shared)
	if err != nil {
		return Quiz{}, fmt.Errorf("create quiz %q: %w", q.Title, err)
	}
	return out, nil
}

func (s *PostgresStore) GetQuiz(ctx context.Context, quizID int64) (Quiz, error) {
	const q = `
		SELECT id, user_id, folder_id, title, description, timer_seconds, shuffle, is_shared, created_at
		FROM quizzes WHERE id = $1`
	var out Quiz
	if err := s.db.GetContext(ctx, &out, q, quizID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Quiz{}, ErrNotFound
		}
		return Quiz{}, fmt.Errorf("get quiz %d: %w", quizID, err)
	}
	return out, nil
}

func (s *PostgresStore) ListQuizzes(ctx context.Context, folderID, userID int64) ([]Quiz, error) {
	const q = `
		SELECT id, user_id, folder_id, title, description, timer_seconds, shuffle, is_shared, created_at
		FROM quizzes WHERE folder_id = $1 AND user_id = $2 ORDER BY created_at DESC`
	var out []Quiz
	if err := s.db.SelectContext(ctx, &out, q, folderID, userID); err != nil {
		return nil, fmt.Errorf("list quizzes in folder %d: %w", folderID, err)
	}
	return out, nil
}

func (s *PostgresStore) DeleteQuiz(ctx context.Context, quizID, userID int64) error {
	const q = `DELETE FROM quizzes WHERE id = $1 AND user_id = $2`
	res, err := s.db.ExecContext(ctx, q, quizID, userID)
	if err != nil {
		return fmt.Errorf("delete quiz %d: %w", quizID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) AddQuestion(ctx context.Context, q Question) (Question, error) {
	const ins = `
		INSERT INTO questions (quiz_id, question, options, correct_option, explanation)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, quiz_id, question, options, correct_option, explanation, created_at`
	var out Question
	err := s.db.GetContext(ctx, &out, ins, q.QuizID, q.Text, q.Options, q.CorrectOption, q.Explanation)
	if err != nil {
		return Question{}, fmt.Errorf("add question to quiz %d: %w", q.QuizID, err)
	}
	return out, nil
}

func (s *PostgresStore) ListQuestions(ctx context.Context, quizID int64) ([]Question, error) {
	const q = `
		SELECT id, quiz_id, question, options, correct_option, explanation, created_at
		FROM questions WHERE quiz_id = $1 ORDER BY id`
	var out []Question
	if err := s.db.SelectContext(ctx, &out, q, quizID); err != nil {
		return nil, fmt.Errorf("list questions of quiz %d: %w", quizID, err)
	}
	return out, nil
}

func (s *PostgresStore) SubmitResponse(ctx context.Context, r Response) error {
	const ins = `
		INSERT INTO responses (user_id, quiz_id, question_id, selected_index, is_correct)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, question_id) DO NOTHING`
	res, err := s.db.ExecContext(ctx, ins, r.UserID, r.QuizID, r.QuestionID, r.SelectedIndex, r.Correct)
	if err != nil {
		return fmt.Errorf("submit response for question %d: %w", r.QuestionID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrDuplicateResponse
	}
	return nil
}

func (s *PostgresStore) ListResponses(ctx context.Context, userID, quizID int64) ([]Response, error) {
	const q = `
		SELECT id, user_id, quiz_id, question_id, selected_index, is_correct, created_at
		FROM responses WHERE user_id = $1 AND quiz_id = $2 ORDER BY question_id`
	var out []Response
	if err := s.db.SelectContext(ctx, &out, q, userID, quizID); err != nil {
		return nil, fmt.Errorf("list responses for quiz %d: %w", quizID, err)
	}
	return out, nil
}

func (s *PostgresStore) QuizIDsWithResponses(ctx context.Context, userID, folderID int64) ([]int64, error) {
	const q = `
		SELECT DISTINCT r.quiz_id
		FROM responses r
		JOIN quizzes q ON q.id = r.quiz_id
		WHERE r.user_id = $1 AND q.folder_id = $2`
	var out []int64
	if err := s.db.SelectContext(ctx, &out, q, userID, folderID); err != nil {
		return nil, fmt.Errorf("quizzes with responses in folder %d: %w", folderID, err)
	}
	return out, nil
}
