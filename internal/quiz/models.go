package quiz

import (
	"time"

	"github.com/lib/pq"
)

// User mirrors the users table. The ID is the Telegram user identifier.
type User struct {
	ID        int64     `db:"user_id"`
	Username  string    `db:"username"`
	FirstName string    `db:"first_name"`
	LastName  string    `db:"last_name"`
	CreatedAt time.Time `db:"created_at"`
}

// Folder groups quizzes. (user_id, name) is unique.
type Folder struct {
	ID        int64     `db:"id"`
	UserID    int64     `db:"user_id"`
	Name      string    `db:"name"`
	CreatedAt time.Time `db:"created_at"`
}

// Quiz belongs to one folder and one owning user.
type Quiz struct {
	ID           int64     `db:"id"`
	UserID       int64     `db:"user_id"`
	FolderID     int64     `db:"folder_id"`
	Title        string    `db:"title"`
	Description  string    `db:"description"`
	TimerSeconds int       `db:"timer_seconds"`
	Shuffle      bool      `db:"shuffle"`
	Shared       bool      `db:"is_shared"`
	CreatedAt    time.Time `db:"created_at"`
}

// Question belongs to one quiz. Options keep their authored order;
// CorrectOption indexes into Options.
type Question struct {
	ID            int64          `db:"id"`
	QuizID        int64          `db:"quiz_id"`
	Text          string         `db:"question"`
	Options       pq.StringArray `db:"options"`
	CorrectOption int            `db:"correct_option"`
	Explanation   string         `db:"explanation"`
	CreatedAt     time.Time      `db:"created_at"`
}

// Response records one answer by one user to one question of one quiz.
type Response struct {
	ID            int64     `db:"id"`
	UserID        int64     `db:"user_id"`
	QuizID        int64     `db:"quiz_id"`
	QuestionID    int64     `db:"question_id"`
	SelectedIndex int       `db:"selected_index"`
	Correct       bool      `db:"is_correct"`
	CreatedAt     time.Time `db:"created_at"`
}
