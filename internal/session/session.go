// Package session keeps per-user dialogue state in memory. Every
// mutation happens under a per-user lock so that a burst of updates
// from the same chat never interleaves mid-dialogue, and sessions idle
// past a deadline are evicted by a background janitor.
package session

import (
	"time"

	"quizbot/internal/quiz"
)

// DraftQuestion is a question accumulated during authoring or import,
// not yet persisted.
type DraftQuestion struct {
	Text          string
	Options       []string
	CorrectOption int
	Explanation   string
}

// Answer is one recorded answer inside an active run. Duplicates for
// the same question are rejected, the first answer stands.
type Answer struct {
	QuestionID    int64
	SelectedIndex int
	Correct       bool
}

// Run is the state of a live quiz delivery. Questions is an immutable
// snapshot taken when the run starts; Index is the cursor of the
// question currently on the wire. Polls maps Telegram poll IDs back to
// question indexes because poll answers carry neither chat nor
// question.
type Run struct {
	QuizID       int64
	ChatID       int64
	Title        string
	Questions    []quiz.Question
	Index        int
	Score        int
	Answers      []Answer
	Polls        map[string]int
	TimerSeconds int
	StartedAt    time.Time
}

// Answered reports whether the question already has a recorded answer.
func (r *Run) Answered(questionID int64) bool {
	for _, a := range r.Answers {
		if a.QuestionID == questionID {
			return true
		}
	}
	return false
}

// Session is the full dialogue state of one user.
type Session struct {
	Stage Stage

	// Folder creation.
	FolderName string

	// Quiz authoring.
	FolderID     int64
	QuizTitle    string
	QuizDesc     string
	TimerSeconds int
	Questions    []DraftQuestion

	// Answer review.
	ReviewFolderID int64

	// List pagination, page index per listing kind.
	FolderPage int
	QuizPage   int

	// Active delivery, nil when no run is live.
	Run *Run
}

// Transition moves the session to the next stage, rejecting moves the
// dialogue graph does not allow.
func (s *Session) Transition(next Stage) error {
	if !s.Stage.CanTransition(next) {
		return ErrInvalidTransition
	}
	s.Stage = next
	return nil
}

// ResetDialogue clears dialogue state but keeps any live run.
func (s *Session) ResetDialogue() {
	run := s.Run
	*s = Session{Run: run}
}
