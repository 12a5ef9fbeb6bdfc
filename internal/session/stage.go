package session

import "errors"

// Stage names the point an active dialogue is at. The zero value Idle
// means no dialogue is in progress.
type Stage string

const (
	StageIdle Stage = ""

	// Folder creation.
	StageCreateFolder  Stage = "create_folder"
	StageConfirmFolder Stage = "confirm_folder"

	// Quiz authoring.
	StageSelectFolderForQuiz Stage = "select_folder_for_quiz"
	StageAwaitingQuizTitle   Stage = "awaiting_quiz_title"
	StageAwaitingDescription Stage = "awaiting_quiz_description"
	StageAwaitingQuizPoll    Stage = "awaiting_quiz_poll"

	// JSON import.
	StageSelectFolderForImport Stage = "select_folder_for_import"
	StageAwaitingJSONFile      Stage = "awaiting_json_file"

	// Live delivery.
	StageStartQuiz Stage = "start_quiz"

	// Answer review.
	StageReviewFolder Stage = "review_quiz"
	StageReviewQuiz   Stage = "review_select_quiz"
)

// ErrInvalidTransition reports a stage change the dialogue graph does
// not allow.
var ErrInvalidTransition = errors.New("session: invalid stage transition")

// transitions lists the legal next stages per stage. Every stage may
// additionally return to Idle (cancel, completion, reset).
var transitions = map[Stage][]Stage{
	StageIdle: {
		StageCreateFolder,
		StageSelectFolderForQuiz,
		StageSelectFolderForImport,
		StageAwaitingJSONFile,
		StageReviewFolder,
		StageStartQuiz,
	},
	StageStartQuiz:             {},
	StageCreateFolder:          {StageConfirmFolder},
	StageConfirmFolder:         {StageCreateFolder},
	StageSelectFolderForQuiz:   {StageAwaitingQuizTitle},
	StageAwaitingQuizTitle:     {StageAwaitingDescription, StageSelectFolderForQuiz},
	StageAwaitingDescription:   {StageAwaitingQuizPoll, StageAwaitingQuizTitle},
	StageAwaitingQuizPoll:      {StageAwaitingQuizPoll, StageAwaitingDescription},
	StageSelectFolderForImport: {StageAwaitingJSONFile},
	StageAwaitingJSONFile:      {},
	StageReviewFolder:          {StageReviewQuiz},
	StageReviewQuiz:            {StageReviewFolder},
}

// CanTransition reports whether moving from s to next is allowed.
func (s Stage) CanTransition(next Stage) bool {
	if next == StageIdle {
		return true
	}
	for _, t := range transitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// InProgress reports whether the stage is part of an active dialogue.
func (s Stage) InProgress() bool { return s != StageIdle }

func (s Stage) String() string {
	if s == StageIdle {
		return "idle"
	}
	return string(s)
}
