package engine

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"quizbot/internal/quiz"
	"quizbot/internal/session"
)

// fakeStore is an in-memory quiz.Store used by all engine tests.
type fakeStore struct {
	mu        sync.Mutex
	nextID    int64
	users     map[int64]quiz.User
	folders   []quiz.Folder
	quizzes   []quiz.Quiz
	questions []quiz.Question
	responses []quiz.Response

	failAddQuestionAfter int // fail AddQuestion once n have succeeded, 0 disables
	failSubmit           bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{users: make(map[int64]quiz.User)}
}

func (f *fakeStore) id() int64 {
	f.nextID++
	return f.nextID
}

func (f *fakeStore) UpsertUser(_ context.Context, u quiz.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[u.ID] = u
	return nil
}

func (f *fakeStore) CreateFolder(_ context.Context, userID int64, name string) (quiz.Folder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, fo := range f.folders {
		if fo.UserID == userID && fo.Name == name {
			return fo, nil
		}
	}
	fo := quiz.Folder{ID: f.id(), UserID: userID, Name: name, CreatedAt: time.Now()}
	f.folders = append(f.folders, fo)
	return fo, nil
}

func (f *fakeStore) ListFolders(_ context.Context, userID int64) ([]quiz.Folder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []quiz.Folder
	for _, fo := range f.folders {
		if fo.UserID == userID {
			out = append(out, fo)
		}
	}
	return out, nil
}

func (f *fakeStore) DeleteFolder(_ context.Context, folderID, userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, fo := range f.folders {
		if fo.ID == folderID && fo.UserID == userID {
			f.folders = append(f.folders[:i], f.folders[i+1:]...)
			return nil
		}
	}
	return quiz.ErrNotFound
}

func (f *fakeStore) CreateQuiz(_ context.Context, q quiz.Quiz) (quiz.Quiz, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	q.ID = f.id()
	q.CreatedAt = time.Now()
	f.quizzes = append(f.quizzes, q)
	return q, nil
}

func (f *fakeStore) GetQuiz(_ context.Context, quizID int64) (quiz.Quiz, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, q := range f.quizzes {
		if q.ID == quizID {
			return q, nil
		}
	}
	return quiz.Quiz{}, quiz.ErrNotFound
}

func (f *fakeStore) ListQuizzes(_ context.Context, folderID, userID int64) ([]quiz.Quiz, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []quiz.Quiz
	for _, q := range f.quizzes {
		if q.FolderID == folderID && q.UserID == userID {
			out = append(out, q)
		}
	}
	return out, nil
}

func (f *fakeStore) DeleteQuiz(_ context.Context, quizID, userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, q := range f.quizzes {
		if q.ID == quizID && q.UserID == userID {
			f.quizzes = append(f.quizzes[:i], f.quizzes[i+1:]...)
			return nil
		}
	}
	return quiz.ErrNotFound
}

func (f *fakeStore) AddQuestion(_ context.Context, q quiz.Question) (quiz.Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAddQuestionAfter > 0 && len(f.questions) >= f.failAddQuestionAfter {
		return quiz.Question{}, fmt.Errorf("add question: connection reset")
	}
	q.ID = f.id()
	q.CreatedAt = time.Now()
	f.questions = append(f.questions, q)
	return q, nil
}

func (f *fakeStore) ListQuestions(_ context.Context, quizID int64) ([]quiz.Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []quiz.Question
	for _, q := range f.questions {
		if q.QuizID == quizID {
			out = append(out, q)
		}
	}
	return out, nil
}

func (f *fakeStore) SubmitResponse(_ context.Context, r quiz.Response) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSubmit {
		return fmt.Errorf("submit response: connection reset")
	}
	for _, prev := range f.responses {
		if prev.UserID == r.UserID && prev.QuestionID == r.QuestionID {
			return quiz.ErrDuplicateResponse
		}
	}
	r.ID = f.id()
	f.responses = append(f.responses, r)
	return nil
}

func (f *fakeStore) ListResponses(_ context.Context, userID, quizID int64) ([]quiz.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []quiz.Response
	for _, r := range f.responses {
		if r.UserID == userID && r.QuizID == quizID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) QuizIDsWithResponses(_ context.Context, userID, folderID int64) ([]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seen := make(map[int64]bool)
	var out []int64
	for _, r := range f.responses {
		if r.UserID != userID || seen[r.QuizID] {
			continue
		}
		for _, q := range f.quizzes {
			if q.ID == r.QuizID && q.FolderID == folderID {
				seen[r.QuizID] = true
				out = append(out, r.QuizID)
			}
		}
	}
	return out, nil
}

// sentMessage records one Transport.Send call.
type sentMessage struct {
	ChatID int64
	Text   string
	Markup Markup
}

type sentPoll struct {
	ChatID        int64
	Question      string
	Options       []string
	CorrectOption int
	OpenSeconds   int
	Explanation   string
	PollID        string
}

// fakeTransport records every outbound call and hands out sequential
// message and poll identifiers.
type fakeTransport struct {
	mu      sync.Mutex
	nextMsg int
	Sends   []sentMessage
	Edits   []string
	Deleted []int
	Polls   []sentPoll

	failSend bool
}

func (t *fakeTransport) Send(_ context.Context, chatID int64, text string, markup Markup) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.failSend {
		return 0, fmt.Errorf("send: bad gateway")
	}
	t.nextMsg++
	t.Sends = append(t.Sends, sentMessage{ChatID: chatID, Text: text, Markup: markup})
	return t.nextMsg, nil
}

func (t *fakeTransport) Edit(_ context.Context, _ int64, _ int, text string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Edits = append(t.Edits, text)
	return nil
}

func (t *fakeTransport) Delete(_ context.Context, _ int64, msgID int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Deleted = append(t.Deleted, msgID)
	return nil
}

func (t *fakeTransport) SendQuizPoll(_ context.Context, chatID int64, question string, options []string, correctOption, openSeconds int, explanation string) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := fmt.Sprintf("poll-%d", len(t.Polls)+1)
	t.Polls = append(t.Polls, sentPoll{
		ChatID:        chatID,
		Question:      question,
		Options:       options,
		CorrectOption: correctOption,
		OpenSeconds:   openSeconds,
		Explanation:   explanation,
		PollID:        id,
	})
	return id, nil
}

func (t *fakeTransport) lastText() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.Sends) == 0 {
		return ""
	}
	return t.Sends[len(t.Sends)-1].Text
}

func (t *fakeTransport) textsContaining(sub string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	var n int
	for _, m := range t.Sends {
		if strings.Contains(m.Text, sub) {
			n++
		}
	}
	return n
}

// newTestEngine wires an engine with fakes and a no-op sleep.
func newTestEngine() (*Engine, *fakeStore, *fakeTransport, *session.Store) {
	store := newFakeStore()
	tr := &fakeTransport{}
	sessions := session.NewStore(0)
	e := New(store, sessions, tr, Options{})
	e.sleep = func(context.Context, time.Duration) {}
	return e, store, tr, sessions
}
