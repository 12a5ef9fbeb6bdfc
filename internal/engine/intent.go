package engine

// Intent is a parsed button press. The transport boundary converts the
// wire payload into exactly one of the types below; the engine then
// dispatches on the concrete type, never on raw strings.
type Intent interface{ isIntent() }

// ListKind selects which paginated listing a navigation intent moves.
type ListKind string

const (
	ListFolders       ListKind = "folders"
	ListAuthorFolders ListKind = "author_folders"
	ListImportFolders ListKind = "import_folders"
	ListQuizzes       ListKind = "quizzes"
	ListReviewFolders ListKind = "review_folders"
	ListReviewQuizzes ListKind = "review_quizzes"
)

// SelectFolder opens a folder's quiz listing.
type SelectFolder struct{ FolderID int64 }

// SelectFolderForQuiz picks the folder a new quiz will be created in.
type SelectFolderForQuiz struct{ FolderID int64 }

// SelectFolderForImport picks the folder an imported quiz will land in.
type SelectFolderForImport struct{ FolderID int64 }

// ConfirmFolder accepts or discards a pending folder name.
type ConfirmFolder struct{ Accept bool }

// DeleteFolder removes a folder with everything in it.
type DeleteFolder struct{ FolderID int64 }

// ViewQuiz opens a quiz's detail card.
type ViewQuiz struct{ QuizID int64 }

// StartQuiz arms a live run and shows the get-ready card.
type StartQuiz struct{ QuizID int64 }

// Ready is the "I am ready!" press that actually launches the armed
// run with the countdown and the first question.
type Ready struct{}

// DeleteQuiz removes a quiz with its questions and responses.
type DeleteQuiz struct{ QuizID int64 }

// SetTimer finalizes an authored quiz with the chosen open period.
type SetTimer struct{ Seconds int }

// ReviewFolder opens the review listing for one folder.
type ReviewFolder struct{ FolderID int64 }

// ReviewQuiz renders past answers for one quiz.
type ReviewQuiz struct{ QuizID int64 }

// CancelDialogue aborts the current dialogue from an inline button.
type CancelDialogue struct{}

// PageNext and PagePrev move a listing window.
type PageNext struct {
	Kind     ListKind
	FolderID int64
}
type PagePrev struct {
	Kind     ListKind
	FolderID int64
}

func (SelectFolder) isIntent()          {}
func (SelectFolderForQuiz) isIntent()   {}
func (SelectFolderForImport) isIntent() {}
func (ConfirmFolder) isIntent()         {}
func (DeleteFolder) isIntent()          {}
func (ViewQuiz) isIntent()              {}
func (StartQuiz) isIntent()             {}
func (Ready) isIntent()                 {}
func (DeleteQuiz) isIntent()            {}
func (SetTimer) isIntent()              {}
func (ReviewFolder) isIntent()          {}
func (ReviewQuiz) isIntent()            {}
func (CancelDialogue) isIntent()        {}
func (PageNext) isIntent()              {}
func (PagePrev) isIntent()              {}
