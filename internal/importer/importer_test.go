package importer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func intp(v int) *int { return &v }

func validQuestion() Question {
	return Question{
		Text:          "Which planet is closest to the Sun?",
		Options:       []string{"Venus", "Mercury"},
		CorrectOption: intp(1),
	}
}

func TestParseRejectsMalformedJSON(t *testing.T) {
	_, err := Parse([]byte(`{"title": `))
	require.Error(t, err)

	_, err = Parse([]byte(`{"titel": "typo"}`))
	require.Error(t, err)
}

func TestParseSampleDocument(t *testing.T) {
	doc, err := Parse([]byte(SampleJSON))
	require.NoError(t, err)

	rep, err := Validate(doc)
	require.NoError(t, err)
	require.Len(t, rep.Valid, 2)
	require.Empty(t, rep.Errors)
	require.Equal(t, 30, rep.TimerSeconds)
}

func TestValidatePartialSuccess(t *testing.T) {
	doc := Document{
		Title: "Capitals",
		Questions: []Question{
			{
				Text:          "Capital of France?",
				Options:       []string{"Paris", "London"},
				CorrectOption: intp(0),
			},
			{
				Options:       []string{"Yes", "No"},
				CorrectOption: intp(0),
			},
		},
	}

	rep, err := Validate(doc)
	require.NoError(t, err)
	require.Len(t, rep.Valid, 1)
	require.Equal(t, "Capital of France?", rep.Valid[0].Text)
	require.Len(t, rep.Errors, 1)
	require.Contains(t, rep.Errors[0], "Question 2")
	require.Contains(t, rep.Errors[0], "text is required")
}

func TestValidateMissingCorrectOptionAlwaysRejected(t *testing.T) {
	q := validQuestion()
	q.CorrectOption = nil
	doc := Document{Title: "t", Questions: []Question{q, validQuestion()}}

	rep, err := Validate(doc)
	require.NoError(t, err)
	require.Len(t, rep.Valid, 1)
	require.Len(t, rep.Errors, 1)
	require.Contains(t, rep.Errors[0], "correctOption is required")
}

func TestValidateAggregatesFieldErrorsPerQuestion(t *testing.T) {
	doc := Document{
		Title: "t",
		Questions: []Question{
			{
				Text:          strings.Repeat("x", MaxQuestionLen+1),
				Options:       []string{"only one"},
				CorrectOption: intp(5),
				Explanation:   strings.Repeat("y", MaxExplanationLen+1),
			},
			validQuestion(),
		},
	}

	rep, err := Validate(doc)
	require.NoError(t, err)
	require.Len(t, rep.Errors, 1)
	msg := rep.Errors[0]
	require.Contains(t, msg, "text must be at most 300 characters")
	require.Contains(t, msg, "options must have 2-10 entries")
	require.Contains(t, msg, "correctOption must index into options")
	require.Contains(t, msg, "explanation must be at most 200 characters")
}

func TestValidateRefusesAllInvalidDocument(t *testing.T) {
	doc := Document{
		Title:     "t",
		Questions: []Question{{Text: "no options"}},
	}

	rep, err := Validate(doc)
	require.Error(t, err)
	require.Empty(t, rep.Valid)
	require.Len(t, rep.Errors, 1)
}

func TestValidateDocumentLevelErrors(t *testing.T) {
	_, err := Validate(Document{Questions: []Question{validQuestion()}})
	require.Error(t, err)
	require.Contains(t, err.Error(), "title is required")

	_, err = Validate(Document{
		Title:        "t",
		TimerSeconds: intp(0),
		Questions:    []Question{validQuestion()},
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "timerSeconds")

	_, err = Validate(Document{Title: "t"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "non-empty list")
}

func TestErrorPreviewTruncatedToFiftyRunes(t *testing.T) {
	long := strings.Repeat("q", 80) + strings.Repeat("z", MaxQuestionLen)
	doc := Document{
		Title:     "t",
		Questions: []Question{{Text: long}, validQuestion()},
	}

	rep, err := Validate(doc)
	require.NoError(t, err)
	require.Len(t, rep.Errors, 1)
	require.Contains(t, rep.Errors[0], strings.Repeat("q", 50)+"...")
	require.NotContains(t, rep.Errors[0], strings.Repeat("q", 51))
}

func TestValidateTimerBounds(t *testing.T) {
	rep, err := Validate(Document{
		Title:        "t",
		TimerSeconds: intp(3600),
		Questions:    []Question{validQuestion()},
	})
	require.NoError(t, err)
	require.Equal(t, 3600, rep.TimerSeconds)

	_, err = Validate(Document{
		Title:        "t",
		TimerSeconds: intp(3601),
		Questions:    []Question{validQuestion()},
	})
	require.Error(t, err)
}
