// Package importer validates externally supplied quiz documents. A
// document describes one quiz; questions are validated independently
// so one bad question never disqualifies the rest. The result is a
// partial-success report: the valid subset plus one itemized error
// message per rejected question.
package importer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/hashicorp/go-multierror"
)

// Field limits. Lengths count runes, matching what Telegram enforces
// on its side for poll fields.
const (
	MaxTitleLen       = 100
	MaxDescriptionLen = 1000
	MaxQuestionLen    = 300
	MaxOptionLen      = 100
	MaxExplanationLen = 200
	MinOptions        = 2
	MaxOptions        = 10
	MaxTimerSeconds   = 3600

	// DefaultTimerSeconds applies when the document omits a timer.
	DefaultTimerSeconds = 30

	previewLen = 50
)

// Document is the import payload for one quiz. CorrectOption and
// TimerSeconds are pointers so that "absent" and "zero" stay distinct.
type Document struct {
	Title        string     `json:"title"`
	Description  string     `json:"description,omitempty"`
	TimerSeconds *int       `json:"timerSeconds,omitempty"`
	Questions    []Question `json:"questions"`
}

// Question is one question inside a Document.
type Question struct {
	Text          string   `json:"text"`
	Options       []string `json:"options"`
	CorrectOption *int     `json:"correctOption"`
	Explanation   string   `json:"explanation,omitempty"`
}

// Report partitions a document into the questions that passed and one
// message per question that did not. Errors preserves question order.
type Report struct {
	Title        string
	Description  string
	TimerSeconds int
	Valid        []Question
	Errors       []string
}

// Parse decodes a document, rejecting unknown top-level shapes early.
func Parse(data []byte) (Document, error) {
	var doc Document
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return Document{}, fmt.Errorf("parse import document: %w", err)
	}
	return doc, nil
}

// Validate checks the document and partitions its questions. A non-nil
// error means the import is refused outright: the title or timer is
// invalid, the question list is missing, or no question passed. The
// report is populated either way so callers can show what was wrong.
func Validate(doc Document) (Report, error) {
	rep := Report{
		Title:        strings.TrimSpace(doc.Title),
		Description:  strings.TrimSpace(doc.Description),
		TimerSeconds: DefaultTimerSeconds,
	}

	var docErr *multierror.Error
	if rep.Title == "" || utf8.RuneCountInString(rep.Title) > MaxTitleLen {
		docErr = multierror.Append(docErr,
			fmt.Errorf("title is required and must be 1-%d characters", MaxTitleLen))
	}
	if doc.TimerSeconds != nil {
		if t := *doc.TimerSeconds; t <= 0 || t > MaxTimerSeconds {
			docErr = multierror.Append(docErr,
				fmt.Errorf("timerSeconds must be in (0, %d]", MaxTimerSeconds))
		} else {
			rep.TimerSeconds = t
		}
	}
	if len(doc.Questions) == 0 {
		docErr = multierror.Append(docErr, fmt.Errorf("questions must be a non-empty list"))
	}
	if err := docErr.ErrorOrNil(); err != nil {
		return rep, err
	}

	for i, q := range doc.Questions {
		if err := validateQuestion(q); err != nil {
			rep.Errors = append(rep.Errors, questionError(i, q, err))
			continue
		}
		rep.Valid = append(rep.Valid, q)
	}

	if len(rep.Valid) == 0 {
		return rep, fmt.Errorf("no valid questions in document")
	}
	return rep, nil
}

// validateQuestion applies every field rule so all problems of one
// question are reported together.
func validateQuestion(q Question) error {
	var res *multierror.Error

	text := strings.TrimSpace(q.Text)
	if text == "" {
		res = multierror.Append(res, fmt.Errorf("text is required"))
	} else if utf8.RuneCountInString(text) > MaxQuestionLen {
		res = multierror.Append(res, fmt.Errorf("text must be at most %d characters", MaxQuestionLen))
	}

	if len(q.Options) < MinOptions || len(q.Options) > MaxOptions {
		res = multierror.Append(res,
			fmt.Errorf("options must have %d-%d entries", MinOptions, MaxOptions))
	}
	for j, opt := range q.Options {
		if strings.TrimSpace(opt) == "" {
			res = multierror.Append(res, fmt.Errorf("option %d is empty", j+1))
		} else if utf8.RuneCountInString(opt) > MaxOptionLen {
			res = multierror.Append(res,
				fmt.Errorf("option %d exceeds %d characters", j+1, MaxOptionLen))
		}
	}

	if q.CorrectOption == nil {
		res = multierror.Append(res, fmt.Errorf("correctOption is required"))
	} else if *q.CorrectOption < 0 || *q.CorrectOption >= len(q.Options) {
		res = multierror.Append(res,
			fmt.Errorf("correctOption must index into options"))
	}

	if utf8.RuneCountInString(q.Explanation) > MaxExplanationLen {
		res = multierror.Append(res,
			fmt.Errorf("explanation must be at most %d characters", MaxExplanationLen))
	}

	return res.ErrorOrNil()
}

// questionError folds one question's failures into a single message
// with a short preview of the offending text.
func questionError(idx int, q Question, err error) string {
	var parts []string
	if merr, ok := err.(*multierror.Error); ok {
		for _, e := range merr.Errors {
			parts = append(parts, e.Error())
		}
	} else {
		parts = append(parts, err.Error())
	}

	label := fmt.Sprintf("Question %d", idx+1)
	if p := preview(q.Text); p != "" {
		label += fmt.Sprintf(" (%q)", p)
	}
	return label + ": " + strings.Join(parts, "; ")
}

func preview(text string) string {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) <= previewLen {
		return text
	}
	runes := []rune(text)
	return string(runes[:previewLen]) + "..."
}
