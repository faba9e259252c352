package models

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/noah-isme/class-control-api/pkg/docstore"
)

// Lecture (palestra) is one curriculum unit of a class.
type Lecture struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	Subtitle       string `json:"subtitle,omitempty"`
	Date           string `json:"date"`
	Instructor     string `json:"instructor"`
	TotalFragments int    `json:"total_fragments"`
}

// Fragmented reports whether attendance is kept per fragment.
func (l Lecture) Fragmented() bool {
	return l.TotalFragments > 1
}

// DisplayTitle falls back to "Palestra {id}" when the lecture has no title.
func (l Lecture) DisplayTitle() string {
	if strings.TrimSpace(l.Title) != "" {
		return l.Title
	}
	return "Palestra " + l.ID
}

// LectureFromDocument decodes a lecture or lecture template document.
func LectureFromDocument(doc docstore.Document) Lecture {
	f := doc.Fields()
	return Lecture{
		ID:             doc.ID,
		Title:          f.Map("nome").String("pt"),
		Subtitle:       f.String("titulo"),
		Date:           f.String("data"),
		Instructor:     f.String("instrutor"),
		TotalFragments: f.Int("totalFragmentos"),
	}
}

// Fragment is one part of a fragmented lecture.
type Fragment struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
}

// FragmentDocID returns the document id of fragment n.
func FragmentDocID(n int) string {
	return "fragment_" + strconv.Itoa(n)
}

// FragmentFromDocument decodes a fragment document, taking the number from the id when absent.
func FragmentFromDocument(doc docstore.Document) Fragment {
	f := doc.Fields()
	n := f.Int("numero")
	if n == 0 {
		n, _ = strconv.Atoi(strings.TrimPrefix(doc.ID, "fragment_"))
	}
	return Fragment{Number: n, Title: f.String("titulo")}
}

// FragmentLabel is the column title used when a fragment document is missing.
func FragmentLabel(n int) string {
	return fmt.Sprintf("Parte %d", n)
}
