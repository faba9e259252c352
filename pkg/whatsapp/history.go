package whatsapp

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// HistoryEntry is one lecture line of a student history.
type HistoryEntry struct {
	LectureID string
	Title     string
	Present   bool
	MakeUp    bool
	Late      bool
	Date      string
}

// HistoryStats are the totals printed at the top of a history.
type HistoryStats struct {
	Total      int
	Present    int
	Absent     int
	MakeUps    int
	Late       int
	Percentage int
}

// History is everything FormatHistory needs.
type History struct {
	StudentName string
	Instructor  string
	Stats       HistoryStats
	Entries     []HistoryEntry
}

// FormatHistory renders a shareable attendance history, lectures in ascending id order.
func FormatHistory(h History, at time.Time) string {
	var b strings.Builder
	b.WriteString("📚 *HISTÓRICO 1ª CÂMARA*\n\n")
	fmt.Fprintf(&b, "👤 *Aluno:* %s\n", h.StudentName)
	fmt.Fprintf(&b, "👨‍🏫 *Instrutor:* %s\n", h.Instructor)
	fmt.Fprintf(&b, "📅 *Data do Relatório:* %s\n\n", at.Format("02/01/2006"))

	b.WriteString("📊 *ESTATÍSTICAS GERAIS*\n")
	fmt.Fprintf(&b, "• Total de Palestras: %d\n", h.Stats.Total)
	fmt.Fprintf(&b, "• Presenças: %d\n", h.Stats.Present)
	fmt.Fprintf(&b, "• Faltas: %d\n", h.Stats.Absent)
	fmt.Fprintf(&b, "• Reposições: %d\n", h.Stats.MakeUps)
	fmt.Fprintf(&b, "• Atrasos: %d\n", h.Stats.Late)
	fmt.Fprintf(&b, "• Percentual de Presença: %d%%\n\n", h.Stats.Percentage)

	b.WriteString("📋 *DETALHAMENTO POR LIÇÃO*\n\n")

	groups := make(map[string][]HistoryEntry)
	titles := make(map[string]string)
	ids := make([]string, 0)
	for _, e := range h.Entries {
		if _, seen := groups[e.LectureID]; !seen {
			ids = append(ids, e.LectureID)
			titles[e.LectureID] = e.Title
		}
		groups[e.LectureID] = append(groups[e.LectureID], e)
	}
	sort.Strings(ids)

	for _, id := range ids {
		fmt.Fprintf(&b, "*Lição %s: %s*\n", id, titles[id])
		for _, e := range groups[id] {
			if e.Present {
				b.WriteString("✅ Presente")
			} else {
				b.WriteString("❌ Ausente")
			}
			var extras []string
			if e.MakeUp {
				extras = append(extras, "📅 Reposição")
			}
			if e.Late {
				extras = append(extras, "⏰ Atraso")
			}
			if len(extras) > 0 {
				fmt.Fprintf(&b, " (%s)", strings.Join(extras, ", "))
			}
			if e.Date != "" {
				fmt.Fprintf(&b, " - %s", BRDate(e.Date))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	return b.String()
}

// HistoryMessage prefixes the formatted history with a short salutation.
func HistoryMessage(h History, at time.Time) string {
	return fmt.Sprintf("Olá, %s! Tudo bem?\n\n%s", h.StudentName, FormatHistory(h, at))
}
