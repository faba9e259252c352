package whatsapp

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinkDefaultsCountryCode(t *testing.T) {
	link := Link("", "(11) 98765-4321", "Olá Ana")
	assert.Equal(t, "https://wa.me/+5511987654321?text=Ol%C3%A1%20Ana", link)

	link = Link("+351", "912 345 678", "")
	assert.True(t, strings.HasPrefix(link, "https://wa.me/+351912345678?text="))
}

func TestGreetingByHour(t *testing.T) {
	day := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	cases := map[int]string{
		8:  "Bom dia, Ana! Tudo bem?",
		12: "Boa tarde, Ana! Tudo bem?",
		17: "Boa tarde, Ana! Tudo bem?",
		18: "Boa noite, Ana! Tudo bem?",
		23: "Boa noite, Ana! Tudo bem?",
	}
	for hour, want := range cases {
		assert.Equal(t, want, Greeting("Ana", day.Add(time.Duration(hour)*time.Hour)))
	}
}

func TestMakeUpMessage(t *testing.T) {
	msg := MakeUpMessage(MakeUp{
		StudentName:  "Ana",
		LectureTitle: "O Eu Psicológico",
		Date:         "2024-03-15",
		Instructor:   "João",
	})
	want := "📅 *REPOSIÇÃO AGENDADA*\n\nOlá Ana!\n\nSua reposição foi agendada para:\n" +
		"📚 *Aula:* O Eu Psicológico\n📅 *Data:* 15/03/2024\n👨‍🏫 *Instrutor:* João\n\n" +
		"Aguardamos você na reposição! 🙏"
	assert.Equal(t, want, msg)

	withNotes := MakeUpMessage(MakeUp{StudentName: "Ana", Date: "2024-03-15", Notes: "sala 2"})
	assert.Contains(t, withNotes, "📝 *Observações:* sala 2\n\nAguardamos")
}

func TestLessonLookups(t *testing.T) {
	assert.True(t, strings.HasPrefix(LessonSummary("O que é Gnosis"), "https://drive.google.com/"))
	assert.Equal(t, "Resumo não disponível.", LessonSummary("Desconhecida"))

	title, ok := LessonTitle("23")
	require.True(t, ok)
	assert.Equal(t, "Lição 23: A Santa Igreja Gnóstica", title)
	_, ok = LessonTitle("24")
	assert.False(t, ok)
}

func TestLectureMessageKinds(t *testing.T) {
	at := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	msg := LectureMessage(KindSummary, "Ana", "A Máquina Humana", at)
	assert.True(t, strings.HasPrefix(msg, "Bom dia, Ana! Tudo bem?\n\n📚 A Máquina Humana\n\nhttps://"))

	msg = LectureMessage(KindConversation, "Ana", "A Máquina Humana", at)
	assert.True(t, strings.HasSuffix(msg, "Gostaria de conversar com você sobre a aula."))
	assert.False(t, MessageKind("outro").Valid())
}

func TestFormatHistoryOrdersLectures(t *testing.T) {
	h := History{
		StudentName: "Ana",
		Instructor:  "João",
		Stats:       HistoryStats{Total: 2, Present: 1, Absent: 1, MakeUps: 1, Percentage: 50},
		Entries: []HistoryEntry{
			{LectureID: "02", Title: "Personalidade, Essência e Ego"},
			{LectureID: "01", Title: "O que é Gnosis", Present: true, MakeUp: true, Date: "2024-03-01"},
		},
	}
	out := FormatHistory(h, time.Date(2024, 3, 20, 10, 0, 0, 0, time.UTC))

	assert.Contains(t, out, "📅 *Data do Relatório:* 20/03/2024")
	assert.Contains(t, out, "• Percentual de Presença: 50%")
	first := strings.Index(out, "*Lição 01: O que é Gnosis*\n✅ Presente (📅 Reposição) - 01/03/2024\n")
	second := strings.Index(out, "*Lição 02: Personalidade, Essência e Ego*\n❌ Ausente\n")
	require.NotEqual(t, -1, first)
	require.NotEqual(t, -1, second)
	assert.Less(t, first, second)
}
