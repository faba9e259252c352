// Package whatsapp composes the messages instructors send to students and the
// wa.me deep links that open them. Nothing here talks to WhatsApp itself.
package whatsapp

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// DefaultCountryCode is used when a student has no country code on record.
const DefaultCountryCode = "55"

// Link builds a https://wa.me deep link for the given number and message.
func Link(countryCode, number, text string) string {
	cc := Digits(countryCode)
	if cc == "" {
		cc = DefaultCountryCode
	}
	return "https://wa.me/+" + cc + Digits(number) + "?text=" + strings.ReplaceAll(url.QueryEscape(text), "+", "%20")
}

// Digits strips everything but ASCII digits.
func Digits(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Greeting salutes name according to the hour of at.
func Greeting(name string, at time.Time) string {
	salute := "Bom dia"
	switch h := at.Hour(); {
	case h >= 18:
		salute = "Boa noite"
	case h >= 12:
		salute = "Boa tarde"
	}
	return fmt.Sprintf("%s, %s! Tudo bem?", salute, name)
}

// MessageKind selects the body appended after the greeting.
type MessageKind string

const (
	KindConversation MessageKind = "conversa"
	KindSummary      MessageKind = "resumo"
	KindMotivation   MessageKind = "motivacao"
)

// Valid reports whether k is a known kind.
func (k MessageKind) Valid() bool {
	switch k {
	case KindConversation, KindSummary, KindMotivation:
		return true
	}
	return false
}

// LectureMessage composes a greeting plus the body for kind about the lecture title.
func LectureMessage(kind MessageKind, name, lectureTitle string, at time.Time) string {
	msg := Greeting(name, at)
	switch kind {
	case KindSummary:
		msg += "\n\n📚 " + lectureTitle + "\n\n" + LessonSummary(lectureTitle)
	case KindMotivation:
		msg += "\n\n💪 " + lectureTitle + "\n\n" + Motivation(lectureTitle)
	default:
		msg += "\n\nGostaria de conversar com você sobre a aula."
	}
	return msg
}

// MakeUp holds what the make-up notification mentions.
type MakeUp struct {
	StudentName  string
	LectureTitle string
	Date         string
	Instructor   string
	Notes        string
}

// MakeUpMessage renders the scheduled make-up notification.
func MakeUpMessage(m MakeUp) string {
	var b strings.Builder
	b.WriteString("📅 *REPOSIÇÃO AGENDADA*\n\n")
	fmt.Fprintf(&b, "Olá %s!\n\n", m.StudentName)
	b.WriteString("Sua reposição foi agendada para:\n")
	fmt.Fprintf(&b, "📚 *Aula:* %s\n", m.LectureTitle)
	fmt.Fprintf(&b, "📅 *Data:* %s\n", BRDate(m.Date))
	fmt.Fprintf(&b, "👨‍🏫 *Instrutor:* %s\n\n", m.Instructor)
	if notes := strings.TrimSpace(m.Notes); notes != "" {
		fmt.Fprintf(&b, "📝 *Observações:* %s\n\n", notes)
	}
	b.WriteString("Aguardamos você na reposição! 🙏")
	return b.String()
}

// BRDate renders an ISO date (YYYY-MM-DD, optionally with a time part) as dd/mm/yyyy.
// Values that do not parse are returned unchanged.
func BRDate(iso string) string {
	iso = strings.TrimSpace(iso)
	if len(iso) >= 10 {
		if t, err := time.Parse("2006-01-02", iso[:10]); err == nil {
			return t.Format("02/01/2006")
		}
	}
	return iso
}
