package server

import "strings"

// FormSubmission is one booking request. It lives for a single request.
type FormSubmission struct {
	Name    string
	Phone   string
	Date    string
	Comment string
}

// RenderMessage builds the Telegram HTML body for s.
//
// Values are embedded verbatim. Markup inside a value is not escaped, so a
// stray "<" can make Telegram reject the message; that surfaces as a normal
// delivery failure.
func RenderMessage(s FormSubmission) string {
	var b strings.Builder
	b.WriteString("<b>Новая заявка с сайта!</b>\n\n")
	line := func(label, value string) {
		b.WriteString("<b>")
		b.WriteString(label)
		b.WriteString(":</b> ")
		b.WriteString(value)
	}
	line("Имя", s.Name)
	b.WriteString("\n")
	line("Телефон", s.Phone)
	b.WriteString("\n")
	line("Дата", s.Date)
	b.WriteString("\n")
	line("Комментарий", s.Comment)
	return b.String()
}
