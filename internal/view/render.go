package view

import (
	"fmt"
	"strings"

	"ai-ragchat-client/internal/session"

	"github.com/fatih/color"
)

// MaxRenderedMessages bounds how much history one render prints.
const MaxRenderedMessages = 20

var (
	headerColor    = color.New(color.FgCyan, color.Bold).SprintFunc()
	userColor      = color.New(color.FgGreen, color.Bold).SprintFunc()
	assistantColor = color.New(color.FgMagenta, color.Bold).SprintFunc()
	mutedColor     = color.New(color.Faint).SprintFunc()
	errorColor     = color.New(color.FgRed).SprintFunc()
	noticeColor    = color.New(color.FgYellow).SprintFunc()
)

// Render draws the whole session. It depends on nothing but s.
func Render(s session.State) string {
	var b strings.Builder

	b.WriteString(headerColor("── session ──"))
	b.WriteString("\n")

	if !s.IsAuthenticated() {
		b.WriteString("not logged in (/login <user> <password>)\n")
		return b.String()
	}

	fmt.Fprintf(&b, "user: %s\n", s.Username)

	if len(s.Documents) == 0 {
		fmt.Fprintf(&b, "documents: %s\n", mutedColor("none"))
	} else {
		fmt.Fprintf(&b, "documents (%d): %s\n", len(s.Documents), strings.Join(s.Documents, ", "))
	}

	if s.CurrentChatID.IsZero() {
		fmt.Fprintf(&b, "chat: %s\n", mutedColor("none, the next message opens one"))
	} else {
		fmt.Fprintf(&b, "chat: %s\n", s.CurrentChatID)
	}

	if len(s.History) == 0 {
		return b.String()
	}

	b.WriteString(headerColor("── history ──"))
	b.WriteString("\n")

	history := s.History
	if hidden := len(history) - MaxRenderedMessages; hidden > 0 {
		fmt.Fprintf(&b, "%s\n", mutedColor(fmt.Sprintf("(%d earlier messages)", hidden)))
		history = history[hidden:]
	}
	for _, m := range history {
		b.WriteString(RenderMessage(m))
		b.WriteString("\n")
	}
	return b.String()
}

func RenderMessage(m session.Message) string {
	if m.Role == session.RoleUser {
		return userColor("Human: ") + m.Text
	}
	return assistantColor("AI: ") + m.Text
}

func RenderError(err error) string {
	return errorColor("error: " + err.Error())
}

func RenderNotice(text string) string {
	return noticeColor(text)
}
