package session

import (
	"sort"

	"ai-ragchat-client/internal/dto"
)

// Transition is a named pure function from one state to the next.
type Transition struct {
	Name  string
	Apply func(State) State
}

func LoggedIn(username, token string) Transition {
	return Transition{
		Name: "logged_in",
		Apply: func(State) State {
			next := Anonymous()
			next.Username = username
			next.Token = token
			return next
		},
	}
}

func LoggedOut() Transition {
	return Transition{
		Name: "logged_out",
		Apply: func(State) State {
			return Anonymous()
		},
	}
}

// DocumentsRefreshed overwrites the local mirror with the server list.
func DocumentsRefreshed(filenames []string) Transition {
	return Transition{
		Name: "documents_refreshed",
		Apply: func(s State) State {
			next := s.clone()
			next.Documents = sortedUnique(filenames)
			return next
		},
	}
}

func ChatCreated(id dto.ChatID) Transition {
	return Transition{
		Name: "chat_created",
		Apply: func(s State) State {
			next := s.clone()
			next.CurrentChatID = id
			next.History = []Message{}
			return next
		},
	}
}

// ChatSelected switches chats and replaces the history wholesale.
func ChatSelected(id dto.ChatID, history []Message) Transition {
	return Transition{
		Name: "chat_selected",
		Apply: func(s State) State {
			next := s.clone()
			next.CurrentChatID = id
			next.History = append(make([]Message, 0, len(history)), history...)
			return next
		},
	}
}

// TurnCommitted appends one user message and its answer together. An empty
// chatID keeps the current chat. When the server moved the turn into another
// chat, the history restarts with this turn since the previous messages
// belong to the old chat.
func TurnCommitted(userText, answer string, chatID dto.ChatID) Transition {
	return Transition{
		Name: "turn_committed",
		Apply: func(s State) State {
			next := s.clone()
			if !chatID.IsZero() {
				if !next.CurrentChatID.IsZero() && next.CurrentChatID != chatID {
					next.History = []Message{}
				}
				next.CurrentChatID = chatID
			}
			next.History = append(next.History,
				Message{Role: RoleUser, Text: userText},
				Message{Role: RoleAssistant, Text: answer},
			)
			return next
		},
	}
}

func HistoryCleared() Transition {
	return Transition{
		Name: "history_cleared",
		Apply: func(s State) State {
			next := s.clone()
			next.History = []Message{}
			return next
		},
	}
}

func sortedUnique(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
