package mockserver

import (
	"errors"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"golang.org/x/crypto/bcrypt"
)

var (
	errUserExists   = errors.New("username already registered")
	errBadLogin     = errors.New("incorrect username or password")
	errFileNotFound = errors.New("file not found")
	errChatNotFound = errors.New("chat not found")
)

const (
	roleUser = "user"
	// The backend labels assistant turns "bot".
	roleBot = "bot"
)

type user struct {
	email string
	hash  []byte
}

type historyItem struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

type chat struct {
	id      string
	title   string
	history []historyItem
}

type account struct {
	documents map[string]int
	chats     []*chat
}

// memoryStore is the backend's whole state. Users, documents and chats live
// in maps; the conversational memory buffer and revoked tokens live in
// expiring go-cache instances.
type memoryStore struct {
	mu       sync.Mutex
	users    map[string]user
	accounts map[string]*account
	nextChat int
	numeric  bool

	memory  *cache.Cache
	revoked *cache.Cache
}

func newMemoryStore(numericChatIDs bool, tokenTTL time.Duration) *memoryStore {
	return &memoryStore{
		users:    make(map[string]user),
		accounts: make(map[string]*account),
		numeric:  numericChatIDs,
		memory:   cache.New(1*time.Hour, 10*time.Minute),
		revoked:  cache.New(tokenTTL, 10*time.Minute),
	}
}

func (s *memoryStore) addUser(username, email, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[username]; exists {
		return errUserExists
	}
	s.users[username] = user{email: email, hash: hash}
	s.accounts[username] = &account{documents: make(map[string]int)}
	return nil
}

func (s *memoryStore) authenticate(username, password string) error {
	s.mu.Lock()
	u, ok := s.users[username]
	s.mu.Unlock()
	if !ok {
		return errBadLogin
	}
	if bcrypt.CompareHashAndPassword(u.hash, []byte(password)) != nil {
		return errBadLogin
	}
	return nil
}

func (s *memoryStore) account(username string) *account {
	acc, ok := s.accounts[username]
	if !ok {
		acc = &account{documents: make(map[string]int)}
		s.accounts[username] = acc
	}
	return acc
}

func (s *memoryStore) putDocument(username, filename string, size int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.account(username).documents[filename] = size
}

func (s *memoryStore) deleteDocument(username, filename string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs := s.account(username).documents
	if _, ok := docs[filename]; !ok {
		return errFileNotFound
	}
	delete(docs, filename)
	return nil
}

func (s *memoryStore) documents(username string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs := s.account(username).documents
	names := make([]string, 0, len(docs))
	for name := range docs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *memoryStore) newChatLocked(username string) *chat {
	id := uuid.NewString()
	if s.numeric {
		s.nextChat++
		id = strconv.Itoa(s.nextChat)
	}
	c := &chat{id: id, title: "New chat", history: []historyItem{}}
	acc := s.account(username)
	acc.chats = append(acc.chats, c)
	return c
}

func (s *memoryStore) newChat(username string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.newChatLocked(username).id
}

func (s *memoryStore) findChatLocked(username, id string) *chat {
	for _, c := range s.account(username).chats {
		if c.id == id {
			return c
		}
	}
	return nil
}

func (s *memoryStore) chats(username string) []chat {
	s.mu.Lock()
	defer s.mu.Unlock()

	chats := s.account(username).chats
	out := make([]chat, 0, len(chats))
	for _, c := range chats {
		out = append(out, chat{id: c.id, title: c.title})
	}
	return out
}

func (s *memoryStore) history(username, id string) ([]historyItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.findChatLocked(username, id)
	if c == nil {
		return nil, errChatNotFound
	}
	return append([]historyItem{}, c.history...), nil
}

// resolveChat returns id when the user owns it. An empty or unknown id opens
// a new chat, whose id is returned instead.
func (s *memoryStore) resolveChat(username, id string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c := s.findChatLocked(username, id); c != nil {
		return c.id
	}
	return s.newChatLocked(username).id
}

func (s *memoryStore) recordTurn(username, id, question string, answer *string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.findChatLocked(username, id)
	if c == nil {
		return
	}
	if len(c.history) == 0 {
		c.title = titleFrom(question)
	}

	text := ""
	if answer != nil {
		text = *answer
	}
	c.history = append(c.history,
		historyItem{Role: roleUser, Text: question},
		historyItem{Role: roleBot, Text: text},
	)
}

func titleFrom(question string) string {
	const max = 40
	runes := []rune(question)
	if len(runes) <= max {
		return question
	}
	return string(runes[:max]) + "..."
}

// remember adds question to the memory buffer of chat id and returns how
// many earlier questions the buffer held.
func (s *memoryStore) remember(id, question string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	var buffer []string
	if x, found := s.memory.Get(id); found {
		buffer = x.([]string)
	}
	s.memory.Set(id, append(buffer, question), cache.DefaultExpiration)
	return len(buffer)
}

func (s *memoryStore) memoryLen(id string) int {
	if x, found := s.memory.Get(id); found {
		return len(x.([]string))
	}
	return 0
}

func (s *memoryStore) forgetAll() {
	s.memory.Flush()
}

func (s *memoryStore) revoke(token string) {
	s.revoked.Set(token, true, cache.DefaultExpiration)
}

func (s *memoryStore) isRevoked(token string) bool {
	_, found := s.revoked.Get(token)
	return found
}
