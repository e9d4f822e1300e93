package mockserver

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, cfg Config) *Server {
	t.Helper()
	s := New(cfg)
	require.NoError(t, s.AddUser("alice", "alice@example.com", "pw"))
	return s
}

func do(t *testing.T, s *Server, req *http.Request) (int, map[string]interface{}) {
	t.Helper()
	resp, err := s.App().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var body map[string]interface{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &body), string(raw))
	}
	return resp.StatusCode, body
}

func jsonReq(method, path, token string, payload interface{}) *http.Request {
	raw, _ := json.Marshal(payload)
	req := httptest.NewRequest(method, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func getReq(path, token string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func login(t *testing.T, s *Server, username, password string) (int, map[string]interface{}) {
	form := url.Values{
		"grant_type": {"password"},
		"username":   {username},
		"password":   {password},
	}
	req := httptest.NewRequest(http.MethodPost, "/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return do(t, s, req)
}

func token(t *testing.T, s *Server) string {
	t.Helper()
	status, body := login(t, s, "alice", "pw")
	require.Equal(t, http.StatusOK, status)
	return body["access_token"].(string)
}

func TestToken(t *testing.T) {
	s := newTestServer(t, Config{})

	tests := []struct {
		name       string
		username   string
		password   string
		wantStatus int
	}{
		{name: "valid credentials", username: "alice", password: "pw", wantStatus: http.StatusOK},
		{name: "wrong password", username: "alice", password: "nope", wantStatus: http.StatusUnauthorized},
		{name: "unknown user", username: "bob", password: "pw", wantStatus: http.StatusUnauthorized},
		{name: "missing password", username: "alice", password: "", wantStatus: http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := login(t, s, tt.username, tt.password)
			assert.Equal(t, tt.wantStatus, status)
			if tt.wantStatus == http.StatusOK {
				assert.NotEmpty(t, body["access_token"])
				assert.Equal(t, "bearer", body["token_type"])
			} else {
				assert.NotContains(t, body, "access_token")
			}
		})
	}
}

func TestRegister(t *testing.T) {
	s := newTestServer(t, Config{})

	status, body := do(t, s, jsonReq(http.MethodPost, "/register/", "", map[string]string{
		"username": "bob", "email": "bob@example.com", "password": "secret1",
	}))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "bob", body["username"])

	status, body = do(t, s, jsonReq(http.MethodPost, "/register/", "", map[string]string{
		"username": "bob", "email": "bob@example.com", "password": "secret1",
	}))
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "Username already registered", body["detail"])

	status, _ = do(t, s, jsonReq(http.MethodPost, "/register/", "", map[string]string{
		"username": "carol", "email": "not-an-email", "password": "secret1",
	}))
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	status, _ = login(t, s, "bob", "secret1")
	assert.Equal(t, http.StatusOK, status)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t, Config{})

	for _, path := range []string{"/get-pdfs/", "/chat-list/", "/chat-history/1"} {
		status, body := do(t, s, getReq(path, ""))
		assert.Equal(t, http.StatusUnauthorized, status, path)
		assert.NotEmpty(t, body["detail"], path)

		status, _ = do(t, s, getReq(path, "garbage"))
		assert.Equal(t, http.StatusUnauthorized, status, path)
	}

	status, _ := do(t, s, jsonReq(http.MethodPost, "/chat/", "", map[string]interface{}{"msg": "hi", "chat_id": nil}))
	assert.Equal(t, http.StatusUnauthorized, status)
}

func uploadReq(t *testing.T, tok, filename, contentType string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	header.Set("Content-Type", contentType)
	part, err := w.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write([]byte("%PDF-1.4"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload/", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+tok)
	return req
}

func TestDocumentLifecycle(t *testing.T) {
	s := newTestServer(t, Config{})
	tok := token(t, s)

	status, body := do(t, s, uploadReq(t, tok, "report.pdf", "application/pdf"))
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "report.pdf", body["filename"])

	status, _ = do(t, s, uploadReq(t, tok, "notes.txt", "text/plain"))
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = do(t, s, getReq("/get-pdfs/", tok))
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, []interface{}{"report.pdf"}, body["pdfs"])

	status, _ = do(t, s, jsonReq(http.MethodDelete, "/delete-pdf/", tok, map[string]string{"filename": "report.pdf"}))
	assert.Equal(t, http.StatusOK, status)

	status, body = do(t, s, jsonReq(http.MethodPost, "/delete-pdf/", tok, map[string]string{"filename": "report.pdf"}))
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "File not found", body["detail"])

	assert.Empty(t, s.Documents("alice"))
}

func TestChatFlow(t *testing.T) {
	s := newTestServer(t, Config{NumericChatIDs: true})
	tok := token(t, s)
	s.AddDocument("alice", "report.pdf")

	status, body := do(t, s, jsonReq(http.MethodPost, "/new-chat/", tok, nil))
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(1), body["chat_id"])

	status, body = do(t, s, jsonReq(http.MethodPost, "/chat/", tok, map[string]interface{}{"msg": "What is X?", "chat_id": 1}))
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(1), body["chat_id"])
	assert.Equal(t, "Based on report.pdf: What is X?", body["response"])

	// An unknown chat id makes the server open a new chat.
	status, body = do(t, s, jsonReq(http.MethodPost, "/chat/", tok, map[string]interface{}{"msg": "hello", "chat_id": 42}))
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(2), body["chat_id"])

	status, body = do(t, s, getReq("/chat-history/1", tok))
	require.Equal(t, http.StatusOK, status)
	history := body["history"].([]interface{})
	require.Len(t, history, 2)
	assert.Equal(t, "user", history[0].(map[string]interface{})["role"])
	assert.Equal(t, "bot", history[1].(map[string]interface{})["role"])

	status, body = do(t, s, getReq("/chat-list/", tok))
	require.Equal(t, http.StatusOK, status)
	chats := body["chats"].([]interface{})
	require.Len(t, chats, 2)
	assert.Equal(t, "What is X?", chats[0].(map[string]interface{})["title"])

	status, _ = do(t, s, getReq("/chat-history/99", tok))
	assert.Equal(t, http.StatusNotFound, status)
}

func TestChatWithoutDocumentsAnswersNull(t *testing.T) {
	s := newTestServer(t, Config{})
	tok := token(t, s)

	status, body := do(t, s, jsonReq(http.MethodPost, "/chat/", tok, map[string]interface{}{"msg": "hi", "chat_id": nil}))
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "response")
	assert.Nil(t, body["response"])
	assert.NotEmpty(t, body["chat_id"])
}

func TestResetIsAnonymousAndClearsMemory(t *testing.T) {
	s := newTestServer(t, Config{})
	tok := token(t, s)

	_, body := do(t, s, jsonReq(http.MethodPost, "/chat/", tok, map[string]interface{}{"msg": "one", "chat_id": nil}))
	chatID := body["chat_id"].(string)
	do(t, s, jsonReq(http.MethodPost, "/chat/", tok, map[string]interface{}{"msg": "two", "chat_id": chatID}))
	assert.Equal(t, 2, s.MemoryLen(chatID))

	status, body := do(t, s, jsonReq(http.MethodPost, "/chat/", "", map[string]interface{}{"msg": "reset", "reset": true}))
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, resetAnswer, body["response"])
	assert.Equal(t, 0, s.MemoryLen(chatID))

	// History is not memory: the chat keeps its turns.
	_, body = do(t, s, getReq("/chat-history/"+chatID, tok))
	assert.Len(t, body["history"], 4)
}

func TestFailNextAndCalls(t *testing.T) {
	s := newTestServer(t, Config{})
	tok := token(t, s)

	s.FailNext("/get-pdfs/", http.StatusInternalServerError)
	s.RespondNext("/get-pdfs", http.StatusOK, `{"pdfs": ["a.pdf"]}`)

	status, body := do(t, s, getReq("/get-pdfs/", tok))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "internal server error", body["detail"])

	status, body = do(t, s, getReq("/get-pdfs/", tok))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, []interface{}{"a.pdf"}, body["pdfs"])

	status, body = do(t, s, getReq("/get-pdfs/", tok))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, []interface{}{}, body["pdfs"])

	assert.Equal(t, 3, s.Calls("/get-pdfs/"))
	assert.Equal(t, 1, s.Calls("/token"))
}

func TestLogoutRevokesToken(t *testing.T) {
	s := newTestServer(t, Config{LogoutPath: "/logout/"})
	tok := token(t, s)

	status, _ := do(t, s, jsonReq(http.MethodPost, "/logout/", tok, nil))
	require.Equal(t, http.StatusOK, status)

	status, _ = do(t, s, getReq("/get-pdfs/", tok))
	assert.Equal(t, http.StatusUnauthorized, status)
}
