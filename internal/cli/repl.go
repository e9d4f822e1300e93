package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"ai-ragchat-client/internal/dto"
	"ai-ragchat-client/internal/pkg/logger"
	"ai-ragchat-client/internal/service"
	"ai-ragchat-client/internal/view"
)

const helpText = `commands:
  /login <user> <password>          log in and load your documents
  /register <user> <email> <pass>   create an account
  /logout                           end the session
  /upload <path.pdf>                upload a PDF
  /delete <name.pdf>                delete a document
  /docs                             reload the document list
  /chats                            list your chats
  /new                              open a new chat
  /select <chat id>                 switch to a chat
  /reset [word]                     clear the history and the server memory
  /help                             show this help
  /quit                             exit
anything else is sent to the current chat`

type Deps struct {
	Auth      service.IAuthService
	Documents service.IDocumentService
	Chats     service.IChatService
	In        io.Reader
	Out       io.Writer
	Logger    logger.ILogger
	// ReadFile loads upload contents. Defaults to os.ReadFile.
	ReadFile func(path string) ([]byte, error)
}

// REPL maps one input line to one service operation. Session output is
// drawn by the view on state changes; the REPL itself prints only command
// results that are not part of the session.
type REPL struct {
	deps Deps
}

func New(deps Deps) *REPL {
	if deps.ReadFile == nil {
		deps.ReadFile = os.ReadFile
	}
	if deps.Logger == nil {
		deps.Logger = logger.NewNopLogger()
	}
	return &REPL{deps: deps}
}

// maxLineBytes bounds one input line. Longer lines are reported and skipped.
const maxLineBytes = 1 << 20

var (
	errQuit        = errors.New("quit")
	errLineTooLong = fmt.Errorf("input line longer than %d bytes, ignored", maxLineBytes)
)

type inputLine struct {
	text string
	err  error
}

// Run reads commands until EOF, /quit or ctx is done. Cancelling ctx stops
// Run at once even while it waits for input.
func (r *REPL) Run(ctx context.Context) error {
	r.println(view.RenderNotice("type /help for commands"))

	readCtx, stop := context.WithCancel(ctx)
	defer stop()
	lines := r.readLines(readCtx)

	for {
		fmt.Fprint(r.deps.Out, "> ")

		var line inputLine
		select {
		case <-ctx.Done():
			r.println("")
			return nil
		case line = <-lines:
		}

		switch {
		case errors.Is(line.err, io.EOF):
			r.println("")
			return nil
		case errors.Is(line.err, errLineTooLong):
			r.println(view.RenderError(line.err))
			continue
		case line.err != nil:
			return line.err
		}

		err := r.Execute(ctx, line.text)
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			r.println(view.RenderError(err))
		}
	}
}

// readLines feeds input lines one at a time so Run can wait on ctx and the
// input together. The channel ends with io.EOF or a read error.
func (r *REPL) readLines(ctx context.Context) <-chan inputLine {
	lines := make(chan inputLine)
	go func() {
		reader := bufio.NewReader(r.deps.In)
		for {
			text, err := readLine(reader)
			select {
			case lines <- inputLine{text: text, err: err}:
			case <-ctx.Done():
				return
			}
			if err != nil && !errors.Is(err, errLineTooLong) {
				return
			}
		}
	}()
	return lines
}

// readLine returns the next line without its terminator. A line over
// maxLineBytes is consumed in full and reported as errLineTooLong.
func readLine(reader *bufio.Reader) (string, error) {
	var buf []byte
	tooLong := false
	for {
		chunk, err := reader.ReadSlice('\n')
		if !tooLong {
			if len(buf)+len(chunk) > maxLineBytes {
				tooLong, buf = true, nil
			} else {
				buf = append(buf, chunk...)
			}
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}

		switch {
		case tooLong:
			return "", errLineTooLong
		case errors.Is(err, io.EOF) && len(buf) > 0:
			return strings.TrimRight(string(buf), "\r\n"), nil
		case err != nil:
			return "", err
		}
		return strings.TrimRight(string(buf), "\r\n"), nil
	}
}

// Execute runs a single input line.
func (r *REPL) Execute(ctx context.Context, line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	if !strings.HasPrefix(line, "/") {
		return r.send(ctx, line)
	}

	fields := strings.Fields(line)
	command, args := fields[0], fields[1:]

	r.deps.Logger.Debug("cli", "Command", map[string]interface{}{"command": command, "args": len(args)})

	switch command {
	case "/login":
		if len(args) != 2 {
			return usage("/login <user> <password>")
		}
		_, err := r.deps.Auth.Login(ctx, args[0], args[1])
		return err

	case "/register":
		if len(args) != 3 {
			return usage("/register <user> <email> <password>")
		}
		resp, err := r.deps.Auth.Register(ctx, args[0], args[1], args[2])
		if err != nil {
			return err
		}
		message := resp.Message
		if message == "" {
			message = "registered"
		}
		r.println(view.RenderNotice(message + ", you can /login now"))
		return nil

	case "/logout":
		r.deps.Auth.Logout(ctx)
		return nil

	case "/upload":
		if len(args) != 1 {
			return usage("/upload <path.pdf>")
		}
		return r.upload(ctx, args[0])

	case "/delete":
		if len(args) != 1 {
			return usage("/delete <name.pdf>")
		}
		resp, err := r.deps.Documents.Delete(ctx, args[0])
		if resp != nil && resp.Message != "" {
			r.println(view.RenderNotice(resp.Message))
		}
		return err

	case "/docs":
		_, err := r.deps.Documents.Refresh(ctx)
		return err

	case "/chats":
		return r.listChats(ctx)

	case "/new":
		_, err := r.deps.Chats.CreateChat(ctx)
		return err

	case "/select":
		if len(args) != 1 {
			return usage("/select <chat id>")
		}
		_, err := r.deps.Chats.SelectChat(ctx, dto.ChatID(args[0]))
		return err

	case "/reset":
		return r.reset(ctx, args)

	case "/help":
		r.println(helpText)
		return nil

	case "/quit", "/exit":
		return errQuit
	}

	return fmt.Errorf("unknown command %s, try /help", command)
}

func (r *REPL) send(ctx context.Context, text string) error {
	_, err := r.deps.Chats.Send(ctx, text)
	return err
}

func (r *REPL) upload(ctx context.Context, path string) error {
	content, err := r.deps.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	resp, err := r.deps.Documents.Upload(ctx, filepath.Base(path), content)
	if resp != nil {
		message := resp.Message
		if message == "" {
			message = "uploaded"
		}
		r.println(view.RenderNotice(resp.Filename + ": " + message))
	}
	return err
}

func (r *REPL) listChats(ctx context.Context) error {
	chats, err := r.deps.Chats.ListChats(ctx)
	if err != nil {
		return err
	}
	if len(chats) == 0 {
		r.println("no chats yet")
		return nil
	}
	for _, c := range chats {
		r.println(fmt.Sprintf("  %s  %s", c.ChatId, c.Title))
	}
	return nil
}

// reset mirrors a "reset chat" button: drop the local history, then tell
// the server to forget the conversation.
func (r *REPL) reset(ctx context.Context, args []string) error {
	word := dto.DefaultResetWord
	if len(args) > 0 {
		word = strings.Join(args, " ")
	}

	if err := r.deps.Chats.ClearHistory(); err != nil && !errors.Is(err, service.ErrNotAuthenticated) {
		return err
	}

	answer, err := r.deps.Chats.Reset(ctx, word)
	if err != nil {
		return err
	}
	r.println(view.RenderNotice(answer))
	return nil
}

func (r *REPL) println(text string) {
	fmt.Fprintln(r.deps.Out, text)
}

func usage(text string) error {
	return fmt.Errorf("usage: %s", text)
}
