package ipc

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	json "github.com/goccy/go-json"
)

// Handler processes one IPC command request.
type Handler interface {
	Handle(context.Context, Request) Response
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(context.Context, Request) Response

func (f HandlerFunc) Handle(ctx context.Context, req Request) Response {
	return f(ctx, req)
}

var requestValidator = newRequestValidator()

func newRequestValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
	return v
}

// Validate rejects requests with an unknown command or missing payload.
func (r Request) Validate() error {
	if err := requestValidator.Struct(r); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return err
		}
		problems := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			path := strings.TrimPrefix(fe.Namespace(), "Request.")
			switch {
			case path == "command":
				problems = append(problems, fmt.Sprintf("unknown command %q", r.Command))
			case fe.Tag() == "required_if":
				problems = append(problems, fmt.Sprintf("%s is required for %s", path, r.Command))
			default:
				problems = append(problems, fmt.Sprintf("%s failed %s=%s", path, fe.Tag(), fe.Param()))
			}
		}
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

// connDeadline bounds how long one client may hold a connection.
const connDeadline = 5 * time.Second

// Serve answers one request per connection until ctx is cancelled or the
// listener is closed. In-flight connections finish before it returns.
func Serve(ctx context.Context, listener net.Listener, handler Handler) error {
	var inflight sync.WaitGroup
	defer inflight.Wait()

	stop := context.AfterFunc(ctx, func() { _ = listener.Close() })
	defer stop()

	for {
		conn, err := listener.Accept()
		if errors.Is(err, net.ErrClosed) || (err != nil && ctx.Err() != nil) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("accept IPC connection: %w", err)
		}

		inflight.Add(1)
		go func() {
			defer inflight.Done()
			defer conn.Close()
			_ = conn.SetDeadline(time.Now().Add(connDeadline))
			_ = json.NewEncoder(conn).Encode(answer(ctx, conn, handler))
		}()
	}
}

// answer reads one request line and produces the response to send back.
// Malformed or invalid requests never reach handler.
func answer(ctx context.Context, r io.Reader, handler Handler) Response {
	line, err := bufio.NewReader(r).ReadBytes('\n')
	if err != nil {
		return Response{Error: fmt.Sprintf("read request: %v", err)}
	}
	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		return Response{Error: fmt.Sprintf("decode request: %v", err)}
	}
	if err := req.Validate(); err != nil {
		return Response{Error: fmt.Sprintf("invalid request: %v", err)}
	}
	return handler.Handle(ctx, req)
}
