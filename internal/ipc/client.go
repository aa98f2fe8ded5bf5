package ipc

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"syscall"
	"time"

	json "github.com/goccy/go-json"
)

// ErrNotRunning reports that no daemon owns the socket.
var ErrNotRunning = errors.New("ghostkeys daemon is not running")

// Send writes one JSON request line to the socket at path and reads one JSON
// response line back. The whole exchange shares a single deadline.
func Send(ctx context.Context, path string, req Request, timeout time.Duration) (Response, error) {
	conn, err := (&net.Dialer{Timeout: timeout}).DialContext(ctx, "unix", path)
	if err != nil {
		return Response{}, err
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(timeout)); err != nil {
		return Response{}, fmt.Errorf("set deadline: %w", err)
	}
	return exchange(conn, req)
}

func exchange(rw net.Conn, req Request) (Response, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return Response{}, fmt.Errorf("encode request: %w", err)
	}
	if _, err := rw.Write(append(payload, '\n')); err != nil {
		return Response{}, fmt.Errorf("write request: %w", err)
	}

	line, err := bufio.NewReader(rw).ReadBytes('\n')
	if err != nil {
		return Response{}, fmt.Errorf("read response: %w", err)
	}
	var resp Response
	if err := json.Unmarshal(line, &resp); err != nil {
		return Response{}, fmt.Errorf("decode response: %w", err)
	}
	return resp, nil
}

// Client is what every ghostkeys command uses to talk to the daemon.
type Client struct {
	Path    string
	Timeout time.Duration
}

// Do sends req. A refused or absent socket becomes ErrNotRunning and a
// response with OK=false becomes an error carrying the daemon's message; the
// response is still returned so callers can read its state.
func (c Client) Do(ctx context.Context, req Request) (Response, error) {
	resp, err := Send(ctx, c.Path, req, c.Timeout)
	switch {
	case noListener(err):
		return Response{}, fmt.Errorf("%w (socket %s)", ErrNotRunning, c.Path)
	case err != nil:
		return Response{}, err
	case !resp.OK:
		return resp, errors.New(resp.Error)
	}
	return resp, nil
}

// Probe reports whether a daemon answers a status request on path. No
// socket file and a refused connection both mean "not alive"; any other
// failure is returned since the owner may just be slow.
func Probe(ctx context.Context, path string, timeout time.Duration) (bool, error) {
	_, err := Send(ctx, path, Request{Command: CommandStatus}, timeout)
	switch {
	case err == nil:
		return true, nil
	case noListener(err):
		return false, nil
	}
	return false, fmt.Errorf("probe socket: %w", err)
}

func noListener(err error) bool {
	return err != nil && (errors.Is(err, os.ErrNotExist) || errors.Is(err, syscall.ECONNREFUSED))
}
