package hypr

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
)

// DefaultColor is the notification accent used when none is configured.
const DefaultColor = "rgb(89b4fa)"

// Window is the focused client, the one receiving typed keystrokes.
type Window struct {
	Address      string `json:"address"`
	Class        string `json:"class"`
	InitialClass string `json:"initialClass"`
	Title        string `json:"title"`
}

// Label names the window for logs: "class (title)", or just the class.
func (w Window) Label() string {
	if w.Title == "" {
		return w.Class
	}
	return w.Class + " (" + w.Title + ")"
}

// FocusedWindow asks hyprctl for the active window. A reply without an
// address means nothing has focus.
func FocusedWindow(ctx context.Context) (Window, error) {
	raw, err := ctl(ctx, "-j", "activewindow")
	if err != nil {
		return Window{}, err
	}

	var w Window
	if err := json.Unmarshal(raw, &w); err != nil {
		return Window{}, fmt.Errorf("decode activewindow reply: %w", err)
	}
	for _, field := range []*string{&w.Address, &w.Class, &w.InitialClass, &w.Title} {
		*field = strings.TrimSpace(*field)
	}
	if w.Address == "" {
		return Window{}, errors.New("no focused window (empty address)")
	}
	return w, nil
}

// Notification is one on-screen message drawn by the compositor.
type Notification struct {
	// Icon is Hyprland's icon index: 0 warning, 1 info, 2 hint, 3 error.
	Icon      int
	TimeoutMS int
	Color     string
	Text      string
}

// Notify shows n, replacing nothing; callers dismiss first when needed.
func Notify(ctx context.Context, n Notification) error {
	color := strings.TrimSpace(n.Color)
	if color == "" {
		color = DefaultColor
	}
	return dispatch(ctx, "notify", strconv.Itoa(n.Icon), strconv.Itoa(n.TimeoutMS), color, n.Text)
}

// Dismiss clears every visible compositor notification.
func Dismiss(ctx context.Context) error {
	return dispatch(ctx, "dismissnotify")
}
