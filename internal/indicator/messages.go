package indicator

import "fmt"

// messages is the notification copy. Only English ships today.
type messages struct {
	typing    string
	paused    string
	done      string
	errorText string
}

var english = messages{
	typing:    "Typing…",
	paused:    "Paused",
	done:      "Done typing",
	errorText: "Typing failed",
}

func (m messages) countdown(remaining int) string {
	return fmt.Sprintf("Typing in %d…", remaining)
}

// progress truncates so "100%" only appears once the run is done.
func (m messages) progress(percent float64) string {
	return fmt.Sprintf("%s %d%%", m.typing, int(percent))
}
