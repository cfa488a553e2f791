package emit

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// LogEmitter writes one line per event: text or JSON.
type LogEmitter struct {
	w        io.Writer
	jsonMode bool
}

// NewLogEmitter builds a LogEmitter writing to w (os.Stdout if nil).
func NewLogEmitter(w io.Writer, jsonMode bool) *LogEmitter {
	if w == nil {
		w = os.Stdout
	}
	return &LogEmitter{w: w, jsonMode: jsonMode}
}

func (l *LogEmitter) Emit(event Event) {
	if l.jsonMode {
		b, err := json.Marshal(event)
		if err != nil {
			return
		}
		fmt.Fprintln(l.w, string(b))
		return
	}
	fmt.Fprintf(l.w, "[%s] run=%s %s meta=%v\n", event.Stage, event.RunID, event.Msg, event.Meta)
}
