package tui

import (
	"fmt"
	"time"

	"github.com/Iron-Ham/linebridge/internal/event"
	"github.com/Iron-Ham/linebridge/internal/tui/filter"
	"github.com/Iron-Ham/linebridge/internal/tui/styles"
)

// LineKind classifies a console log line.
type LineKind int

const (
	KindReceived LineKind = iota
	KindSent
	KindNotice
	KindError
)

func (k LineKind) filterCategory() string {
	switch k {
	case KindReceived:
		return filter.CategoryReceived
	case KindSent:
		return filter.CategorySent
	case KindError:
		return filter.CategoryErrors
	default:
		return filter.CategoryNotices
	}
}

// Line is one entry in the console log.
type Line struct {
	Time time.Time
	Kind LineKind
	Text string
}

// LineFromEvent converts a bus event into a console line. It returns false
// for events the console does not show.
func LineFromEvent(e event.Event) (Line, bool) {
	l := Line{Time: e.Timestamp()}
	switch ev := e.(type) {
	case event.MessageReceivedEvent:
		l.Kind, l.Text = KindReceived, ev.Message
	case event.MessageSentEvent:
		l.Kind, l.Text = KindSent, ev.Message
	case event.EndOfStreamEvent:
		l.Kind, l.Text = KindNotice, "input closed"
	case event.ReadErrorEvent:
		l.Kind, l.Text = KindError, fmt.Sprintf("read error: %v", ev.Err)
	case event.WriteFailedEvent:
		l.Kind, l.Text = KindError, fmt.Sprintf("could not send %q: %v", ev.Message, ev.Err)
	case event.PeerLostEvent:
		l.Kind, l.Text = KindNotice, "peer stopped answering heartbeats"
	case event.PeerRestoredEvent:
		l.Kind, l.Text = KindNotice, fmt.Sprintf("peer back after %s", ev.Downtime.Round(time.Millisecond))
	case event.ConfigReloadedEvent:
		l.Kind, l.Text = KindNotice, "config reloaded from "+ev.Path
	case event.BridgeStoppedEvent:
		l.Kind, l.Text = KindNotice, "bridge stopped: "+ev.Reason
	default:
		return Line{}, false
	}
	return l, true
}

// Render formats the line for the log view.
func (l Line) Render(showTimestamp bool) string {
	var prefix string
	if showTimestamp {
		prefix = styles.Muted.Render(l.Time.Format("15:04:05.000")) + " "
	}

	switch l.Kind {
	case KindReceived:
		return prefix + styles.Received.Render("<") + " " + l.Text
	case KindSent:
		return prefix + styles.Sent.Render(">") + " " + l.Text
	case KindError:
		return prefix + styles.Error.Render("! "+l.Text)
	default:
		return prefix + styles.Notice.Render("* "+l.Text)
	}
}
