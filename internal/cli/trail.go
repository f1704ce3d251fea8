package cli

import (
	"io"

	"github.com/neuropassword/npass/internal/events"
	"github.com/neuropassword/npass/internal/logging"
)

// eventTrail records everything published on the bus during one command.
// Publishing never blocks, so the events wait in the subscription buffer
// until the command finishes and the trail is drained.
type eventTrail struct {
	bus    *events.EventBus
	ch     <-chan events.Event
	logger *logging.Logger

	authFailures int
}

func newEventTrail(bus *events.EventBus, logger *logging.Logger) *eventTrail {
	return &eventTrail{bus: bus, ch: bus.SubscribeAll(), logger: logger}
}

// drain consumes the buffered events, logging each at debug level and
// telling the user on w when the server rejected the session. The trail
// is unsubscribed afterwards.
func (tr *eventTrail) drain(w io.Writer) {
	defer tr.bus.UnsubscribeAll(tr.ch)

	for {
		select {
		case ev, ok := <-tr.ch:
			if !ok {
				return
			}
			tr.record(w, ev)
		default:
			if n := tr.bus.GetDroppedEventCount(); n > 0 {
				tr.logger.Warn().Int64("dropped", n).Msg("Event trail incomplete")
			}
			return
		}
	}
}

func (tr *eventTrail) record(w io.Writer, ev events.Event) {
	switch e := ev.(type) {
	case *events.SessionEvent:
		tr.logger.Debug().Bool("authenticated", e.Authenticated).Str("reason", e.Reason).Msg("Session changed")
	case *events.AuthFailureEvent:
		tr.authFailures++
		tr.logger.Debug().Str("method", e.Method).Str("path", e.Path).Str("redirect", e.RedirectTo).Msg("Session rejected")
		if tr.authFailures == 1 {
			printWarning(w, "Server rejected the stored session (%s %s); local tokens were cleared", e.Method, e.Path)
		}
	case *events.FoldersChangedEvent:
		tr.logger.Debug().Str("op", e.Op).Str("folder_id", e.FolderID).Int("count", e.Count).Bool("from_cache", e.FromCache).Msg("Folders changed")
	case *events.NavigateEvent:
		tr.logger.Debug().Str("from", e.From).Str("to", e.To).Bool("replace", e.Replace).Msg("Navigate")
	case *events.ErrorEvent:
		tr.logger.Debug().Err(e.Error).Str("op", e.Op).Str("message", e.Message).Msg("Operation failed")
	default:
		tr.logger.Debug().Str("type", string(ev.Type())).Msg("Event")
	}
}
