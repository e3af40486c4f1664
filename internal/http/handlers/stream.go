package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"donationhub/internal/feed"
)

const defaultStreamPing = 25 * time.Second

type streamEvent struct {
	Kind       feed.EventKind `json:"kind"`
	DonationID string         `json:"donation_id,omitempty"`
	OwnerID    string         `json:"owner_id,omitempty"`
	Donation   *donationDTO   `json:"donation,omitempty"`
	At         time.Time      `json:"at"`
}

// DonationsStream pushes feed events as server-sent events until the client
// disconnects. Contacts are never part of the payload.
func (a *App) DonationsStream(w http.ResponseWriter, r *http.Request) {
	if a.Hub == nil {
		a.error(w, http.StatusServiceUnavailable, "unavailable", "stream disabled")
		return
	}
	rc := http.NewResponseController(w)
	// The server write timeout would cut long-lived streams.
	_ = rc.SetWriteDeadline(time.Time{})

	sub := a.Hub.Subscribe()
	defer sub.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	if _, err := fmt.Fprint(w, ": connected\n\n"); err != nil {
		return
	}
	if err := rc.Flush(); err != nil {
		a.Logger.Warn().Err(err).Msg("stream: flush unsupported")
		return
	}

	every := a.StreamPing
	if every <= 0 {
		every = defaultStreamPing
	}
	ping := time.NewTicker(every)
	defer ping.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, ok := <-sub.Events():
			if !ok {
				return
			}
			if err := writeEvent(w, ev); err != nil {
				return
			}
		case <-ping.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}

func writeEvent(w http.ResponseWriter, ev feed.Event) error {
	out := streamEvent{Kind: ev.Kind, DonationID: ev.DonationID, OwnerID: ev.OwnerID, At: ev.At}
	if ev.Donation != nil {
		dto := toDonationDTO(ev.Donation, "")
		out.Donation = &dto
	}
	data, err := json.Marshal(out)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Kind, data)
	return err
}
