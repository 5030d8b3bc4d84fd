// Package evtgrp maintains the websocket event feed endpoint.
package evtgrp

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/scribenet/scribe/foundation/events"
	"github.com/scribenet/scribe/foundation/web"
	"go.uber.org/zap"
)

// Handlers manages the set of event feed endpoints.
type Handlers struct {
	Log  *zap.SugaredLogger
	WS   websocket.Upgrader
	Evts *events.Events
}

// Events handles a web socket to provide publish events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	h.Log.Infow("events feed opened", "traceid", v.TraceID, "remoteaddr", r.RemoteAddr)
	defer h.Log.Infow("events feed closed", "traceid", v.TraceID, "remoteaddr", r.RemoteAddr)

	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case evt, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(evt.String())); err != nil {
				return err
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}
