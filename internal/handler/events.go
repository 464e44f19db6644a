package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/stall-rental/internal/events"
)

// ssePing keeps idle SSE connections alive through proxies.
const ssePing = 25 * time.Second

// EventsHandler streams broker notices to authenticated clients over
// server-sent events.
type EventsHandler struct {
	Broker *events.Broker
}

// Stream handles GET /v1/events.  The connection stays open until the
// client goes away; each notice is written as one SSE event named after the
// notice type.
func (h *EventsHandler) Stream(c echo.Context) error {
	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set(echo.HeaderCacheControl, "no-cache")
	res.Header().Set(echo.HeaderConnection, "keep-alive")
	res.WriteHeader(http.StatusOK)
	res.Flush()

	ch, cancel := h.Broker.Subscribe()
	defer cancel()

	ping := time.NewTicker(ssePing)
	defer ping.Stop()

	done := c.Request().Context().Done()
	for {
		select {
		case <-done:
			return nil
		case <-ping.C:
			if _, err := fmt.Fprint(res, ": ping\n\n"); err != nil {
				return nil
			}
			res.Flush()
		case n, ok := <-ch:
			if !ok {
				return nil
			}
			payload, err := json.Marshal(n)
			if err != nil {
				continue
			}
			if _, err := fmt.Fprintf(res, "event: %s\ndata: %s\n\n", n.Type, payload); err != nil {
				return nil
			}
			res.Flush()
		}
	}
}
