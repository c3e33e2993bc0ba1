package handler

import (
	"encoding/json"
	"net/http"

	"framecheck/internal/dto"
	"framecheck/internal/logger"
	"framecheck/internal/service/session"
	"framecheck/internal/service/websocket"

	gorilla "github.com/gorilla/websocket"
)

// Upgrader upgrades HTTP connections to WebSocket; CheckOrigin allows all origins.
var Upgrader = gorilla.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ViewWebsocketHandler registers viewer connections in the hub so they receive frame results.
func ViewWebsocketHandler(hub *websocket.HubService, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		connection, err := Upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Error("WebSocket upgrade error: %v", err)
			return
		}

		hub.Register(connection)
		defer hub.Unregister(connection)

		for {
			_, _, err := connection.ReadMessage()
			if err != nil {
				if !gorilla.IsCloseError(err, gorilla.CloseNormalClosure, gorilla.CloseGoingAway) {
					logger.Warning("Viewer disconnected with error: %v", err)
				}
				break
			}
		}
	}
}

// BroadcastFrameResults returns a result callback that forwards every report to the viewers.
func BroadcastFrameResults(hub *websocket.HubService, logger *logger.Logger) func(session.FrameReport) {
	return func(report session.FrameReport) {
		msg, err := json.Marshal(dto.NewFrameResult(report))
		if err != nil {
			logger.Error("Error encoding frame result: %v", err)
			return
		}
		hub.Broadcast(msg)
	}
}
