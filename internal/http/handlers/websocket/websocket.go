package websocket

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/princekumarofficial/assets-service/internal/auth"
	"github.com/princekumarofficial/assets-service/internal/utils/response"
	wsClient "github.com/princekumarofficial/assets-service/internal/websocket"
)

// TokenVerifier resolves a raw bearer token to a user id.
type TokenVerifier interface {
	AuthenticateToken(token string) (string, error)
}

// WebSocketHandler opens an owner notification stream
// @Summary Subscribe to upload notifications
// @Description Upgrades to a websocket that receives asset.thumbnail_uploaded and asset.video_uploaded events for the caller's videos. Browsers pass the token as a query parameter.
// @Tags notifications
// @Param token query string false "Bearer token (alternative to the Authorization header)"
// @Success 101 "Switching Protocols"
// @Failure 401 {object} response.Response "Missing or invalid credential"
// @Router /ws [get]
func WebSocketHandler(hub *wsClient.Hub, verifier TokenVerifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		if token == "" {
			token, _ = auth.BearerToken(r.Header.Get("Authorization"))
		}
		if token == "" {
			slog.Warn("WebSocket connection attempted without token")
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("token required")))
			return
		}

		userID, err := verifier.AuthenticateToken(token)
		if err != nil {
			slog.Warn("WebSocket connection attempted with invalid token", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("invalid token")))
			return
		}

		conn, err := wsClient.Upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Error("Failed to upgrade WebSocket connection", slog.String("error", err.Error()))
			return
		}

		client := wsClient.NewClient(conn, userID, hub)
		client.Start()
	}
}
