package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/lalith-99/questboard/internal/auth"
	"github.com/lalith-99/questboard/internal/models"
	"github.com/lalith-99/questboard/internal/realtime"
	"github.com/lalith-99/questboard/internal/service"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// StreamHandler serves live queries over WebSocket. Each frame is the
// full current result set of the query; clients replace their view with
// it rather than applying deltas.
type StreamHandler struct {
	svc      *service.Services
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

func NewStreamHandler(svc *service.Services, logger *zap.Logger) *StreamHandler {
	return &StreamHandler{
		svc: svc,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Streams are authenticated by token, not cookies, so a
			// cross-origin page gains nothing it could not get over REST.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

// streamFrame is one snapshot on the wire.
type streamFrame[T any] struct {
	Items []T        `json:"items"`
	Error *errorBody `json:"error,omitempty"`
}

// Jobs handles GET /v1/stream/jobs?category=
//
// The first frame is the current list of open jobs. A new frame follows
// whenever a job is posted, edited, closed or deleted.
func (h *StreamHandler) Jobs(c *gin.Context) {
	serveStream(h, c, func(ctx context.Context) (*realtime.Subscription[models.JobPosting], error) {
		return h.svc.Jobs.WatchOpenJobs(ctx, c.Query("category"))
	})
}

// Applications handles GET /v1/stream/applications?status=
func (h *StreamHandler) Applications(c *gin.Context) {
	serveStream(h, c, func(ctx context.Context) (*realtime.Subscription[models.Application], error) {
		status, err := statusQuery(c)
		if err != nil {
			return nil, err
		}
		if id, _ := auth.FromContext(ctx); id.Role == models.RoleEmployer {
			return h.svc.Applications.WatchForEmployer(ctx, status)
		}
		return h.svc.Applications.WatchForApplicant(ctx, status)
	})
}

// Conversations handles GET /v1/stream/conversations
func (h *StreamHandler) Conversations(c *gin.Context) {
	serveStream(h, c, h.svc.Messaging.WatchConversations)
}

// Messages handles GET /v1/stream/conversations/:id/messages
func (h *StreamHandler) Messages(c *gin.Context) {
	serveStream(h, c, func(ctx context.Context) (*realtime.Subscription[models.Message], error) {
		return h.svc.Messaging.WatchMessages(ctx, c.Param("id"))
	})
}

// serveStream opens the subscription before upgrading, so authorization
// and validation failures still get a normal JSON error response.
func serveStream[T any](h *StreamHandler, c *gin.Context, open func(ctx context.Context) (*realtime.Subscription[T], error)) {
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	sub, err := open(ctx)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	defer sub.Close()

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	userID, _ := auth.FromContext(ctx)
	logger := h.logger.With(zap.String("path", c.FullPath()), zap.String("user_id", userID.UserID))
	logger.Debug("stream opened")

	go readPump(conn, cancel)
	writePump(ctx, conn, sub, logger)

	logger.Debug("stream closed")
}

// readPump discards client frames and cancels the stream once the peer
// goes away. Control frames (pong, close) are handled inside ReadMessage.
func readPump(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()

	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump is the only writer on conn.
func writePump[T any](ctx context.Context, conn *websocket.Conn, sub *realtime.Subscription[T], logger *zap.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return

		case snap, ok := <-sub.Snapshots():
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(frameFor(snap, logger)); err != nil {
				logger.Debug("stream write failed", zap.Error(err))
				return
			}

		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func frameFor[T any](snap realtime.Snapshot[T], logger *zap.Logger) streamFrame[T] {
	if snap.Err != nil {
		status, body := toErrorBody(snap.Err)
		if status >= http.StatusInternalServerError {
			logger.Error("stream query failed", zap.Error(snap.Err))
		}
		return streamFrame[T]{Items: []T{}, Error: &body}
	}
	items := snap.Items
	if items == nil {
		items = []T{}
	}
	return streamFrame[T]{Items: items}
}
