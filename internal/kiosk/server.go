package kiosk

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/example/snapcheck/internal/booth"
	"github.com/example/snapcheck/internal/stats"
)

const resultDownloadName = "framed_photo.jpg"

// Controller is the slice of the booth workflow the kiosk page drives.
type Controller interface {
	CaptureAndSend(ctx context.Context) error
	Retry(ctx context.Context) error
	CloseResult(ctx context.Context) error
	State() booth.State
}

// ImageSource hands out the currently shown result image, if any.
type ImageSource interface {
	Image() (data []byte, mime string, ok bool)
}

// command is what a kiosk page sends back over the websocket.
type command struct {
	Type string `json:"type"`
}

// Server exposes the kiosk page's HTTP surface: the websocket, the
// result download and a couple of read-only endpoints.
type Server struct {
	controller Controller
	images     ImageSource
	stats      *stats.Store
	hub        *Hub
	staticDir  string
	logger     *zap.Logger
	upgrader   websocket.Upgrader
}

func NewServer(controller Controller, images ImageSource, store *stats.Store, hub *Hub, staticDir string, logger *zap.Logger) *Server {
	return &Server{
		controller: controller,
		images:     images,
		stats:      store,
		hub:        hub,
		staticDir:  staticDir,
		logger:     logger.Named("kiosk"),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// RegisterRoutes wires the kiosk HTTP handlers to the Gin router.
func (s *Server) RegisterRoutes(router *gin.Engine) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/ws", s.handleSocket)

	router.GET("/stats", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.stats.Current())
	})

	router.GET("/result/image", func(c *gin.Context) {
		data, mime, ok := s.images.Image()
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "No result to download"})
			return
		}
		c.Header("Content-Disposition", `attachment; filename="`+resultDownloadName+`"`)
		c.Data(http.StatusOK, mime, data)
	})

	if s.staticDir != "" {
		router.Static("/app", s.staticDir)
		router.GET("/", func(c *gin.Context) {
			c.Redirect(http.StatusFound, "/app/")
		})
	}
}

// handleSocket upgrades the connection, replays a state snapshot and then
// reads page commands until the peer goes away.
func (s *Server) handleSocket(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", zap.Error(err))
		return
	}

	client := s.hub.Attach(conn)
	defer s.hub.Detach(client)

	// A page that connects mid-session needs the current state and
	// counters before the next broadcast arrives.
	client.SendEvent(newStateEvent(s.controller.State()))
	client.SendEvent(newStatsEvent(s.stats.Current()))

	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Warn("kiosk client read failed", zap.Error(err))
			}
			return
		}

		var cmd command
		if err := json.Unmarshal(raw, &cmd); err != nil {
			s.logger.Warn("ignoring malformed kiosk command", zap.Error(err))
			continue
		}
		// Commands can take a full upload round trip, so they run off
		// the read loop. The workflow's own state guards serialize them,
		// and they outlive the page connection on purpose: a reload
		// must not cancel an in-flight cycle.
		go s.dispatch(context.Background(), cmd)
	}
}

func (s *Server) dispatch(ctx context.Context, cmd command) {
	var err error
	switch cmd.Type {
	case "capture":
		err = s.controller.CaptureAndSend(ctx)
	case "retry":
		err = s.controller.Retry(ctx)
	case "close":
		err = s.controller.CloseResult(ctx)
	default:
		s.logger.Warn("unknown kiosk command", zap.String("type", cmd.Type))
		return
	}
	if err != nil {
		// Already on the surface as a user-facing banner; this is just
		// the operator's trail.
		s.logger.Debug("kiosk command failed",
			zap.String("type", cmd.Type),
			zap.Error(err))
	}
}
