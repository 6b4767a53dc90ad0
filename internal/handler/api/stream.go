package api

import (
	"net/http"
	"time"

	"VitaPull/internal/usecase"
	xlogger "VitaPull/pkg/logger"
	"VitaPull/pkg/util"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

// InsightStreamHandler pushes regenerated insight reports to WebSocket
// subscribers. Dashboards use it to follow a day's sync without polling.
type InsightStreamHandler struct {
	logger   *xlogger.Logger
	pipeline *usecase.InsightPipeline
	interval time.Duration
	upgrader websocket.Upgrader
}

func NewInsightStreamHandler(logger *xlogger.Logger, pipeline *usecase.InsightPipeline, interval time.Duration) *InsightStreamHandler {
	if interval <= 0 {
		interval = time.Minute
	}
	return &InsightStreamHandler{
		logger:   logger,
		pipeline: pipeline,
		interval: interval,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

func (h *InsightStreamHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/insights/stream", h.Stream)
}

// Stream upgrades the connection, sends the current report immediately, then
// re-sends on every interval tick until the client goes away.
func (h *InsightStreamHandler) Stream(c echo.Context) error {
	req := c.Request()
	days := util.ParseIntDefault(c.QueryParam("days"), 90)
	if days < 1 || days > 730 {
		days = 90
	}
	target := c.QueryParam("target")
	sigma := util.ParseFloatDefault(c.QueryParam("sigma"), 0)

	conn, err := h.upgrader.Upgrade(c.Response(), req, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	// drain client frames so pings and close frames are handled
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	send := func() error {
		report, err := h.pipeline.BuildReport(req.Context(), usecase.BuildReportParams{
			Days:   days,
			Target: target,
			Sigma:  sigma,
		})
		if err != nil {
			h.logger.Error("stream report build failed", xlogger.Error(err))
			return conn.WriteJSON(echo.Map{"error": "report unavailable"})
		}
		return conn.WriteJSON(report)
	}

	if err := send(); err != nil {
		return nil
	}
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	for {
		select {
		case <-req.Context().Done():
			return nil
		case <-ticker.C:
			if err := send(); err != nil {
				return nil
			}
		}
	}
}
