package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"FinTune/internal/domain/models"
	"FinTune/internal/tuning"
	xhttp "FinTune/pkg/http"
	xlogger "FinTune/pkg/logger"
)

// TuningEchoHandler exposes the tuning run over HTTP: progress snapshots,
// the exception report, a manual trigger, and a websocket progress stream.
type TuningEchoHandler struct {
	logger    *xlogger.Logger
	board     *tuning.ProgressBoard
	excq      *tuning.ExceptionQueue
	scheduler *tuning.Scheduler
	gridFn    tuning.GridFunc
	axes      tuning.Axes
	upgrader  websocket.Upgrader
}

func NewTuningEchoHandler(logger *xlogger.Logger, board *tuning.ProgressBoard, excq *tuning.ExceptionQueue, scheduler *tuning.Scheduler, gridFn tuning.GridFunc, axes tuning.Axes) *TuningEchoHandler {
	return &TuningEchoHandler{
		logger:    logger,
		board:     board,
		excq:      excq,
		scheduler: scheduler,
		gridFn:    gridFn,
		axes:      axes,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

func (h *TuningEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/tuning")
	g.GET("/progress", h.Progress)
	g.GET("/progress/:symbol", h.SymbolProgress)
	g.GET("/exceptions", h.Exceptions)
	g.GET("/stream", h.Stream)
	g.POST("/:symbol", h.Trigger)
}

// Progress returns the full progress board.
func (h *TuningEchoHandler) Progress(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.board.Snapshot())
}

// SymbolProgress returns the record for one symbol.
func (h *TuningEchoHandler) SymbolProgress(c echo.Context) error {
	symbol := c.Param("symbol")
	p, ok := h.board.Get(symbol)
	if !ok {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("no tuning record for %s", symbol))
	}
	return xhttp.SuccessResponse(c, p)
}

// Exceptions returns the append-only failure report.
func (h *TuningEchoHandler) Exceptions(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.excq.Snapshot())
}

// tuneRequest optionally narrows one triggered run: a seeded random sample
// instead of the configured grid, and a wall-clock cap on the run.
type tuneRequest struct {
	SampleSize   int   `json:"sample_size" validate:"omitempty,gte=1,lte=100000"`
	SampleSeed   int64 `json:"sample_seed"`
	TimeoutHours int   `json:"timeout_hours" default:"12" validate:"gte=1,lte=168"`
}

type triggerResponse struct {
	Symbol   string `json:"symbol"`
	Accepted bool   `json:"accepted"`
}

// Trigger starts an asynchronous tuning run for one symbol. A run already in
// flight for the symbol is guarded by the advisory lock, not by this handler.
func (h *TuningEchoHandler) Trigger(c echo.Context) error {
	symbol := c.Param("symbol")
	if symbol == "" {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError("symbol is required"))
	}

	req := &tuneRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	gridFn := h.gridFn
	if req.SampleSize > 0 {
		axes, size, seed := h.axes, req.SampleSize, req.SampleSeed
		gridFn = func(string) ([]models.ModelConfig, error) {
			return tuning.Sample(axes, size, seed)
		}
	}

	timeout := time.Duration(req.TimeoutHours) * time.Hour
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		h.scheduler.TuneAll(ctx, []string{symbol}, gridFn)
	}()

	h.logger.Info("tuning triggered via api",
		xlogger.String("symbol", symbol),
		xlogger.Int("sample_size", req.SampleSize),
	)
	return xhttp.SuccessResponse(c, triggerResponse{Symbol: symbol, Accepted: true})
}

// Stream upgrades to a websocket and pushes the progress board every second
// until the client goes away.
func (h *TuningEchoHandler) Stream(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", xlogger.Error(err))
		return err
	}
	defer conn.Close()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-c.Request().Context().Done():
			return nil
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteJSON(h.board.Snapshot()); err != nil {
				return nil
			}
		}
	}
}
