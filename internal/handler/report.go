package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"nhooyr.io/websocket"

	"wbledger/internal/models"
	"wbledger/internal/progress"
	"wbledger/internal/report"
	"wbledger/internal/repository"
)

type ReportHandler struct {
	Repo       repository.Repository
	Supervisor *report.Supervisor
	Hub        *progress.Hub
	Logger     *zap.Logger

	// BaseCtx outlives individual HTTP requests so a report keeps running
	// after the submitting request returns 202.
	BaseCtx context.Context
}

type createReportRequest struct {
	Token     string `json:"token" binding:"required"`
	Period    string `json:"period" binding:"required"`
	DocNums   string `json:"doc_nums"`
	UserID    int64  `json:"user_id" binding:"required"`
	StoreID   int64  `json:"store_id" binding:"required"`
	StoreName string `json:"store_name"`
}

func (h *ReportHandler) Register(r *gin.Engine) {
	g := r.Group("/api/v1/reports")
	g.POST("", h.create)
	g.GET("", h.list)
	g.GET("/:id", h.get)
	g.GET("/:id/progress", h.progressWS)
}

func (h *ReportHandler) create(c *gin.Context) {
	var body createReportRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	from, to, err := report.ParsePeriod(body.Period)
	if err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}

	run := &models.ReportRun{
		UserID:     body.UserID,
		StoreID:    body.StoreID,
		StoreName:  body.StoreName,
		PeriodFrom: from,
		PeriodTo:   to,
		DocNums:    body.DocNums,
		Status:     models.RunStatusRunning,
	}
	if err := h.Repo.CreateReportRun(c.Request.Context(), run); err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}

	req := report.Request{
		Token:     body.Token,
		Period:    body.Period,
		DocNums:   body.DocNums,
		UserID:    body.UserID,
		StoreID:   body.StoreID,
		StoreName: body.StoreName,
	}
	go h.execute(run, req)

	Accepted(c, run)
}

// execute drives one run to completion on the process-level context and
// records the outcome.
func (h *ReportHandler) execute(run *models.ReportRun, req report.Request) {
	ctx := h.BaseCtx
	if ctx == nil {
		ctx = context.Background()
	}

	result, err := h.Supervisor.Run(ctx, req, func(text string) {
		if text != "" {
			h.Hub.Publish(run.ID, text)
		}
	})
	defer h.Hub.Complete(run.ID)

	now := time.Now().UTC()
	run.FinishedAt = &now
	if err != nil {
		run.Status = models.RunStatusFailed
		msg := err.Error()
		run.Error = &msg
		if h.Logger != nil {
			h.Logger.Warn("report run failed",
				zap.Uint("run_id", run.ID), zap.Int64("user_id", run.UserID), zap.Error(err))
		}
	} else {
		run.Status = models.RunStatusDone
		run.FilePath = result.Path
		run.StatsJSON = datatypes.JSON([]byte(`{"products":` + strconv.Itoa(result.Products) + `}`))
	}
	if uerr := h.Repo.UpdateReportRun(ctx, run); uerr != nil && h.Logger != nil {
		h.Logger.Error("failed to record report run outcome",
			zap.Uint("run_id", run.ID), zap.Error(uerr))
	}
}

func (h *ReportHandler) get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		Error(c, http.StatusBadRequest, "invalid run id", nil)
		return
	}
	run, err := h.Repo.GetReportRun(c.Request.Context(), uint(id))
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	if run == nil {
		Error(c, http.StatusNotFound, "run not found", nil)
		return
	}
	Ok(c, run, nil)
}

func (h *ReportHandler) list(c *gin.Context) {
	userID, err := strconv.ParseInt(strings.TrimSpace(c.Query("user_id")), 10, 64)
	if err != nil {
		Error(c, http.StatusBadRequest, "user_id query parameter required", nil)
		return
	}
	limit := 50
	if v := strings.TrimSpace(c.Query("limit")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	runs, err := h.Repo.ListReportRuns(c.Request.Context(), userID, limit)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, runs, map[string]any{"count": len(runs)})
}

// progressWS streams supervisor progress frames for a run over a websocket.
// The socket closes when the run completes or the client goes away.
func (h *ReportHandler) progressWS(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		Error(c, http.StatusBadRequest, "invalid run id", nil)
		return
	}

	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		return
	}
	defer conn.Close(websocket.StatusInternalError, "closed")

	frames, cancel := h.Hub.Subscribe(uint(id))
	defer cancel()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "client gone")
			return
		case text, ok := <-frames:
			if !ok {
				conn.Close(websocket.StatusNormalClosure, "run finished")
				return
			}
			if err := conn.Write(ctx, websocket.MessageText, []byte(text)); err != nil {
				return
			}
		}
	}
}
