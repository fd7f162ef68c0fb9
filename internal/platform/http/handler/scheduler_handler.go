package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"stock_ingest/internal/platform/scheduler"
)

// SchedulerStatusProvider はスケジューラの状態参照インターフェースを定義します。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type SchedulerStatusProvider interface {
	Running() bool
	Timezone() *time.Location
	Jobs() []scheduler.JobStatus
}

// SchedulerHandler はスケジューラ診断エンドポイントのHTTPリクエストを処理します。
type SchedulerHandler struct {
	sched SchedulerStatusProvider
}

// NewSchedulerHandler はSchedulerHandlerの新しいインスタンスを生成します。
func NewSchedulerHandler(sched SchedulerStatusProvider) *SchedulerHandler {
	return &SchedulerHandler{sched: sched}
}

type schedulerJobResponse struct {
	ID      string `json:"id"`
	NextRun string `json:"next_run,omitempty"`
	Trigger string `json:"trigger"`
}

type schedulerStatusResponse struct {
	SchedulerRunning bool                   `json:"scheduler_running"`
	Timezone         string                 `json:"timezone"`
	Jobs             []schedulerJobResponse `json:"jobs"`
}

// Status は登録済みジョブと次回実行時刻をJSONで返します。
//
// エンドポイント例:
// GET /scheduler/status
func (h *SchedulerHandler) Status(c *gin.Context) {
	jobs := h.sched.Jobs()

	out := make([]schedulerJobResponse, 0, len(jobs))
	for _, j := range jobs {
		jr := schedulerJobResponse{ID: j.ID, Trigger: j.Trigger}
		if !j.NextFire.IsZero() {
			jr.NextRun = j.NextFire.Format(time.RFC3339)
		}
		out = append(out, jr)
	}

	c.JSON(http.StatusOK, schedulerStatusResponse{
		SchedulerRunning: h.sched.Running(),
		Timezone:         h.sched.Timezone().String(),
		Jobs:             out,
	})
}
