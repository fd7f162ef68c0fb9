package router

import (
	"github.com/gin-gonic/gin"

	"stock_ingest/internal/platform/http/handler"
)

// NewRouter builds the diagnostic HTTP surface. The service has no
// business-facing endpoints: everything of substance runs on the
// scheduler, and these routes only exist for operators and probes.
func NewRouter(schedH *handler.SchedulerHandler) *gin.Engine {
	r := gin.Default()

	// 導通確認用
	r.GET("/healthz", handler.Health)
	r.HEAD("/healthz", handler.Health)

	// ジョブの登録状況と次回実行時刻の確認用
	r.GET("/scheduler/status", schedH.Status)

	return r
}
