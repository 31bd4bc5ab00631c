package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"file-vault-api/internal/application/ports"
	"file-vault-api/internal/interface/api/rest/dto/stats"
	"file-vault-api/internal/interface/api/rest/middleware"
)

type StatsController struct {
	statsService ports.StatsService
	logger       *zap.Logger
}

func NewStatsController(r gin.IRouter, statsService ports.StatsService, logger *zap.Logger) *StatsController {
	sc := &StatsController{
		statsService: statsService,
		logger:       logger,
	}

	r.GET(RouteStorageStats, sc.GetStorageStatsHandler)

	return sc
}

func (sc *StatsController) GetStorageStatsHandler(c *gin.Context) {
	s, err := sc.statsService.StatsFor(c.Request.Context(), middleware.OwnerFrom(c))
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "failed to get storage stats", CodeInternal)
		sc.logger.Error("StatsFor() error", zap.Error(err))
		return
	}

	c.JSON(http.StatusOK, stats.ToResponseStats(*s))
}
