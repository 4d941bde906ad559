package http

import (
	"errors"
	"net/http"

	"dilemma-survey-service/internal/app"
	"dilemma-survey-service/internal/domain"
	"dilemma-survey-service/internal/logger"
	"github.com/gin-gonic/gin"
)

// APIHandler serves the REST surface over the survey use cases.
type APIHandler struct {
	decisions *app.DecisionService
	stats     *app.StatisticsService
	dilemmas  *app.DilemmaService
	users     *app.UserService
	log       *logger.Logger
}

func NewAPIHandler(decisions *app.DecisionService, stats *app.StatisticsService, dilemmas *app.DilemmaService, users *app.UserService, log *logger.Logger) *APIHandler {
	return &APIHandler{
		decisions: decisions,
		stats:     stats,
		dilemmas:  dilemmas,
		users:     users,
		log:       log,
	}
}

type choiceRequest struct {
	ClientUUID  string `json:"clientUuid" binding:"required"`
	DilemmaName string `json:"dilemmaName" binding:"required"`
	Choice      string `json:"choice" binding:"required"`
}

type registerRequest struct {
	ClientUUID string `json:"clientUuid" binding:"required"`
}

type completedCountResponse struct {
	DilemmaName string `json:"dilemmaName"`
	Count       int    `json:"count"`
}

type totalResponse struct {
	Total int `json:"total"`
}

type pathStatsResponse struct {
	PathCounts     map[string]int `json:"pathCounts"`
	OptionCounts   map[string]int `json:"optionCounts"`
	TotalCompleted int            `json:"totalCompleted"`
}

// POST /decisions/initial
func (h *APIHandler) SubmitInitialChoice(c *gin.Context) {
	var req choiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	res, err := h.decisions.SubmitInitialChoice(c.Request.Context(), req.ClientUUID, req.DilemmaName, req.Choice)
	if err != nil {
		respondDomainError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// POST /decisions/final
func (h *APIHandler) SubmitFinalChoice(c *gin.Context) {
	var req choiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	res, err := h.decisions.SubmitFinalChoice(c.Request.Context(), req.ClientUUID, req.DilemmaName, req.Choice)
	if err != nil {
		respondDomainError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GET /statistics/paths/:name
func (h *APIHandler) PathStats(c *gin.Context) {
	stats, err := h.stats.PathStats(c.Request.Context(), c.Param("name"))
	if err != nil {
		respondDomainError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, pathStatsResponse{
		PathCounts:     stats.PathCounts,
		OptionCounts:   stats.OptionCounts,
		TotalCompleted: stats.TotalCompleted,
	})
}

// GET /statistics/answers/:name
func (h *APIHandler) CompletedCount(c *gin.Context) {
	name := c.Param("name")
	n, err := h.stats.CompletedCount(c.Request.Context(), name)
	if err != nil {
		respondDomainError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, completedCountResponse{DilemmaName: name, Count: n})
}

// GET /statistics/answers
func (h *APIHandler) TotalCompleted(c *gin.Context) {
	n, err := h.stats.TotalCompleted(c.Request.Context())
	if err != nil {
		respondDomainError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, totalResponse{Total: n})
}

// GET /dilemmas
func (h *APIHandler) ListDilemmas(c *gin.Context) {
	list, err := h.dilemmas.List(c.Request.Context())
	if err != nil {
		respondDomainError(c, h.log, err)
		return
	}
	if list == nil {
		list = []domain.DilemmaSummary{}
	}
	c.JSON(http.StatusOK, list)
}

// GET /dilemmas/:name
func (h *APIHandler) GetDilemma(c *gin.Context) {
	d, err := h.dilemmas.Get(c.Request.Context(), c.Param("name"))
	if err != nil {
		respondDomainError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// PATCH /admin/dilemmas/:name
func (h *APIHandler) UpdateDilemma(c *gin.Context) {
	var update domain.DilemmaUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		respondBindError(c, err)
		return
	}
	d, err := h.dilemmas.Update(c.Request.Context(), c.Param("name"), update)
	switch {
	case errors.Is(err, app.ErrCacheNotInvalidated):
		// the update is stored; only the cache lags behind
		h.log.Warn("dilemma updated but cache invalidation failed", "dilemma", d.Name, "error", err)
	case err != nil:
		respondDomainError(c, h.log, err)
		return
	}
	h.log.Info("dilemma updated", "dilemma", d.Name, "active", d.Active)
	c.JSON(http.StatusOK, d)
}

// POST /users
func (h *APIHandler) RegisterUser(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	user, created, err := h.users.Register(c.Request.Context(), req.ClientUUID)
	if err != nil {
		respondDomainError(c, h.log, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, user)
}

// GET /users/:clientUuid
func (h *APIHandler) GetUser(c *gin.Context) {
	user, err := h.users.Get(c.Request.Context(), c.Param("clientUuid"))
	if err != nil {
		respondDomainError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// GET /users/:clientUuid/decisions
func (h *APIHandler) ListUserDecisions(c *gin.Context) {
	decisions, err := h.decisions.ListUserDecisions(c.Request.Context(), c.Param("clientUuid"))
	if err != nil {
		respondDomainError(c, h.log, err)
		return
	}
	if decisions == nil {
		decisions = []domain.Decision{}
	}
	c.JSON(http.StatusOK, decisions)
}
