package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lexbridge/lexbridge-backend/internal/http/response"
	"github.com/lexbridge/lexbridge-backend/internal/modules/retrieval"
	"github.com/lexbridge/lexbridge-backend/internal/platform/logger"
)

type FeedbackHandler struct {
	log       *logger.Logger
	retriever *retrieval.HybridRetriever
}

func NewFeedbackHandler(log *logger.Logger, r *retrieval.HybridRetriever) *FeedbackHandler {
	return &FeedbackHandler{log: log, retriever: r}
}

type alphaFeedbackRequest struct {
	// Correlation between graph scores and judged relevance for a batch of
	// answered questions, in [0, 1].
	Correlation *float64 `json:"correlation"`
	// Authority of the feedback producer, in [0, 1].
	Authority *float64 `json:"authority"`
}

func (h *FeedbackHandler) SubmitAlphaFeedback(c *gin.Context) {
	var req alphaFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if req.Correlation == nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("correlation is required"))
		return
	}
	authority := 1.0
	if req.Authority != nil {
		authority = *req.Authority
	}

	alpha := h.retriever.UpdateAlpha(*req.Correlation, authority)
	response.RespondOK(c, gin.H{"alpha": alpha})
}
