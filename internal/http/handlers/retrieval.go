package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lexbridge/lexbridge-backend/internal/domain"
	"github.com/lexbridge/lexbridge-backend/internal/http/response"
	"github.com/lexbridge/lexbridge-backend/internal/modules/retrieval"
	"github.com/lexbridge/lexbridge-backend/internal/platform/logger"
)

const (
	defaultTopK = 10
	maxTopK     = 100
)

type RetrievalHandler struct {
	log       *logger.Logger
	retriever *retrieval.HybridRetriever
	profiles  map[string]domain.WeightProfile
}

func NewRetrievalHandler(log *logger.Logger, r *retrieval.HybridRetriever, profiles map[string]domain.WeightProfile) *RetrievalHandler {
	return &RetrievalHandler{log: log, retriever: r, profiles: profiles}
}

type retrieveRequest struct {
	Embedding    []float32 `json:"embedding"`
	ContextNodes []string  `json:"context_nodes"`
	Profile      string    `json:"profile"`
	TopK         int       `json:"top_k"`
}

type retrieveResponse struct {
	Results []domain.RetrievalResult `json:"results"`
	Alpha   float64                  `json:"alpha"`
	Profile string                   `json:"profile,omitempty"`
}

func (h *RetrievalHandler) Retrieve(c *gin.Context) {
	var req retrieveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if len(req.Embedding) == 0 {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("embedding is required"))
		return
	}
	if req.TopK <= 0 {
		req.TopK = defaultTopK
	}
	if req.TopK > maxTopK {
		req.TopK = maxTopK
	}

	var profile *domain.WeightProfile
	if req.Profile != "" {
		p, ok := h.profiles[req.Profile]
		if !ok {
			response.RespondError(c, http.StatusBadRequest, "unknown_profile",
				fmt.Errorf("unknown weight profile %q", req.Profile))
			return
		}
		profile = &p
	}

	results, err := h.retriever.Retrieve(c.Request.Context(), req.Embedding, req.ContextNodes, profile, req.TopK)
	if err != nil {
		h.log.Error("retrieval failed", "error", err)
		response.RespondError(c, http.StatusBadGateway, "retrieval_failed", err)
		return
	}
	response.RespondOK(c, retrieveResponse{
		Results: results,
		Alpha:   h.retriever.Alpha(),
		Profile: req.Profile,
	})
}
