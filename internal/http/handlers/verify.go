package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lexbridge/lexbridge-backend/internal/http/response"
	"github.com/lexbridge/lexbridge-backend/internal/modules/retrieval"
	"github.com/lexbridge/lexbridge-backend/internal/platform/logger"
)

const maxVerifyBatch = 100

type VerifyHandler struct {
	log      *logger.Logger
	verifier *retrieval.SourceVerifier
}

func NewVerifyHandler(log *logger.Logger, v *retrieval.SourceVerifier) *VerifyHandler {
	return &VerifyHandler{log: log, verifier: v}
}

type verifyRequest struct {
	SourceIDs []string `json:"source_ids"`
	Strict    *bool    `json:"strict"`
	NodeTypes []string `json:"node_types"`
}

func (h *VerifyHandler) Verify(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if len(req.SourceIDs) == 0 {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("source_ids is required"))
		return
	}
	if len(req.SourceIDs) > maxVerifyBatch {
		response.RespondError(c, http.StatusBadRequest, "invalid_request",
			fmt.Errorf("source_ids exceeds batch limit of %d", maxVerifyBatch))
		return
	}
	strict := true
	if req.Strict != nil {
		strict = *req.Strict
	}

	outcomes := h.verifier.Verify(c.Request.Context(), req.SourceIDs, strict, req.NodeTypes)
	response.RespondOK(c, gin.H{"outcomes": outcomes, "strict": strict})
}
