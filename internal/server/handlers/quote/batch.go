package quote

import (
	"encoding/json"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"oip/quotesync/internal/framework"
	"oip/quotesync/pkg/errorx"
	"oip/quotesync/pkg/ginx"
	"oip/quotesync/pkg/metrics"
)

const jobTypeQuote = "quote"

// CreateQuotesRequest body of POST /createQuotes
type CreateQuotesRequest struct {
	OpportunityIDs []string `json:"opportunityIds" binding:"required,min=1,dive,required"`
	CallbackURL    string   `json:"callbackUrl" binding:"omitempty,url"`
}

// CreateQuotesResponse body of an accepted POST /createQuotes
type CreateQuotesResponse struct {
	JobID string `json:"jobId"`
}

// publishedJob the descriptor on the wire; opportunityIds is kept for older workers
type publishedJob struct {
	framework.JobDescriptor
	OpportunityIDs []string `json:"opportunityIds"`
}

// CreateBatch accepts a batch job and publishes it for the worker
// POST /createQuotes
func (h *QuoteHandler) CreateBatch(c *gin.Context) {
	var req CreateQuotesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ginx.BadRequestWithValidation(c, err)
		return
	}

	ctx := c.Request.Context()
	jobID := uuid.New().String()
	payload, err := json.Marshal(publishedJob{
		JobDescriptor: framework.JobDescriptor{
			JobID:       jobID,
			JobType:     jobTypeQuote,
			SourceIDs:   req.OpportunityIDs,
			CallbackURL: req.CallbackURL,
		},
		OpportunityIDs: req.OpportunityIDs,
	})
	if err != nil {
		ginx.InternalError(c, err.Error())
		return
	}

	if err := h.publisher.PublishJob(ctx, payload); err != nil {
		metrics.JobsPublished.WithLabelValues(metrics.OutcomeFailed).Inc()
		h.logger.Errorf(ctx, "[QuoteHandler] Failed to publish job %s: %v", jobID, err)
		ginx.InternalError(c, errorx.ErrPublishFailed.Error())
		return
	}

	metrics.JobsPublished.WithLabelValues(metrics.OutcomeSucceeded).Inc()
	h.logger.Infof(ctx, "[QuoteHandler] Job %s published for %d opportunities", jobID, len(req.OpportunityIDs))
	ginx.Created(c, CreateQuotesResponse{JobID: jobID})
}
