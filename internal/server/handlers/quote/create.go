package quote

import (
	"strings"

	"github.com/gin-gonic/gin"

	"oip/quotesync/pkg/errorx"
	"oip/quotesync/pkg/ginx"
)

// CreateQuoteRequest body of POST /createQuote
type CreateQuoteRequest struct {
	OpportunityID string `json:"opportunityId" binding:"required"`
}

// CreateQuoteResponse body of a successful POST /createQuote
type CreateQuoteResponse struct {
	QuoteID string `json:"quoteId"`
}

// Create generates one quote synchronously
// POST /createQuote
func (h *QuoteHandler) Create(c *gin.Context) {
	token := bearerToken(c.GetHeader("Authorization"))
	if token == "" {
		ginx.Unauthorized(c, errorx.ErrUnauthorized.Error())
		return
	}

	var req CreateQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ginx.BadRequestWithValidation(c, err)
		return
	}

	quoteID, err := h.generators(token).Generate(c.Request.Context(), req.OpportunityID)
	if err != nil {
		h.logger.Errorf(c.Request.Context(), "[QuoteHandler] create quote for %s failed: %v", req.OpportunityID, err)
		ginx.FromError(c, err)
		return
	}

	ginx.Success(c, CreateQuoteResponse{QuoteID: quoteID})
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
