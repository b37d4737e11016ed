package domains

import (
	"context"

	"oip/quotesync/internal/business/quote"
	"oip/quotesync/internal/domains/common"
	"oip/quotesync/internal/framework"
)

// HandlerFactory builds the handler of one job type
type HandlerFactory func(
	ctx context.Context,
	baseHandler *framework.BaseHandler,
	deps *common.Deps,
) (framework.BusinessHandler, error)

// HandlerMap routes a jobType to its handler factory
var HandlerMap = map[string]HandlerFactory{
	"quote": quote.NewQuoteHandler,
}
