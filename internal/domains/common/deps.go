package common

import (
	"oip/quotesync/pkg/callback"
	"oip/quotesync/pkg/config"
	"oip/quotesync/pkg/dataapi"
	"oip/quotesync/pkg/dedup"
	"oip/quotesync/pkg/logger"
)

// Deps long lived collaborators shared by every job handler.
// Built once by the worker binary; handlers must not keep per-job state in them.
type Deps struct {
	Querier   dataapi.Querier
	Committer dataapi.Committer
	Notifier  callback.Notifier
	Ledger    dedup.Ledger
	Pricing   config.PricingConfig
	Logger    logger.Logger
}
