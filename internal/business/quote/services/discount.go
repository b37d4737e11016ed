package services

import (
	"math"
	"strings"

	"oip/quotesync/pkg/config"
)

// DefaultRegion region used when none is configured
const DefaultRegion = "NAMER"

const defaultDiscount = 0.05

var regionDiscounts = map[string]float64{
	"NAMER": 0.10,
	"EMEA":  0.15,
	"APAC":  0.08,
}

// DiscountPolicy resolves the discount rate applied to every line item of a job.
type DiscountPolicy struct {
	region    string
	overrides map[string]float64 // upper-cased region -> rate
}

// NewDiscountPolicy builds the policy from the pricing section.
// Overrides are honoured only when enable_discount_overrides is set.
func NewDiscountPolicy(cfg config.PricingConfig) *DiscountPolicy {
	region := strings.ToUpper(strings.TrimSpace(cfg.Region))
	if region == "" {
		region = DefaultRegion
	}

	p := &DiscountPolicy{region: region}
	if cfg.EnableDiscountOverrides && len(cfg.DiscountOverrides) > 0 {
		// viper lower-cases map keys
		p.overrides = make(map[string]float64, len(cfg.DiscountOverrides))
		for r, rate := range cfg.DiscountOverrides {
			p.overrides[strings.ToUpper(r)] = rate
		}
	}
	return p
}

func (p *DiscountPolicy) Region() string {
	return p.region
}

// Rate returns the discount of the configured region, clamped to [0, 1].
func (p *DiscountPolicy) Rate() float64 {
	return p.RateFor(p.region)
}

// RateFor returns the discount of region, clamped to [0, 1].
func (p *DiscountPolicy) RateFor(region string) float64 {
	region = strings.ToUpper(region)
	if rate, ok := p.overrides[region]; ok {
		return ClampDiscount(rate)
	}
	if rate, ok := regionDiscounts[region]; ok {
		return rate
	}
	return defaultDiscount
}

// ClampDiscount forces d into [0, 1]; NaN counts as no discount.
func ClampDiscount(d float64) float64 {
	switch {
	case math.IsNaN(d), d < 0:
		return 0
	case d > 1:
		return 1
	default:
		return d
	}
}

// ApplyDiscount returns price * (1 - clamp(d)). A nil price is passed through unchanged.
func ApplyDiscount(price *float64, d float64) *float64 {
	if price == nil {
		return nil
	}
	effective := *price * (1 - ClampDiscount(d))
	return &effective
}
