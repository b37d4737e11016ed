package framework

import (
	"context"
	"fmt"
)

// PreProcessor runs a chain of ProcessorFuncs
type PreProcessor struct {
	processFuncs []ProcessorFunc
}

// NewPreProcessor creates a chain
func NewPreProcessor(processFuncs ...ProcessorFunc) *PreProcessor {
	return &PreProcessor{
		processFuncs: processFuncs,
	}
}

// Run executes the chain in order and stops at the first error or when ctx is done.
func (p *PreProcessor) Run(ctx context.Context) error {
	for i, processFunc := range p.processFuncs {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("processor[%d] not started: %w", i, err)
		}
		if err := processFunc(ctx); err != nil {
			return fmt.Errorf("processor[%d] failed: %w", i, err)
		}
	}
	return nil
}
