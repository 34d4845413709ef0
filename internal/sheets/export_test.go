package sheets

import (
	"context"

	"github.com/shopspring/decimal"

	"spesevoce/internal/sheets/projection"
)

// AccumulateUnserialized bypasses the write queue.
func (g *GridSync) AccumulateUnserialized(ctx context.Context, sheet string, cell projection.Cell, delta decimal.Decimal) error {
	id, err := g.container.ID(ctx)
	if err != nil {
		return err
	}
	return g.accumulate(ctx, id, sheet, cell, delta)
}
