package usecase

import (
	"greenwallet-service/internal/domain"

	"github.com/shopspring/decimal"
)

// BatchDrawdown is one step of a retirement plan: consume part of a batch
// and move it to the status derived from its new remaining amount.
type BatchDrawdown struct {
	BatchID      int64
	Consumed     decimal.Decimal
	NewRemaining decimal.Decimal
	NewStatus    domain.BatchStatus
}

// planDrawdown walks the wallet's open batches in FIFO order (the
// repository returns them issued_at ascending, id ascending on ties) and
// allocates the retirement amount across them. A batch is never drawn
// below zero and the plan never consumes more than requested in total.
//
// The plan may cover less than the requested amount when credits were
// added without batch provenance (quick issue); the wallet balance still
// moves by the full amount — batch tracking is best-effort, the wallet
// balance is authoritative.
func planDrawdown(batches []*domain.CreditBatch, amount decimal.Decimal) []BatchDrawdown {
	var plan []BatchDrawdown

	remaining := amount
	for _, batch := range batches {
		if remaining.Sign() <= 0 {
			break
		}
		if batch.RemainingAmount.Sign() <= 0 {
			continue
		}

		consumed := decimal.Min(remaining, batch.RemainingAmount)
		newRemaining := batch.RemainingAmount.Sub(consumed)

		plan = append(plan, BatchDrawdown{
			BatchID:      batch.ID,
			Consumed:     consumed,
			NewRemaining: newRemaining,
			NewStatus:    domain.BatchStatusFor(newRemaining, batch.TotalAmount),
		})
		remaining = remaining.Sub(consumed)
	}

	return plan
}
