package usecase

import (
	"testing"

	"greenwallet-service/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openBatch(id int64, total, remaining string) *domain.CreditBatch {
	return &domain.CreditBatch{
		ID:              id,
		TotalAmount:     dec(total),
		RemainingAmount: dec(remaining),
		Status:          domain.BatchStatusFor(dec(remaining), dec(total)),
	}
}

func TestPlanDrawdownSpansBatchesInOrder(t *testing.T) {
	batches := []*domain.CreditBatch{
		openBatch(1, "50", "50"),
		openBatch(2, "80", "80"),
	}

	plan := planDrawdown(batches, dec("70"))
	require.Len(t, plan, 2)

	assert.Equal(t, int64(1), plan[0].BatchID)
	assert.True(t, plan[0].Consumed.Equal(dec("50")))
	assert.True(t, plan[0].NewRemaining.IsZero())
	assert.Equal(t, domain.BatchStatusFullyRetired, plan[0].NewStatus)

	assert.Equal(t, int64(2), plan[1].BatchID)
	assert.True(t, plan[1].Consumed.Equal(dec("20")))
	assert.True(t, plan[1].NewRemaining.Equal(dec("60")))
	assert.Equal(t, domain.BatchStatusPartiallyRetired, plan[1].NewStatus)
}

func TestPlanDrawdownStopsWhenSatisfied(t *testing.T) {
	batches := []*domain.CreditBatch{
		openBatch(1, "100", "100"),
		openBatch(2, "100", "100"),
	}

	plan := planDrawdown(batches, dec("30"))
	require.Len(t, plan, 1)
	assert.Equal(t, int64(1), plan[0].BatchID)
	assert.True(t, plan[0].Consumed.Equal(dec("30")))
	assert.True(t, plan[0].NewRemaining.Equal(dec("70")))
	assert.Equal(t, domain.BatchStatusPartiallyRetired, plan[0].NewStatus)
}

func TestPlanDrawdownSkipsDrainedBatches(t *testing.T) {
	batches := []*domain.CreditBatch{
		openBatch(1, "40", "0"),
		openBatch(2, "60", "25"),
	}

	plan := planDrawdown(batches, dec("10"))
	require.Len(t, plan, 1)
	assert.Equal(t, int64(2), plan[0].BatchID)
	assert.True(t, plan[0].Consumed.Equal(dec("10")))
}

func TestPlanDrawdownMayCoverLessThanRequested(t *testing.T) {
	batches := []*domain.CreditBatch{
		openBatch(1, "40", "15"),
	}

	plan := planDrawdown(batches, dec("50"))
	require.Len(t, plan, 1)
	assert.True(t, plan[0].Consumed.Equal(dec("15")))
	assert.True(t, plan[0].NewRemaining.IsZero())
	assert.Equal(t, domain.BatchStatusFullyRetired, plan[0].NewStatus)
}

func TestPlanDrawdownConservation(t *testing.T) {
	batches := []*domain.CreditBatch{
		openBatch(1, "10", "7.5"),
		openBatch(2, "20", "12.25"),
		openBatch(3, "30", "30"),
	}

	plan := planDrawdown(batches, dec("19.75"))

	total := decimal.Zero
	for _, step := range plan {
		total = total.Add(step.Consumed)
		assert.False(t, step.NewRemaining.IsNegative())
	}
	assert.True(t, total.Equal(dec("19.75")))
}

func TestPlanDrawdownEmptyInputs(t *testing.T) {
	assert.Empty(t, planDrawdown(nil, dec("10")))
	assert.Empty(t, planDrawdown([]*domain.CreditBatch{openBatch(1, "10", "10")}, decimal.Zero))
}
