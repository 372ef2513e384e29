package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	t.Run("follows the lifecycle DAG", func(t *testing.T) {
		assert.True(t, CanTransition(StatusCreated, StatusPendingForBankData))
		assert.True(t, CanTransition(StatusCreated, StatusFailedFromProvider))
		assert.True(t, CanTransition(StatusPendingForBankData, StatusEvaluating))
		assert.True(t, CanTransition(StatusEvaluating, StatusApproved))
		assert.True(t, CanTransition(StatusEvaluating, StatusRejected))
	})

	t.Run("never revisits or skips a status", func(t *testing.T) {
		assert.False(t, CanTransition(StatusPendingForBankData, StatusCreated))
		assert.False(t, CanTransition(StatusCreated, StatusEvaluating))
		assert.False(t, CanTransition(StatusEvaluating, StatusFailedFromProvider))
	})

	t.Run("final statuses have no outgoing edges", func(t *testing.T) {
		for _, s := range DefaultStatuses() {
			if !s.IsFinal {
				continue
			}
			for _, to := range DefaultStatuses() {
				assert.False(t, CanTransition(s.Code, to.Code), "%s -> %s", s.Code, to.Code)
			}
		}
	})
}

func TestDefaultStatuses(t *testing.T) {
	final := map[StatusCode]bool{}
	for _, s := range DefaultStatuses() {
		final[s.Code] = s.IsFinal
		assert.False(t, s.ID.IsNil())
	}
	assert.Len(t, final, 6)
	assert.True(t, final[StatusApproved])
	assert.True(t, final[StatusRejected])
	assert.True(t, final[StatusFailedFromProvider])
	assert.False(t, final[StatusCreated])
}

func TestBankingInfo_HasFinancialData(t *testing.T) {
	var missing *BankingInfo
	assert.False(t, missing.HasFinancialData())
	assert.False(t, (&BankingInfo{}).HasFinancialData())
	assert.False(t, (&BankingInfo{FinancialData: json.RawMessage(`null`)}).HasFinancialData())
	assert.False(t, (&BankingInfo{FinancialData: json.RawMessage(`{}`)}).HasFinancialData())
	assert.True(t, (&BankingInfo{FinancialData: json.RawMessage(`{"bureau_report":{}}`)}).HasFinancialData())
}
