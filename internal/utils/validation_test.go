package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartmfg-dev/order-planner/backend/internal/domain"
	"github.com/smartmfg-dev/order-planner/backend/internal/planning"
)

func validSnapshot() *planning.Snapshot {
	return &planning.Snapshot{
		PlanningStartDate:    time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		HorizonDays:          60,
		BucketDays:           1,
		MinEarlyDeliveryDays: 7,
		LineRestrictions: []*domain.LineRestriction{
			{Name: "Line_A", Validity: true, PenaltyCost: 500, Capacity: map[string]int{"2026-03-02": 5}},
		},
		Operations: []*domain.Operation{
			{OperationID: "OP1", PrimaryLine: "Line_A"},
		},
		SalesOrders: []*domain.SalesOrder{
			{
				OrderNumber:      "SO-1",
				ProductID:        "P1",
				PromiseDate:      time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC),
				Quantity:         1,
				CustomerPriority: "High",
				Operations:       []string{"OP1"},
			},
		},
	}
}

func TestValidateSnapshotPayloadAccepts(t *testing.T) {
	require.NoError(t, ValidateSnapshotPayload(validSnapshot()))
}

func TestValidateSnapshotPayloadRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(s *planning.Snapshot)
	}{
		{"不支持的桶宽", func(s *planning.Snapshot) { s.BucketDays = 3 }},
		{"视野小于桶宽", func(s *planning.Snapshot) { s.BucketDays = 7; s.HorizonDays = 3 }},
		{"负的提前交付天数", func(s *planning.Snapshot) { s.MinEarlyDeliveryDays = -1 }},
		{"没有订单", func(s *planning.Snapshot) { s.SalesOrders = nil }},
		{"产线重复", func(s *planning.Snapshot) {
			s.LineRestrictions = append(s.LineRestrictions, &domain.LineRestriction{Name: "Line_A"})
		}},
		{"工序缺主产线", func(s *planning.Snapshot) { s.Operations[0].PrimaryLine = "" }},
		{"订单数量非正", func(s *planning.Snapshot) { s.SalesOrders[0].Quantity = 0 }},
		{"订单缺承诺日期", func(s *planning.Snapshot) { s.SalesOrders[0].PromiseDate = time.Time{} }},
		{"订单没有工序", func(s *planning.Snapshot) { s.SalesOrders[0].Operations = nil }},
		{"优先级准则倍数非正", func(s *planning.Snapshot) {
			s.PriorityCriteria = []*domain.PriorityDeliveryCriteria{{CustomerPriority: "High", PenaltyMultiplier: 0}}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSnapshot()
			tt.mutate(s)
			assert.Error(t, ValidateSnapshotPayload(s))
		})
	}
}
