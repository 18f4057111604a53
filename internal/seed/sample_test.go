package seed

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartmfg-dev/order-planner/backend/internal/utils"
)

func TestGenerateSampleModel(t *testing.T) {
	start := time.Now()
	rng := rand.New(rand.NewSource(42))

	m := GenerateSampleModel(start, 90, 1, 7, 30, rng)

	assert.Equal(t, 30, m.OrderCount())
	assert.Equal(t, 5, m.ProductCount())
	assert.Equal(t, 6, m.LineRestrictionCount())
	assert.Len(t, m.ComponentIDs(), 6)

	// 快照必须通过载荷校验，这样生成的场景才能直接入库
	require.NoError(t, utils.ValidateSnapshotPayload(m.Snapshot()))

	// 产能校验也必须通过，保证示例场景可以直接发起优化
	validation := m.ValidateCapacity()
	assert.True(t, validation.OK, "critical issues: %v", validation.CriticalIssues)

	for _, orderNumber := range m.OrderNumbers() {
		order, ok := m.Order(orderNumber)
		require.True(t, ok)

		assert.Positive(t, order.Quantity)
		assert.False(t, order.PromiseDate.Before(start.AddDate(0, 0, 6)), "订单 %s 的承诺日期早于最小提前期", orderNumber)
		assert.NotEmpty(t, order.Operations)

		// 惩罚规则按 (优先级, 产品) 全组合生成，必须能查到
		_, ok = m.PenaltyRule(order.CustomerPriority, order.ProductID)
		assert.True(t, ok)
	}

	// 周末不排产
	weekendDate := ""
	for _, bucket := range m.Calendar().Buckets() {
		if bucket.Weekend {
			weekendDate = bucket.Date
			break
		}
	}
	require.NotEmpty(t, weekendDate)
	for _, line := range m.LineNames() {
		lr, ok := m.LineRestriction(line)
		require.True(t, ok)
		assert.Zero(t, lr.CapacityOn(weekendDate))
	}
}

func TestGenerateSampleModelDeterministic(t *testing.T) {
	start := time.Now().AddDate(0, 0, 1)

	first := GenerateSampleModel(start, 60, 1, 7, 10, rand.New(rand.NewSource(7))).Snapshot()
	second := GenerateSampleModel(start, 60, 1, 7, 10, rand.New(rand.NewSource(7))).Snapshot()

	assert.Equal(t, first, second)
}
