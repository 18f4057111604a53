package planning

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCalendarDailyBuckets(t *testing.T) {
	start := time.Date(2026, 3, 2, 15, 30, 0, 0, time.UTC) // 周一，带时分以验证截断
	c := NewCalendar(start, 14, 1)

	assert.Equal(t, 14, c.Len())
	assert.Equal(t, 1, c.BucketDays())

	date, ok := c.DateOf(0)
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), date)

	key, ok := c.DateKeyOf(5)
	require.True(t, ok)
	assert.Equal(t, "2026-03-07", key)

	// 3 月 7 日是周六
	assert.False(t, c.Buckets()[4].Weekend)
	assert.True(t, c.Buckets()[5].Weekend)
	assert.True(t, c.Buckets()[6].Weekend)
}

func TestNewCalendarWeeklyBuckets(t *testing.T) {
	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	c := NewCalendar(start, 70, 7)

	assert.Equal(t, 10, c.Len())

	key, ok := c.DateKeyOf(1)
	require.True(t, ok)
	assert.Equal(t, "2026-03-09", key)

	// 周桶不标记周末
	for _, bucket := range c.Buckets() {
		assert.False(t, bucket.Weekend)
	}
}

func TestCalendarIndexOf(t *testing.T) {
	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	c := NewCalendar(start, 28, 7)

	assert.Equal(t, 0, c.IndexOf(start))
	assert.Equal(t, 0, c.IndexOf(start.AddDate(0, 0, 6)))
	assert.Equal(t, 1, c.IndexOf(start.AddDate(0, 0, 7)))
	assert.Equal(t, 3, c.IndexOf(start.AddDate(0, 0, 27)))

	// 早于起始日期钳制为 0，不会产生负下标
	assert.Equal(t, 0, c.IndexOf(start.AddDate(0, 0, -30)))

	// 超出视野时返回越界下标，由调用方处理
	assert.GreaterOrEqual(t, c.IndexOf(start.AddDate(0, 0, 100)), c.Len())
}

func TestCalendarOutOfRange(t *testing.T) {
	c := NewCalendar(time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), 7, 1)

	_, ok := c.DateOf(-1)
	assert.False(t, ok)
	_, ok = c.DateOf(7)
	assert.False(t, ok)
	_, ok = c.DateKeyOf(7)
	assert.False(t, ok)
}

func TestDaysBetween(t *testing.T) {
	from := time.Date(2026, 3, 2, 23, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 9, 1, 0, 0, 0, time.UTC)

	assert.Equal(t, 7, DaysBetween(from, to))
	assert.Equal(t, -7, DaysBetween(to, from))
	assert.Equal(t, 0, DaysBetween(from, from))
}
