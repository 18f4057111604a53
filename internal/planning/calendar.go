package planning

import "time"

const dateLayout = "2006-01-02"

// Bucket: 排产日历中的一个离散时间桶
type Bucket struct {
	Index   int    `json:"index"`
	Date    string `json:"date"` // 桶的起始日期（YYYY-MM-DD）
	Weekend bool   `json:"isWeekend"`
}

// Calendar: 把排产起始日期和计划视野映射为下标连续的时间桶序列，
// 桶宽以天为单位（1 为日桶，7 为周桶），模型和优化器只在桶下标空间内工作
type Calendar struct {
	start      time.Time
	bucketDays int
	buckets    []Bucket
}

func NewCalendar(start time.Time, horizonDays, bucketDays int) *Calendar {
	if bucketDays <= 0 {
		bucketDays = 1
	}
	if horizonDays < bucketDays {
		horizonDays = bucketDays
	}

	start = truncateToDay(start)
	n := horizonDays / bucketDays

	buckets := make([]Bucket, n)
	for i := 0; i < n; i++ {
		date := start.AddDate(0, 0, i*bucketDays)
		weekday := date.Weekday()
		buckets[i] = Bucket{
			Index:   i,
			Date:    date.Format(dateLayout),
			Weekend: bucketDays == 1 && (weekday == time.Saturday || weekday == time.Sunday),
		}
	}

	return &Calendar{
		start:      start,
		bucketDays: bucketDays,
		buckets:    buckets,
	}
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// dayNumber 把日期换算成一个单调递增的天序号，避免跨夏令时做小时差运算
func dayNumber(t time.Time) int {
	return int(time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC).Unix() / 86400)
}

// DaysBetween 返回 from 到 to 的天数差（to 在 from 之后时为正）
func DaysBetween(from, to time.Time) int {
	return dayNumber(to) - dayNumber(from)
}

func (c *Calendar) Len() int {
	return len(c.buckets)
}

func (c *Calendar) BucketDays() int {
	return c.bucketDays
}

func (c *Calendar) Start() time.Time {
	return c.start
}

func (c *Calendar) Buckets() []Bucket {
	return c.buckets
}

// DateOf 返回指定桶的起始日期，下标越界时返回零值和 false
func (c *Calendar) DateOf(index int) (time.Time, bool) {
	if index < 0 || index >= len(c.buckets) {
		return time.Time{}, false
	}
	return c.start.AddDate(0, 0, index*c.bucketDays), true
}

// DateKeyOf 返回指定桶的日期键（YYYY-MM-DD），用于产能和组件可用量的查找
func (c *Calendar) DateKeyOf(index int) (string, bool) {
	if index < 0 || index >= len(c.buckets) {
		return "", false
	}
	return c.buckets[index].Date, true
}

// IndexOf 返回包含指定日期的桶下标，早于起始日期时钳制为 0；
// 晚于计划视野的日期会返回超出 Len() 的下标，由调用方自行判断越界
func (c *Calendar) IndexOf(date time.Time) int {
	days := dayNumber(date) - dayNumber(c.start)
	if days < 0 {
		return 0
	}
	return days / c.bucketDays
}
