package service

import (
	"fmt"
	"math"
	"time"
)

// FormatElapsed renders d using its two largest units, days down to seconds.
// Sub-second remainders are dropped.
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	seconds := int64(d / time.Second)
	minutes := seconds / 60
	hours := minutes / 60
	days := hours / 24

	switch {
	case days > 0:
		return fmt.Sprintf("%d日%d時間", days, hours%24)
	case hours > 0:
		return fmt.Sprintf("%d時間%d分", hours, minutes%60)
	case minutes > 0:
		return fmt.Sprintf("%d分%d秒", minutes, seconds%60)
	default:
		return fmt.Sprintf("%d秒", seconds)
	}
}

// remainingHours rounds up to whole hours, so any partial hour still counts.
func remainingHours(d time.Duration) int64 {
	return int64(math.Ceil(float64(d) / float64(time.Hour)))
}
