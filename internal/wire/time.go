package wire

import "time"

// timeFromUnix возвращает UTC момент для значения в POSIX-секундах
func timeFromUnix(sec float64) time.Time {
	whole := int64(sec)
	frac := sec - float64(whole)
	return time.Unix(whole, int64(frac*float64(time.Second))).UTC()
}
