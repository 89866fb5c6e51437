package s3

import "fmt"

// FormatBytes 將位元組數轉換為易讀的字串表示
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d bytes", bytes)
	}
	units := []string{"KB", "MB", "GB", "TB", "PB"}
	value := float64(bytes)
	for i := 0; i < len(units); i++ {
		value /= unit
		if value < unit || i == len(units)-1 {
			return fmt.Sprintf("%.2f %s", value, units[i])
		}
	}
	return fmt.Sprintf("%d bytes", bytes)
}
