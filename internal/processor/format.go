package processor

import (
	"time"

	"github.com/dustin/go-humanize"
)

// FormatDuration renders a run duration in time.Duration notation, rounded
// to the millisecond under a second ("250ms"), to a tenth of a second under
// a minute ("2.3s"), and to the second beyond that ("1m32s").
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return d.Round(time.Millisecond).String()
	case d < time.Minute:
		return d.Round(100 * time.Millisecond).String()
	default:
		return d.Round(time.Second).String()
	}
}

// FormatCacheSize renders a cache directory's size in human-readable bytes
// via humanize.Bytes (e.g. "500 MB"); ParseCacheSize below is its
// counterpart for the budget strings runtime.download_cache_max accepts.
func FormatCacheSize(bytes uint64) string {
	return humanize.Bytes(bytes)
}

// ParseCacheSize parses a human-readable byte budget string (as used by
// RuntimeConfig.DownloadCacheMax), e.g. "500MB" or "1GB".
func ParseCacheSize(s string) (uint64, error) {
	return humanize.ParseBytes(s)
}
