package store

import (
	"crypto/md5"
	"fmt"
)

// Fingerprint derives an issue id from the first 100 characters of the
// original message text plus its channel and timestamp. Equal inputs
// always collide; that is the dedup mechanism, and it means two
// distinct reports with identical leading text, channel, and timestamp
// merge into one record.
func Fingerprint(text, channel, timestamp string) string {
	if runes := []rune(text); len(runes) > 100 {
		text = string(runes[:100])
	}
	sum := md5.Sum([]byte(text + channel + timestamp))
	return fmt.Sprintf("%x", sum)[:8]
}
