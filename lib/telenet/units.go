package telenet

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const kibibytesPerGibibyte = 1048576

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// KBToGB converts kibibytes to gibibytes rounded to one decimal.
func KBToGB(kb float64) float64 {
	return round1(kb / kibibytesPerGibibyte)
}

// StrToFloat parses a decimal-comma number like "12,34".
func StrToFloat(s string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", "."), 64)
}

// WifiQRCode renders the payload of a WIFI QR code, colons in the passphrase are escaped.
func WifiQRCode(ssid, passphrase string) string {
	return fmt.Sprintf("WIFI:S:%s;T:WPA;P:%s;;", ssid, strings.ReplaceAll(passphrase, ":", `\:`))
}

// the portal always sends a single ".0" fraction before the offset
var periodLayouts = []string{
	"2006-01-02T15:04:05.0-0700",
	"2006-01-02T15:04:05.0-07:00",
}

// ParsePeriodTimestamp parses the start and end timestamps of a billing period.
func ParsePeriodTimestamp(s string) (time.Time, error) {
	var firstErr error
	for _, layout := range periodLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}

// PeriodUsedPercentage is the elapsed share of [start, end] at now, capped at 100.
func PeriodUsedPercentage(start, end, now time.Time) float64 {
	length := end.Sub(start).Seconds()
	if length <= 0 {
		return 100
	}
	pct := round1(100 * now.Sub(start).Seconds() / length)
	if pct > 100 {
		return 100
	}
	return pct
}
