// Package timezone converts gateway wall-clock timestamps into absolute instants.
//
// The payment gateway reports transaction times as "YYYY-MM-DD HH:mm:ss" without an
// offset; they are always Vietnam local time (UTC+7). This is a fixed regional
// assumption, not a general timezone parser.
package timezone

import (
	"errors"
	"fmt"
	"time"
)

// Layout is the gateway's transaction date format.
const Layout = "2006-01-02 15:04:05"

const gatewayOffset = 7 * 60 * 60

// ErrMalformedTimestamp is returned when a timestamp does not match Layout.
var ErrMalformedTimestamp = errors.New("malformed transaction timestamp")

var gatewayZone = time.FixedZone("UTC+7", gatewayOffset)

// Location returns the gateway's fixed UTC+7 zone.
func Location() *time.Location {
	return gatewayZone
}

// Normalize interprets local as UTC+7 wall-clock time and returns the UTC instant.
func Normalize(local string) (time.Time, error) {
	t, err := time.ParseInLocation(Layout, local, gatewayZone)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedTimestamp, local)
	}
	return t.UTC(), nil
}

// FormatLocal renders t in the gateway's format and zone.
func FormatLocal(t time.Time) string {
	return t.In(gatewayZone).Format(Layout)
}
