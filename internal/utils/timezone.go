package utils

import (
	"time"
)

// Layouts mirroring the en-IN locale used in ledger rows and ETA messages.
const (
	LedgerTimestampLayout = "2/1/2006, 3:04:05 pm"
	CompletionTimeLayout  = "03:04 pm"
)

var istFallback = time.FixedZone("IST", 5*60*60+30*60)

// IST returns the Asia/Kolkata location, falling back to a fixed +05:30 zone
// when the tz database is unavailable.
func IST() *time.Location {
	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		return istFallback
	}
	return loc
}
