package loads

import (
	"fmt"
	"strings"
	"time"

	pkgerrors "github.com/agrilogix/crateflow-backend/pkg/errors"
)

// DayPrefix builds the site/day prefix a load number starts with, e.g.
// "BV240501" for site BV on 2024-05-01.
func DayPrefix(siteCode string, dispatchDate time.Time) string {
	return strings.ToUpper(strings.TrimSpace(siteCode)) + dispatchDate.Format("060102")
}

// NextLoadNumber derives the next number in a site/day sequence. The first
// load of the day is the bare prefix, the second appends "A", and each
// subsequent load increments the final character by one code point. The
// sequence is capped at "Z": a 27th same-day load is rejected rather than
// widening the suffix, because downstream consumers parse the fixed-width
// format.
func NextLoadNumber(prefix, lastNumber string) (string, error) {
	if prefix == "" {
		return "", fmt.Errorf("prefix is required")
	}
	if lastNumber == "" {
		return prefix, nil
	}
	if !strings.HasPrefix(lastNumber, prefix) {
		return "", fmt.Errorf("load number %q does not match prefix %q", lastNumber, prefix)
	}

	suffix := lastNumber[len(prefix):]
	if suffix == "" {
		return prefix + "A", nil
	}

	last := suffix[len(suffix)-1]
	if last >= 'Z' {
		return "", pkgerrors.New(pkgerrors.CodeConflict, "daily load number sequence exhausted for "+prefix)
	}
	return prefix + suffix[:len(suffix)-1] + string(last+1), nil
}
