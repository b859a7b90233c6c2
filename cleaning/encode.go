package cleaning

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// BinaryCodes is the encoding applied to the yes/no medical columns. Keys
// are matched case-insensitively after trimming.
var BinaryCodes = map[string]int{
	"no":  0,
	"yes": 1,
}

// EncodeBinary maps a yes/no answer to 0/1.
func EncodeBinary(s string) (int, error) {
	v, ok := BinaryCodes[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return 0, ErrUnknownCategory
	}
	return v, nil
}

// ParseTier extracts the ordinal from labels like "tier - 2" or "tier-2".
func ParseTier(s string) (int, error) {
	r := strings.NewReplacer("tier", "", " ", "", "-", "")
	n, err := strconv.Atoi(r.Replace(s))
	if err != nil {
		return 0, ErrBadTier
	}
	return n, nil
}

// RetainedRegions are the State ID codes kept as indicator columns. Every
// other code leaves all three indicators at zero.
var RetainedRegions = [3]string{"R1011", "R1012", "R1013"}

// RegionFlags one-hot encodes a State ID over RetainedRegions.
func RegionFlags(code string) [3]int {
	var flags [3]int
	for i, r := range RetainedRegions {
		if code == r {
			flags[i] = 1
		}
	}
	return flags
}

// NoMajorSurgery is the label meaning zero surgeries.
const NoMajorSurgery = "No major surgery"

// ParseSurgeries returns the number of major surgeries.
func ParseSurgeries(s string) (int, error) {
	if s == NoMajorSurgery {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, ErrBadNumber
	}
	return n, nil
}

// BirthDate combines a 4-digit year and a 3-letter month abbreviation into
// the first day of that month, UTC.
func BirthDate(year, month string) (time.Time, error) {
	y, err := time.Parse("2006", year)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: year %q", ErrBadDate, year)
	}
	m, err := time.Parse("Jan", month)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: month %q", ErrBadDate, month)
	}
	return time.Date(y.Year(), m.Month(), 1, 0, 0, 0, 0, time.UTC), nil
}

// Age returns the whole years between dob and now, counting 365-day years.
func Age(dob, now time.Time) int {
	days := int(now.Sub(dob) / (24 * time.Hour))
	if days < 0 {
		return 0
	}
	return days / 365
}

// Gender is 0 when the name carries the "Ms." title and 1 otherwise.
func Gender(name string) int {
	if strings.Contains(name, "Ms.") {
		return 0
	}
	return 1
}
