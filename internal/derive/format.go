package derive

import (
	"math"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/dashboard-engine/internal/period"
)

// Unit is how a magnitude is displayed.
type Unit string

const (
	UnitCount    Unit = "count"
	UnitCurrency Unit = "currency"
)

// ThousandsSeparator is the narrow no-break space placed between digit groups.
const ThousandsSeparator = "\u202f"

// ErrMalformedMagnitude is returned by ParseMagnitude for unreadable input.
var ErrMalformedMagnitude = eris.New("derive: malformed magnitude")

// FormatMagnitude renders value for display. Counts are rounded and grouped
// by thousands ("1 247"). Currency amounts are divided by the bucket factor,
// shown with one decimal and suffixed ("1.2 M"); an empty bucket reads as
// millions. The bucket is never inferred from the value.
func FormatMagnitude(value float64, unit Unit, bucket period.Bucket) string {
	value = SafeNumber(value)
	if unit != UnitCurrency {
		return group(strconv.FormatFloat(math.Round(value), 'f', 0, 64))
	}
	if bucket == "" {
		bucket = period.Millions
	}
	scaled := round1(value / bucket.Factor())
	return group(strconv.FormatFloat(scaled, 'f', 1, 64)) + " " + string(bucket)
}

// group inserts ThousandsSeparator into the integer part of a decimal string.
func group(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, frac = s[:i], s[i:]
	}
	if intPart == "0" && strings.Trim(frac, ".0") == "" {
		sign = ""
	}
	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteString(ThousandsSeparator)
		}
		b.WriteRune(r)
	}
	return sign + b.String() + frac
}

// ParseMagnitude reads a string produced by FormatMagnitude back into a raw
// value. The returned bucket is empty for counts.
func ParseMagnitude(s string) (float64, period.Bucket, error) {
	s = strings.TrimSpace(s)
	var bucket period.Bucket
	switch {
	case strings.HasSuffix(s, " "+string(period.Billions)):
		bucket = period.Billions
	case strings.HasSuffix(s, " "+string(period.Millions)):
		bucket = period.Millions
	}
	num := strings.TrimSuffix(s, " "+string(bucket))
	num = strings.NewReplacer(ThousandsSeparator, "", "\u00a0", "", " ", "").Replace(num)
	v, err := strconv.ParseFloat(num, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, "", eris.Wrapf(ErrMalformedMagnitude, "parse %q", s)
	}
	if bucket != "" {
		v *= bucket.Factor()
	}
	return v, bucket, nil
}

// Precision is the largest error a displayed currency amount can carry in
// the given bucket: half of the last shown decimal.
func Precision(bucket period.Bucket) float64 {
	if bucket == "" {
		return 0.5
	}
	return bucket.Factor() * 0.05
}
