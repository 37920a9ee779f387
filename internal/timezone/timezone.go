package timezone

import "time"

// DefaultOffset is the shop's wall-clock offset when no IANA zone is
// configured. It is a fixed offset and does not follow DST.
const DefaultOffset = 3 * time.Hour

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

var defaultLocation = time.FixedZone("UTC+03:00", int(DefaultOffset/time.Second))

func IsValid(tz string) bool {
	if tz == "" {
		return false
	}
	_, err := time.LoadLocation(tz)
	return err == nil
}

// Location resolves tz, falling back to the fixed default offset.
func Location(tz string) *time.Location {
	if IsValid(tz) {
		if loc, err := time.LoadLocation(tz); err == nil {
			return loc
		}
	}
	return defaultLocation
}

func NowIn(tz string) time.Time {
	return time.Now().In(Location(tz))
}

// Today returns the calendar date of t in loc as YYYY-MM-DD.
func Today(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(DateLayout)
}

// Clock returns t in loc as HH:MM.
func Clock(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(TimeLayout)
}

func ParseDate(date string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DateLayout, date, loc)
}

func ParseDateTime(date, hhmm string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DateLayout+" "+TimeLayout, date+" "+hhmm, loc)
}
