package wire

import "github.com/relaydb/qcore/date"

// secondsPerDay/millisPerSecond convert between the epoch-count units
// PackDate/PackTime/PackTimestamp/PackDatetime carry on the wire and
// date.Time's calendar representation.
const (
	secondsPerDay   = 86400
	millisPerSecond = 1000
)

// DaysToDate converts a DATE wire payload (days since epoch, see
// PackDate) to a calendar date.Time at midnight UTC.
func DaysToDate(days int32) date.Time {
	return date.Unix(int64(days)*secondsPerDay, 0)
}

// DateToDays converts t's date component to DATE's days-since-epoch
// wire representation, normalizing t through date.Time's calendar
// arithmetic first (out-of-range components carry into the next/prior
// unit rather than overflowing silently, and years outside
// [0,16383] are clamped -- see date.Time's doc comment).
func DateToDays(t date.Time) int32 {
	return int32(t.Unix() / secondsPerDay)
}

// SecondsToTime converts a TIME wire payload (seconds since midnight,
// see PackTime) to a date.Time on January 1st of year 0, date.Time's
// zero date.
func SecondsToTime(secs int32) date.Time {
	return date.Date(0, 1, 1, 0, 0, int(secs), 0)
}

// TimeToSeconds converts t's time-of-day component to TIME's
// seconds-since-midnight wire representation.
func TimeToSeconds(t date.Time) int32 {
	return int32(t.Hour()*3600 + t.Minute()*60 + t.Second())
}

// SecondsToTimestamp converts a TIMESTAMP wire payload (seconds since
// epoch, see PackTimestamp) to a date.Time.
func SecondsToTimestamp(secs int64) date.Time {
	return date.Unix(secs, 0)
}

// TimestampToSeconds converts t to TIMESTAMP's seconds-since-epoch
// wire representation.
func TimestampToSeconds(t date.Time) int64 {
	return t.Unix()
}

// MillisToDatetime converts a DATETIME wire payload (milliseconds
// since epoch, see PackDatetime) to a date.Time.
func MillisToDatetime(millis int64) date.Time {
	return date.UnixMicro(millis * millisPerSecond)
}

// DatetimeToMillis converts t to DATETIME's milliseconds-since-epoch
// wire representation.
func DatetimeToMillis(t date.Time) int64 {
	return t.UnixMicro() / millisPerSecond
}

// PackDateValue appends t's date component in DATE wire form.
func PackDateValue(buf []byte, t date.Time) []byte {
	return PackDate(buf, DateToDays(t))
}

// UnpackDateValue decodes a value packed by PackDateValue or PackDate.
func UnpackDateValue(buf []byte) (date.Time, []byte, error) {
	days, rest, err := UnpackDate(buf)
	if err != nil {
		return date.Time{}, buf, err
	}
	return DaysToDate(days), rest, nil
}

// PackTimeValue appends t's time-of-day component in TIME wire form.
func PackTimeValue(buf []byte, t date.Time) []byte {
	return PackTime(buf, TimeToSeconds(t))
}

// UnpackTimeValue decodes a value packed by PackTimeValue or PackTime.
func UnpackTimeValue(buf []byte) (date.Time, []byte, error) {
	secs, rest, err := UnpackTime(buf)
	if err != nil {
		return date.Time{}, buf, err
	}
	return SecondsToTime(secs), rest, nil
}

// PackTimestampValue appends t in TIMESTAMP wire form.
func PackTimestampValue(buf []byte, t date.Time) []byte {
	return PackTimestamp(buf, TimestampToSeconds(t))
}

// UnpackTimestampValue decodes a value packed by PackTimestampValue or
// PackTimestamp.
func UnpackTimestampValue(buf []byte) (date.Time, []byte, error) {
	secs, rest, err := UnpackTimestamp(buf)
	if err != nil {
		return date.Time{}, buf, err
	}
	return SecondsToTimestamp(secs), rest, nil
}

// PackDatetimeValue appends t in DATETIME wire form.
func PackDatetimeValue(buf []byte, t date.Time) []byte {
	return PackDatetime(buf, DatetimeToMillis(t))
}

// UnpackDatetimeValue decodes a value packed by PackDatetimeValue or
// PackDatetime.
func UnpackDatetimeValue(buf []byte) (date.Time, []byte, error) {
	millis, rest, err := UnpackDatetime(buf)
	if err != nil {
		return date.Time{}, buf, err
	}
	return MillisToDatetime(millis), rest, nil
}
