package feed

import (
	"fmt"
	"time"
)

// iconByKind maps each moment kind to its display icon name.
var iconByKind = map[Kind]string{
	KindThought:    "message-square",
	KindPhoto:      "camera",
	KindMusic:      "music",
	KindLocation:   "map-pin",
	KindSleep:      "moon",
	KindWake:       "smile",
	KindVideo:      "video",
	KindAttachment: "paperclip",
}

// Entry is a moment decorated with render-time display fields. Display
// fields are computed on assembly, never stored.
type Entry struct {
	Moment
	Icon      string
	TimeLabel string
}

// Assembled is the rendered timeline: the store's newest-first sequence plus
// derived badges that are pure functions of current state.
type Assembled struct {
	Entries  []Entry
	Birthday bool
}

// Assemble produces the rendered order from the store's current sequence.
// The sequence is already newest-first; assembly only decorates it.
func Assemble(moments []Moment, dob time.Time, now time.Time) Assembled {
	entries := make([]Entry, len(moments))
	for i, m := range moments {
		entries[i] = Entry{
			Moment:    m,
			Icon:      IconFor(m.Kind),
			TimeLabel: TimeLabel(m.CreatedAt, now),
		}
	}
	return Assembled{
		Entries:  entries,
		Birthday: IsBirthday(dob, now),
	}
}

// IconFor returns the display icon name for a moment kind.
func IconFor(kind Kind) string {
	if icon, ok := iconByKind[kind]; ok {
		return icon
	}
	return iconByKind[KindThought]
}

// TimeLabel renders a relative label for recent moments and an absolute one
// beyond a day.
func TimeLabel(createdAt, now time.Time) string {
	elapsed := now.Sub(createdAt)
	switch {
	case elapsed < time.Minute:
		return "just now"
	case elapsed < time.Hour:
		return fmt.Sprintf("%dm ago", int(elapsed.Minutes()))
	case elapsed < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(elapsed.Hours()))
	default:
		return createdAt.Format("Jan 2, 15:04")
	}
}

// IsBirthday reports whether now falls on the month and day of the date of
// birth. Feb 29 birthdays never match on non-leap years by construction of
// the month/day comparison; no special-casing.
func IsBirthday(dob, now time.Time) bool {
	if dob.IsZero() {
		return false
	}
	return now.Month() == dob.Month() && now.Day() == dob.Day()
}

// Scroll-driven visual parameters. Each is a monotonic, clamped function of
// the scroll offset; they carry no data-consistency weight.

// HeaderOpacity fades the header in over the first 200 scrolled pixels.
func HeaderOpacity(scrollPos float64) float64 {
	if scrollPos <= 0 {
		return 0
	}
	if scrollPos >= 200 {
		return 1
	}
	return scrollPos / 200
}

// ProfileScale shrinks the avatar from 1.0 toward a 0.8 floor.
func ProfileScale(scrollPos float64) float64 {
	if scrollPos <= 0 {
		return 1
	}
	scale := 1 - scrollPos/1000
	if scale < 0.8 {
		return 0.8
	}
	return scale
}

// PullDistance is the overscroll magnitude while the content is dragged
// below its origin; zero otherwise.
func PullDistance(scrollPos float64) float64 {
	if scrollPos >= 0 {
		return 0
	}
	return -scrollPos
}

// RefreshThreshold is the pull distance beyond which the gesture triggers a
// timeline refresh.
const RefreshThreshold = 60.0

// ShouldTriggerRefresh reports whether the current pull warrants a refresh,
// given that none is already in flight.
func ShouldTriggerRefresh(scrollPos float64, refreshing bool) bool {
	return PullDistance(scrollPos) > RefreshThreshold && !refreshing
}
