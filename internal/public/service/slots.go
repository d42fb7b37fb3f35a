package service

import (
	"fmt"
	"time"
)

const (
	slotInterval = 30 * time.Minute
	// Orders are taken from tomorrow up to two weeks ahead.
	minLeadDays = 1
	maxLeadDays = 14
)

var (
	LunchSlots  = generateSlots("11:00", "14:00")
	DinnerSlots = generateSlots("17:00", "20:00")
)

// generateSlots lists HH:mm times from start to end inclusive.
func generateSlots(start, end string) []string {
	from, err := time.Parse("15:04", start)
	if err != nil {
		panic(fmt.Sprintf("invalid slot start %q", start))
	}
	to, err := time.Parse("15:04", end)
	if err != nil {
		panic(fmt.Sprintf("invalid slot end %q", end))
	}

	var slots []string
	for t := from; !t.After(to); t = t.Add(slotInterval) {
		slots = append(slots, t.Format("15:04"))
	}
	return slots
}

func isSlot(value string) bool {
	for _, group := range [][]string{LunchSlots, DinnerSlots} {
		for _, slot := range group {
			if slot == value {
				return true
			}
		}
	}
	return false
}

// dateWindow returns the first and last bookable dates relative to now.
func dateWindow(now time.Time) (string, string) {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return day.AddDate(0, 0, minLeadDays).Format(time.DateOnly), day.AddDate(0, 0, maxLeadDays).Format(time.DateOnly)
}
