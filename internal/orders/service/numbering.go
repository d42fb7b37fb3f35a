package service

import (
	"strconv"
	"strings"
)

const (
	firstSequence   = 100
	unknownSequence = firstSequence - 1
)

// NextOrderNumber returns "<day>-<seq>" for a yyyy-mm-dd delivery date given
// the numbers already used on that date. The first order of a day is 100;
// afterwards it is the highest existing sequence plus one. A sequence that
// does not start with digits (or is zero) counts as 99.
func NextOrderNumber(deliveryDate string, existing []string) string {
	if deliveryDate == "" {
		return ""
	}

	day := deliveryDate
	if parts := strings.Split(deliveryDate, "-"); len(parts) >= 3 {
		day = parts[2]
	}

	if len(existing) == 0 {
		return day + "-" + strconv.Itoa(firstSequence)
	}

	maxSeq := 0
	for i, number := range existing {
		seq := sequenceOf(number)
		if i == 0 || seq > maxSeq {
			maxSeq = seq
		}
	}
	return day + "-" + strconv.Itoa(maxSeq+1)
}

func sequenceOf(orderNumber string) int {
	parts := strings.Split(orderNumber, "-")
	last := parts[len(parts)-1]

	end := 0
	for end < len(last) && last[end] >= '0' && last[end] <= '9' {
		end++
	}
	seq, err := strconv.Atoi(last[:end])
	if err != nil || seq == 0 {
		return unknownSequence
	}
	return seq
}
