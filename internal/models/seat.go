package models

import (
	"fmt"
	"math"
	"strconv"
)

// SeatsPerRow is the number of seats in one bus row (columns A-D)
const SeatsPerRow = 4

// SeatLabel returns the label for a zero-based seat index, e.g. 0 -> "1A", 5 -> "2B"
func SeatLabel(index int) string {
	row := index/SeatsPerRow + 1
	column := rune('A' + index%SeatsPerRow)
	return fmt.Sprintf("%d%c", row, column)
}

// SeatLabels derives every seat label for a bus of the given capacity, in seat order
func SeatLabels(capacity int) []string {
	if capacity <= 0 {
		return []string{}
	}
	labels := make([]string, capacity)
	for i := 0; i < capacity; i++ {
		labels[i] = SeatLabel(i)
	}
	return labels
}

// SeatIndex parses a label back into its zero-based index.
// Returns -1 unless the label is the canonical form produced by SeatLabel,
// so "+1A" or "01A" never alias seat 1A.
func SeatIndex(label string) int {
	if len(label) < 2 {
		return -1
	}
	column := label[len(label)-1]
	if column < 'A' || column >= 'A'+SeatsPerRow {
		return -1
	}
	row, err := strconv.Atoi(label[:len(label)-1])
	if err != nil || row < 1 || row > math.MaxInt/SeatsPerRow {
		return -1
	}
	idx := (row-1)*SeatsPerRow + int(column-'A')
	if SeatLabel(idx) != label {
		return -1
	}
	return idx
}

// IsValidSeatLabel reports whether label names a seat that exists on a bus of the given capacity
func IsValidSeatLabel(label string, capacity int) bool {
	idx := SeatIndex(label)
	return idx >= 0 && idx < capacity
}
