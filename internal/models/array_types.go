package models

import (
	"database/sql/driver"
	"sort"

	"github.com/lib/pq"
)

// SeatList is a set of seat labels stored as TEXT[] in PostgreSQL
type SeatList []string

// Value implements the driver.Valuer interface
func (s SeatList) Value() (driver.Value, error) {
	if s == nil {
		return pq.Array([]string{}).Value()
	}
	return pq.Array([]string(s)).Value()
}

// Scan implements the sql.Scanner interface
func (s *SeatList) Scan(src interface{}) error {
	if src == nil {
		*s = SeatList{}
		return nil
	}
	slice := (*[]string)(s)
	return pq.Array(slice).Scan(src)
}

// Contains reports whether label is in the list
func (s SeatList) Contains(label string) bool {
	for _, l := range s {
		if l == label {
			return true
		}
	}
	return false
}

// SortSeatLabels orders labels by seat position (1A, 1B, ..., 2A) rather than lexically
func SortSeatLabels(labels []string) {
	sort.SliceStable(labels, func(i, j int) bool {
		a, b := SeatIndex(labels[i]), SeatIndex(labels[j])
		if a == b {
			return labels[i] < labels[j]
		}
		return a < b
	})
}
