package core

import (
	"fmt"
	"strconv"
	"strings"
)

// Selection is either every month or a single month index (0-11).
// The zero value selects every month.
type Selection struct {
	single bool
	month  int
}

// AllMonths selects the whole year.
var AllMonths = Selection{}

// Month selects a single month by zero-based index.
func Month(i int) (Selection, error) {
	if i < 0 || i >= MonthsInYear {
		return Selection{}, fmt.Errorf("%w: %d", ErrInvalidSelection, i)
	}
	return Selection{single: true, month: i}, nil
}

// ParseSelection accepts "", "all" or a month index "0".."11".
func ParseSelection(s string) (Selection, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "all") {
		return AllMonths, nil
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return Selection{}, fmt.Errorf("%w: %q", ErrInvalidSelection, s)
	}
	return Month(i)
}

// IsAll reports whether the selection covers every month.
func (s Selection) IsAll() bool { return !s.single }

// Index returns the selected month index and false for AllMonths.
func (s Selection) Index() (int, bool) { return s.month, s.single }

// String is the query-string form of the selection.
func (s Selection) String() string {
	if !s.single {
		return "all"
	}
	return strconv.Itoa(s.month)
}
