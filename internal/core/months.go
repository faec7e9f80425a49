package core

import "strings"

// MonthsInYear is the fixed length of every monthly series.
const MonthsInYear = 12

// MonthlySeries holds one value per calendar month, January first.
type MonthlySeries [MonthsInYear]float64

// Slice returns a copy of the series as a slice.
func (s MonthlySeries) Slice() []float64 {
	out := make([]float64, MonthsInYear)
	copy(out, s[:])
	return out
}

var monthLabels = map[string][MonthsInYear]string{
	"en": {"January", "February", "March", "April", "May", "June",
		"July", "August", "September", "October", "November", "December"},
	"ru": {"Январь", "Февраль", "Март", "Апрель", "Май", "Июнь",
		"Июль", "Август", "Сентябрь", "Октябрь", "Ноябрь", "Декабрь"},
	"it": {"Gennaio", "Febbraio", "Marzo", "Aprile", "Maggio", "Giugno",
		"Luglio", "Agosto", "Settembre", "Ottobre", "Novembre", "Dicembre"},
}

// MonthLabels returns the twelve month names for locale, falling back to English.
func MonthLabels(locale string) []string {
	labels, ok := monthLabels[strings.ToLower(strings.TrimSpace(locale))]
	if !ok {
		labels = monthLabels["en"]
	}
	out := make([]string, MonthsInYear)
	copy(out, labels[:])
	return out
}

// SupportedLocale reports whether MonthLabels knows the locale.
func SupportedLocale(locale string) bool {
	_, ok := monthLabels[strings.ToLower(strings.TrimSpace(locale))]
	return ok
}
