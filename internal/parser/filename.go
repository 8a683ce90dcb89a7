package parser

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Filename heuristics: when the summary sheet does not identify the project
// or period, the file name often does ("PRJ006_MMR_Mar2024.xlsx").

var (
	reProjectFromName = regexp.MustCompile(`(?i)PRJ\d+`)
	reYearFromName    = regexp.MustCompile(`20\d{2}`)
	reMonthFromName   = regexp.MustCompile(`(?i)jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec`)
)

var monthNames = map[string]string{
	"jan": "January", "feb": "February", "mar": "March", "apr": "April",
	"may": "May", "jun": "June", "jul": "July", "aug": "August",
	"sep": "September", "oct": "October", "nov": "November", "dec": "December",
}

// ProjectFromFileName extracts a project code from the file name, checking
// configured aliases before the generic PRJ pattern.
func ProjectFromFileName(fileName string, aliases map[string]string) string {
	base := filepath.Base(fileName)
	for needle, code := range aliases {
		if strings.Contains(strings.ToLower(base), strings.ToLower(needle)) {
			return code
		}
	}
	if m := reProjectFromName.FindString(base); m != "" {
		return strings.ToUpper(m)
	}
	return ""
}

// PeriodFromFileName extracts the reporting month name and year from the
// file name. Missing parts come back as "" and the current year.
func PeriodFromFileName(fileName string) (month string, year int) {
	base := filepath.Base(fileName)
	if m := reMonthFromName.FindString(base); m != "" {
		month = monthNames[strings.ToLower(m)]
	}
	year = time.Now().Year()
	if y := reYearFromName.FindString(base); y != "" {
		year, _ = strconv.Atoi(y)
	}
	return month, year
}

// PeriodFromText extracts month and year from a reporting-period string like
// "March 2024". Fallback order is text first, then file name.
func PeriodFromText(period string) (month string, year int, ok bool) {
	if m := reMonthFromName.FindString(period); m != "" {
		month = monthNames[strings.ToLower(m)]
	}
	if y := reYearFromName.FindString(period); y != "" {
		year, _ = strconv.Atoi(y)
	}
	return month, year, month != "" || year != 0
}
