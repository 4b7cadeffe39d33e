package email

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Locale holds what template entries need to pull a date out of prose:
// a month-name table and the word-order pattern the language uses. Dates
// embedded in email prose carry no timezone, so callers must always match
// the parsed day plus or minus one day (see DateCandidates).
type Locale struct {
	Tag     language.Tag
	Months  []string       // 12 names; empty for numeric-month languages
	Pattern *regexp.Regexp // named groups: day, month, year
}

var folder = cases.Fold()

// monthIndex resolves a prose month name to 1..12, tolerating
// abbreviations by case-folded prefix match. Returns 0 when unknown.
func (l *Locale) monthIndex(name string) int {
	folded := folder.String(strings.TrimRight(name, "."))
	for i, month := range l.Months {
		m := folder.String(month)
		if strings.HasPrefix(m, folded) || strings.HasPrefix(folded, m) {
			return i + 1
		}
	}
	return 0
}

// ParseDate extracts the first prose date from text as a UTC midnight time.
func (l *Locale) ParseDate(text string) (time.Time, bool) {
	match := l.Pattern.FindStringSubmatch(text)
	if match == nil {
		return time.Time{}, false
	}

	groups := make(map[string]string)
	for i, name := range l.Pattern.SubexpNames() {
		if name != "" && i < len(match) {
			groups[name] = match[i]
		}
	}

	day, err := strconv.Atoi(groups["day"])
	if err != nil {
		return time.Time{}, false
	}
	year, err := strconv.Atoi(groups["year"])
	if err != nil {
		return time.Time{}, false
	}
	// Thai templates carry Buddhist-era years.
	if year > 2400 {
		year -= 543
	}

	var month int
	if m, err := strconv.Atoi(groups["month"]); err == nil {
		month = m
	} else {
		month = l.monthIndex(groups["month"])
	}
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}

	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), true
}

// DateCandidates returns the parsed day and both neighbors. The email's
// embedded date is in an unknown local timezone while tracked submission
// days are UTC, so matching must test all three.
func DateCandidates(t time.Time) []time.Time {
	return []time.Time{t.AddDate(0, 0, -1), t, t.AddDate(0, 0, 1)}
}

// Word-order patterns shared by several languages.
var (
	// "January 2, 2024"
	patternMonthFirst = regexp.MustCompile(`(?P<month>\p{L}+\.?)\s+(?P<day>\d{1,2}),?\s+(?P<year>\d{4})`)
	// "2. Januar 2024" / "2 janvier 2024" / "2 de enero de 2024"
	patternDayFirst = regexp.MustCompile(`(?P<day>\d{1,2})\.?(?:\s+de)?\s+(?P<month>\p{L}+\.?)(?:\s+de)?\s+(?P<year>\d{4})`)
	// "2024年1月2日" / "2024년 1월 2일"
	patternCJK = regexp.MustCompile(`(?P<year>\d{4})\s*[年년]\s*(?P<month>\d{1,2})\s*[月월]\s*(?P<day>\d{1,2})\s*[日일]?`)
)

var locales = map[string]*Locale{
	"en": {
		Tag:     language.English,
		Months:  []string{"january", "february", "march", "april", "may", "june", "july", "august", "september", "october", "november", "december"},
		Pattern: patternMonthFirst,
	},
	"de": {
		Tag:     language.German,
		Months:  []string{"Januar", "Februar", "März", "April", "Mai", "Juni", "Juli", "August", "September", "Oktober", "November", "Dezember"},
		Pattern: patternDayFirst,
	},
	"es": {
		Tag:     language.Spanish,
		Months:  []string{"enero", "febrero", "marzo", "abril", "mayo", "junio", "julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre"},
		Pattern: patternDayFirst,
	},
	"fr": {
		Tag:     language.French,
		Months:  []string{"janvier", "février", "mars", "avril", "mai", "juin", "juillet", "août", "septembre", "octobre", "novembre", "décembre"},
		Pattern: patternDayFirst,
	},
	"it": {
		Tag:     language.Italian,
		Months:  []string{"gennaio", "febbraio", "marzo", "aprile", "maggio", "giugno", "luglio", "agosto", "settembre", "ottobre", "novembre", "dicembre"},
		Pattern: patternDayFirst,
	},
	"nl": {
		Tag:     language.Dutch,
		Months:  []string{"januari", "februari", "maart", "april", "mei", "juni", "juli", "augustus", "september", "oktober", "november", "december"},
		Pattern: patternDayFirst,
	},
	"pt": {
		Tag:     language.Portuguese,
		Months:  []string{"janeiro", "fevereiro", "março", "abril", "maio", "junho", "julho", "agosto", "setembro", "outubro", "novembro", "dezembro"},
		Pattern: patternDayFirst,
	},
	"ru": {
		Tag:     language.Russian,
		Months:  []string{"января", "февраля", "марта", "апреля", "мая", "июня", "июля", "августа", "сентября", "октября", "ноября", "декабря"},
		Pattern: patternDayFirst,
	},
	"sv": {
		Tag:     language.Swedish,
		Months:  []string{"januari", "februari", "mars", "april", "maj", "juni", "juli", "augusti", "september", "oktober", "november", "december"},
		Pattern: patternDayFirst,
	},
	"pl": {
		Tag:     language.Polish,
		Months:  []string{"stycznia", "lutego", "marca", "kwietnia", "maja", "czerwca", "lipca", "sierpnia", "września", "października", "listopada", "grudnia"},
		Pattern: patternDayFirst,
	},
	"cs": {
		Tag:     language.Czech,
		Months:  []string{"ledna", "února", "března", "dubna", "května", "června", "července", "srpna", "září", "října", "listopadu", "prosince"},
		Pattern: patternDayFirst,
	},
	"th": {
		Tag:     language.Thai,
		Months:  []string{"มกราคม", "กุมภาพันธ์", "มีนาคม", "เมษายน", "พฤษภาคม", "มิถุนายน", "กรกฎาคม", "สิงหาคม", "กันยายน", "ตุลาคม", "พฤศจิกายน", "ธันวาคม"},
		Pattern: patternDayFirst,
	},
	"ja": {
		Tag:     language.Japanese,
		Pattern: patternCJK,
	},
	"ko": {
		Tag:     language.Korean,
		Pattern: patternCJK,
	},
	"zh": {
		Tag:     language.Chinese,
		Pattern: patternCJK,
	},
}

// LocaleFor returns the locale table for a language code.
func LocaleFor(code string) *Locale {
	return locales[code]
}
