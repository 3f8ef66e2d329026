package pipeline

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/rs/zerolog/log"
)

// Warning vocabulary. Accumulation order always matches check order:
// date, net presence, VAT presence, gross consistency, tax-id activity.
const (
	WarnDateUnparsable = "date could not be parsed"
	WarnDateCorrected  = "date inconsistent with invoice month, auto-corrected, please verify"
	WarnDateMismatch   = "date inconsistent with invoice month"
	WarnMissingNet     = "missing net amount"
	WarnMissingVAT     = "missing VAT amount"
	WarnGrossMismatch  = "gross amount inconsistent with net and VAT"
	WarnTaxIDInactive  = "tax id inactive"
)

// currencyTokens are stripped from amount strings before parsing.
var currencyTokens = []string{"PLN", "zł", "zl"}

var nonNumericRe = regexp.MustCompile(`[^0-9.]`)

// monthNames lists Polish month-name tokens with their numeric equivalent.
// Genitive forms are what invoices actually print; nominative forms show up
// in stamps and headers. Substitution runs in slice order, so the genitive
// forms must come first: "maj", "październik" and "listopad" are prefixes of
// their genitive counterparts and would otherwise clobber them.
var monthNames = []struct {
	name   string
	number string
}{
	{"stycznia", "01"},
	{"lutego", "02"},
	{"marca", "03"},
	{"kwietnia", "04"},
	{"maja", "05"},
	{"czerwca", "06"},
	{"lipca", "07"},
	{"sierpnia", "08"},
	{"września", "09"},
	{"października", "10"},
	{"listopada", "11"},
	{"grudnia", "12"},
	{"styczeń", "01"},
	{"luty", "02"},
	{"marzec", "03"},
	{"kwiecień", "04"},
	{"maj", "05"},
	{"czerwiec", "06"},
	{"lipiec", "07"},
	{"sierpień", "08"},
	{"wrzesień", "09"},
	{"październik", "10"},
	{"listopad", "11"},
	{"grudzień", "12"},
}

// dateLayouts are tried in order before falling back to lenient parsing.
// Day-first layouts come first because Polish invoices are day-first.
var dateLayouts = []string{
	"2006-01-02",
	"02.01.2006",
	"2.01.2006",
	"02/01/2006",
	"02-01-2006",
	"02 01 2006",
	"2 01 2006",
	"2006.01.02",
	"2006/01/02",
	"02.01.06",
}

// ParseAmount converts a loosely formatted currency string into a number.
// Currency tokens and whitespace are stripped, a decimal comma becomes a
// decimal point, and any other non-numeric character is dropped. A string
// that still fails to parse is logged and yields 0; amount parsing must
// never abort the batch.
func ParseAmount(text string) float64 {
	s := text
	for _, token := range currencyTokens {
		s = strings.ReplaceAll(s, token, "")
	}
	s = strings.Join(strings.Fields(s), "")
	s = strings.ReplaceAll(s, ",", ".")
	s = nonNumericRe.ReplaceAllString(s, "")

	value, err := strconv.ParseFloat(s, 64)
	if err != nil {
		log.Warn().Str("text", text).Msg("could not convert amount to number")
		return 0
	}
	return value
}

// ParseInvoiceDate normalizes an extracted invoice date against the expected
// billing month. It returns the canonical YYYY-MM-DD form, or the original
// string when parsing fails, plus a warning (empty when the date is clean).
//
// When the parsed month disagrees with expectedMonth but the parsed day
// equals it, the day and month are assumed transposed and the output swaps
// them back, which intentionally yields a YYYY-DD-MM formatted string.
func ParseInvoiceDate(text, expectedMonth string) (string, string) {
	s := text
	for _, month := range monthNames {
		s = strings.ReplaceAll(s, month.name, month.number)
	}

	date, err := parseLenientDate(s)
	if err != nil {
		return text, WarnDateUnparsable
	}

	if date.Format("01") != expectedMonth {
		if date.Format("02") == expectedMonth {
			return date.Format("2006-02-01"), WarnDateCorrected
		}
		return date.Format("2006-01-02"), WarnDateMismatch
	}

	return date.Format("2006-01-02"), ""
}

// parseLenientDate tries the known invoice layouts first, then hands the
// string to dateparse, preferring day-first interpretation of ambiguous
// dates.
func parseLenientDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if date, err := time.Parse(layout, s); err == nil {
			return date, nil
		}
	}
	return dateparse.ParseAny(s, dateparse.PreferMonthFirst(false))
}
