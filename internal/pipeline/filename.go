package pipeline

import (
	"fmt"
	"strings"
)

// translitTable maps Polish diacritics to their closest ASCII letters.
// Input is uppercased before the table is applied, so only uppercase
// entries are needed.
var translitTable = map[rune]rune{
	'Ą': 'A',
	'Ć': 'C',
	'Ę': 'E',
	'Ł': 'L',
	'Ń': 'N',
	'Ó': 'O',
	'Ś': 'S',
	'Ż': 'Z',
	'Ź': 'Z',
}

// droppedChars are deleted outright, with no substitution.
var droppedChars = map[rune]struct{}{
	'.':  {},
	' ':  {},
	'\\': {},
	'/':  {},
	'\n': {},
}

// GenerateFileName derives the canonical, filesystem-safe name for a renamed
// invoice file: {year}-{month}-{VENDOR}-{NUMBER}.pdf.
func GenerateFileName(year, month, vendorName, invoiceNumber string) string {
	return fmt.Sprintf("%s-%s-%s-%s.pdf", year, month, transliterate(vendorName), transliterate(invoiceNumber))
}

func transliterate(text string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(text) {
		if _, drop := droppedChars[r]; drop {
			continue
		}
		if ascii, ok := translitTable[r]; ok {
			r = ascii
		}
		b.WriteRune(r)
	}
	return b.String()
}
