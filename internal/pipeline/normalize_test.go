package pipeline

import "testing"

func TestParseAmount(t *testing.T) {
	tests := []struct {
		input string
		want  float64
	}{
		{"1 234,56 PLN", 1234.56},
		{"1234.56", 1234.56},
		{"123,45", 123.45},
		{"2 460,00 zł", 2460},
		{"61,50zl", 61.5},
		{"0", 0},
		// Parse failures must yield 0 instead of an error.
		{"garbage", 0},
		{"", 0},
		{"PLN", 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseAmount(tt.input); got != tt.want {
				t.Errorf("ParseAmount(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseInvoiceDate(t *testing.T) {
	tests := []struct {
		name          string
		input         string
		expectedMonth string
		wantDate      string
		wantWarning   string
	}{
		{
			name:          "canonical, matching month",
			input:         "2024-03-15",
			expectedMonth: "03",
			wantDate:      "2024-03-15",
		},
		{
			name:          "polish month name",
			input:         "15 stycznia 2024",
			expectedMonth: "01",
			wantDate:      "2024-01-15",
		},
		{
			name:          "dotted day-first format",
			input:         "15.03.2024",
			expectedMonth: "03",
			wantDate:      "2024-03-15",
		},
		{
			name:          "transposed day and month",
			input:         "2024-03-15",
			expectedMonth: "15",
			wantDate:      "2024-15-03",
			wantWarning:   WarnDateCorrected,
		},
		{
			name:          "month mismatch without transposition signal",
			input:         "2024-03-15",
			expectedMonth: "07",
			wantDate:      "2024-03-15",
			wantWarning:   WarnDateMismatch,
		},
		{
			name:          "unparsable returns original",
			input:         "brak daty",
			expectedMonth: "03",
			wantDate:      "brak daty",
			wantWarning:   WarnDateUnparsable,
		},
		{
			name:          "polish month name with mismatched month",
			input:         "3 grudnia 2024",
			expectedMonth: "11",
			wantDate:      "2024-12-03",
			wantWarning:   WarnDateMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			date, warning := ParseInvoiceDate(tt.input, tt.expectedMonth)
			if date != tt.wantDate {
				t.Errorf("date = %q, want %q", date, tt.wantDate)
			}
			if warning != tt.wantWarning {
				t.Errorf("warning = %q, want %q", warning, tt.wantWarning)
			}
		})
	}
}

// "maj", "październik" and "listopad" are prefixes of their genitive forms;
// substituting the short form first would leave a stray suffix behind
// ("15 maja" -> "15 05a"). Repeated to catch any order-dependent relapse.
func TestParseInvoiceDate_NominativePrefixCollisions(t *testing.T) {
	tests := []struct {
		input         string
		expectedMonth string
		wantDate      string
	}{
		{"15 maja 2024", "05", "2024-05-15"},
		{"2 października 2024", "10", "2024-10-02"},
		{"7 listopada 2024", "11", "2024-11-07"},
		{"1 maj 2024", "05", "2024-05-01"},
		{"3 listopad 2024", "11", "2024-11-03"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			for i := 0; i < 100; i++ {
				date, warning := ParseInvoiceDate(tt.input, tt.expectedMonth)
				if date != tt.wantDate || warning != "" {
					t.Fatalf("iteration %d: ParseInvoiceDate(%q) = %q, %q; want %q with no warning",
						i, tt.input, date, warning, tt.wantDate)
				}
			}
		})
	}
}
