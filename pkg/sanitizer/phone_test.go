package sanitizer

import (
	"testing"

	"carbroker/pkg/model"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "valid E.164 format",
			input: "+905321234567",
			want:  "+905321234567",
		},
		{
			name:  "with spaces",
			input: "+90 532 123 45 67",
			want:  "+905321234567",
		},
		{
			name:  "turkish national format",
			input: "0532 123 45 67",
			want:  "+905321234567",
		},
		{
			name:  "with parentheses",
			input: "+1 (212) 555-1234",
			want:  "+12125551234",
		},
		{
			name:  "leading and trailing spaces",
			input: "  +905321234567  ",
			want:  "+905321234567",
		},
		{
			name:  "empty string",
			input: "",
			want:  "",
		},
		{
			name:  "only whitespace",
			input: "   ",
			want:  "",
		},
		{
			name:  "too short",
			input: "123",
			want:  "",
		},
		{
			name:  "letters",
			input: "call me",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizePhone(tt.input)
			if got != tt.want {
				t.Errorf("NormalizePhone(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitizeRenter(t *testing.T) {
	r := model.Renter{
		FirstName:    "  Ada ",
		LastName:     "Love   lace",
		Email:        " ADA@example.com",
		Phone:        "0532 123 45 67",
		FlightNumber: "tk 1234",
	}
	SanitizeRenter(&r)

	want := model.Renter{
		FirstName:    "Ada",
		LastName:     "Love lace",
		Email:        "ada@example.com",
		Phone:        "+905321234567",
		Country:      "Turkey",
		FlightNumber: "TK1234",
	}
	if r != want {
		t.Errorf("SanitizeRenter = %+v, want %+v", r, want)
	}
}

func TestSanitizeRenter_KeepsGivenCountry(t *testing.T) {
	r := model.Renter{Phone: "+90 532 123 45 67", Country: " Germany "}
	SanitizeRenter(&r)
	if r.Country != "Germany" {
		t.Errorf("Country = %q, want %q", r.Country, "Germany")
	}
}

func TestSanitizeRenter_KeepsUnparseablePhone(t *testing.T) {
	r := model.Renter{Phone: " 123 "}
	SanitizeRenter(&r)
	if r.Phone != "123" {
		t.Errorf("Phone = %q, want %q", r.Phone, "123")
	}
}
