package locale

import (
	"testing"
)

func TestInferCountryFromPhone(t *testing.T) {
	tests := []struct {
		name     string
		phone    string
		wantCode string
		wantNil  bool
	}{
		{name: "Turkish mobile", phone: "+905321234567", wantCode: "TR"},
		{name: "German number", phone: "+4915112345678", wantCode: "DE"},
		{name: "UK number", phone: "+442071234567", wantCode: "GB"},
		{name: "Azerbaijan beats a shorter prefix", phone: "+994501234567", wantCode: "AZ"},
		{name: "US number", phone: "+12125551234", wantCode: "US"},
		{name: "unknown calling code", phone: "+972541234567", wantNil: true},
		{name: "national format", phone: "05321234567", wantNil: true},
		{name: "empty phone", phone: "", wantNil: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := InferCountryFromPhone(tt.phone)
			if tt.wantNil {
				if got != nil {
					t.Errorf("InferCountryFromPhone(%q) = %v, want nil", tt.phone, got)
				}
				return
			}
			if got == nil {
				t.Fatalf("InferCountryFromPhone(%q) = nil, want %s", tt.phone, tt.wantCode)
			}
			if got.Code != tt.wantCode {
				t.Errorf("InferCountryFromPhone(%q).Code = %s, want %s", tt.phone, got.Code, tt.wantCode)
			}
		})
	}
}
