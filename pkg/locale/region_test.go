package locale

import (
	"testing"
)

func TestForPhone(t *testing.T) {
	tests := []struct {
		name     string
		phone    string
		wantCode string
		wantOK   bool
	}{
		{
			name:     "Israel mobile",
			phone:    "+972541234567",
			wantCode: "IL",
			wantOK:   true,
		},
		{
			name:     "US number",
			phone:    "+12125551234",
			wantCode: "US",
			wantOK:   true,
		},
		{
			name:     "UK number",
			phone:    "+442071234567",
			wantCode: "GB",
			wantOK:   true,
		},
		{
			name:   "missing country code",
			phone:  "972541234567",
			wantOK: false,
		},
		{
			name:   "empty phone",
			phone:  "",
			wantOK: false,
		},
		{
			name:   "invalid phone",
			phone:  "+not-a-phone",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ForPhone(tt.phone)
			if ok != tt.wantOK {
				t.Fatalf("ForPhone(%q) ok = %v, want %v", tt.phone, ok, tt.wantOK)
			}
			if ok && got.Code != tt.wantCode {
				t.Errorf("ForPhone(%q).Code = %q, want %q", tt.phone, got.Code, tt.wantCode)
			}
		})
	}
}

func TestRegionsAreComplete(t *testing.T) {
	for code, r := range Regions {
		if r.Code != code {
			t.Errorf("region %s has code %q", code, r.Code)
		}
		if r.Timezone == "" || len(r.Currency) != 3 {
			t.Errorf("region %s has incomplete defaults: %+v", code, r)
		}
	}
}
