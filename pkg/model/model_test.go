package model

import (
	"encoding/json"
	"testing"
	"time"
)

func TestBookingStatus(t *testing.T) {
	tests := []struct {
		status   BookingStatus
		valid    bool
		terminal bool
	}{
		{StatusPending, true, false},
		{StatusConfirmed, true, false},
		{StatusInProgress, true, false},
		{StatusCompleted, true, true},
		{StatusCancelled, true, true},
		{StatusNoShow, true, true},
		{"archived", false, false},
		{"", false, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := tt.status.Valid(); got != tt.valid {
				t.Errorf("Valid() = %v, want %v", got, tt.valid)
			}
			if got := tt.status.Terminal(); got != tt.terminal {
				t.Errorf("Terminal() = %v, want %v", got, tt.terminal)
			}
		})
	}
}

func TestRole_Valid(t *testing.T) {
	for _, r := range []Role{RoleAdmin, RoleTenant, RoleServiceProvider, RoleCustomer} {
		if !r.Valid() {
			t.Errorf("%q should be valid", r)
		}
	}
	if Role("owner").Valid() {
		t.Error("unknown role reported valid")
	}
}

func TestDiscount_ActiveAt(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	before := now.Add(-time.Hour)
	after := now.Add(time.Hour)

	tests := []struct {
		name     string
		discount Discount
		want     bool
	}{
		{"open window", Discount{}, true},
		{"started", Discount{ValidFrom: &before}, true},
		{"not started", Discount{ValidFrom: &after}, false},
		{"expired", Discount{ValidUntil: &before}, false},
		{"inside window", Discount{ValidFrom: &before, ValidUntil: &after}, true},
		{"bounds inclusive", Discount{ValidFrom: &now, ValidUntil: &now}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.discount.ActiveAt(now); got != tt.want {
				t.Errorf("ActiveAt() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestService_Lookups(t *testing.T) {
	s := &Service{
		Providers:  []string{"p1", "p2"},
		Variations: []QualityVariation{{Name: "premium", PriceModifier: 20, DurationModifier: 15}},
	}

	if !s.HasProvider("p2") || s.HasProvider("p3") {
		t.Error("HasProvider mismatch")
	}
	v, ok := s.Variation("premium")
	if !ok || v.PriceModifier != 20 {
		t.Errorf("Variation(premium) = %+v, %v", v, ok)
	}
	if _, ok := s.Variation("Premium"); ok {
		t.Error("variation lookup must be exact")
	}
}

func TestRoundCents(t *testing.T) {
	tests := map[float64]float64{
		10:      10,
		33.3333: 33.33,
		12.349:  12.35,
		-0.004:  0,
	}
	for in, want := range tests {
		if got := RoundCents(in); got != want {
			t.Errorf("RoundCents(%v) = %v, want %v", in, got, want)
		}
	}
}

func TestPrincipal_Profiles(t *testing.T) {
	p := &Principal{Role: RoleServiceProvider}
	p.EnsureProfile()
	if p.Provider == nil || p.Customer != nil || p.Admin != nil {
		t.Fatalf("EnsureProfile() for provider = %+v", p)
	}
	if !p.ProfileMatchesRole() {
		t.Error("provider profile should match role")
	}

	p.Customer = &CustomerProfile{}
	if p.ProfileMatchesRole() {
		t.Error("provider carrying a customer profile must not match")
	}

	c := &Principal{Role: RoleCustomer}
	c.EnsureProfile()
	if c.Customer == nil || !c.Customer.Preferences.NotifyEmail {
		t.Errorf("customer defaults = %+v", c.Customer)
	}

	if (&Principal{Role: RoleTenant}).ProfileMatchesRole() {
		t.Error("tenant role is not a principal role")
	}
}

func TestGeoPoint(t *testing.T) {
	p := NewGeoPoint(32.08, 34.78)
	if p.Lat() != 32.08 || p.Lng() != 34.78 {
		t.Errorf("Lat/Lng = %v/%v", p.Lat(), p.Lng())
	}

	raw, err := json.Marshal(p)
	if err != nil {
		t.Fatal(err)
	}
	if string(raw) != `{"type":"Point","coordinates":[34.78,32.08]}` {
		t.Errorf("GeoJSON = %s", raw)
	}

	var nilPoint *GeoPoint
	if nilPoint.Lat() != 0 || nilPoint.Lng() != 0 {
		t.Error("nil point must report zero coordinates")
	}
}

func TestTenant_PublicHidesPrivateFields(t *testing.T) {
	tenant := &Tenant{ID: "t1", Name: "Glow", Subdomain: "glow", Email: "owner@glow.com", PasswordHash: "hash"}

	raw, err := json.Marshal(tenant.Public())
	if err != nil {
		t.Fatal(err)
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		t.Fatal(err)
	}
	for _, hidden := range []string{"email", "password_hash", "subscription", "is_active"} {
		if _, ok := fields[hidden]; ok {
			t.Errorf("public tenant exposes %q", hidden)
		}
	}
	if fields["subdomain"] != "glow" {
		t.Errorf("subdomain = %v", fields["subdomain"])
	}
}
