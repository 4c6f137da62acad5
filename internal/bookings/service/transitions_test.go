package service

import (
	"testing"

	"appointly/pkg/model"
)

func TestCanTransition_AllowsEveryPair(t *testing.T) {
	for _, from := range model.BookingStatuses {
		for _, to := range model.BookingStatuses {
			if !CanTransition(from, to) {
				t.Errorf("expected %s -> %s to be allowed", from, to)
			}
		}
	}
}

func TestCanTransition_UnknownStatus(t *testing.T) {
	if CanTransition("archived", model.StatusPending) {
		t.Error("expected unknown source status to be rejected")
	}
	if CanTransition(model.StatusPending, "archived") {
		t.Error("expected unknown target status to be rejected")
	}
}
