package service

import "appointly/pkg/model"

// transitions lists the statuses each status may move to. Every pair is currently
// allowed, terminal statuses included; tighten a row here to restrict the lifecycle.
var transitions = map[model.BookingStatus][]model.BookingStatus{
	model.StatusPending:    model.BookingStatuses,
	model.StatusConfirmed:  model.BookingStatuses,
	model.StatusInProgress: model.BookingStatuses,
	model.StatusCompleted:  model.BookingStatuses,
	model.StatusCancelled:  model.BookingStatuses,
	model.StatusNoShow:     model.BookingStatuses,
}

// CanTransition reports whether a booking in status from may be moved to status to.
func CanTransition(from, to model.BookingStatus) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
