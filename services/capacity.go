package services

import "github.com/Dosada05/venue-system/models"

// hasCapacityLimit: лимит действует только при showCapacity и положительном maxAttendees.
func hasCapacityLimit(event *models.Event) bool {
	return event.ShowCapacity && event.MaxAttendees != nil && *event.MaxAttendees > 0
}

// CountNamedParticipants считает дополнительных участников с непустым именем.
func CountNamedParticipants(additional []models.AdditionalParticipant) int {
	return models.NamedCount(additional)
}

// CanAdmit: помещается ли регистрация с namedAdditional дополнительными участниками.
// currentCount: уже зарегистрированное число участников.
func CanAdmit(event *models.Event, currentCount, namedAdditional int) bool {
	if !hasCapacityLimit(event) {
		return true
	}
	return currentCount+1+namedAdditional <= *event.MaxAttendees
}

// RemainingCapacity возвращает nil для событий без ограничения.
func RemainingCapacity(event *models.Event, currentCount int) *int {
	if !hasCapacityLimit(event) {
		return nil
	}
	remaining := *event.MaxAttendees - currentCount
	if remaining < 0 {
		remaining = 0
	}
	return &remaining
}

func annotateCapacity(event *models.Event, currentCount int) {
	event.AttendeeCount = currentCount
	event.RemainingCapacity = RemainingCapacity(event, currentCount)
}
