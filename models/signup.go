package models

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

type SignupStatus string

const (
	SignupStatusRegistered SignupStatus = "registered"
	SignupStatusAttended   SignupStatus = "attended"
	SignupStatusCancelled  SignupStatus = "cancelled"
	SignupStatusWaitlisted SignupStatus = "waitlisted"
	SignupStatusNoShow     SignupStatus = "no_show"
)

func (s SignupStatus) Valid() bool {
	switch s {
	case SignupStatusRegistered, SignupStatusAttended, SignupStatusCancelled,
		SignupStatusWaitlisted, SignupStatusNoShow:
		return true
	}
	return false
}

type AdditionalParticipant struct {
	Name  string `json:"name"`
	Email string `json:"email" validate:"omitempty,email"`
}

// Named: учитывается ли участник при подсчёте мест.
func (p AdditionalParticipant) Named() bool {
	return strings.TrimSpace(p.Name) != ""
}

// Signup: запись посетителя на событие.
type Signup struct {
	ID                     string                  `json:"id" db:"id"`
	Name                   string                  `json:"name" db:"name"`
	Email                  string                  `json:"email" db:"email"`
	Phone                  string                  `json:"phone" db:"phone"`
	EventID                string                  `json:"eventId" db:"event_id"`
	Notes                  *string                 `json:"notes,omitempty" db:"notes"`
	Status                 SignupStatus            `json:"status" db:"status"`
	AdditionalParticipants []AdditionalParticipant `json:"additionalParticipants" db:"additional_participants"`
	// PartySize: основной участник плюс дополнительные с именем.
	PartySize              int                     `json:"partySize" db:"party_size"`
	CreatedAt              time.Time               `json:"createdAt" db:"created_at"`
	UpdatedAt              time.Time               `json:"updatedAt" db:"updated_at"`
}

// ParticipantList принимает JSON-массив участников или строку с этим массивом
// (так отправляют старые формы регистрации).
type ParticipantList []AdditionalParticipant

func (l *ParticipantList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*l = nil
		return nil
	}
	if data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		if strings.TrimSpace(raw) == "" {
			*l = nil
			return nil
		}
		data = []byte(raw)
	}
	var items []AdditionalParticipant
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	*l = items
	return nil
}

// ParseAdditionalParticipants разбирает сохранённую колонку; битые данные дают пустой список.
func ParseAdditionalParticipants(raw *string) []AdditionalParticipant {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return []AdditionalParticipant{}
	}
	var items []AdditionalParticipant
	if err := json.Unmarshal([]byte(*raw), &items); err != nil {
		return []AdditionalParticipant{}
	}
	return items
}

// NamedCount возвращает число записей с непустым именем.
func NamedCount(items []AdditionalParticipant) int {
	n := 0
	for _, p := range items {
		if p.Named() {
			n++
		}
	}
	return n
}

func EncodeAdditionalParticipants(items []AdditionalParticipant) *string {
	if len(items) == 0 {
		return nil
	}
	b, err := json.Marshal(items)
	if err != nil {
		return nil
	}
	s := string(b)
	return &s
}
