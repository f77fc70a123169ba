package model

// ItemType тип элемента расписания
type ItemType string

const (
	ItemTypeClass        ItemType = "class"
	ItemTypeAvailability ItemType = "availability"
)

// AgendaItem - производная запись календаря, никогда не сохраняется
type AgendaItem struct {
	ID   int64    `json:"id"`
	Name string   `json:"name"`
	Time string   `json:"time"` // "HH:mm - HH:mm"
	Type ItemType `json:"type"`
	Day  string   `json:"day"` // YYYY-MM-DD

	// Ссылка на исходную сущность (заполнено ровно одно поле)
	Class        *ClassDefinition  `json:"class,omitempty"`
	Availability *AvailabilitySlot `json:"availability,omitempty"`
}

// StartTime возвращает время начала в формате HH:mm
func (i AgendaItem) StartTime() string {
	if len(i.Time) < 5 {
		return i.Time
	}
	return i.Time[:5]
}

// Agenda - расписание, сгруппированное по датам (YYYY-MM-DD)
type Agenda map[string][]AgendaItem
