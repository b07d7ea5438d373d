package domain

type WorkingHoursMode string

const (
	WorkingHoursSimple   WorkingHoursMode = "simple"
	WorkingHoursAdvanced WorkingHoursMode = "advanced"
)

// LocationSettings is per-location configuration owned by an external
// collaborator; the engine treats it as read-only input. Time values are
// time-of-day strings in HH:MM or HH:MM:SS form.
type LocationSettings struct {
	LocationID        int64            `json:"location_id"`
	OpeningTime       string           `json:"opening_time"`
	ClosingTime       string           `json:"closing_time"`
	LunchBreakEnabled bool             `json:"lunch_break_enabled"`
	LunchBreakStart   string           `json:"lunch_break_start"`
	LunchBreakEnd     string           `json:"lunch_break_end"`
	MorningShiftStart string           `json:"morning_shift_start"`
	MorningShiftEnd   string           `json:"morning_shift_end"`
	EveningShiftStart string           `json:"evening_shift_start"`
	EveningShiftEnd   string           `json:"evening_shift_end"`
	WorkingHoursMode  WorkingHoursMode `json:"working_hours_mode"`
	TimeSlotInterval  int              `json:"time_slot_interval"`
}

// SlotInterval returns the configured slot interval in minutes,
// falling back to 30 when unset or invalid.
func (s *LocationSettings) SlotInterval() int {
	if s == nil || s.TimeSlotInterval <= 0 {
		return 30
	}
	return s.TimeSlotInterval
}

// LocationStats aggregates booking counts for a location.
type LocationStats struct {
	Total          int `json:"total"`
	Pending        int `json:"pending"`
	Confirmed      int `json:"confirmed"`
	Completed      int `json:"completed"`
	Cancelled      int `json:"cancelled"`
	Today          int `json:"today"`
	TodayPending   int `json:"today_pending"`
	TodayConfirmed int `json:"today_confirmed"`
	TodayCompleted int `json:"today_completed"`
	TodayCancelled int `json:"today_cancelled"`
}
