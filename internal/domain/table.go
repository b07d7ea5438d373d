package domain

import "time"

type TableStatus string

const (
	TableAvailable TableStatus = "available"
	TableOccupied  TableStatus = "occupied"
	TableCleaning  TableStatus = "cleaning"
	TableReserved  TableStatus = "reserved"
)

func ParseTableStatus(s string) (TableStatus, bool) {
	switch TableStatus(s) {
	case TableAvailable, TableOccupied, TableCleaning, TableReserved:
		return TableStatus(s), true
	default:
		return "", false
	}
}

type Table struct {
	ID              int64       `json:"id"`
	LocationID      int64       `json:"location_id"`
	TableNumber     int         `json:"table_number"`
	Capacity        int         `json:"capacity"`
	IsAvailable     bool        `json:"is_available"`
	CurrentStatus   TableStatus `json:"current_status"`
	StatusUpdatedAt *time.Time  `json:"status_updated_at,omitempty"`
	LastBookingID   *int64      `json:"last_booking_id,omitempty"`
}
