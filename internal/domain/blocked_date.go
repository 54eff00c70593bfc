package domain

import "time"

// BlockedDate административная блокировка автомобиля (ТО, личное использование владельца)
type BlockedDate struct {
	ID        int64
	VehicleID int64
	StartDate time.Time
	EndDate   time.Time
	Reason    *string
}

func (b *BlockedDate) Period() DateRange {
	return DateRange{Start: b.StartDate, End: b.EndDate}
}
