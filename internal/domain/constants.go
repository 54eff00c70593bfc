package domain

// Time format constants
const (
	TimeFormat = "15:04"      // HH:MM
	DateFormat = "2006-01-02" // YYYY-MM-DD
)

// Business validation constants
const (
	MaxNotesLength              = 2000
	MaxCancellationReasonLength = 500
)

// Пометки в текстовых заметках, которые пишет система
const (
	// ConflictNoteMarker помечает платёж, требующий ручного разбора (возврат или замена авто)
	ConflictNoteMarker = "[CONFLICT]"
	// AutoCancelNoteMarker помечает бронь, отменённую из-за оплаты конкурирующей брони
	AutoCancelNoteMarker = "[AUTO-CANCELLED]"
)

// SlotHoldingProgress статусы оплаты, при которых бронь защищает свой период
var SlotHoldingProgress = []PaymentProgress{
	ProgressPartial,
	ProgressPaid,
}
