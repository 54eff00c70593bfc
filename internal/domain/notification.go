package domain

// PaymentMilestone этап оплаты, определяющий шаблон письма
type PaymentMilestone string

const (
	MilestoneFirstPayment PaymentMilestone = "first_payment"
	MilestoneFinalPayment PaymentMilestone = "final_payment"
)

// PaymentConfirmation неизменяемый снимок данных для письма клиенту
// Формируется после фиксации всех изменений в БД
type PaymentConfirmation struct {
	Milestone       PaymentMilestone `json:"milestone"`
	BookingNumber   string           `json:"bookingNumber"`
	CustomerName    string           `json:"customerName"`
	CustomerEmail   string           `json:"customerEmail"`
	VehicleName     string           `json:"vehicleName"`
	PickupDate      string           `json:"pickupDate"`
	DropoffDate     string           `json:"dropoffDate"`
	PickupTime      string           `json:"pickupTime"`
	DropoffTime     string           `json:"dropoffTime"`
	PickupLocation  string           `json:"pickupLocation,omitempty"`
	DropoffLocation string           `json:"dropoffLocation,omitempty"`
	TotalPrice      int64            `json:"totalPrice"`
	PaymentAmount   int64            `json:"paymentAmount"`
	AmountPaid      int64            `json:"amountPaid"`
	AmountRemaining int64            `json:"amountRemaining"`
}
