package process_payment_notification

import (
	"github.com/m04kA/SMC-PaymentService/internal/domain"
	"github.com/m04kA/SMC-PaymentService/internal/integrations/redsys"
)

// Source канал, по которому пришло уведомление
type Source string

const (
	SourceWebhook   Source = "webhook"    // серверное уведомление шлюза
	SourceReturnURL Source = "return_url" // параметры, вернувшиеся вместе с браузером клиента
)

// Request сырое уведомление шлюза
type Request struct {
	SignatureVersion   string // Ds_SignatureVersion
	MerchantParameters string // Ds_MerchantParameters
	Signature          string // Ds_Signature
	Source             Source
}

// Disposition итог обработки уведомления
type Disposition string

const (
	DispositionConfirmed    Disposition = "confirmed"     // первая оплата, бронь подтверждена
	DispositionApplied      Disposition = "applied"       // оплата зачтена в уже подтверждённую бронь
	DispositionConflict     Disposition = "conflict"      // деньги получены, бронь не подтверждена, нужен администратор
	DispositionRecorded     Disposition = "recorded"      // отказ или ошибка записаны в платёж
	DispositionDuplicate    Disposition = "duplicate"     // повторная доставка уже записанного результата
	DispositionIgnored      Disposition = "ignored"       // поздний отказ по уже проведённой оплате
	DispositionUnknownOrder Disposition = "unknown_order" // платёж с таким номером заказа не найден
	DispositionFailed       Disposition = "failed"        // ошибка БД, требуется ручная сверка
)

// Result итог обработки уведомления
type Result struct {
	OrderNumber  string
	Outcome      redsys.Outcome
	Disposition  Disposition
	Payment      *domain.Payment // nil для неизвестного заказа
	Booking      *domain.Booking // состояние брони после обработки, nil если прочитать не удалось
	SweptCount   int             // сколько неоплаченных броней отменено
	Notification *redsys.Notification
}
