package process_payment_notification

import "errors"

var (
	// ErrMalformedRequest возвращается, когда уведомление не содержит обязательных полей
	// или параметры не декодируются. Состояние не изменяется
	ErrMalformedRequest = errors.New("process_payment_notification: malformed notification")

	// ErrInvalidSignature возвращается, когда подпись не прошла проверку. Состояние не изменяется
	ErrInvalidSignature = errors.New("process_payment_notification: invalid signature")

	// ErrInternal внутренняя ошибка этапа. Наружу не возвращается, только логируется
	ErrInternal = errors.New("process_payment_notification: internal error")
)
