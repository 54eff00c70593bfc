package mailer

import "errors"

var (
	// ErrRecipientRejected возвращается, когда почтовый сервис отклонил адрес получателя
	ErrRecipientRejected = errors.New("mailer client: recipient rejected")

	// ErrInternal возвращается при внутренних ошибках клиента
	ErrInternal = errors.New("mailer client: internal error")

	// ErrInvalidResponse возвращается при некорректном ответе от сервиса
	ErrInvalidResponse = errors.New("mailer client: invalid response")
)
