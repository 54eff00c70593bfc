package payments

import "errors"

var (
	// ErrInvalidInput возвращается при некорректных параметрах пагинации
	ErrInvalidInput = errors.New("invalid input data")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("service: internal error")
)
