package redsys

import "errors"

var (
	// ErrMalformedParameters возвращается, когда Ds_MerchantParameters не декодируется
	ErrMalformedParameters = errors.New("redsys: malformed merchant parameters")

	// ErrUnsupportedSignatureVersion возвращается для неизвестной версии подписи
	ErrUnsupportedSignatureVersion = errors.New("redsys: unsupported signature version")

	// ErrInvalidSignature возвращается, когда подпись не совпала
	ErrInvalidSignature = errors.New("redsys: invalid signature")

	// ErrInvalidSecret возвращается при некорректном секретном ключе терминала
	ErrInvalidSecret = errors.New("redsys: invalid merchant secret")
)
