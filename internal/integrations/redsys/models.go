package redsys

import "time"

// SignatureVersionV1 единственная поддерживаемая версия подписи
const SignatureVersionV1 = "HMAC_SHA256_V1"

// Notification типизированное содержимое Ds_MerchantParameters
//
// Все поля необязательны. Значения по умолчанию:
//   - строки - пустая строка
//   - Amount - 0
//   - TransactionDate - nil, если дата или время не распознаны
//   - HasResponse - false, если Ds_Response отсутствует (классифицируется как OutcomeUnknown)
type Notification struct {
	Order             string
	Response          string
	HasResponse       bool
	Amount            int64 // в минимальных единицах валюты
	Currency          string
	AuthorisationCode string
	TransactionDate   *time.Time
	CardCountry       string
	CardType          string
	CardBrand         string
	SecurePayment     bool
	TransactionType   string
	MerchantCode      string
	Terminal          string
	MerchantData      string // непрозрачные данные мерчанта, возвращаются шлюзом без изменений
}

// Outcome каноничный результат транзакции
type Outcome string

const (
	OutcomeAuthorized Outcome = "authorized"
	OutcomeRefused    Outcome = "refused"
	OutcomeUnknown    Outcome = "unknown"
)
