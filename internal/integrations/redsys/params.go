package redsys

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Формат даты и времени транзакции в уведомлении (Ds_Date + Ds_Hour)
const transactionTimeLayout = "02/01/2006 15:04"

// gatewayLocation часовой пояс, в котором шлюз сообщает время транзакции
var gatewayLocation = loadLocation("Europe/Madrid")

// DecodeParameters декодирует Ds_MerchantParameters (base64 JSON) в Notification
// Ключи сравниваются без учёта регистра, значения могут быть строками или числами
func DecodeParameters(encoded string) (*Notification, error) {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return nil, fmt.Errorf("%w: empty parameters", ErrMalformedParameters)
	}

	raw, err := decodeBase64(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: base64: %v", ErrMalformedParameters, err)
	}

	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()

	var fields map[string]interface{}
	if err := decoder.Decode(&fields); err != nil {
		return nil, fmt.Errorf("%w: json: %v", ErrMalformedParameters, err)
	}
	if fields == nil {
		return nil, fmt.Errorf("%w: parameters are not an object", ErrMalformedParameters)
	}

	p := make(params, len(fields))
	for k, v := range fields {
		p[strings.ToLower(k)] = v
	}

	n := &Notification{
		Order:             p.str("ds_order"),
		Currency:          p.str("ds_currency"),
		AuthorisationCode: p.str("ds_authorisationcode"),
		CardCountry:       p.str("ds_card_country"),
		CardType:          p.str("ds_card_type"),
		CardBrand:         p.str("ds_card_brand"),
		TransactionType:   p.str("ds_transactiontype"),
		MerchantCode:      p.str("ds_merchantcode"),
		Terminal:          p.str("ds_terminal"),
		MerchantData:      p.unescaped("ds_merchantdata"),
		SecurePayment:     p.str("ds_securepayment") == "1",
	}

	n.Response, n.HasResponse = p.lookup("ds_response")
	n.HasResponse = n.HasResponse && n.Response != ""

	if amount, err := strconv.ParseInt(p.str("ds_amount"), 10, 64); err == nil && amount >= 0 {
		n.Amount = amount
	}

	n.TransactionDate = parseTransactionTime(p.unescaped("ds_date"), p.unescaped("ds_hour"))

	return n, nil
}

// EncodeParameters кодирует параметры так же, как это делает шлюз
// Используется для формирования тестовых уведомлений и запросов на оплату
func EncodeParameters(fields map[string]string) (string, error) {
	raw, err := json.Marshal(fields)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

type params map[string]interface{}

func (p params) lookup(key string) (string, bool) {
	v, ok := p[key]
	if !ok || v == nil {
		return "", false
	}
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val), true
	case json.Number:
		return val.String(), true
	case bool:
		return strconv.FormatBool(val), true
	default:
		return "", false
	}
}

func (p params) str(key string) string {
	v, _ := p.lookup(key)
	return v
}

// unescaped возвращает значение с раскодированными %XX (шлюз экранирует / и :)
func (p params) unescaped(key string) string {
	v := p.str(key)
	if u, err := url.PathUnescape(v); err == nil {
		return u
	}
	return v
}

func parseTransactionTime(date, hour string) *time.Time {
	if date == "" {
		return nil
	}
	if hour == "" {
		hour = "00:00"
	}
	t, err := time.ParseInLocation(transactionTimeLayout, date+" "+hour, gatewayLocation)
	if err != nil {
		return nil
	}
	return &t
}

func decodeBase64(s string) ([]byte, error) {
	encodings := []*base64.Encoding{
		base64.StdEncoding,
		base64.URLEncoding,
		base64.RawStdEncoding,
		base64.RawURLEncoding,
	}
	var lastErr error
	for _, enc := range encodings {
		b, err := enc.DecodeString(s)
		if err == nil {
			return b, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

func loadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}
