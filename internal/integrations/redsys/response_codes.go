package redsys

import (
	"fmt"
	"strconv"
	"strings"
)

// Диапазон кодов успешной авторизации платежа: 0000-0099
const (
	minAuthorizedCode = 0
	maxAuthorizedCode = 99
)

// refusalDescriptions документированные коды отказа
var refusalDescriptions = map[int]string{
	101:  "Expired card",
	102:  "Card temporarily suspended or suspected fraud",
	104:  "Operation not allowed for this card or terminal",
	116:  "Insufficient funds",
	118:  "Card not registered",
	125:  "Card not effective",
	129:  "Wrong security code (CVV2/CVC2)",
	167:  "Suspected fraud",
	180:  "Card not supported by the service",
	184:  "Cardholder authentication error",
	190:  "Refused without specific reason",
	191:  "Wrong expiry date",
	195:  "Requires SCA authentication",
	202:  "Card temporarily suspended or suspected fraud, card withdrawal",
	904:  "Merchant not registered at FUC",
	909:  "System error",
	912:  "Issuer not available",
	913:  "Duplicated order",
	944:  "Wrong session",
	950:  "Refund operation not allowed",
	9064: "Wrong number of card positions",
	9078: "Operation type not allowed for this card",
	9093: "Card does not exist",
	9094: "International servers rejection",
	9104: "Merchant with secure owner and owner without secure purchase key",
	9218: "Merchant does not allow secure operations by entry",
	9253: "Card does not comply with check-digit",
	9256: "Merchant cannot perform pre-authorizations",
	9257: "Card does not allow pre-authorizations",
	9261: "Operation stopped for exceeding SIS restriction control",
	9912: "Issuer not available",
	9915: "Payment cancelled by the user",
	9997: "Another transaction with the same card is being processed",
	9998: "Operation in card data request process",
	9999: "Operation redirected to issuer for authentication",
}

// Classify сопоставляет код ответа шлюза каноничному результату
// Пустой код - OutcomeUnknown. Любой код вне 0000-0099, включая отрицательные
// и нечисловые значения, - OutcomeRefused
func Classify(code string) Outcome {
	code = strings.TrimSpace(code)
	if code == "" {
		return OutcomeUnknown
	}

	n, ok := parseCode(code)
	if !ok {
		return OutcomeRefused
	}

	if n >= minAuthorizedCode && n <= maxAuthorizedCode {
		return OutcomeAuthorized
	}
	return OutcomeRefused
}

// Describe возвращает человекочитаемое описание кода для заметок к платежу
func Describe(code string) string {
	code = strings.TrimSpace(code)
	switch Classify(code) {
	case OutcomeUnknown:
		return "No response code received"
	case OutcomeAuthorized:
		return fmt.Sprintf("Authorized transaction (code %s)", code)
	}

	if n, ok := parseCode(code); ok {
		if desc, found := refusalDescriptions[n]; found {
			return fmt.Sprintf("Refused: %s (code %s)", desc, code)
		}
	}
	return fmt.Sprintf("Refused transaction (code %s)", code)
}

// IsDocumentedRefusal true, если код есть в таблице документированных отказов
func IsDocumentedRefusal(code string) bool {
	n, ok := parseCode(strings.TrimSpace(code))
	if !ok {
		return false
	}
	_, found := refusalDescriptions[n]
	return found
}

// parseCode принимает только строки из цифр (допускаются ведущие нули)
func parseCode(code string) (int, bool) {
	if code == "" {
		return 0, false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(code)
	if err != nil {
		return 0, false
	}
	return n, true
}
