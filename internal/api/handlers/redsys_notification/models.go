package redsys_notification

import (
	"net/http"
	"strings"

	"github.com/m04kA/SMC-PaymentService/internal/usecase/process_payment_notification"
)

// Поля формы уведомления шлюза
const (
	fieldSignatureVersion   = "Ds_SignatureVersion"
	fieldMerchantParameters = "Ds_MerchantParameters"
	fieldSignature          = "Ds_Signature"
)

// AckResponse подтверждение получения уведомления
type AckResponse struct {
	Status string `json:"status"`
}

var ack = AckResponse{Status: "ok"}

// requestFromForm извлекает поля уведомления из разобранной формы
func requestFromForm(r *http.Request) *process_payment_notification.Request {
	return &process_payment_notification.Request{
		SignatureVersion:   strings.TrimSpace(r.PostFormValue(fieldSignatureVersion)),
		MerchantParameters: restorePlus(r.PostFormValue(fieldMerchantParameters)),
		Signature:          restorePlus(r.PostFormValue(fieldSignature)),
		Source:             process_payment_notification.SourceWebhook,
	}
}

// restorePlus возвращает '+', превращённый в пробел при неэкранированной отправке формы
// В base64 пробелов не бывает
func restorePlus(v string) string {
	return strings.ReplaceAll(strings.TrimSpace(v), " ", "+")
}
