package event

const OTPDeliveryDestination string = "otp_delivery"
const OTPDeliveryConsumerNotification string = "otp_delivery_notification"

// KeyOfCorrelationID is the message header carrying the request correlation id.
const KeyOfCorrelationID string = "cID"

type OTPDeliveryMessage struct {
	Phone       string `json:"phone"`
	Message     string `json:"message"`
	RequestedAt int64  `json:"requested_at"`
}
