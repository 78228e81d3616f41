package event

const OTPIssuedDestination string = "otp_issued"
const OTPIssuedDestinationConsumerNotification string = "otp_issued_notification"

// OTPIssuedMessage is published every time a passcode is issued for an account.
type OTPIssuedMessage struct {
	Email        string `json:"email"`
	Code         string `json:"code"`
	ValidMinutes int    `json:"valid_minutes"`
}
