package whatsapp

import "go.mau.fi/whatsmeow/types"

// ParticipantID turns a canonical number into a user JID string
func ParticipantID(phone string) string {
	return types.NewJID(phone, types.DefaultUserServer).String()
}
