package common

// MaskIdentifier redacts a username or client id for audit logging. The
// first two characters survive; everything else is replaced. Credentials
// and hashes are never logged at all, masked or otherwise.
func MaskIdentifier(id string) string {
	if id == "" {
		return ""
	}
	if len(id) <= 2 {
		return "***"
	}
	return id[:2] + "***"
}
