package provider

// Masking and truncation helpers shared by the channel providers. Masked
// forms are the only representations that may reach logs or diagnostic
// metadata.

const ellipsis = "..."

// truncate shortens s to at most max characters, replacing the tail with an
// ellipsis when it does not fit.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-len(ellipsis)]) + ellipsis
}

// maskPhone keeps the first two and last two characters of a phone number.
func maskPhone(phone string) string {
	if len(phone) < 4 {
		return "****"
	}
	return phone[:2] + "****" + phone[len(phone)-2:]
}

// maskToken keeps the first four and last four characters of a device token.
func maskToken(token string) string {
	if len(token) < 8 {
		return "****"
	}
	return token[:4] + "****" + token[len(token)-4:]
}

func digitCount(s string) int {
	count := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			count++
		}
	}
	return count
}
