package core

import "strings"

// failureTitle maps a transport or generator error to a short user-facing
// heading. Classification is by error text since errors cross process
// boundaries as strings.
func failureTitle(text string) string {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "rate limit") ||
		strings.Contains(lower, "too many requests") ||
		strings.Contains(lower, "429"):
		return "Rate Limit Exceeded"
	case strings.Contains(lower, "timeout") ||
		strings.Contains(lower, "timed out") ||
		strings.Contains(lower, "deadline exceeded"):
		return "Request Timeout"
	case strings.Contains(lower, "connection") ||
		strings.Contains(lower, "no such host") ||
		strings.Contains(lower, "network") ||
		strings.Contains(lower, "refused"):
		return "Network Error"
	default:
		return "Unexpected Error"
	}
}

func failureMessage(text string) string {
	title := failureTitle(text)
	var hint string
	switch title {
	case "Rate Limit Exceeded":
		hint = "The generation service is receiving too many requests. Wait a moment and try again."
	case "Request Timeout":
		hint = "The generation service took too long to respond. Try again with a shorter prompt."
	case "Network Error":
		hint = "Could not reach the generation service. Check your connection and try again."
	default:
		hint = "Something went wrong while generating your app. Please try again."
	}
	return title + ": " + hint + " (" + text + ")"
}
