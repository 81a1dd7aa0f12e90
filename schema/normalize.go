package schema

import "strings"

// NormalizeOperationKind validates and normalizes a file operation kind.
// Allowed values: create, update, delete.
func NormalizeOperationKind(value string) (OperationKind, error) {
	trimmed := strings.TrimSpace(strings.ToLower(value))
	switch OperationKind(trimmed) {
	case OperationCreate, OperationUpdate, OperationDelete:
		return OperationKind(trimmed), nil
	default:
		return "", ErrUnknownOperation
	}
}

// NormalizeFileStatus validates and normalizes a file status.
// Allowed values: pending, processing, completed, error.
func NormalizeFileStatus(value string) (FileStatus, error) {
	trimmed := strings.TrimSpace(strings.ToLower(value))
	switch FileStatus(trimmed) {
	case StatusPending, StatusProcessing, StatusCompleted, StatusError:
		return FileStatus(trimmed), nil
	default:
		return "", ErrInvalidStatus
	}
}

// StatusRank orders file statuses by lifecycle progress. Terminal states rank
// equal so a completed record is never regressed by a stale update.
func StatusRank(status FileStatus) int {
	switch status {
	case StatusPending:
		return 0
	case StatusProcessing:
		return 1
	case StatusCompleted, StatusError:
		return 2
	default:
		return -1
	}
}

// NormalizePrompt trims a prompt and rejects empty input.
func NormalizePrompt(prompt string) (string, error) {
	trimmed := strings.TrimSpace(prompt)
	if trimmed == "" {
		return "", ErrEmptyPrompt
	}
	return trimmed, nil
}
