package youtube

import (
	"errors"
	"strings"

	"google.golang.org/api/googleapi"
)

// ErrQuotaExceeded indicates the current API credential is exhausted. It is
// fatal to the run: the caller retries with a different credential, and the
// checkpoints make the retry idempotent.
var ErrQuotaExceeded = errors.New("youtube API quota exceeded")

// IsQuotaExceeded reports whether an error is a quota/credential-exhaustion
// failure from the YouTube Data API.
func IsQuotaExceeded(err error) bool {
	if errors.Is(err, ErrQuotaExceeded) {
		return true
	}

	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return false
	}
	if gerr.Code != 403 {
		return false
	}
	for _, item := range gerr.Errors {
		if strings.Contains(item.Reason, "quota") {
			return true
		}
	}
	return strings.Contains(strings.ToLower(gerr.Message), "quota")
}
