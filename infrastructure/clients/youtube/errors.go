package youtube

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/naoterumaker/youtube-transcriber/domain/model"
	"github.com/naoterumaker/youtube-transcriber/infrastructure/credential"

	"google.golang.org/api/googleapi"
)

// quotaReasons are the googleapi error reasons the Data API uses for exhausted keys.
var quotaReasons = map[string]bool{
	"quotaExceeded":         true,
	"dailyLimitExceeded":    true,
	"rateLimitExceeded":     true,
	"userRateLimitExceeded": true,
}

// Classify maps a Data API failure onto the invoker's retry classes.
//
// This mirrors how the Data API reports exhaustion today: HTTP 403 (with one
// of quotaReasons, or a forbidden key) and 429. When the error has lost its
// *googleapi.Error the message is sniffed for "quota", "exceeded" and "403".
// Revisit when the API changes its error surface.
func Classify(err error) credential.Class {
	if err == nil {
		return credential.ClassFatal
	}
	if errors.Is(err, model.ErrVideoNotFound) || errors.Is(err, model.ErrChannelNotFound) {
		return credential.ClassFatal
	}
	if errors.Is(err, model.ErrQuotaExceeded) {
		return credential.ClassQuota
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		for _, item := range gerr.Errors {
			if quotaReasons[item.Reason] {
				return credential.ClassQuota
			}
		}
		switch {
		case gerr.Code == http.StatusForbidden, gerr.Code == http.StatusTooManyRequests:
			return credential.ClassQuota
		case gerr.Code >= http.StatusInternalServerError:
			return credential.ClassTransient
		default:
			return credential.ClassFatal
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return credential.ClassTransient
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return credential.ClassTransient
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "quota") || strings.Contains(msg, "exceeded") || strings.Contains(msg, "403") {
		return credential.ClassQuota
	}
	return credential.ClassFatal
}
