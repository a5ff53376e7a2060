package security

import (
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"

	"lark/internal/config"
	"lark/internal/database"
	"lark/internal/domain"
)

// Decision is the outcome of the admission pipeline.
type Decision struct {
	Allow  bool
	Reason string
}

var allowDecision = Decision{Allow: true}

func block(reason string) Decision {
	return Decision{Allow: false, Reason: reason}
}

// Admit runs the per-request admission pipeline: active-ban check, request
// tracking, rate-limit evaluation and POST burst detection, in that order.
// Store failures fail open with loud logging: a blog that denies all
// traffic on a transient database error is worse than one that briefly
// under-enforces its rate limit.
func Admit(ip, method, userAgent, uri string) Decision {
	cfg := config.GetConfig()

	banned, ban, err := database.IsBanned(ip)
	if err != nil {
		log.Error("admission: ban lookup failed, failing open", "ip", ip, "error", err)
		return allowDecision
	}
	if banned {
		logEvent(ip, domain.EventBlockedAccess, "Attempted access while banned: "+ban.Reason, userAgent)
		return block("Your IP has been banned due to suspicious activity.")
	}

	if err := database.RecordRequest(ip, method, userAgent, uri, cfg.RequestWindow(), cfg.PostBurstWindow()); err != nil {
		log.Error("admission: request tracking failed, failing open", "ip", ip, "error", err)
		return allowDecision
	}

	count, err := database.CountInWindow(ip, cfg.RequestWindow())
	if err != nil {
		log.Error("admission: rate lookup failed, failing open", "ip", ip, "error", err)
		return allowDecision
	}
	if count > uint64(cfg.Security.RequestLimit) {
		reason := fmt.Sprintf("Rate limit exceeded - %d requests in %s", count, cfg.RequestWindow())
		banIP(ip, reason, userAgent)
		logEvent(ip, domain.EventDDoSDetected, fmt.Sprintf("Banned for %d requests", count), userAgent)
		return block("Too many requests. You have been temporarily banned.")
	}

	if method == http.MethodPost {
		postCount, err := database.PostCountInWindow(ip, cfg.PostBurstWindow())
		if err != nil {
			log.Error("admission: post burst lookup failed, failing open", "ip", ip, "error", err)
			return allowDecision
		}
		if postCount > uint64(cfg.Security.PostBurstLimit) {
			reason := fmt.Sprintf("Suspicious POST activity - %d requests in %s", postCount, cfg.PostBurstWindow())
			logEvent(ip, domain.EventSuspiciousPost, fmt.Sprintf("%d POST requests in %s", postCount, cfg.PostBurstWindow()), userAgent)
			banIP(ip, reason, userAgent)
			return block("Suspicious activity detected. Access denied.")
		}
	}

	return allowDecision
}

func banIP(ip, reason, userAgent string) {
	cfg := config.GetConfig()
	if err := database.BanIP(ip, reason, cfg.BanDuration(), false); err != nil {
		log.Error("admission: failed to persist ban", "ip", ip, "error", err)
		return
	}
	logEvent(ip, domain.EventIPBanned, reason, userAgent)
}

// logEvent writes to the audit trail without ever blocking admission.
func logEvent(ip, eventType, description, userAgent string) {
	if err := database.LogSecurityEvent(ip, eventType, description, userAgent); err != nil {
		log.Warn("admission: failed to log security event", "ip", ip, "type", eventType, "error", err)
	}
}

const denialPage = `<!DOCTYPE html>
<html>
<head>
	<title>Access Denied</title>
	<meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body>
	<h1>Access Denied</h1>
	<p>%s</p>
	<p>If you believe this is an error, please contact the administrator.</p>
</body>
</html>
`

// Guard routes every inbound request through Admit before the page handler
// runs. A blocked request is terminated with 429 and never reaches the
// wrapped handler.
func Guard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := ClientIP(r)

		decision := Admit(ip, r.Method, r.UserAgent(), r.URL.RequestURI())
		if !decision.Allow {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.WriteHeader(http.StatusTooManyRequests)
			fmt.Fprintf(w, denialPage, decision.Reason)
			return
		}

		next.ServeHTTP(w, r)
	})
}
