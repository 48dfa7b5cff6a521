package keyset

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// expiresAt computes until when a response may be served from the cache.
//
// Cache-Control max-age wins and counts from "sent", the instant the
// request was issued, minus the response Age. Otherwise the Expires date
// is used as is. no-store, no-cache, a missing or an unparsable header
// give ok == false: the response must not be cached at all.
func expiresAt(header http.Header, sent time.Time) (time.Time, bool) {
	if cc := header.Values("Cache-Control"); len(cc) > 0 {
		maxAge, hasMaxAge, cacheable := parseCacheControl(strings.Join(cc, ","))
		if !cacheable {
			return time.Time{}, false
		}

		if hasMaxAge {
			if age, err := strconv.ParseInt(strings.TrimSpace(header.Get("Age")), 10, 64); err == nil && age > 0 {
				maxAge -= time.Duration(age) * time.Second
			}

			return sent.Add(maxAge), true
		}
	}

	if v := header.Get("Expires"); v != "" {
		t, err := http.ParseTime(v)
		if err != nil {
			return time.Time{}, false
		}

		return t, true
	}

	return time.Time{}, false
}

// parseCacheControl returns the max-age directive, whether it was present
// and valid, and whether the response may be stored at all.
func parseCacheControl(v string) (maxAge time.Duration, hasMaxAge bool, cacheable bool) {
	cacheable = true
	for _, directive := range strings.Split(v, ",") {
		name, value, _ := strings.Cut(strings.TrimSpace(directive), "=")
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "no-store", "no-cache":
			cacheable = false
		case "max-age":
			seconds, err := strconv.ParseInt(strings.Trim(strings.TrimSpace(value), `"`), 10, 64)
			if err != nil || seconds < 0 {
				return 0, false, false
			}
			maxAge, hasMaxAge = time.Duration(seconds)*time.Second, true
		}
	}

	return maxAge, hasMaxAge, cacheable
}
