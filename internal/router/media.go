package router

import "strings"

// BaseURLMediaResolver builds download URLs against the media service's
// public endpoint. Uploads themselves never pass through this service.
type BaseURLMediaResolver struct {
	BaseURL string
}

func (r BaseURLMediaResolver) Resolve(mediaID string) string {
	if r.BaseURL == "" {
		return ""
	}
	return strings.TrimRight(r.BaseURL, "/") + "/media/" + mediaID
}
