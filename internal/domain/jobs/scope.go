package jobs

import (
	"net/url"
	"strings"
)

// InScope decides whether target's host is covered by the allow list.
//
// An empty or absent list is permissive (documented MVP behavior, not a
// security boundary). A target that cannot be parsed fails closed. Hosts match
// an entry case-insensitively, either exactly or as a strict dot-suffix
// subdomain (a.b.example.com matches example.com, evilexample.com does not).
func InScope(target string, allowList []string) bool {
	if len(allowList) == 0 {
		return true
	}
	u, err := url.Parse(target)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return false
	}
	for _, entry := range allowList {
		e := strings.ToLower(strings.TrimSpace(entry))
		if e == "" {
			continue
		}
		if host == e || strings.HasSuffix(host, "."+e) {
			return true
		}
	}
	return false
}
