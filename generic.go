package jazzhands

import (
	"fmt"
	"net/url"
	"strings"
)

func parseBaseURL(ustr string) (*url.URL, error) {
	u, err := url.Parse(ustr)
	if err != nil {
		return nil, err
	}

	if u.Scheme != "https" && u.Scheme != "http" {
		return nil, fmt.Errorf("url scheme must be http or https")
	}

	if u.Hostname() == "" {
		return nil, fmt.Errorf("url hostname was empty")
	}

	if u.User != nil {
		return nil, fmt.Errorf("url user was not empty")
	}

	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}

	return u, nil
}

// resolve joins a relative resource path such as "user/emails" onto base.
func resolve(base *url.URL, resource string) string {
	ref := &url.URL{Path: strings.TrimPrefix(resource, "/")}
	return base.ResolveReference(ref).String()
}

// SafeRedirect returns next when it is a same-site relative path, fallback otherwise.
func SafeRedirect(next, fallback string) string {
	if next == "" {
		return fallback
	}

	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return fallback
	}

	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return fallback
	}

	return next
}
