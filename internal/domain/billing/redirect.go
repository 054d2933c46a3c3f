package billing

import (
	"net/url"
	"strings"
)

// RedirectRules decide where checkout sends the browser back to.
type RedirectRules struct {
	// FallbackOrigin is used when the request has no usable Origin.
	FallbackOrigin string
	// ProductionHost is the public custom domain, e.g. "jetdesk.io".
	ProductionHost string
	// CanonicalDomain is the hosting platform's domain, e.g. "vercel.app".
	CanonicalDomain string
	// CanonicalOrigin replaces origins on ProductionHost that are not on CanonicalDomain.
	CanonicalOrigin string
}

// RedirectBase returns the scheme://host base for success and cancel URLs.
// Origins on the production custom domain are rewritten to the canonical
// origin so the provider does not bounce the user through the domain proxy.
func (r RedirectRules) RedirectBase(origin string) string {
	origin = strings.TrimRight(strings.TrimSpace(origin), "/")
	if origin == "" || origin == "null" {
		return strings.TrimRight(r.FallbackOrigin, "/")
	}

	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return strings.TrimRight(r.FallbackOrigin, "/")
	}

	host := strings.ToLower(u.Hostname())
	if r.CanonicalOrigin != "" && matchesDomain(host, r.ProductionHost) && !matchesDomain(host, r.CanonicalDomain) {
		return strings.TrimRight(r.CanonicalOrigin, "/")
	}
	return u.Scheme + "://" + u.Host
}

// CheckoutURLs returns the success and cancel URLs for base. The success URL
// carries the provider's session id placeholder.
func CheckoutURLs(base string) (successURL, cancelURL string) {
	return base + "/billing/success?session_id={CHECKOUT_SESSION_ID}", base + "/billing/cancel"
}

func matchesDomain(host, domain string) bool {
	domain = strings.ToLower(strings.TrimSpace(domain))
	if domain == "" {
		return false
	}
	return host == domain || strings.HasSuffix(host, "."+domain)
}
