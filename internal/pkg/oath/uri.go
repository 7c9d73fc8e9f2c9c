package oath

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// URI kinds understood by authenticator apps.
//
// See https://github.com/google/google-authenticator/wiki/Key-Uri-Format.
const (
	KindHOTP = "hotp"
	KindTOTP = "totp"
)

// ErrUnknownURIKind is returned for a kind other than hotp or totp.
var ErrUnknownURIKind = errors.New("oath: config uri kind must be hotp or totp")

// URIParams describes one provisioning URI.
type URIParams struct {
	// Kind is KindHOTP or KindTOTP.
	Kind string
	// Label identifies the account, typically the user name.
	Label string
	// Issuer is the optional issuing organization. Colons are stripped
	// because the colon separates issuer and label inside the URI path.
	Issuer string
	// Key is the raw shared secret.
	Key []byte
	// Digits is the token width (6 or 8).
	Digits int
	// Counter is the next expected counter value. HOTP only.
	Counter uint64
	// Period is the time step in seconds. TOTP only.
	Period uint
}

// ConfigURI builds an otpauth:// provisioning URI for an authenticator app.
//
// Label and issuer are percent-encoded. The issuer, when present, is
// prefixed to the label path segment and repeated as a query parameter,
// which is what current authenticator apps expect.
func ConfigURI(p URIParams) (string, error) {
	if p.Kind != KindHOTP && p.Kind != KindTOTP {
		return "", ErrUnknownURIKind
	}

	label := p.Label
	issuer := strings.ReplaceAll(p.Issuer, ":", "")
	if issuer != "" {
		label = issuer + ":" + label
	}

	q := url.Values{}
	q.Set("secret", KeyToBase32(p.Key))
	q.Set("algorithm", "SHA1")
	q.Set("digits", fmt.Sprintf("%d", normalizeDigits(p.Digits)))

	if p.Kind == KindHOTP {
		q.Set("counter", fmt.Sprintf("%d", p.Counter))
	} else {
		period := p.Period
		if period == 0 {
			period = DefaultStep
		}
		q.Set("period", fmt.Sprintf("%d", period))
	}

	if issuer != "" {
		q.Set("issuer", issuer)
	}

	return fmt.Sprintf("otpauth://%s/%s?%s", p.Kind, url.PathEscape(label), q.Encode()), nil
}
