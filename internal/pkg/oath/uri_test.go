package oath

import (
	"errors"
	"net/url"
	"strings"
	"testing"
)

func TestConfigURIHOTP(t *testing.T) {
	got, err := ConfigURI(URIParams{
		Kind:    KindHOTP,
		Label:   "alice@example.com",
		Key:     rfc4226Key,
		Digits:  6,
		Counter: 7,
	})
	if err != nil {
		t.Fatalf("ConfigURI: %v", err)
	}

	if !strings.HasPrefix(got, "otpauth://hotp/alice@example.com?") {
		t.Fatalf("unexpected prefix: %q", got)
	}

	u, err := url.Parse(got)
	if err != nil {
		t.Fatalf("parse uri: %v", err)
	}

	q := u.Query()
	if q.Get("secret") != KeyToBase32(rfc4226Key) {
		t.Errorf("secret = %q", q.Get("secret"))
	}
	if q.Get("algorithm") != "SHA1" {
		t.Errorf("algorithm = %q", q.Get("algorithm"))
	}
	if q.Get("digits") != "6" {
		t.Errorf("digits = %q", q.Get("digits"))
	}
	if q.Get("counter") != "7" {
		t.Errorf("counter = %q", q.Get("counter"))
	}
	if q.Has("period") {
		t.Error("hotp uri must not carry period")
	}
}

func TestConfigURITOTPWithIssuer(t *testing.T) {
	got, err := ConfigURI(URIParams{
		Kind:   KindTOTP,
		Label:  "alice",
		Issuer: "Acme: Industries",
		Key:    rfc4226Key,
		Digits: 8,
		Period: 60,
	})
	if err != nil {
		t.Fatalf("ConfigURI: %v", err)
	}

	u, err := url.Parse(got)
	if err != nil {
		t.Fatalf("parse uri: %v", err)
	}

	// Colons are stripped from the issuer before it joins the label.
	wantLabel := "/" + url.PathEscape("Acme Industries:alice")
	if u.EscapedPath() != wantLabel {
		t.Errorf("label path = %q, want %q", u.EscapedPath(), wantLabel)
	}

	q := u.Query()
	if q.Get("issuer") != "Acme Industries" {
		t.Errorf("issuer = %q", q.Get("issuer"))
	}
	if q.Get("period") != "60" {
		t.Errorf("period = %q", q.Get("period"))
	}
	if q.Has("counter") {
		t.Error("totp uri must not carry counter")
	}
}

func TestConfigURIUnknownKind(t *testing.T) {
	_, err := ConfigURI(URIParams{Kind: "ocra", Label: "x", Key: rfc4226Key})
	if !errors.Is(err, ErrUnknownURIKind) {
		t.Fatalf("err = %v, want ErrUnknownURIKind", err)
	}
}
