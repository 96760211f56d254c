// Package address parses the organisation/bootstrap URL format of spec.md
// §6: ws|wss://host[:port]/<OrganisationID>?rvk=<base32 key> or
// ?bootstrap-token=<opaque>. The core only recognises the OrganisationID
// path segment; every other part is carried through opaque, as spec'd.
package address

import (
	"fmt"
	"net/url"

	"github.com/opaquecloud/lffs/ids"
)

// Address is a parsed organisation or bootstrap URL.
type Address struct {
	Secure         bool
	Host           string
	OrganisationID ids.OrganisationID
	RVK            string
	BootstrapToken string
}

// Parse validates raw against the spec.md §6 address format.
func Parse(raw string) (Address, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Address{}, fmt.Errorf("address: %w", err)
	}

	var secure bool
	switch u.Scheme {
	case "ws":
		secure = false
	case "wss":
		secure = true
	default:
		return Address{}, fmt.Errorf("address: unsupported scheme %q", u.Scheme)
	}

	if u.Host == "" {
		return Address{}, fmt.Errorf("address: missing host")
	}

	orgRaw := u.Path
	for len(orgRaw) > 0 && orgRaw[0] == '/' {
		orgRaw = orgRaw[1:]
	}
	org, err := ids.NewOrganisationID(orgRaw)
	if err != nil {
		return Address{}, fmt.Errorf("address: organisation id: %w", err)
	}

	q := u.Query()
	return Address{
		Secure:         secure,
		Host:           u.Host,
		OrganisationID: org,
		RVK:            q.Get("rvk"),
		BootstrapToken: q.Get("bootstrap-token"),
	}, nil
}

// IsBootstrap reports whether a carries a bootstrap token rather than an
// rendezvous key.
func (a Address) IsBootstrap() bool { return a.BootstrapToken != "" }

func (a Address) String() string {
	scheme := "ws"
	if a.Secure {
		scheme = "wss"
	}
	u := url.URL{Scheme: scheme, Host: a.Host, Path: "/" + a.OrganisationID.String()}
	q := url.Values{}
	if a.RVK != "" {
		q.Set("rvk", a.RVK)
	}
	if a.BootstrapToken != "" {
		q.Set("bootstrap-token", a.BootstrapToken)
	}
	u.RawQuery = q.Encode()
	return u.String()
}
