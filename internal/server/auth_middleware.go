package server

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// TokenAuth decides at connection time whether a viewer may navigate. The
// token comes from the "token" query parameter, which browsers can set on a
// websocket URL, or from an Authorization bearer header.
type TokenAuth struct {
	Token string
}

// OnConnect reports whether the request belongs to a presenter. A request
// without a token joins as a plain viewer; a wrong token is rejected.
func (a *TokenAuth) OnConnect(r *http.Request) (presenter bool, err error) {
	if a.Token == "" {
		return true, nil
	}

	token := r.URL.Query().Get("token")
	if token == "" {
		token, _ = strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	}
	switch {
	case token == "":
		return false, nil
	case subtle.ConstantTimeCompare([]byte(token), []byte(a.Token)) == 1:
		return true, nil
	default:
		return false, ErrUnauthorized
	}
}
