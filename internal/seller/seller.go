package seller

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// CookieName is the cookie that carries the signed-in seller's id.
const CookieName = "seller_id"

var ErrMissingSellerID = errors.New("seller ID is missing")

// Source resolves the id of the seller the operation acts for.
type Source interface {
	SellerID(ctx context.Context) (string, error)
}

// Static is a fixed seller id, typically from a flag or the environment.
type Static string

func (s Static) SellerID(context.Context) (string, error) {
	id := strings.TrimSpace(string(s))
	if id == "" {
		return "", ErrMissingSellerID
	}
	return id, nil
}

// FromRequest reads the seller id from the request's seller_id cookie.
func FromRequest(r *http.Request) Source {
	return requestSource{r: r}
}

type requestSource struct {
	r *http.Request
}

func (s requestSource) SellerID(context.Context) (string, error) {
	c, err := s.r.Cookie(CookieName)
	if err != nil || strings.TrimSpace(c.Value) == "" {
		return "", ErrMissingSellerID
	}
	return strings.TrimSpace(c.Value), nil
}

// Fallback tries each source in order and returns the first id found.
func Fallback(sources ...Source) Source {
	return fallback(sources)
}

type fallback []Source

func (f fallback) SellerID(ctx context.Context) (string, error) {
	for _, s := range f {
		if s == nil {
			continue
		}
		id, err := s.SellerID(ctx)
		if err == nil {
			return id, nil
		}
		if !errors.Is(err, ErrMissingSellerID) {
			return "", err
		}
	}
	return "", ErrMissingSellerID
}
