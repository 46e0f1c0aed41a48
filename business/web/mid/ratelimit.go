package mid

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"

	"golang.org/x/time/rate"

	"github.com/triadchain/triadchain/business/web/errs"
	"github.com/triadchain/triadchain/foundation/web"
)

// RateLimit restricts how often a single remote host can submit requests.
// Limiters are kept per host since transaction submission is the hot path
// and one noisy wallet shouldn't starve the rest.
func RateLimit(rps rate.Limit, burst int) web.Middleware {
	var mu sync.Mutex
	limiters := make(map[string]*rate.Limiter)

	limiterFor := func(host string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()

		l, exists := limiters[host]
		if !exists {
			l = rate.NewLimiter(rps, burst)
			limiters[host] = l
		}
		return l
	}

	// This is the actual middleware function to be executed.
	m := func(handler web.Handler) web.Handler {

		// Create the handler that will be attached in the middleware chain.
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			host, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				host = r.RemoteAddr
			}

			if !limiterFor(host).Allow() {
				return errs.NewTrusted(errors.New("too many requests"), http.StatusTooManyRequests)
			}

			// Call the next handler.
			return handler(ctx, w, r)
		}

		return h
	}

	return m
}
