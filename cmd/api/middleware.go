package main

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/hafizmfadli/movies-api/internal/auth"
)

func (app *application) recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The deferred function always runs while Go unwinds the stack after a
		// panic.
		defer func() {
			if err := recover(); err != nil {
				// "Connection: close" makes the server close the connection once
				// the response has been sent.
				w.Header().Set("Connection", "close")
				app.serverErrorResponse(w, r, fmt.Errorf("%s", err))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// requestID tags every request with an id, reusing the one sent by the
// client when present. The id is echoed back and included in error logs.
func (app *application) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}

		w.Header().Set("X-Request-Id", id)
		next.ServeHTTP(w, contextSetRequestID(r, id))
	})
}

// rateLimitIP middleware will limit number of request for specific IP address.
// This rate limiter can configurable at runtime using command line flag.
func (app *application) rateLimitIP(next http.Handler) http.Handler {
	if !app.config.limiter.enabled {
		return next
	}

	type client struct {
		limiter  *rate.Limiter
		lastSeen time.Time
	}

	var (
		mu      sync.Mutex
		clients = make(map[string]*client)
	)

	// Remove clients that haven't been seen within the last three minutes.
	go func() {
		for {
			time.Sleep(time.Minute)

			mu.Lock()
			for ip, client := range clients {
				if time.Since(client.lastSeen) > 3*time.Minute {
					delete(clients, ip)
				}
			}
			mu.Unlock()
		}
	}()

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			app.serverErrorResponse(w, r, err)
			return
		}

		mu.Lock()

		if _, found := clients[ip]; !found {
			clients[ip] = &client{
				limiter: rate.NewLimiter(rate.Limit(app.config.limiter.rps), app.config.limiter.burst),
			}
		}

		clients[ip].lastSeen = time.Now()

		if !clients[ip].limiter.Allow() {
			mu.Unlock()
			app.rateLimitExceededResponse(w, r)
			return
		}

		// Not deferred: the lock must not be held while downstream handlers run.
		mu.Unlock()

		next.ServeHTTP(w, r)
	})
}

// authorize wraps the handler registered under route with the gate's
// decision for that route. Claims of authenticated requests are stored in
// the request context.
func (app *application) authorize(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Responses differ depending on the Authorization header, so caches
		// must key on it.
		w.Header().Add("Vary", "Authorization")

		claims, err := app.gate.Authorize(route, r.Header.Get("Authorization"))
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrNoToken):
				app.noTokenResponse(w, r)
			case errors.Is(err, auth.ErrInvalidToken):
				app.invalidAuthenticationTokenResponse(w, r)
			case errors.Is(err, auth.ErrMissingRole):
				app.notPermittedResponse(w, r)
			default:
				app.serverErrorResponse(w, r, err)
			}
			return
		}

		if claims != nil {
			r = app.contextSetClaims(r, claims)
		}

		next.ServeHTTP(w, r)
	}
}
