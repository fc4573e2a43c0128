package middleware

import "net/http"

// Stack composes middlewares so the first argument is the outermost:
//
//	Stack(a, b, c)(h) == a(b(c(h)))
func Stack(middlewares ...func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(final http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			final = middlewares[i](final)
		}
		return final
	}
}
