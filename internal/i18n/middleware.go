package i18n

import "net/http"

// Middleware attaches a localizer for lang to each request's context so
// handlers can resolve message IDs with T.
func Middleware(lang string) func(http.Handler) http.Handler {
	loc := NewLocalizer(lang)
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(WithLocalizer(r.Context(), loc)))
		}
		return http.HandlerFunc(fn)
	}
}
