// Package shared holds middleware and helpers used by every feature
// router.
package shared

import (
	"net/http"

	errorsfeature "github.com/dalemusser/fieldaudit/internal/app/features/errors"
	"github.com/dalemusser/fieldaudit/internal/app/policy/scopepolicy"
	"github.com/dalemusser/fieldaudit/internal/app/services/records"
	"github.com/dalemusser/fieldaudit/internal/app/store/repo"
	"github.com/dalemusser/fieldaudit/internal/app/system/formutil"
	"github.com/dalemusser/fieldaudit/internal/app/system/timeouts"
)

// ResolveScope computes the caller's district scope once per request and
// stores it for handlers to read with Scope. It must run after
// RequireSignedIn.
func ResolveScope(coordinators repo.CoordinatorStore, errLog *errorsfeature.ErrorLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller, ok := scopepolicy.FromRequest(r)
			if !ok {
				errorsfeature.RenderUnauthorized(w, r)
				return
			}
			ctx, cancel := timeouts.WithShort(r.Context())
			res, err := scopepolicy.Resolve(ctx, caller, coordinators)
			cancel()
			if err != nil {
				errLog.LogServerError(w, r, "resolve scope", err, "A server error occurred.")
				return
			}
			next.ServeHTTP(w, r.WithContext(scopepolicy.WithResolution(r.Context(), res)))
		})
	}
}

// Scope returns the scope ResolveScope stored, or an empty one.
func Scope(r *http.Request) repo.Scope {
	return scopepolicy.FromContext(r.Context()).Scope
}

// Resolution returns the full resolution, including the coordinator.
func Resolution(r *http.Request) scopepolicy.Resolution {
	return scopepolicy.FromContext(r.Context())
}

// Caller returns the signed-in caller. Routes behind RequireSignedIn always
// have one.
func Caller(r *http.Request) scopepolicy.Caller {
	c, _ := scopepolicy.FromRequest(r)
	return c
}

// Uploads converts decoded file parts into record uploads.
func Uploads(files []formutil.File) []records.Upload {
	out := make([]records.Upload, 0, len(files))
	for _, f := range files {
		out = append(out, records.Upload{
			Field:       f.Field,
			Filename:    f.Filename,
			Size:        f.Size,
			ContentType: f.ContentType,
			Body:        f.Body,
		})
	}
	return out
}
