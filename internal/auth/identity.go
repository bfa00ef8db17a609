package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/shahdolbazaar/marketplace-go-app/internal/apperr"
	"github.com/shahdolbazaar/marketplace-go-app/internal/models"
	"github.com/shahdolbazaar/marketplace-go-app/internal/policy"
)

// UserIDHeader is the development-only identity header.
const UserIDHeader = "X-User-ID"

type callerKey struct{}

// UserLookup loads the current user record so the role is never taken from the token.
type UserLookup interface {
	GetUser(ctx context.Context, id int64) (*models.User, error)
}

// Identity resolves the caller of each request.
type Identity struct {
	Tokens            *TokenIssuer
	Users             UserLookup
	AllowUserIDHeader bool
	Logger            *zap.Logger
}

// WithCaller stores the caller in ctx.
func WithCaller(ctx context.Context, c *policy.Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, c)
}

// CallerFrom returns the caller stored in ctx, or nil for anonymous requests.
func CallerFrom(ctx context.Context) *policy.Caller {
	c, _ := ctx.Value(callerKey{}).(*policy.Caller)
	return c
}

// Middleware attaches a *policy.Caller to the request context.
// Requests without credentials continue anonymously; bad credentials get 401.
func (id *Identity) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, present, err := id.userID(r)
		if err != nil {
			writeUnauthenticated(w, err.Error())
			return
		}
		if !present {
			next.ServeHTTP(w, r)
			return
		}

		user, err := id.Users.GetUser(r.Context(), userID)
		if err != nil {
			if apperr.IsNotFound(err) {
				writeUnauthenticated(w, "unknown user")
				return
			}
			if id.Logger != nil {
				id.Logger.Error("identity lookup failed", zap.Int64("user_id", userID), zap.Error(err))
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(models.ErrorResponse{Error: models.ErrorBody{Kind: "internal", Message: "internal error"}})
			return
		}

		ctx := WithCaller(r.Context(), policy.CallerFromUser(user))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (id *Identity) userID(r *http.Request) (int64, bool, error) {
	if h := r.Header.Get("Authorization"); h != "" {
		tokenString, ok := strings.CutPrefix(h, "Bearer ")
		if !ok || strings.TrimSpace(tokenString) == "" {
			return 0, true, ErrInvalidToken
		}
		uid, err := id.Tokens.Parse(strings.TrimSpace(tokenString))
		return uid, true, err
	}

	if id.AllowUserIDHeader {
		if h := strings.TrimSpace(r.Header.Get(UserIDHeader)); h != "" {
			uid, err := strconv.ParseInt(h, 10, 64)
			if err != nil || uid <= 0 {
				return 0, true, ErrInvalidToken
			}
			return uid, true, nil
		}
	}

	return 0, false, nil
}

func writeUnauthenticated(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(models.ErrorResponse{Error: models.ErrorBody{Kind: "unauthenticated", Message: msg}})
}
