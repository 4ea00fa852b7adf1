package middleware

import (
	"net/http"
	"strings"

	"github.com/HelieAriane/Clanimo/internal/handlers"
	"github.com/HelieAriane/Clanimo/internal/logging"
	"github.com/HelieAriane/Clanimo/internal/models"
	"github.com/HelieAriane/Clanimo/internal/services"
)

// AuthMiddleware verifies the bearer token on every request and upserts the
// profile row for the asserted identity before the handler runs.
type AuthMiddleware struct {
	verifier services.IdentityVerifier
	users    services.UserServiceInterface
	logger   *logging.Logger
}

func NewAuthMiddleware(verifier services.IdentityVerifier, users services.UserServiceInterface, logger *logging.Logger) *AuthMiddleware {
	if logger == nil {
		logger = logging.Default
	}
	return &AuthMiddleware{
		verifier: verifier,
		users:    users,
		logger:   logger,
	}
}

// RequireAuth rejects requests without a valid bearer token.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractBearerToken(r)
		if token == "" {
			writeUnauthorized(w)
			return
		}

		claims, err := m.verifier.Verify(r.Context(), token)
		if err != nil {
			writeUnauthorized(w)
			return
		}

		user, err := m.users.Ensure(r.Context(), models.UpsertUserParams{
			ID:          claims.Subject,
			DisplayName: claims.Name,
			Email:       claims.Email,
		})
		if err != nil {
			m.logger.Error("ensuring user profile", map[string]interface{}{
				"error": err.Error(),
			})
			http.Error(w, `{"error":"Internal server error"}`, http.StatusInternalServerError)
			return
		}

		ctx := handlers.SetUserInContext(r.Context(), user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func extractBearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"Authentication required"}`))
}
