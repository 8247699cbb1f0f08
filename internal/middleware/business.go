package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/GregMSThompson/bizledger/internal/response"
	"github.com/GregMSThompson/bizledger/pkg/logger"
)

const (
	BusinessTokenQueryParam = "businessToken"
	BusinessTokenHeader     = "X-Business-Token"
	MaxBusinessTokenLength  = 128
)

type businessMiddleware struct {
	DemoToken       string
	ResponseHandler response.ResponseHandler
}

func NewBusinessMiddleware(demoToken string, rh response.ResponseHandler) *businessMiddleware {
	return &businessMiddleware{DemoToken: demoToken, ResponseHandler: rh}
}

type contextKey string

const BusinessTokenKey contextKey = "business_token"

// BusinessScope resolves the business the request acts for: query parameter,
// then header, then the demo business. Tokens are opaque and not
// authenticated.
func (m *businessMiddleware) BusinessScope(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimSpace(r.URL.Query().Get(BusinessTokenQueryParam))
		if token == "" {
			token = strings.TrimSpace(r.Header.Get(BusinessTokenHeader))
		}
		if token == "" {
			token = m.DemoToken
		}

		if len(token) > MaxBusinessTokenLength {
			m.ResponseHandler.WriteError(w, r, http.StatusBadRequest, "invalid_input", "business token is too long")
			return
		}

		_, ctx := logger.With(r.Context(), "business_token", token)
		ctx = context.WithValue(ctx, BusinessTokenKey, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// BusinessToken returns the token resolved by BusinessScope.
func BusinessToken(ctx context.Context) string {
	token, _ := ctx.Value(BusinessTokenKey).(string)
	return token
}
