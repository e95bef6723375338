package http

import (
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	apperrors "zippty/order-service/internal/errors"
)

const (
	ctxUserID    = "UserID"
	ctxRole      = "Role"
	ctxRequestID = "RequestID"

	headerRequestID = "X-Request-ID"
	roleAdmin       = "admin"
)

// Claims is the token payload issued by the auth service.
type Claims struct {
	UserID string `json:"userId"`
	Role   string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// IssueToken signs an HS256 token for userID. Used by the token command and tests.
func IssueToken(secret []byte, userID, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(headerRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(ctxRequestID, id)
		c.Header(headerRequestID, id)
		c.Next()
	}
}

func RequestLogger(logger log.Logger) gin.HandlerFunc {
	helper := log.NewHelper(log.With(logger, "module", "http"))
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		kv := []any{
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
			"request_id", c.GetString(ctxRequestID),
		}
		if len(c.Errors) > 0 {
			helper.Errorw(append(kv, "error", c.Errors.String())...)
			return
		}
		helper.Infow(kv...)
	}
}

// Auth rejects requests without a valid bearer token and stores the caller's id and
// role on the context.
func Auth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			abortWithError(c, apperrors.Unauthorized("authentication failed: no token provided"))
			return
		}

		claims := &Claims{}
		_, err := jwt.ParseWithClaims(strings.TrimPrefix(header, "Bearer "), claims,
			func(*jwt.Token) (any, error) { return secret, nil },
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		)
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			abortWithError(c, apperrors.Unauthorized("token expired"))
			return
		case err != nil, claims.UserID == "":
			abortWithError(c, apperrors.Unauthorized("invalid token"))
			return
		}

		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxRole, claims.Role)
		c.Next()
	}
}

func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(ctxRole) != roleAdmin {
			abortWithError(c, apperrors.Forbidden("admin access required"))
			return
		}
		c.Next()
	}
}

func abortWithError(c *gin.Context, err error) {
	writeError(c, err, nil)
	c.Abort()
}
