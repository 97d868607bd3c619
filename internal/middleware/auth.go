package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"showtalk/internal/models"
)

const CheckUserKey = "user"
const UnreadCountKey = "unread_count"

// TokenCookie 页面请求可以用 cookie 携带身份令牌
const TokenCookie = "showtalk_token"

var ErrNoToken = errors.New("no bearer token")

// Claims are the fields read from an identity provider token.
type Claims struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture string `json:"picture"`
	Role    string `json:"role"`
	jwt.RegisteredClaims
}

// Authenticator verifies HS256 tokens issued by the hosted identity
// provider and mirrors their subject into the users table.
type Authenticator struct {
	db       *gorm.DB
	secret   []byte
	issuer   string
	audience string
}

func NewAuthenticator(db *gorm.DB, secret, issuer, audience string) *Authenticator {
	return &Authenticator{db: db, secret: []byte(secret), issuer: issuer, audience: audience}
}

// ParseToken validates signature, expiry and, when configured, issuer and audience.
func (a *Authenticator) ParseToken(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}
	if a.audience != "" {
		opts = append(opts, jwt.WithAudience(a.audience))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	return claims, nil
}

func bearerToken(c *gin.Context) (string, error) {
	if header := c.GetHeader("Authorization"); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			return "", errors.New("invalid authorization header format")
		}
		return strings.TrimSpace(token), nil
	}
	if cookie, err := c.Cookie(TokenCookie); err == nil && cookie != "" {
		return cookie, nil
	}
	return "", ErrNoToken
}

// syncUser 首次出现的 subject 建档，之后同步昵称、邮箱、头像
func (a *Authenticator) syncUser(claims *Claims) (*models.User, error) {
	name := claims.Name
	if name == "" {
		name, _, _ = strings.Cut(claims.Email, "@")
	}
	if name == "" {
		name = "user-" + claims.Subject
		if len(name) > 16 {
			name = name[:16]
		}
	}

	var user models.User
	err := a.db.Where(models.User{ExternalID: claims.Subject}).
		Assign(models.User{Username: name, Email: claims.Email, Avatar: claims.Picture, Role: claims.Role}).
		FirstOrCreate(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// LoadUser attaches the token's user to the context. Requests without a
// valid token continue anonymously.
func (a *Authenticator) LoadUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := bearerToken(c)
		if err != nil {
			if !errors.Is(err, ErrNoToken) {
				log.Debug().Err(err).Msg("ignoring malformed authorization header")
			}
			c.Next()
			return
		}

		claims, err := a.ParseToken(tokenString)
		if err != nil {
			log.Debug().Err(err).Msg("rejecting token")
			c.Next()
			return
		}

		user, err := a.syncUser(claims)
		if err != nil {
			log.Error().Err(err).Str("sub", claims.Subject).Msg("failed to sync user")
			c.Next()
			return
		}
		c.Set(CheckUserKey, user)

		// Fetch Unread Notification Count
		var count int64
		a.db.Model(&models.Notification{}).Where("user_id = ? AND is_read = ?", user.ID, false).Count(&count)
		c.Set(UnreadCountKey, count)

		c.Next()
	}
}

// AuthRequired ensures a user is logged in
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentUser(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		c.Next()
	}
}

// CurrentUser returns the authenticated user, if any.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(CheckUserKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok && user != nil
}

// ViewerID is the current user's id, 0 for anonymous requests.
func ViewerID(c *gin.Context) uint {
	if user, ok := CurrentUser(c); ok {
		return user.ID
	}
	return 0
}
