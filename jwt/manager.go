// Package jwt mints and verifies the signed session tokens: short-lived
// access tokens and long-lived refresh tokens, each under its own key
// so compromise of one cannot forge the other.
package jwt

import (
	"bytes"
	"crypto/ed25519"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SigningMethod selects the signature algorithm for both token kinds.
type SigningMethod string

const (
	// MethodHS256 signs with symmetric HMAC-SHA256 secrets.
	MethodHS256 SigningMethod = "hs256"
	// MethodEd25519 signs with Ed25519 key pairs.
	MethodEd25519 SigningMethod = "ed25519"
)

// Token-use claim values. Parsing rejects a token presented for the
// wrong use even when the keys happen to match.
const (
	useAccess  = "access"
	useRefresh = "refresh"
)

// ErrTokenInvalid is returned for any token that fails signature,
// expiry, issuer, or token-use checks.
var ErrTokenInvalid = errors.New("invalid token")

// Config holds the issuer's keys and lifetimes. Access and refresh keys
// must differ.
type Config struct {
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	SigningMethod SigningMethod

	// HS256: the HMAC secrets. Ed25519: the private keys (raw or PEM).
	AccessKey  []byte
	RefreshKey []byte

	// Ed25519 verify keys; unused for HS256.
	AccessPublicKey  []byte
	RefreshPublicKey []byte

	Issuer       string
	Leeway       time.Duration
	MaxFutureIAT time.Duration
}

// Claims is the payload carried by both token kinds. Subject holds the
// account id.
type Claims struct {
	TokenUse string `json:"use"`
	jwt.RegisteredClaims
}

// Manager issues and parses session tokens. Safe for concurrent use.
type Manager struct {
	config Config
}

// NewManager validates the configuration and returns a Manager.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	if cfg.MaxFutureIAT == 0 {
		cfg.MaxFutureIAT = 10 * time.Minute
	}
	if cfg.MaxFutureIAT < 0 || cfg.MaxFutureIAT > 24*time.Hour {
		return nil, errors.New("invalid MaxFutureIAT configuration")
	}

	switch cfg.SigningMethod {
	case MethodHS256:
		if len(cfg.AccessKey) == 0 || len(cfg.RefreshKey) == 0 {
			return nil, errors.New("hs256 requires access and refresh secrets")
		}
	case MethodEd25519:
		if _, err := parseEdPrivateKey(cfg.AccessKey); err != nil {
			return nil, fmt.Errorf("access key: %w", err)
		}
		if _, err := parseEdPrivateKey(cfg.RefreshKey); err != nil {
			return nil, fmt.Errorf("refresh key: %w", err)
		}
		if len(cfg.AccessPublicKey) > 0 {
			if _, err := parseEdPublicKey(cfg.AccessPublicKey); err != nil {
				return nil, fmt.Errorf("access public key: %w", err)
			}
		}
		if len(cfg.RefreshPublicKey) > 0 {
			if _, err := parseEdPublicKey(cfg.RefreshPublicKey); err != nil {
				return nil, fmt.Errorf("refresh public key: %w", err)
			}
		}
	default:
		return nil, errors.New("unsupported signing method")
	}

	if bytes.Equal(cfg.AccessKey, cfg.RefreshKey) {
		return nil, errors.New("access and refresh signing keys must differ")
	}

	return &Manager{config: cfg}, nil
}

// CreateAccess mints a short-lived access token for the account.
func (m *Manager) CreateAccess(accountID string) (string, error) {
	token, _, err := m.create(accountID, useAccess, m.config.AccessTTL, m.config.AccessKey)
	return token, err
}

// CreateRefresh mints a long-lived refresh token and returns its expiry
// so the caller can record it alongside the token's hash.
func (m *Manager) CreateRefresh(accountID string) (string, time.Time, error) {
	return m.create(accountID, useRefresh, m.config.RefreshTTL, m.config.RefreshKey)
}

// ParseAccess verifies an access token and returns the account id.
func (m *Manager) ParseAccess(tokenStr string) (string, error) {
	return m.parse(tokenStr, useAccess, m.config.AccessKey, m.config.AccessPublicKey)
}

// ParseRefresh verifies a refresh token and returns the account id.
func (m *Manager) ParseRefresh(tokenStr string) (string, error) {
	return m.parse(tokenStr, useRefresh, m.config.RefreshKey, m.config.RefreshPublicKey)
}

func (m *Manager) create(accountID, use string, ttl time.Duration, key []byte) (string, time.Time, error) {
	if accountID == "" {
		return "", time.Time{}, errors.New("empty account id")
	}

	now := time.Now()
	expiresAt := now.Add(ttl)
	claims := Claims{
		TokenUse: use,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    m.config.Issuer,
		},
	}

	token := jwt.NewWithClaims(m.method(), claims)

	signKey, err := m.signKey(key)
	if err != nil {
		return "", time.Time{}, err
	}

	signed, err := token.SignedString(signKey)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

func (m *Manager) parse(tokenStr, use string, key, publicKey []byte) (string, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{m.method().Alg()}),
		jwt.WithExpirationRequired(),
	}
	if m.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(m.config.Leeway))
	}
	if m.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(m.config.Issuer))
	}

	parser := jwt.NewParser(options...)
	token, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return m.verifyKey(key, publicKey)
	})
	if err != nil {
		return "", ErrTokenInvalid
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return "", ErrTokenInvalid
	}
	if claims.TokenUse != use || claims.Subject == "" {
		return "", ErrTokenInvalid
	}
	if claims.IssuedAt != nil && m.config.MaxFutureIAT > 0 {
		if claims.IssuedAt.Time.After(time.Now().Add(m.config.MaxFutureIAT)) {
			return "", ErrTokenInvalid
		}
	}

	return claims.Subject, nil
}

func (m *Manager) method() jwt.SigningMethod {
	switch m.config.SigningMethod {
	case MethodHS256:
		return jwt.SigningMethodHS256
	default:
		return jwt.SigningMethodEdDSA
	}
}

func (m *Manager) signKey(key []byte) (interface{}, error) {
	switch m.config.SigningMethod {
	case MethodHS256:
		return key, nil
	default:
		return parseEdPrivateKey(key)
	}
}

func (m *Manager) verifyKey(key, publicKey []byte) (interface{}, error) {
	switch m.config.SigningMethod {
	case MethodHS256:
		return key, nil
	default:
		if len(publicKey) > 0 {
			return parseEdPublicKey(publicKey)
		}
		private, err := parseEdPrivateKey(key)
		if err != nil {
			return nil, err
		}
		return private.Public(), nil
	}
}

func parseEdPrivateKey(key []byte) (ed25519.PrivateKey, error) {
	if len(key) == ed25519.PrivateKeySize {
		return ed25519.PrivateKey(key), nil
	}
	parsed, err := jwt.ParseEdPrivateKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 private key")
	}
	edKey, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, errors.New("invalid ed25519 private key type")
	}
	return edKey, nil
}

func parseEdPublicKey(key []byte) (ed25519.PublicKey, error) {
	if len(key) == ed25519.PublicKeySize {
		return ed25519.PublicKey(key), nil
	}
	parsed, err := jwt.ParseEdPublicKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 public key")
	}
	edKey, ok := parsed.(ed25519.PublicKey)
	if !ok {
		return nil, errors.New("invalid ed25519 public key type")
	}
	return edKey, nil
}
