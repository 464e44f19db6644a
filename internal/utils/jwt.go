package utils // package utils provides helper functions for token creation and hashing

import (
    "crypto/rand"   // secure random number generation
    "crypto/sha256" // SHA-256 hashing for refresh tokens
    "encoding/hex"  // hex encoding and decoding functions
    "errors"        // sentinel verification errors
    "time"          // time utilities for generating expirations

    "github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens

    "github.com/iliyamo/stall-rental/internal/model" // role tag type carried in claims
)

// Verification failures are collapsed into two sentinels so handlers and
// middleware can pick the right client message without inspecting jwt
// internals: an expired token is worth telling the client about (they should
// refresh), anything else is just invalid.
var (
    ErrTokenExpired = errors.New("token expired")
    ErrTokenInvalid = errors.New("token invalid")
)

// AccessToken represents a signed JWT access token along with its expiry.
// The Token field contains the JWT string.  Exp stores the expiration
// timestamp as a time.Time.  Access tokens are short-lived and encoded
// in the Authorization header when calling protected endpoints.
type AccessToken struct {
    Token string    // the serialized JWT string
    Exp   time.Time // the UTC expiration time
}

// RefreshToken represents a long-lived token used to obtain new access tokens.
// The Raw field contains the raw token string returned to the client.  The Exp
// field records when it expires.  In the database only a SHA-256 hash of the
// raw string is stored for security reasons.
type RefreshToken struct {
    Raw string    // raw token string returned to the client
    Exp time.Time // UTC expiration time
}

// Claims is the decoded content of a verified access token.  It names the
// credential, its role and the session the token was minted under.  The
// session id lets every authenticated request heartbeat its session without
// a credential-table lookup.
type Claims struct {
    UserID    uint64     // "sub" claim
    Role      model.Role // "role" claim
    SessionID string     // "sid" claim
    IssuedAt  time.Time  // "iat" claim
    ExpiresAt time.Time  // "exp" claim
}

// NewAccessToken builds and signs an HS256 JWT for a user.  It takes the
// signing secret, the user ID, the user's role, the owning session id and a
// TTL in minutes.  The JWT includes the subject (sub), role, session (sid),
// expiration (exp) and issued at (iat) claims.
func NewAccessToken(secret string, userID uint64, role model.Role, sessionID string, ttlMin int) (AccessToken, error) {
    now := time.Now().UTC()
    exp := now.Add(time.Duration(ttlMin) * time.Minute)
    claims := jwt.MapClaims{
        "sub":  userID,
        "role": role.String(),
        "sid":  sessionID,
        "exp":  exp.Unix(),
        "iat":  now.Unix(),
    }
    t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
    signed, err := t.SignedString([]byte(secret))
    if err != nil {
        return AccessToken{}, err
    }
    return AccessToken{Token: signed, Exp: exp}, nil
}

// VerifyAccessToken parses and validates a serialized access token.  The
// signature and the exp claim are checked here; session liveness is a
// separate, stronger cutoff enforced by the caller.  Returns ErrTokenExpired
// when the token's lifetime has lapsed and ErrTokenInvalid for every other
// defect (bad signature, wrong algorithm, missing claims, unknown role).
func VerifyAccessToken(secret, raw string) (Claims, error) {
    tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
        // Reject tokens signed with anything but HMAC; accepting "none" or
        // an asymmetric method here would bypass the secret entirely.
        if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
            return nil, ErrTokenInvalid
        }
        return []byte(secret), nil
    })
    if err != nil {
        if errors.Is(err, jwt.ErrTokenExpired) && tok != nil {
            // Expiry is the only validation failure where the claims still
            // matter: logout accepts an expired (but honestly signed) token
            // and needs the session id out of it.
            if mc, ok := tok.Claims.(jwt.MapClaims); ok {
                if c, cErr := claimsFrom(mc); cErr == nil {
                    return c, ErrTokenExpired
                }
            }
            return Claims{}, ErrTokenExpired
        }
        return Claims{}, ErrTokenInvalid
    }
    if !tok.Valid {
        return Claims{}, ErrTokenInvalid
    }
    mc, ok := tok.Claims.(jwt.MapClaims)
    if !ok {
        return Claims{}, ErrTokenInvalid
    }
    return claimsFrom(mc)
}

// claimsFrom decodes and sanity-checks the claim set of an already verified
// (or deliberately expiry-tolerated) token.
func claimsFrom(mc jwt.MapClaims) (Claims, error) {
    var c Claims
    // Numeric claims decode as float64; sub must be present and non-zero.
    sub, ok := mc["sub"].(float64)
    if !ok || sub <= 0 {
        return Claims{}, ErrTokenInvalid
    }
    c.UserID = uint64(sub)

    roleStr, _ := mc["role"].(string)
    role, ok := model.ParseRole(roleStr)
    if !ok {
        return Claims{}, ErrTokenInvalid
    }
    c.Role = role

    sid, _ := mc["sid"].(string)
    if sid == "" {
        return Claims{}, ErrTokenInvalid
    }
    c.SessionID = sid

    if iat, ok := mc["iat"].(float64); ok {
        c.IssuedAt = time.Unix(int64(iat), 0).UTC()
    }
    if exp, ok := mc["exp"].(float64); ok {
        c.ExpiresAt = time.Unix(int64(exp), 0).UTC()
    }
    return c, nil
}

// NewRefreshToken returns a cryptographically secure random token (raw) and
// its expiration time.  Refresh tokens live longer than access tokens and
// are used to obtain new access tokens.  The ttlDays parameter controls
// how many days the refresh token is valid.
func NewRefreshToken(ttlDays int) (RefreshToken, error) {
    raw, err := randomHex(48) // 48 bytes -> 96 hex chars
    if err != nil {
        return RefreshToken{}, err
    }
    return RefreshToken{
        Raw: raw,
        Exp: time.Now().UTC().Add(time.Duration(ttlDays) * 24 * time.Hour),
    }, nil
}

// HashRefreshRaw returns the SHA-256 hash of the raw refresh token as a hex
// string.  Storing only the hash in the database prevents attackers from
// using stolen database entries to refresh sessions.
func HashRefreshRaw(raw string) string {
    sum := sha256.Sum256([]byte(raw))
    return hex.EncodeToString(sum[:])
}

// randomHex returns a hex-encoded string generated from n bytes of
// cryptographically secure random data.
func randomHex(n int) (string, error) {
    buf := make([]byte, n)
    if _, err := rand.Read(buf); err != nil {
        return "", err
    }
    return hex.EncodeToString(buf), nil
}
