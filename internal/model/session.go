package model

import "time"

// Session models a row in the `sessions` table: one authenticated
// device/browser connection.  A credential may hold several live sessions at
// once; each carries its own heartbeat.  A session ends either explicitly
// (logout) or when its last activity falls behind the staleness threshold,
// and an ended session is terminal: heartbeats cannot revive it.
//
// Fields:
//  ID           – uuid session identifier, also carried in the access token.
//  UserID       – owning credential.
//  Role         – role tag duplicated from the credential for fast lookup.
//  LoginTime    – when the session was opened.
//  LastActivity – bumped on every authenticated request or explicit heartbeat.
//  Active       – false once the session has ended.
//  LogoutTime   – when the session ended (nullable while active).
type Session struct {
    ID           string     // sessions.id (uuid)
    UserID       uint64     // sessions.user_id
    Role         Role       // sessions.role
    LoginTime    time.Time  // sessions.login_time
    LastActivity time.Time  // sessions.last_activity
    Active       bool       // sessions.active
    LogoutTime   *time.Time // sessions.logout_time (nullable)
}

// RefreshToken models an entry in the `refresh_tokens` table.  Each refresh
// token belongs to a user and to the session it was minted for, and carries
// metadata for expiry and revocation.  The plain token is not stored; only
// its SHA-256 hash.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the token.
//  SessionID – session the token was issued under.
//  TokenHash – SHA-256 hex digest of the token value.
//  ExpiresAt – expiration timestamp of the token.
//  RevokedAt – when the token was revoked (null if still active).
//  CreatedAt – timestamp of creation.
type RefreshToken struct {
    ID        uint64     // refresh_tokens.id
    UserID    uint64     // refresh_tokens.user_id
    SessionID string     // refresh_tokens.session_id
    TokenHash string     // refresh_tokens.token_hash
    ExpiresAt time.Time  // refresh_tokens.expires_at
    RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
    CreatedAt time.Time  // refresh_tokens.created_at
}
