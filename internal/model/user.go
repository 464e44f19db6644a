package model

import "time"

// User represents one credential row in the `users` table: a principal who
// can log in (applicant, stallholder, any employee kind or an
// administrator).  Usernames are unique per role, not globally, mirroring
// the per-role account tables of the legacy system.  The password is only
// ever stored as a bcrypt hash.  Accounts are never physically deleted;
// IsActive is flipped off instead.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Username     – login handle, unique within its role namespace.
//  PasswordHash – bcrypt hashed password.
//  Role         – role tag, immutable after creation.
//  BranchID     – owning branch for employee roles (0 for admin/applicant).
//  IsActive     – whether the account may log in.
//  LastLoginAt  – timestamp of the most recent successful login (nullable).
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
    ID           uint64     // users.id
    Username     string     // users.username
    PasswordHash string     // users.password_hash
    Role         Role       // users.role
    BranchID     uint64     // users.branch_id (0 when not branch-scoped)
    IsActive     bool       // users.is_active
    LastLoginAt  *time.Time // users.last_login_at (nullable)
    CreatedAt    time.Time  // users.created_at
    UpdatedAt    time.Time  // users.updated_at
}
