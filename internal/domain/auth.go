package domain

import "time"

// ============================================================
// Auth / Users
// ============================================================

// UserRole distinguishes administrators from regular users.
type UserRole string

const (
	RoleAdmin UserRole = "admin"
	RoleUser  UserRole = "user"
)

// UserStatus gates login.
type UserStatus string

const (
	UserActive  UserStatus = "active"
	UserBlocked UserStatus = "blocked"
)

// User is an application account.
type User struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Phone        string     `json:"phone,omitempty"`
	PasswordHash string     `json:"password_hash"`
	Role         UserRole   `json:"role"`
	Status       UserStatus `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	LastLoginAt  time.Time  `json:"last_login_at,omitempty"`
}

// AccessEventType classifies access-log entries.
type AccessEventType string

const (
	AccessLogin          AccessEventType = "login"
	AccessRegister       AccessEventType = "register"
	AccessLogout         AccessEventType = "logout"
	AccessBlockedAttempt AccessEventType = "blocked_attempt"
)

// AccessEvent is one entry in the append-only access log.
type AccessEvent struct {
	ID         string          `json:"id"`
	UserID     string          `json:"user_id"`
	UserName   string          `json:"user_name"`
	UserEmail  string          `json:"user_email"`
	Timestamp  time.Time       `json:"timestamp"`
	Type       AccessEventType `json:"type"`
	DeviceInfo string          `json:"device_info"`
}

// ShareMethod is how the app link was shared.
type ShareMethod string

const (
	ShareNative    ShareMethod = "native"
	ShareClipboard ShareMethod = "clipboard"
)

// ShareEvent is one entry in the append-only share log.
type ShareEvent struct {
	ID        string      `json:"id"`
	UserID    string      `json:"user_id"`
	UserName  string      `json:"user_name"`
	Timestamp time.Time   `json:"timestamp"`
	Method    ShareMethod `json:"method"`
}

// ============================================================
// Auth requests / responses
// ============================================================

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	ExpiresIn    int      `json:"expires_in"`
	UserID       string   `json:"user_id"`
	UserName     string   `json:"user_name"`
	Role         UserRole `json:"role"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// RefreshToken is a stored, hashed refresh token.
type RefreshToken struct {
	UserID    string    `json:"user_id"`
	TokenHash string    `json:"token_hash"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ============================================================
// Admin view
// ============================================================

// UserReport is a user enriched with usage metrics for the admin view.
type UserReport struct {
	User
	TotalAccesses int       `json:"total_accesses"`
	TotalShares   int       `json:"total_shares"`
	LastAccess    time.Time `json:"last_access"`
}

// AdminStats is the aggregate panel of the admin dashboard.
type AdminStats struct {
	TotalUsers    int `json:"total_users"`
	ActiveUsers   int `json:"active_users"`
	BlockedUsers  int `json:"blocked_users"`
	TotalClients  int `json:"total_clients"`
	TotalAccesses int `json:"total_accesses"`
	TotalShares   int `json:"total_shares"`
}

// Backup is the full snapshot of every persisted collection.
type Backup struct {
	Timestamp time.Time     `json:"timestamp"`
	Users     []User        `json:"users"`
	Clients   []Client      `json:"clients"`
	AccessLog []AccessEvent `json:"access_logs"`
	ShareLog  []ShareEvent  `json:"share_logs"`
}
