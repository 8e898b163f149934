package profile

import (
	"database/sql/driver"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Profile is the application-side record of an authenticated person.
type Profile struct {
	ID          uuid.UUID         `json:"id" gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	UserID      uuid.UUID         `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_profiles_user_id"`
	Email       string            `json:"email" gorm:"not null"`
	FullName    string            `json:"full_name" gorm:"not null"`
	Phone       *string           `json:"phone,omitempty"`
	Institution *string           `json:"institution,omitempty"`
	IsExternal  bool              `json:"is_external" gorm:"not null;default:false"`
	Metadata    datatypes.JSONMap `json:"metadata,omitempty" gorm:"type:jsonb"`
	CreatedAt   time.Time         `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time         `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName overrides the table name used by GORM
func (Profile) TableName() string {
	return "profiles"
}

// BeforeCreate sets a UUID before creating the record
func (p *Profile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// Validate checks if the profile data is valid
func (p *Profile) Validate() error {
	if p.UserID == uuid.Nil {
		return fmt.Errorf("user_id is required")
	}
	if strings.TrimSpace(p.Email) == "" {
		return fmt.Errorf("email is required")
	}
	if strings.TrimSpace(p.FullName) == "" {
		return fmt.Errorf("full_name is required")
	}
	return nil
}

// Role is an application role held by a user
type Role string

const (
	RoleAdmin Role = "admin"
	RoleJudge Role = "judge"
	RoleUser  Role = "user"
)

// AllRoles lists every assignable role
var AllRoles = []Role{RoleAdmin, RoleJudge, RoleUser}

// ParseRole converts a string to a Role
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("invalid role: %s", s)
	}
	return r, nil
}

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	return slices.Contains(AllRoles, r)
}

func (r Role) String() string {
	return string(r)
}

// Scan implements the sql.Scanner interface for database reads
func (r *Role) Scan(value any) error {
	switch v := value.(type) {
	case string:
		*r = Role(v)
	case []byte:
		*r = Role(v)
	case nil:
		*r = ""
	default:
		return fmt.Errorf("cannot scan %T into Role", value)
	}
	return nil
}

// Value implements the driver.Valuer interface for database writes
func (r Role) Value() (driver.Value, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("invalid role: %s", r)
	}
	return string(r), nil
}

// UserRole grants a role to an auth user. (user_id, role) is unique.
type UserRole struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_user_roles_user_role"`
	Role      Role      `json:"role" gorm:"type:app_role;not null;uniqueIndex:idx_user_roles_user_role"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName overrides the table name used by GORM
func (UserRole) TableName() string {
	return "user_roles"
}

// BeforeCreate sets a UUID before creating the record
func (ur *UserRole) BeforeCreate(tx *gorm.DB) error {
	if ur.ID == uuid.Nil {
		ur.ID = uuid.New()
	}
	return nil
}

// Identity is what a verified bearer token tells us about the caller.
type Identity struct {
	UserID   uuid.UUID
	Email    string
	Metadata map[string]any
}

// NewProfileFromIdentity builds the profile created on first sight of a user.
// full_name falls back to the email when the provider supplied none.
func NewProfileFromIdentity(id *Identity) *Profile {
	p := &Profile{
		ID:       uuid.New(),
		UserID:   id.UserID,
		Email:    id.Email,
		FullName: id.Email,
		Metadata: datatypes.JSONMap(id.Metadata),
	}

	if name := metadataString(id.Metadata, "full_name"); name != "" {
		p.FullName = name
	}
	if phone := metadataString(id.Metadata, "phone"); phone != "" {
		p.Phone = &phone
	}
	if inst := metadataString(id.Metadata, "institution"); inst != "" {
		p.Institution = &inst
	}
	p.IsExternal = metadataBool(id.Metadata, "is_external")

	return p
}

func metadataString(md map[string]any, key string) string {
	if md == nil {
		return ""
	}
	s, _ := md[key].(string)
	return strings.TrimSpace(s)
}

func metadataBool(md map[string]any, key string) bool {
	if md == nil {
		return false
	}
	switch v := md[key].(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(v, "true")
	}
	return false
}

// Actor is the authenticated caller as seen by the application layer.
type Actor struct {
	UserID    uuid.UUID
	ProfileID uuid.UUID
	Email     string
	Roles     []Role
}

// HasRole checks if the actor holds the given role
func (a *Actor) HasRole(role Role) bool {
	return a != nil && slices.Contains(a.Roles, role)
}

// IsAdmin checks if the actor holds the admin role
func (a *Actor) IsAdmin() bool {
	return a.HasRole(RoleAdmin)
}

// HasProfile reports whether a profile row exists for the actor
func (a *Actor) HasProfile() bool {
	return a != nil && a.ProfileID != uuid.Nil
}

// WithRoles is a profile together with the roles of its user
type WithRoles struct {
	Profile
	Roles []Role `json:"roles"`
}
