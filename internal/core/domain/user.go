package domain

import (
	"slices"
	"time"
)

// Role is the authoritative access level of a user, as held by the role store.
type Role string

const (
	RoleStudent   Role = "student"
	RoleCounselor Role = "counselor"
	RoleAdmin     Role = "admin"
)

// AllRoles lists every role a user record may hold.
var AllRoles = []Role{RoleStudent, RoleCounselor, RoleAdmin}

// ParseRole converts a raw role value, failing with ErrInvalidRole for unknown values.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", ErrInvalidRole
	}
	return r, nil
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return slices.Contains(AllRoles, r)
}

// Identity is a verified bearer subject. It carries no role: roles are always
// looked up in the role store.
type Identity struct {
	Subject string
	Email   string
}

// Profile holds the role-conditional attributes of a user. Which fields may be
// populated depends on the role, see profileFields.
type Profile struct {
	StudentID  *string `json:"student_id"`
	Birthday   *string `json:"birthday"`
	Department *string `json:"department"`
	Program    *string `json:"program"`
	YearLevel  *int    `json:"year_level"`
	PhotoURL   *string `json:"photo_url"`
	License    *string `json:"license"`
}

// ProfileField names one attribute of Profile.
type ProfileField string

const (
	FieldStudentID  ProfileField = "student_id"
	FieldBirthday   ProfileField = "birthday"
	FieldDepartment ProfileField = "department"
	FieldProgram    ProfileField = "program"
	FieldYearLevel  ProfileField = "year_level"
	FieldPhotoURL   ProfileField = "photo_url"
	FieldLicense    ProfileField = "license"
)

// profileFields is the role → allowed field set table. Every field not listed
// for a role is cleared when a record is normalized for that role.
var profileFields = map[Role][]ProfileField{
	RoleStudent:   {FieldStudentID, FieldBirthday, FieldDepartment, FieldProgram, FieldYearLevel},
	RoleCounselor: {FieldDepartment, FieldPhotoURL, FieldLicense},
	RoleAdmin:     {},
}

// profileClearers resets each field of Profile. Adding a field to Profile
// means adding it here too.
var profileClearers = map[ProfileField]func(*Profile){
	FieldStudentID:  func(p *Profile) { p.StudentID = nil },
	FieldBirthday:   func(p *Profile) { p.Birthday = nil },
	FieldDepartment: func(p *Profile) { p.Department = nil },
	FieldProgram:    func(p *Profile) { p.Program = nil },
	FieldYearLevel:  func(p *Profile) { p.YearLevel = nil },
	FieldPhotoURL:   func(p *Profile) { p.PhotoURL = nil },
	FieldLicense:    func(p *Profile) { p.License = nil },
}

// FieldAllowed reports whether role r may populate field f.
func FieldAllowed(r Role, f ProfileField) bool {
	return slices.Contains(profileFields[r], f)
}

// NormalizeFor returns a copy of p with every field outside r's allowed set cleared.
func (p Profile) NormalizeFor(r Role) Profile {
	out := p
	for field, reset := range profileClearers {
		if !FieldAllowed(r, field) {
			reset(&out)
		}
	}
	return out
}

// User is a person registered on the platform.
type User struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"name"`
	Role        Role      `json:"role"`
	Profile     Profile   `json:"profile"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Normalize re-derives the cleared-field invariant from the user's role.
func (u *User) Normalize() {
	u.Profile = u.Profile.NormalizeFor(u.Role)
}

// Credential is the login record backing an identity.
type Credential struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}
