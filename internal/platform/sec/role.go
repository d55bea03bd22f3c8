// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

// # User Roles

// UserRole is the "role" claim of an access token. It gates the HTTP surface
// only; the policies managed by the role family are data, not this.
type UserRole string

const (
	// RoleAdmin manages content types and roles.
	RoleAdmin UserRole = "admin"
	// RoleEditor creates, edits and publishes content.
	RoleEditor UserRole = "editor"
	RoleContributor UserRole = "contributor"
	RoleViewer      UserRole = "viewer"
)

// rank orders the roles; unknown roles rank below viewer.
var rank = map[UserRole]int{
	RoleViewer:      1,
	RoleContributor: 2,
	RoleEditor:      3,
	RoleAdmin:       4,
}

// IsValid reports whether r is one of the known roles.
func (r UserRole) IsValid() bool {
	_, ok := rank[r]
	return ok
}

// AtLeast reports whether r ranks at or above target. An unknown role never
// satisfies a known target.
func (r UserRole) AtLeast(target UserRole) bool {
	return rank[r] > 0 && rank[r] >= rank[target]
}
