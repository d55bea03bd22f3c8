package schema

// CmsRoleTable represents the 'cms.role' table
type CmsRoleTable struct {
	Table      string
	ID         string
	Status     string
	Identifier string
	Tag        string
	ModifiedAt string
}

// CmsRole is the schema definition for cms.role
var CmsRole = CmsRoleTable{
	Table:      "cms.role",
	ID:         "id",
	Status:     "status",
	Identifier: "identifier",
	Tag:        "tag",
	ModifiedAt: "modifiedat",
}

// CmsRolePolicyTable represents the 'cms.rolepolicy' table
type CmsRolePolicyTable struct {
	Table       string
	ID          string
	RoleID      string
	Status      string
	OriginalID  string
	Module      string
	Function    string
	Limitations string
}

// CmsRolePolicy is the schema definition for cms.rolepolicy
var CmsRolePolicy = CmsRolePolicyTable{
	Table:       "cms.rolepolicy",
	ID:          "id",
	RoleID:      "roleid",
	Status:      "status",
	OriginalID:  "originalid",
	Module:      "module",
	Function:    "function",
	Limitations: "limitations",
}

// Columns returns all standard column names
func (t CmsRolePolicyTable) Columns() []string {
	return []string{t.ID, t.RoleID, t.Status, t.OriginalID, t.Module, t.Function, t.Limitations}
}
