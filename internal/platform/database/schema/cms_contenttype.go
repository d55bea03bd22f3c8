package schema

// CmsContentTypeTable represents the 'cms.contenttype' table
type CmsContentTypeTable struct {
	Table            string
	ID               string
	Status           string
	Identifier       string
	MainLanguageCode string
	Names            string
	Descriptions     string
	NameSchema       string
	IsContainer      string
	CreatorID        string
	Tag              string
	ModifiedAt       string
}

// CmsContentType is the schema definition for cms.contenttype
var CmsContentType = CmsContentTypeTable{
	Table:            "cms.contenttype",
	ID:               "id",
	Status:           "status",
	Identifier:       "identifier",
	MainLanguageCode: "mainlanguagecode",
	Names:            "names",
	Descriptions:     "descriptions",
	NameSchema:       "nameschema",
	IsContainer:      "iscontainer",
	CreatorID:        "creatorid",
	Tag:              "tag",
	ModifiedAt:       "modifiedat",
}

// Columns returns all standard column names
func (t CmsContentTypeTable) Columns() []string {
	return []string{
		t.ID, t.Status, t.Identifier, t.MainLanguageCode, t.Names, t.Descriptions,
		t.NameSchema, t.IsContainer, t.CreatorID, t.Tag, t.ModifiedAt,
	}
}

// CmsContentTypeGroupTable represents the 'cms.contenttypegroup' table
type CmsContentTypeGroupTable struct {
	Table      string
	ID         string
	Identifier string
	CreatedAt  string
}

// CmsContentTypeGroup is the schema definition for cms.contenttypegroup
var CmsContentTypeGroup = CmsContentTypeGroupTable{
	Table:      "cms.contenttypegroup",
	ID:         "id",
	Identifier: "identifier",
	CreatedAt:  "createdat",
}

// CmsContentTypeGroupLinkTable represents the 'cms.contenttypegrouplink' table
type CmsContentTypeGroupLinkTable struct {
	Table         string
	ContentTypeID string
	Status        string
	GroupID       string
}

// CmsContentTypeGroupLink is the schema definition for cms.contenttypegrouplink
var CmsContentTypeGroupLink = CmsContentTypeGroupLinkTable{
	Table:         "cms.contenttypegrouplink",
	ContentTypeID: "contenttypeid",
	Status:        "status",
	GroupID:       "groupid",
}
