package schema

// CmsContentVersionTable represents the 'cms.contentversion' table
type CmsContentVersionTable struct {
	Table               string
	ContentID           string
	VersionNo           string
	Status              string
	InitialLanguageCode string
	CreatorID           string
	Tag                 string
	CreatedAt           string
	ModifiedAt          string
}

// CmsContentVersion is the schema definition for cms.contentversion
var CmsContentVersion = CmsContentVersionTable{
	Table:               "cms.contentversion",
	ContentID:           "contentid",
	VersionNo:           "versionno",
	Status:              "status",
	InitialLanguageCode: "initiallanguagecode",
	CreatorID:           "creatorid",
	Tag:                 "tag",
	CreatedAt:           "createdat",
	ModifiedAt:          "modifiedat",
}

// Columns returns all standard column names
func (t CmsContentVersionTable) Columns() []string {
	return []string{
		t.ContentID, t.VersionNo, t.Status, t.InitialLanguageCode,
		t.CreatorID, t.Tag, t.CreatedAt, t.ModifiedAt,
	}
}
