package schema

// CmsContentTable represents the 'cms.content' table
type CmsContentTable struct {
	Table            string
	ID               string
	ContentTypeID    string
	RemoteID         string
	MainLanguageCode string
	AlwaysAvailable  string
	CurrentVersionNo string
	IsPublished      string
	Tag              string
	CreatedAt        string
	ModifiedAt       string
}

// CmsContent is the schema definition for cms.content
var CmsContent = CmsContentTable{
	Table:            "cms.content",
	ID:               "id",
	ContentTypeID:    "contenttypeid",
	RemoteID:         "remoteid",
	MainLanguageCode: "mainlanguagecode",
	AlwaysAvailable:  "alwaysavailable",
	CurrentVersionNo: "currentversionno",
	IsPublished:      "ispublished",
	Tag:              "tag",
	CreatedAt:        "createdat",
	ModifiedAt:       "modifiedat",
}

// Columns returns all standard column names
func (t CmsContentTable) Columns() []string {
	return []string{
		t.ID, t.ContentTypeID, t.RemoteID, t.MainLanguageCode, t.AlwaysAvailable,
		t.CurrentVersionNo, t.IsPublished, t.Tag, t.CreatedAt, t.ModifiedAt,
	}
}
