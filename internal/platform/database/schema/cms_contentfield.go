package schema

// CmsContentFieldTable represents the 'cms.contentfield' table
type CmsContentFieldTable struct {
	Table           string
	ContentID       string
	VersionNo       string
	FieldIdentifier string
	LanguageCode    string
	Value           string
}

// CmsContentField is the schema definition for cms.contentfield
var CmsContentField = CmsContentFieldTable{
	Table:           "cms.contentfield",
	ContentID:       "contentid",
	VersionNo:       "versionno",
	FieldIdentifier: "fieldidentifier",
	LanguageCode:    "languagecode",
	Value:           "value",
}
