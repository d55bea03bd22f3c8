package schema

// CmsContentVersionLanguageTable represents the 'cms.contentversionlanguage' table
type CmsContentVersionLanguageTable struct {
	Table        string
	ContentID    string
	VersionNo    string
	LanguageCode string
	Name         string
}

// CmsContentVersionLanguage is the schema definition for cms.contentversionlanguage
var CmsContentVersionLanguage = CmsContentVersionLanguageTable{
	Table:        "cms.contentversionlanguage",
	ContentID:    "contentid",
	VersionNo:    "versionno",
	LanguageCode: "languagecode",
	Name:         "name",
}
