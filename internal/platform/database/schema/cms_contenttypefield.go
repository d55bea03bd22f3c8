package schema

// CmsContentTypeFieldTable represents the 'cms.contenttypefield' table
type CmsContentTypeFieldTable struct {
	Table          string
	ID             string
	ContentTypeID  string
	Status         string
	Identifier     string
	FieldType      string
	Names          string
	Position       string
	IsRequired     string
	IsTranslatable string
	IsSearchable   string
	IsSingular     string
	DefaultValue   string
}

// CmsContentTypeField is the schema definition for cms.contenttypefield
var CmsContentTypeField = CmsContentTypeFieldTable{
	Table:          "cms.contenttypefield",
	ID:             "id",
	ContentTypeID:  "contenttypeid",
	Status:         "status",
	Identifier:     "identifier",
	FieldType:      "fieldtype",
	Names:          "names",
	Position:       "position",
	IsRequired:     "isrequired",
	IsTranslatable: "istranslatable",
	IsSearchable:   "issearchable",
	IsSingular:     "issingular",
	DefaultValue:   "defaultvalue",
}

// Columns returns all standard column names
func (t CmsContentTypeFieldTable) Columns() []string {
	return []string{
		t.ID, t.ContentTypeID, t.Status, t.Identifier, t.FieldType, t.Names, t.Position,
		t.IsRequired, t.IsTranslatable, t.IsSearchable, t.IsSingular, t.DefaultValue,
	}
}
