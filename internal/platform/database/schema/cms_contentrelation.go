package schema

// CmsContentRelationTable represents the 'cms.contentrelation' table
type CmsContentRelationTable struct {
	Table                string
	ID                   string
	SourceContentID      string
	SourceVersionNo      string
	DestinationContentID string
	RelationType         string
	FieldIdentifier      string
}

// CmsContentRelation is the schema definition for cms.contentrelation
var CmsContentRelation = CmsContentRelationTable{
	Table:                "cms.contentrelation",
	ID:                   "id",
	SourceContentID:      "sourcecontentid",
	SourceVersionNo:      "sourceversionno",
	DestinationContentID: "destinationcontentid",
	RelationType:         "relationtype",
	FieldIdentifier:      "fieldidentifier",
}
