package dictionary

import "time"

// Row types for the OpenMRS concept dictionary tables. Only the columns the
// importer reads or writes are mapped; the unique indexes mirror the identity
// keys the importer relies on and are only created by AutoMigrate in tests.

type ConceptClass struct {
	ID          int       `gorm:"primaryKey;autoIncrement;column:concept_class_id"`
	Name        string    `gorm:"column:name;size:255;not null;uniqueIndex"`
	Description string    `gorm:"column:description;size:255"`
	Creator     int       `gorm:"column:creator;not null"`
	DateCreated time.Time `gorm:"column:date_created;not null"`
	Retired     bool      `gorm:"column:retired;not null"`
	UUID        string    `gorm:"column:uuid;size:38;not null;uniqueIndex"`
}

type ConceptDatatype struct {
	ID              int       `gorm:"primaryKey;autoIncrement;column:concept_datatype_id"`
	Name            string    `gorm:"column:name;size:255;not null;uniqueIndex"`
	HL7Abbreviation string    `gorm:"column:hl7_abbreviation;size:3"`
	Creator         int       `gorm:"column:creator;not null"`
	DateCreated     time.Time `gorm:"column:date_created;not null"`
	Retired         bool      `gorm:"column:retired;not null"`
	UUID            string    `gorm:"column:uuid;size:38;not null;uniqueIndex"`
}

type Concept struct {
	ID          int       `gorm:"primaryKey;autoIncrement:false;column:concept_id"`
	Retired     bool      `gorm:"column:retired;not null"`
	DatatypeID  int       `gorm:"column:datatype_id;not null"`
	ClassID     int       `gorm:"column:class_id;not null"`
	IsSet       bool      `gorm:"column:is_set;not null"`
	Creator     int       `gorm:"column:creator;not null"`
	DateCreated time.Time `gorm:"column:date_created;not null"`
	UUID        string    `gorm:"column:uuid;size:38;not null;uniqueIndex"`
}

type ConceptName struct {
	ID              int       `gorm:"primaryKey;autoIncrement;column:concept_name_id"`
	ConceptID       int       `gorm:"column:concept_id;not null;index"`
	Name            string    `gorm:"column:name;size:255;not null;uniqueIndex:idx_concept_name_tuple"`
	Locale          string    `gorm:"column:locale;size:50;not null;uniqueIndex:idx_concept_name_tuple"`
	LocalePreferred bool      `gorm:"column:locale_preferred;not null;uniqueIndex:idx_concept_name_tuple"`
	NameType        *string   `gorm:"column:concept_name_type;size:50;uniqueIndex:idx_concept_name_tuple"`
	Voided          bool      `gorm:"column:voided;not null"`
	Creator         int       `gorm:"column:creator;not null"`
	DateCreated     time.Time `gorm:"column:date_created;not null"`
	UUID            string    `gorm:"column:uuid;size:38;not null;uniqueIndex"`
}

type ConceptDescription struct {
	ID          int       `gorm:"primaryKey;autoIncrement;column:concept_description_id"`
	ConceptID   int       `gorm:"column:concept_id;not null;index"`
	Description string    `gorm:"column:description;type:text;not null"`
	Locale      string    `gorm:"column:locale;size:50;not null"`
	Creator     int       `gorm:"column:creator;not null"`
	DateCreated time.Time `gorm:"column:date_created;not null"`
	UUID        string    `gorm:"column:uuid;size:38;not null;uniqueIndex"`
}

type ConceptNumeric struct {
	ConceptID   int      `gorm:"primaryKey;autoIncrement:false;column:concept_id"`
	HiAbsolute  *float64 `gorm:"column:hi_absolute"`
	HiCritical  *float64 `gorm:"column:hi_critical"`
	HiNormal    *float64 `gorm:"column:hi_normal"`
	LowAbsolute *float64 `gorm:"column:low_absolute"`
	LowCritical *float64 `gorm:"column:low_critical"`
	LowNormal   *float64 `gorm:"column:low_normal"`
	Units       *string  `gorm:"column:units;size:50"`
	Precise     bool     `gorm:"column:precise;not null"`
}

type ReferenceSource struct {
	ID          int       `gorm:"primaryKey;autoIncrement;column:concept_source_id"`
	Name        string    `gorm:"column:name;size:50;not null;uniqueIndex"`
	Description string    `gorm:"column:description;type:text;not null"`
	HL7Code     *string   `gorm:"column:hl7_code;size:50"`
	Creator     int       `gorm:"column:creator;not null"`
	DateCreated time.Time `gorm:"column:date_created;not null"`
	Retired     bool      `gorm:"column:retired;not null"`
	UUID        string    `gorm:"column:uuid;size:38;not null;uniqueIndex"`
}

type ReferenceTerm struct {
	ID          int       `gorm:"primaryKey;autoIncrement;column:concept_reference_term_id"`
	SourceID    int       `gorm:"column:concept_source_id;not null;uniqueIndex:idx_reference_term_code"`
	Code        string    `gorm:"column:code;size:255;not null;uniqueIndex:idx_reference_term_code"`
	Creator     int       `gorm:"column:creator;not null"`
	DateCreated time.Time `gorm:"column:date_created;not null"`
	Retired     bool      `gorm:"column:retired;not null"`
	UUID        string    `gorm:"column:uuid;size:38;not null;uniqueIndex"`
}

type MapType struct {
	ID          int       `gorm:"primaryKey;autoIncrement;column:concept_map_type_id"`
	Name        string    `gorm:"column:name;size:255;not null;uniqueIndex"`
	Creator     int       `gorm:"column:creator;not null"`
	DateCreated time.Time `gorm:"column:date_created;not null"`
	IsHidden    bool      `gorm:"column:is_hidden;not null"`
	Retired     bool      `gorm:"column:retired;not null"`
	UUID        string    `gorm:"column:uuid;size:38;not null;uniqueIndex"`
}

type ReferenceMap struct {
	ID          int       `gorm:"primaryKey;autoIncrement;column:concept_map_id"`
	TermID      int       `gorm:"column:concept_reference_term_id;not null;uniqueIndex:idx_reference_map_edge"`
	ConceptID   int       `gorm:"column:concept_id;not null;uniqueIndex:idx_reference_map_edge"`
	MapTypeID   int       `gorm:"column:concept_map_type_id;not null;uniqueIndex:idx_reference_map_edge"`
	Creator     int       `gorm:"column:creator;not null"`
	DateCreated time.Time `gorm:"column:date_created;not null"`
	UUID        string    `gorm:"column:uuid;size:38;not null;uniqueIndex"`
}

type SetMember struct {
	ID          int       `gorm:"primaryKey;autoIncrement;column:concept_set_id"`
	MemberID    int       `gorm:"column:concept_id;not null;uniqueIndex:idx_concept_set_edge"`
	OwnerID     int       `gorm:"column:concept_set;not null;uniqueIndex:idx_concept_set_edge"`
	SortWeight  *float64  `gorm:"column:sort_weight"`
	Creator     int       `gorm:"column:creator;not null"`
	DateCreated time.Time `gorm:"column:date_created;not null"`
	UUID        string    `gorm:"column:uuid;size:38;not null;uniqueIndex"`
}

type Answer struct {
	ID          int       `gorm:"primaryKey;autoIncrement;column:concept_answer_id"`
	QuestionID  int       `gorm:"column:concept_id;not null;uniqueIndex:idx_concept_answer_edge"`
	AnswerID    int       `gorm:"column:answer_concept;not null;uniqueIndex:idx_concept_answer_edge"`
	SortWeight  *float64  `gorm:"column:sort_weight"`
	Creator     int       `gorm:"column:creator;not null"`
	DateCreated time.Time `gorm:"column:date_created;not null"`
	UUID        string    `gorm:"column:uuid;size:38;not null;uniqueIndex"`
}

func (ConceptClass) TableName() string       { return "concept_class" }
func (ConceptDatatype) TableName() string    { return "concept_datatype" }
func (Concept) TableName() string            { return "concept" }
func (ConceptName) TableName() string        { return "concept_name" }
func (ConceptDescription) TableName() string { return "concept_description" }
func (ConceptNumeric) TableName() string     { return "concept_numeric" }
func (ReferenceSource) TableName() string    { return "concept_reference_source" }
func (ReferenceTerm) TableName() string      { return "concept_reference_term" }
func (MapType) TableName() string            { return "concept_map_type" }
func (ReferenceMap) TableName() string       { return "concept_reference_map" }
func (SetMember) TableName() string          { return "concept_set" }
func (Answer) TableName() string             { return "concept_answer" }
