package dictionary

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository wraps the terminology store. All lookups and inserts assume a
// single writer: a lookup followed by an insert is not atomic on stores that
// lack the matching unique index, so only one import may run against a store
// at a time. Where the index exists the insert itself is a no-op on conflict.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// AutoMigrate creates the dictionary tables. The importer never calls it
// against a real store; it exists for tests and local sandboxes.
func (r *Repository) AutoMigrate() error {
	return r.db.AutoMigrate(
		&ConceptClass{}, &ConceptDatatype{}, &Concept{}, &ConceptName{},
		&ConceptDescription{}, &ConceptNumeric{}, &ReferenceSource{},
		&ReferenceTerm{}, &MapType{}, &ReferenceMap{}, &SetMember{}, &Answer{},
	)
}

// Transaction runs fn against a repository bound to a single transaction.
func (r *Repository) Transaction(ctx context.Context, fn func(tx *Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx})
	})
}

// insertIfAbsent inserts row unless a row matching the identity predicate is
// already present. It returns ErrDuplicateDefinition when nothing was written.
func insertIfAbsent[T any](ctx context.Context, db *gorm.DB, row *T, query string, args ...interface{}) error {
	var n int64
	if err := db.WithContext(ctx).Model(new(T)).Where(query, args...).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return ErrDuplicateDefinition
	}
	res := db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(row)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrDuplicateDefinition
	}
	return nil
}

func findOne[T any](ctx context.Context, db *gorm.DB, query string, args ...interface{}) (*T, error) {
	out := new(T)
	if err := db.WithContext(ctx).Where(query, args...).First(out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func newUUID(preferred string) string {
	if preferred != "" {
		return preferred
	}
	return uuid.New().String()
}

// EnsureClass returns the concept class with the given name, creating it
// when missing.
func (r *Repository) EnsureClass(ctx context.Context, name string, retired bool, creator int, now time.Time) (*ConceptClass, bool, error) {
	class, err := findOne[ConceptClass](ctx, r.db, "name = ?", name)
	if err == nil {
		return class, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}
	class = &ConceptClass{Name: name, Retired: retired, Creator: creator, DateCreated: now, UUID: newUUID("")}
	err = insertIfAbsent(ctx, r.db, class, "name = ?", name)
	if err == nil {
		return class, true, nil
	}
	if !errors.Is(err, ErrDuplicateDefinition) {
		return nil, false, err
	}
	class, err = findOne[ConceptClass](ctx, r.db, "name = ?", name)
	return class, false, err
}

// EnsureDatatype returns the concept datatype with the given name, creating
// it when missing. New datatypes carry the HL7 "ZZ" (unspecified) code.
func (r *Repository) EnsureDatatype(ctx context.Context, name string, creator int, now time.Time) (*ConceptDatatype, bool, error) {
	dt, err := findOne[ConceptDatatype](ctx, r.db, "name = ?", name)
	if err == nil {
		return dt, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}
	dt = &ConceptDatatype{Name: name, HL7Abbreviation: "ZZ", Creator: creator, DateCreated: now, UUID: newUUID("")}
	err = insertIfAbsent(ctx, r.db, dt, "name = ?", name)
	if err == nil {
		return dt, true, nil
	}
	if !errors.Is(err, ErrDuplicateDefinition) {
		return nil, false, err
	}
	dt, err = findOne[ConceptDatatype](ctx, r.db, "name = ?", name)
	return dt, false, err
}

// NameKey is the identity tuple of a concept name.
type NameKey struct {
	Name            string
	NameType        string
	Locale          string
	LocalePreferred bool
}

func (k NameKey) where(db *gorm.DB) *gorm.DB {
	q := db.Where("name = ? AND locale = ? AND locale_preferred = ?", k.Name, k.Locale, k.LocalePreferred)
	if k.NameType == "" {
		return q.Where("(concept_name_type IS NULL OR concept_name_type = '')")
	}
	return q.Where("concept_name_type = ?", k.NameType)
}

// FindNames returns every stored name matching the tuple, across concepts.
func (r *Repository) FindNames(ctx context.Context, key NameKey) ([]ConceptName, error) {
	var names []ConceptName
	err := key.where(r.db.WithContext(ctx).Model(&ConceptName{})).Order("concept_name_id").Find(&names).Error
	return names, err
}

// InsertName adds a name to a concept unless the tuple is already stored. The
// tuple identifies a name across the whole dictionary, so a tuple owned by
// another concept is not copied onto this one.
func (r *Repository) InsertName(ctx context.Context, name *ConceptName) error {
	key := NameKey{Name: name.Name, Locale: name.Locale, LocalePreferred: name.LocalePreferred}
	if name.NameType != nil {
		key.NameType = *name.NameType
	}
	var n int64
	q := key.where(r.db.WithContext(ctx).Model(&ConceptName{}))
	if err := q.Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return ErrDuplicateDefinition
	}
	return insertIfAbsent(ctx, r.db, name, "uuid = ?", name.UUID)
}

// InsertDescription keys descriptions on (concept, text, external id). A
// description without an external id gets a fresh uuid, so it is keyed on
// (concept, text) alone.
func (r *Repository) InsertDescription(ctx context.Context, d *ConceptDescription, externalID string) error {
	if externalID == "" {
		return insertIfAbsent(ctx, r.db, d, "concept_id = ? AND description = ?", d.ConceptID, d.Description)
	}
	return insertIfAbsent(ctx, r.db, d, "concept_id = ? AND description = ? AND uuid = ?", d.ConceptID, d.Description, externalID)
}

func (r *Repository) InsertNumeric(ctx context.Context, n *ConceptNumeric) error {
	return insertIfAbsent(ctx, r.db, n, "concept_id = ?", n.ConceptID)
}

func (r *Repository) FindConcept(ctx context.Context, id int) (*Concept, error) {
	return findOne[Concept](ctx, r.db, "concept_id = ?", id)
}

func (r *Repository) FindConceptByUUID(ctx context.Context, id string) (*Concept, error) {
	return findOne[Concept](ctx, r.db, "uuid = ?", id)
}

func (r *Repository) ConceptExists(ctx context.Context, id int) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&Concept{}).Where("concept_id = ?", id).Count(&n).Error
	return n > 0, err
}

// MaxConceptID returns the highest concept id in the store, 0 when empty.
func (r *Repository) MaxConceptID(ctx context.Context) (int, error) {
	var maxID int
	err := r.db.WithContext(ctx).Model(&Concept{}).Select("COALESCE(MAX(concept_id), 0)").Scan(&maxID).Error
	return maxID, err
}

func (r *Repository) CreateConcept(ctx context.Context, c *Concept) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *Repository) FindSourceByName(ctx context.Context, name string) (*ReferenceSource, error) {
	src, err := findOne[ReferenceSource](ctx, r.db, "name = ?", name)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrReferenceSourceNotFound
	}
	return src, err
}

func (r *Repository) InsertSource(ctx context.Context, src *ReferenceSource) error {
	return insertIfAbsent(ctx, r.db, src, "name = ?", src.Name)
}

// ActiveSources lists reference sources that are not retired.
func (r *Repository) ActiveSources(ctx context.Context) ([]ReferenceSource, error) {
	var out []ReferenceSource
	err := r.db.WithContext(ctx).Where("retired = ?", false).Order("concept_source_id").Find(&out).Error
	return out, err
}

// EnsureTerm finds the term with code under source, creating it if missing.
func (r *Repository) EnsureTerm(ctx context.Context, sourceID int, code string, retired bool, creator int, now time.Time) (*ReferenceTerm, bool, error) {
	term, err := findOne[ReferenceTerm](ctx, r.db, "concept_source_id = ? AND code = ?", sourceID, code)
	if err == nil {
		return term, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}
	term = &ReferenceTerm{SourceID: sourceID, Code: code, Retired: retired, Creator: creator, DateCreated: now, UUID: newUUID("")}
	err = insertIfAbsent(ctx, r.db, term, "concept_source_id = ? AND code = ?", sourceID, code)
	if err == nil {
		return term, true, nil
	}
	if !errors.Is(err, ErrDuplicateDefinition) {
		return nil, false, err
	}
	term, err = findOne[ReferenceTerm](ctx, r.db, "concept_source_id = ? AND code = ?", sourceID, code)
	return term, false, err
}

// FindMapType looks a map type up by name, case-insensitively.
func (r *Repository) FindMapType(ctx context.Context, name string) (*MapType, error) {
	return findOne[MapType](ctx, r.db, "LOWER(name) = LOWER(?)", name)
}

func (r *Repository) CreateMapType(ctx context.Context, name string, creator int, now time.Time) (*MapType, error) {
	mt := &MapType{Name: name, Creator: creator, DateCreated: now, UUID: newUUID("")}
	if err := insertIfAbsent(ctx, r.db, mt, "LOWER(name) = LOWER(?)", name); err != nil {
		if errors.Is(err, ErrDuplicateDefinition) {
			return r.FindMapType(ctx, name)
		}
		return nil, err
	}
	return mt, nil
}

func (r *Repository) InsertSetMember(ctx context.Context, m *SetMember) error {
	return insertIfAbsent(ctx, r.db, m, "concept_set = ? AND concept_id = ?", m.OwnerID, m.MemberID)
}

func (r *Repository) InsertAnswer(ctx context.Context, a *Answer) error {
	return insertIfAbsent(ctx, r.db, a, "concept_id = ? AND answer_concept = ?", a.QuestionID, a.AnswerID)
}

func (r *Repository) InsertReferenceMap(ctx context.Context, m *ReferenceMap) error {
	return insertIfAbsent(ctx, r.db, m,
		"concept_reference_term_id = ? AND concept_id = ? AND concept_map_type_id = ?",
		m.TermID, m.ConceptID, m.MapTypeID)
}
