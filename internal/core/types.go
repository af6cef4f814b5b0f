// Package core provides the feed import pipeline.
// This package has no transport dependencies and can be used by any frontend.
package core

import (
	"context"
	"time"
)

// RawRow is one tokenized CSV row. Cells are positional and untyped.
type RawRow []string

// Cell returns the cell at pos, or "" when pos is out of range or unresolved.
func (r RawRow) Cell(pos int) string {
	if pos < 0 || pos >= len(r) {
		return ""
	}
	return r[pos]
}

// Field is a canonical output attribute of a FeedRecord.
type Field string

const (
	FieldName          Field = "name"
	FieldBrand         Field = "brand"
	FieldType          Field = "type"
	FieldAnimalType    Field = "animalType"
	FieldCategory      Field = "category"
	FieldEnergy        Field = "metabolizableEnergy"
	FieldProtein       Field = "protein"
	FieldFat           Field = "fat"
	FieldFiber         Field = "fiber"
	FieldAsh           Field = "ash"
	FieldMoisture      Field = "moisture"
	FieldCarbohydrates Field = "carbohydrates"
	FieldCalcium       Field = "calcium"
	FieldPhosphorus    Field = "phosphorus"
	FieldVitaminA      Field = "vitaminA"
	FieldVitaminD      Field = "vitaminD"
	FieldIngredients   Field = "ingredients"

	// FieldPurpose is read only as a fallback for a blank category cell.
	FieldPurpose Field = "purpose"
)

// FeedType is the physical form of a feed.
type FeedType string

const (
	FeedDry    FeedType = "dry"
	FeedWet    FeedType = "wet"
	FeedTreats FeedType = "treats"
)

// AnimalType is the species a feed is intended for.
type AnimalType string

const (
	AnimalDog  AnimalType = "dog"
	AnimalCat  AnimalType = "cat"
	AnimalBoth AnimalType = "both"
)

// Category is the life stage or purpose of a feed.
type Category string

const (
	CategoryPuppy      Category = "puppy"
	CategoryAdult      Category = "adult"
	CategorySenior     Category = "senior"
	CategoryWeightLoss Category = "weight_loss"
	CategoryDiet       Category = "diet"
)

// FeedRecord is the normalized form of one spreadsheet row.
//
// Every numeric field is finite and non-negative. Percentages are by mass,
// energy is kcal/kg, calcium and phosphorus are mg per 100 g.
type FeedRecord struct {
	Name                string     `json:"name" db:"name"`
	Brand               string     `json:"brand" db:"brand"`
	Type                FeedType   `json:"type" db:"type"`
	AnimalType          AnimalType `json:"animalType" db:"animal_type"`
	Category            Category   `json:"category" db:"category"`
	MetabolizableEnergy float64    `json:"metabolizableEnergy" db:"metabolizable_energy"`
	Protein             float64    `json:"protein" db:"protein"`
	Fat                 float64    `json:"fat" db:"fat"`
	Fiber               float64    `json:"fiber" db:"fiber"`
	Ash                 float64    `json:"ash" db:"ash"`
	Moisture            float64    `json:"moisture" db:"moisture"`
	Carbohydrates       float64    `json:"carbohydrates" db:"carbohydrates"`
	Calcium             float64    `json:"calcium" db:"calcium"`
	Phosphorus          float64    `json:"phosphorus" db:"phosphorus"`
	VitaminA            float64    `json:"vitaminA" db:"vitamin_a"`
	VitaminD            float64    `json:"vitaminD" db:"vitamin_d"`
	Ingredients         string     `json:"ingredients" db:"ingredients"`

	// Line is the 1-based source line of the row; 0 when not sheet-derived.
	Line int `json:"line,omitempty" db:"-"`
}

// StoredFeed is a public feed as read back from the store.
type StoredFeed struct {
	FeedRecord
	ID        int64     `json:"id" db:"id"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// ImportOptions controls one import call.
type ImportOptions struct {
	// ReplaceExisting removes every public feed before inserting.
	ReplaceExisting bool

	// Source describes where the rows came from, for logging and history.
	Source string
}

// RecordFailure describes a record the store rejected.
type RecordFailure struct {
	Line   int    `json:"line,omitempty"`
	Name   string `json:"name"`
	Reason string `json:"reason"`
	Code   string `json:"code"`
}

// ImportSummary is the outcome of a committed import.
// Imported + Errors always equals the number of records handed to the store.
type ImportSummary struct {
	ImportID  string          `json:"importId"`
	Source    string          `json:"source,omitempty"`
	Imported  int             `json:"importedCount"`
	Errors    int             `json:"errorCount"`
	TotalRows int             `json:"totalRows"`
	Skipped   int             `json:"skippedRows"`
	Replaced  int64           `json:"replacedCount"`
	Failures  []RecordFailure `json:"failures,omitempty"`
	Duration  time.Duration   `json:"durationNs"`
}

// ImportRun is the history entry written alongside a committed import.
type ImportRun struct {
	ID        string    `db:"id"`
	Source    string    `db:"source"`
	Imported  int       `db:"imported"`
	Errors    int       `db:"errors"`
	TotalRows int       `db:"total_rows"`
	Replaced  int64     `db:"replaced"`
	CreatedAt time.Time `db:"created_at"`
}

// FeedStore is the persistence target of the pipeline.
type FeedStore interface {
	// BeginImport opens the transaction that scopes one whole batch.
	BeginImport(ctx context.Context) (FeedTx, error)

	// PublicFeeds returns every feed without an owner, ordered by name.
	PublicFeeds(ctx context.Context) ([]StoredFeed, error)
}

// FeedTx is a batch transaction. Savepoints isolate single-record failures
// without aborting the batch.
type FeedTx interface {
	DeletePublicFeeds(ctx context.Context) (int64, error)
	Savepoint(ctx context.Context, name string) error
	RollbackToSavepoint(ctx context.Context, name string) error
	ReleaseSavepoint(ctx context.Context, name string) error
	InsertFeed(ctx context.Context, rec FeedRecord) error
	RecordImport(ctx context.Context, run ImportRun) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}
