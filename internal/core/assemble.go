package core

import (
	"context"
	"strings"
)

// FirstDataLine is the source line of the first data row; line 1 is the header.
const FirstDataLine = 2

// Assemble builds one FeedRecord per usable data row. Rows that are blank or
// have an empty name are skipped and counted, not reported as errors. Order
// is preserved and duplicate names are kept.
//
// ctx is checked every ContextCheckInterval rows.
func Assemble(ctx context.Context, dataRows []RawRow, idx HeaderIndex) ([]FeedRecord, int, error) {
	records := make([]FeedRecord, 0, len(dataRows))
	skipped := 0

	for i, row := range dataRows {
		if i%ContextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, skipped, err
			}
		}

		if isEmptyRow(row) {
			skipped++
			continue
		}

		rec, ok := AssembleRow(row, idx)
		if !ok {
			skipped++
			continue
		}
		rec.Line = i + FirstDataLine
		records = append(records, rec)
	}

	return records, skipped, nil
}

// AssembleRow normalizes a single row. It reports false when the row has no
// name.
func AssembleRow(row RawRow, idx HeaderIndex) (FeedRecord, bool) {
	text := func(f Field) string { return TextCell(idx.Value(row, f)) }
	enum := func(f Field) string { return CleanCell(idx.Value(row, f)) }
	num := func(f Field) float64 { return nonNegative(ParseNumber(idx.Value(row, f))) }

	name := text(FieldName)
	if name == "" {
		return FeedRecord{}, false
	}

	rec := FeedRecord{
		Name:        name,
		Brand:       text(FieldBrand),
		Type:        MapFeedType(enum(FieldType)),
		AnimalType:  MapAnimalType(enum(FieldAnimalType)),
		Category:    MapCategory(categoryCell(row, idx)),
		Protein:     num(FieldProtein),
		Fat:         num(FieldFat),
		Fiber:       num(FieldFiber),
		Ash:         num(FieldAsh),
		Moisture:    num(FieldMoisture),
		VitaminA:    num(FieldVitaminA),
		VitaminD:    num(FieldVitaminD),
		Ingredients: text(FieldIngredients),
	}

	rec.MetabolizableEnergy = NormalizeEnergy(num(FieldEnergy), idx.Header(FieldEnergy))
	rec.Calcium = NormalizeMineral(num(FieldCalcium), idx.Header(FieldCalcium))
	rec.Phosphorus = NormalizeMineral(num(FieldPhosphorus), idx.Header(FieldPhosphorus))
	rec.Carbohydrates = DeriveCarbohydrates(num(FieldCarbohydrates), rec)

	return rec, true
}

// categoryCell returns the category cell, falling back to the purpose
// column when the category is blank.
func categoryCell(row RawRow, idx HeaderIndex) string {
	if c := CleanCell(idx.Value(row, FieldCategory)); c != "" {
		return c
	}
	return CleanCell(idx.Value(row, FieldPurpose))
}

func isEmptyRow(row RawRow) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
