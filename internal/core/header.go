package core

// header.go maps human-authored sheet headers to canonical fields.
//
// Each canonical field owns an ordered list of lowercase aliases. A header
// cell matches a field when its normalized text contains any alias as a
// substring; the leftmost matching cell wins. Two fields may resolve to the
// same column, which is accepted rather than treated as an error.
//
// To support a new language or naming convention, append aliases to
// DefaultAliases. Resolution code never changes.

import (
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// FieldAliases binds a canonical field to the header substrings that identify it.
// Exact lists whole headers for words too generic to match as substrings.
type FieldAliases struct {
	Field   Field
	Aliases []string
	Exact   []string
}

// DefaultAliases is the alias table for Russian and English feed sheets.
// Single-letter aliases are deliberately absent: "p" or "a" would match
// nearly every header.
var DefaultAliases = []FieldAliases{
	{FieldName, []string{"назв", "наимен", "name"}, nil},
	{FieldBrand, []string{"бренд", "торгов", "производитель", "brand", "manufacturer"}, nil},
	{FieldType, []string{"тип корма", "вид корма", "тип", "feed type", "food type"}, []string{"type"}},
	{FieldAnimalType, []string{"вид живот", "животн", "собак", "кош", "animal", "species"}, nil},
	{FieldCategory, []string{"категор", "возраст", "стадия", "category", "life stage"}, nil},
	{FieldPurpose, []string{"назначен", "purpose"}, nil},
	{FieldEnergy, []string{"мэ", "ккал", "энерг", "metabolizable", "energy", "kcal"}, nil},
	{FieldProtein, []string{"белок", "протеин", "protein"}, nil},
	{FieldFat, []string{"жир", "fat"}, nil},
	{FieldFiber, []string{"клетчат", "пищ.волок", "волокн", "fiber", "fibre"}, nil},
	{FieldAsh, []string{"зола", "ash"}, nil},
	{FieldMoisture, []string{"влага", "влажн", "moisture"}, nil},
	{FieldCarbohydrates, []string{"перев.углев", "углев", "carbohydrate", "carbs", "nfe"}, nil},
	{FieldCalcium, []string{"кальц", "calcium"}, nil},
	{FieldPhosphorus, []string{"фосфор", "phosphorus"}, nil},
	{FieldVitaminA, []string{"витамин а", "витамин a", "vitamin a"}, nil},
	{FieldVitaminD, []string{"витамин d", "витамин д", "vitamin d", "d3"}, nil},
	{FieldIngredients, []string{"ингредиент", "состав", "ingredients", "composition"}, nil},
}

// HeaderIndex records, per canonical field, the resolved column and the
// original header text of that column. The header text is kept because
// unit inference depends on it.
type HeaderIndex struct {
	columns map[Field]int
	headers map[Field]string
	order   []Field
}

// ResolveHeader resolves header against DefaultAliases.
func ResolveHeader(header RawRow) HeaderIndex {
	return ResolveHeaderWith(header, DefaultAliases)
}

// ResolveHeaderWith resolves header against a caller-supplied alias table.
func ResolveHeaderWith(header RawRow, table []FieldAliases) HeaderIndex {
	idx := HeaderIndex{
		columns: make(map[Field]int, len(table)),
		headers: make(map[Field]string, len(table)),
		order:   make([]Field, 0, len(table)),
	}

	normalized := make([]string, len(header))
	for i, h := range header {
		normalized[i] = normalizeHeader(h)
	}

	for _, entry := range table {
		idx.order = append(idx.order, entry.Field)
		aliases := normalizeAll(entry.Aliases)
		exact := normalizeAll(entry.Exact)

		for pos, h := range normalized {
			if containsAny(h, aliases) || slices.Contains(exact, h) {
				idx.columns[entry.Field] = pos
				idx.headers[entry.Field] = strings.TrimSpace(header[pos])
				break
			}
		}
	}

	return idx
}

// Column returns the column resolved for f.
func (h HeaderIndex) Column(f Field) (int, bool) {
	pos, ok := h.columns[f]
	return pos, ok
}

// Header returns the original header text of the column resolved for f,
// or "" when f is unresolved.
func (h HeaderIndex) Header(f Field) string {
	return h.headers[f]
}

// Value returns the cell of row for field f. Unresolved fields and short
// rows both yield "".
func (h HeaderIndex) Value(row RawRow, f Field) string {
	pos, ok := h.columns[f]
	if !ok {
		return ""
	}
	return row.Cell(pos)
}

// Resolved reports whether f matched a header cell.
func (h HeaderIndex) Resolved(f Field) bool {
	_, ok := h.columns[f]
	return ok
}

// Unresolved lists the fields with no matching header, in table order.
func (h HeaderIndex) Unresolved() []Field {
	var missing []Field
	for _, f := range h.order {
		if _, ok := h.columns[f]; !ok {
			missing = append(missing, f)
		}
	}
	return missing
}

// normalizeHeader lowercases and trims a header in NFC form, after removing
// spreadsheet artifacts.
func normalizeHeader(s string) string {
	s = strings.TrimPrefix(s, "\ufeff")
	return norm.NFC.String(strings.ToLower(CleanCell(s)))
}

func normalizeAll(in []string) []string {
	out := make([]string, len(in))
	for i, a := range in {
		out[i] = normalizeHeader(a)
	}
	return out
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if sub != "" && strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
