package core

// normalize.go converts raw spreadsheet cells into typed, unit-consistent values.
//
// Every function here is total: absent or unparseable input maps to the
// field's default, never to an error. Spreadsheet exports routinely carry
// units in cells ("25 %", "3 600 ккал"), decimal commas, Excel formula
// wrappers (="12,5") and free-text categories, so the rules are lenient by
// construction.

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	// numericJunk matches every character that cannot be part of a number.
	numericJunk = regexp.MustCompile(`[^0-9,.\-]`)

	// numericPrefix matches the longest leading decimal number.
	numericPrefix = regexp.MustCompile(`^-?(\d+(\.\d*)?|\.\d+)`)
)

// Marker tables. Each entry is checked in order and the first marker found
// as a substring of the lowercased cell wins.
type marker[T any] struct {
	value   T
	needles []string
}

var feedTypeMarkers = []marker[FeedType]{
	{FeedDry, []string{"сух", "dry"}},
	{FeedWet, []string{"влаж", "wet", "консерв"}},
	{FeedTreats, []string{"лаком", "дополн", "treat", "supplement"}},
}

var animalTypeMarkers = []marker[AnimalType]{
	{AnimalCat, []string{"кош", "кот", "cat"}},
	{AnimalDog, []string{"соб", "dog"}},
	{AnimalBoth, []string{"both", "оба"}},
}

var categoryMarkers = []marker[Category]{
	{CategoryPuppy, []string{"щен", "котен", "юниор", "puppy", "kitten", "junior"}},
	{CategorySenior, []string{"пожил", "senior"}},
	{CategoryWeightLoss, []string{"вес", "похуд", "weight"}},
	{CategoryDiet, []string{"диет", "therap", "терап", "diet"}},
}

// mineralMgMarkers identify a calcium/phosphorus header already in mg per 100 g.
var mineralMgMarkers = []string{"мг", "mg"}

// energyPer100gMarkers identify an energy header expressed per 100 g.
var energyPer100gMarkers = []string{"/100", "100 г", "100г", "100 g", "100g"}

// mineralPercentCeiling is the largest value read as a percentage.
const mineralPercentCeiling = 10

// TextCell trims a free-text cell. Quotes are content; only a balanced
// Excel formula wrapper (="...") is unwrapped.
func TextCell(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 3 && strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = strings.TrimSpace(s[2 : len(s)-1])
	}
	return s
}

// CleanCell removes common CSV artifacts from a numeric or enum cell value:
// leading/trailing whitespace, Excel formula wrappers (="..."), and
// surrounding quotes.
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	s = strings.Trim(s, `"'`)
	return strings.TrimSpace(s)
}

// ParseNumber coerces a cell to a float. Everything except digits, commas,
// periods and minus signs is stripped, the first comma becomes the decimal
// point, and the longest leading number is parsed. Unparseable or
// non-finite input yields 0.
func ParseNumber(s string) float64 {
	s = numericJunk.ReplaceAllString(CleanCell(s), "")
	s = strings.Replace(s, ",", ".", 1)

	m := numericPrefix.FindString(s)
	if m == "" {
		return 0
	}

	n, err := strconv.ParseFloat(m, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0
	}
	return n
}

// MapFeedType maps free text to a FeedType, defaulting to dry.
func MapFeedType(s string) FeedType {
	return matchMarker(s, feedTypeMarkers, FeedDry)
}

// MapAnimalType maps free text to an AnimalType, defaulting to dog.
func MapAnimalType(s string) AnimalType {
	return matchMarker(s, animalTypeMarkers, AnimalDog)
}

// MapCategory maps free text to a Category, defaulting to adult.
// Puppy beats senior beats weight_loss beats diet.
func MapCategory(s string) Category {
	return matchMarker(s, categoryMarkers, CategoryAdult)
}

// NormalizeMineral returns calcium or phosphorus in mg per 100 g.
//
// A header carrying a milligram marker, or a value above 10, is taken as
// mg per 100 g already. Anything else is a percentage and is scaled by
// 1000 and rounded. Values between 10 and 15 percent are therefore read as
// milligrams; real feeds never get there.
func NormalizeMineral(value float64, header string) float64 {
	value = nonNegative(value)
	if containsAny(strings.ToLower(header), mineralMgMarkers) || value > mineralPercentCeiling {
		return value
	}
	return math.Round(value * 1000)
}

// NormalizeEnergy returns metabolizable energy in kcal/kg. Headers labelled
// per 100 g are scaled by 10 and rounded.
func NormalizeEnergy(value float64, header string) float64 {
	value = nonNegative(value)
	if containsAny(strings.ToLower(header), energyPer100gMarkers) {
		return math.Round(value * 10)
	}
	return value
}

// DeriveCarbohydrates returns the carbohydrate percentage of rec.
//
// A non-zero explicit value wins. Otherwise carbohydrates are the remainder
// of 100 after protein, fat, fiber, ash and moisture, clamped at 0. An
// all-zero proximate analysis yields 0 rather than 100.
func DeriveCarbohydrates(explicit float64, rec FeedRecord) float64 {
	if explicit > 0 {
		return explicit
	}

	parts := []float64{rec.Protein, rec.Fat, rec.Fiber, rec.Ash, rec.Moisture}
	var sum float64
	var seen bool
	for _, p := range parts {
		if p != 0 {
			seen = true
		}
		sum += p
	}
	if !seen {
		return 0
	}
	return math.Max(0, 100-sum)
}

func matchMarker[T any](s string, table []marker[T], def T) T {
	s = strings.ToLower(CleanCell(s))
	if s == "" {
		return def
	}
	for _, m := range table {
		if containsAny(s, m.needles) {
			return m.value
		}
	}
	return def
}

func nonNegative(v float64) float64 {
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
