package core

import (
	"math"
	"testing"
)

func TestTextCell(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"  Acme  ", "Acme"},
		{`Acme, Inc. "Premium"`, `Acme, Inc. "Premium"`},
		{`'Best' Foods`, `'Best' Foods`},
		{"=Sum Kibble", "=Sum Kibble"},
		{`="Acme"`, "Acme"},
		{`="`, `="`},
		{"", ""},
	}

	for _, tt := range tests {
		if got := TextCell(tt.input); got != tt.want {
			t.Errorf("TextCell(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestCleanCell(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"simple string unchanged", "hello", "hello"},
		{"empty string", "", ""},
		{"surrounded by whitespace", "  hello  ", "hello"},
		{"Excel formula with quotes", `="12,5"`, "12,5"},
		{"bare equals sign", "=SUM(A1)", "SUM(A1)"},
		{"double quotes", `"quoted"`, "quoted"},
		{"single quotes", `'quoted'`, "quoted"},
		{"inner whitespace after unwrapping", `=" Корм "`, "Корм"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanCell(tt.input); got != tt.want {
				t.Errorf("CleanCell(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		input string
		want  float64
	}{
		{"25", 25},
		{"25.5", 25.5},
		{"25,5", 25.5},
		{"25,5 %", 25.5},
		{"3 600 ккал", 3600},
		{"1,234,5", 1.234},
		{"1.2.3", 1.2},
		{".5", 0.5},
		{"5.", 5},
		{"-3", -3},
		{"", 0},
		{"н/д", 0},
		{"-", 0},
		{"--5", 0},
		{"abc", 0},
		{`="12,5"`, 12.5},
		{"1e5", 15},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := ParseNumber(tt.input)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("ParseNumber(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestMapFeedType(t *testing.T) {
	tests := []struct {
		input string
		want  FeedType
	}{
		{"Сухой", FeedDry},
		{"влажный", FeedWet},
		{"Лакомство", FeedTreats},
		{"Дополнительный корм", FeedTreats},
		{"Treats", FeedTreats},
		{"wet", FeedWet},
		{"", FeedDry},
		{"неизвестно", FeedDry},
	}

	for _, tt := range tests {
		if got := MapFeedType(tt.input); got != tt.want {
			t.Errorf("MapFeedType(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestMapAnimalType(t *testing.T) {
	tests := []struct {
		input string
		want  AnimalType
	}{
		{"Кошки", AnimalCat},
		{"для кошек", AnimalCat},
		{"Собаки", AnimalDog},
		{"Dog", AnimalDog},
		{"Cat", AnimalCat},
		{"оба", AnimalBoth},
		{"both", AnimalBoth},
		{"", AnimalDog},
		{"хорек", AnimalDog},
	}

	for _, tt := range tests {
		if got := MapAnimalType(tt.input); got != tt.want {
			t.Errorf("MapAnimalType(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestMapCategory(t *testing.T) {
	tests := []struct {
		input string
		want  Category
	}{
		{"Для щенков", CategoryPuppy},
		{"Котенок", CategoryPuppy},
		{"Юниор", CategoryPuppy},
		{"Для пожилых", CategorySenior},
		{"Senior", CategorySenior},
		{"Контроль веса", CategoryWeightLoss},
		{"Для похудения", CategoryWeightLoss},
		{"Диетический", CategoryDiet},
		{"Терапевтический", CategoryDiet},
		{"Взрослые", CategoryAdult},
		{"", CategoryAdult},
		// Precedence when several cues are present.
		{"senior diet", CategorySenior},
		{"щенки и пожилые", CategoryPuppy},
		{"weight therapy", CategoryWeightLoss},
	}

	for _, tt := range tests {
		if got := MapCategory(tt.input); got != tt.want {
			t.Errorf("MapCategory(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestNormalizeMineral(t *testing.T) {
	tests := []struct {
		name   string
		value  float64
		header string
		want   float64
	}{
		{"percentage without unit marker", 1.2, "Кальций", 1200},
		{"percentage with percent sign", 0.85, "Фосфор, %", 850},
		{"large value is already milligrams", 850, "Кальций", 850},
		{"milligram header passes through", 5, "Кальций, мг/100г", 5},
		{"latin milligram marker", 3, "Calcium, mg", 3},
		{"exactly ten is a percentage", 10, "Кальций", 10000},
		{"rounding", 1.2346, "Кальций", 1235},
		{"zero", 0, "Кальций", 0},
		{"negative clamps to zero", -1, "Кальций", 0},
		// 12 % calcium is unrealistic; the heuristic reads it as 12 mg.
		{"ambiguous boundary above ten", 12, "Кальций, %", 12},
		{"ambiguous boundary below ten", 9.9, "Кальций, %", 9900},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeMineral(tt.value, tt.header); got != tt.want {
				t.Errorf("NormalizeMineral(%v, %q) = %v, want %v", tt.value, tt.header, got, tt.want)
			}
		})
	}
}

func TestNormalizeEnergy(t *testing.T) {
	tests := []struct {
		value  float64
		header string
		want   float64
	}{
		{3600, "МЭ, ккал/кг", 3600},
		{360.4, "МЭ, ккал/100 г", 3604},
		{385, "Energy, kcal/100g", 3850},
		{390, "Энергия на 100г", 3900},
		{-5, "МЭ", 0},
	}

	for _, tt := range tests {
		if got := NormalizeEnergy(tt.value, tt.header); got != tt.want {
			t.Errorf("NormalizeEnergy(%v, %q) = %v, want %v", tt.value, tt.header, got, tt.want)
		}
	}
}

func TestDeriveCarbohydrates(t *testing.T) {
	analysis := FeedRecord{Protein: 25, Fat: 15, Fiber: 3, Ash: 7, Moisture: 10}

	tests := []struct {
		name     string
		explicit float64
		rec      FeedRecord
		want     float64
	}{
		{"derived from proximate analysis", 0, analysis, 40},
		{"explicit value wins", 33, analysis, 33},
		{"all blank stays zero", 0, FeedRecord{}, 0},
		{"single input is enough", 0, FeedRecord{Moisture: 78}, 22},
		{"over one hundred clamps to zero", 0, FeedRecord{Protein: 60, Fat: 50}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeriveCarbohydrates(tt.explicit, tt.rec); got != tt.want {
				t.Errorf("DeriveCarbohydrates() = %v, want %v", got, tt.want)
			}
		})
	}
}
