package trend

import (
	"sort"

	"mommydata/pkg/models"
)

// Factor maps a public factor name to its mother-table columns.
type Factor struct {
	Name string
	// FlagColumn is the boolean presence/absence column.
	FlagColumn string
	// SubgroupColumn holds the finer breakdown (e.g. diabetes type).
	SubgroupColumn string
}

var factors = map[string]Factor{
	"diabetes": {
		Name:           "diabetes",
		FlagColumn:     models.ColDiabetesPre,
		SubgroupColumn: models.ColDiabetesSubgroup,
	},
	"hypertension": {
		Name:           "hypertension",
		FlagColumn:     models.ColHypertensionPre,
		SubgroupColumn: models.ColHypertensionSubgroup,
	},
}

// LookupFactor resolves a factor by its exact name.
func LookupFactor(name string) (Factor, bool) {
	f, ok := factors[name]
	return f, ok
}

// FactorNames lists the recognized factors in sorted order.
func FactorNames() []string {
	names := make([]string, 0, len(factors))
	for name := range factors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
