package ingest

import (
	"regexp"
	"strings"

	"mommydata/pkg/models"
)

// NormalizeColumn maps a spreadsheet header or sheet name to snake_case:
// "Age Group" and "age-group" both become "age_group".
func NormalizeColumn(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(s)
}

// =============================================================================
// LABEL NORMALIZERS
// Spreadsheet labels are mapped onto the values the query filters use.
// =============================================================================

var (
	ageRangeRe = regexp.MustCompile(`(\d+)\s*(?:-|–|—|to)\s*(\d+)`)
	ageOpenRe  = regexp.MustCompile(`^\d+\+$`)
)

// AgeGroup returns the canonical "lo-hi" (or "40+") form of an age label.
// ok is false for totals, headers and labels that are not an age range.
func AgeGroup(label string) (string, bool) {
	s := strings.TrimSpace(label)
	lower := strings.ToLower(s)
	for _, skip := range []string{"maternal", "age", "year", "total", "all", "not stated"} {
		if strings.Contains(lower, skip) {
			return "", false
		}
	}
	if m := ageRangeRe.FindStringSubmatch(lower); m != nil {
		return m[1] + "-" + m[2], true
	}
	if ageOpenRe.MatchString(s) {
		return s, true
	}
	return "", false
}

// BMICategory maps a BMI label to underweight, normal, overweight or obese.
// Unrecognised labels are returned lowercased.
func BMICategory(label string) string {
	s := strings.ToLower(strings.TrimSpace(label))
	switch {
	case strings.Contains(s, "underweight"), strings.Contains(s, "<18.5"):
		return "underweight"
	case strings.Contains(s, "normal"), strings.Contains(s, "18.5-24.9"):
		return "normal"
	case strings.Contains(s, "overweight"), strings.Contains(s, "25-29.9"):
		return "overweight"
	case strings.Contains(s, "obese"), strings.Contains(s, "≥30"), strings.Contains(s, ">=30"):
		return "obese"
	}
	return s
}

// SmokingStatus maps a smoking label to yes or no. Unrecognised labels,
// "not stated" included, are returned lowercased.
func SmokingStatus(label string) string {
	s := strings.ToLower(strings.TrimSpace(label))
	switch {
	case strings.Contains(s, "not stated"):
		return s
	case strings.HasPrefix(s, "no"), strings.Contains(s, "non-smoker"),
		strings.Contains(s, "did not"), strings.Contains(s, "never"):
		return "no"
	case strings.HasPrefix(s, "yes"), strings.Contains(s, "smoke"):
		return "yes"
	}
	return s
}

var labelNormalizers = map[string]map[string]func(string) string{
	models.TableMother: {
		models.ColBMICategory:   BMICategory,
		models.ColSmokingStatus: SmokingStatus,
	},
}

// normalizeLabels rewrites free-text labels in place. A mother row whose
// age label is not a real age range keeps the row with a NULL age group.
func normalizeLabels(table string, rec models.Record) {
	if table == models.TableMother {
		if label, ok := rec[models.ColAgeGroup].(string); ok {
			if ag, ok := AgeGroup(label); ok {
				rec[models.ColAgeGroup] = ag
			} else {
				delete(rec, models.ColAgeGroup)
			}
		}
	}
	for col, fn := range labelNormalizers[table] {
		if label, ok := rec[col].(string); ok {
			rec[col] = fn(label)
		}
	}
}

// =============================================================================
// DERIVED CATEGORIES
// Raw measurements are bucketed when a row carries the measurement but
// not its category.
// =============================================================================

// FirstVisitCategory buckets the gestational week of the first antenatal visit.
func FirstVisitCategory(week float64) string {
	switch {
	case week < 12:
		return "<12"
	case week <= 20:
		return "12-20"
	default:
		return ">20"
	}
}

// GestationalAgeCategory buckets gestational age in weeks.
func GestationalAgeCategory(weeks float64) string {
	switch {
	case weeks < 37:
		return "preterm"
	case weeks < 42:
		return "term"
	default:
		return "post-term"
	}
}

// BirthWeightCategory buckets birth weight in grams.
func BirthWeightCategory(grams float64) string {
	switch {
	case grams < 2500:
		return "low"
	case grams <= 4000:
		return "normal"
	default:
		return "high"
	}
}

// ApgarCategory buckets a five-minute Apgar score.
func ApgarCategory(score float64) string {
	if score < 7 {
		return "low"
	}
	return "normal"
}

type derivation struct {
	source, target string
	bucket         func(float64) string
}

var derivations = map[string][]derivation{
	models.TableAntenatalCare: {
		{models.ColFirstVisitWeek, models.ColFirstVisitCategory, FirstVisitCategory},
	},
	models.TableBirth: {
		{models.ColGestationalAge, models.ColGestationalAgeCategory, GestationalAgeCategory},
	},
	models.TableBaby: {
		{models.ColBirthWeight, models.ColBirthWeightCategory, BirthWeightCategory},
		{models.ColApgarScore, models.ColApgarCategory, ApgarCategory},
	},
}

// deriveCategories fills empty category columns from their measurement.
// rec must already be coerced.
func deriveCategories(table string, rec models.Record) {
	for _, d := range derivations[table] {
		if rec[d.target] != nil {
			continue
		}
		var v float64
		switch n := rec[d.source].(type) {
		case int:
			v = float64(n)
		case float64:
			v = n
		default:
			continue
		}
		rec[d.target] = d.bucket(v)
	}
}
