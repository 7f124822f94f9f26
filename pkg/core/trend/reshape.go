package trend

import (
	"sort"
	"strings"
)

// Labels used in the reshaped output.
const (
	UnknownSubgroup = "Unknown"
	LabelYes        = "Yes"
	LabelNo         = "No"
	TotalSubgroup   = "Total"
)

// Series is the nested output: age_group -> label -> year -> value.
type Series map[string]map[string]map[int]float64

func (s Series) set(ageGroup, label string, year int, v float64) {
	labels, ok := s[ageGroup]
	if !ok {
		labels = make(map[string]map[int]float64)
		s[ageGroup] = labels
	}
	years, ok := labels[label]
	if !ok {
		years = make(map[int]float64)
		labels[label] = years
	}
	years[year] = v
}

// IsSentinelAgeGroup reports placeholder age groups that are not real
// categories: empty, "Total" and "Not stated" in any case.
func IsSentinelAgeGroup(ageGroup string) bool {
	switch strings.ToLower(ageGroup) {
	case "", "total", "not stated":
		return true
	}
	return false
}

// SubgroupRow is one (year, age_group, sub_group) mean from the store.
type SubgroupRow struct {
	Year       int
	AgeGroup   *string
	SubGroup   *string
	Percentage *float64
}

// ReshapeSubgroups builds the detailed view from grouped means. Rows with a
// sentinel age group are dropped; a missing sub-group becomes "Unknown"; a
// missing mean becomes 0.
func ReshapeSubgroups(rows []SubgroupRow) ([]int, Series) {
	out := make(Series)
	years := newYearSet()

	for _, row := range rows {
		if row.AgeGroup == nil || IsSentinelAgeGroup(*row.AgeGroup) {
			continue
		}
		label := UnknownSubgroup
		if row.SubGroup != nil && *row.SubGroup != "" {
			label = *row.SubGroup
		}
		pct := 0.0
		if row.Percentage != nil {
			pct = *row.Percentage
		}

		years.add(row.Year)
		out.set(*row.AgeGroup, label, row.Year, pct)
	}
	return years.sorted(), out
}

// FlagCountRow is one (year, age_group, factor flag) count from the store.
type FlagCountRow struct {
	Year      int
	AgeGroup  *string
	HasFactor bool
	Count     int64
}

// flagCounts is the per-(age_group, year) accumulator of the simple view.
type flagCounts struct {
	yes int64
	no  int64
}

type ageYear struct {
	ageGroup string
	year     int
}

// ReshapeYesNo builds the simple Yes/No view. Counts are stored per
// (age_group, year, flag) with a later row for the same key overwriting an
// earlier one. Pairs whose counts total zero are omitted from the series but
// their year is still reported.
func ReshapeYesNo(rows []FlagCountRow) ([]int, Series) {
	out := make(Series)
	years := newYearSet()
	counts := make(map[ageYear]*flagCounts)
	var order []ageYear

	for _, row := range rows {
		if row.AgeGroup == nil || IsSentinelAgeGroup(*row.AgeGroup) {
			continue
		}
		years.add(row.Year)

		key := ageYear{*row.AgeGroup, row.Year}
		c, ok := counts[key]
		if !ok {
			c = &flagCounts{}
			counts[key] = c
			order = append(order, key)
		}
		if row.HasFactor {
			c.yes = row.Count
		} else {
			c.no = row.Count
		}
	}

	for _, key := range order {
		c := counts[key]
		total := c.yes + c.no
		if total == 0 {
			continue
		}
		out.set(key.ageGroup, LabelYes, key.year, float64(c.yes)/float64(total)*100)
		out.set(key.ageGroup, LabelNo, key.year, float64(c.no)/float64(total)*100)
	}
	return years.sorted(), out
}

type yearSet map[int]struct{}

func newYearSet() yearSet { return make(yearSet) }

func (s yearSet) add(y int) { s[y] = struct{}{} }

func (s yearSet) sorted() []int {
	out := make([]int, 0, len(s))
	for y := range s {
		out = append(out, y)
	}
	sort.Ints(out)
	return out
}
