package scenario

import (
	"mommydata/pkg/core/filter"
	"mommydata/pkg/models"
)

// Scenario names.
const (
	Preparing = "preparing"
	Pregnant  = "pregnant"
)

// PreparingProfile holds the attributes a user preparing for pregnancy may
// supply. Empty strings and nil pointers mean "not supplied".
type PreparingProfile struct {
	AgeGroup     string `json:"age_group,omitempty"`
	Smoking      string `json:"smoking,omitempty"`
	BMI          string `json:"bmi,omitempty"`
	Diabetes     *bool  `json:"diabetes,omitempty"`
	Hypertension *bool  `json:"hypertension,omitempty"`
	LHD          string `json:"lhd,omitempty"`
}

// apply adds an equality predicate on the mother table for every supplied
// attribute.
func (p PreparingProfile) apply(b *filter.Builder) *filter.Builder {
	return b.EqString(models.ColAgeGroup, p.AgeGroup).
		EqString(models.ColSmokingStatus, p.Smoking).
		EqString(models.ColBMICategory, p.BMI).
		EqBool(models.ColDiabetesPre, p.Diabetes).
		EqBool(models.ColHypertensionPre, p.Hypertension).
		EqString(models.ColLHD, p.LHD)
}

// Attributes is the number of supplied attributes.
func (p PreparingProfile) Attributes() int {
	var b filter.Builder
	return p.apply(&b).Len()
}

// PregnantProfile holds the attributes of a currently pregnant user.
//
// AgeGroup and CurrentWeek are accepted for the client's benefit; birth and
// baby rows carry no maternal age, so neither restricts the breakdowns.
type PregnantProfile struct {
	AgeGroup      string `json:"age_group,omitempty"`
	AntenatalWeek string `json:"antenatal_week,omitempty"`
	CurrentWeek   *int   `json:"current_week,omitempty"`
	LHD           string `json:"lhd,omitempty"`
}

func (p PregnantProfile) applyBirth(b *filter.Builder) *filter.Builder {
	return b.EqString(models.ColLHD, p.LHD)
}

func (p PregnantProfile) applyAntenatal(b *filter.Builder) *filter.Builder {
	return b.EqString(models.ColFirstVisitCategory, p.AntenatalWeek).
		EqString(models.ColLHD, p.LHD)
}
