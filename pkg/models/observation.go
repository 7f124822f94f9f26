package models

// =============================================================================
// OBSERVATION SCHEMA
// Pre-aggregated NSW Mothers and Babies indicator tables. Every statistics
// table carries a year, a count column and a pre-computed percentage.
// =============================================================================

// Kind is the storage type of a column.
type Kind int

const (
	KindInt Kind = iota
	KindFloat
	KindString
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	default:
		return "unknown"
	}
}

// Table names
const (
	TableMother        = "mother"
	TableAntenatalCare = "antenatal_care"
	TableBirth         = "birth"
	TableBaby          = "baby"
	TableComplication  = "complication"
	TableHospital      = "hospital"
	TableHospitalStat  = "hospital_stat"
)

// Shared columns
const (
	ColID         = "id"
	ColYear       = "year"
	ColLHD        = "lhd"
	ColLGA        = "lga"
	ColPercentage = "percentage"
)

// mother
const (
	ColAgeGroup             = "age_group"
	ColSmokingStatus        = "smoking_status"
	ColBMICategory          = "bmi_category"
	ColDiabetesPre          = "diabetes_pre"
	ColHypertensionPre      = "hypertension_pre"
	ColDiabetesSubgroup     = "diabetes_subgroup"
	ColHypertensionSubgroup = "hypertension_subgroup"
	ColCulturalBackground   = "cultural_background"
	ColParity               = "parity"
	ColTotalMothers         = "total_mothers"
)

// antenatal_care
const (
	ColFirstVisitWeek     = "first_visit_week"
	ColFirstVisitCategory = "first_visit_category"
	ColVisitCount         = "visit_count"
	ColRiskLevel          = "risk_level"
	ColTotalCases         = "total_cases"
)

// birth
const (
	ColBirthType              = "birth_type"
	ColOnsetLabour            = "onset_labour"
	ColBirthLocation          = "birth_location"
	ColHospitalName           = "hospital_name"
	ColPainReliefType         = "pain_relief_type"
	ColHospitalStayDays       = "hospital_stay_days"
	ColGestationalAge         = "gestational_age"
	ColGestationalAgeCategory = "gestational_age_category"
	ColTotalBirths            = "total_births"
)

// baby
const (
	ColBirthWeight              = "birth_weight"
	ColBirthWeightCategory      = "birth_weight_category"
	ColApgarScore               = "apgar_score"
	ColApgarCategory            = "apgar_category"
	ColNICUAdmission            = "nicu_admission"
	ColSCUNICUAdmission         = "scunicu_admission"
	ColBreastfeedingInitiated   = "breastfeeding_initiated"
	ColBreastfeedingAtDischarge = "breastfeeding_at_discharge"
	ColTotalBabies              = "total_babies"
)

// complication
const (
	ColComplicationType = "complication_type"
	ColSeverity         = "severity"
)

// hospital / hospital_stat
const (
	ColHospitalType   = "hospital_type"
	ColHospitalLevel  = "hospital_level"
	ColHospitalID     = "hospital_id"
	ColMetricName     = "metric_name"
	ColMetricValue    = "metric_value"
	ColMetricCategory = "metric_category"
)

// Column describes one stored column.
type Column struct {
	Name string
	Kind Kind
}

// Table describes one observation table. CountColumn is empty for tables
// that carry no observation count.
type Table struct {
	Name        string
	Columns     []Column
	CountColumn string
}

// Column looks up a column by name.
func (t Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// HasColumn reports whether the table stores the named column.
func (t Table) HasColumn(name string) bool {
	_, ok := t.Column(name)
	return ok
}

// Tables is the full schema, in migration order.
var Tables = []Table{
	{
		Name: TableMother,
		Columns: []Column{
			{ColAgeGroup, KindString},
			{ColSmokingStatus, KindString},
			{ColBMICategory, KindString},
			{ColDiabetesPre, KindBool},
			{ColHypertensionPre, KindBool},
			{ColDiabetesSubgroup, KindString},
			{ColHypertensionSubgroup, KindString},
			{ColCulturalBackground, KindString},
			{ColLHD, KindString},
			{ColLGA, KindString},
			{ColParity, KindInt},
			{ColYear, KindInt},
			{ColTotalMothers, KindInt},
			{ColPercentage, KindFloat},
		},
		CountColumn: ColTotalMothers,
	},
	{
		Name: TableAntenatalCare,
		Columns: []Column{
			{ColFirstVisitWeek, KindInt},
			{ColFirstVisitCategory, KindString},
			{ColVisitCount, KindInt},
			{ColRiskLevel, KindString},
			{ColLHD, KindString},
			{ColYear, KindInt},
			{ColTotalCases, KindInt},
			{ColPercentage, KindFloat},
		},
		CountColumn: ColTotalCases,
	},
	{
		Name: TableBirth,
		Columns: []Column{
			{ColBirthType, KindString},
			{ColOnsetLabour, KindString},
			{ColBirthLocation, KindString},
			{ColHospitalName, KindString},
			{ColPainReliefType, KindString},
			{ColHospitalStayDays, KindFloat},
			{ColGestationalAge, KindInt},
			{ColGestationalAgeCategory, KindString},
			{ColLHD, KindString},
			{ColYear, KindInt},
			{ColTotalBirths, KindInt},
			{ColPercentage, KindFloat},
		},
		CountColumn: ColTotalBirths,
	},
	{
		Name: TableBaby,
		Columns: []Column{
			{ColBirthWeight, KindFloat},
			{ColBirthWeightCategory, KindString},
			{ColApgarScore, KindInt},
			{ColApgarCategory, KindString},
			{ColNICUAdmission, KindBool},
			{ColSCUNICUAdmission, KindBool},
			{ColBreastfeedingInitiated, KindBool},
			{ColBreastfeedingAtDischarge, KindBool},
			{ColLHD, KindString},
			{ColYear, KindInt},
			{ColTotalBabies, KindInt},
			{ColPercentage, KindFloat},
		},
		CountColumn: ColTotalBabies,
	},
	{
		Name: TableComplication,
		Columns: []Column{
			{ColComplicationType, KindString},
			{ColSeverity, KindString},
			{ColLHD, KindString},
			{ColYear, KindInt},
			{ColTotalCases, KindInt},
			{ColPercentage, KindFloat},
		},
		CountColumn: ColTotalCases,
	},
	{
		Name: TableHospital,
		Columns: []Column{
			{ColHospitalName, KindString},
			{ColLHD, KindString},
			{ColLGA, KindString},
			{ColHospitalType, KindString},
			{ColHospitalLevel, KindString},
			{ColYear, KindInt},
		},
	},
	{
		Name: TableHospitalStat,
		Columns: []Column{
			{ColHospitalID, KindInt},
			{ColMetricName, KindString},
			{ColMetricValue, KindFloat},
			{ColMetricCategory, KindString},
			{ColTotalCases, KindInt},
			{ColPercentage, KindFloat},
			{ColYear, KindInt},
		},
		CountColumn: ColTotalCases,
	},
}

// LookupTable finds a table by name.
func LookupTable(name string) (Table, bool) {
	for _, t := range Tables {
		if t.Name == name {
			return t, true
		}
	}
	return Table{}, false
}

// Record is one observation row keyed by column name.
// Values are int, float64, string, bool or nil (NULL).
type Record map[string]any
