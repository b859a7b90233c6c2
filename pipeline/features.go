package pipeline

import (
	"fmt"
	"math"

	"hospcost/cleaning"

	"gonum.org/v1/gonum/mat"
)

// FeatureColumn pairs a model input name with its accessor.
type FeatureColumn struct {
	Name  string
	Value func(p *cleaning.Patient) float64
}

// FeatureColumns is the ordered model input. Matrices, coefficient reports
// and the hypothetical patient vector are all built from it.
var FeatureColumns = []FeatureColumn{
	{"date", func(p *cleaning.Patient) float64 { return float64(p.Date) }},
	{"children", func(p *cleaning.Patient) float64 { return float64(p.Children) }},
	{"Hospital tier", func(p *cleaning.Patient) float64 { return float64(p.HospitalTier) }},
	{"City tier", func(p *cleaning.Patient) float64 { return float64(p.CityTier) }},
	{"BMI", func(p *cleaning.Patient) float64 { return p.BMI }},
	{"HBA1C", func(p *cleaning.Patient) float64 { return p.HbA1c }},
	{"Heart Issues", func(p *cleaning.Patient) float64 { return float64(p.HeartIssues) }},
	{"Any Transplants", func(p *cleaning.Patient) float64 { return float64(p.AnyTransplants) }},
	{"Cancer history", func(p *cleaning.Patient) float64 { return float64(p.CancerHistory) }},
	{"NumberOfMajorSurgeries", func(p *cleaning.Patient) float64 { return float64(p.NumberOfMajorSurgeries) }},
	{"smoker", func(p *cleaning.Patient) float64 { return float64(p.Smoker) }},
	{"State_ID_R1011", func(p *cleaning.Patient) float64 { return float64(p.StateR1011) }},
	{"State_ID_R1012", func(p *cleaning.Patient) float64 { return float64(p.StateR1012) }},
	{"State_ID_R1013", func(p *cleaning.Patient) float64 { return float64(p.StateR1013) }},
	{"age", func(p *cleaning.Patient) float64 { return float64(p.Age) }},
	{"gender", func(p *cleaning.Patient) float64 { return float64(p.Gender) }},
}

// FeatureNames returns the names of FeatureColumns in order.
func FeatureNames() []string {
	names := make([]string, len(FeatureColumns))
	for i, c := range FeatureColumns {
		names[i] = c.Name
	}
	return names
}

// FeatureVector builds one input row for p.
func FeatureVector(p *cleaning.Patient) []float64 {
	x := make([]float64, len(FeatureColumns))
	for j, c := range FeatureColumns {
		x[j] = c.Value(p)
	}
	return x
}

// FeatureMatrix builds the input matrix and charges target of patients.
func FeatureMatrix(patients []cleaning.Patient) (*mat.Dense, []float64, error) {
	if len(patients) == 0 {
		return nil, nil, fmt.Errorf("no patients to train on")
	}
	X := mat.NewDense(len(patients), len(FeatureColumns), nil)
	y := make([]float64, len(patients))
	for i := range patients {
		p := &patients[i]
		x := FeatureVector(p)
		for j, v := range x {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, nil, fmt.Errorf("customer %s: %s=%v: %w", p.CustomerID, FeatureColumns[j].Name, v, ErrNonNumeric)
			}
		}
		if math.IsNaN(p.Charges) || math.IsInf(p.Charges, 0) {
			return nil, nil, fmt.Errorf("customer %s: charges=%v: %w", p.CustomerID, p.Charges, ErrNonNumeric)
		}
		X.SetRow(i, x)
		y[i] = p.Charges
	}
	return X, y, nil
}

// HypotheticalPatient describes the one new patient priced after training.
// Fields are matched to FeatureColumns by name through Patient.
type HypotheticalPatient struct {
	Date                   int     `yaml:"date"`
	Children               int     `yaml:"children"`
	HospitalTier           int     `yaml:"hospital_tier"`
	CityTier               int     `yaml:"city_tier"`
	BMI                    float64 `yaml:"bmi"`
	HbA1c                  float64 `yaml:"hba1c"`
	HeartIssues            bool    `yaml:"heart_issues"`
	AnyTransplants         bool    `yaml:"any_transplants"`
	CancerHistory          bool    `yaml:"cancer_history"`
	NumberOfMajorSurgeries int     `yaml:"major_surgeries"`
	Smoker                 bool    `yaml:"smoker"`
	Region                 string  `yaml:"region"`
	Age                    int     `yaml:"age"`
	Female                 bool    `yaml:"female"`
}

// DefaultPatient is the patient priced when no configuration overrides it.
func DefaultPatient() HypotheticalPatient {
	return HypotheticalPatient{
		Date:         1,
		Children:     2,
		HospitalTier: 1,
		CityTier:     1,
		BMI:          29.41,
		HbA1c:        5.8,
		Smoker:       true,
		Region:       "R1011",
		Age:          34,
		Female:       true,
	}
}

// Patient converts h into the cleaned record shape.
func (h HypotheticalPatient) Patient() cleaning.Patient {
	flags := cleaning.RegionFlags(h.Region)
	gender := 1
	if h.Female {
		gender = 0
	}
	return cleaning.Patient{
		CustomerID:             "hypothetical",
		Date:                   h.Date,
		Children:               h.Children,
		HospitalTier:           h.HospitalTier,
		CityTier:               h.CityTier,
		StateR1011:             flags[0],
		StateR1012:             flags[1],
		StateR1013:             flags[2],
		BMI:                    h.BMI,
		HbA1c:                  h.HbA1c,
		HeartIssues:            b2i(h.HeartIssues),
		AnyTransplants:         b2i(h.AnyTransplants),
		CancerHistory:          b2i(h.CancerHistory),
		NumberOfMajorSurgeries: h.NumberOfMajorSurgeries,
		Smoker:                 b2i(h.Smoker),
		Age:                    h.Age,
		Gender:                 gender,
	}
}

// Vector is the model input row of h.
func (h HypotheticalPatient) Vector() []float64 {
	p := h.Patient()
	return FeatureVector(&p)
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}
