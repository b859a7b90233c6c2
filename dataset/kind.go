package dataset

import "fmt"

// Kind identifies one of the three source tables.
type Kind int

const (
	Names Kind = iota
	Details
	Medical
)

// Kinds lists the sources in join order.
var Kinds = []Kind{Names, Details, Medical}

func (k Kind) String() string {
	switch k {
	case Names:
		return "names"
	case Details:
		return "hospitalisation details"
	case Medical:
		return "medical examinations"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Columns returns the header of the source as written in the input files.
func (k Kind) Columns() []string {
	switch k {
	case Names:
		return []string{ColCustomerID, ColName}
	case Details:
		return []string{ColCustomerID, ColYear, ColMonth, ColDate, ColChildren,
			ColCharges, ColHospitalTier, ColCityTier, ColStateID}
	case Medical:
		return []string{ColCustomerID, ColBMI, ColHbA1c, ColHeartIssues,
			ColAnyTransplants, ColCancerHistory, ColSurgeries, ColSmoker}
	}
	return nil
}

// sqlTable is the PostgreSQL table holding the source.
func (k Kind) sqlTable() string {
	switch k {
	case Names:
		return "patient_names"
	case Details:
		return "hospitalisation_details"
	case Medical:
		return "medical_examinations"
	}
	return ""
}

// sqlColumns maps Columns() one to one onto snake_case SQL column names.
func (k Kind) sqlColumns() []string {
	switch k {
	case Names:
		return []string{"customer_id", "name"}
	case Details:
		return []string{"customer_id", "year", "month", "date", "children",
			"charges", "hospital_tier", "city_tier", "state_id"}
	case Medical:
		return []string{"customer_id", "bmi", "hba1c", "heart_issues",
			"any_transplants", "cancer_history", "number_of_major_surgeries", "smoker"}
	}
	return nil
}
