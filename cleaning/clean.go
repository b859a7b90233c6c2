package cleaning

import (
	"strconv"
	"strings"
	"time"

	"hospcost/dataset"
)

// Patient is one cleaned, fully numeric record.
type Patient struct {
	CustomerID string
	Name       string

	Year     int
	Month    time.Month
	Date     int
	Children int
	Charges  float64

	HospitalTier int
	CityTier     int
	StateR1011   int
	StateR1012   int
	StateR1013   int

	BMI                    float64
	HbA1c                  float64
	HeartIssues            int
	AnyTransplants         int
	CancerHistory          int
	NumberOfMajorSurgeries int
	Smoker                 int

	DOB    time.Time
	Age    int
	Gender int
}

// Options controls Clean.
type Options struct {
	// Sentinel marks a missing cell. Rows holding it in any column are dropped.
	Sentinel string
	// Now is the reference time for ages. Nil means time.Now.
	Now func() time.Time
}

// Result is the cleaned table plus row statistics.
type Result struct {
	Patients []Patient
	Input    int
	Dropped  int
}

var requiredColumns = []string{
	dataset.ColCustomerID, dataset.ColName,
	dataset.ColYear, dataset.ColMonth, dataset.ColDate, dataset.ColChildren,
	dataset.ColCharges, dataset.ColHospitalTier, dataset.ColCityTier, dataset.ColStateID,
	dataset.ColBMI, dataset.ColHbA1c, dataset.ColHeartIssues, dataset.ColAnyTransplants,
	dataset.ColCancerHistory, dataset.ColSurgeries, dataset.ColSmoker,
}

// DropSentinelRows removes every row in which some cell equals sentinel
// exactly, and returns how many rows were removed.
func DropSentinelRows(t *dataset.Table, sentinel string) (int, error) {
	return t.DropValue(sentinel)
}

// Clean drops sentinel rows from t and converts the rest into Patients. The
// first unconvertible cell aborts with a *CellError.
func Clean(t *dataset.Table, opts Options) (*Result, error) {
	if err := t.Require(requiredColumns...); err != nil {
		return nil, err
	}
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	ref := now()

	res := &Result{Input: t.Len()}
	if opts.Sentinel != "" {
		dropped, err := DropSentinelRows(t, opts.Sentinel)
		if err != nil {
			return nil, err
		}
		res.Dropped = dropped
	}

	res.Patients = make([]Patient, 0, t.Len())
	for _, row := range t.Rows {
		p, err := convertRow(t, row, ref)
		if err != nil {
			return nil, err
		}
		res.Patients = append(res.Patients, p)
	}
	return res, nil
}

// rowConverter accumulates the first conversion failure of a row so the
// field assignments in convertRow stay flat.
type rowConverter struct {
	t   *dataset.Table
	row []string
	id  string
	err error
}

func (c *rowConverter) fail(col string, err error) {
	if c.err == nil {
		c.err = &CellError{CustomerID: c.id, Column: col, Value: c.t.Value(c.row, col), Err: err}
	}
}

// cell returns a value trimmed for parsing. Sources keep surrounding
// whitespace until the sentinel rows are gone.
func (c *rowConverter) cell(col string) string {
	return strings.TrimSpace(c.t.Value(c.row, col))
}

func (c *rowConverter) atoi(col string) int {
	n, err := strconv.Atoi(c.cell(col))
	if err != nil {
		c.fail(col, ErrBadNumber)
	}
	return n
}

func (c *rowConverter) parseFloat(col string) float64 {
	f, err := strconv.ParseFloat(c.cell(col), 64)
	if err != nil {
		c.fail(col, ErrBadNumber)
	}
	return f
}

func (c *rowConverter) binary(col string) int {
	v, err := EncodeBinary(c.cell(col))
	if err != nil {
		c.fail(col, err)
	}
	return v
}

func (c *rowConverter) tier(col string) int {
	v, err := ParseTier(c.cell(col))
	if err != nil {
		c.fail(col, err)
	}
	return v
}

func convertRow(t *dataset.Table, row []string, now time.Time) (Patient, error) {
	c := &rowConverter{t: t, row: row, id: t.Value(row, dataset.ColCustomerID)}

	p := Patient{
		CustomerID: c.id,
		Name:       t.Value(row, dataset.ColName),

		Date:     c.atoi(dataset.ColDate),
		Children: c.atoi(dataset.ColChildren),
		Charges:  c.parseFloat(dataset.ColCharges),

		HospitalTier: c.tier(dataset.ColHospitalTier),
		CityTier:     c.tier(dataset.ColCityTier),

		BMI:            c.parseFloat(dataset.ColBMI),
		HbA1c:          c.parseFloat(dataset.ColHbA1c),
		HeartIssues:    c.binary(dataset.ColHeartIssues),
		AnyTransplants: c.binary(dataset.ColAnyTransplants),
		CancerHistory:  c.binary(dataset.ColCancerHistory),
		Smoker:         c.binary(dataset.ColSmoker),
	}

	flags := RegionFlags(c.cell(dataset.ColStateID))
	p.StateR1011, p.StateR1012, p.StateR1013 = flags[0], flags[1], flags[2]

	surgeries, err := ParseSurgeries(c.cell(dataset.ColSurgeries))
	if err != nil {
		c.fail(dataset.ColSurgeries, err)
	}
	p.NumberOfMajorSurgeries = surgeries

	dob, err := BirthDate(c.cell(dataset.ColYear), c.cell(dataset.ColMonth))
	if err != nil {
		col := dataset.ColYear
		if _, yerr := time.Parse("2006", c.cell(dataset.ColYear)); yerr == nil {
			col = dataset.ColMonth
		}
		c.fail(col, err)
	}
	p.DOB = dob
	p.Year = dob.Year()
	p.Month = dob.Month()
	p.Age = Age(dob, now)
	p.Gender = Gender(p.Name)

	if c.err != nil {
		return Patient{}, c.err
	}
	return p, nil
}
