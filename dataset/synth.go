package dataset

import (
	"fmt"
	"math"
	"strconv"

	"github.com/brianvoe/gofakeit/v7"
)

var (
	synthTitles  = []string{"Mr.", "Ms.", "Mrs."}
	synthMonths  = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}
	synthTiers   = []string{"tier - %d", "tier-%d", "tier -%d"}
	synthYesNo   = []string{"No", "yes"}
	synthSurgery = []string{"No major surgery", "1", "2", "3"}
)

// SynthesizeYear is the reference year used to derive synthetic charges from
// the year of birth.
const SynthesizeYear = 2025

// Synthesize builds three coherent source tables of n customers. Charges
// depend on the medical features so the models have something to learn.
// About one row in 37 carries a "?" sentinel and one customer in 41 has no
// medical record. The same seed always yields the same tables.
func Synthesize(n int, seed uint64) map[Kind]*Table {
	faker := gofakeit.New(seed)

	names := make([][]string, 0, n)
	details := make([][]string, 0, n)
	medical := make([][]string, 0, n)

	for i := 0; i < n; i++ {
		id := "Id" + strconv.Itoa(n-i)

		title := faker.RandomString(synthTitles)
		names = append(names, []string{id,
			fmt.Sprintf("%s, %s %s", faker.LastName(), title, faker.FirstName())})

		year := faker.Number(1960, 2004)
		children := faker.Number(0, 5)
		hosp := faker.Number(1, 3)
		city := faker.Number(1, 3)
		state := fmt.Sprintf("R%d", faker.Number(1011, 1026))

		bmi := faker.Float64Range(16, 45)
		hba1c := faker.Float64Range(4, 11)
		heart := faker.Number(0, 1)
		transplant := boolInt(faker.Number(0, 9) == 0)
		cancer := boolInt(faker.Number(0, 5) == 0)
		surgeries := faker.Number(0, 3)
		smoker := boolInt(faker.Number(0, 4) == 0)

		charges := 2500 +
			180*float64(SynthesizeYear-year) +
			9000*float64(smoker) +
			400*(bmi-25) +
			6000*float64(heart) +
			8000*float64(transplant) +
			5000*float64(cancer) +
			1500*float64(surgeries) +
			2500*float64(3-hosp) +
			faker.Float64Range(-1500, 1500)
		charges = math.Max(500, charges)

		detail := []string{id,
			strconv.Itoa(year),
			faker.RandomString(synthMonths),
			strconv.Itoa(faker.Number(1, 28)),
			strconv.Itoa(children),
			strconv.FormatFloat(charges, 'f', 2, 64),
			fmt.Sprintf(faker.RandomString(synthTiers), hosp),
			fmt.Sprintf(faker.RandomString(synthTiers), city),
			state,
		}
		exam := []string{id,
			strconv.FormatFloat(bmi, 'f', 2, 64),
			strconv.FormatFloat(hba1c, 'f', 2, 64),
			synthYesNo[heart],
			synthYesNo[transplant],
			synthYesNo[cancer],
			synthSurgery[surgeries],
			synthYesNo[smoker],
		}

		if i%37 == 5 {
			if i%2 == 0 {
				detail[6] = "?"
			} else {
				exam[7] = "?"
			}
		}

		details = append(details, detail)
		if i%41 != 7 {
			medical = append(medical, exam)
		}
	}

	return map[Kind]*Table{
		Names:   NewTable("Names", Names.Columns(), names),
		Details: NewTable("Hospitalisation details", Details.Columns(), details),
		Medical: NewTable("Medical Examinations", Medical.Columns(), medical),
	}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
