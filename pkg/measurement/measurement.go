// Package measurement turns nuclear and nucleolar label maps into one
// intensity record per nucleolus.
package measurement

import (
	"errors"
	"fmt"
	"math"

	"nucleolseg/internal/models"
	"nucleolseg/pkg/toolkit"
)

// ErrInvalidParent is returned when the nuclear label under a nucleolus does
// not resolve to an existing nucleus.
var ErrInvalidParent = errors.New("nucleolus has no valid parent nucleus")

// Record is the measurement of a single nucleolus and its parent nucleus.
// Nuclear and nucleolar intensities are taken from the nucleolar channel.
type Record struct {
	// ID is the 0-based position of the nucleolus in label order
	ID int `json:"id"`

	// NuclearID is the 1-based label of the parent nucleus
	NuclearID int `json:"nuclear_id"`

	NuclearArea   int     `json:"nuclear_area"`
	NuclearAvg    float64 `json:"nuclear_avg"`
	NuclearStdDev float64 `json:"nuclear_stdev"`

	// NumberNucleoli is the number of nucleoli resolved to the parent nucleus
	NumberNucleoli int `json:"number_nucleoli"`

	NucleolarArea   int     `json:"nucleolar_area"`
	NucleolarAvg    float64 `json:"nucleolar_avg"`
	NucleolarStdDev float64 `json:"nucleolar_stdev"`

	// Third channel statistics over the parent nucleus
	ThirdNuclearAvg    float64 `json:"third_nucavg"`
	ThirdNuclearStdDev float64 `json:"third_nucstdev"`

	// Third channel statistics over the nucleolus
	ThirdNucleolarAvg    float64 `json:"third_nuclavg"`
	ThirdNucleolarStdDev float64 `json:"third_nuclstdev"`
}

// MeasureAll measures every nucleolus against its parent nucleus.
//
// The parent of a nucleolus is the mean nuclear label under its pixels,
// rounded half to even. A nucleolus straddling two nuclei therefore resolves
// to whichever label the mean rounds to; no overlap check is made. Rows are
// returned in nucleolus label order. With no nucleoli the table is empty.
func MeasureAll(tk toolkit.Toolkit, nuclei *models.LabelMap, nucleiCount int, nucleoli *models.LabelMap, nucleoliCount int, nucleolar, third *models.Image) (Table, error) {
	if err := models.CheckDimensions(nucleolar, third, nuclei, nucleoli); err != nil {
		return nil, err
	}
	if tk == nil {
		tk = toolkit.NewNative()
	}

	nuclearStats := tk.RegionStats(nucleolar, nuclei, nucleiCount)
	thirdNuclearStats := tk.RegionStats(third, nuclei, nucleiCount)
	nucleolarStats := tk.RegionStats(nucleolar, nucleoli, nucleoliCount)
	thirdNucleolarStats := tk.RegionStats(third, nucleoli, nucleoliCount)
	parentStats := tk.RegionStats(nuclei.ToImage(), nucleoli, nucleoliCount)

	parents := make([]int, nucleoliCount)
	perNucleus := make([]int, nucleiCount+1)
	for i, r := range parentStats {
		parent := int(math.RoundToEven(r.Mean))
		if math.IsNaN(r.Mean) || parent < 1 || parent > nucleiCount {
			return nil, fmt.Errorf("nucleolus %d resolves to nucleus %v of %d: %w", r.Label, r.Mean, nucleiCount, ErrInvalidParent)
		}
		parents[i] = parent
		perNucleus[parent]++
	}

	table := make(Table, nucleoliCount)
	for i, parent := range parents {
		nuc := nuclearStats[parent-1]
		thirdNuc := thirdNuclearStats[parent-1]
		ncl := nucleolarStats[i]
		thirdNcl := thirdNucleolarStats[i]

		table[i] = Record{
			ID:                   i,
			NuclearID:            parent,
			NuclearArea:          nuc.Area,
			NuclearAvg:           nuc.Mean,
			NuclearStdDev:        nuc.StdDev,
			NumberNucleoli:       perNucleus[parent],
			NucleolarArea:        ncl.Area,
			NucleolarAvg:         ncl.Mean,
			NucleolarStdDev:      ncl.StdDev,
			ThirdNuclearAvg:      thirdNuc.Mean,
			ThirdNuclearStdDev:   thirdNuc.StdDev,
			ThirdNucleolarAvg:    thirdNcl.Mean,
			ThirdNucleolarStdDev: thirdNcl.StdDev,
		}
	}

	return table, nil
}
