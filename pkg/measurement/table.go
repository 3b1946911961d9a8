package measurement

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
)

// Columns are the table headers in output order
var Columns = []string{
	"id",
	"nuclear_id",
	"nuclear_area",
	"nuclear_avg",
	"nuclear_stdev",
	"number_nucleoli",
	"nucleolar_area",
	"nucleolar_avg",
	"nucleolar_stdev",
	"third_nucavg",
	"third_nucstdev",
	"third_nuclavg",
	"third_nuclstdev",
}

// Table holds one record per nucleolus
type Table []Record

// Values returns the record's fields formatted in column order
func (r Record) Values() []string {
	return []string{
		strconv.Itoa(r.ID),
		strconv.Itoa(r.NuclearID),
		strconv.Itoa(r.NuclearArea),
		formatFloat(r.NuclearAvg),
		formatFloat(r.NuclearStdDev),
		strconv.Itoa(r.NumberNucleoli),
		strconv.Itoa(r.NucleolarArea),
		formatFloat(r.NucleolarAvg),
		formatFloat(r.NucleolarStdDev),
		formatFloat(r.ThirdNuclearAvg),
		formatFloat(r.ThirdNuclearStdDev),
		formatFloat(r.ThirdNucleolarAvg),
		formatFloat(r.ThirdNucleolarStdDev),
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// NucleiCount returns the number of distinct parent nuclei in the table
func (t Table) NucleiCount() int {
	seen := make(map[int]bool)
	for _, r := range t {
		seen[r.NuclearID] = true
	}
	return len(seen)
}

// WriteCSV writes a header row followed by one row per record
func (t Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("error writing header: %w", err)
	}
	for _, r := range t {
		if err := cw.Write(r.Values()); err != nil {
			return fmt.Errorf("error writing record %d: %w", r.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes the table as an indented JSON array. An empty table is
// written as [].
func (t Table) WriteJSON(w io.Writer) error {
	records := t
	if records == nil {
		records = Table{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("error encoding table: %w", err)
	}
	return nil
}
