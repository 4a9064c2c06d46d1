package metrics

import (
	"encoding/csv"
	"io"
	"strconv"
)

var CSVHeader = []string{"Episode", "Reward", "Steps", "Epsilon", "Success"}

func (r EpisodeRecord) CSVRow() []string {
	success := "0"
	if r.Success {
		success = "1"
	}
	return []string{
		strconv.Itoa(r.Episode),
		strconv.FormatFloat(r.Reward, 'g', -1, 64),
		strconv.Itoa(r.Steps),
		strconv.FormatFloat(r.Epsilon, 'g', -1, 64),
		success,
	}
}

// WriteCSV writes the header followed by one row per record
func WriteCSV(w io.Writer, records []EpisodeRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, r := range records {
		if err := cw.Write(r.CSVRow()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
