package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"odolog/models"
)

// CSVWriter serializes rows through a header and a per-row record mapper.
type CSVWriter[T any] struct {
	header []string
	record func(T) []string
}

func NewCSVWriter[T any](header []string, record func(T) []string) *CSVWriter[T] {
	return &CSVWriter[T]{header: header, record: record}
}

func (w *CSVWriter[T]) Write(out io.Writer, rows []T) error {
	cw := csv.NewWriter(out)
	if err := cw.Write(w.header); err != nil {
		return err
	}
	for _, row := range rows {
		if err := cw.Write(w.record(row)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// TripCSV is the writer for trip exports.
func TripCSV() *CSVWriter[models.Trip] {
	header := []string{"id", "date", "origin", "destination", "fare", "odo_start", "odo_end", "distance", "manual"}
	return NewCSVWriter(header, func(t models.Trip) []string {
		return []string{
			strconv.FormatUint(uint64(t.ID), 10),
			t.Date.Format("2006-01-02"),
			t.Origin,
			t.Destination,
			strconv.FormatInt(t.Fare, 10),
			strconv.FormatInt(t.OdoStart, 10),
			strconv.FormatInt(t.OdoEnd, 10),
			strconv.FormatInt(t.Distance(), 10),
			strconv.FormatBool(t.Manual),
		}
	})
}
