package input

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/yourname/bgp-clock-offset/model"
)

// FetchUpdates reads a headerless dump of BGP messages with columns
// type,timestamp,monitor_ip,monitor_as,prefix,as_path.
func FetchUpdates(path string) ([]model.UpdateRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open updates")
	}
	defer f.Close()
	return ParseUpdates(f)
}

// ParseUpdates decodes update records from r. A record that does not
// parse fails the whole dump with ErrMalformed.
func ParseUpdates(r io.Reader) ([]model.UpdateRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	var out []model.UpdateRecord
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, errors.Wrapf(ErrMalformed, "updates line %d: %v", line, err)
		}
		if len(rec) < 5 {
			return nil, errors.Wrapf(ErrMalformed, "updates line %d: %d fields", line, len(rec))
		}
		ts, err := strconv.ParseFloat(strings.TrimSpace(rec[1]), 64)
		if err != nil {
			return nil, errors.Wrapf(ErrMalformed, "updates line %d: timestamp: %v", line, err)
		}
		u := model.UpdateRecord{
			Type:      strings.TrimSpace(rec[0]),
			Timestamp: int64(ts),
			MonitorIP: strings.TrimSpace(rec[2]),
			MonitorAS: strings.TrimSpace(rec[3]),
			Prefix:    strings.TrimSpace(rec[4]),
		}
		if len(rec) > 5 {
			u.ASPath = strings.TrimSpace(rec[5])
		}
		out = append(out, u)
	}
}
