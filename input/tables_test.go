package input

import (
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourname/bgp-clock-offset/model"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "table.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestMissingTableIsNotExist(t *testing.T) {
	_, err := FetchDirectedDelays(filepath.Join(t.TempDir(), "absent.csv"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist))

	_, err = FetchUpdates(filepath.Join(t.TempDir(), "absent.csv"))
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestFetchDirectedDelaysAcceptsFloatIndices(t *testing.T) {
	path := writeFile(t, "collector_src,collector_dst,event_number,min_time\nRRC00,rrc01,12.0,19.0\n")
	delays, err := FetchDirectedDelays(path)
	require.NoError(t, err)
	assert.Equal(t, []model.DirectedDelay{{Src: "rrc00", Dst: "rrc01", Window: 12, MinTime: 19}}, delays)
}

func TestFetchRejectsMissingColumn(t *testing.T) {
	path := writeFile(t, "collector_src,collector_dst,min_time\nrrc00,rrc01,19\n")
	_, err := FetchDirectedDelays(path)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestFetchReportsBadCell(t *testing.T) {
	path := writeFile(t, "collector_1,collector_2,p_50,p_90,event_count\nrrc00,rrc01,2,abc,60\n")
	_, err := FetchProfiles(path)
	require.ErrorIs(t, err, ErrMalformed)
	assert.Contains(t, err.Error(), "line 2")
}

func TestFetchPathEventsEmptyWithdrawal(t *testing.T) {
	path := writeFile(t, "monitor_ip,prefix,min_ts_A,max_ts_A,count_A,min_ts_W,max_ts_W,count_W,event_number\n"+
		"192.0.2.1,84.205.64.0/24,3.0,9.0,2,,,,1\n")
	events, err := FetchPathEvents(path)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Nil(t, events[0].MinTsW)
	assert.Nil(t, events[0].CountW)
	assert.Equal(t, model.Window(1), events[0].Window)
	assert.Equal(t, 0, events[0].ASPathCountA)
}

func TestFetchQuantilesNaN(t *testing.T) {
	path := writeFile(t, "monitor_ip,prefix,minA_q0,maxW_q50_DOWN,count_A,collector\n192.0.2.1,84.205.64.0/24,5.0,,46,RRC04\n")
	records, err := FetchQuantiles(path)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 5.0, records[0].MinAQ0)
	assert.True(t, math.IsNaN(records[0].MaxWQ50Down))
	assert.Equal(t, 46, records[0].CountA)
	assert.Equal(t, model.CollectorID("rrc04"), records[0].Collector)
}

func TestEmptyTable(t *testing.T) {
	profiles, err := FetchProfiles(writeFile(t, ""))
	require.NoError(t, err)
	assert.Empty(t, profiles)
}

func TestParseUpdates(t *testing.T) {
	updates, err := ParseUpdates(strings.NewReader(
		"A,1254369601,192.0.2.1,3333,84.205.64.0/24,3333 1299 12654\n" +
			"W,1254369700.0,192.0.2.1,3333,84.205.64.0/24\n"))
	require.NoError(t, err)
	assert.Equal(t, []model.UpdateRecord{
		{Type: "A", Timestamp: 1254369601, MonitorIP: "192.0.2.1", MonitorAS: "3333", Prefix: "84.205.64.0/24", ASPath: "3333 1299 12654"},
		{Type: "W", Timestamp: 1254369700, MonitorIP: "192.0.2.1", MonitorAS: "3333", Prefix: "84.205.64.0/24"},
	}, updates)

	_, err = ParseUpdates(strings.NewReader("A,1,192.0.2.1\n"))
	assert.ErrorIs(t, err, ErrMalformed)
	_, err = ParseUpdates(strings.NewReader("A,never,192.0.2.1,3333,84.205.64.0/24\n"))
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestFetchPathEventsRejectsTruncatedRow(t *testing.T) {
	header := "monitor_ip,prefix,min_ts_A,max_ts_A,count_A,event_number\n"
	path := writeFile(t, header+"192.0.2.1,10.0.0.0/24,1254369603,1254369608,2,3\n192.0.2.3,10.0.0.0/24,1\n")
	events, err := FetchPathEvents(path)
	assert.ErrorIs(t, err, ErrMalformed)
	assert.Nil(t, events)

	// same width but the event number is gone
	path = writeFile(t, header+"192.0.2.3,10.0.0.0/24,1254369603,1254369608,2,\n")
	_, err = FetchPathEvents(path)
	assert.ErrorIs(t, err, ErrMalformed)
	assert.Contains(t, err.Error(), "event_number")
}

func TestFetchDirectedDelaysRejectsBadKeys(t *testing.T) {
	header := "collector_src,collector_dst,event_number,min_time\n"
	for name, row := range map[string]string{
		"empty source":     ",rrc01,0,3\n",
		"empty min time":   "rrc00,rrc01,0,\n",
		"fractional index": "rrc00,rrc01,2.5,3\n",
		"negative index":   "rrc00,rrc01,-1,3\n",
		"text index":       "rrc00,rrc01,first,3\n",
		"extra field":      "rrc00,rrc01,0,3,9\n",
		"open quote":       "rrc00,rrc01,0,\"3\n",
	} {
		_, err := FetchDirectedDelays(writeFile(t, header+row))
		assert.ErrorIs(t, err, ErrMalformed, name)
	}
}

func TestFetchRejectsBrokenHeader(t *testing.T) {
	_, err := FetchProfiles(writeFile(t, "collector_1,\"collector_2\n"))
	assert.ErrorIs(t, err, ErrMalformed)
}
