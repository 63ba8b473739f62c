package model

// RIS routing beacons active since 2009. RRC03 is left out because its
// beacon has followed a 20 minute on/off cycle, RRC16 because it has no
// data between 2012.03 and 2016.01.
func ris2009Beacons() []Beacon {
	v4 := []Beacon{
		{Prefixes: []string{"84.205.64.0/24"}, Anchor: "84.205.80.0/24", Collector: "RRC00"},
		{Prefixes: []string{"84.205.65.0/24"}, Anchor: "84.205.81.0/24", Collector: "RRC01"},
		{Prefixes: []string{"84.205.68.0/24"}, Anchor: "84.205.84.0/24", Collector: "RRC04"},
		{Prefixes: []string{"84.205.69.0/24"}, Anchor: "84.205.85.0/24", Collector: "RRC05"},
		{Prefixes: []string{"84.205.70.0/24"}, Anchor: "84.205.86.0/24", Collector: "RRC06"},
		{Prefixes: []string{"84.205.71.0/24"}, Anchor: "84.205.87.0/24", Collector: "RRC07"},
		{Prefixes: []string{"84.205.74.0/24"}, Anchor: "84.205.90.0/24", Collector: "RRC10"},
		{Prefixes: []string{"84.205.75.0/24"}, Anchor: "84.205.91.0/24", Collector: "RRC11"},
		{Prefixes: []string{"84.205.76.0/24"}, Anchor: "84.205.92.0/24", Collector: "RRC12"},
		{Prefixes: []string{"84.205.77.0/24"}, Anchor: "84.205.93.0/24", Collector: "RRC13"},
		{Prefixes: []string{"84.205.78.0/24"}, Anchor: "84.205.94.0/24", Collector: "RRC14"},
		{Prefixes: []string{"84.205.79.0/24"}, Anchor: "84.205.95.0/24", Collector: "RRC15"},
	}
	v6 := []Beacon{
		{Prefixes: []string{"2001:7fb:fe00::/48"}, Anchor: "2001:7fb:ff00::/48", Collector: "RRC00"},
		{Prefixes: []string{"2001:7fb:fe01::/48"}, Anchor: "2001:7fb:ff01::/48", Collector: "RRC01"},
		{Prefixes: []string{"2001:7fb:fe04::/48"}, Anchor: "2001:7fb:ff04::/48", Collector: "RRC04"},
		{Prefixes: []string{"2001:7fb:fe05::/48"}, Anchor: "2001:7fb:ff05::/48", Collector: "RRC05"},
		{Prefixes: []string{"2001:7fb:fe06::/48"}, Anchor: "2001:7fb:ff06::/48", Collector: "RRC06"},
		{Prefixes: []string{"2001:7fb:fe07::/48"}, Anchor: "2001:7fb:ff07::/48", Collector: "RRC07"},
		{Prefixes: []string{"2001:7fb:fe0a::/48"}, Anchor: "2001:7fb:ff0a::/48", Collector: "RRC10"},
		{Prefixes: []string{"2001:7fb:fe0b::/48"}, Anchor: "2001:7fb:ff0b::/48", Collector: "RRC11"},
		{Prefixes: []string{"2001:7fb:fe0c::/48"}, Anchor: "2001:7fb:ff0c::/48", Collector: "RRC12"},
		{Prefixes: []string{"2001:7fb:fe0d::/48"}, Anchor: "2001:7fb:ff0d::/48", Collector: "RRC13"},
		{Prefixes: []string{"2001:7fb:fe0e::/48"}, Anchor: "2001:7fb:ff0e::/48", Collector: "RRC14"},
		{Prefixes: []string{"2001:7fb:fe0f::/48"}, Anchor: "2001:7fb:ff0f::/48", Collector: "RRC15"},
	}
	return append(v4, v6...)
}

// October months of 2008-2018 plus the 2011/2012 monthly series.
func ris2009Experiments() map[string]Experiment {
	exps := make(map[string]Experiment)
	for _, start := range []string{
		"20081001", "20091001", "20101001", "20111001", "20111201",
		"20120101", "20120401", "20120601", "20120701", "20120801",
		"20120901", "20121001", "20131001", "20141001", "20151001",
		"20161001", "20171001", "20181001",
	} {
		exps[start+"_30d"] = Experiment{InitDay: start, EndDay: start[:6] + "30"}
	}
	return exps
}
