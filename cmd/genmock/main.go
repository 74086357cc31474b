// Command genmock generates a synthetic wildfire CSV fixture shaped like the
// Canadian National Fire Database export. The output deliberately includes the
// dirty rows the pipeline has to handle: missing dates, zeroed latitudes,
// blank causes and ecozones, positive longitudes, excluded coordinates, and
// denylisted FIDs. A fixed seed makes the fixture reproducible.
//
// Usage:
//
//	go run ./cmd/genmock -out data/mock/fires_synthetic.csv -rows 500 -seed 7
package main

import (
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pyrelab/fireweather-etl/internal/domain"
)

var header = []string{
	"FID", "REP_DATE", "LATITUDE", "LONGITUDE",
	"SRC_AGENCY", "CAUSE", "SIZE_HA", "ECOZ_NAME",
}

var (
	agencies = []string{"BC", "AB", "SK", "MB", "ON", "QC", "NL", "NB", "NS", "YT", "NT", "PC-BA", "PC-JA", "PC-WB"}
	causes   = []string{"L", "H", "H-PB", "U", "RE"}
	ecozones = []string{
		"Boreal Shield", "Boreal Cordillera", "Montane Cordillera",
		"Taiga Plains", "Boreal Plains", "Prairies", "Pacific Maritime",
	}
)

// regionBounds keeps synthetic coordinates roughly inside the reporting
// agency's territory so imputation and region features stay plausible.
var regionBounds = map[string][4]float64{
	// minLat, maxLat, minLon, maxLon
	"BC": {49.5, 59.5, -134, -115},
	"AB": {49.5, 59.5, -119, -110},
	"SK": {49.5, 59.5, -109, -102},
	"MB": {49.5, 59.5, -101, -95},
	"ON": {44.0, 56.0, -94, -77},
	"QC": {46.0, 58.0, -79, -58},
	"NL": {47.0, 58.0, -66, -53},
	"NB": {45.0, 48.0, -69, -64},
	"NS": {44.0, 47.0, -66, -60},
	"YT": {60.0, 68.0, -140, -124},
	"NT": {60.0, 68.0, -134, -110},
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output path for the synthetic fire CSV")
	weatherOut := flag.String("weather-out", "", "optional output path for a canned archive response JSON")
	rows := flag.Int("rows", 500, "number of data rows to generate")
	seed := flag.Int64("seed", 7, "random seed")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}

	rng := rand.New(rand.NewSource(*seed))

	records := make([][]string, 0, *rows+1)
	records = append(records, header)

	stats := map[string]int{}
	for i := 0; i < *rows; i++ {
		records = append(records, genRow(rng, i+1, stats))
	}

	if err := writeCSV(*out, records); err != nil {
		return fmt.Errorf("writing fixture: %w", err)
	}
	log.Printf("wrote %d rows: %s", *rows, *out)

	if *weatherOut != "" {
		if err := writeWeatherFixture(*weatherOut, rng); err != nil {
			return fmt.Errorf("writing weather fixture: %w", err)
		}
		log.Printf("wrote archive fixture: %s", *weatherOut)
	}

	printStats(*rows, stats)
	return nil
}

// writeWeatherFixture emits one archive response covering a 15-day window,
// usable as a stub-server payload in local runs.
func writeWeatherFixture(path string, rng *rand.Rand) error {
	start := time.Date(2005, time.July, 1, 0, 0, 0, 0, time.UTC)
	days := domain.LookbackDays + 1

	series := domain.DailySeries{
		Time:            make([]string, days),
		TempMax:         make([]float64, days),
		TempMean:        make([]float64, days),
		PrecipSum:       make([]float64, days),
		WindSpeedMax:    make([]float64, days),
		WindDirDominant: make([]float64, days),
	}
	for i := 0; i < days; i++ {
		series.Time[i] = start.AddDate(0, 0, i).Format(domain.DateLayout)
		series.TempMax[i] = 18 + rng.Float64()*14
		series.TempMean[i] = 12 + rng.Float64()*10
		series.PrecipSum[i] = rng.Float64() * 6
		series.WindSpeedMax[i] = 5 + rng.Float64()*30
		series.WindDirDominant[i] = rng.Float64() * 360
	}

	doc := domain.WeatherDoc{
		Latitude:  53.9,
		Longitude: -122.7,
		Elevation: 650,
		Daily:     series,
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

// genRow produces one CSV row. Roughly one row in eight gets one of the
// defects the cleaner and geo filter exist for.
func genRow(rng *rand.Rand, fid int, stats map[string]int) []string {
	agency := agencies[rng.Intn(len(agencies))]
	bounds, ok := regionBounds[agency]
	if !ok {
		bounds = regionBounds["AB"] // Parks Canada units, close enough
	}

	lat := bounds[0] + rng.Float64()*(bounds[1]-bounds[0])
	lon := bounds[2] + rng.Float64()*(bounds[3]-bounds[2])
	date := randomDate(rng)
	cause := causes[rng.Intn(len(causes))]
	ecozone := ecozones[rng.Intn(len(ecozones))]
	size := roundedSize(rng)

	dateStr := date.Format("2006-01-02 15:04:05")
	switch rng.Intn(24) {
	case 0:
		dateStr = ""
		stats["missing_date"]++
	case 1:
		lat = 0
		stats["zero_lat"]++
	case 2:
		cause = ""
		stats["blank_cause"]++
	case 3:
		ecozone = ""
		stats["blank_ecozone"]++
	case 4:
		lon = -lon // positive longitude typo
		stats["positive_lon"]++
	case 5:
		// Inside the US-territory exclusion box.
		lat, lon = 48.0+rng.Float64()*0.9, -120.0+rng.Float64()*20
		stats["excluded_box"]++
	default:
		stats["clean"]++
	}

	// Plant exactly one denylisted FID per run.
	if fid == 42 {
		denylist := domain.DefaultGeoRules().Denylist
		fid = denylist[rng.Intn(len(denylist))]
		stats["denylisted"]++
	}

	return []string{
		strconv.Itoa(fid),
		dateStr,
		strconv.FormatFloat(lat, 'f', 5, 64),
		strconv.FormatFloat(lon, 'f', 5, 64),
		agency,
		cause,
		strconv.FormatFloat(size, 'f', 2, 64),
		ecozone,
	}
}

// randomDate picks a report date in [1950, 2021), weighted toward fire season.
func randomDate(rng *rand.Rand) time.Time {
	year := 1950 + rng.Intn(71)
	month := time.Month(4 + rng.Intn(7)) // April through October
	day := 1 + rng.Intn(28)
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// roundedSize draws a burned area spanning the three size classes, skewed
// small the way the real database is.
func roundedSize(rng *rand.Rand) float64 {
	switch {
	case rng.Float64() < 0.75:
		return rng.Float64() * 15
	case rng.Float64() < 0.9:
		return 15 + rng.Float64()*4985
	default:
		return 5000 + rng.Float64()*95000
	}
}

func writeCSV(path string, records [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(records); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

func printStats(total int, stats map[string]int) {
	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Total: %d\n", total)
	for _, k := range []string{
		"clean", "missing_date", "zero_lat", "blank_cause",
		"blank_ecozone", "positive_lon", "excluded_box", "denylisted",
	} {
		fmt.Printf("%s: %d\n", k, stats[k])
	}
}
