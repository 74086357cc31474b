// Command report performs integrity checks on an exported feature table and
// prints the analysis summaries: derived-column consistency, weather join
// coverage, repeat-location hot spots, and, when a predictions file is given,
// model accuracy.
//
// Usage:
//
//	go run ./cmd/report \
//	  -features data/fire_weather_features.csv \
//	  -predictions data/size_predictions.csv \
//	  -top 10
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pyrelab/fireweather-etl/internal/domain"
)

// phase tracks pass/fail for one validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	features := flag.String("features", "", "path to the exported feature table CSV")
	predictions := flag.String("predictions", "", "optional CSV of ACTUAL,PREDICTED size values")
	top := flag.Int("top", 10, "number of repeat-location sites to print")
	flag.Parse()

	if *features == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*features, *predictions, *top); code != 0 {
		os.Exit(code)
	}
}

func run(featuresPath, predictionsPath string, top int) int {
	fmt.Println("=== Fire Weather Feature Report ===")
	fmt.Println()

	rows, err := loadCSV(featuresPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load feature table: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateIdentity(rows),
		validateDerivedColumns(rows),
		validateGeography(rows),
		validateWeatherJoin(rows),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Rows: %d\n", len(rows))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			if i == 20 {
				fmt.Printf("  ... and %d more\n", len(p.errors)-i)
				break
			}
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	printRepeatLocations(rows, top)

	if predictionsPath != "" {
		if err := printModelReport(predictionsPath); err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: evaluate predictions: %v\n", err)
			return 1
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Data loading ──

// csvRow is a parsed CSV row with field values keyed by header name.
type csvRow struct {
	lineNum int
	fields  map[string]string
}

func (r csvRow) float(col string) float64 {
	v, _ := strconv.ParseFloat(r.fields[col], 64)
	return v
}

func (r csvRow) int(col string) int {
	v, _ := strconv.Atoi(r.fields[col])
	return v
}

func loadCSV(path string) ([]csvRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	all, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(all) < 2 {
		return nil, fmt.Errorf("no data rows in %s", path)
	}

	header := all[0]
	var rows []csvRow
	for i, row := range all[1:] {
		fields := make(map[string]string, len(header))
		for j, h := range header {
			if j < len(row) {
				fields[h] = strings.TrimSpace(row[j])
			}
		}
		rows = append(rows, csvRow{lineNum: i + 2, fields: fields})
	}
	return rows, nil
}

// ── Phase 1: Identity ──
// Every row carries a unique FID and a parsable report date.

func validateIdentity(rows []csvRow) *phase {
	p := &phase{name: "Phase 1: Identity (FID, report date)"}

	seen := map[int]int{}
	for _, row := range rows {
		fid, err := strconv.Atoi(row.fields["FID"])
		if err != nil {
			p.errorf("line %d: unparsable FID %q", row.lineNum, row.fields["FID"])
			continue
		}
		if prev, dup := seen[fid]; dup {
			p.errorf("line %d: FID %d already seen on line %d", row.lineNum, fid, prev)
		}
		seen[fid] = row.lineNum

		if _, err := time.Parse(domain.DateLayout, row.fields["REP_DATE"]); err != nil {
			p.errorf("line %d: unparsable REP_DATE %q", row.lineNum, row.fields["REP_DATE"])
		}
	}
	return p
}

// ── Phase 2: Derived Columns ──
// Calendar, decade, and size-class columns must agree with their inputs.

func validateDerivedColumns(rows []csvRow) *phase {
	p := &phase{name: "Phase 2: Derived Columns (calendar, bins)"}

	for _, row := range rows {
		date, err := time.Parse(domain.DateLayout, row.fields["REP_DATE"])
		if err != nil {
			continue // already flagged in phase 1
		}

		year, month, day, weekday := domain.SplitDate(date)
		if row.int("YEAR") != year || row.int("MONTH") != month || row.int("DATE") != day {
			p.errorf("line %d: calendar columns disagree with REP_DATE %s", row.lineNum, row.fields["REP_DATE"])
		}
		if row.int("DAY_OF_WEEK") != weekday {
			p.errorf("line %d: DAY_OF_WEEK %s, want %d", row.lineNum, row.fields["DAY_OF_WEEK"], weekday)
		}

		decade, err := domain.DecadeBucket(year)
		if err != nil {
			p.errorf("line %d: year %d outside decade bins", row.lineNum, year)
		} else if row.fields["DECADE"] != decade {
			p.errorf("line %d: DECADE %q, want %q", row.lineNum, row.fields["DECADE"], decade)
		}

		sizeClass, err := domain.SizeClass(row.float("SIZE_HA"))
		if err != nil {
			p.errorf("line %d: SIZE_HA %s is negative", row.lineNum, row.fields["SIZE_HA"])
		} else if row.fields["SIZE_CLASS"] != sizeClass {
			p.errorf("line %d: SIZE_CLASS %q, want %q for %s ha", row.lineNum, row.fields["SIZE_CLASS"], sizeClass, row.fields["SIZE_HA"])
		}

		if region, ok := domain.RegionForAgency(row.fields["SRC_AGENCY"]); ok && row.fields["REGION"] != region {
			p.errorf("line %d: REGION %q, want %q for agency %s", row.lineNum, row.fields["REGION"], region, row.fields["SRC_AGENCY"])
		}
	}
	return p
}

// ── Phase 3: Geography ──
// No row may survive with coordinates the cleaner and geo filter reject.

func validateGeography(rows []csvRow) *phase {
	p := &phase{name: "Phase 3: Geography (filter invariants)"}

	rules := domain.DefaultGeoRules()
	denied := map[int]struct{}{}
	for _, fid := range rules.Denylist {
		denied[fid] = struct{}{}
	}

	for _, row := range rows {
		lat, lon := row.float("LATITUDE"), row.float("LONGITUDE")
		if lat == 0 {
			p.errorf("line %d: zero latitude", row.lineNum)
		}
		if lon > 0 {
			p.errorf("line %d: positive longitude %g", row.lineNum, lon)
		}
		for _, box := range rules.Boxes {
			if box.Contains(lat, lon) {
				p.errorf("line %d: coordinates (%g, %g) inside an exclusion box", row.lineNum, lat, lon)
				break
			}
		}
		if _, ok := denied[row.int("FID")]; ok {
			p.errorf("line %d: denylisted FID %s survived filtering", row.lineNum, row.fields["FID"])
		}
		if row.fields["ECOZ_NAME"] == "" {
			p.errorf("line %d: empty ecozone after imputation", row.lineNum)
		}
	}
	return p
}

// ── Phase 4: Weather Join ──
// Unmatched rows must carry zeroed weather columns and the marker flag.

var weatherCols = []string{
	"PRECIP_TOTAL", "TEMP_MAX_MEAN", "TEMP_MAX_LAST_DAY",
	"TEMP_MEAN_MEAN", "WIND_MAX_LAST_DAY", "WIND_DIR_LAST_DAY",
}

func validateWeatherJoin(rows []csvRow) *phase {
	p := &phase{name: "Phase 4: Weather Join (marker coherence)"}

	var matched int
	for _, row := range rows {
		switch row.fields["WEATHER_MATCHED"] {
		case "true":
			matched++
		case "false":
			for _, col := range weatherCols {
				if row.float(col) != 0 {
					p.errorf("line %d: unmatched row has %s=%s", row.lineNum, col, row.fields[col])
					break
				}
			}
		default:
			p.errorf("line %d: WEATHER_MATCHED is %q", row.lineNum, row.fields["WEATHER_MATCHED"])
		}
	}

	if len(rows) > 0 {
		fmt.Printf("  Weather match rate: %d/%d (%.1f%%)\n",
			matched, len(rows), 100*float64(matched)/float64(len(rows)))
	}
	return p
}

// ── Repeat locations ──

func printRepeatLocations(rows []csvRow, top int) {
	records := make([]domain.FireRecord, 0, len(rows))
	for _, row := range rows {
		date, err := time.Parse(domain.DateLayout, row.fields["REP_DATE"])
		if err != nil {
			continue
		}
		records = append(records, domain.FireRecord{
			FID:        row.int("FID"),
			Latitude:   row.float("LATITUDE"),
			Longitude:  row.float("LONGITUDE"),
			ReportDate: date,
		})
	}

	repeats := domain.RepeatLocations(records, -1)
	fmt.Printf("\nRepeat locations: %d sites with more than one fire\n", len(repeats))
	for i, r := range repeats {
		if i == top {
			break
		}
		fmt.Printf("  (%.5f, %.5f): %d fires, mean gap %.1f days\n",
			r.Latitude, r.Longitude, r.Count, r.MeanGap.Hours()/24)
	}
}

// ── Model evaluation ──

// printModelReport scores predicted against actual sizes from a two-column
// CSV with an ACTUAL and a PREDICTED header.
func printModelReport(path string) error {
	rows, err := loadCSV(path)
	if err != nil {
		return err
	}

	actual := make([]float64, 0, len(rows))
	predicted := make([]float64, 0, len(rows))
	for _, row := range rows {
		a, errA := strconv.ParseFloat(row.fields["ACTUAL"], 64)
		p, errP := strconv.ParseFloat(row.fields["PREDICTED"], 64)
		if errA != nil || errP != nil || math.IsNaN(a) || math.IsNaN(p) {
			return fmt.Errorf("line %d: unparsable prediction pair", row.lineNum)
		}
		actual = append(actual, a)
		predicted = append(predicted, p)
	}

	report, err := domain.Evaluate(actual, predicted)
	if err != nil {
		return err
	}
	fmt.Printf("\nModel accuracy over %d predictions: %s\n", len(actual), report)
	return nil
}
