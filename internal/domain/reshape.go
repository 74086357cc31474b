package domain

// ReshapeWeather flattens one enrichment document's daily series into scalar
// summary features aligned to the integer FID. The series is validated first;
// a malformed document yields a typed SeriesValidationError, never a panic.
//
// The last index of each series is the report date itself, so the "last day"
// features describe conditions on the day the fire was reported.
func ReshapeWeather(doc WeatherDoc) (WeatherFeatures, error) {
	if err := doc.Daily.Validate(); err != nil {
		return WeatherFeatures{}, err
	}

	last := len(doc.Daily.Time) - 1
	return WeatherFeatures{
		FID:            int(doc.FID),
		PrecipTotal:    sum(doc.Daily.PrecipSum),
		TempMaxMean:    mean(doc.Daily.TempMax),
		TempMaxLastDay: doc.Daily.TempMax[last],
		TempMeanMean:   mean(doc.Daily.TempMean),
		WindMaxLastDay: doc.Daily.WindSpeedMax[last],
		WindDirLastDay: doc.Daily.WindDirDominant[last],
	}, nil
}

func sum(values []float64) float64 {
	var total float64
	for _, v := range values {
		total += v
	}
	return total
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return sum(values) / float64(len(values))
}
