package domain

import "sort"

// DefaultImputeK is the neighbor count used when the config does not pin one.
const DefaultImputeK = 5

// ImputeStats reports what the spatial imputer did to a batch. Unresolved
// carries the FIDs of rows whose ecozone could not be determined (no labeled
// neighbors exist); callers surface these as warnings.
type ImputeStats struct {
	Imputed    int
	Unresolved []int
}

// ImputeEcozones fills missing ecozone labels in place using a deterministic
// k-nearest-neighbors estimate over (latitude, longitude).
//
// Labels are compared by squared Euclidean distance in coordinate space.
// Neighbor candidates are ordered by distance, ties broken by ascending FID,
// so the same input always yields the same imputations. The predicted label
// is the majority among the k nearest labeled records; a vote tie goes to the
// label of the nearest neighbor holding one of the tied labels.
func ImputeEcozones(records []FireRecord, k int) ImputeStats {
	if k <= 0 {
		k = DefaultImputeK
	}

	labeled := make([]int, 0, len(records))
	for i, r := range records {
		if r.Ecozone != EcozoneMissing {
			labeled = append(labeled, i)
		}
	}

	var stats ImputeStats
	for i := range records {
		if records[i].Ecozone != EcozoneMissing {
			continue
		}
		if len(labeled) == 0 {
			stats.Unresolved = append(stats.Unresolved, records[i].FID)
			continue
		}
		records[i].Ecozone = nearestLabel(records, labeled, i, k)
		stats.Imputed++
	}
	return stats
}

type neighbor struct {
	idx  int
	dist float64
}

func nearestLabel(records []FireRecord, labeled []int, target, k int) string {
	t := records[target]

	neighbors := make([]neighbor, 0, len(labeled))
	for _, j := range labeled {
		dLat := records[j].Latitude - t.Latitude
		dLon := records[j].Longitude - t.Longitude
		neighbors = append(neighbors, neighbor{idx: j, dist: dLat*dLat + dLon*dLon})
	}

	sort.Slice(neighbors, func(a, b int) bool {
		if neighbors[a].dist != neighbors[b].dist {
			return neighbors[a].dist < neighbors[b].dist
		}
		return records[neighbors[a].idx].FID < records[neighbors[b].idx].FID
	})

	if k > len(neighbors) {
		k = len(neighbors)
	}

	votes := make(map[string]int, k)
	for _, n := range neighbors[:k] {
		votes[records[n.idx].Ecozone]++
	}

	best := 0
	for _, c := range votes {
		if c > best {
			best = c
		}
	}

	// Neighbors are distance-ordered, so the first one carrying a
	// majority label settles any vote tie.
	for _, n := range neighbors[:k] {
		if votes[records[n.idx].Ecozone] == best {
			return records[n.idx].Ecozone
		}
	}
	return records[neighbors[0].idx].Ecozone
}
