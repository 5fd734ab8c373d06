package measurement

import (
	"math"
)

func Mean(readings []Reading) map[string]float64 {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, r := range readings {
		vals := r.ValueMap()
		if len(vals) == 0 {
			continue
		}

		for k, v := range vals {
			sums[k] += v
			counts[k]++
		}
	}

	means := make(map[string]float64)
	for k, v := range sums {
		means[k] = v / float64(counts[k])
	}

	return means
}

func StdDev(readings []Reading) map[string]float64 {
	avg := Mean(readings)

	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, r := range readings {
		vals := r.ValueMap()
		if len(vals) == 0 {
			continue
		}

		for k, v := range vals {
			sums[k] += math.Pow(v-avg[k], 2)
			counts[k]++
		}
	}

	devs := make(map[string]float64)
	for k, v := range sums {
		devs[k] = math.Sqrt(v / float64(counts[k]))
	}

	return devs
}

func Min(readings []Reading) map[string]float64 {
	x := make(map[string]float64)
	for _, r := range readings {
		vals := r.ValueMap()
		if len(vals) == 0 {
			continue
		}

		for k, v := range vals {
			if _, ok := x[k]; !ok {
				x[k] = math.MaxFloat64
			}

			if v < x[k] {
				x[k] = v
			}
		}
	}

	return x
}

func Max(readings []Reading) map[string]float64 {
	x := make(map[string]float64)
	for _, r := range readings {
		vals := r.ValueMap()
		if len(vals) == 0 {
			continue
		}

		for k, v := range vals {
			if _, ok := x[k]; !ok {
				x[k] = -math.MaxFloat64
			}

			if v > x[k] {
				x[k] = v
			}
		}
	}

	return x
}
