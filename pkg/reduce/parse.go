package reduce

import "fmt"

// Parse maps a reduction key to its variant. Quantile keys take their levels
// from ps, or from a named set when ps is empty ("median+1sigma" by default).
// Errorbar keys use "median+1sigma" mode.
func Parse(key string, ps ...float64) (Reducer, error) {
	switch key {
	case "count", "cnt":
		return Count(true), nil
	case "sum":
		return Sum(false), nil
	case "mean":
		return Mean(), nil
	case "std_dev", "std", "sd":
		return StdDev(), nil
	case "median":
		return Median(), nil
	case "quantile", "qs":
		if len(ps) == 0 {
			ps = PSMedian1Sigma
		}

		return Quantile(ps...), nil
	case "errorbar":
		return Errorbar("median+1sigma")
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownReduce, key)
}

// ParseAll parses every key, failing on the first unknown one.
func ParseAll(keys []string, ps ...float64) ([]Reducer, error) {
	out := make([]Reducer, 0, len(keys))

	for _, key := range keys {
		r, err := Parse(key, ps...)
		if err != nil {
			return nil, err
		}

		out = append(out, r)
	}

	return out, nil
}
