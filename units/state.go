package units

import (
	"encoding/json"
	"fmt"
	"math"
)

func marshalState(name string, v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%s: encode state: %w", name, err)
	}
	return data, nil
}

func unmarshalState(name string, data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%s: decode state: %w", name, err)
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func checkRange(name, param string, v, lo, hi float64) error {
	if !isFinite(v) || v < lo || v > hi {
		return fmt.Errorf("%s %s must be in [%g, %g]: %f", name, param, lo, hi, v)
	}
	return nil
}
