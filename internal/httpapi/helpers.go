package httpapi

import "strconv"

func parsePeerID(raw string) (uint8, error) {
	v, err := strconv.ParseUint(raw, 10, 8)
	if err != nil {
		return 0, err
	}
	return uint8(v), nil
}
