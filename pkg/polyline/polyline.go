// Package polyline implements Google's encoded polyline algorithm at precision 5,
// the format used by both Google Directions and OpenRouteService.
// See https://developers.google.com/maps/documentation/utilities/polylinealgorithm
package polyline

import (
	"errors"
	"math"
)

// ErrMalformed is returned by Decode for truncated or invalid input.
var ErrMalformed = errors.New("malformed polyline")

const precision = 1e5

// Point is a latitude/longitude pair.
type Point struct {
	Lat float64
	Lng float64
}

// Encode encodes points into a polyline string.
func Encode(points []Point) string {
	if len(points) == 0 {
		return ""
	}

	buf := make([]byte, 0, len(points)*8)
	var prevLat, prevLng int
	for _, p := range points {
		lat := int(math.Round(p.Lat * precision))
		lng := int(math.Round(p.Lng * precision))
		buf = appendValue(buf, lat-prevLat)
		buf = appendValue(buf, lng-prevLng)
		prevLat, prevLng = lat, lng
	}
	return string(buf)
}

// EncodePositions encodes GeoJSON positions, which are [lng, lat] ordered.
// Positions with fewer than two values are skipped.
func EncodePositions(positions [][]float64) string {
	points := make([]Point, 0, len(positions))
	for _, pos := range positions {
		if len(pos) < 2 {
			continue
		}
		points = append(points, Point{Lat: pos[1], Lng: pos[0]})
	}
	return Encode(points)
}

// Decode decodes a polyline string.
func Decode(encoded string) ([]Point, error) {
	if encoded == "" {
		return nil, nil
	}

	var (
		points   []Point
		lat, lng int
		i        int
	)
	for i < len(encoded) {
		dLat, next, err := readValue(encoded, i)
		if err != nil {
			return nil, err
		}
		dLng, next, err := readValue(encoded, next)
		if err != nil {
			return nil, err
		}
		i = next

		lat += dLat
		lng += dLng
		points = append(points, Point{Lat: float64(lat) / precision, Lng: float64(lng) / precision})
	}
	return points, nil
}

func appendValue(buf []byte, v int) []byte {
	u := v << 1
	if v < 0 {
		u = ^u
	}
	for u >= 0x20 {
		buf = append(buf, byte((0x20|(u&0x1f))+63))
		u >>= 5
	}
	return append(buf, byte(u+63))
}

func readValue(s string, i int) (int, int, error) {
	var result, shift int
	for {
		if i >= len(s) {
			return 0, i, ErrMalformed
		}
		b := int(s[i]) - 63
		i++
		if b < 0 || b > 0x3f {
			return 0, i, ErrMalformed
		}
		result |= (b & 0x1f) << shift
		shift += 5
		if b < 0x20 {
			break
		}
	}
	if result&1 != 0 {
		return ^(result >> 1), i, nil
	}
	return result >> 1, i, nil
}
