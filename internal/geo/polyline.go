package geo

import (
	"encoding/json"
	"fmt"

	"github.com/scribblerbot/scribbler/pkg/core"
)

// EncodeWaypoints renders the path as the points payload sent to the agent:
// a JSON array of [x,y] pairs with the y axis flipped to a bottom-left origin.
func EncodeWaypoints(path core.Path, height float64) (string, error) {
	flipped := FlipY(path, height)
	coords := make([][2]float64, len(flipped))
	for i, p := range flipped {
		coords[i] = [2]float64{p.X, p.Y}
	}
	data, err := json.Marshal(coords)
	if err != nil {
		return "", fmt.Errorf("failed to encode waypoints: %w", err)
	}
	return string(data), nil
}

// ParseWaypoints parses a points payload back into a path, leaving the
// coordinates in the bottom-left origin they were sent in.
// Input format: "[[x1,y1],[x2,y2],...]"
func ParseWaypoints(input string) (core.Path, error) {
	var coords [][]float64
	if err := json.Unmarshal([]byte(input), &coords); err != nil {
		return nil, fmt.Errorf("failed to parse waypoints JSON: %w", err)
	}

	path := make(core.Path, len(coords))
	for i, coord := range coords {
		if len(coord) < 2 {
			return nil, fmt.Errorf("coordinate %d has insufficient values", i)
		}
		path[i] = core.Point{X: coord[0], Y: coord[1]}
	}

	return path, nil
}
