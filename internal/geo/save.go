package geo

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/scribblerbot/scribbler/pkg/core"
)

// ErrMalformedSave is returned by DecodeSave for anything that is not a
// valid flat save array.
var ErrMalformedSave = fmt.Errorf("invalid save data: %w", core.ErrMalformedResponse)

// EncodeSave serializes the path as a flat JSON array of alternating
// integers: [x0,y0,x1,y1,...]. Coordinates are rounded to whole pixels.
func EncodeSave(path core.Path) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, p := range path {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatInt(int64(math.Round(p.X)), 10))
		b.WriteByte(',')
		b.WriteString(strconv.FormatInt(int64(math.Round(p.Y)), 10))
	}
	b.WriteByte(']')
	return b.String()
}

// maxSaveCoord bounds coordinates to integers a float64 holds exactly.
const maxSaveCoord = 1 << 53

// DecodeSave parses data produced by EncodeSave. The value must be a JSON
// array of even length whose every element is a number or an integer
// string within ±2^53. Numbers with a fraction are truncated, the same
// leniency the save format has always had. Nothing is returned unless every
// element is valid.
func DecodeSave(text string) (core.Path, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()

	var data any
	if err := dec.Decode(&data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSave, err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data", ErrMalformedSave)
	}

	values, ok := data.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: not an array", ErrMalformedSave)
	}
	if len(values)%2 != 0 {
		return nil, fmt.Errorf("%w: odd number of values (%d)", ErrMalformedSave, len(values))
	}

	path := make(core.Path, 0, len(values)/2)
	for i := 0; i < len(values); i += 2 {
		x, err := saveInt(values[i])
		if err != nil {
			return nil, fmt.Errorf("%w: element %d: %v", ErrMalformedSave, i, err)
		}
		y, err := saveInt(values[i+1])
		if err != nil {
			return nil, fmt.Errorf("%w: element %d: %v", ErrMalformedSave, i+1, err)
		}
		path = append(path, core.Point{X: float64(x), Y: float64(y)})
	}
	return path, nil
}

func saveInt(v any) (int64, error) {
	n, err := parseSaveInt(v)
	if err != nil {
		return 0, err
	}
	if n < -maxSaveCoord || n > maxSaveCoord {
		return 0, fmt.Errorf("%d is out of range", n)
	}
	return n, nil
}

func parseSaveInt(v any) (int64, error) {
	switch v := v.(type) {
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n, nil
		}
		f, err := v.Float64()
		if err != nil || math.IsInf(f, 0) {
			return 0, fmt.Errorf("%q is not an integer", v.String())
		}
		if math.Abs(f) > maxSaveCoord {
			return 0, fmt.Errorf("%q is out of range", v.String())
		}
		return int64(math.Trunc(f)), nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%q is not an integer", v)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("%v is not a number", v)
	}
}
