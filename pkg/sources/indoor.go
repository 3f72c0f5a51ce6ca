package sources

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	jsoniter "github.com/json-iterator/go"

	"github.com/matzehuels/inkpanel/pkg/errors"
	"github.com/matzehuels/inkpanel/pkg/panel"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// sensorLogRE matches daily sensor logs such as "weather 2024-01-02.json".
var sensorLogRE = regexp.MustCompile(`^weather (\d{4}-\d{2}-\d{2})\.json$`)

// SensorReading is one entry of the indoor sensor log.
type SensorReading struct {
	Temperature *float64 `json:"temperature"`
}

// NewIndoor returns the adapter for the indoor temperature.
//
// The indoor sensor appends one JSON object per reading to a daily log file
// in dir, separated by commas. The last reading of the newest log is
// converted from °C to °F.
func NewIndoor(r *Resolver, dir string) Adapter {
	return NewFunc(r, panel.KeyIndoor, func(ctx context.Context) (panel.Value, error) {
		if err := ctx.Err(); err != nil {
			return panel.Value{}, err
		}
		path, err := LatestSensorLog(dir)
		if err != nil {
			return panel.Value{}, err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return panel.Value{}, errors.Wrap(errors.ErrCodeTransport, err, "read sensor log")
		}
		readings, err := ParseSensorLog(data)
		if err != nil {
			return panel.Value{}, errors.Wrap(errors.ErrCodeSchema, err, "parse %s", filepath.Base(path))
		}
		for i := len(readings) - 1; i >= 0; i-- {
			if t := readings[i].Temperature; t != nil {
				return panel.NewTemperature(panel.Temperature{
					Degrees: panel.CelsiusToFahrenheit(*t),
					Scale:   panel.Fahrenheit,
				}), nil
			}
		}
		return panel.Value{}, errors.New(errors.ErrCodeSchema, "%s has no temperature reading", filepath.Base(path))
	})
}

// LatestSensorLog returns the path of the most recent daily log in dir.
// Dates compare lexically because they are ISO formatted.
func LatestSensorLog(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeTransport, err, "list sensor logs")
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && sensorLogRE.MatchString(e.Name()) {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return "", errors.New(errors.ErrCodeSchema, "no sensor logs in %s", dir)
	}
	sort.Strings(names)
	return filepath.Join(dir, names[len(names)-1]), nil
}

// ParseSensorLog decodes a sensor log. Both a JSON array and a bare
// comma-separated list of objects (with an optional trailing comma) are
// accepted.
func ParseSensorLog(data []byte) ([]SensorReading, error) {
	body := bytes.TrimSpace(data)
	if len(body) == 0 {
		return nil, nil
	}
	if body[0] != '[' {
		body = bytes.TrimRight(body, ", \t\r\n")
		body = append(append([]byte{'['}, body...), ']')
	}
	var readings []SensorReading
	if err := json.Unmarshal(body, &readings); err != nil {
		return nil, err
	}
	return readings, nil
}
