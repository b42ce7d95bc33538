// Package provider loads variable layers from CSV datasets, the file-based
// counterpart of the satellite data-acquisition collaborator.
package provider

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/urbanheat/uhi-cli/internal/model"
)

// LoadDir reads one CSV per variable from dir (lst.csv, ndvi.csv, ...), each
// with a point_id,lat,lon,value header. Files are loaded concurrently.
// Variables without a file are simply absent from the result; the threshold
// engine handles the gap.
func LoadDir(dir string) (model.Layers, error) {
	vars := model.AllVariables()
	results := make([][]model.Observation, len(vars))

	var g errgroup.Group
	for i, v := range vars {
		path := filepath.Join(dir, string(v)+".csv")
		if _, err := os.Stat(path); err != nil {
			zap.L().Warn("provider: variable file missing",
				zap.String("variable", string(v)),
				zap.String("path", path),
			)
			continue
		}
		g.Go(func() error {
			obs, err := loadLayerFile(path)
			if err != nil {
				return err
			}
			results[i] = obs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	layers := make(model.Layers)
	for i, v := range vars {
		if results[i] != nil {
			layers[v] = results[i]
		}
	}
	if len(layers) == 0 {
		return nil, eris.Errorf("provider: no variable files found in %s", dir)
	}
	return layers, nil
}

func loadLayerFile(path string) ([]model.Observation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "provider: open %s", path)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, eris.Wrapf(err, "provider: read header of %s", path)
	}
	if len(header) < 4 || header[0] != "point_id" || header[1] != "lat" || header[2] != "lon" {
		return nil, eris.Errorf("provider: %s: expected point_id,lat,lon,value header", path)
	}

	var obs []model.Observation
	line := 1
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "provider: read %s", path)
		}
		line++

		o, ok, err := parseObservation(rec[0], rec[1], rec[2], rec[3])
		if err != nil {
			return nil, eris.Wrapf(err, "provider: %s line %d", path, line)
		}
		if ok {
			obs = append(obs, o)
		}
	}
	return obs, nil
}

// LoadWide reads a single wide CSV: a point_id,lat,lon header followed by one
// column per variable. Empty cells mean the layer has no coverage at that
// point. Unknown columns are rejected so typos surface early.
func LoadWide(path string) (model.Layers, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "provider: open %s", path)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, eris.Wrapf(err, "provider: read header of %s", path)
	}
	if len(header) < 4 || header[0] != "point_id" || header[1] != "lat" || header[2] != "lon" {
		return nil, eris.Errorf("provider: %s: expected point_id,lat,lon,<variables...> header", path)
	}

	cols := make([]model.Variable, 0, len(header)-3)
	for _, name := range header[3:] {
		v, err := model.ParseVariable(strings.TrimSpace(name))
		if err != nil {
			return nil, eris.Wrapf(err, "provider: %s header", path)
		}
		cols = append(cols, v)
	}

	layers := make(model.Layers)
	line := 1
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "provider: read %s", path)
		}
		line++

		for c, v := range cols {
			cell := strings.TrimSpace(rec[3+c])
			if cell == "" {
				continue
			}
			o, ok, err := parseObservation(rec[0], rec[1], rec[2], cell)
			if err != nil {
				return nil, eris.Wrapf(err, "provider: %s line %d column %s", path, line, v)
			}
			if ok {
				layers[v] = append(layers[v], o)
			}
		}
	}
	if len(layers) == 0 {
		return nil, eris.Errorf("provider: %s contains no observations", path)
	}
	return layers, nil
}

// parseObservation parses one record; ok is false for blank values (no
// coverage at that point).
func parseObservation(idStr, latStr, lonStr, valStr string) (model.Observation, bool, error) {
	id, err := strconv.Atoi(strings.TrimSpace(idStr))
	if err != nil {
		return model.Observation{}, false, eris.Wrap(err, "parse point_id")
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil {
		return model.Observation{}, false, eris.Wrap(err, "parse lat")
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(lonStr), 64)
	if err != nil {
		return model.Observation{}, false, eris.Wrap(err, "parse lon")
	}
	valStr = strings.TrimSpace(valStr)
	if valStr == "" {
		return model.Observation{}, false, nil
	}
	val, err := strconv.ParseFloat(valStr, 64)
	if err != nil {
		return model.Observation{}, false, eris.Wrap(err, "parse value")
	}
	return model.Observation{PointID: id, Lat: lat, Lon: lon, Value: val}, true, nil
}
