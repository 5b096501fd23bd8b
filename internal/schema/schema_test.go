package schema

import (
	"bytes"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sogmodel/sogcmd/internal/infile"
	"github.com/sogmodel/sogcmd/internal/model"
)

func loadTestDocument(t *testing.T) (*Schema, *model.Document) {
	t.Helper()
	s, err := Default()
	require.NoError(t, err)
	doc, err := s.Load(filepath.Join("testdata", "infile.yaml"))
	require.NoError(t, err)
	return s, doc
}

func recordKeys(records []model.Record) []string {
	keys := make([]string, len(records))
	for i, rec := range records {
		keys[i] = rec.Key
	}
	return keys
}

func recordByKey(t *testing.T, records []model.Record, key string) model.Record {
	t.Helper()
	for _, rec := range records {
		if rec.Key == key {
			return rec
		}
	}
	t.Fatalf("no record for key %q", key)
	return model.Record{}
}

func keyIndex(t *testing.T, keys []string, key string) int {
	t.Helper()
	for i, k := range keys {
		if k == key {
			return i
		}
	}
	t.Fatalf("key %q not emitted", key)
	return -1
}

func TestLoadCompleteDocument(t *testing.T) {
	_, doc := loadTestDocument(t)

	lat := doc.Quantities["location.latitude"]
	require.Equal(t, 49.1253, lat.Value)
	require.Equal(t, "deg", lat.Units)
	require.Equal(t, "latitude of location", lat.Description)

	depth := doc.Quantities["grid.model_depth"]
	require.Equal(t, 40.0, depth.Value)
	require.Equal(t, "m", depth.Units)
	require.Equal(t, "grid%D", depth.VarName)

	require.Equal(t, 80, doc.Quantities["grid.grid_size"].Value)
	require.Equal(t, false, doc.Quantities["location.open_ended_estuary"].Value)
	require.Equal(t, []float64{0.33, 0.33, 0.34},
		doc.Quantities["initial_conditions.init_chl_ratios"].Value)

	init := doc.Quantities["initial_conditions.init_datetime"].Value.(time.Time)
	require.True(t, init.Equal(time.Date(2002, 10, 19, 0, 10, 0, 0, time.UTC)))
}

func TestRenderFollowsMasterKeyOrder(t *testing.T) {
	s, doc := loadTestDocument(t)
	records, err := s.Render(doc)
	require.NoError(t, err)
	// All triggers are off in the test document, so the emitted keys are
	// exactly the unconditional master order.
	require.Equal(t, masterKeyOrder, recordKeys(records))
}

func TestRenderedRecordText(t *testing.T) {
	s, doc := loadTestDocument(t)
	records, err := s.Render(doc)
	require.NoError(t, err)

	depth := recordByKey(t, records, "maxdepth")
	require.Equal(t, "4.000000d+01", depth.Value)
	require.Equal(t, "depth of modelled domain [m]", depth.Description)

	require.Equal(t, "80", recordByKey(t, records, "gridsize").Value)
	require.Equal(t, ".false.", recordByKey(t, records, "openEnd").Value)
	require.Equal(t, `"2002-10-19 00:10:00"`, recordByKey(t, records, "init datetime").Value)
	require.Equal(t, `"no"`, recordByKey(t, records, "use average/hist forcing").Value)

	split := recordByKey(t, records, "initial chl split")
	require.Equal(t, "3.300000d-01 3.300000d-01 3.400000d-01", split.Value)
}

func TestFlatRoundTrip(t *testing.T) {
	s, doc := loadTestDocument(t)
	records, err := s.Render(doc)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, infile.Write(&buf, records))
	entries, err := infile.Read(&buf)
	require.NoError(t, err)
	reread, err := s.FromFlat(entries)
	require.NoError(t, err)

	require.Len(t, reread.Quantities, len(doc.Quantities))
	for path, q := range doc.Quantities {
		rt, ok := reread.Quantities[path]
		require.True(t, ok, path)
		require.Equal(t, q.Units, rt.Units, path)
		require.Equal(t, q.Description, rt.Description, path)

		f, ok := s.FieldByPath(path)
		require.True(t, ok, path)
		switch f.Kind {
		case model.Real:
			requireRealEqual(t, q.Value.(float64), rt.Value.(float64), path)
		case model.RealList:
			want := q.Value.([]float64)
			got := rt.Value.([]float64)
			require.Len(t, got, len(want), path)
			for i := range want {
				requireRealEqual(t, want[i], got[i], path)
			}
		case model.Datetime:
			require.True(t, rt.Value.(time.Time).Equal(q.Value.(time.Time)), path)
		default:
			require.Equal(t, q.Value, rt.Value, path)
		}
	}
}

// requireRealEqual compares reals to the 7 significant digits the
// d-exponent rendering carries.
func requireRealEqual(t *testing.T, want, got float64, path string) {
	t.Helper()
	require.InDelta(t, want, got, math.Abs(want)*1e-6+1e-12, path)
}

func TestParseRejectsUnknownSection(t *testing.T) {
	s, err := Default()
	require.NoError(t, err)
	_, err = s.Parse([]byte("bogus_section:\n  x: 1\n"))
	var schemaErr *model.SchemaError
	require.ErrorAs(t, err, &schemaErr)
}

func TestParseRejectsUnknownKey(t *testing.T) {
	s, err := Default()
	require.NoError(t, err)
	_, err = s.Parse([]byte("location:\n  bogus:\n    value: 1\n"))
	var schemaErr *model.SchemaError
	require.ErrorAs(t, err, &schemaErr)
	require.Equal(t, "location.bogus", schemaErr.Path)
}

func TestParseReportsMissingRequired(t *testing.T) {
	s, err := Default()
	require.NoError(t, err)
	_, err = s.Parse([]byte(
		"location:\n  latitude:\n    value: 49.2\n    description: lat\n"))
	var schemaErr *model.SchemaError
	require.ErrorAs(t, err, &schemaErr)
	require.Contains(t, schemaErr.Reason, "missing required parameters")
	require.Contains(t, schemaErr.Reason, "grid.model_depth")
}

func TestParseRequiresDescription(t *testing.T) {
	s, err := Default()
	require.NoError(t, err)
	_, err = s.Parse([]byte("location:\n  latitude:\n    value: 49.2\n"))
	var schemaErr *model.SchemaError
	require.ErrorAs(t, err, &schemaErr)
	require.Equal(t, "location.latitude", schemaErr.Path)
	require.Equal(t, "missing description", schemaErr.Reason)
}

func TestCoerceValueForms(t *testing.T) {
	for _, raw := range []any{42.5, "4.25e1", "4.25d1", "4.25D1"} {
		v, err := coerceValue(model.Real, raw)
		require.NoError(t, err)
		require.Equal(t, 42.5, v)
	}
	v, err := coerceValue(model.Real, 42)
	require.NoError(t, err)
	require.Equal(t, 42.0, v)

	_, err = coerceValue(model.Real, "forty")
	require.Error(t, err)
	_, err = coerceValue(model.Int, 4.5)
	require.Error(t, err)
	_, err = coerceValue(model.Bool, "true")
	require.Error(t, err)

	n, err := coerceValue(model.Int, "7")
	require.NoError(t, err)
	require.Equal(t, 7, n)
}

func TestFormatValueText(t *testing.T) {
	require.Equal(t, "4.000000d+01", formatReal(40.0))
	require.Equal(t, "2.000000d-05", formatReal(2e-5))
	require.Equal(t, "-5.000000d-01", formatReal(-0.5))

	text, err := formatValue(model.Bool, true)
	require.NoError(t, err)
	require.Equal(t, ".true.", text)

	text, err = formatValue(model.Datetime, time.Date(2002, 10, 19, 0, 10, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Equal(t, `"2002-10-19 00:10:00"`, text)

	text, err = formatValue(model.IntList, []int{292, 293})
	require.NoError(t, err)
	require.Equal(t, "292 293", text)

	_, err = formatValue(model.Real, "not a real")
	require.Error(t, err)
}

func TestRenderNorthernReturnFlowGroup(t *testing.T) {
	s, doc := loadTestDocument(t)
	doc.Quantities["physics.fresh_water.flux.northern_return_flow"].Value = true
	northern := []string{
		"physics.fresh_water.flux.northern_influence_strength",
		"physics.fresh_water.flux.northern_influence_integration_time_scale",
		"physics.fresh_water.flux.northern_water_depth_peak",
		"physics.fresh_water.flux.northern_water_upper_extension",
		"physics.fresh_water.flux.northern_water_lower_extension",
		"physics.fresh_water.flux.northern_water_power_riverflow_influence",
		"physics.fresh_water.flux.northern_water_normalization_riverflow_influence",
	}
	for i, path := range northern {
		doc.Quantities[path] = &model.Quantity{Value: float64(i + 1)}
	}

	records, err := s.Render(doc)
	require.NoError(t, err)
	keys := recordKeys(records)
	i := keyIndex(t, keys, "northern_return_flow_on")
	require.Equal(t, []string{
		"strength_northern", "tau_northern", "depth_northern",
		"upper_northern", "lower_northern", "power_northern", "normal_northern",
	}, keys[i+1:i+8])
}

func TestRenderMissingTriggeredKey(t *testing.T) {
	s, doc := loadTestDocument(t)
	doc.Quantities["physics.fresh_water.flux.northern_return_flow"].Value = true

	_, err := s.Render(doc)
	var schemaErr *model.SchemaError
	require.ErrorAs(t, err, &schemaErr)
	require.Contains(t, schemaErr.Reason, "required for infile key")
}

func TestRenderVaryFollowChain(t *testing.T) {
	s, doc := loadTestDocument(t)
	doc.Quantities["vary.wind"].Value = true
	doc.Quantities["vary.wind_fixed"] = &model.Quantity{Value: true}
	doc.Quantities["vary.wind_value"] = &model.Quantity{Value: 5.0}

	records, err := s.Render(doc)
	require.NoError(t, err)
	keys := recordKeys(records)
	i := keyIndex(t, keys, "vary%wind%enabled")
	require.Equal(t, []string{"vary%wind%fixed", "vary%wind%value"}, keys[i+1:i+3])

	// The fixed selector chains: .false. swaps the fixed value for the
	// shift/fraction/addition triple.
	doc.Quantities["vary.wind_fixed"].Value = false
	doc.Quantities["vary.wind_shift"] = &model.Quantity{Value: 0.0}
	doc.Quantities["vary.wind_fraction"] = &model.Quantity{Value: 1.5}
	doc.Quantities["vary.wind_addition"] = &model.Quantity{Value: 0.0}

	records, err = s.Render(doc)
	require.NoError(t, err)
	keys = recordKeys(records)
	i = keyIndex(t, keys, "vary%wind%enabled")
	require.Equal(t, []string{
		"vary%wind%fixed", "vary%wind%shift", "vary%wind%fraction", "vary%wind%addition",
	}, keys[i+1:i+5])
	require.NotContains(t, keys, "vary%wind%value")
}

func setAvgHistForcing(doc *model.Document, trigger string) {
	doc.Quantities["forcing_data.use_average_forcing_data"].Value = trigger
	for _, path := range []string{
		"forcing_data.avg_historical_wind_file",
		"forcing_data.avg_historical_air_temperature_file",
		"forcing_data.avg_historical_cloud_file",
		"forcing_data.avg_historical_humidity_file",
		"forcing_data.avg_historical_major_river_file",
		"forcing_data.avg_historical_minor_river_file",
	} {
		doc.Quantities[path] = &model.Quantity{Value: "../sog-forcing/avg.dat"}
	}
}

func TestRenderAvgHistForcingPrecedesTargets(t *testing.T) {
	for _, trigger := range []string{"yes", "fill", "histfill"} {
		s, doc := loadTestDocument(t)
		setAvgHistForcing(doc, trigger)

		records, err := s.Render(doc)
		require.NoError(t, err)
		keys := recordKeys(records)
		for target, avgKey := range map[string]string{
			"wind":        "average/hist wind",
			"air temp":    "average/hist air temp",
			"cloud":       "average/hist cloud",
			"humidity":    "average/hist humidity",
			"major river": "average/hist major river",
			"minor river": "average/hist minor river",
		} {
			i := keyIndex(t, keys, target)
			require.Equal(t, avgKey, keys[i-1], "trigger %q", trigger)
		}
	}
}

func TestRenderUnknownTriggerValue(t *testing.T) {
	s, doc := loadTestDocument(t)
	setAvgHistForcing(doc, "maybe")

	_, err := s.Render(doc)
	var schemaErr *model.SchemaError
	require.ErrorAs(t, err, &schemaErr)
	require.Contains(t, schemaErr.Reason, "selects no key group")
}

func TestReadValue(t *testing.T) {
	s, doc := loadTestDocument(t)
	q, err := s.ReadValue(doc, "grid.model_depth")
	require.NoError(t, err)
	require.Equal(t, 40.0, q.Value)

	_, err = s.ReadValue(doc, "grid.bogus")
	var schemaErr *model.SchemaError
	require.ErrorAs(t, err, &schemaErr)
}

func TestParseEdit(t *testing.T) {
	s, err := Default()
	require.NoError(t, err)

	overrides, err := s.ParseEdit([]byte(
		"grid:\n  model_depth:\n    value: 35.0\nnumerics:\n  dt:\n    value: 600\n"))
	require.NoError(t, err)
	require.Len(t, overrides, 2)
	require.Equal(t, 35.0, overrides["grid.model_depth"].Value)
	require.Equal(t, 600, overrides["numerics.dt"].Value)
}

func TestParseEditUnknownPath(t *testing.T) {
	s, err := Default()
	require.NoError(t, err)

	_, err = s.ParseEdit([]byte("grid:\n  bogus:\n    value: 1\n"))
	var pathErr *model.PathError
	require.ErrorAs(t, err, &pathErr)
	require.Equal(t, "grid.bogus", pathErr.Path)
}

func TestFromFlatRejectsUnknownKey(t *testing.T) {
	s, err := Default()
	require.NoError(t, err)

	_, err = s.FromFlat(map[string]infile.Entry{
		"bogus": {Value: "1"},
	})
	var schemaErr *model.SchemaError
	require.ErrorAs(t, err, &schemaErr)
	require.Equal(t, "bogus", schemaErr.Path)
}

func TestFromFlatReportsMissingKeys(t *testing.T) {
	s, err := Default()
	require.NoError(t, err)

	_, err = s.FromFlat(map[string]infile.Entry{
		"latitude": {Value: "4.912530d+01"},
	})
	var schemaErr *model.SchemaError
	require.ErrorAs(t, err, &schemaErr)
	require.Contains(t, schemaErr.Reason, "missing required infile keys")
}
