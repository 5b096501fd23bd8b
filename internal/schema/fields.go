package schema

import "github.com/sogmodel/sogcmd/internal/model"

// Field maps one leaf of the nested configuration document onto one flat
// infile key. Path is the dotted document path, Key is the infile key the
// model's input processor reads, VarName names the Fortran variable the
// value lands in (informational only). Optional fields are members of
// conditional key groups; they may be absent from a document unless their
// trigger selects them.
type Field struct {
	Path     string
	Key      string
	Kind     model.Kind
	VarName  string
	Optional bool
}

// FollowGroup emits extra keys immediately after its trigger key's line.
// The set of keys depends on the trigger's rendered value; groups chain
// when an emitted key is itself a trigger.
type FollowGroup struct {
	Trigger string
	Keys    map[string][]string
}

// PrecedeGroup emits extra keys immediately before the Target key's line,
// selected by the rendered value of a (possibly distant) trigger key. The
// model reads average/historical forcing file names this way.
type PrecedeGroup struct {
	Trigger string
	Target  string
	Keys    map[string][]string
}

var fieldTable = []Field{
	{Path: "location.latitude", Key: "latitude", Kind: model.Real, VarName: "latitude"},
	{Path: "location.minor_axis", Key: "Lx", Kind: model.Real, VarName: "Lx"},
	{Path: "location.major_axis", Key: "Ly", Kind: model.Real, VarName: "Ly"},
	{Path: "location.open_ended_estuary", Key: "openEnd", Kind: model.Bool, VarName: "openEnd"},

	{Path: "grid.model_depth", Key: "maxdepth", Kind: model.Real, VarName: "grid%D"},
	{Path: "grid.grid_size", Key: "gridsize", Kind: model.Int, VarName: "grid%M"},
	{Path: "grid.lambda_factor", Key: "lambda", Kind: model.Real, VarName: "lambda"},

	{Path: "initial_conditions.init_datetime", Key: "init datetime", Kind: model.Datetime, VarName: "initDatetime"},
	{Path: "initial_conditions.CTD_file", Key: "ctd_in", Kind: model.Str, VarName: "ctd_in"},
	{Path: "initial_conditions.nutrients_file", Key: "nuts_in", Kind: model.Str, VarName: "nuts_in"},
	{Path: "initial_conditions.bottle_file", Key: "botl_in", Kind: model.Str, VarName: "botl_in"},
	{Path: "initial_conditions.chemistry_file", Key: "chem_in", Kind: model.Str, VarName: "chem_in"},
	{Path: "initial_conditions.init_chl_ratios", Key: "initial chl split", Kind: model.RealList, VarName: "Psplit"},
	{Path: "initial_conditions.nitrate_chl_conversion", Key: "N2chl", Kind: model.Real, VarName: "N2chl"},

	{Path: "end_datetime", Key: "end datetime", Kind: model.Datetime, VarName: "endDatetime"},

	{Path: "numerics.dt", Key: "dt", Kind: model.Int, VarName: "dt"},
	{Path: "numerics.chem_dt", Key: "chem_dt", Kind: model.Int, VarName: "chem_dt"},
	{Path: "numerics.max_iter", Key: "max_iter", Kind: model.Int, VarName: "max_iter"},

	{Path: "vary.wind", Key: "vary%wind%enabled", Kind: model.Bool, VarName: "vary%wind%enabled"},
	{Path: "vary.wind_fixed", Key: "vary%wind%fixed", Kind: model.Bool, VarName: "vary%wind%fixed", Optional: true},
	{Path: "vary.wind_value", Key: "vary%wind%value", Kind: model.Real, VarName: "vary%wind%value", Optional: true},
	{Path: "vary.wind_shift", Key: "vary%wind%shift", Kind: model.Real, VarName: "vary%wind%shift", Optional: true},
	{Path: "vary.wind_fraction", Key: "vary%wind%fraction", Kind: model.Real, VarName: "vary%wind%fraction", Optional: true},
	{Path: "vary.wind_addition", Key: "vary%wind%addition", Kind: model.Real, VarName: "vary%wind%addition", Optional: true},
	{Path: "vary.cloud_fraction", Key: "vary%cf%enabled", Kind: model.Bool, VarName: "vary%cf%enabled"},
	{Path: "vary.cloud_fraction_fixed", Key: "vary%cf%fixed", Kind: model.Bool, VarName: "vary%cf%fixed", Optional: true},
	{Path: "vary.cloud_fraction_value", Key: "vary%cf%value", Kind: model.Real, VarName: "vary%cf%value", Optional: true},
	{Path: "vary.cloud_fraction_shift", Key: "vary%cf%shift", Kind: model.Real, VarName: "vary%cf%shift", Optional: true},
	{Path: "vary.cloud_fraction_fraction", Key: "vary%cf%fraction", Kind: model.Real, VarName: "vary%cf%fraction", Optional: true},
	{Path: "vary.cloud_fraction_addition", Key: "vary%cf%addition", Kind: model.Real, VarName: "vary%cf%addition", Optional: true},
	{Path: "vary.river_flows", Key: "vary%rivers%enabled", Kind: model.Bool, VarName: "vary%rivers%enabled"},
	{Path: "vary.river_flows_fixed", Key: "vary%rivers%fixed", Kind: model.Bool, VarName: "vary%rivers%fixed", Optional: true},
	{Path: "vary.river_flows_value", Key: "vary%rivers%value", Kind: model.Real, VarName: "vary%rivers%value", Optional: true},
	{Path: "vary.river_flows_shift", Key: "vary%rivers%shift", Kind: model.Real, VarName: "vary%rivers%shift", Optional: true},
	{Path: "vary.river_flows_fraction", Key: "vary%rivers%fraction", Kind: model.Real, VarName: "vary%rivers%fraction", Optional: true},
	{Path: "vary.river_flows_addition", Key: "vary%rivers%addition", Kind: model.Real, VarName: "vary%rivers%addition", Optional: true},
	{Path: "vary.temperature", Key: "vary%temperature%enabled", Kind: model.Bool, VarName: "vary%temperature%enabled"},
	{Path: "vary.temperature_fixed", Key: "vary%temperature%fixed", Kind: model.Bool, VarName: "vary%temperature%fixed", Optional: true},
	{Path: "vary.temperature_value", Key: "vary%temperature%value", Kind: model.Real, VarName: "vary%temperature%value", Optional: true},
	{Path: "vary.temperature_shift", Key: "vary%temperature%shift", Kind: model.Real, VarName: "vary%temperature%shift", Optional: true},
	{Path: "vary.temperature_fraction", Key: "vary%temperature%fraction", Kind: model.Real, VarName: "vary%temperature%fraction", Optional: true},
	{Path: "vary.temperature_addition", Key: "vary%temperature%addition", Kind: model.Real, VarName: "vary%temperature%addition", Optional: true},

	{Path: "timeseries_results.std_physics", Key: "std_phys_ts_out", Kind: model.Str, VarName: "std_phys_ts_out"},
	{Path: "timeseries_results.user_physics", Key: "user_phys_ts_out", Kind: model.Str, VarName: "user_phys_ts_out"},
	{Path: "timeseries_results.std_biology", Key: "std_bio_ts_out", Kind: model.Str, VarName: "std_bio_ts_out"},
	{Path: "timeseries_results.user_biology", Key: "user_bio_ts_out", Kind: model.Str, VarName: "user_bio_ts_out"},
	{Path: "timeseries_results.std_chemistry", Key: "std_chem_ts_out", Kind: model.Str, VarName: "std_chem_ts_out"},

	{Path: "profiles_results.num_profiles", Key: "noprof", Kind: model.Int, VarName: "noprof"},
	{Path: "profiles_results.profile_days", Key: "profday", Kind: model.IntList, VarName: "profileDatetime%yr_day"},
	{Path: "profiles_results.profile_times", Key: "proftime", Kind: model.RealList, VarName: "profileDatetime%day_sec"},
	{Path: "profiles_results.halocline_file", Key: "haloclinefile", Kind: model.Str, VarName: "haloclines_fn"},
	{Path: "profiles_results.profile_file_base", Key: "profile_base", Kind: model.Str, VarName: "profilesBase_fn"},
	{Path: "profiles_results.hoffmueller_file", Key: "Hoffmueller file", Kind: model.Str, VarName: "Hoffmueller_fn"},
	{Path: "profiles_results.hoffmueller_start_year", Key: "Hoffmueller start yr", Kind: model.Int, VarName: "Hoff_startyr"},
	{Path: "profiles_results.hoffmueller_start_day", Key: "Hoffmueller start day", Kind: model.Int, VarName: "Hoff_startday"},
	{Path: "profiles_results.hoffmueller_start_sec", Key: "Hoffmueller start sec", Kind: model.Int, VarName: "Hoff_startsec"},
	{Path: "profiles_results.hoffmueller_end_year", Key: "Hoffmueller end yr", Kind: model.Int, VarName: "Hoff_endyr"},
	{Path: "profiles_results.hoffmueller_end_day", Key: "Hoffmueller end day", Kind: model.Int, VarName: "Hoff_endday"},
	{Path: "profiles_results.hoffmueller_end_sec", Key: "Hoffmueller end sec", Kind: model.Int, VarName: "Hoff_endsec"},
	{Path: "profiles_results.hoffmueller_interval", Key: "Hoffmueller interval", Kind: model.Real, VarName: "Hoff_interval"},

	{Path: "physics.bottom_boundary_conditions.constant_temperature", Key: "temp_constant", Kind: model.Bool, VarName: "temp_constant"},
	{Path: "physics.bottom_boundary_conditions.salinity_fit_coefficients", Key: "salinity", Kind: model.RealList, VarName: "c(:,1)"},
	{Path: "physics.bottom_boundary_conditions.temperature_fit_coefficients", Key: "temperature", Kind: model.RealList, VarName: "c(:,2)"},
	{Path: "physics.bottom_boundary_conditions.phyto_fluor_fit_coefficients", Key: "Phytoplankton", Kind: model.RealList, VarName: "c(:,3)"},
	{Path: "physics.bottom_boundary_conditions.nitrate_fit_coefficients", Key: "Nitrate", Kind: model.RealList, VarName: "c(:,4)"},
	{Path: "physics.bottom_boundary_conditions.silicon_fit_coefficients", Key: "Silicon", Kind: model.RealList, VarName: "c(:,5)"},
	{Path: "physics.bottom_boundary_conditions.DIC_fit_coefficients", Key: "DIC", Kind: model.RealList, VarName: "c(:,6)"},
	{Path: "physics.bottom_boundary_conditions.dissolved_oxygen_fit_coefficients", Key: "Oxy", Kind: model.RealList, VarName: "c(:,7)"},
	{Path: "physics.bottom_boundary_conditions.alkalinity_fit_coefficients", Key: "Alk", Kind: model.RealList, VarName: "c(:,8)"},
	{Path: "physics.bottom_boundary_conditions.ammonium_fit_coefficients", Key: "Ammonium", Kind: model.RealList, VarName: "c(:,9)"},
	{Path: "physics.bottom_boundary_conditions.phyto_ratio_fit_coefficients", Key: "Ratio", Kind: model.RealList, VarName: "c(:,10)"},

	{Path: "physics.turbulence.momentum_wave_break_diffusivity", Key: "nu_w_m", Kind: model.Real, VarName: "nu%m%int_wave"},
	{Path: "physics.turbulence.scalar_wave_break_diffusivity", Key: "nu_w_s", Kind: model.Real, VarName: "nu%T%int_wave, nu%S%int_wave"},
	{Path: "physics.turbulence.shear_diffusivity_smoothing", Key: "shear smooth", Kind: model.RealList, VarName: "shear_diff_smooth"},

	{Path: "physics.fresh_water.upwelling.max_upwelling_velocity", Key: "upwell_const", Kind: model.Real, VarName: "upwell_const"},
	{Path: "physics.fresh_water.upwelling.variation_depth_param", Key: "d", Kind: model.Real, VarName: "d"},

	{Path: "physics.fresh_water.flux.mean_total_flow", Key: "Qbar", Kind: model.Real, VarName: "Qbar"},
	{Path: "physics.fresh_water.flux.common_exponent", Key: "F_SOG", Kind: model.Real, VarName: "F_SOG"},
	{Path: "physics.fresh_water.flux.SoG_exponent", Key: "F_RI", Kind: model.Real, VarName: "F_RI"},
	{Path: "physics.fresh_water.flux.scale_factor", Key: "Fw_scale", Kind: model.Real, VarName: "Fw_scale"},
	{Path: "physics.fresh_water.flux.add_freshwater_on_surface", Key: "Fw_surface", Kind: model.Bool, VarName: "Fw_surface"},
	{Path: "physics.fresh_water.flux.distribution_depth", Key: "Fw_depth", Kind: model.Real, VarName: "Fw_depth"},
	{Path: "physics.fresh_water.flux.include_fresh_water_nutrients", Key: "use_Fw_nutrients", Kind: model.Bool, VarName: "use_Fw_nutrients"},
	{Path: "physics.fresh_water.flux.northern_return_flow", Key: "northern_return_flow_on", Kind: model.Bool, VarName: "Northern_return"},
	{Path: "physics.fresh_water.flux.northern_influence_strength", Key: "strength_northern", Kind: model.Real, VarName: "strength", Optional: true},
	{Path: "physics.fresh_water.flux.northern_influence_integration_time_scale", Key: "tau_northern", Kind: model.Real, VarName: "tauN", Optional: true},
	{Path: "physics.fresh_water.flux.northern_water_depth_peak", Key: "depth_northern", Kind: model.Real, VarName: "central_depth", Optional: true},
	{Path: "physics.fresh_water.flux.northern_water_upper_extension", Key: "upper_northern", Kind: model.Real, VarName: "upper_width", Optional: true},
	{Path: "physics.fresh_water.flux.northern_water_lower_extension", Key: "lower_northern", Kind: model.Real, VarName: "lower_width", Optional: true},
	{Path: "physics.fresh_water.flux.northern_water_power_riverflow_influence", Key: "power_northern", Kind: model.Real, VarName: "power", Optional: true},
	{Path: "physics.fresh_water.flux.northern_water_normalization_riverflow_influence", Key: "normal_northern", Kind: model.Real, VarName: "Fo", Optional: true},

	{Path: "physics.fresh_water.salinity_fit.bottom_salinity", Key: "cbottom", Kind: model.Real, VarName: "cbottom"},
	{Path: "physics.fresh_water.salinity_fit.alpha", Key: "calpha", Kind: model.Real, VarName: "calpha"},
	{Path: "physics.fresh_water.salinity_fit.alpha2", Key: "calpha2", Kind: model.Real, VarName: "calpha2"},
	{Path: "physics.fresh_water.salinity_fit.beta", Key: "cbeta", Kind: model.Real, VarName: "cbeta"},
	{Path: "physics.fresh_water.salinity_fit.gamma", Key: "cgamma", Kind: model.Real, VarName: "cgamma"},

	{Path: "physics.K_PAR_fit.ialpha", Key: "ialpha", Kind: model.Real, VarName: "ialpha"},
	{Path: "physics.K_PAR_fit.ibeta", Key: "ibeta", Kind: model.Real, VarName: "ibeta"},
	{Path: "physics.K_PAR_fit.igamma", Key: "igamma", Kind: model.Real, VarName: "igamma"},
	{Path: "physics.K_PAR_fit.isigma", Key: "isigma", Kind: model.Real, VarName: "isigma"},
	{Path: "physics.K_PAR_fit.itheta", Key: "itheta", Kind: model.Real, VarName: "itheta"},
	{Path: "physics.K_PAR_fit.idl", Key: "idl", Kind: model.Real, VarName: "idl"},

	{Path: "biology.include_phytoplankton", Key: "biology", Kind: model.Bool, VarName: "biology"},
	{Path: "biology.include_flagellates", Key: "flagellates_on", Kind: model.Bool, VarName: "flagellates"},
	{Path: "biology.include_remineralization", Key: "remineralization", Kind: model.Bool, VarName: "remineralization"},
	{Path: "biology.include_microzooplankton", Key: "use microzooplankton", Kind: model.Bool, VarName: "microzooplankton"},
	{Path: "biology.single_species_light", Key: "single species light", Kind: model.Bool, VarName: "strong_limitation"},

	{Path: "forcing_data.years_of_forcing_data", Key: "years of forcing data", Kind: model.Int, VarName: "NY"},
	{Path: "forcing_data.use_average_forcing_data", Key: "use average/hist forcing", Kind: model.Str, VarName: "use_average_forcing_data"},
	{Path: "forcing_data.wind_forcing_file", Key: "wind", Kind: model.Str, VarName: "n/a"},
	{Path: "forcing_data.avg_historical_wind_file", Key: "average/hist wind", Kind: model.Str, VarName: "n/a", Optional: true},
	{Path: "forcing_data.air_temperature_forcing_file", Key: "air temp", Kind: model.Str, VarName: "n/a"},
	{Path: "forcing_data.avg_historical_air_temperature_file", Key: "average/hist air temp", Kind: model.Str, VarName: "n/a", Optional: true},
	{Path: "forcing_data.cloud_fraction_forcing_file", Key: "cloud", Kind: model.Str, VarName: "n/a"},
	{Path: "forcing_data.avg_historical_cloud_file", Key: "average/hist cloud", Kind: model.Str, VarName: "n/a", Optional: true},
	{Path: "forcing_data.humidity_forcing_file", Key: "humidity", Kind: model.Str, VarName: "n/a"},
	{Path: "forcing_data.avg_historical_humidity_file", Key: "average/hist humidity", Kind: model.Str, VarName: "n/a", Optional: true},
	{Path: "forcing_data.major_river_forcing_file", Key: "major river", Kind: model.Str, VarName: "n/a"},
	{Path: "forcing_data.avg_historical_major_river_file", Key: "average/hist major river", Kind: model.Str, VarName: "n/a", Optional: true},
	{Path: "forcing_data.use_river_temperature", Key: "use river temp", Kind: model.Bool, VarName: "UseRiverTemp"},
	{Path: "forcing_data.river_nutrients_file", Key: "river nutrients file", Kind: model.Str, VarName: "n/a"},
	{Path: "forcing_data.minor_river_forcing_file", Key: "minor river", Kind: model.Str, VarName: "n/a"},
	{Path: "forcing_data.avg_historical_minor_river_file", Key: "average/hist minor river", Kind: model.Str, VarName: "n/a", Optional: true},
	{Path: "forcing_data.alt_minor_river_forcing_file", Key: "alt minor river", Kind: model.Str, VarName: "n/a"},
	{Path: "forcing_data.minor_river_integration_days", Key: "minor river integ days", Kind: model.Int, VarName: "integ_days"},
}

// masterKeyOrder fixes the emission order of unconditional infile lines.
// The model executable reads fields positionally, so this list, not the
// document's structure, is load-bearing. Conditional keys are spliced in
// by the follow/precede groups below.
var masterKeyOrder = []string{
	"latitude", "Lx", "Ly", "openEnd",
	"maxdepth", "gridsize", "lambda",
	"init datetime", "end datetime", "dt", "chem_dt", "max_iter",
	"vary%wind%enabled", "vary%cf%enabled", "vary%rivers%enabled",
	"vary%temperature%enabled",
	"N2chl", "ctd_in", "nuts_in", "botl_in", "chem_in",
	"initial chl split",
	"std_phys_ts_out", "user_phys_ts_out", "std_bio_ts_out",
	"user_bio_ts_out", "std_chem_ts_out",
	"noprof", "profday", "proftime", "haloclinefile", "profile_base",
	"Hoffmueller file", "Hoffmueller start yr", "Hoffmueller start day",
	"Hoffmueller start sec", "Hoffmueller end yr", "Hoffmueller end day",
	"Hoffmueller end sec", "Hoffmueller interval",
	"temp_constant", "salinity", "temperature", "Phytoplankton", "Nitrate",
	"Silicon", "DIC", "Oxy", "Alk", "Ammonium", "Ratio",
	"nu_w_m", "nu_w_s", "shear smooth",
	"upwell_const", "d",
	"Qbar", "F_SOG", "F_RI", "Fw_scale", "Fw_surface", "Fw_depth",
	"use_Fw_nutrients", "northern_return_flow_on",
	"cbottom", "calpha", "calpha2", "cbeta", "cgamma",
	"ialpha", "ibeta", "igamma", "isigma", "itheta", "idl",
	"biology", "flagellates_on", "remineralization",
	"use microzooplankton", "single species light",
	"years of forcing data", "use average/hist forcing",
	"wind", "air temp", "cloud", "humidity", "major river",
	"use river temp", "river nutrients file", "minor river",
	"alt minor river", "minor river integ days",
}

// varySelectorGroups builds the chained follow-on groups for one forcing
// variation quantity: enabled selects the fixed/variable selector, which in
// turn selects either the fixed value or the shift/fraction/addition triple.
func varySelectorGroups(quantity string) []FollowGroup {
	prefix := "vary%" + quantity
	return []FollowGroup{
		{
			Trigger: prefix + "%enabled",
			Keys: map[string][]string{
				".true.":  {prefix + "%fixed"},
				".false.": {},
			},
		},
		{
			Trigger: prefix + "%fixed",
			Keys: map[string][]string{
				".true.":  {prefix + "%value"},
				".false.": {prefix + "%shift", prefix + "%fraction", prefix + "%addition"},
			},
		},
	}
}

var followGroups = buildFollowGroups()

func buildFollowGroups() []FollowGroup {
	groups := []FollowGroup{
		{
			Trigger: "northern_return_flow_on",
			Keys: map[string][]string{
				".true.": {
					"strength_northern", "tau_northern", "depth_northern",
					"upper_northern", "lower_northern", "power_northern",
					"normal_northern",
				},
				".false.": {},
			},
		},
	}
	for _, quantity := range []string{"wind", "cf", "rivers", "temperature"} {
		groups = append(groups, varySelectorGroups(quantity)...)
	}
	return groups
}

// avgHistTriggerKey selects which average/historical forcing file lines are
// written ahead of the regular forcing file lines.
const avgHistTriggerKey = "use average/hist forcing"

var precedeGroups = buildPrecedeGroups()

func buildPrecedeGroups() []PrecedeGroup {
	targets := map[string]string{
		"wind":        "average/hist wind",
		"air temp":    "average/hist air temp",
		"cloud":       "average/hist cloud",
		"humidity":    "average/hist humidity",
		"major river": "average/hist major river",
		"minor river": "average/hist minor river",
	}
	groups := make([]PrecedeGroup, 0, len(targets))
	for target, avgKey := range targets {
		groups = append(groups, PrecedeGroup{
			Trigger: avgHistTriggerKey,
			Target:  target,
			Keys: map[string][]string{
				"yes":      {avgKey},
				"fill":     {avgKey},
				"histfill": {avgKey},
				"no":       {},
			},
		})
	}
	return groups
}
