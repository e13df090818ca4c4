package mockagent

// paramTable lists a program's parameter short codes and default values.
type paramTable struct {
	codes    map[string]string
	defaults map[string]float64
}

var baseParams = paramTable{
	codes: map[string]string{
		"bl":  "beep_len",
		"bf":  "beep_freq",
		"s":   "speed",
		"dtt": "dist_to_time",
		"att": "angle_to_time",
	},
	defaults: map[string]float64{
		"beep_len":      0.5,
		"beep_freq":     2000,
		"speed":         0.4,
		"dist_to_time":  0.07,
		"angle_to_time": 0.009,
	},
}

// Programs the mock agent can switch to.
const (
	ProgramTracie = "tracie"
	ProgramCalib  = "calib"
	ProgramAvoid  = "avoid"
)

var programParams = map[string]paramTable{
	ProgramTracie: {
		codes: map[string]string{
			"rs": "rotation_speed",
			"ps": "point_scale",
			"mr": "min_rotation",
		},
		defaults: map[string]float64{
			"speed":          0.1,
			"angle_to_time":  0.0052,
			"rotation_speed": 0.1,
			"point_scale":    0.02, // cm/px
			"min_rotation":   2,    // deg
		},
	},
	ProgramCalib: {
		codes:    map[string]string{"ca": "calib_angle"},
		defaults: map[string]float64{"calib_angle": 90},
	},
	ProgramAvoid: {
		codes: map[string]string{
			"sd": "obstacle_slowdown",
			"ot": "obstacle_thresh",
			"cr": "compare_rotation",
			"bi": "bias",
		},
		defaults: map[string]float64{
			"obstacle_slowdown": 0.2,
			"obstacle_thresh":   1,
			"compare_rotation":  25,
			"bias":              0,
		},
	},
}

// merged returns the base table overlaid with the program's own.
func merged(program string) (codes map[string]string, defaults map[string]float64) {
	codes = make(map[string]string)
	defaults = make(map[string]float64)
	for _, t := range []paramTable{baseParams, programParams[program]} {
		for k, v := range t.codes {
			codes[k] = v
		}
		for k, v := range t.defaults {
			defaults[k] = v
		}
	}
	return codes, defaults
}
