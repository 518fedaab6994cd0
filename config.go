package pink

import (
	"encoding/json"
	"math"
	"os"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/domrachev03/pink/barriers"
	"github.com/domrachev03/pink/rigidbody"
	"github.com/domrachev03/pink/spatialmath"
	"github.com/domrachev03/pink/tasks"
)

// PoseConfig is a JSON representation of a world-frame pose target. Translation is in meters and
// orientation in Euler angles, radians.
type PoseConfig struct {
	Translation rigidbody.TranslationConfig `json:"translation"`
	Orientation *spatialmath.EulerAngles    `json:"orientation,omitempty"`
}

// Pose converts the config to a Pose.
func (cfg *PoseConfig) Pose() spatialmath.Pose {
	point := r3.Vector{X: cfg.Translation.X, Y: cfg.Translation.Y, Z: cfg.Translation.Z}
	var orientation spatialmath.Orientation
	if cfg.Orientation != nil {
		orientation = cfg.Orientation
	}
	return spatialmath.NewPose(point, orientation)
}

// TaskConfig is a JSON representation of one IK task. Type selects the task and decides which of
// the remaining fields apply: "frame" uses Frame, PositionCost, OrientationCost and optionally
// Target; "posture" and "damping" use Cost.
type TaskConfig struct {
	Type            string      `json:"type"`
	Frame           string      `json:"frame,omitempty"`
	PositionCost    float64     `json:"position_cost,omitempty"`
	OrientationCost float64     `json:"orientation_cost,omitempty"`
	Cost            float64     `json:"cost,omitempty"`
	LmDamping       float64     `json:"lm_damping,omitempty"`
	Gain            *float64    `json:"gain,omitempty"`
	Target          *PoseConfig `json:"target,omitempty"`
}

// BarrierConfig is a JSON representation of one IK barrier. Type selects the barrier: "position"
// uses Frame, Indices, Min, Max and per-index Gain entries; "configuration" uses a single Gain
// entry; "spherical" uses FrameA, FrameB and a single Gain entry. SafeGain enables the
// safe-displacement objective when positive; Gain defaults to 1 when omitted.
type BarrierConfig struct {
	Type     string    `json:"type"`
	Frame    string    `json:"frame,omitempty"`
	FrameA   string    `json:"frame_a,omitempty"`
	FrameB   string    `json:"frame_b,omitempty"`
	Indices  []int     `json:"indices,omitempty"`
	Min      []float64 `json:"min,omitempty"`
	Max      []float64 `json:"max,omitempty"`
	Gain     []float64 `json:"gain,omitempty"`
	SafeGain float64   `json:"safe_gain,omitempty"`
}

// ScenarioConfig is a JSON representation of a full IK problem setup: the tasks and barriers to
// run against a model.
type ScenarioConfig struct {
	Tasks    []TaskConfig    `json:"tasks"`
	Barriers []BarrierConfig `json:"barriers"`
}

// ReadScenarioConfigFile reads and parses a scenario from a JSON file.
func ReadScenarioConfigFile(filename string) (*ScenarioConfig, error) {
	jsonData, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read scenario file")
	}
	cfg := &ScenarioConfig{}
	if err := json.Unmarshal(jsonData, cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse scenario json")
	}
	return cfg, nil
}

// BuildTasks instantiates the tasks of the scenario. Frame tasks with a target in the config have
// it set; the rest expect SetTarget or SetTargetFromConfiguration before solving.
func (cfg *ScenarioConfig) BuildTasks() ([]tasks.Task, error) {
	built := make([]tasks.Task, 0, len(cfg.Tasks))
	for _, taskCfg := range cfg.Tasks {
		switch taskCfg.Type {
		case "frame":
			if taskCfg.Frame == "" {
				return nil, errors.New("frame task requires a frame name")
			}
			task := tasks.NewFrameTask(taskCfg.Frame, taskCfg.PositionCost, taskCfg.OrientationCost)
			if taskCfg.LmDamping > 0 {
				task.LmDamping = taskCfg.LmDamping
			}
			if taskCfg.Gain != nil {
				task.Gain = *taskCfg.Gain
			}
			if taskCfg.Target != nil {
				task.SetTarget(taskCfg.Target.Pose())
			}
			built = append(built, task)
		case "posture":
			task := tasks.NewPostureTask(taskCfg.Cost)
			if taskCfg.LmDamping > 0 {
				task.LmDamping = taskCfg.LmDamping
			}
			if taskCfg.Gain != nil {
				task.Gain = *taskCfg.Gain
			}
			built = append(built, task)
		case "damping":
			built = append(built, tasks.NewDampingTask(taskCfg.Cost))
		default:
			return nil, errors.Errorf("unknown task type: %s", taskCfg.Type)
		}
	}
	return built, nil
}

// BuildBarriers instantiates the barriers of the scenario against the given model.
func (cfg *ScenarioConfig) BuildBarriers(model *rigidbody.SimpleModel) ([]barriers.Barrier, error) {
	built := make([]barriers.Barrier, 0, len(cfg.Barriers))
	for _, barrierCfg := range cfg.Barriers {
		switch barrierCfg.Type {
		case "position":
			if barrierCfg.Frame == "" {
				return nil, errors.New("position barrier requires a frame name")
			}
			min, max := barrierCfg.Min, barrierCfg.Max
			if min == nil {
				min = filledSlice(len(barrierCfg.Indices), math.Inf(-1))
			}
			if max == nil {
				max = filledSlice(len(barrierCfg.Indices), math.Inf(1))
			}
			gain := barrierCfg.Gain
			if gain == nil {
				gain = filledSlice(len(barrierCfg.Indices), 1)
			}
			barrier, err := barriers.NewPositionBarrier(barrierCfg.Frame, barrierCfg.Indices, min, max, gain, barrierCfg.SafeGain)
			if err != nil {
				return nil, err
			}
			built = append(built, barrier)
		case "configuration":
			barrier, err := barriers.NewConfigurationBarrier(model, scalarGain(barrierCfg.Gain), barrierCfg.SafeGain)
			if err != nil {
				return nil, err
			}
			built = append(built, barrier)
		case "spherical":
			if barrierCfg.FrameA == "" || barrierCfg.FrameB == "" {
				return nil, errors.New("spherical barrier requires frame_a and frame_b")
			}
			barrier, err := barriers.NewBodySphericalBarrierFromModel(
				model, barrierCfg.FrameA, barrierCfg.FrameB, scalarGain(barrierCfg.Gain), barrierCfg.SafeGain)
			if err != nil {
				return nil, err
			}
			built = append(built, barrier)
		default:
			return nil, errors.Errorf("unknown barrier type: %s", barrierCfg.Type)
		}
	}
	return built, nil
}

func scalarGain(gain []float64) float64 {
	if len(gain) == 0 {
		return 1
	}
	return gain[0]
}

func filledSlice(n int, value float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = value
	}
	return out
}
