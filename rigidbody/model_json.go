package rigidbody

import (
	"encoding/json"
	"os"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"golang.org/x/exp/maps"

	"github.com/domrachev03/pink/spatialmath"
)

// TranslationConfig deserializes a translation from JSON, in meters.
type TranslationConfig struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// ParseConfig converts a TranslationConfig to an r3.Vector.
func (cfg *TranslationConfig) ParseConfig() r3.Vector {
	return r3.Vector{cfg.X, cfg.Y, cfg.Z}
}

// AxisConfig deserializes a joint axis from JSON.
type AxisConfig struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// ParseConfig converts an AxisConfig to an R4AA with no rotation.
func (cfg *AxisConfig) ParseConfig() spatialmath.R4AA {
	return spatialmath.R4AA{RX: cfg.X, RY: cfg.Y, RZ: cfg.Z}
}

// SphereConfig deserializes link collision geometry from JSON; the center is an offset from the
// link frame in meters.
type SphereConfig struct {
	Radius float64           `json:"r"`
	Center TranslationConfig `json:"center"`
}

// ParseConfig converts a SphereConfig to a Sphere labeled with the owning link's name.
func (cfg *SphereConfig) ParseConfig(label string) (*spatialmath.Sphere, error) {
	return spatialmath.NewSphere(spatialmath.NewPoseFromPoint(cfg.Center.ParseConfig()), cfg.Radius, label)
}

// LinkConfig represents a fixed link in a kinematics config file.
type LinkConfig struct {
	ID          string                   `json:"id"`
	Parent      string                   `json:"parent"`
	Translation TranslationConfig        `json:"translation"`
	Orientation *spatialmath.EulerAngles `json:"orientation,omitempty"`
	Geometry    *SphereConfig            `json:"geometry,omitempty"`
}

// ParseConfig converts a LinkConfig to a static Frame.
func (cfg *LinkConfig) ParseConfig() (Frame, error) {
	var orientation spatialmath.Orientation
	if cfg.Orientation != nil {
		orientation = cfg.Orientation
	}
	pose := spatialmath.NewPose(cfg.Translation.ParseConfig(), orientation)
	if cfg.Geometry == nil {
		return NewStaticFrame(cfg.ID, pose)
	}
	geometry, err := cfg.Geometry.ParseConfig(cfg.ID)
	if err != nil {
		return nil, err
	}
	return NewStaticFrameWithGeometry(cfg.ID, pose, geometry)
}

// JointConfig represents a movable joint in a kinematics config file. Limits are in degrees for
// revolute joints and meters for prismatic joints.
type JointConfig struct {
	ID     string     `json:"id"`
	Type   string     `json:"type"`
	Parent string     `json:"parent"`
	Axis   AxisConfig `json:"axis"`
	Max    float64    `json:"max"`
	Min    float64    `json:"min"`
}

// ParseConfig converts a JointConfig to a revolute or prismatic Frame.
func (cfg *JointConfig) ParseConfig() (Frame, error) {
	switch cfg.Type {
	case "revolute":
		return NewRotationalFrame(cfg.ID, cfg.Axis.ParseConfig(),
			Limit{Min: spatialmath.DegToRad(cfg.Min), Max: spatialmath.DegToRad(cfg.Max)})
	case "prismatic":
		return NewTranslationalFrame(cfg.ID, r3.Vector{cfg.Axis.X, cfg.Axis.Y, cfg.Axis.Z},
			Limit{Min: cfg.Min, Max: cfg.Max})
	default:
		return nil, errors.Errorf("unsupported joint type detected: %v", cfg.Type)
	}
}

// DHParamConfig represents a link-joint pair in a kinematics config file expressed in modified
// Denavit-Hartenberg parameters. Limits are in degrees.
type DHParamConfig struct {
	ID     string  `json:"id"`
	Parent string  `json:"parent"`
	A      float64 `json:"a"`
	D      float64 `json:"d"`
	Alpha  float64 `json:"alpha"`
	Max    float64 `json:"max"`
	Min    float64 `json:"min"`
}

// ToDHFrames converts a DHParamConfig to a revolute joint frame and a static link frame.
func (cfg *DHParamConfig) ToDHFrames() (Frame, Frame, error) {
	jointID := cfg.ID + "_j"
	rFrame, err := NewRotationalFrame(jointID, spatialmath.R4AA{RX: 0, RY: 0, RZ: 1},
		Limit{Min: spatialmath.DegToRad(cfg.Min), Max: spatialmath.DegToRad(cfg.Max)})
	if err != nil {
		return nil, nil, err
	}
	lFrame, err := NewStaticFrame(cfg.ID, spatialmath.NewPoseFromDH(cfg.A, cfg.D, cfg.Alpha))
	if err != nil {
		return nil, nil, err
	}
	return rFrame, lFrame, nil
}

// ModelConfig represents all supported fields in a kinematics JSON file.
type ModelConfig struct {
	Name         string          `json:"name"`
	KinParamType string          `json:"kinematic_param_type,omitempty"`
	Links        []LinkConfig    `json:"links,omitempty"`
	Joints       []JointConfig   `json:"joints,omitempty"`
	DHParams     []DHParamConfig `json:"dhParams,omitempty"`
}

// UnmarshalModelConfig will parse the given JSON data into a kinematics model. modelName sets the
// name of the model, and will use the name from the JSON if the string is empty.
func UnmarshalModelConfig(jsonData []byte, modelName string) (*SimpleModel, error) {
	// empty data probably means that the robot component has no model information
	if len(jsonData) == 0 {
		return nil, ErrNoModelInformation
	}

	cfg := &ModelConfig{}
	if err := json.Unmarshal(jsonData, cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal json file")
	}

	return cfg.ParseConfig(modelName)
}

// ParseModelFile will read a given file and then parse the contained JSON data.
func ParseModelFile(filename, modelName string) (*SimpleModel, error) {
	//nolint:gosec
	jsonData, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read json file")
	}
	return UnmarshalModelConfig(jsonData, modelName)
}

// ParseConfig converts the ModelConfig struct into a full SimpleModel with the name modelName.
func (cfg *ModelConfig) ParseConfig(modelName string) (*SimpleModel, error) {
	if modelName == "" {
		modelName = cfg.Name
	}

	model := NewSimpleModel(modelName)
	transforms := map[string]Frame{}

	// Make a map of parents for each element for post-process, to allow items to be processed
	// out of order
	parentMap := map[string]string{}

	switch cfg.KinParamType {
	case "SVA", "":
		for _, link := range cfg.Links {
			if link.ID == World {
				return nil, NewReservedWordError("link", World)
			}
		}
		for _, joint := range cfg.Joints {
			if joint.ID == World {
				return nil, NewReservedWordError("joint", World)
			}
		}

		for _, link := range cfg.Links {
			frame, err := link.ParseConfig()
			if err != nil {
				return nil, err
			}
			if _, ok := transforms[link.ID]; ok {
				return nil, NewDuplicateFrameError(link.ID)
			}
			parentMap[link.ID] = link.Parent
			transforms[link.ID] = frame
		}

		for _, joint := range cfg.Joints {
			frame, err := joint.ParseConfig()
			if err != nil {
				return nil, err
			}
			if _, ok := transforms[joint.ID]; ok {
				return nil, NewDuplicateFrameError(joint.ID)
			}
			parentMap[joint.ID] = joint.Parent
			transforms[joint.ID] = frame
		}

	case "DH":
		for _, dh := range cfg.DHParams {
			rFrame, lFrame, err := dh.ToDHFrames()
			if err != nil {
				return nil, err
			}
			// Joint part of DH param
			jointID := dh.ID + "_j"
			if _, ok := transforms[jointID]; ok {
				return nil, NewDuplicateFrameError(jointID)
			}
			parentMap[jointID] = dh.Parent
			transforms[jointID] = rFrame

			// Link part of DH param
			if _, ok := transforms[dh.ID]; ok {
				return nil, NewDuplicateFrameError(dh.ID)
			}
			parentMap[dh.ID] = jointID
			transforms[dh.ID] = lFrame
		}

	default:
		return nil, errors.Errorf("unsupported param type: %s, supported params are SVA and DH", cfg.KinParamType)
	}

	// Create an ordered list of transforms
	ordered, err := sortTransforms(transforms, parentMap)
	if err != nil {
		return nil, err
	}
	model.setOrdTransforms(ordered)

	return model, nil
}

// sortTransforms creates an ordered list of transforms, base to end effector, given a mapping of
// child to parent frames.
func sortTransforms(transforms map[string]Frame, parents map[string]string) ([]Frame, error) {
	// find the end effector first - determine which transform has no children
	ees := map[string]string{}
	maps.Copy(ees, parents)
	for _, parent := range parents {
		delete(ees, parent)
	}
	if len(ees) != 1 {
		return nil, errors.Errorf("invalid model, expected one end effector but got %d", len(ees))
	}
	eeName := maps.Keys(ees)[0]

	// walk the chain from the end effector up to the world
	ordered := []Frame{}
	nextName := eeName
	for depth := 0; nextName != World; depth++ {
		if depth > len(transforms) {
			return nil, errors.New("invalid model, frame hierarchy contains a cycle")
		}
		frame, ok := transforms[nextName]
		if !ok {
			return nil, NewFrameMissingError(nextName)
		}
		ordered = append(ordered, frame)
		nextName = parents[frame.Name()]
	}

	// reverse the list to get [base, ..., end effector]
	for i, j := 0, len(ordered)-1; i < j; i, j = i+1, j-1 {
		ordered[i], ordered[j] = ordered[j], ordered[i]
	}
	return ordered, nil
}
