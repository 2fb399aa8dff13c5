package entity

import "fmt"

// Method selects how a frame chunk is turned into a feature tensor.
type Method int

const (
	MethodFace Method = iota
	MethodEye
	MethodOpticalFlow
)

func ParseMethod(s string) (Method, error) {
	switch s {
	case "face":
		return MethodFace, nil
	case "eye":
		return MethodEye, nil
	case "opticalflow":
		return MethodOpticalFlow, nil
	default:
		return 0, fmt.Errorf("unknown processing method %q (want face, eye or opticalflow)", s)
	}
}

func (m Method) String() string {
	switch m {
	case MethodFace:
		return "face"
	case MethodEye:
		return "eye"
	case MethodOpticalFlow:
		return "opticalflow"
	default:
		return "unknown"
	}
}
