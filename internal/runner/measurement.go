package runner

import (
	"encoding/json"
	"fmt"

	"github.com/banshee-data/flowcheck/internal/config"
	"github.com/banshee-data/flowcheck/internal/units"
)

// MeasurementConfig is the JSON file handed to the measurement program.
type MeasurementConfig struct {
	Method         string              `json:"method"`
	Trajectory     string              `json:"trajectory"`
	TrajectoryFile string              `json:"trajectory_file"`
	Output         string              `json:"output"`
	FPS            float64             `json:"fps"`
	NumFrames      int                 `json:"num_frames"`
	DeltaTFrames   int                 `json:"delta_t_frames"`
	DtFrames       int                 `json:"dt_frames,omitempty"`
	Area           MeasurementArea     `json:"area"`
	Lines          []config.LineConfig `json:"lines,omitempty"`
}

// MeasurementArea is the rectangular measurement area, split into
// NPolygon cut polygons along the travel axis.
type MeasurementArea struct {
	ID       int     `json:"id"`
	X0       float64 `json:"x0"`
	X1       float64 `json:"x1"`
	DeltaY   float64 `json:"delta_y"`
	NPolygon int     `json:"n_polygon"`
}

func newMeasurementConfig(sc *config.Scenario, inv Invocation, iv units.Intervals) MeasurementConfig {
	m := sc.Measurement
	area := sc.Area()
	return MeasurementConfig{
		Method:         string(sc.MethodName()),
		Trajectory:     inv.TrajectoryPath,
		TrajectoryFile: sc.TrajectoryFile(),
		Output:         inv.OutputDir,
		FPS:            sc.Trajectory.FPS,
		NumFrames:      iv.NumFrames,
		DeltaTFrames:   iv.DeltaFrames,
		DtFrames:       m.DtFrames,
		Area: MeasurementArea{
			ID:       sc.AreaID(),
			X0:       area.X0,
			X1:       area.X1,
			DeltaY:   area.DeltaY,
			NPolygon: area.Polygons(),
		},
		Lines: m.Lines,
	}
}

func marshalMeasurementConfig(mc MeasurementConfig) ([]byte, error) {
	data, err := json.MarshalIndent(mc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal measurement config: %w", err)
	}
	return data, nil
}
