package traj

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// CgCatalog is a Cosmographia catalog.
type CgCatalog struct {
	Version string     `json:"version"`
	Name    string     `json:"name"`
	Items   []*CgItems `json:"items"`
	Require []string   `json:"require,omitempty"`
}

func (c *CgCatalog) String() string {
	return c.Name + "(" + c.Version + ")"
}

// CgItems is an item of a Cosmographia catalog.
type CgItems struct {
	Class           string            `json:"class"`
	Name            string            `json:"name"`
	StartTime       string            `json:"startTime"`
	EndTime         string            `json:"endTime"`
	Center          string            `json:"center"`
	TrajectoryFrame string            `json:"trajectoryFrame"`
	Trajectory      *CgTrajectory     `json:"trajectory,omitempty"`
	Label           *CgLabel          `json:"label,omitempty"`
	TrajectoryPlot  *CgTrajectoryPlot `json:"trajectoryPlot,omitempty"`
}

// CgTrajectory definition.
type CgTrajectory struct {
	Type   string `json:"type,omitempty"`
	Source string `json:"source,omitempty"`
}

// Validate validates a CgTrajectory.
func (t *CgTrajectory) Validate() error {
	if t.Type != "InterpolatedStates" || !strings.HasSuffix(t.Source, "xyzv") {
		return errors.New("only InterpolatedStates are currently supported in Cosmographia trajectory types")
	}
	return nil
}

// CgLabel definition.
type CgLabel struct {
	Color    []float64 `json:"color,omitempty"`
	FadeSize int       `json:"fadeSize,omitempty"`
	ShowText bool      `json:"showText,omitempty"`
}

// CgTrajectoryPlot definition.
type CgTrajectoryPlot struct {
	Color       []float64 `json:"color,omitempty"`
	LineWidth   int       `json:"lineWidth,omitempty"`
	Duration    string    `json:"duration,omitempty"`
	Lead        string    `json:"lead,omitempty"`
	Fade        int       `json:"fade,omitempty"`
	SampleCount int       `json:"sampleCount,omitempty"`
}

// CgInterpolatedState is one record of an interpolated states file: a TDB Julian date, a position
// in km and a velocity in km/s.
type CgInterpolatedState struct {
	JD       float64
	Position [3]float64
	Velocity [3]float64
}

// NewCgInterpolatedState converts a state vector.
func NewCgInterpolatedState(sv *StateVector) CgInterpolatedState {
	r, v := sv.position, sv.velocity
	return CgInterpolatedState{
		JD:       sv.epoch.JDE(),
		Position: [3]float64{r.X / 1e3, r.Y / 1e3, r.Z / 1e3},
		Velocity: [3]float64{v.X / 1e3, v.Y / 1e3, v.Z / 1e3},
	}
}

// FromText initializes from a record of seven items.
func (i *CgInterpolatedState) FromText(record []string) error {
	if len(record) != 7 {
		return fmt.Errorf("expected 7 items, got %d", len(record))
	}
	var vals [7]float64
	for k, s := range record {
		val, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		vals[k] = val
	}
	i.JD = vals[0]
	copy(i.Position[:], vals[1:4])
	copy(i.Velocity[:], vals[4:7])
	return nil
}

// ToText converts to text for written output.
func (i *CgInterpolatedState) ToText() string {
	return fmt.Sprintf("%.9f %.6f %.6f %.6f %.9f %.9f %.9f", i.JD, i.Position[0], i.Position[1], i.Position[2], i.Velocity[0], i.Velocity[1], i.Velocity[2])
}

// ParseInterpolatedStates reads the records of an interpolated states file.
func ParseInterpolatedStates(rd io.Reader) ([]*CgInterpolatedState, error) {
	var states []*CgInterpolatedState
	r := csv.NewReader(rd)
	r.Comma = ' '
	r.Comment = '#'
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		state := CgInterpolatedState{}
		if err := state.FromText(record); err != nil {
			return nil, fmt.Errorf("line %d: %w", len(states)+1, err)
		}
		states = append(states, &state)
	}
	return states, nil
}

// Exporter is a ResultSink writing the states as Cosmographia interpolated states, a CSV of the
// osculating elements and a Cosmographia catalog. Nil writers are skipped.
type Exporter struct {
	Name     string
	States   io.Writer // .xyzv
	Elements io.Writer // .csv
	Catalog  io.Writer // .json
	// Source is the name of the interpolated states file referenced by the catalog.
	Source string
	now    func() time.Time
}

// AddStateVectorsRelativeToFrame implements the ResultSink interface.
func (e *Exporter) AddStateVectorsRelativeToFrame(states []*StateVector) error {
	if len(states) == 0 {
		return nil
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.States != nil {
		if err := e.writeStates(states); err != nil {
			return fmt.Errorf("writing states: %w", err)
		}
	}
	if e.Elements != nil {
		if err := e.writeElements(states); err != nil {
			return fmt.Errorf("writing elements: %w", err)
		}
	}
	if e.Catalog != nil {
		if err := e.writeCatalog(states); err != nil {
			return fmt.Errorf("writing catalog: %w", err)
		}
	}
	return nil
}

func (e *Exporter) writeStates(states []*StateVector) error {
	w := bufio.NewWriter(e.States)
	fmt.Fprintf(w, `# Creation date (UTC): %s
# Records are <jd> <x> <y> <z> <vel x> <vel y> <vel z>
#   Time is a TDB Julian date
#   Position in km
#   Velocity in km/sec
#   Simulation time start (UTC): %s
`, e.now().UTC(), states[0].epoch.UTC())
	for _, sv := range states {
		st := NewCgInterpolatedState(sv)
		if _, err := w.WriteString(st.ToText() + "\n"); err != nil {
			return err
		}
	}
	fmt.Fprintf(w, "# Simulation time end (UTC): %s\n", states[len(states)-1].epoch.UTC())
	return w.Flush()
}

func (e *Exporter) writeElements(states []*StateVector) error {
	w := csv.NewWriter(e.Elements)
	if err := w.Write([]string{"time", "a", "e", "i", "Omega", "omega", "nu", "timeInHours"}); err != nil {
		return err
	}
	first := states[0].epoch
	for _, sv := range states {
		kep, err := sv.ToKeplerianElements()
		if err != nil {
			return fmt.Errorf("%s: %w", sv.epoch, err)
		}
		ν, err := kep.TrueAnomaly()
		if err != nil {
			return fmt.Errorf("%s: %w", sv.epoch, err)
		}
		rec := []string{
			sv.epoch.UTC().Format("2006-01-02 15:04:05.000"),
			strconv.FormatFloat(kep.SemiMajorAxis()/1e3, 'f', 3, 64),
			strconv.FormatFloat(kep.Eccentricity(), 'f', 6, 64),
			strconv.FormatFloat(Rad2deg(kep.Inclination()), 'f', 3, 64),
			strconv.FormatFloat(Rad2deg(kep.RAAN()), 'f', 3, 64),
			strconv.FormatFloat(Rad2deg(kep.ArgumentOfPeriapsis()), 'f', 3, 64),
			strconv.FormatFloat(Rad2deg(ν), 'f', 3, 64),
			strconv.FormatFloat(sv.epoch.Sub(first)/3600, 'f', 3, 64),
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func (e *Exporter) writeCatalog(states []*StateVector) error {
	first, last := states[0], states[len(states)-1]
	color := []float64{0.6, 1, 1}
	traj := &CgTrajectory{Type: "InterpolatedStates", Source: e.Source}
	if err := traj.Validate(); err != nil {
		return err
	}
	frame := "ICRF"
	if first.frame == EclipticJ2000 {
		frame = "EclipticJ2000"
	}
	item := &CgItems{
		Class:           "spacecraft",
		Name:            e.Name,
		StartTime:       first.epoch.UTC().Format(time.RFC3339),
		EndTime:         last.epoch.UTC().Format(time.RFC3339),
		Center:          first.observer.Name,
		TrajectoryFrame: frame,
		Trajectory:      traj,
		Label:           &CgLabel{Color: color, FadeSize: 1000000, ShowText: true},
		TrajectoryPlot: &CgTrajectoryPlot{
			Color:       color,
			LineWidth:   1,
			Duration:    fmt.Sprintf("%d d", int(last.epoch.Sub(first.epoch)/SecondsPerDay)+1),
			Lead:        "0 d",
			SampleCount: 10,
		},
	}
	enc := json.NewEncoder(e.Catalog)
	enc.SetIndent("", "  ")
	return enc.Encode(CgCatalog{Version: "1.0", Name: e.Name, Items: []*CgItems{item}})
}
