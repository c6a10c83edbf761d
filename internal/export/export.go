// Package export streams batch trajectories as CSV or JSON.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/san-kum/markovsim/internal/markov"
)

type MachineData struct {
	Index       int                 `json:"index"`
	Transitions []markov.Transition `json:"transitions"`
	Metrics     map[string]float64  `json:"metrics,omitempty"`
}

type ExportData struct {
	Name     string        `json:"name"`
	Cutoff   float64       `json:"cutoff"`
	Seed     uint64        `json:"seed,omitempty"`
	Machines []MachineData `json:"machines"`
}

// NewExportData pairs trajectories with their per-machine metrics; metrics may
// be nil or shorter than trajs.
func NewExportData(name string, cutoff float64, seed uint64, trajs [][]markov.Transition, metrics []map[string]float64) *ExportData {
	data := &ExportData{
		Name:     name,
		Cutoff:   cutoff,
		Seed:     seed,
		Machines: make([]MachineData, len(trajs)),
	}
	for i, traj := range trajs {
		data.Machines[i] = MachineData{Index: i, Transitions: traj}
		if i < len(metrics) {
			data.Machines[i].Metrics = metrics[i]
		}
		if data.Machines[i].Transitions == nil {
			data.Machines[i].Transitions = []markov.Transition{}
		}
	}
	return data
}

func WriteJSON(w io.Writer, data *ExportData) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// WriteCSV writes one row per transition: machine, step, from, to, time.
func WriteCSV(w io.Writer, trajs [][]markov.Transition) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"machine", "step", "from", "to", "time"}); err != nil {
		return err
	}

	for i, traj := range trajs {
		for j, tr := range traj {
			row := []string{
				strconv.Itoa(i),
				strconv.Itoa(j),
				strconv.FormatUint(uint64(tr.From), 10),
				strconv.FormatUint(uint64(tr.To), 10),
				strconv.FormatFloat(tr.Time, 'f', 6, 64),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}

	cw.Flush()
	return cw.Error()
}
