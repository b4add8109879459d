package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/san-kum/artgrow/internal/geom"
	"github.com/san-kum/artgrow/internal/scene"
)

type ExportData struct {
	Grammar  string          `json:"grammar,omitempty"`
	Segments int             `json:"segments"`
	Samples  int             `json:"samples"`
	Min      geom.Vec3       `json:"min"`
	Max      geom.Vec3       `json:"max"`
	Scene    []scene.Segment `json:"scene"`
}

func NewExportData(grammar string, segs []scene.Segment) ExportData {
	data := ExportData{Grammar: grammar, Segments: len(segs), Scene: segs}
	first := true
	for _, seg := range segs {
		data.Samples += len(seg.Samples)
		for _, smp := range seg.Samples {
			if first {
				data.Min, data.Max, first = smp.Position, smp.Position, false
				continue
			}
			data.Min = data.Min.Min(smp.Position)
			data.Max = data.Max.Max(smp.Position)
		}
	}
	if data.Scene == nil {
		data.Scene = []scene.Segment{}
	}
	return data
}

func WriteJSON(w io.Writer, grammar string, segs []scene.Segment) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewExportData(grammar, segs))
}

// WriteOBJ writes the segments as Wavefront OBJ polylines, one object per
// segment.
func WriteOBJ(w io.Writer, segs []scene.Segment) error {
	if _, err := fmt.Fprintln(w, "# artgrow"); err != nil {
		return err
	}
	next := 1
	for _, seg := range segs {
		if len(seg.Samples) == 0 {
			continue
		}
		fmt.Fprintf(w, "o segment_%d\n", seg.ID)
		for _, smp := range seg.Samples {
			p := smp.Position
			fmt.Fprintf(w, "v %g %g %g\n", p.X, p.Y, p.Z)
		}
		fmt.Fprint(w, "l")
		for i := range seg.Samples {
			fmt.Fprintf(w, " %d", next+i)
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
		next += len(seg.Samples)
	}
	return nil
}
