package serve

import (
	"bytes"
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"

	"hjta/cmd/version"
	. "hjta/common"
	"hjta/jobtable"
	"hjta/plots"
)

func newAPI(mux *http.ServeMux) huma.API {
	config := huma.DefaultConfig("hjta", version.Version())
	config.Info.Description = "Job timing records and plots"
	return humago.New(mux, config)
}

// A job as JSON.  Absent values are omitted.

type Job struct {
	Batch             string   `json:"batch"`
	Index             uint64   `json:"index"`
	Schedd            string   `json:"schedd,omitempty"`
	Submit            *int64   `json:"submit,omitempty"`
	TransferQueued    *int64   `json:"transfer_queued,omitempty"`
	TransferStart     *int64   `json:"transfer_start,omitempty"`
	ExecuteStart      *int64   `json:"execute_start,omitempty"`
	TransferOutQueued *int64   `json:"transfer_out_queued,omitempty"`
	TransferOutStart  *int64   `json:"transfer_out_start,omitempty"`
	Complete          *int64   `json:"complete,omitempty"`
	JobStart          *int64   `json:"job_start,omitempty"`
	ExitCode          *int64   `json:"exit_code,omitempty"`
	InputSizeMB       *float64 `json:"input_size_mb,omitempty"`
	BytesSent         *float64 `json:"bytes_sent,omitempty"`
}

func timePtr(t jobtable.Time) *int64 {
	if !t.Valid {
		return nil
	}
	return &t.Unix
}

func intPtr(i jobtable.Int) *int64 {
	if !i.Valid {
		return nil
	}
	return &i.Value
}

func floatPtr(f jobtable.Float) *float64 {
	if !f.Valid {
		return nil
	}
	return &f.Value
}

func newJob(r *jobtable.JobRecord) Job {
	return Job{
		Batch:             r.Batch,
		Index:             r.Index,
		Schedd:            r.Schedd,
		Submit:            timePtr(r.Submit),
		TransferQueued:    timePtr(r.TransferQueued),
		TransferStart:     timePtr(r.TransferStart),
		ExecuteStart:      timePtr(r.ExecuteStart),
		TransferOutQueued: timePtr(r.TransferOutQueued),
		TransferOutStart:  timePtr(r.TransferOutStart),
		Complete:          timePtr(r.Complete),
		JobStart:          timePtr(r.JobStart),
		ExitCode:          intPtr(r.ExitCode),
		InputSizeMB:       floatPtr(r.InputSizeMB),
		BytesSent:         floatPtr(r.BytesSent),
	}
}

type JobsOutput struct {
	Body []Job
}

type PlotInfo struct {
	Name        string   `json:"name"`
	Aliases     []string `json:"aliases,omitempty"`
	Kind        string   `json:"kind"`
	Description string   `json:"description"`
}

type PlotsOutput struct {
	Body []PlotInfo
}

type PlotInput struct {
	Name   string  `path:"name" doc:"Plot name or alias"`
	Format string  `query:"format" enum:"pdf,png,svg" default:"png" doc:"Image format"`
	Width  float64 `query:"width" minimum:"1" maximum:"200" default:"25" doc:"Width in cm"`
	Height float64 `query:"height" minimum:"1" maximum:"200" default:"20" doc:"Height in cm"`
}

type PlotOutput struct {
	ContentType string `header:"Content-Type"`
	Body        []byte
}

var contentTypes = map[string]string{
	"pdf": "application/pdf",
	"png": "image/png",
	"svg": "image/svg+xml",
}

// The records are never modified, handlers may run concurrently.

func registerRoutes(api huma.API, records []*jobtable.JobRecord, verbose bool) {
	jobs := make([]Job, 0, len(records))
	for _, r := range records {
		jobs = append(jobs, newJob(r))
	}

	huma.Get(api, "/jobs", func(ctx context.Context, _ *struct{}) (*JobsOutput, error) {
		return &JobsOutput{Body: jobs}, nil
	})

	huma.Get(api, "/plots", func(ctx context.Context, _ *struct{}) (*PlotsOutput, error) {
		infos := make([]PlotInfo, 0)
		for _, p := range plots.Registry() {
			infos = append(infos, PlotInfo{
				Name:        p.Name,
				Aliases:     p.Aliases,
				Kind:        string(p.Kind),
				Description: p.Description,
			})
		}
		return &PlotsOutput{Body: infos}, nil
	})

	huma.Get(api, "/plots/{name}", func(ctx context.Context, input *PlotInput) (*PlotOutput, error) {
		pl, found := plots.Lookup(input.Name)
		if !found {
			return nil, huma.Error404NotFound("No such plot: " + input.Name)
		}
		if verbose {
			Log.Infof("Rendering %s as %s", pl.Name, input.Format)
		}
		p, err := pl.Render(records)
		if err != nil {
			return nil, huma.Error500InternalServerError("Rendering failed", err)
		}
		var buf bytes.Buffer
		size := plots.Size{Width: input.Width, Height: input.Height}
		if err := plots.WriteTo(&buf, p, input.Format, size); err != nil {
			return nil, huma.Error500InternalServerError("Rendering failed", err)
		}
		return &PlotOutput{ContentType: contentTypes[input.Format], Body: buf.Bytes()}, nil
	})
}
