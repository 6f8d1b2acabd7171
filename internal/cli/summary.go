package cli

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
	"time"

	"fuelpipe/internal/dataprocessing"
	"fuelpipe/internal/geocode"
	"fuelpipe/internal/operations"
	"fuelpipe/pkg/contracts/domain"
)

// stepOrder is the order steps appear in a summary
var stepOrder = []string{
	operations.StageIDClean,
	operations.StageIDEnrich,
	operations.StageIDValidate,
	operations.StageIDEnhance,
}

// Count is one named figure reported by a step
type Count struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// StepSummary describes the outcome of one step
type StepSummary struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Status  string  `json:"status"`
	Message string  `json:"message,omitempty"`
	Counts  []Count `json:"counts,omitempty"`
}

// OutputFile is a file written during the run
type OutputFile struct {
	Kind string `json:"kind"`
	Path string `json:"path"`
}

// RunSummary is what the CLI prints after a run
type RunSummary struct {
	RunID      string        `json:"run_id"`
	Status     string        `json:"status"`
	DurationMS int64         `json:"duration_ms"`
	Steps      []StepSummary `json:"steps"`
	Outputs    []OutputFile  `json:"outputs,omitempty"`
}

// NewRunSummary collects the step results published on resp
func NewRunSummary(resp *operations.OperationResponse) *RunSummary {
	s := &RunSummary{
		RunID:      resp.ID,
		Status:     string(resp.Status),
		DurationMS: resp.Duration.Milliseconds(),
	}

	for _, id := range stepOrder {
		st, ok := resp.Steps[id]
		if !ok {
			continue
		}
		message := st.Message
		if message == "" && st.Error != nil {
			message = st.Error.Error()
		}
		s.Steps = append(s.Steps, StepSummary{
			ID:      id,
			Name:    st.Name,
			Status:  string(st.GetStatus()),
			Message: message,
			Counts:  stepCounts(id, resp.Results),
		})
	}

	if v, ok := resp.Results[operations.ContextKeyOutputs].(map[string]string); ok {
		for kind, path := range v {
			s.Outputs = append(s.Outputs, OutputFile{Kind: kind, Path: path})
		}
		sort.Slice(s.Outputs, func(i, j int) bool { return s.Outputs[i].Kind < s.Outputs[j].Kind })
	}

	return s
}

func stepCounts(id string, results map[string]any) []Count {
	switch id {
	case operations.StageIDClean:
		if st, ok := results[operations.ContextKeyCleanStats].(dataprocessing.CleanStats); ok {
			return []Count{
				{"input", st.Input},
				{"duplicates", st.Duplicates},
				{"anomalies", st.Anomalies},
				{"malformed", st.Malformed},
				{"cleaned", st.Cleaned},
			}
		}
	case operations.StageIDEnrich:
		st, ok := results[operations.ContextKeyEnrichStats].(dataprocessing.EnrichStats)
		if !ok {
			return nil
		}
		counts := []Count{
			{"visited", st.Visited},
			{"skipped", st.Skipped},
			{"lookups", st.Lookups},
			{"updated", st.Updated},
			{"unresolved", st.Unresolved},
			{"passed_over", st.PassedOver},
		}
		if rs, ok := results[operations.ContextKeyResolverStats].(geocode.Stats); ok {
			counts = append(counts, Count{"requests", rs.Requests}, Count{"cache_hits", rs.CacheHits})
		}
		return counts
	case operations.StageIDValidate:
		if issues, ok := results[operations.ContextKeyIssues].([]domain.Issue); ok {
			return []Count{{"issues", len(issues)}}
		}
	case operations.StageIDEnhance:
		if n, ok := results[operations.ContextKeyEnhancedRows].(int); ok {
			return []Count{{"rows", n}}
		}
	}
	return nil
}

// RenderText writes the summary as aligned columns
func (s *RunSummary) RenderText(w io.Writer) error {
	duration := (time.Duration(s.DurationMS) * time.Millisecond).String()
	if _, err := fmt.Fprintf(w, "Run %s %s in %s\n", s.RunID, s.Status, duration); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, step := range s.Steps {
		fmt.Fprintf(tw, "  %s\t%s\t", step.ID, step.Status)
		for i, c := range step.Counts {
			if i > 0 {
				fmt.Fprint(tw, " ")
			}
			fmt.Fprintf(tw, "%s=%d", c.Name, c.Value)
		}
		if step.Message != "" {
			if len(step.Counts) > 0 {
				fmt.Fprint(tw, " ")
			}
			fmt.Fprint(tw, step.Message)
		}
		fmt.Fprintln(tw)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(s.Outputs) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(w, "Outputs:"); err != nil {
		return err
	}
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, out := range s.Outputs {
		fmt.Fprintf(tw, "  %s\t%s\n", out.Kind, out.Path)
	}
	return tw.Flush()
}
