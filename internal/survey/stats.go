package survey

import (
	"context"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// QuestionStats summarizes the scores collected for one question
type QuestionStats struct {
	Mean  float64 `json:"mean"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Count int     `json:"count"`
}

// Statistics aggregates survey scores, per question and overall
type Statistics struct {
	TotalResponses int                      `json:"total_responses"`
	Categories     map[string]QuestionStats `json:"categories"`
	OverallMean    float64                  `json:"overall_mean"`
}

// Export is the research-export envelope: metadata, summaries per user
// type, and the raw responses.
type Export struct {
	ExportDate time.Time   `json:"export_date"`
	Metadata   Metadata    `json:"metadata"`
	Teacher    *Statistics `json:"teacher_stats"`
	Student    *Statistics `json:"student_stats"`
	Overall    *Statistics `json:"overall_stats"`
	RawData    []Response  `json:"raw_data"`
}

// Stats computes score statistics, optionally restricted to one user type
// (empty string means all responses). Scores of zero or below are treated
// as unanswered and skipped.
func (s *Store) Stats(ctx context.Context, userType string) (*Statistics, error) {
	var (
		responses []Response
		err       error
	)
	if userType == "" {
		responses, err = s.All(ctx)
	} else {
		responses, err = s.ByType(ctx, userType)
	}
	if err != nil {
		return nil, err
	}

	out := &Statistics{
		TotalResponses: len(responses),
		Categories:     map[string]QuestionStats{},
	}

	scores := map[string][]float64{}
	for _, r := range responses {
		for question, score := range r.Answers {
			if score <= 0 {
				continue
			}
			scores[question] = append(scores[question], score)
		}
	}

	var all []float64
	for question, values := range scores {
		out.Categories[question] = QuestionStats{
			Mean:  stat.Mean(values, nil),
			Min:   floats.Min(values),
			Max:   floats.Max(values),
			Count: len(values),
		}
		all = append(all, values...)
	}
	if len(all) > 0 {
		out.OverallMean = stat.Mean(all, nil)
	}
	return out, nil
}

// SatisfactionLevel maps a mean score onto a five-band label
func SatisfactionLevel(score float64) string {
	switch {
	case score >= 4.5:
		return "excellent"
	case score >= 3.5:
		return "good"
	case score >= 2.5:
		return "fair"
	case score >= 1.5:
		return "poor"
	default:
		return "very poor"
	}
}

// ExportForResearch bundles metadata, per-type summaries, and raw data
func (s *Store) ExportForResearch(ctx context.Context) (*Export, error) {
	meta, err := s.Meta(ctx)
	if err != nil {
		return nil, err
	}
	teacher, err := s.Stats(ctx, TypeTeacher)
	if err != nil {
		return nil, err
	}
	student, err := s.Stats(ctx, TypeStudent)
	if err != nil {
		return nil, err
	}
	overall, err := s.Stats(ctx, "")
	if err != nil {
		return nil, err
	}
	raw, err := s.All(ctx)
	if err != nil {
		return nil, err
	}

	return &Export{
		ExportDate: s.now(),
		Metadata:   meta,
		Teacher:    teacher,
		Student:    student,
		Overall:    overall,
		RawData:    raw,
	}, nil
}
