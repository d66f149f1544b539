package stats

import (
	"context"

	"gonum.org/v1/gonum/stat"

	"github.com/todmy/project-grader/internal/history"
)

// NoAnalysesSentinel is the last-analysis date reported for users with an
// empty history.
const NoAnalysesSentinel = "no analyses yet"

// UserStatistics summarizes one user's analysis history
type UserStatistics struct {
	TotalAnalyses    int    `json:"total_analyses"`
	LastAnalysisDate string `json:"last_analysis_date"`
	AvgFileSize      int    `json:"avg_file_size"`
}

// SystemStatistics summarizes the whole store for the admin dashboard
type SystemStatistics struct {
	TotalUsers    int            `json:"total_users"`
	TotalAnalyses int            `json:"total_analyses"`
	Users         map[string]int `json:"users"`
}

// Service computes summary views over a history store snapshot. Everything
// is recomputed on demand; nothing is cached or persisted.
type Service struct {
	store history.Store
}

// NewService creates a new statistics service
func NewService(store history.Store) *Service {
	return &Service{store: store}
}

// ForUser computes per-user statistics. A user with no records gets zero
// counts and the sentinel date, never an error.
func (s *Service) ForUser(ctx context.Context, username string) (*UserStatistics, error) {
	records, err := s.store.History(ctx, username)
	if err != nil {
		return nil, err
	}

	if len(records) == 0 {
		return &UserStatistics{
			TotalAnalyses:    0,
			LastAnalysisDate: NoAnalysesSentinel,
			AvgFileSize:      0,
		}, nil
	}

	sizes := make([]float64, len(records))
	for i, rec := range records {
		sizes[i] = float64(rec.SizeChars)
	}

	return &UserStatistics{
		TotalAnalyses:    len(records),
		LastAnalysisDate: records[0].Timestamp.Format("2006-01-02T15:04:05"),
		AvgFileSize:      int(stat.Mean(sizes, nil)),
	}, nil
}

// ForSystem computes system-wide statistics. Users whose history has been
// cleared do not count towards the totals.
func (s *Service) ForSystem(ctx context.Context) (*SystemStatistics, error) {
	counts, err := s.store.Counts(ctx)
	if err != nil {
		return nil, err
	}

	out := &SystemStatistics{Users: map[string]int{}}
	for username, count := range counts {
		if count == 0 {
			continue
		}
		out.Users[username] = count
		out.TotalUsers++
		out.TotalAnalyses += count
	}
	return out, nil
}
