package market

import "time"

// Default row limits for one snapshot.
const (
	DefaultTrendLimit      = 30
	DefaultJobLimit        = 50
	DefaultDiscussionLimit = 30
)

// Trend is one skill_trends row maintained by the trend ingestion job.
type Trend struct {
	SkillName              string    `json:"skill_name"`
	JobMentionCount        int       `json:"job_mention_count"`
	DiscussionMentionCount int       `json:"discussion_mention_count"`
	TrendDirection         string    `json:"trend_direction,omitempty"`
	UpdatedAt              time.Time `json:"-"`
}

// Job is a fetched job posting.
type Job struct {
	Title           string    `json:"title"`
	CompanyName     string    `json:"company_name,omitempty"`
	Description     string    `json:"description,omitempty"`
	WorkType        string    `json:"work_type,omitempty"`
	ExperienceLevel string    `json:"experience_level,omitempty"`
	FetchedAt       time.Time `json:"-"`
}

// Discussion is a fetched community thread.
type Discussion struct {
	Title         string    `json:"title"`
	Body          string    `json:"-"`
	Subreddit     string    `json:"subreddit,omitempty"`
	Upvotes       int       `json:"upvotes"`
	CommentsCount int       `json:"comments_count"`
	FetchedAt     time.Time `json:"-"`
}

// Snapshot is the market context shared by every analysis in one run.
type Snapshot struct {
	Trends      []Trend
	Jobs        []Job
	Discussions []Discussion
	TakenAt     time.Time
}

// Empty reports whether no trend data is available.
func (s Snapshot) Empty() bool {
	return len(s.Trends) == 0
}
