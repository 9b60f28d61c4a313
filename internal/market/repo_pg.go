package market

import (
	"context"
	"database/sql"
)

type PGRepo struct {
	DB *sql.DB
}

func (r *PGRepo) TopTrends(ctx context.Context, limit int) ([]Trend, error) {
	rows, err := r.DB.QueryContext(ctx, `
SELECT skill_name, job_mention_count, discussion_mention_count, trend_direction, updated_at
FROM skill_trends
ORDER BY job_mention_count DESC
LIMIT $1`, limitOrDefault(limit, DefaultTrendLimit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Trend{}
	for rows.Next() {
		var t Trend
		var direction sql.NullString
		if err := rows.Scan(&t.SkillName, &t.JobMentionCount, &t.DiscussionMentionCount, &direction, &t.UpdatedAt); err != nil {
			return nil, err
		}
		t.TrendDirection = direction.String
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *PGRepo) RecentJobs(ctx context.Context, limit int) ([]Job, error) {
	rows, err := r.DB.QueryContext(ctx, `
SELECT title, company_name, description, work_type, experience_level, fetched_at
FROM fetched_jobs
ORDER BY fetched_at DESC
LIMIT $1`, limitOrDefault(limit, DefaultJobLimit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Job{}
	for rows.Next() {
		var j Job
		var company, description, workType, level sql.NullString
		if err := rows.Scan(&j.Title, &company, &description, &workType, &level, &j.FetchedAt); err != nil {
			return nil, err
		}
		j.CompanyName = company.String
		j.Description = description.String
		j.WorkType = workType.String
		j.ExperienceLevel = level.String
		out = append(out, j)
	}
	return out, rows.Err()
}

func (r *PGRepo) TopDiscussions(ctx context.Context, limit int) ([]Discussion, error) {
	rows, err := r.DB.QueryContext(ctx, `
SELECT title, body, subreddit, upvotes, comments_count, fetched_at
FROM fetched_discussions
ORDER BY upvotes DESC
LIMIT $1`, limitOrDefault(limit, DefaultDiscussionLimit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Discussion{}
	for rows.Next() {
		var d Discussion
		var body, subreddit sql.NullString
		if err := rows.Scan(&d.Title, &body, &subreddit, &d.Upvotes, &d.CommentsCount, &d.FetchedAt); err != nil {
			return nil, err
		}
		d.Body = body.String
		d.Subreddit = subreddit.String
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *PGRepo) CountTrends(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM skill_trends`).Scan(&n)
	return n, err
}

func limitOrDefault(limit, def int) int {
	if limit <= 0 {
		return def
	}
	return limit
}

var _ Repo = (*PGRepo)(nil)
