package leaderboard

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"log/slog"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/skillbase/learn-server-go/pkg/cache"
)

// cacheTTL bounds staleness of the rollup; the leaderboard is a dashboard
// read and does not need to be live.
const cacheTTL = 60 * time.Second

// Entry is one user's standing in a course.
type Entry struct {
	Rank              int       `json:"rank"`
	UserID            uuid.UUID `json:"userId"`
	FullName          string    `json:"fullName"`
	ChapterPoints     int       `json:"chapterPoints"`
	LessonPoints      int       `json:"lessonPoints"`
	QuizPoints        int       `json:"quizPoints"`
	AchievementPoints int       `json:"achievementPoints"`
	Total             int       `json:"total"`
}

// Service aggregates course standings with a short-lived cache in front.
type Service struct {
	db     *gorm.DB
	cache  cache.Client
	logger *slog.Logger
}

// NewService constructs a leaderboard service.
func NewService(db *gorm.DB, cacheClient cache.Client, logger *slog.Logger) *Service {
	return &Service{db: db, cache: cacheClient, logger: logger}
}

func cacheKey(courseID uuid.UUID) string {
	return fmt.Sprintf("leaderboard:course:%s", courseID)
}

// ForCourse returns the ranked standings of a course's enrolled users,
// rolling up chapter completion points, lesson completion points, quiz
// ledger awards and achievement rewards.
func (s *Service) ForCourse(ctx context.Context, courseID uuid.UUID, limit int) ([]Entry, error) {
	key := cacheKey(courseID)
	if cached, err := s.cache.Get(ctx, key); err == nil && cached != "" {
		var entries []Entry
		if err := json.Unmarshal([]byte(cached), &entries); err == nil {
			return clamp(entries, limit), nil
		}
	}

	entries, err := s.aggregate(ctx, courseID)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(entries); err == nil {
		if err := s.cache.Set(ctx, key, string(data), cacheTTL); err != nil {
			s.logger.Warn("failed to cache leaderboard", "courseId", courseID, "error", err)
		}
	}

	return clamp(entries, limit), nil
}

// Invalidate drops the cached rollup for a course.
func (s *Service) Invalidate(ctx context.Context, courseID uuid.UUID) {
	if err := s.cache.Delete(ctx, cacheKey(courseID)); err != nil {
		s.logger.Warn("failed to invalidate leaderboard cache", "courseId", courseID, "error", err)
	}
}

type rollupRow struct {
	UserID            uuid.UUID
	FullName          string
	ChapterPoints     int
	LessonPoints      int
	QuizPoints        int
	AchievementPoints int
}

func (s *Service) aggregate(ctx context.Context, courseID uuid.UUID) ([]Entry, error) {
	db := s.db.WithContext(ctx)

	var rows []rollupRow
	err := db.Table("enrollments").
		Select(`users.id AS user_id,
			users.full_name AS full_name,
			COALESCE((SELECT SUM(cc.points_awarded) FROM chapter_completions cc
				JOIN chapters ON chapters.id = cc.chapter_id
				WHERE cc.user_id = users.id AND cc.is_completed AND chapters.course_id = enrollments.course_id), 0) AS chapter_points,
			COALESCE((SELECT SUM(lc.points_awarded) FROM lesson_completions lc
				JOIN lessons ON lessons.id = lc.lesson_id
				JOIN course_modules cm ON cm.id = lessons.module_id
				WHERE lc.user_id = users.id AND lc.is_completed AND cm.course_id = enrollments.course_id), 0) AS lesson_points,
			COALESCE((SELECT SUM(le.delta) FROM points_ledger_entries le
				WHERE le.user_id = users.id AND le.reference_id IN (
					SELECT quizzes.id FROM quizzes
					JOIN lessons ON lessons.id = quizzes.lesson_id
					JOIN course_modules cm ON cm.id = lessons.module_id
					WHERE cm.course_id = enrollments.course_id)), 0) AS quiz_points,
			COALESCE((SELECT SUM(aw.points_granted) FROM achievement_awards aw
				WHERE aw.user_id = users.id AND aw.course_id = enrollments.course_id), 0) AS achievement_points`).
		Joins("JOIN users ON users.id = enrollments.user_id").
		Where("enrollments.course_id = ?", courseID).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, Entry{
			UserID:            row.UserID,
			FullName:          row.FullName,
			ChapterPoints:     row.ChapterPoints,
			LessonPoints:      row.LessonPoints,
			QuizPoints:        row.QuizPoints,
			AchievementPoints: row.AchievementPoints,
			Total:             row.ChapterPoints + row.LessonPoints + row.QuizPoints + row.AchievementPoints,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Total > entries[j].Total })
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, nil
}

func clamp(entries []Entry, limit int) []Entry {
	if limit > 0 && len(entries) > limit {
		return entries[:limit]
	}
	return entries
}
