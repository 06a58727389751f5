package cache

import (
	"context"
	"fmt"
	"log/slog"
)

// SafeInvalidatePattern invalidates a pattern and only logs failures.
func SafeInvalidatePattern(ctx context.Context, helper *CacheHelper, pattern string) {
	if err := helper.InvalidatePattern(ctx, pattern); err != nil {
		slog.ErrorContext(ctx, "Failed to invalidate cache pattern",
			"error", err,
			"pattern", pattern)
	}
}

// SafeDelete deletes keys and only logs failures.
func SafeDelete(ctx context.Context, helper *CacheHelper, keys ...string) {
	if err := helper.Delete(ctx, keys...); err != nil {
		slog.ErrorContext(ctx, "Failed to delete cache keys",
			"error", err,
			"keys", keys)
	}
}

func ExamKey(examID uint) string {
	return fmt.Sprintf("id:%d", examID)
}

func TeacherStatsKey(teacherID string) string {
	return fmt.Sprintf("teacher:%s", teacherID)
}

// InvalidateExamCache drops the cached exam and its owner's dashboard counters.
func InvalidateExamCache(ctx context.Context, cm *CacheManager, examID uint, teacherID string) {
	SafeDelete(ctx, cm.Exam, ExamKey(examID))
	if teacherID != "" {
		SafeDelete(ctx, cm.Stats, TeacherStatsKey(teacherID))
	}
	SafeInvalidatePattern(ctx, cm.Stats, "admin:*")
}
