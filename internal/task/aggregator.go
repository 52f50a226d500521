// Package task はタスク情報の集約と正規化を提供する。
// 上流からのタスク詳細とコメント一覧を1つのTaskSnapshotにまとめ、
// 派生フィールド（残り日数、見積時間）をローカルで決定的に計算する。
package task

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/saritasubhra/ai-task-summarizer/internal/clickup"
	"github.com/saritasubhra/ai-task-summarizer/internal/model"
	"github.com/saritasubhra/ai-task-summarizer/internal/security"
)

// 欠損フィールドのデフォルト値。
// パイプラインは任意フィールドの欠損だけでは決して失敗しない。
const (
	defaultUnknown    = "Unknown"
	defaultNone       = "None"
	defaultNotSet     = "Not set"
	noCommentsText    = "No discussion comments available."
	noDueDate         = "No due date"
	overdueDescriptor = "Overdue"
)

// TaskFetcher はタスク集約が必要とする上流クライアントのインターフェース。
type TaskFetcher interface {
	GetTask(ctx context.Context, taskID, accessToken string) (*clickup.Task, error)
	GetTaskComments(ctx context.Context, taskID, accessToken string) ([]clickup.Comment, error)
}

// Aggregator はタスクの集約処理を提供する。
type Aggregator struct {
	fetcher   TaskFetcher
	sanitizer security.CommentSanitizerService
	now       func() time.Time // テスト用に注入可能な現在時刻
}

// NewAggregator はAggregatorを生成する。
func NewAggregator(fetcher TaskFetcher, sanitizer security.CommentSanitizerService) *Aggregator {
	return &Aggregator{
		fetcher:   fetcher,
		sanitizer: sanitizer,
		now:       time.Now,
	}
}

// Aggregate は指定タスクの詳細とコメントを集約し、正規化済みのTaskSnapshotを返す。
// タスクIDが空の場合は上流呼び出しを一切行わずにクライアント入力エラーを返す。
// タスク詳細とコメント一覧は互いに独立なため並行に取得するが、
// どちらかが失敗した場合は集約全体を中断し、部分的なスナップショットは返さない。
func (a *Aggregator) Aggregate(ctx context.Context, taskID, accessToken string) (*model.TaskSnapshot, error) {
	if strings.TrimSpace(taskID) == "" {
		return nil, model.NewInvalidTaskIDError()
	}

	var (
		task     *clickup.Task
		comments []clickup.Comment
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		t, err := a.fetcher.GetTask(gctx, taskID, accessToken)
		if err != nil {
			return model.NewTaskFetchFailedError(err.Error())
		}
		task = t
		return nil
	})

	g.Go(func() error {
		c, err := a.fetcher.GetTaskComments(gctx, taskID, accessToken)
		if err != nil {
			return model.NewCommentFetchFailedError(err.Error())
		}
		comments = c
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return a.buildSnapshot(taskID, task, comments), nil
}

// buildSnapshot は上流ペイロードを欠損値なしのTaskSnapshotに正規化する。
// デフォルト補完をここに集約することで、下流のプロンプト組み立ては
// 欠損値の分岐を一切持たない。
func (a *Aggregator) buildSnapshot(taskID string, task *clickup.Task, comments []clickup.Comment) *model.TaskSnapshot {
	snapshot := &model.TaskSnapshot{
		TaskID:        taskID,
		Name:          defaultUnknown,
		Status:        defaultUnknown,
		Priority:      defaultNone,
		Assignees:     []string{},
		StartDate:     defaultNotSet,
		DueDate:       defaultNotSet,
		TimeEstimate:  defaultNotSet,
		RemainingDays: noDueDate,
		CommentsText:  noCommentsText,
	}

	if task.Name != "" {
		snapshot.Name = task.Name
	}
	if task.Status != nil && task.Status.Status != "" {
		snapshot.Status = task.Status.Status
	}
	if task.Priority != nil && task.Priority.Priority != "" {
		snapshot.Priority = task.Priority.Priority
	}
	for _, assignee := range task.Assignees {
		if assignee.Username != "" {
			snapshot.Assignees = append(snapshot.Assignees, assignee.Username)
		}
	}
	if formatted, ok := formatEpochMillis(task.StartDate); ok {
		snapshot.StartDate = formatted
	}
	if formatted, ok := formatEpochMillis(task.DueDate); ok {
		snapshot.DueDate = formatted
	}
	snapshot.TimeEstimate = TimeEstimateDescriptor(task.TimeEstimate.String())
	snapshot.RemainingDays = RemainingDaysDescriptor(task.DueDate, a.now())

	if text := a.joinComments(comments); text != "" {
		snapshot.CommentsText = text
	}

	return snapshot
}

// joinComments は空でないコメント本文をサニタイズし、上流の返却順のまま改行区切りで連結する。
func (a *Aggregator) joinComments(comments []clickup.Comment) string {
	var lines []string
	for _, c := range comments {
		body := a.sanitizer.Sanitize(c.CommentText)
		if body != "" {
			lines = append(lines, body)
		}
	}
	return strings.Join(lines, "\n")
}

// RemainingDaysDescriptor は期日と現在時刻から残り日数の表現を計算する純粋関数。
// 期日がある場合は ceil((dueDate - now) / 24h) を計算し、
// 0以上なら "N days left"、負なら "Overdue" を返す。
// 期日がない（空または不正な）場合は "No due date" を返す。
func RemainingDaysDescriptor(dueDateMillis string, now time.Time) string {
	due, ok := parseEpochMillis(dueDateMillis)
	if !ok {
		return noDueDate
	}

	days := int(math.Ceil(due.Sub(now).Hours() / 24))
	if days < 0 {
		return overdueDescriptor
	}
	return fmt.Sprintf("%d days left", days)
}

// TimeEstimateDescriptor はミリ秒単位の見積を時間単位に丸めた表現を返す。
// 欠損（空または不正）の場合は "Not set" を返す。
func TimeEstimateDescriptor(estimateMillis string) string {
	ms, err := strconv.ParseInt(estimateMillis, 10, 64)
	if err != nil || ms <= 0 {
		return defaultNotSet
	}

	hours := int(math.Round(float64(ms) / float64(time.Hour.Milliseconds())))
	return fmt.Sprintf("%d hrs", hours)
}

// formatEpochMillis はミリ秒epoch文字列を人間可読な日付表現に変換する。
// 欠損または不正な値の場合はfalseを返す。
func formatEpochMillis(millis string) (string, bool) {
	t, ok := parseEpochMillis(millis)
	if !ok {
		return "", false
	}
	return t.Format("Jan 2, 2006"), true
}

// parseEpochMillis はミリ秒epoch文字列をtime.Timeに変換する。
func parseEpochMillis(millis string) (time.Time, bool) {
	ms, err := strconv.ParseInt(millis, 10, 64)
	if err != nil || ms <= 0 {
		return time.Time{}, false
	}
	return time.UnixMilli(ms), true
}
