// Package summary はタスクスナップショットからの要約生成を提供する。
// 構造化プロンプトの組み立てと外部テキスト生成呼び出しを含む。
package summary

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/saritasubhra/ai-task-summarizer/internal/model"
)

// 要約に必須の4セクション。プロンプトでこの順序を強制する。
var requiredSections = []string{
	"Task Overview",
	"Timeline",
	"Key Updates from Discussion",
	"Pending Work / Risks",
}

// TextGenerator は要約生成が必要とするテキスト生成クライアントのインターフェース。
type TextGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// Service は要約生成のビジネスロジックを提供する。
type Service struct {
	generator TextGenerator
}

// NewService はServiceを生成する。
func NewService(generator TextGenerator) *Service {
	return &Service{generator: generator}
}

// Summarize はスナップショットから構造化プロンプトを組み立て、要約を生成する。
// 集約済みデータのみをプロンプトに埋め込むため、この段階でのネットワーク再取得は発生しない。
// 生成呼び出しの失敗は上流エラーとして返し、部分的な要約は返さない。
func (s *Service) Summarize(ctx context.Context, snapshot *model.TaskSnapshot) (*model.SummaryResult, error) {
	prompt := BuildPrompt(snapshot)

	text, err := s.generator.GenerateContent(ctx, prompt)
	if err != nil {
		slog.Error("summary generation failed",
			slog.String("task_id", snapshot.TaskID),
			slog.String("error", err.Error()),
		)
		return nil, model.NewGenerationFailedError(err.Error())
	}

	return &model.SummaryResult{
		SummaryText: text,
		Meta: model.SummaryMeta{
			RemainingDays: snapshot.RemainingDays,
			TaskName:      snapshot.Name,
			Status:        snapshot.Status,
		},
	}, nil
}

// BuildPrompt はスナップショットを構造化ブロックとして埋め込んだプロンプトを組み立てる。
// 出力契約（4セクション固定、箇条書きのみ、データの捏造禁止、簡潔さ）を
// プロンプト内で明示的に指定する。
func BuildPrompt(snapshot *model.TaskSnapshot) string {
	assignees := "None"
	if len(snapshot.Assignees) > 0 {
		assignees = strings.Join(snapshot.Assignees, ", ")
	}

	var b strings.Builder
	b.WriteString("You are summarizing a project-management task for a team member.\n\n")

	b.WriteString("Task data:\n")
	fmt.Fprintf(&b, "- Name: %s\n", snapshot.Name)
	fmt.Fprintf(&b, "- Status: %s\n", snapshot.Status)
	fmt.Fprintf(&b, "- Priority: %s\n", snapshot.Priority)
	fmt.Fprintf(&b, "- Assignees: %s\n", assignees)
	fmt.Fprintf(&b, "- Start date: %s\n", snapshot.StartDate)
	fmt.Fprintf(&b, "- Due date: %s\n", snapshot.DueDate)
	fmt.Fprintf(&b, "- Time estimate: %s\n", snapshot.TimeEstimate)
	fmt.Fprintf(&b, "- Remaining: %s\n", snapshot.RemainingDays)

	b.WriteString("\nDiscussion comments (chronological):\n")
	b.WriteString(snapshot.CommentsText)
	b.WriteString("\n")

	b.WriteString("\nWrite a markdown summary with exactly these four sections, in this order:\n")
	for _, section := range requiredSections {
		fmt.Fprintf(&b, "## %s\n", section)
	}

	b.WriteString("\nRules:\n")
	b.WriteString("- Use bullet points only.\n")
	b.WriteString("- Do not invent information that is not present in the data above.\n")
	b.WriteString("- Keep each bullet short and concise.\n")

	return b.String()
}
