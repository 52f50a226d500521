package model

// TaskSnapshot は1回の要約リクエストで使用するタスク情報の正規化済み表現。
// リクエストスコープのみで生存し、永続化されない。
// すべてのフィールドはデフォルト値が補完済みであり、
// 下流のプロンプト組み立てが欠損値の分岐を持たないことを保証する。
type TaskSnapshot struct {
	TaskID        string
	Name          string   // 欠損時 "Unknown"
	Status        string   // 欠損時 "Unknown"
	Priority      string   // 欠損時 "None"
	Assignees     []string // 表示名の順序付きリスト。欠損時は空
	StartDate     string   // 欠損時 "Not set"
	DueDate       string   // 欠損時 "Not set"
	TimeEstimate  string   // ミリ秒見積を時間に丸めた表現。欠損時 "Not set"
	RemainingDays string   // 期日から導出。"N days left" / "Overdue" / "No due date"
	CommentsText  string   // コメント本文を時系列順に連結。欠損時は固定プレースホルダ
}

// SummaryMeta は要約レスポンスに同梱するスナップショットのダイジェスト。
type SummaryMeta struct {
	RemainingDays string `json:"remainingDays"`
	TaskName      string `json:"taskName"`
	Status        string `json:"status"`
}

// SummaryResult は要約生成の結果を表す。
type SummaryResult struct {
	SummaryText string
	Meta        SummaryMeta
}
