package database

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// Open はPostgreSQL接続プールを開き、このAPIのワークロードに合わせた
// プール設定を適用する。要約リクエストは外部API待ちが大半でDB負荷は軽いため、
// 接続数は控えめに抑える。
// sql.Openは接続を試行しないため、実際の疎通確認にはPing/PingContextを使用すること。
func Open(databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	return db, nil
}
