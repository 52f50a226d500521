// Package model はドメインモデルを定義する。
package model

import "time"

// Identity はClickUpユーザーIDとアクセストークンの紐付けを表す。
// OAuth完了時に作成・更新され、保護された操作のたびに読み取られる。
// 同一ClickUpユーザーIDに対するレコードは常に1件（upsertによるlast-write-wins）。
type Identity struct {
	ID            string
	ClickUpUserID string
	AccessToken   string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Session はユーザーのログインセッションを表す。
// セッションIDはCookie経由でクライアントに配布される。
type Session struct {
	ID            string
	ClickUpUserID string
	ExpiresAt     time.Time
	CreatedAt     time.Time
}
