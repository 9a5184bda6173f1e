package models

import "time"

// InboxMessage is an append-only message addressed by partner name.
type InboxMessage struct {
	ID           string    `db:"id" json:"id"`
	Seq          int64     `db:"seq" json:"-"`
	MitraNama    string    `db:"mitra_nama" json:"partnerName"`
	Subjek       string    `db:"subjek" json:"subject"`
	Konten       string    `db:"konten" json:"content"`
	DiterimaPada time.Time `db:"diterima_pada" json:"receivedAt"`
}
