package models

import "time"

// Mitra is a partner organisation identified by its unique name.
type Mitra struct {
	ID              string    `db:"id" json:"id"`
	Nama            string    `db:"nama" json:"nama"`
	Email           string    `db:"email" json:"email"`
	Telepon         string    `db:"telepon" json:"telepon"`
	Alamat          string    `db:"alamat" json:"alamat"`
	PenanggungJawab string    `db:"penanggung_jawab" json:"penanggungJawab"`
	CreatedAt       time.Time `db:"created_at" json:"createdAt"`
}
