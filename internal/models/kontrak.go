package models

import "time"

// Kontrak is a contract held by a partner. Nomor is unique per partner.
type Kontrak struct {
	ID          string      `db:"id" json:"id"`
	MitraNama   string      `db:"mitra_nama" json:"partnerName"`
	Nama        string      `db:"nama" json:"nama"`
	Nomor       string      `db:"nomor" json:"nomor"`
	Tanggal     Date        `db:"tanggal" json:"tanggal"`
	Nilai       int64       `db:"nilai" json:"nilai"`
	JangkaWaktu int         `db:"jangka_waktu" json:"jangka_waktu"`
	CreatedAt   time.Time   `db:"created_at" json:"createdAt"`
	Pekerjaan   []Pekerjaan `db:"-" json:"pekerjaan"`
}

// Berakhir returns the first day after the contract period.
func (k Kontrak) Berakhir() Date {
	return k.Tanggal.AddMonths(k.JangkaWaktu)
}

// Covers reports whether d falls in [Tanggal, Tanggal + JangkaWaktu months).
func (k Kontrak) Covers(d Date) bool {
	return !d.Before(k.Tanggal) && d.Before(k.Berakhir())
}

// Pekerjaan is a work item of a contract, unique by name within it.
type Pekerjaan struct {
	ID        string    `db:"id" json:"id"`
	KontrakID string    `db:"kontrak_id" json:"kontrakId"`
	Nama      string    `db:"nama" json:"nama"`
	Urutan    int       `db:"urutan" json:"urutan"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// ContractRef addresses a contract by its natural key.
type ContractRef struct {
	PartnerName string `json:"partnerName"`
	Nomor       string `json:"nomorKontrak"`
}

// WorkItemRef addresses a work item by the partner, contract and work item names.
type WorkItemRef struct {
	PartnerName   string `json:"partnerName"`
	NomorKontrak  string `json:"nomorKontrak"`
	NamaPekerjaan string `json:"namaPekerjaan"`
}

// ResolvedWorkItem is the result of walking partner -> contract -> work item.
type ResolvedWorkItem struct {
	Kontrak   Kontrak   `json:"kontrak"`
	Pekerjaan Pekerjaan `json:"pekerjaan"`
}
