package models

import "time"

// Shift enumerates the work periods a report can cover.
type Shift string

const (
	Shift1 Shift = "Shift1"
	Shift2 Shift = "Shift2"
)

// Valid reports whether s is a known shift.
func (s Shift) Valid() bool {
	return s == Shift1 || s == Shift2
}

// Laporan is a field report filed against a work item. It references the work item by value.
type Laporan struct {
	ID            string        `db:"id" json:"id"`
	MitraNama     string        `db:"mitra_nama" json:"partnerName"`
	NomorKontrak  string        `db:"nomor_kontrak" json:"nomorKontrak"`
	NamaPekerjaan string        `db:"nama_pekerjaan" json:"namaPekerjaan"`
	Tanggal       Date          `db:"tanggal" json:"tanggal"`
	Shift         Shift         `db:"shift" json:"shift"`
	DibuatOleh    string        `db:"dibuat_oleh" json:"dibuatOleh"`
	CreatedAt     time.Time     `db:"created_at" json:"createdAt"`
	TenagaKerja   []TenagaKerja `db:"-" json:"tenagaKerja"`
	Aktivitas     []Aktivitas   `db:"-" json:"aktivitas"`
}

// WorkItem returns the composite reference the report was filed against.
func (l Laporan) WorkItem() WorkItemRef {
	return WorkItemRef{PartnerName: l.MitraNama, NomorKontrak: l.NomorKontrak, NamaPekerjaan: l.NamaPekerjaan}
}

// AttachmentRefs lists every photo reference held by the report's activities in order.
func (l Laporan) AttachmentRefs() []string {
	refs := make([]string, 0, len(l.Aktivitas)*2)
	for _, a := range l.Aktivitas {
		if a.FotoSebelum != nil {
			refs = append(refs, *a.FotoSebelum)
		}
		if a.FotoSesudah != nil {
			refs = append(refs, *a.FotoSesudah)
		}
	}
	return refs
}

// TenagaKerja is a workforce roster entry.
type TenagaKerja struct {
	ID         string `db:"id" json:"id"`
	LaporanID  string `db:"laporan_id" json:"-"`
	Urutan     int    `db:"urutan" json:"urutan"`
	Nama       string `db:"nama" json:"nama"`
	Jabatan    string `db:"jabatan" json:"jabatan"`
	Keterangan string `db:"keterangan" json:"keterangan"`
}

// Aktivitas is a logged activity with optional before/after photo references.
type Aktivitas struct {
	ID          string  `db:"id" json:"id"`
	LaporanID   string  `db:"laporan_id" json:"-"`
	Urutan      int     `db:"urutan" json:"urutan"`
	Kategori    string  `db:"kategori" json:"kategori"`
	Deskripsi   string  `db:"deskripsi" json:"deskripsi"`
	FotoSebelum *string `db:"foto_sebelum" json:"fotoSebelum,omitempty"`
	FotoSesudah *string `db:"foto_sesudah" json:"fotoSesudah,omitempty"`
}
