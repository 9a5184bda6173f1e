package dto

// ReportPayload is the JSON part of a report submission. FotoSebelum and FotoSesudah name the
// multipart file fields carrying the photos.
type ReportPayload struct {
	PartnerName   string             `json:"partnerName" validate:"required"`
	NomorKontrak  string             `json:"nomorKontrak" validate:"required"`
	NamaPekerjaan string             `json:"namaPekerjaan" validate:"required"`
	Tanggal       string             `json:"tanggal" validate:"required"`
	Shift         string             `json:"shift" validate:"required,oneof=Shift1 Shift2"`
	TenagaKerja   []TenagaKerjaInput `json:"tenagaKerja" validate:"dive"`
	Aktivitas     []AktivitasInput   `json:"aktivitas" validate:"dive"`
}

// TenagaKerjaInput is one roster entry of a submission.
type TenagaKerjaInput struct {
	Nama       string `json:"nama" validate:"required"`
	Jabatan    string `json:"jabatan"`
	Keterangan string `json:"keterangan"`
}

// AktivitasInput is one activity of a submission.
type AktivitasInput struct {
	Kategori    string `json:"kategori" validate:"required"`
	Deskripsi   string `json:"deskripsi"`
	FotoSebelum string `json:"fotoSebelum"`
	FotoSesudah string `json:"fotoSesudah"`
}

// ReportFilter narrows report listings to a single work item.
type ReportFilter struct {
	PartnerName   string
	NomorKontrak  string
	NamaPekerjaan string
}

// Empty reports whether no filter field was supplied.
func (f ReportFilter) Empty() bool {
	return f.PartnerName == "" && f.NomorKontrak == "" && f.NamaPekerjaan == ""
}
