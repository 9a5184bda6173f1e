package dto

// CreateContractRequest creates a contract together with its declared work items.
type CreateContractRequest struct {
	PartnerName  string   `json:"partnerName" validate:"required"`
	Nama         string   `json:"nama" validate:"required,max=300"`
	Nomor        string   `json:"nomor" validate:"required,max=100"`
	Tanggal      string   `json:"tanggal" validate:"required"`
	Nilai        int64    `json:"nilai" validate:"gt=0"`
	JangkaWaktu  int      `json:"jangka_waktu" validate:"gt=0,lte=1200"`
	PekerjaanArr []string `json:"pekerjaan_arr" validate:"dive,max=300"`
}

// CreateWorkItemRequest appends a work item to an existing contract.
type CreateWorkItemRequest struct {
	PartnerName  string `json:"partnerName" validate:"required"`
	NomorKontrak string `json:"nomorKontrak" validate:"required"`
	Nama         string `json:"nama" validate:"required,max=300"`
}
