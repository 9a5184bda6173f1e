package dto

// CreatePartnerRequest registers a new partner.
type CreatePartnerRequest struct {
	Nama            string `json:"nama" validate:"required,max=200"`
	Email           string `json:"email" validate:"omitempty,email"`
	Telepon         string `json:"telepon" validate:"omitempty,max=50"`
	Alamat          string `json:"alamat" validate:"omitempty,max=500"`
	PenanggungJawab string `json:"penanggungJawab" validate:"omitempty,max=200"`
}
