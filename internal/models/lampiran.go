package models

// AttachmentMeta describes an uploaded file part before it is stored.
type AttachmentMeta struct {
	FieldName   string `json:"fieldName"`
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}

// StoredAttachment is the outcome of a successful store.
type StoredAttachment struct {
	Ref         string `json:"ref"`
	ThumbRef    string `json:"thumbRef,omitempty"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}
