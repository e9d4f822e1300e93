package dto

// UploadFieldName is the multipart field the backend reads the file from.
const UploadFieldName = "file"

// UploadContentType is sent as the Content-Type of the file part.
const UploadContentType = "application/pdf"

type UploadRequest struct {
	Filename string `validate:"required,pdfname"`
	Content  []byte `validate:"required"`
}

// UploadResponse is the upload result object. Only Filename and Message are
// interpreted; anything else the backend reports is kept in Details.
type UploadResponse struct {
	Filename string                 `json:"filename,omitempty"`
	Message  string                 `json:"message,omitempty"`
	Details  map[string]interface{} `json:"-"`
}

type DeleteRequest struct {
	Filename string `json:"filename" validate:"required"`
}

type DeleteResponse struct {
	Message string `json:"message"`
}

// ListDocumentsResponse is the body of GET /get-pdfs/. A missing pdfs field
// decodes to an empty list.
type ListDocumentsResponse struct {
	Pdfs []string `json:"pdfs"`
}

func (r *ListDocumentsResponse) Filenames() []string {
	if r == nil || r.Pdfs == nil {
		return []string{}
	}
	return r.Pdfs
}
