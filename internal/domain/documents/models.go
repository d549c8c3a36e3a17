package documents

import "time"

const MaxFileSize = 5 * 1024 * 1024

var AllowedContentTypes = []string{"application/pdf", "image/jpeg", "image/png"}

// Titles containing one of these, uploaded by an admin, can only be
// deleted by an admin.
var protectedKeywords = []string{"contract", "offer letter", "agreement"}

type Document struct {
	ID             string    `json:"id"`
	UserID         string    `json:"employeeId"`
	Title          string    `json:"title"`
	FileName       string    `json:"fileName"`
	ContentType    string    `json:"fileType"`
	FileSize       int64     `json:"fileSize"`
	UploadedBy     string    `json:"uploadedBy"`
	UploadedByRole string    `json:"uploadedByRole"`
	IsPrivate      bool      `json:"isPrivate"`
	Deletable      bool      `json:"deletable"`
	CreatedAt      time.Time `json:"createdAt"`
}

// UploadInput carries the file as base64, optionally as a data URL
// ("data:application/pdf;base64,...").
type UploadInput struct {
	Title     string `json:"title" validate:"required,max=200"`
	FileName  string `json:"fileName" validate:"required,max=255"`
	Data      string `json:"data" validate:"required"`
	IsPrivate bool   `json:"isPrivate"`
}

type NewDocument struct {
	UserID         string
	Title          string
	FileName       string
	ContentType    string
	FileSize       int64
	Content        []byte
	UploadedBy     string
	UploadedByRole string
	IsPrivate      bool
}

type ListFilter struct {
	UserID         string
	IncludePrivate bool
}
