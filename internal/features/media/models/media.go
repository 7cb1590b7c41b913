package models

type UploadResponse struct {
	ContentHash string `json:"contentHash"`
	ImageURL    string `json:"imageUrl"`
}
