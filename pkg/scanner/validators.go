package scanner

// VerifyPayload is the payload for shelf verification. Either a raw
// barcode or a base64 image frame must be provided.
type VerifyPayload struct {
	Barcode   string `json:"barcode" validate:"omitempty,max=64"`
	ImageData string `json:"image_data"`
	RackNo    string `json:"rack_no" validate:"required,max=20"`
}

// DecodePayload is the payload for decoding an image frame.
type DecodePayload struct {
	ImageData string `json:"image_data" validate:"required"`
}
