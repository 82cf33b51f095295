package scheduled

import (
	"encoding/base64"
	"net/http"
)

var iconTypes = map[string]struct{}{
	"image/png":  {},
	"image/jpeg": {},
	"image/gif":  {},
	"image/webp": {},
}

// Icon is an encoded cover image ready to be sent to the platform.
type Icon struct {
	contentType string
	data        []byte
}

// NewIcon sniffs the image format from data. Only png, jpeg, gif and webp
// are accepted.
func NewIcon(data []byte) (*Icon, error) {
	if len(data) == 0 {
		return nil, invalid("image", "must not be empty")
	}
	ct := http.DetectContentType(data)
	if _, ok := iconTypes[ct]; !ok {
		return nil, invalid("image", "unsupported format "+ct)
	}
	return &Icon{contentType: ct, data: append([]byte(nil), data...)}, nil
}

func (i *Icon) ContentType() string { return i.contentType }

// DataURI is the form the platform expects in the image field.
func (i *Icon) DataURI() string {
	return "data:" + i.contentType + ";base64," + base64.StdEncoding.EncodeToString(i.data)
}
