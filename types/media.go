package types

// MediaType is the closed set of media links attached to teams and runs.
type MediaType interface {
	MediaURL() string
	isMediaType()
}

// MediaImage is a static picture.
type MediaImage struct {
	URL string `json:"url"`
}

// MediaVideo is a progressive video file or stream.
type MediaVideo struct {
	URL string `json:"url"`
}

// MediaM2ts is an MPEG transport stream.
type MediaM2ts struct {
	URL string `json:"url"`
}

// MediaHLS is an HTTP live streaming playlist.
type MediaHLS struct {
	URL string `json:"url"`
}

func (m MediaImage) MediaURL() string { return m.URL }
func (m MediaVideo) MediaURL() string { return m.URL }
func (m MediaM2ts) MediaURL() string  { return m.URL }
func (m MediaHLS) MediaURL() string   { return m.URL }

func (MediaImage) isMediaType() {}
func (MediaVideo) isMediaType() {}
func (MediaM2ts) isMediaType()  {}
func (MediaHLS) isMediaType()   {}

func (m MediaImage) MarshalJSON() ([]byte, error) {
	type plain MediaImage
	return marshalTagged("Image", plain(m))
}

func (m MediaVideo) MarshalJSON() ([]byte, error) {
	type plain MediaVideo
	return marshalTagged("Video", plain(m))
}

func (m MediaM2ts) MarshalJSON() ([]byte, error) {
	type plain MediaM2ts
	return marshalTagged("M2tsVideo", plain(m))
}

func (m MediaHLS) MarshalJSON() ([]byte, error) {
	type plain MediaHLS
	return marshalTagged("HLSVideo", plain(m))
}
