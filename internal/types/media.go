package types

// FileRef is an opaque reference to a remote byte source. Only the
// downloader collaborator knows how to turn it into a stream.
type FileRef struct {
	ID string
}

// IsZero reports whether the reference points at nothing downloadable.
func (r FileRef) IsZero() bool {
	return r.ID == ""
}

// Media is the closed set of downloadable attachment kinds. Media the
// archiver cannot fetch (polls, geo points, venues, dice, web pages) is
// simply not represented: such messages carry a nil Media.
type Media interface {
	isMedia()
}

// Photo always downloads as jpg.
type Photo struct {
	File FileRef
}

// Sticker downloads as tgs (animated) or webp.
type Sticker struct {
	Animated bool
	File     FileRef
	Thumbs   []Thumb
}

// Document is any generic file attachment.
type Document struct {
	FileName string
	MIME     string
	File     FileRef
	Thumbs   []Thumb
}

// Contact is recorded with a vcf path but has no remote byte source;
// fetch attempts fail and are logged like any other download failure.
type Contact struct{}

func (Photo) isMedia()    {}
func (Sticker) isMedia()  {}
func (Document) isMedia() {}
func (Contact) isMedia()  {}

// Thumb is one thumbnail variant of a document or sticker.
//
// Stripped marks the low-resolution preview embedded in the message itself;
// it reports no width and competes at width zero. Outline marks the vector
// placeholder variant, which is never worth fetching.
type Thumb struct {
	Width    int
	Stripped bool
	Outline  bool
	File     FileRef
}
