package constants

// DocumentStatus is the terminal state of one document run (stored in documents.status).
type DocumentStatus string

const (
	DocumentOK          DocumentStatus = "OK"
	DocumentOpenFailed  DocumentStatus = "OPEN_FAILED"
	DocumentStoreFailed DocumentStatus = "STORE_FAILED"
	DocumentUnchanged   DocumentStatus = "UNCHANGED" // content hash already processed
	DocumentCanceled    DocumentStatus = "CANCELED"
)

// SkipReason explains why a page or image produced nothing.
type SkipReason string

const (
	SkipNone         SkipReason = ""
	SkipTextFailed   SkipReason = "TEXT_FAILED"
	SkipEmptyPage    SkipReason = "EMPTY_PAGE"
	SkipImagesFailed SkipReason = "IMAGES_FAILED"
	SkipTooSmall     SkipReason = "TOO_SMALL"
	SkipFullPage     SkipReason = "FULL_PAGE"
	SkipCodecFailed  SkipReason = "CODEC_FAILED"
	SkipWriteFailed  SkipReason = "WRITE_FAILED"
	SkipNoCandidate  SkipReason = "NO_CANDIDATE"
	SkipPageLimit    SkipReason = "PAGE_LIMIT"
)
