package recognize

// Prompt asks the model for a summary followed by a verbatim transcription
// of every visible piece of text.
const Prompt = "Give a summary of what's in the image after 'SUMMARY:' and give full OCR " +
	"exactly and correctly without any missing details after 'OCR:'"

const (
	summaryHeader = "SUMMARY:"
	ocrHeader     = "OCR:"
)
