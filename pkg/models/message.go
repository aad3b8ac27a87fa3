package models

// PromptPart is one element of a user prompt. Role selects which of the
// optional payload fields is meaningful: "text" carries Content, "image"
// carries Image (an image record id), "file" carries File (a file record id).
type PromptPart struct {
	Role    string `json:"role"`
	Content string `json:"content,omitempty"`
	Image   string `json:"image,omitempty"`
	File    string `json:"file,omitempty"`
}

// Prompt part roles.
const (
	PartText  = "text"
	PartImage = "image"
	PartFile  = "file"
)

// TextPart builds a text prompt part.
func TextPart(content string) PromptPart { return PromptPart{Role: PartText, Content: content} }

// ImagePart builds an image prompt part referencing an image record.
func ImagePart(imageID string) PromptPart { return PromptPart{Role: PartImage, Image: imageID} }

// FilePart builds a file prompt part referencing a file record.
func FilePart(fileID string) PromptPart { return PromptPart{Role: PartFile, File: fileID} }

// ResponsePart is one element of an assistant response. Currently only text
// parts exist; the sequence form is kept for forward compatibility.
type ResponsePart struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// TextResponse wraps a single text reply into the response sequence form.
func TextResponse(content string) []ResponsePart {
	return []ResponsePart{{Role: PartText, Content: content}}
}

// Message is one exchange turn: a user prompt and the assistant response,
// plus the two branch-bundle ids that anchor it in the conversation tree.
//
// Edits and Regens are assigned at creation and never change for the life of
// the message. CurEdit/CurResp record the index the message occupied in its
// bundle when created; navigation recomputes position and does not read them.
type Message struct {
	ID       string         `json:"id"`
	Thread   string         `json:"thread"`
	Prompt   []PromptPart   `json:"prompt"`
	Response []ResponsePart `json:"response"`

	Reasoning    string `json:"reasoning,omitempty"`
	HasReasoning bool   `json:"hasReasoning"`

	Model  string  `json:"model"`
	Sender UserRef `json:"sender"`
	Pinned bool    `json:"pinned"`

	Edits  string `json:"edits"`
	Regens string `json:"regens"`

	CurEdit int `json:"curEdit"`
	CurResp int `json:"curResp"`

	// Created timestamp (ms)
	TS int64 `json:"ts,omitempty"`
}
