// Package content defines the tagged-union message and content-block model
// shared by the session log, the LLM provider contract, and the event
// stream adapter.
package content

import (
	"encoding/json"
	"fmt"
	"time"
)

// Role identifies who produced a Message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// SourceKind discriminates the variants of Source.
type SourceKind string

const (
	SourceBase64 SourceKind = "base64"
	SourceURL    SourceKind = "url"
	SourceFile   SourceKind = "file"
	SourceBytes  SourceKind = "bytes"
)

// Source describes where media content comes from. Bytes is never
// serialized; it exists for in-process construction only.
type Source struct {
	Kind SourceKind `json:"type"`

	Data string `json:"data,omitempty"` // base64 payload
	URL  string `json:"url,omitempty"`
	Path string `json:"path,omitempty"`

	Bytes []byte `json:"-"`
}

func SourceFromBase64(data string) Source { return Source{Kind: SourceBase64, Data: data} }
func SourceFromURL(url string) Source     { return Source{Kind: SourceURL, URL: url} }
func SourceFromFile(path string) Source   { return Source{Kind: SourceFile, Path: path} }
func SourceFromBytes(b []byte) Source     { return Source{Kind: SourceBytes, Bytes: b} }

// BlockKind discriminates the variants of ContentBlock.
type BlockKind string

const (
	BlockText       BlockKind = "text"
	BlockImage      BlockKind = "image"
	BlockAudio      BlockKind = "audio"
	BlockVideo      BlockKind = "video"
	BlockFile       BlockKind = "file"
	BlockToolUse    BlockKind = "tool_use"
	BlockToolResult BlockKind = "tool_result"
	BlockCustom     BlockKind = "custom"
)

// ContentBlock is the closed tagged union spec'd in §3. Exactly one of the
// field groups below is populated, selected by Kind.
type ContentBlock struct {
	Kind BlockKind `json:"type"`

	// Text
	Text string `json:"text,omitempty"`

	// Image / Audio / Video / File
	Source    *Source `json:"source,omitempty"`
	MediaType string  `json:"media_type,omitempty"`
	Alt       string  `json:"alt,omitempty"`
	Filename  string  `json:"filename,omitempty"`

	// ToolUse
	ToolUseID   string          `json:"id,omitempty"`
	ToolName    string          `json:"name,omitempty"`
	ToolInput   json.RawMessage `json:"input,omitempty"`

	// ToolResult
	ToolUseRefID string `json:"tool_use_id,omitempty"`
	ResultText   string `json:"content,omitempty"`
	ResultError  string `json:"error,omitempty"`
	IsError      bool   `json:"is_error,omitempty"`

	// Custom
	CustomType string          `json:"custom_type,omitempty"`
	CustomData json.RawMessage `json:"data,omitempty"`
}

func Text(text string) ContentBlock {
	return ContentBlock{Kind: BlockText, Text: text}
}

func Image(src Source, mediaType, alt string) ContentBlock {
	return ContentBlock{Kind: BlockImage, Source: &src, MediaType: mediaType, Alt: alt}
}

func Audio(src Source, mediaType string) ContentBlock {
	return ContentBlock{Kind: BlockAudio, Source: &src, MediaType: mediaType}
}

func Video(src Source, mediaType string) ContentBlock {
	return ContentBlock{Kind: BlockVideo, Source: &src, MediaType: mediaType}
}

func File(src Source, filename, mediaType string) ContentBlock {
	return ContentBlock{Kind: BlockFile, Source: &src, Filename: filename, MediaType: mediaType}
}

func ToolUse(id, name string, input json.RawMessage) ContentBlock {
	return ContentBlock{Kind: BlockToolUse, ToolUseID: id, ToolName: name, ToolInput: input}
}

func ToolResult(toolUseID, text string, isError bool) ContentBlock {
	return ContentBlock{Kind: BlockToolResult, ToolUseRefID: toolUseID, ResultText: text, IsError: isError}
}

func ToolResultErr(toolUseID, errMsg string) ContentBlock {
	return ContentBlock{Kind: BlockToolResult, ToolUseRefID: toolUseID, ResultError: errMsg, IsError: true}
}

func Custom(customType string, data json.RawMessage) ContentBlock {
	return ContentBlock{Kind: BlockCustom, CustomType: customType, CustomData: data}
}

// IsText reports whether the block carries text content.
func (b ContentBlock) IsText() bool { return b.Kind == BlockText }

// Message is an ordered list of content blocks attributed to a Role.
// id is unique per session, assigned on construction; messages are never
// mutated in place after being appended to a session.
type Message struct {
	ID        string         `json:"id"`
	Role      Role           `json:"role"`
	Content   []ContentBlock `json:"content"`
	CreatedAt time.Time      `json:"created_at"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// NewMessage constructs a message with the given id, role and blocks.
func NewMessage(id string, role Role, blocks ...ContentBlock) Message {
	return Message{
		ID:        id,
		Role:      role,
		Content:   blocks,
		CreatedAt: time.Now(),
	}
}

// TextContent concatenates every Text block in the message, in order.
func (m Message) TextContent() string {
	var out string
	for _, b := range m.Content {
		if b.IsText() {
			out += b.Text
		}
	}
	return out
}

// ToolUses returns every ToolUse block in the message, in order.
func (m Message) ToolUses() []ContentBlock {
	var out []ContentBlock
	for _, b := range m.Content {
		if b.Kind == BlockToolUse {
			out = append(out, b)
		}
	}
	return out
}

// ToolResults returns every ToolResult block in the message, in order.
func (m Message) ToolResults() []ContentBlock {
	var out []ContentBlock
	for _, b := range m.Content {
		if b.Kind == BlockToolResult {
			out = append(out, b)
		}
	}
	return out
}

// Validate checks the per-message invariants from spec §3: assistant
// messages must not repeat a ToolUse id, and tool messages must contain
// only ToolResult blocks.
func (m Message) Validate() error {
	switch m.Role {
	case RoleTool:
		for _, b := range m.Content {
			if b.Kind != BlockToolResult {
				return fmt.Errorf("content: tool message contains non-tool-result block %q", b.Kind)
			}
		}
	case RoleAssistant:
		seen := make(map[string]struct{})
		for _, b := range m.Content {
			if b.Kind != BlockToolUse {
				continue
			}
			if _, dup := seen[b.ToolUseID]; dup {
				return fmt.Errorf("content: duplicate tool_use id %q in assistant message", b.ToolUseID)
			}
			seen[b.ToolUseID] = struct{}{}
		}
	}
	return nil
}
