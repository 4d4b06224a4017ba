package llm

import "github.com/basalt-run/agentkit/pkg/content"

// MapFinishReason normalises a vendor finish-reason string, per spec
// §4.3's required mapping table. Unknown strings map to StopEndTurn.
func MapFinishReason(vendor string) StopReason {
	switch vendor {
	case "stop":
		return StopEndTurn
	case "length":
		return StopMaxTokens
	case "tool_calls":
		return StopToolUse
	case "tool_use":
		return StopToolUse
	case "stop_sequence":
		return StopSequence
	case "end_turn":
		return StopEndTurn
	case "max_tokens":
		return StopMaxTokens
	default:
		return StopEndTurn
	}
}

// BuildAssistantMessage assembles the reverse-mapped assistant message of
// spec §4.3: a single text block (if non-empty) followed by ToolUse
// blocks in vendor-return order.
func BuildAssistantMessage(id, text string, toolUses []content.ContentBlock) content.Message {
	var blocks []content.ContentBlock
	if text != "" {
		blocks = append(blocks, content.Text(text))
	}
	blocks = append(blocks, toolUses...)
	return content.NewMessage(id, content.RoleAssistant, blocks...)
}
