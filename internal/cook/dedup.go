package cook

import "fmt"

// MessageDeduplicator mints stable "m<n>" IDs for Messages, returning an
// existing ID whenever the content hash has already been seen. The order in
// which new Messages are appended to Messages() is the contract the
// visualizer relies on: first-insertion order within the batch.
type MessageDeduplicator struct {
	hashToID map[string]string
	messages []Message
	counter  int
}

func NewMessageDeduplicator() *MessageDeduplicator {
	return &MessageDeduplicator{hashToID: make(map[string]string)}
}

// GetOrCreate normalizes the inputs (nil content becomes "", an empty
// tool-call slice becomes absent) and returns the ID of the matching
// Message, minting a new one if none exists yet.
func (d *MessageDeduplicator) GetOrCreate(role, content string, toolCalls []ToolCall, toolUseID string, isError *bool) string {
	hash := messageHash(role, content, toolCalls, toolUseID, isError)

	if id, ok := d.hashToID[hash]; ok {
		return id
	}

	id := fmt.Sprintf("m%d", d.counter)
	d.counter++

	d.messages = append(d.messages, Message{
		ID:        id,
		Role:      role,
		Content:   content,
		ToolCalls: toolCalls,
		ToolUseID: toolUseID,
		IsError:   isError,
	})
	d.hashToID[hash] = id

	return id
}

// Messages returns all deduplicated messages in first-insertion order.
func (d *MessageDeduplicator) Messages() []Message {
	return d.messages
}

// ToolDeduplicator mints stable "t<n>" IDs for Tool definitions.
type ToolDeduplicator struct {
	hashToID map[string]string
	tools    []Tool
	counter  int
}

func NewToolDeduplicator() *ToolDeduplicator {
	return &ToolDeduplicator{hashToID: make(map[string]string)}
}

// GetOrCreate returns the ID of the matching Tool, minting a new one if
// none exists yet.
func (d *ToolDeduplicator) GetOrCreate(name, description string, parameters any, isServerSide bool) string {
	if parameters == nil {
		parameters = map[string]any{}
	}

	hash := toolHash(name, description, parameters, isServerSide)

	if id, ok := d.hashToID[hash]; ok {
		return id
	}

	id := fmt.Sprintf("t%d", d.counter)
	d.counter++

	d.tools = append(d.tools, Tool{
		ID:           id,
		Name:         name,
		Description:  description,
		Parameters:   parameters,
		IsServerSide: isServerSide,
	})
	d.hashToID[hash] = id

	return id
}

// Tools returns all deduplicated tools in first-insertion order.
func (d *ToolDeduplicator) Tools() []Tool {
	return d.tools
}
