package ui

// Action represents a logical key action consumed by the model.
type Action string

const (
	// ActionNone means the key edits the query text.
	ActionNone     Action = ""
	ActionUp       Action = "up"
	ActionDown     Action = "down"
	ActionPageUp   Action = "page_up"
	ActionPageDown Action = "page_down"
	ActionTop      Action = "top"
	ActionBottom   Action = "bottom"
	ActionConfirm  Action = "confirm"
	ActionAbort    Action = "abort"
)

// KeyBindings maps key strings (as reported by tea.KeyPressMsg.String) to
// actions. Keys not listed here are passed to the query input.
var KeyBindings = map[string]Action{
	"up":        ActionUp,
	"ctrl+p":    ActionUp,
	"down":      ActionDown,
	"ctrl+n":    ActionDown,
	"pgup":      ActionPageUp,
	"pgdown":    ActionPageDown,
	"ctrl+home": ActionTop,
	"ctrl+end":  ActionBottom,
	"enter":     ActionConfirm,
	"esc":       ActionAbort,
	"ctrl+c":    ActionAbort,
}

// actionForKey returns the action bound to keyStr, or ActionNone.
func actionForKey(keyStr string) Action {
	return KeyBindings[keyStr]
}
