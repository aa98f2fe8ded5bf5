package config

// Built-in command lines per keyboard backend. The type command receives
// text on stdin.
var keyboardPresets = map[string]struct{ typeCmd, backspaceCmd string }{
	"wtype":   {typeCmd: "wtype -", backspaceCmd: "wtype -k BackSpace"},
	"xdotool": {typeCmd: "xdotool type --delay 0 --file -", backspaceCmd: "xdotool key BackSpace"},
	"ydotool": {typeCmd: "ydotool type --file -", backspaceCmd: "ydotool key 14:1 14:0"},
}

// Commands returns the type and backspace commands for the configured backend.
func (k KeyboardConfig) Commands() (typeCmd CommandConfig, backspaceCmd CommandConfig) {
	preset, ok := keyboardPresets[k.Backend]
	if !ok {
		return k.TypeCmd, k.BackspaceCmd
	}
	return CommandConfig{Raw: preset.typeCmd, Argv: builtinArgv(preset.typeCmd)},
		CommandConfig{Raw: preset.backspaceCmd, Argv: builtinArgv(preset.backspaceCmd)}
}
