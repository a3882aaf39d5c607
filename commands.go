package rpgtl

// CommandCode identifies the kind of an event command inside a "list" array.
type CommandCode int

// Well-known event commands.
const (
	CmdShowText       CommandCode = 101
	CmdShowChoices    CommandCode = 102
	CmdScrollText     CommandCode = 105
	CmdTextLine       CommandCode = 401
	CmdWhenChoice     CommandCode = 402
	CmdScrollTextLine CommandCode = 405
	CmdPlaySE         CommandCode = 250
	CmdStopSE         CommandCode = 251
	CmdPluginCommand  CommandCode = 356
)

// TranslatableCommands holds the commands whose string parameters are extracted.
var TranslatableCommands = map[CommandCode]bool{
	CmdShowText:       true,
	CmdShowChoices:    true,
	CmdScrollText:     true,
	CmdTextLine:       true,
	CmdWhenChoice:     true,
	CmdScrollTextLine: true,
	120:               true,
	121:               true,
}

// ProtectedCommands always wins over TranslatableCommands.
var ProtectedCommands = map[CommandCode]bool{
	CmdPlaySE:        true,
	CmdStopSE:        true,
	CmdPluginCommand: true,
	357:              true,
	358:              true,
}

// ShouldTranslateCommand reports whether parameters of the command are eligible
// for translation. Unknown codes are not.
func ShouldTranslateCommand(code CommandCode) bool {
	if ProtectedCommands[code] {
		return false
	}
	return TranslatableCommands[code]
}
