// Package sym defines canonical symbols for bulkgraph commands and system markers.
// These symbols are stable across CLI output and structured logs.
package sym

// Command symbols. Each has a CLI command.
const (
	AM = "≡" // am: configuration
	IX = "⨳" // ix: import external data
)

// System infrastructure symbols.
const (
	Pulse = "꩜" // supervisor tick loop and processor rebalancing
	DB    = "⊔" // record stores and metadata database
)

// SymbolToCommand maps glyph strings to their CLI command equivalents.
var SymbolToCommand = map[string]string{
	AM: "config",
	IX: "import",
}

// CommandToSymbol maps CLI commands to their canonical glyph strings.
var CommandToSymbol = map[string]string{
	"config": AM,
	"import": IX,
}

// Prefix returns the glyph for a command followed by a space, or "" for unknown commands.
func Prefix(command string) string {
	if glyph, ok := CommandToSymbol[command]; ok {
		return glyph + " "
	}
	return ""
}
