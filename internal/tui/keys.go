package tui

import (
	"github.com/charmbracelet/bubbletea"
)

// KeyMap defines all key bindings for the wizard.
type KeyMap struct {
	// Navigation
	Up   Key
	Down Key
	Home Key
	End  Key

	// Wizard
	PrevStage  Key
	NextStage  Key
	Submit     Key
	ClearDraft Key
	Help       Key
	Quit       Key

	// Member grids
	Add    Key
	Edit   Key
	Remove Key

	// Confirm dialog
	Confirm Key
	Cancel  Key
}

// Key represents a key binding.
type Key struct {
	Keys    []string
	Help    string
	Enabled bool
}

// DefaultKeyMap returns the default key bindings. Wizard keys avoid
// printable characters so that field stages can receive any text.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: Key{
			Keys:    []string{"up", "k"},
			Help:    "arriba",
			Enabled: true,
		},
		Down: Key{
			Keys:    []string{"down", "j"},
			Help:    "abajo",
			Enabled: true,
		},
		Home: Key{
			Keys:    []string{"home", "g"},
			Help:    "inicio",
			Enabled: true,
		},
		End: Key{
			Keys:    []string{"end", "G"},
			Help:    "fin",
			Enabled: true,
		},

		PrevStage: Key{
			Keys:    []string{"f2", "pgup"},
			Help:    "Anterior",
			Enabled: true,
		},
		NextStage: Key{
			Keys:    []string{"f3", "pgdown"},
			Help:    "Siguiente",
			Enabled: true,
		},
		Submit: Key{
			Keys:    []string{"f5"},
			Help:    "Enviar",
			Enabled: true,
		},
		ClearDraft: Key{
			Keys:    []string{"f8"},
			Help:    "Descartar",
			Enabled: true,
		},
		Help: Key{
			Keys:    []string{"f1"},
			Help:    "Ayuda",
			Enabled: true,
		},
		Quit: Key{
			Keys:    []string{"ctrl+c", "f10"},
			Help:    "Salir",
			Enabled: true,
		},

		Add: Key{
			Keys:    []string{"a", "insert"},
			Help:    "agregar",
			Enabled: true,
		},
		Edit: Key{
			Keys:    []string{"enter", "e"},
			Help:    "editar",
			Enabled: true,
		},
		Remove: Key{
			Keys:    []string{"d", "delete"},
			Help:    "eliminar",
			Enabled: true,
		},

		Confirm: Key{
			Keys:    []string{"y", "Y", "s", "S"},
			Help:    "sí",
			Enabled: true,
		},
		Cancel: Key{
			Keys:    []string{"n", "N", "esc"},
			Help:    "no",
			Enabled: true,
		},
	}
}

// Matches checks if a key message matches this key binding.
func (k Key) Matches(msg tea.KeyMsg) bool {
	if !k.Enabled {
		return false
	}

	keyStr := msg.String()
	for _, key := range k.Keys {
		if keyStr == key {
			return true
		}
	}
	return false
}

// MatchesAny checks if a key message matches any of the provided key bindings.
func MatchesAny(msg tea.KeyMsg, keys ...Key) bool {
	for _, k := range keys {
		if k.Matches(msg) {
			return true
		}
	}
	return false
}

// IsQuit checks if the key message is a quit command.
func (km KeyMap) IsQuit(msg tea.KeyMsg) bool {
	return km.Quit.Matches(msg)
}

// IsNavigation checks if the key message moves a grid selection.
func (km KeyMap) IsNavigation(msg tea.KeyMsg) bool {
	return MatchesAny(msg, km.Up, km.Down, km.Home, km.End)
}

// StatusBarHelp returns the help text for the status bar.
func (km KeyMap) StatusBarHelp() string {
	return "[F1]Ayuda [F2]Anterior [F3]Siguiente [F5]Enviar [F8]Descartar [F10]Salir"
}

// GridHelp returns the key help shown under the member grids.
func (km KeyMap) GridHelp() string {
	return "[a]Agregar  [Enter/e]Editar  [d]Eliminar  [↑↓]Mover"
}
