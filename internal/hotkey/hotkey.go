// Package hotkey registers the system-wide shortcut that starts a cycle.
package hotkey

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.design/x/hotkey"
)

// Binding is a parsed shortcut such as "ctrl+shift+o".
type Binding struct {
	Mods []hotkey.Modifier
	Key  hotkey.Key
	Name string
}

var modifiers = map[string]hotkey.Modifier{
	"ctrl":    hotkey.ModCtrl,
	"control": hotkey.ModCtrl,
	"shift":   hotkey.ModShift,
}

var keys = map[string]hotkey.Key{
	"a": hotkey.KeyA, "b": hotkey.KeyB, "c": hotkey.KeyC, "d": hotkey.KeyD,
	"e": hotkey.KeyE, "f": hotkey.KeyF, "g": hotkey.KeyG, "h": hotkey.KeyH,
	"i": hotkey.KeyI, "j": hotkey.KeyJ, "k": hotkey.KeyK, "l": hotkey.KeyL,
	"m": hotkey.KeyM, "n": hotkey.KeyN, "o": hotkey.KeyO, "p": hotkey.KeyP,
	"q": hotkey.KeyQ, "r": hotkey.KeyR, "s": hotkey.KeyS, "t": hotkey.KeyT,
	"u": hotkey.KeyU, "v": hotkey.KeyV, "w": hotkey.KeyW, "x": hotkey.KeyX,
	"y": hotkey.KeyY, "z": hotkey.KeyZ,
	"0": hotkey.Key0, "1": hotkey.Key1, "2": hotkey.Key2, "3": hotkey.Key3,
	"4": hotkey.Key4, "5": hotkey.Key5, "6": hotkey.Key6, "7": hotkey.Key7,
	"8": hotkey.Key8, "9": hotkey.Key9,
	"space": hotkey.KeySpace,
}

// Parse reads a "+"-separated shortcut. At least one modifier is required so
// the binding cannot swallow ordinary typing.
func Parse(combo string) (Binding, error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(combo)), "+")
	if len(parts) < 2 {
		return Binding{}, fmt.Errorf("invalid hotkey %q: need at least one modifier and a key", combo)
	}

	b := Binding{Name: strings.Join(parts, "+")}
	seen := map[hotkey.Modifier]bool{}

	for _, p := range parts[:len(parts)-1] {
		mod, ok := modifiers[strings.TrimSpace(p)]
		if !ok {
			return Binding{}, fmt.Errorf("invalid hotkey %q: unknown modifier %q", combo, p)
		}
		if !seen[mod] {
			b.Mods = append(b.Mods, mod)
			seen[mod] = true
		}
	}

	last := strings.TrimSpace(parts[len(parts)-1])
	key, ok := keys[last]
	if !ok {
		return Binding{}, fmt.Errorf("invalid hotkey %q: unsupported key %q", combo, last)
	}
	b.Key = key

	return b, nil
}

// Listener delivers presses of a registered global shortcut.
type Listener struct {
	binding Binding
	hk      *hotkey.Hotkey
}

// Register claims the shortcut with the operating system.
func Register(b Binding) (*Listener, error) {
	hk := hotkey.New(b.Mods, b.Key)
	if err := hk.Register(); err != nil {
		return nil, fmt.Errorf("failed to register hotkey %s: %w", b.Name, err)
	}

	slog.Info("hotkey registered", "hotkey", b.Name)

	return &Listener{binding: b, hk: hk}, nil
}

// Listen calls fn for every key-down until ctx is cancelled, then releases
// the shortcut.
func (l *Listener) Listen(ctx context.Context, fn func()) {
	defer func() {
		if err := l.hk.Unregister(); err != nil {
			slog.Warn("failed to unregister hotkey", "hotkey", l.binding.Name, "error", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-l.hk.Keydown():
			slog.Debug("hotkey pressed", "hotkey", l.binding.Name)
			fn()
		}
	}
}
