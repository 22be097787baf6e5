package bus

import (
	"fmt"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
)

// Picker runs a compiled tengo script that chooses the next playlist
// index. The script sees the playlist and the index of the track that
// just finished, and assigns the chosen index to the global `next`:
//
//	next := (__last + 2) % len(__playlist)
type Picker struct {
	compiled *tengo.Compiled
}

func NewPicker(src []byte) (*Picker, error) {
	script := tengo.NewScript(src)
	_ = script.Add("__playlist", []interface{}{})
	_ = script.Add("__last", 0)
	script.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))

	compiled, err := script.Compile()
	if err != nil {
		return nil, fmt.Errorf("picker: compile: %w", err)
	}
	return &Picker{compiled: compiled}, nil
}

func (p *Picker) Next(playlist []string, last int) (int, error) {
	if p == nil || p.compiled == nil {
		return -1, fmt.Errorf("picker: nil script")
	}

	entries := make([]interface{}, len(playlist))
	for i, t := range playlist {
		entries[i] = t
	}
	if err := p.compiled.Set("__playlist", entries); err != nil {
		return -1, err
	}
	if err := p.compiled.Set("__last", last); err != nil {
		return -1, err
	}
	if err := p.compiled.Run(); err != nil {
		return -1, fmt.Errorf("picker: run: %w", err)
	}

	if !p.compiled.IsDefined("next") {
		return -1, fmt.Errorf("picker: script did not set `next`")
	}
	next := p.compiled.Get("next").Int()
	if next < 0 || next >= len(playlist) {
		return -1, fmt.Errorf("picker: index %d out of range", next)
	}
	return next, nil
}
