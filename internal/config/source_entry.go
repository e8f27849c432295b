package config

import (
	"encoding/json"
	"fmt"
)

// SourceEntry decodes either a bare path string or a [path, {library,
// flags}] tuple, per spec §6's "sources" schema. Grounded on the teacher's
// split between a bare file list and library-scoped glob groups
// (config.FileEntry / config.LibraryConfig), collapsed here into one
// custom unmarshaler so both JSON shapes land in the same Go type.
type SourceEntry struct {
	Path    string
	Library string
	Flags   []string
}

func (s *SourceEntry) UnmarshalJSON(data []byte) error {
	var bare string
	if err := json.Unmarshal(data, &bare); err == nil {
		s.Path = bare
		return nil
	}

	var tuple []json.RawMessage
	if err := json.Unmarshal(data, &tuple); err != nil {
		return fmt.Errorf("hdl-checker: source entry must be a string or a [path, options] pair: %w", err)
	}
	if len(tuple) != 2 {
		return fmt.Errorf("hdl-checker: source entry tuple must have exactly 2 elements, got %d", len(tuple))
	}
	if err := json.Unmarshal(tuple[0], &s.Path); err != nil {
		return fmt.Errorf("hdl-checker: source entry path: %w", err)
	}
	var opts struct {
		Library string   `json:"library"`
		Flags   []string `json:"flags"`
	}
	if err := json.Unmarshal(tuple[1], &opts); err != nil {
		return fmt.Errorf("hdl-checker: source entry options: %w", err)
	}
	s.Library = opts.Library
	s.Flags = opts.Flags
	return nil
}

func (s SourceEntry) MarshalJSON() ([]byte, error) {
	if s.Library == "" && len(s.Flags) == 0 {
		return json.Marshal(s.Path)
	}
	opts := struct {
		Library string   `json:"library,omitempty"`
		Flags   []string `json:"flags,omitempty"`
	}{Library: s.Library, Flags: s.Flags}
	return json.Marshal([2]any{s.Path, opts})
}
