package catalogs

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"voxlogic/internal/sim/logic"
)

type Catalogs struct {
	Blocks BlockCatalog
}

type BlockCatalog struct {
	Palette       []string
	Index         map[string]uint16
	Defs          map[string]BlockDef
	PaletteDigest string
	DefsDigest    string
}

type BlockDef struct {
	ID        string    `json:"id"`
	Solid     bool      `json:"solid"`
	Breakable bool      `json:"breakable"`
	Logic     *LogicDef `json:"logic,omitempty"`
}

// LogicDef attaches a gate behavior to a block type. Behavior names the
// built-in evaluation rule; the port layout and default output come from
// the behavior itself.
type LogicDef struct {
	Behavior string `json:"behavior"`
}

func Load(configDir string) (*Catalogs, error) {
	var c Catalogs
	if err := loadBlocks(filepath.Join(configDir, "blocks.json"), &c.Blocks); err != nil {
		return nil, err
	}
	return &c, nil
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func loadBlocks(path string, out *BlockCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out.DefsDigest = sha256Hex(raw)

	var defs []BlockDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("blocks.json: %w", err)
	}
	out.Defs = map[string]BlockDef{}
	for _, d := range defs {
		if d.ID == "" {
			return fmt.Errorf("blocks.json: empty id")
		}
		if d.Logic != nil {
			if _, ok := logic.BehaviorByName(d.Logic.Behavior); !ok {
				return fmt.Errorf("blocks.json: %s: unknown logic behavior %q", d.ID, d.Logic.Behavior)
			}
		}
		out.Defs[d.ID] = d
	}

	ids := make([]string, 0, len(out.Defs))
	for id := range out.Defs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	// Ensure AIR exists and is palette id 0.
	if _, ok := out.Defs["AIR"]; !ok {
		return fmt.Errorf("blocks.json: missing AIR")
	}
	ids = append([]string{"AIR"}, filterOut(ids, "AIR")...)

	out.Palette = ids
	out.Index = make(map[string]uint16, len(ids))
	for i, id := range ids {
		out.Index[id] = uint16(i)
	}
	palJSON, _ := json.Marshal(ids)
	out.PaletteDigest = sha256Hex(palJSON)
	return nil
}

// LogicRegistry builds the gate registry from the catalog's logic
// annotations, keyed by palette id.
func (bc *BlockCatalog) LogicRegistry() (*logic.Registry, error) {
	reg := logic.NewRegistry()
	for _, id := range bc.Palette {
		def := bc.Defs[id]
		if def.Logic == nil {
			continue
		}
		bh, ok := logic.BehaviorByName(def.Logic.Behavior)
		if !ok {
			return nil, fmt.Errorf("block %s: unknown logic behavior %q", id, def.Logic.Behavior)
		}
		if err := reg.Register(logic.NewLogicBlock(bc.Index[id], id, bh)); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

func filterOut(in []string, remove string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == remove {
			continue
		}
		out = append(out, s)
	}
	return out
}
