package arena

// StringTable accumulates the name strings referenced across sections and
// serializes them in one contiguous block once every section has been
// written. Consumers store offsets relative to their own record's start, so
// the table remembers both the record base and the absolute position of the
// int32 slot to resolve.
type StringTable struct {
	entries []stringEntry
	index   map[string]int
}

type stringEntry struct {
	text  string
	slots []stringSlot
}

type stringSlot struct {
	recordBase int
	slotPos    int
}

func NewStringTable() *StringTable {
	return &StringTable{index: make(map[string]int)}
}

// Add interns text and registers the int32 field at slotPos (absolute arena
// position) to receive the record-relative offset at flush time. Duplicate
// texts share one serialized copy; first insertion order is preserved.
func (t *StringTable) Add(recordBase, slotPos int, text string) {
	i, ok := t.index[text]
	if !ok {
		i = len(t.entries)
		t.index[text] = i
		t.entries = append(t.entries, stringEntry{text: text})
	}
	t.entries[i].slots = append(t.entries[i].slots, stringSlot{recordBase: recordBase, slotPos: slotPos})
}

// Flush appends every interned string at the arena cursor and resolves all
// registered slots to offsets relative to their record bases.
func (t *StringTable) Flush(a *Arena) error {
	for _, e := range t.entries {
		pos, err := a.WriteString(e.text)
		if err != nil {
			return err
		}
		for _, s := range e.slots {
			if err := a.PatchInt32(s.slotPos, int32(pos-s.recordBase)); err != nil {
				return err
			}
		}
	}
	return nil
}
