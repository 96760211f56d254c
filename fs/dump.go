package fs

import (
	"fmt"
	"io"
	"sort"

	"github.com/opaquecloud/lffs/access"
)

// Dump writes an indented, human-readable snapshot of the manifest graph
// reachable from root to w, for tests and the lffsdump debugging tool.
// Modelled on the teacher's Tree.DumpNodes.
func (m *Mutator) Dump(w io.Writer) error {
	return m.dumpFrom(w, m.cache.Root(), "/", 0)
}

func (m *Mutator) dumpFrom(w io.Writer, a access.Access, name string, depth int) error {
	mm, err := m.cache.Get(a)
	if err != nil {
		_, werr := fmt.Fprintf(w, "%*s%s <missing: %v>\n", depth*2, "", name, err)
		return werr
	}
	_, err = fmt.Fprintf(w, "%*s%s access=%s type=%s need_sync=%v placeholder=%v base_version=%d\n",
		depth*2, "", name, a, typeOf(name, mm), mm.GetNeedSync(), mm.GetIsPlaceholder(), mm.GetBaseVersion())
	if err != nil {
		return err
	}
	children, ok := childrenOf(mm)
	if !ok {
		return nil
	}
	names := make([]string, 0, len(children))
	byName := make(map[string]access.Access, len(children))
	for n, childAccess := range children {
		names = append(names, n.String())
		byName[n.String()] = childAccess
	}
	sort.Strings(names)
	for _, n := range names {
		if err := m.dumpFrom(w, byName[n], n, depth+1); err != nil {
			return err
		}
	}
	return nil
}
