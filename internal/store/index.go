package store

import (
	"unicode/utf8"

	"github.com/hpungsan/spark/internal/snippet"
)

// indexAdd registers an active snippet. Callers must hold the write lock.
func (s *Store) indexAdd(sn *snippet.Snippet) {
	if !sn.IsActive {
		return
	}
	idx := s.owners[sn.Owner]
	if idx == nil {
		idx = &ownerIndex{
			byShortcut: make(map[string][]*snippet.Snippet),
			lengths:    make(map[int]int),
		}
		s.owners[sn.Owner] = idx
	}
	idx.byShortcut[sn.Shortcut] = append(idx.byShortcut[sn.Shortcut], sn)
	n := utf8.RuneCountInString(sn.Shortcut)
	idx.lengths[n]++
	if n > idx.maxLen {
		idx.maxLen = n
	}
}

// indexRemove drops a snippet record from the index. Callers must hold the write lock.
func (s *Store) indexRemove(sn *snippet.Snippet) {
	if !sn.IsActive {
		return
	}
	idx := s.owners[sn.Owner]
	if idx == nil {
		return
	}
	list := idx.byShortcut[sn.Shortcut]
	for i, cur := range list {
		if cur.ID == sn.ID {
			list = append(list[:i:i], list[i+1:]...)
			break
		}
	}
	if len(list) == 0 {
		delete(idx.byShortcut, sn.Shortcut)
	} else {
		idx.byShortcut[sn.Shortcut] = list
	}

	n := utf8.RuneCountInString(sn.Shortcut)
	idx.lengths[n]--
	if idx.lengths[n] <= 0 {
		delete(idx.lengths, n)
	}
	if n == idx.maxLen {
		idx.maxLen = 0
		for l := range idx.lengths {
			if l > idx.maxLen {
				idx.maxLen = l
			}
		}
	}
	if len(idx.byShortcut) == 0 {
		delete(s.owners, sn.Owner)
	}
}

// replace swaps old for next in the snippet map and the index.
// Callers must hold the write lock.
func (s *Store) replace(old, next *snippet.Snippet) {
	if old != nil {
		s.indexRemove(old)
	}
	s.snippets[next.ID] = next
	s.indexAdd(next)
}

// FindByShortcutSuffix returns every active snippet of owner whose shortcut
// is a suffix of text. Order is unspecified. The cost is one map probe per
// distinct shortcut length. Returned records are shared and must not be modified.
func (s *Store) FindByShortcutSuffix(owner, text string) []*snippet.Snippet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := s.owners[owner]
	if idx == nil || text == "" {
		return nil
	}

	var out []*snippet.Snippet
	total := utf8.RuneCountInString(text)
	for n := range idx.lengths {
		if n > total {
			continue
		}
		out = append(out, idx.byShortcut[lastRunes(text, n)]...)
	}
	return out
}

// MaxShortcutLen returns the rune length of the owner's longest active shortcut.
func (s *Store) MaxShortcutLen(owner string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if idx := s.owners[owner]; idx != nil {
		return idx.maxLen
	}
	return 0
}

// lastRunes returns the trailing n runes of text. n must not exceed the rune count.
func lastRunes(text string, n int) string {
	i := len(text)
	for ; n > 0 && i > 0; n-- {
		_, size := utf8.DecodeLastRuneInString(text[:i])
		i -= size
	}
	return text[i:]
}
