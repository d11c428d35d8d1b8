package transcript

import "sync"

// List holds transcript entries newest first. Every operation is atomic with
// respect to the others, so asynchronous completions can address entries by
// id without racing deletions.
type List struct {
	mu       sync.Mutex
	entries  []Entry
	onChange func()
}

func NewList() *List {
	return &List{}
}

// OnChange registers fn to run after every successful mutation, outside the
// list's lock.
func (l *List) OnChange(fn func()) {
	l.mu.Lock()
	l.onChange = fn
	l.mu.Unlock()
}

func (l *List) changed() {
	l.mu.Lock()
	fn := l.onChange
	l.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Append puts e at the front. An entry whose id is already present is
// refused.
func (l *List) Append(e Entry) bool {
	l.mu.Lock()
	if l.indexLocked(e.ID) >= 0 {
		l.mu.Unlock()
		return false
	}
	e = normalize(e)
	l.entries = append(l.entries, Entry{})
	copy(l.entries[1:], l.entries)
	l.entries[0] = e
	l.mu.Unlock()
	l.changed()
	return true
}

// UpdateByID applies p to the entry with id in place. It returns false, and
// changes nothing, when the id is absent or the entry is already final.
func (l *List) UpdateByID(id string, p Patch) bool {
	l.mu.Lock()
	i := l.indexLocked(id)
	if i < 0 || l.entries[i].Status.Final() {
		l.mu.Unlock()
		return false
	}
	e := l.entries[i]
	e.Status = p.Status
	e.Text = p.Text
	l.entries[i] = normalize(e)
	l.mu.Unlock()
	l.changed()
	return true
}

// RemoveByID deletes the entry with id in any status.
func (l *List) RemoveByID(id string) bool {
	l.mu.Lock()
	i := l.indexLocked(id)
	if i < 0 {
		l.mu.Unlock()
		return false
	}
	l.entries = append(l.entries[:i], l.entries[i+1:]...)
	l.mu.Unlock()
	l.changed()
	return true
}

// All returns a copy of the entries, newest first.
func (l *List) All() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Entry(nil), l.entries...)
}

func (l *List) Get(id string) (Entry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if i := l.indexLocked(id); i >= 0 {
		return l.entries[i], true
	}
	return Entry{}, false
}

func (l *List) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

func (l *List) indexLocked(id string) int {
	for i := range l.entries {
		if l.entries[i].ID == id {
			return i
		}
	}
	return -1
}

func normalize(e Entry) Entry {
	switch e.Status {
	case Pending:
		e.Text = ""
	case Failed:
		e.Text = FailedText
	}
	return e
}
