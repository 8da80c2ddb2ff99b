package crawler

// Frontier is the FIFO queue of folder RelativePaths awaiting expansion.
// It is not safe for concurrent use.
type Frontier struct {
	items []string
	head  int
}

// NewFrontier returns a Frontier seeded with folders in order.
func NewFrontier(folders ...string) *Frontier {
	f := &Frontier{}
	for _, folder := range folders {
		f.Push(folder)
	}
	return f
}

// Push enqueues a folder at the tail.
func (f *Frontier) Push(folder string) {
	f.items = append(f.items, folder)
}

// Pop dequeues the earliest queued folder. ok is false when the frontier is empty.
func (f *Frontier) Pop() (folder string, ok bool) {
	if f.head >= len(f.items) {
		return "", false
	}
	folder = f.items[f.head]
	f.items[f.head] = ""
	f.head++

	// Reclaim the consumed prefix once it dominates the backing array.
	if f.head > 64 && f.head*2 >= len(f.items) {
		f.items = append(f.items[:0], f.items[f.head:]...)
		f.head = 0
	}
	return folder, true
}

// Len reports the number of queued folders.
func (f *Frontier) Len() int {
	return len(f.items) - f.head
}
