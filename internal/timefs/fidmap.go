package timefs

// FidMap records the path each open fid of a connection refers to. It is
// owned by the goroutine serving the connection.
type FidMap struct {
	fids map[uint32]string
}

func NewFidMap() *FidMap {
	return &FidMap{fids: make(map[uint32]string, 10)}
}

func (fm *FidMap) Exists(f uint32) bool {
	_, ok := fm.fids[f]
	return ok
}

// Add binds f to path. It fails if f is already bound.
func (fm *FidMap) Add(f uint32, path string) bool {
	if fm.Exists(f) {
		return false
	}
	fm.fids[f] = path
	return true
}

// Del unbinds f. It fails if f is not bound.
func (fm *FidMap) Del(f uint32) bool {
	if !fm.Exists(f) {
		return false
	}
	delete(fm.fids, f)
	return true
}

func (fm *FidMap) Get(f uint32) (string, bool) {
	p, ok := fm.fids[f]
	return p, ok
}

func (fm *FidMap) Len() int { return len(fm.fids) }
